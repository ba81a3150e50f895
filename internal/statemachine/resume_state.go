package statemachine

import (
	"fmt"

	"stateful/internal/mir"
)

// ResumeArgField names the argument slot of every internal state entered
// through the resume layer.
const ResumeArgField = "resume_arg"

// ResumeVariant is a state a caller can hold between steps: the start state
// or the state after a suspension. It carries the captures of its internal
// state and nothing else.
type ResumeVariant struct {
	ID       ResumeID
	Name     string
	Internal StateID
	Fields   []ScopeField
	Params   []string
}

// ResumeLayer is the reduced enumeration in front of the full machine.
type ResumeLayer struct {
	Variants []ResumeVariant
	Start    ResumeID
	// Params lists only the type parameters the reduced variants use, in
	// first-use order.
	Params []TypeParam

	byBlock map[mir.BlockID]ResumeID
}

func buildResumeLayer(f *mir.Func, m *Machine, reachable []bool) *ResumeLayer {
	r := &ResumeLayer{byBlock: make(map[mir.BlockID]ResumeID)}
	add := func(bb mir.BlockID) {
		if _, dup := r.byBlock[bb]; dup {
			return
		}
		state, _ := m.StateOf(bb)
		v := m.Variant(state)
		id := ResumeID(stateID(len(r.Variants)))
		r.byBlock[bb] = id
		r.Variants = append(r.Variants, ResumeVariant{
			ID:       id,
			Name:     fmt.Sprintf("Coroutine%d%s", bb, f.Blocks[bb].Name),
			Internal: state,
			Fields:   v.Fields,
			Params:   v.Params,
		})
	}
	add(mir.StartBlock)
	for i := range f.Blocks {
		if reachable[i] && f.Blocks[i].Term.Kind == mir.TermSuspend {
			add(f.Blocks[i].Term.Suspend.Target)
		}
	}
	r.Start = r.byBlock[mir.StartBlock]
	r.assignParams(m)
	return r
}

func (r *ResumeLayer) assignParams(m *Machine) {
	byName := make(map[string]TypeParam, len(m.Params))
	for _, p := range m.Params {
		byName[p.Name] = p
	}
	seen := make(map[string]bool)
	for _, v := range r.Variants {
		for _, name := range v.Params {
			if seen[name] {
				continue
			}
			seen[name] = true
			r.Params = append(r.Params, byName[name])
		}
	}
}

func (r *ResumeLayer) lookup(bb mir.BlockID) ResumeID {
	if id, ok := r.byBlock[bb]; ok {
		return id
	}
	return NoResume
}

// Variant returns the reduced variant with the given id or nil.
func (r *ResumeLayer) Variant(id ResumeID) *ResumeVariant {
	if r == nil || id < 0 || int(id) >= len(r.Variants) {
		return nil
	}
	return &r.Variants[id]
}

// Entry is an internal state reconstructed from a reduced one.
type Entry[V any] struct {
	State  StateID
	Fields [][]V
	// Arg is carried for the body but never bound to a local.
	Arg V
}

// Adapt maps reduced state id, with one value slice per scope field, to
// its internal state and attaches the resume argument.
func Adapt[V any](r *ResumeLayer, id ResumeID, fields [][]V, arg V) (Entry[V], error) {
	v := r.Variant(id)
	if v == nil {
		return Entry[V]{}, fmt.Errorf("statemachine: unknown resume state %d", id)
	}
	if len(fields) != len(v.Fields) {
		return Entry[V]{}, fmt.Errorf("statemachine: %s: got %d scope fields, want %d", v.Name, len(fields), len(v.Fields))
	}
	for i, f := range v.Fields {
		if len(fields[i]) != len(f.Captures) {
			return Entry[V]{}, fmt.Errorf("statemachine: %s: field %d has %d captures, want %d", v.Name, i, len(fields[i]), len(f.Captures))
		}
	}
	return Entry[V]{State: v.Internal, Fields: fields, Arg: arg}, nil
}
