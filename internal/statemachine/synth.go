package statemachine

import (
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"stateful/internal/mir"
	"stateful/internal/trace"
)

// Options tunes synthesis.
type Options struct {
	// Resumable adds the reduced resume-state layer.
	Resumable bool

	Tracer      trace.Tracer
	TraceParent uint64
}

// Synthesize derives the state machine of a constructed graph.
func Synthesize(f *mir.Func, opts Options) (m *Machine, err error) {
	if f == nil || len(f.Blocks) == 0 {
		return nil, fmt.Errorf("statemachine: empty function")
	}
	sp := trace.Begin(opts.Tracer, trace.ScopePass, "synthesize:"+f.Name, opts.TraceParent)
	defer func() {
		if m != nil {
			sp.WithExtra("states", strconv.Itoa(len(m.Variants)))
		}
		sp.End("")
	}()

	m = &Machine{
		Name:       f.Name,
		Kind:       f.Kind,
		Discipline: DisciplineFor(f.Kind),
		stateOf:    make([]StateID, len(f.Blocks)),
	}
	reachable := mir.Reachable(f)
	for i := range f.Blocks {
		m.stateOf[i] = NoState
		if !reachable[i] {
			continue
		}
		blk := &f.Blocks[i]
		if !blk.Terminated() {
			return nil, fmt.Errorf("statemachine: %s: bb%d: unterminated block", f.Name, i)
		}
		m.stateOf[i] = stateID(len(m.Variants))
		m.Variants = append(m.Variants, Variant{
			ID:     m.stateOf[i],
			Name:   fmt.Sprintf("State%d%s", i, blk.Name),
			Block:  blk.ID,
			Fields: captureFields(f, blk.Decls),
		})
	}
	m.Start = m.stateOf[mir.StartBlock]
	m.Illegal = stateID(len(m.Variants))
	m.Variants = append(m.Variants, Variant{ID: m.Illegal, Name: "Illegal", Block: mir.NoBlockID})
	m.assignParams(f)

	if opts.Resumable && hasSuspend(f, reachable) {
		m.Resume = buildResumeLayer(f, m, reachable)
	}

	for i := range f.Blocks {
		if !reachable[i] {
			continue
		}
		blk := &f.Blocks[i]
		t, err := m.transition(&blk.Term)
		if err != nil {
			return nil, fmt.Errorf("statemachine: %s: bb%d: %w", f.Name, i, err)
		}
		m.Handlers = append(m.Handlers, Handler{
			State:      m.stateOf[i],
			Block:      blk.ID,
			Stmts:      blk.Stmts,
			Transition: t,
		})
	}
	return m, nil
}

func stateID(n int) StateID {
	id, err := safecast.Conv[int32](n)
	if err != nil {
		panic(fmt.Errorf("statemachine: state id overflow: %w", err))
	}
	return StateID(id)
}

// captureFields lists, per live extent, the Active locals in declaration
// order followed by the shadow chains of Active and Moved locals.
func captureFields(f *mir.Func, decls mir.LiveDeclMap) []ScopeField {
	type key struct {
		local mir.LocalID
		name  string
	}
	seen := make(map[key]bool)
	add := func(out []Capture, c Capture) []Capture {
		k := key{c.Local, c.Name}
		if seen[k] {
			return out
		}
		seen[k] = true
		return append(out, c)
	}

	fields := make([]ScopeField, 0, len(decls))
	for _, sc := range decls {
		var caps []Capture
		for _, d := range sc.Decls {
			if d.Kind != mir.LiveActive {
				continue
			}
			l := f.Local(d.Local)
			caps = add(caps, Capture{Local: d.Local, Name: l.Name, Mut: l.Mut})
		}
		for _, d := range sc.Decls {
			if d.Kind == mir.LiveForward {
				continue
			}
			for s := f.Local(d.Local).Shadowed; s != mir.NoLocalID; s = f.Local(s).Shadowed {
				l := f.Local(s)
				caps = add(caps, Capture{Local: s, Name: mir.ShadowAlias(l.Name, s), Mut: l.Mut})
			}
		}
		fields = append(fields, ScopeField{Extent: sc.Extent, Captures: caps})
	}
	return fields
}

// assignParams gives each distinct captured local one type parameter, in
// first-use order across the variants.
func (m *Machine) assignParams(f *mir.Func) {
	index := make(map[mir.LocalID]string)
	for vi := range m.Variants {
		v := &m.Variants[vi]
		used := make(map[string]bool)
		for fi := range v.Fields {
			caps := v.Fields[fi].Captures
			for ci := range caps {
				local := caps[ci].Local
				name, ok := index[local]
				if !ok {
					name = fmt.Sprintf("T%d", local)
					index[local] = name
					m.Params = append(m.Params, TypeParam{Name: name, Local: local, Type: f.Local(local).Type})
				}
				caps[ci].Param = name
				if !used[name] {
					used[name] = true
					v.Params = append(v.Params, name)
				}
			}
		}
	}
}

func hasSuspend(f *mir.Func, reachable []bool) bool {
	for i := range f.Blocks {
		if reachable[i] && f.Blocks[i].Term.Kind == mir.TermSuspend {
			return true
		}
	}
	return false
}
