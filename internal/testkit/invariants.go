// Package testkit holds structural checks shared by tests and fuzz
// harnesses.
package testkit

import (
	"errors"
	"fmt"

	"stateful/internal/mir"
	"stateful/internal/statemachine"
)

// CheckMachine runs structural invariants on a machine synthesized from f:
// 1) every reachable block has one state and unreachable blocks have none
// 2) Start is the state of the start block and Illegal is the last variant
// 3) every transition target is a state, and Return moves to Illegal
// 4) fields mirror the block's open extents and every capture is live there
func CheckMachine(f *mir.Func, m *statemachine.Machine) error {
	if f == nil || m == nil {
		return fmt.Errorf("nil function or machine")
	}
	var errs []error
	reachable := mir.Reachable(f)
	for i := range f.Blocks {
		id, ok := m.StateOf(mir.BlockID(i))
		if ok != reachable[i] {
			errs = append(errs, fmt.Errorf("bb%d: reachable=%v but has state=%v", i, reachable[i], ok))
			continue
		}
		if ok && m.Variants[id].Block != mir.BlockID(i) {
			errs = append(errs, fmt.Errorf("bb%d: state %d names bb%d", i, id, m.Variants[id].Block))
		}
	}

	if start, ok := m.StateOf(mir.StartBlock); !ok || start != m.Start {
		errs = append(errs, fmt.Errorf("start is %d, start block maps to %d", m.Start, start))
	}
	if int(m.Illegal) != len(m.Variants)-1 || m.Variants[m.Illegal].Block != mir.NoBlockID {
		errs = append(errs, fmt.Errorf("illegal %d is not the last, block-less variant", m.Illegal))
	}
	if len(m.Handlers) != len(m.Variants)-1 {
		errs = append(errs, fmt.Errorf("%d handlers for %d states", len(m.Handlers), len(m.Variants)-1))
	}

	valid := func(s statemachine.StateExpr) bool {
		return s.State >= 0 && int(s.State) < len(m.Variants)
	}
	for i := range m.Handlers {
		h := &m.Handlers[i]
		t := &h.Transition
		var targets []statemachine.StateExpr
		switch t.Kind {
		case statemachine.TransGoto, statemachine.TransSuspend:
			targets = append(targets, t.Next)
		case statemachine.TransIf:
			targets = append(targets, t.Then, t.Else)
		case statemachine.TransMatch:
			for _, a := range t.Arms {
				targets = append(targets, a.Next)
			}
		case statemachine.TransReturn:
			if t.Next.State != m.Illegal {
				errs = append(errs, fmt.Errorf("%s: return moves to %d, not Illegal", m.Variants[i].Name, t.Next.State))
			}
		}
		for _, s := range targets {
			if !valid(s) || s.State == m.Illegal {
				errs = append(errs, fmt.Errorf("%s: %s to invalid state %d", m.Variants[i].Name, t.Kind, s.State))
			}
		}
	}

	for i := range m.Variants {
		v := &m.Variants[i]
		if v.Block == mir.NoBlockID {
			continue
		}
		if err := checkCaptures(f, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func checkCaptures(f *mir.Func, v *statemachine.Variant) error {
	decls := f.Block(v.Block).Decls
	if len(v.Fields) != len(decls) {
		return fmt.Errorf("%s: %d fields for %d open extents", v.Name, len(v.Fields), len(decls))
	}
	hidden := make(map[mir.LocalID]bool)
	for _, sc := range decls {
		for _, d := range sc.Decls {
			if d.Kind == mir.LiveForward {
				continue
			}
			for s := f.Local(d.Local).Shadowed; s != mir.NoLocalID; s = f.Local(s).Shadowed {
				hidden[s] = true
			}
		}
	}
	for fi, field := range v.Fields {
		if field.Extent != decls[fi].Extent {
			return fmt.Errorf("%s: field %d is extent %d, want %d", v.Name, fi, field.Extent, decls[fi].Extent)
		}
		for _, c := range field.Captures {
			l := f.Local(c.Local)
			if l == nil {
				return fmt.Errorf("%s: capture of unknown local %d", v.Name, c.Local)
			}
			switch c.Name {
			case l.Name:
				if kind, ok := decls.Find(c.Local); !ok || kind != mir.LiveActive {
					return fmt.Errorf("%s: captures %s which is not active", v.Name, c.Name)
				}
			case mir.ShadowAlias(l.Name, c.Local):
				if !hidden[c.Local] {
					return fmt.Errorf("%s: captures alias %s with no live shadow", v.Name, c.Name)
				}
			default:
				return fmt.Errorf("%s: capture of L%d is named %s", v.Name, c.Local, c.Name)
			}
		}
	}
	return nil
}
