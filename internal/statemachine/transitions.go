package statemachine

import (
	"fmt"

	"stateful/internal/mir"
)

func (m *Machine) next(bb mir.BlockID) (StateExpr, error) {
	id, ok := m.StateOf(bb)
	if !ok {
		return StateExpr{}, fmt.Errorf("target bb%d has no state", bb)
	}
	return StateExpr{State: id, Resume: NoResume}, nil
}

func (m *Machine) transition(term *mir.Terminator) (Transition, error) {
	switch term.Kind {
	case mir.TermGoto:
		next, err := m.next(term.Goto.Target)
		return Transition{Kind: TransGoto, Next: next}, err

	case mir.TermIf:
		then, err := m.next(term.If.Then)
		if err != nil {
			return Transition{}, err
		}
		els, err := m.next(term.If.Else)
		return Transition{Kind: TransIf, Cond: term.If.Cond, Then: then, Else: els}, err

	case mir.TermMatch:
		t := Transition{Kind: TransMatch, Value: term.Match.Value}
		for _, arm := range term.Match.Arms {
			next, err := m.next(arm.Target)
			if err != nil {
				return Transition{}, err
			}
			t.Arms = append(t.Arms, ArmTransition{Pattern: arm.Pattern, Next: next})
		}
		return t, nil

	case mir.TermSuspend:
		next, err := m.next(term.Suspend.Target)
		if err != nil {
			return Transition{}, err
		}
		if m.Resume != nil {
			next.Resume = m.Resume.lookup(term.Suspend.Target)
		}
		return Transition{Kind: TransSuspend, Value: term.Suspend.Value, Next: next, Output: m.Discipline.Suspend()}, nil

	case mir.TermReturn:
		return Transition{
			Kind:   TransReturn,
			Next:   StateExpr{State: m.Illegal, Resume: NoResume},
			Output: m.Discipline.Complete(),
		}, nil
	}
	return Transition{}, fmt.Errorf("unsupported terminator %s", term.Kind)
}
