package mir

import (
	"stateful/internal/ast"
)

type TermKind uint8

const (
	TermNone TermKind = iota
	TermGoto
	TermIf
	TermMatch
	TermSuspend
	TermReturn
)

func (k TermKind) String() string {
	switch k {
	case TermNone:
		return "none"
	case TermGoto:
		return "goto"
	case TermIf:
		return "if"
	case TermMatch:
		return "match"
	case TermSuspend:
		return "suspend"
	case TermReturn:
		return "return"
	default:
		return "unknown"
	}
}

type Terminator struct {
	Kind TermKind
	Info SourceInfo

	Goto    GotoTerm
	If      IfTerm
	Match   MatchTerm
	Suspend SuspendTerm
}

type GotoTerm struct {
	Target BlockID
}

type IfTerm struct {
	Cond *ast.Expr
	Then BlockID
	Else BlockID
}

type MatchArm struct {
	Pattern *ast.Pattern
	Target  BlockID
}

type MatchTerm struct {
	Value *ast.Expr
	Arms  []MatchArm
}

// SuspendTerm hands Value to the caller and resumes at Target.
type SuspendTerm struct {
	Kind   ast.SuspendKind
	Value  *ast.Expr
	Target BlockID
}

// Successors lists the blocks control may reach next, in arm order.
func (t *Terminator) Successors() []BlockID {
	switch t.Kind {
	case TermGoto:
		return []BlockID{t.Goto.Target}
	case TermIf:
		return []BlockID{t.If.Then, t.If.Else}
	case TermMatch:
		out := make([]BlockID, 0, len(t.Match.Arms))
		for _, arm := range t.Match.Arms {
			out = append(out, arm.Target)
		}
		return out
	case TermSuspend:
		return []BlockID{t.Suspend.Target}
	default:
		return nil
	}
}
