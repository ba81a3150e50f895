package ast

// Default marker callee names.
const (
	YieldMarker = "yield_"
	AwaitMarker = "await"
)

// SuspendKind distinguishes the two marker flavors.
type SuspendKind uint8

const (
	SuspendYield SuspendKind = iota
	SuspendAwait
)

func (k SuspendKind) String() string {
	if k == SuspendAwait {
		return "await"
	}
	return "yield"
}

// Classifier recognizes suspension points. The lowering passes only ask
// these two questions of an expression.
type Classifier interface {
	// SuspendMarker reports whether e itself is a marker call.
	SuspendMarker(e *Expr) (SuspendKind, bool)
	// ContainsSuspend reports whether e or anything nested in it is a marker call.
	ContainsSuspend(e *Expr) bool
}

// Markers classifies calls by callee name.
type Markers struct {
	Yield string
	Await string
}

// DefaultMarkers recognizes `yield_(e)` and `await(e)`.
var DefaultMarkers = Markers{Yield: YieldMarker, Await: AwaitMarker}

func (m Markers) SuspendMarker(e *Expr) (SuspendKind, bool) {
	if e == nil || e.Kind != ExprCall {
		return 0, false
	}
	call, ok := e.Data.(*CallData)
	if !ok {
		return 0, false
	}
	switch call.Callee {
	case m.Yield:
		return SuspendYield, m.Yield != ""
	case m.Await:
		return SuspendAwait, m.Await != ""
	}
	return 0, false
}

func (m Markers) ContainsSuspend(e *Expr) bool {
	return Any(e, func(x *Expr, _ int) bool {
		_, ok := m.SuspendMarker(x)
		return ok
	})
}

// MarkerOperand returns the single argument of a marker call.
func MarkerOperand(e *Expr) (*Expr, bool) {
	call, ok := e.Data.(*CallData)
	if !ok || len(call.Args) != 1 {
		return nil, false
	}
	return call.Args[0], true
}

// StmtContainsSuspend applies c to every expression of s.
func StmtContainsSuspend(c Classifier, s *Stmt) bool {
	switch d := s.Data.(type) {
	case *LetData:
		return d.Value != nil && c.ContainsSuspend(d.Value)
	case *ExprStmtData:
		return c.ContainsSuspend(d.Expr)
	}
	return false
}

// FuncContainsSuspend reports whether any statement of fn suspends.
func FuncContainsSuspend(c Classifier, fn *Func) bool {
	if fn == nil || fn.Body == nil {
		return false
	}
	for _, s := range fn.Body.Stmts {
		if StmtContainsSuspend(c, s) {
			return true
		}
	}
	return fn.Body.Tail != nil && c.ContainsSuspend(fn.Body.Tail)
}
