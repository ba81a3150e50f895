package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	// ScopeProgram covers a whole batch of functions.
	ScopeProgram Scope = iota + 1
	// ScopePass covers one pass (construct, synthesize) of one function.
	ScopePass
	// ScopeFunc covers per-function bookkeeping inside the driver.
	ScopeFunc
	// ScopeBlock is per basic block (most detailed).
	ScopeBlock
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeProgram:
		return "program"
	case ScopePass:
		return "pass"
	case ScopeFunc:
		return "func"
	case ScopeBlock:
		return "block"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         // wall-clock timestamp
	Seq      uint64            // global sequence number (monotonic)
	Kind     Kind              // event kind
	Scope    Scope             // granularity level
	SpanID   uint64            // unique span identifier
	ParentID uint64            // parent span (0 if root)
	GID      uint64            // goroutine ID (for concurrent spans)
	Name     string            // e.g. "construct", "func:counter"
	Detail   string            // optional detail message
	Extra    map[string]string // extensible key-value pairs
}
