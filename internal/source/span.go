package source

import (
	"fmt"
)

// Span locates a node of a structured program. Positions come from the
// document the program was decoded from, so they are line/column based.
type Span struct {
	File FileID
	Line uint32 // 1-based, 0 when unknown
	Col  uint32 // 1-based
}

// NoSpan is used for synthesized nodes.
var NoSpan = Span{}

func (s Span) Known() bool {
	return s.Line != 0
}

func (s Span) String() string {
	if !s.Known() {
		return fmt.Sprintf("%d:?", s.File)
	}
	return fmt.Sprintf("%d:%d:%d", s.File, s.Line, s.Col)
}

// Before reports whether s starts strictly earlier than other in the same file.
func (s Span) Before(other Span) bool {
	if s.File != other.File {
		return s.File < other.File
	}
	if s.Line != other.Line {
		return s.Line < other.Line
	}
	return s.Col < other.Col
}

// Or returns s when it is known and fallback otherwise.
func (s Span) Or(fallback Span) Span {
	if s.Known() {
		return s
	}
	return fallback
}
