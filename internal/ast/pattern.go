package ast

import "stateful/internal/source"

// PatternKind enumerates binding pattern kinds.
type PatternKind uint8

const (
	// PatBinding binds a single name.
	PatBinding PatternKind = iota
	// PatWildcard is `_`.
	PatWildcard
	// PatLiteral matches a literal value.
	PatLiteral
	// PatTuple destructures a tuple.
	PatTuple
)

// Pattern appears in let statements and match arms.
type Pattern struct {
	Kind  PatternKind
	Name  string // PatBinding
	Mut   bool   // PatBinding
	Lit   LiteralData
	Elems []*Pattern // PatTuple
	Span  source.Span
}

// Bindings lists the binding patterns in declaration order.
func (p *Pattern) Bindings() []*Pattern {
	var out []*Pattern
	var walk func(*Pattern)
	walk = func(p *Pattern) {
		if p == nil {
			return
		}
		switch p.Kind {
		case PatBinding:
			out = append(out, p)
		case PatTuple:
			for _, e := range p.Elems {
				walk(e)
			}
		}
	}
	walk(p)
	return out
}

// IsIdent reports whether p binds exactly one name with nothing else.
func (p *Pattern) IsIdent() bool {
	return p != nil && p.Kind == PatBinding
}
