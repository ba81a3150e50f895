package mir

import "stateful/internal/source"

// Block is a straight-line statement list ending in one terminator.
type Block struct {
	ID    BlockID
	Name  string
	Stmts []Stmt
	Term  Terminator
	// Decls is the liveness of every open extent on entry to the block.
	Decls LiveDeclMap
	Span  source.Span
}

// Terminated reports whether a terminator was set.
func (b *Block) Terminated() bool {
	return b != nil && b.Term.Kind != TermNone
}
