package mir

import (
	"fmt"

	"stateful/internal/diag"
)

// teardown emits the scheduled drops of the innermost extent of s into bb,
// newest first. Restoring an alias reactivates the shadowed local.
func (b *builder) teardown(s *scopeStack, bb BlockID) {
	top := (*s)[len(*s)-1]
	info := SourceInfo{Span: b.f.Extents[top.extent].Span, Scope: top.vis}
	for i := len(top.drops) - 1; i >= 0; i-- {
		d := top.drops[i]
		kind, _ := s.status(d.local)
		name := b.f.BindingName(d.local)
		switch {
		case kind == LiveActive:
			b.push(bb, Stmt{Kind: StmtDrop, Info: info, Drop: DropStmt{Local: d.local, Name: name, Alias: d.alias}})
		case d.alias != nil:
			b.push(bb, Stmt{Kind: StmtDrop, Info: info, Drop: DropStmt{Local: d.local, Name: name, Alias: d.alias, Moved: true}})
		}
		if d.alias != nil {
			s.setStatus(d.alias.Local, LiveActive)
		}
	}
}

// unwindTo tears down every extent above depth into bb on a clone of the
// tracker and returns the unwound clone. The builder's own state is left
// untouched for the code that follows the early exit.
func (b *builder) unwindTo(depth int, bb BlockID) scopeStack {
	if depth < 1 || depth > len(b.scopes) {
		panic(&InvariantError{Code: diag.InternalExtentMismatch, Func: b.f.Name, Block: bb,
			Msg: fmt.Sprintf("unwind to depth %d with %d open extents", depth, len(b.scopes))})
	}
	s := b.scopes.clone()
	for len(s) > depth {
		b.teardown(&s, bb)
		s = s[:len(s)-1]
	}
	return s
}
