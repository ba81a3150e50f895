package mir

import (
	"fmt"

	"stateful/internal/diag"
	"stateful/internal/source"
)

type scheduledDrop struct {
	local LocalID
	alias *Alias
}

// liveScope is one open extent on the builder's tracker.
type liveScope struct {
	extent ExtentID
	vis    ScopeID
	decls  []LiveDecl
	drops  []scheduledDrop
}

// scopeStack tracks initialization state while lowering. Branches lower on
// clones and are joined afterwards.
type scopeStack []liveScope

func (s scopeStack) clone() scopeStack {
	out := make(scopeStack, len(s))
	for i, sc := range s {
		out[i] = liveScope{
			extent: sc.extent,
			vis:    sc.vis,
			decls:  append([]LiveDecl(nil), sc.decls...),
			drops:  append([]scheduledDrop(nil), sc.drops...),
		}
	}
	return out
}

func (s scopeStack) snapshot() LiveDeclMap {
	out := make(LiveDeclMap, len(s))
	for i, sc := range s {
		out[i] = LiveScope{Extent: sc.extent, Decls: append([]LiveDecl(nil), sc.decls...)}
	}
	return out
}

func (s scopeStack) status(local LocalID) (LiveDeclKind, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		for _, d := range s[i].decls {
			if d.Local == local {
				return d.Kind, true
			}
		}
	}
	return 0, false
}

func (s scopeStack) setStatus(local LocalID, kind LiveDeclKind) bool {
	for i := len(s) - 1; i >= 0; i-- {
		for j := range s[i].decls {
			if s[i].decls[j].Local == local {
				s[i].decls[j].Kind = kind
				return true
			}
		}
	}
	return false
}

// joinStacks merges the states reaching a join point. All inputs have the
// same shape; a local is Moved if moved anywhere, else Forward if
// unassigned anywhere.
func joinStacks(states []scopeStack) scopeStack {
	out := states[0].clone()
	for _, st := range states[1:] {
		if len(st) != len(out) {
			panic(&InvariantError{Code: diag.InternalExtentMismatch, Block: NoBlockID,
				Msg: fmt.Sprintf("join of %d and %d open extents", len(out), len(st))})
		}
		for i := range out {
			if len(st[i].decls) != len(out[i].decls) {
				panic(&InvariantError{Code: diag.InternalExtentMismatch, Block: NoBlockID,
					Msg: fmt.Sprintf("join of extent %d with diverging declarations", out[i].extent)})
			}
			for j := range out[i].decls {
				if st[i].decls[j].Kind.rank() > out[i].decls[j].Kind.rank() {
					out[i].decls[j].Kind = st[i].decls[j].Kind
				}
			}
		}
	}
	return out
}

func (b *builder) currentScope() ScopeID {
	if len(b.scopes) == 0 {
		return NoScopeID
	}
	return b.scopes[len(b.scopes)-1].vis
}

func (b *builder) pushScope(kind ExtentKind, sp source.Span) ExtentID {
	vis := b.newVisibilityScope(b.currentScope(), sp)
	ext := ExtentID(b.nextID(len(b.f.Extents), "extent"))
	b.f.Extents = append(b.f.Extents, CodeExtent{Kind: kind, Span: sp, Scope: vis})
	b.scopes = append(b.scopes, liveScope{extent: ext, vis: vis})
	return ext
}

func (b *builder) newVisibilityScope(parent ScopeID, sp source.Span) ScopeID {
	id := ScopeID(b.nextID(len(b.f.Scopes), "scope"))
	b.f.Scopes = append(b.f.Scopes, VisibilityScope{Parent: parent, Span: sp})
	return id
}

// popScope tears down the innermost extent into bb and closes it.
func (b *builder) popScope(ext ExtentID, bb BlockID) {
	if len(b.scopes) == 0 || b.scopes[len(b.scopes)-1].extent != ext {
		panic(&InvariantError{Code: diag.InternalExtentMismatch, Func: b.f.Name, Block: bb,
			Msg: fmt.Sprintf("closing extent %d out of order", ext)})
	}
	b.teardown(&b.scopes, bb)
	b.scopes = b.scopes[:len(b.scopes)-1]
}

// declareBinding allocates a local in the innermost extent.
func (b *builder) declareBinding(name string, mut bool, kind LocalKind, typ string, sp source.Span, state LiveDeclKind) LocalID {
	id := LocalID(b.nextID(len(b.f.Locals), "local"))
	b.f.Locals = append(b.f.Locals, Local{
		Name:     name,
		Mut:      mut,
		Type:     typ,
		Kind:     kind,
		Span:     sp,
		Scope:    b.currentScope(),
		Shadowed: NoLocalID,
	})
	top := &b.scopes[len(b.scopes)-1]
	top.decls = append(top.decls, LiveDecl{Kind: state, Local: id})
	return id
}

// scheduleDrop registers local to be dropped when ext closes.
func (b *builder) scheduleDrop(ext ExtentID, local LocalID, alias *Alias) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if b.scopes[i].extent == ext {
			b.scopes[i].drops = append(b.scopes[i].drops, scheduledDrop{local: local, alias: alias})
			return
		}
	}
	panic(&InvariantError{Code: diag.InternalExtentMismatch, Func: b.f.Name, Block: NoBlockID,
		Msg: fmt.Sprintf("no open extent %d for drop of %s", ext, b.f.BindingName(local))})
}

func (b *builder) scheduleMove(local LocalID) {
	if kind, ok := b.scopes.status(local); ok && kind == LiveActive {
		b.scopes.setStatus(local, LiveMoved)
	}
}

// initialize marks a Forward or Moved local as holding a value again.
func (b *builder) initialize(local LocalID) {
	kind, ok := b.scopes.status(local)
	if !ok || kind == LiveActive {
		return
	}
	b.scopes.setStatus(local, LiveActive)
	b.assigned[local] = true
}

// findDecl returns the innermost same-named local that is Active or Forward.
func (b *builder) findDecl(name string) (LocalID, LiveDeclKind, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		decls := b.scopes[i].decls
		for j := len(decls) - 1; j >= 0; j-- {
			d := decls[j]
			if d.Kind == LiveMoved || b.f.Locals[d.Local].Name != name {
				continue
			}
			return d.Local, d.Kind, true
		}
	}
	return NoLocalID, 0, false
}

// resolveName returns the innermost local declared under name.
func (b *builder) resolveName(name string) (LocalID, LiveDeclKind, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		decls := b.scopes[i].decls
		for j := len(decls) - 1; j >= 0; j-- {
			if b.f.Locals[decls[j].Local].Name == name {
				return decls[j].Local, decls[j].Kind, true
			}
		}
	}
	return NoLocalID, 0, false
}

func (b *builder) moveByName(name string) {
	if id, kind, ok := b.resolveName(name); ok && kind == LiveActive {
		b.scheduleMove(id)
	}
}
