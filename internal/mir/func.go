package mir

import (
	"stateful/internal/ast"
	"stateful/internal/source"
)

// Func is the block graph of one suspendable function.
type Func struct {
	Name   string
	Kind   ast.FuncKind
	Result string
	Span   source.Span

	Params  []LocalID
	Locals  []Local
	Blocks  []Block
	Extents []CodeExtent
	Scopes  []VisibilityScope

	// ReturnBlock is the single block terminated by Return.
	ReturnBlock BlockID
}

// Block returns the block with the given id or nil.
func (f *Func) Block(id BlockID) *Block {
	if f == nil || id < 0 || int(id) >= len(f.Blocks) {
		return nil
	}
	return &f.Blocks[id]
}

// Local returns the local with the given id or nil.
func (f *Func) Local(id LocalID) *Local {
	if f == nil || id < 0 || int(id) >= len(f.Locals) {
		return nil
	}
	return &f.Locals[id]
}

// BindingName is the name a local is bound under while it is active.
func (f *Func) BindingName(id LocalID) string {
	if l := f.Local(id); l != nil {
		return l.Name
	}
	return ""
}

// ScopeParent returns the parent of s or NoScopeID.
func (f *Func) ScopeParent(s ScopeID) ScopeID {
	if f == nil || s < 0 || int(s) >= len(f.Scopes) {
		return NoScopeID
	}
	return f.Scopes[s].Parent
}
