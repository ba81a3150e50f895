// Package ast is the structured program representation consumed by the
// lowering passes. It is produced by an upstream parser or by DecodeYAML and
// is never rewritten in place: lowering copies opaque expressions by pointer.
package ast

import (
	"stateful/internal/source"
)

// FuncKind selects the output discipline of the generated state machine.
type FuncKind uint8

const (
	// FuncGenerator suspends with yielded elements and finishes with a value.
	FuncGenerator FuncKind = iota
	// FuncAsync suspends with "not ready" and finishes with "ready(value)".
	FuncAsync
)

func (k FuncKind) String() string {
	switch k {
	case FuncGenerator:
		return "generator"
	case FuncAsync:
		return "async"
	default:
		return "unknown"
	}
}

// Program is an ordered list of functions loaded from one document.
type Program struct {
	File  source.FileID
	Funcs []*Func
}

// Lookup returns the function with the given name.
func (p *Program) Lookup(name string) (*Func, bool) {
	if p == nil {
		return nil, false
	}
	for _, fn := range p.Funcs {
		if fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}

// Func is one suspendable function.
type Func struct {
	Name   string
	Kind   FuncKind
	Params []Param
	Result string // opaque result type, may be empty
	Body   *Block
	Span   source.Span
}

// Param is a by-name function argument.
type Param struct {
	Name string
	Mut  bool
	Type string
	Span source.Span
}

// Block is a braced statement list with an optional tail expression.
type Block struct {
	Stmts []*Stmt
	Tail  *Expr
	Span  source.Span
}

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	// StmtLet is `let pat [: T] [= value];`.
	StmtLet StmtKind = iota
	// StmtExpr is an expression statement.
	StmtExpr
	// StmtItem is a nested item declaration (fn, struct, ...).
	StmtItem
)

func (k StmtKind) String() string {
	switch k {
	case StmtLet:
		return "Let"
	case StmtExpr:
		return "Expr"
	case StmtItem:
		return "Item"
	default:
		return "Unknown"
	}
}

// Stmt is one statement of a block.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

// LetData holds data for StmtLet.
type LetData struct {
	Pattern *Pattern
	Type    string
	Value   *Expr // nil for `let x;`
}

func (*LetData) stmtData() {}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (*ExprStmtData) stmtData() {}

// ItemData holds data for StmtItem.
type ItemData struct {
	Kind string // "fn", "struct", ...
	Name string
}

func (*ItemData) stmtData() {}

// Let returns the let payload or nil.
func (s *Stmt) Let() *LetData {
	if s == nil {
		return nil
	}
	d, _ := s.Data.(*LetData)
	return d
}

// Expr returns the expression of an expression statement or nil.
func (s *Stmt) Expr() *Expr {
	if s == nil {
		return nil
	}
	if d, ok := s.Data.(*ExprStmtData); ok {
		return d.Expr
	}
	return nil
}

// Item returns the item payload or nil.
func (s *Stmt) Item() *ItemData {
	if s == nil {
		return nil
	}
	d, _ := s.Data.(*ItemData)
	return d
}
