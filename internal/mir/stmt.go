package mir

import (
	"stateful/internal/ast"
)

type StmtKind uint8

const (
	// StmtExpr evaluates an opaque expression for its effect.
	StmtExpr StmtKind = iota
	// StmtLet binds a pattern.
	StmtLet
	// StmtDrop ends the life of a local on scope exit.
	StmtDrop
)

func (k StmtKind) String() string {
	switch k {
	case StmtExpr:
		return "expr"
	case StmtLet:
		return "let"
	case StmtDrop:
		return "drop"
	default:
		return "unknown"
	}
}

type Stmt struct {
	Kind StmtKind
	Info SourceInfo

	Expr *ast.Expr
	Let  LetStmt
	Drop DropStmt
}

type LetStmt struct {
	Pattern *ast.Pattern
	Type    string
	Value   *ast.Expr // nil for a forward declaration
}

// Alias names the shadowed local a drop restores.
type Alias struct {
	Local LocalID
	Name  string
}

// DropStmt drops Local. With Alias set the shadowed binding is restored
// under Name afterwards. A Moved drop only restores the alias.
type DropStmt struct {
	Local LocalID
	Name  string
	Alias *Alias
	Moved bool
}
