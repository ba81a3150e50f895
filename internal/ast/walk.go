package ast

// Visitor is called for each expression in pre-order. depth counts the loops
// (loop, while) enclosing the expression inside the walked root. Returning
// false skips the children.
type Visitor func(e *Expr, loopDepth int) bool

// Walk visits e and every nested expression, including those inside blocks.
func Walk(e *Expr, v Visitor) {
	walkExpr(e, 0, v)
}

// WalkStmt visits every expression of a statement.
func WalkStmt(s *Stmt, v Visitor) {
	walkStmt(s, 0, v)
}

func walkStmt(s *Stmt, depth int, v Visitor) {
	if s == nil {
		return
	}
	switch d := s.Data.(type) {
	case *LetData:
		walkExpr(d.Value, depth, v)
	case *ExprStmtData:
		walkExpr(d.Expr, depth, v)
	}
}

func walkBlock(b *Block, depth int, v Visitor) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		walkStmt(s, depth, v)
	}
	walkExpr(b.Tail, depth, v)
}

func walkExpr(e *Expr, depth int, v Visitor) {
	if e == nil || !v(e, depth) {
		return
	}
	switch d := e.Data.(type) {
	case *UnaryOpData:
		walkExpr(d.Operand, depth, v)
	case *BinaryOpData:
		walkExpr(d.Left, depth, v)
		walkExpr(d.Right, depth, v)
	case *CallData:
		for _, a := range d.Args {
			walkExpr(a, depth, v)
		}
	case *TupleLitData:
		for _, el := range d.Elements {
			walkExpr(el, depth, v)
		}
	case *AssignData:
		walkExpr(d.Value, depth, v)
	case *IfData:
		walkExpr(d.Cond, depth, v)
		walkBlock(d.Then, depth, v)
		walkBlock(d.Else, depth, v)
	case *LoopData:
		walkBlock(d.Body, depth+1, v)
	case *WhileData:
		walkExpr(d.Cond, depth+1, v)
		walkBlock(d.Body, depth+1, v)
	case *MatchData:
		walkExpr(d.Value, depth, v)
		for _, arm := range d.Arms {
			walkBlock(arm.Body, depth, v)
		}
	case *BlockData:
		walkBlock(d.Block, depth, v)
	case *ReturnData:
		walkExpr(d.Value, depth, v)
	}
}

// Any reports whether pred holds for some expression under e.
func Any(e *Expr, pred func(e *Expr, loopDepth int) bool) bool {
	found := false
	Walk(e, func(x *Expr, depth int) bool {
		if found {
			return false
		}
		if pred(x, depth) {
			found = true
			return false
		}
		return true
	})
	return found
}

// MovedNames lists the targets of `move` expressions under e in visit order.
func MovedNames(e *Expr) []string {
	var out []string
	Walk(e, func(x *Expr, _ int) bool {
		if m, ok := x.Data.(*MoveData); ok {
			out = append(out, m.Name)
		}
		return true
	})
	return out
}
