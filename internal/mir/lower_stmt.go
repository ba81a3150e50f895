package mir

import (
	"stateful/internal/ast"
	"stateful/internal/diag"
	"stateful/internal/source"
)

// lowerBlock lowers blk inside a fresh extent starting in bb and returns the
// block where control continues.
func (b *builder) lowerBlock(bb BlockID, blk *ast.Block, kind ExtentKind) (BlockID, error) {
	if blk == nil {
		return bb, nil
	}
	ext := b.pushScope(kind, blk.Span)
	for _, st := range blk.Stmts {
		var err error
		if bb, err = b.lowerStmt(bb, st); err != nil {
			return bb, err
		}
	}
	if blk.Tail != nil {
		return bb, unsupported(diag.LowerBlockTail, blk.Tail.Span, "")
	}
	b.popScope(ext, bb)
	return bb, nil
}

func (b *builder) lowerStmt(bb BlockID, st *ast.Stmt) (BlockID, error) {
	switch st.Kind {
	case ast.StmtItem:
		item := st.Item()
		return bb, unsupported(diag.LowerItemDecl, st.Span, "cannot handle item declaration %s %s", item.Kind, item.Name)
	case ast.StmtLet:
		return b.lowerLet(bb, st)
	case ast.StmtExpr:
		e := st.Expr()
		if !b.isTransition(e) {
			b.pushOpaque(bb, e, st.Span)
			return bb, nil
		}
		return b.lowerExprStmt(bb, e, st.Span)
	}
	return bb, unsupported(diag.LowerTransferInExpr, st.Span, "unknown statement kind %s", st.Kind)
}

// isTransition reports whether e must be lowered into the block graph rather
// than copied as an opaque statement.
func (b *builder) isTransition(e *ast.Expr) bool {
	return ast.Any(e, func(x *ast.Expr, depth int) bool {
		if _, ok := b.cls.SuspendMarker(x); ok {
			return true
		}
		switch d := x.Data.(type) {
		case *ast.ReturnData:
			return true
		case *ast.BreakData, *ast.ContinueData:
			return depth == 0
		case *ast.AssignData:
			_, kind, ok := b.resolveName(d.Target)
			return ok && kind != LiveActive
		}
		return false
	})
}

// pushOpaque copies a plain statement and records the moves inside it.
func (b *builder) pushOpaque(bb BlockID, e *ast.Expr, sp source.Span) {
	b.push(bb, Stmt{Kind: StmtExpr, Info: b.info(sp), Expr: e})
	for _, name := range ast.MovedNames(e) {
		b.moveByName(name)
	}
}

func (b *builder) lowerExprStmt(bb BlockID, e *ast.Expr, sp source.Span) (BlockID, error) {
	if kind, ok := b.cls.SuspendMarker(e); ok {
		return b.lowerSuspend(bb, e, kind)
	}
	switch d := e.Data.(type) {
	case *ast.ReturnData:
		return b.lowerReturn(bb, e, d)
	case *ast.BreakData:
		return b.lowerBreak(bb, e, false)
	case *ast.ContinueData:
		return b.lowerBreak(bb, e, true)
	case *ast.IfData:
		return b.lowerIf(bb, e, d)
	case *ast.LoopData:
		return b.lowerLoop(bb, e, d)
	case *ast.WhileData:
		return b.lowerWhile(bb, e, d)
	case *ast.MatchData:
		return b.lowerMatch(bb, e, d)
	case *ast.BlockData:
		return b.lowerBlock(bb, d.Block, ExtentBlock)
	case *ast.AssignData:
		return b.lowerAssign(bb, e, d)
	}
	return bb, b.transferError(e, sp)
}

func (b *builder) transferError(e *ast.Expr, sp source.Span) error {
	if e != nil && e.Span.Known() {
		sp = e.Span
	}
	if b.cls.ContainsSuspend(e) {
		return unsupported(diag.LowerNestedSuspend, sp, "")
	}
	return unsupported(diag.LowerTransferInExpr, sp, "")
}

// lowerValue prepares an initializer or assigned value. A marker call is
// lowered as a suspension and replaced by unit, the value produced on resume.
func (b *builder) lowerValue(bb BlockID, v *ast.Expr, sp source.Span) (BlockID, *ast.Expr, error) {
	if v == nil {
		return bb, nil, nil
	}
	if kind, ok := b.cls.SuspendMarker(v); ok {
		next, err := b.lowerSuspend(bb, v, kind)
		if err != nil {
			return bb, nil, err
		}
		unit := ast.Unit()
		unit.Span = v.Span
		return next, unit, nil
	}
	if b.isTransition(v) {
		return bb, nil, b.transferError(v, sp)
	}
	for _, name := range ast.MovedNames(v) {
		b.moveByName(name)
	}
	return bb, v, nil
}

func (b *builder) lowerLet(bb BlockID, st *ast.Stmt) (BlockID, error) {
	let := st.Let()
	if err := checkLetPattern(let.Pattern); err != nil {
		return bb, err
	}
	bb, value, err := b.lowerValue(bb, let.Value, st.Span)
	if err != nil {
		return bb, err
	}

	binds := let.Pattern.Bindings()
	aliases := make([]*Alias, len(binds))
	for i, p := range binds {
		prev, kind, ok := b.findDecl(p.Name)
		if !ok || kind != LiveActive {
			continue
		}
		alias := &Alias{Local: prev, Name: ShadowAlias(p.Name, prev)}
		src := ast.Var(p.Name)
		src.Span = p.Span
		b.push(bb, Stmt{Kind: StmtLet, Info: b.info(p.Span), Let: LetStmt{Pattern: &ast.Pattern{Kind: ast.PatBinding, Name: alias.Name, Span: p.Span}, Value: src}})
		b.scheduleMove(prev)
		aliases[i] = alias
	}

	b.push(bb, Stmt{Kind: StmtLet, Info: b.info(st.Span), Let: LetStmt{Pattern: let.Pattern, Type: let.Type, Value: value}})

	state := LiveActive
	if value == nil {
		state = LiveForward
	}
	ext := b.scopes[len(b.scopes)-1].extent
	for i, p := range binds {
		id := b.declareBinding(p.Name, p.Mut, LocalVar, let.Type, p.Span, state)
		if aliases[i] != nil {
			b.f.Locals[id].Shadowed = aliases[i].Local
		}
		b.scheduleDrop(ext, id, aliases[i])
	}
	return bb, nil
}

func checkLetPattern(p *ast.Pattern) error {
	if p == nil {
		return unsupported(diag.LowerUnsupportedPat, source.NoSpan, "let without a pattern")
	}
	switch p.Kind {
	case ast.PatBinding, ast.PatWildcard:
		return nil
	case ast.PatTuple:
		seen := make(map[string]bool)
		for _, el := range p.Elems {
			if err := checkLetPattern(el); err != nil {
				return err
			}
		}
		for _, bind := range p.Bindings() {
			if seen[bind.Name] {
				return unsupported(diag.LowerUnsupportedPat, bind.Span, "%q is bound more than once in the same pattern", bind.Name)
			}
			seen[bind.Name] = true
		}
		return nil
	}
	return unsupported(diag.LowerUnsupportedPat, p.Span, "refutable pattern %s in let", ast.FormatPattern(p))
}

func (b *builder) lowerAssign(bb BlockID, e *ast.Expr, d *ast.AssignData) (BlockID, error) {
	bb, value, err := b.lowerValue(bb, d.Value, e.Span)
	if err != nil {
		return bb, err
	}
	stmt := e
	if value != d.Value {
		stmt = ast.Assign(d.Target, value)
		stmt.Span = e.Span
	}
	b.push(bb, Stmt{Kind: StmtExpr, Info: b.info(e.Span), Expr: stmt})
	if id, _, ok := b.resolveName(d.Target); ok {
		b.initialize(id)
	}
	return bb, nil
}
