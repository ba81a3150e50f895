package vm

import (
	"stateful/internal/ast"
	"stateful/internal/mir"
)

// loopSignal carries break and continue out of nested opaque statements.
type loopSignal struct {
	cont bool
}

func (s *loopSignal) Error() string {
	if s.cont {
		return "continue outside of a loop"
	}
	return "break outside of a loop"
}

func (m *VM) execMirStmt(e *env, st *mir.Stmt) error {
	switch st.Kind {
	case mir.StmtExpr:
		_, err := m.eval(e, st.Expr)
		return err
	case mir.StmtLet:
		if st.Let.Value == nil {
			return nil
		}
		v, err := m.eval(e, st.Let.Value)
		if err != nil {
			return err
		}
		if !bindPattern(e, st.Let.Pattern, v) {
			return vmErrorf(PanicNoMatch, "pattern %s does not match %s", ast.FormatPattern(st.Let.Pattern), v)
		}
		return nil
	case mir.StmtDrop:
		return m.drop(e, &st.Drop)
	}
	return vmErrorf(PanicBadCall, "unknown statement kind %s", st.Kind)
}

// drop ends a local and restores the binding it shadowed, if any.
func (m *VM) drop(e *env, d *mir.DropStmt) error {
	if !d.Moved {
		v, ok := e.unbind(d.Name)
		if !ok {
			return m.missing(d.Name)
		}
		m.drops = append(m.drops, DropEvent{Local: d.Local, Name: d.Name, Value: v})
	}
	if d.Alias != nil {
		v, ok := e.unbind(d.Alias.Name)
		if !ok {
			return m.missing(d.Alias.Name)
		}
		e.bind(d.Name, v)
	}
	return nil
}

func (m *VM) execBlock(e *env, b *ast.Block) (Value, error) {
	if b == nil {
		return Unit(), nil
	}
	e.push()
	defer e.pop()
	for _, st := range b.Stmts {
		if err := m.execStmt(e, st); err != nil {
			return Value{}, err
		}
	}
	if b.Tail != nil {
		return m.eval(e, b.Tail)
	}
	return Unit(), nil
}

func (m *VM) execStmt(e *env, st *ast.Stmt) error {
	switch d := st.Data.(type) {
	case *ast.LetData:
		if d.Value == nil {
			return nil
		}
		v, err := m.eval(e, d.Value)
		if err != nil {
			return err
		}
		if !bindPattern(e, d.Pattern, v) {
			return vmErrorf(PanicNoMatch, "pattern %s does not match %s", ast.FormatPattern(d.Pattern), v)
		}
		return nil
	case *ast.ExprStmtData:
		_, err := m.eval(e, d.Expr)
		return err
	}
	return vmErrorf(PanicBadCall, "cannot execute %s statement", st.Kind)
}

func (m *VM) eval(e *env, x *ast.Expr) (Value, error) {
	if x == nil {
		return Unit(), nil
	}
	switch d := x.Data.(type) {
	case *ast.LiteralData:
		return literal(d), nil
	case *ast.VarRefData:
		if v, ok := e.lookup(d.Name); ok {
			return v, nil
		}
		return Value{}, m.missing(d.Name)
	case *ast.MoveData:
		if v, ok := e.unbind(d.Name); ok {
			return v, nil
		}
		return Value{}, m.missing(d.Name)
	case *ast.UnaryOpData:
		v, err := m.eval(e, d.Operand)
		if err != nil {
			return Value{}, err
		}
		return unary(d.Op, v)
	case *ast.BinaryOpData:
		return m.binary(e, d)
	case *ast.CallData:
		args := make([]Value, 0, len(d.Args))
		for _, a := range d.Args {
			v, err := m.eval(e, a)
			if err != nil {
				return Value{}, err
			}
			args = append(args, v)
		}
		return m.call(d.Callee, args)
	case *ast.TupleLitData:
		elems := make([]Value, 0, len(d.Elements))
		for _, el := range d.Elements {
			v, err := m.eval(e, el)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		return TupleValue(elems...), nil
	case *ast.AssignData:
		v, err := m.eval(e, d.Value)
		if err != nil {
			return Value{}, err
		}
		e.assign(d.Target, v)
		return Unit(), nil
	case *ast.IfData:
		c, err := m.cond(e, d.Cond)
		if err != nil {
			return Value{}, err
		}
		if c {
			return m.execBlock(e, d.Then)
		}
		return m.execBlock(e, d.Else)
	case *ast.LoopData:
		return m.loop(e, nil, d.Body)
	case *ast.WhileData:
		return m.loop(e, d.Cond, d.Body)
	case *ast.MatchData:
		v, err := m.eval(e, d.Value)
		if err != nil {
			return Value{}, err
		}
		for _, arm := range d.Arms {
			e.push()
			if bindPattern(e, arm.Pattern, v) {
				out, err := m.execBlock(e, arm.Body)
				e.pop()
				return out, err
			}
			e.pop()
		}
		return Value{}, vmErrorf(PanicNoMatch, "no arm matches %s", v)
	case *ast.BlockData:
		return m.execBlock(e, d.Block)
	case *ast.BreakData:
		return Value{}, &loopSignal{}
	case *ast.ContinueData:
		return Value{}, &loopSignal{cont: true}
	}
	return Value{}, vmErrorf(PanicBadCall, "cannot evaluate %s expression", x.Kind)
}

// loop runs an opaque loop. Each iteration spends one step.
func (m *VM) loop(e *env, cond *ast.Expr, body *ast.Block) (Value, error) {
	for {
		if err := m.spend(); err != nil {
			return Value{}, err
		}
		if cond != nil {
			c, err := m.cond(e, cond)
			if err != nil {
				return Value{}, err
			}
			if !c {
				return Unit(), nil
			}
		}
		if _, err := m.execBlock(e, body); err != nil {
			sig, ok := err.(*loopSignal)
			if !ok {
				return Value{}, err
			}
			if !sig.cont {
				return Unit(), nil
			}
		}
	}
}

func (m *VM) cond(e *env, x *ast.Expr) (bool, error) {
	v, err := m.eval(e, x)
	if err != nil {
		return false, err
	}
	if v.Kind != VKBool {
		return false, vmErrorf(PanicTypeMismatch, "condition %s is %s, not bool", ast.FormatExpr(x), v.Kind)
	}
	return v.Bool, nil
}

func literal(d *ast.LiteralData) Value {
	switch d.Kind {
	case ast.LiteralInt:
		return IntValue(d.IntValue)
	case ast.LiteralBool:
		return BoolValue(d.BoolValue)
	case ast.LiteralString:
		return StringValue(d.StringValue)
	default:
		return Unit()
	}
}

// bindPattern matches v against p and binds names into the innermost frame.
func bindPattern(e *env, p *ast.Pattern, v Value) bool {
	if p == nil {
		return true
	}
	switch p.Kind {
	case ast.PatWildcard:
		return true
	case ast.PatBinding:
		e.bind(p.Name, v)
		return true
	case ast.PatLiteral:
		return literal(&p.Lit).Equal(v)
	case ast.PatTuple:
		if v.Kind != VKTuple || len(v.Elems) != len(p.Elems) {
			return false
		}
		for i, el := range p.Elems {
			if !bindPattern(e, el, v.Elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}
