package vm

import (
	"stateful/internal/ast"
)

func unary(op ast.UnaryOp, v Value) (Value, error) {
	switch op {
	case ast.UnaryNeg:
		if v.Kind == VKInt {
			return IntValue(-v.Int), nil
		}
	case ast.UnaryNot:
		if v.Kind == VKBool {
			return BoolValue(!v.Bool), nil
		}
	}
	return Value{}, vmErrorf(PanicTypeMismatch, "operator %s on %s", op, v.Kind)
}

func (m *VM) binary(e *env, d *ast.BinaryOpData) (Value, error) {
	l, err := m.eval(e, d.Left)
	if err != nil {
		return Value{}, err
	}
	switch d.Op {
	case ast.BinAnd, ast.BinOr:
		if l.Kind != VKBool {
			return Value{}, vmErrorf(PanicTypeMismatch, "operator %s on %s", d.Op, l.Kind)
		}
		if (d.Op == ast.BinAnd) != l.Bool {
			return l, nil
		}
		r, err := m.eval(e, d.Right)
		if err != nil {
			return Value{}, err
		}
		if r.Kind != VKBool {
			return Value{}, vmErrorf(PanicTypeMismatch, "operator %s on %s", d.Op, r.Kind)
		}
		return r, nil
	}
	r, err := m.eval(e, d.Right)
	if err != nil {
		return Value{}, err
	}

	switch d.Op {
	case ast.BinEq:
		return BoolValue(l.Equal(r)), nil
	case ast.BinNe:
		return BoolValue(!l.Equal(r)), nil
	case ast.BinAdd:
		if l.Kind == VKString && r.Kind == VKString {
			return StringValue(l.Str + r.Str), nil
		}
	}
	if l.Kind != VKInt || r.Kind != VKInt {
		return Value{}, vmErrorf(PanicTypeMismatch, "operator %s on %s and %s", d.Op, l.Kind, r.Kind)
	}
	a, b := l.Int, r.Int
	switch d.Op {
	case ast.BinAdd:
		return IntValue(a + b), nil
	case ast.BinSub:
		return IntValue(a - b), nil
	case ast.BinMul:
		return IntValue(a * b), nil
	case ast.BinDiv, ast.BinRem:
		if b == 0 {
			return Value{}, vmErrorf(PanicDivByZero, "division by zero")
		}
		if d.Op == ast.BinDiv {
			return IntValue(a / b), nil
		}
		return IntValue(a % b), nil
	case ast.BinLt:
		return BoolValue(a < b), nil
	case ast.BinLe:
		return BoolValue(a <= b), nil
	case ast.BinGt:
		return BoolValue(a > b), nil
	case ast.BinGe:
		return BoolValue(a >= b), nil
	}
	return Value{}, vmErrorf(PanicTypeMismatch, "unknown operator %s", d.Op)
}
