package vm

import "errors"

// Builtin is a function callable from opaque statements.
type Builtin func(args []Value) (Value, error)

// DefaultBuiltins returns a fresh copy of the built-in function table.
func DefaultBuiltins() map[string]Builtin {
	return map[string]Builtin{
		"len": builtinLen,
		"str": builtinStr,
		"abs": builtinAbs,
		"min": func(args []Value) (Value, error) { return fold("min", args, func(a, b int64) bool { return b < a }) },
		"max": func(args []Value) (Value, error) { return fold("max", args, func(a, b int64) bool { return b > a }) },
	}
}

func builtinLen(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, vmErrorf(PanicBadCall, "len takes 1 argument, got %d", len(args))
	}
	switch args[0].Kind {
	case VKString:
		return IntValue(int64(len([]rune(args[0].Str)))), nil
	case VKTuple:
		return IntValue(int64(len(args[0].Elems))), nil
	}
	return Value{}, vmErrorf(PanicTypeMismatch, "len of %s", args[0].Kind)
}

func builtinStr(args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, vmErrorf(PanicBadCall, "str takes 1 argument, got %d", len(args))
	}
	return StringValue(args[0].Text()), nil
}

func builtinAbs(args []Value) (Value, error) {
	if len(args) != 1 || args[0].Kind != VKInt {
		return Value{}, vmErrorf(PanicBadCall, "abs takes one int")
	}
	if args[0].Int < 0 {
		return IntValue(-args[0].Int), nil
	}
	return args[0], nil
}

func fold(name string, args []Value, better func(cur, next int64) bool) (Value, error) {
	if len(args) == 0 {
		return Value{}, vmErrorf(PanicBadCall, "%s needs at least one argument", name)
	}
	best := args[0]
	for _, a := range args {
		if a.Kind != VKInt {
			return Value{}, vmErrorf(PanicTypeMismatch, "%s of %s", name, a.Kind)
		}
		if better(best.Int, a.Int) {
			best = a
		}
	}
	return best, nil
}

func (m *VM) call(name string, args []Value) (Value, error) {
	fn, ok := m.builtins[name]
	if !ok {
		return Value{}, vmErrorf(PanicBadCall, "unknown function %s", name)
	}
	v, err := fn(args)
	if err != nil {
		var vmErr *VMError
		if errors.As(err, &vmErr) {
			return Value{}, err
		}
		return Value{}, vmErrorf(PanicBadCall, "%s: %v", name, err)
	}
	return v, nil
}
