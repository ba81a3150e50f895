// Package vm is a reference driver for synthesized state machines. It runs
// one handler at a time over a small dynamically typed value model.
package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	VKUnit ValueKind = iota
	VKInt
	VKBool
	VKString
	VKTuple
)

func (k ValueKind) String() string {
	switch k {
	case VKUnit:
		return "unit"
	case VKInt:
		return "int"
	case VKBool:
		return "bool"
	case VKString:
		return "string"
	case VKTuple:
		return "tuple"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is a runtime value. Only the field matching Kind is meaningful.
type Value struct {
	Kind  ValueKind
	Int   int64
	Bool  bool
	Str   string
	Elems []Value
}

func Unit() Value { return Value{Kind: VKUnit} }

func IntValue(n int64) Value { return Value{Kind: VKInt, Int: n} }

func BoolValue(b bool) Value { return Value{Kind: VKBool, Bool: b} }

func StringValue(s string) Value { return Value{Kind: VKString, Str: s} }

func TupleValue(elems ...Value) Value { return Value{Kind: VKTuple, Elems: elems} }

func (v Value) String() string {
	switch v.Kind {
	case VKInt:
		return strconv.FormatInt(v.Int, 10)
	case VKBool:
		return strconv.FormatBool(v.Bool)
	case VKString:
		return strconv.Quote(v.Str)
	case VKTuple:
		parts := make([]string, len(v.Elems))
		for i, el := range v.Elems {
			parts[i] = el.String()
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	default:
		return "()"
	}
}

// Text renders strings without quotes and everything else like String.
func (v Value) Text() string {
	if v.Kind == VKString {
		return v.Str
	}
	return v.String()
}

func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case VKInt:
		return v.Int == o.Int
	case VKBool:
		return v.Bool == o.Bool
	case VKString:
		return v.Str == o.Str
	case VKTuple:
		if len(v.Elems) != len(o.Elems) {
			return false
		}
		for i := range v.Elems {
			if !v.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
	}
	return true
}

// ParseValue reads a command-line argument: an integer, true/false, (),
// a quoted string, or anything else as a bare string.
func ParseValue(s string) Value {
	switch s {
	case "()":
		return Unit()
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(n)
	}
	if q, err := strconv.Unquote(s); err == nil {
		return StringValue(q)
	}
	return StringValue(s)
}
