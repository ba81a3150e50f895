package mir

import (
	"fmt"

	"stateful/internal/ast"
	"stateful/internal/source"
)

type BlockID int32

type LocalID int32

type ExtentID int32

type ScopeID int32

const (
	NoBlockID  BlockID  = -1
	NoLocalID  LocalID  = -1
	NoExtentID ExtentID = -1
	NoScopeID  ScopeID  = -1
)

// StartBlock is the entry block of every constructed function.
const StartBlock BlockID = 0

// ReturnPointer is the local that holds the function result.
const ReturnPointer LocalID = 0

// ArgumentScope is the visibility scope of the function parameters.
const ArgumentScope ScopeID = 0

type LocalKind uint8

const (
	LocalReturn LocalKind = iota
	LocalArg
	LocalVar
	LocalArmBinding
)

func (k LocalKind) String() string {
	switch k {
	case LocalReturn:
		return "return"
	case LocalArg:
		return "arg"
	case LocalVar:
		return "var"
	case LocalArmBinding:
		return "arm"
	default:
		return "unknown"
	}
}

// Local is a named storage slot declared by a parameter, a let or a match arm.
type Local struct {
	Name  string
	Mut   bool
	Type  string
	Kind  LocalKind
	Span  source.Span
	Scope ScopeID
	// Shadowed is the same-named local this one hid when it was declared,
	// or NoLocalID. The hidden value lives on under ShadowAlias(Shadowed).
	Shadowed LocalID
}

// ShadowAlias is the binding name that keeps a shadowed local reachable.
func ShadowAlias(name string, id LocalID) string {
	return fmt.Sprintf("%s%s%d", name, ast.ShadowInfix, id)
}

type ExtentKind uint8

const (
	ExtentFunction ExtentKind = iota
	ExtentBlock
	ExtentLoop
	ExtentArm
)

func (k ExtentKind) String() string {
	switch k {
	case ExtentFunction:
		return "function"
	case ExtentBlock:
		return "block"
	case ExtentLoop:
		return "loop"
	case ExtentArm:
		return "arm"
	default:
		return "unknown"
	}
}

// CodeExtent is a lexical region whose exit drops the locals declared in it.
type CodeExtent struct {
	Kind  ExtentKind
	Span  source.Span
	Scope ScopeID
}

// VisibilityScope groups statements for nested rendering.
type VisibilityScope struct {
	Parent ScopeID
	Span   source.Span
}

// SourceInfo locates a statement or terminator.
type SourceInfo struct {
	Span  source.Span
	Scope ScopeID
}
