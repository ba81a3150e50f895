package statemachine

import (
	"stateful/internal/ast"
	"stateful/internal/mir"
)

// StateID indexes Machine.Variants.
type StateID int32

// ResumeID indexes ResumeLayer.Variants.
type ResumeID int32

const (
	NoState  StateID  = -1
	NoResume ResumeID = -1
)

// Capture is one local carried by a state.
type Capture struct {
	Local mir.LocalID
	// Name is the binding the handler sees: the local's own name, or the
	// shadow alias for a hidden value.
	Name  string
	Mut   bool
	Param string
}

// ScopeField holds the captures of one live extent. Empty extents keep
// their field so the nesting stays visible.
type ScopeField struct {
	Extent   mir.ExtentID
	Captures []Capture
}

type Variant struct {
	ID     StateID
	Name   string
	Block  mir.BlockID
	Fields []ScopeField
	Params []string
}

// Captures flattens the fields in order.
func (v *Variant) Captures() []Capture {
	var out []Capture
	for _, f := range v.Fields {
		out = append(out, f.Captures...)
	}
	return out
}

// TypeParam stands for the type of one captured local.
type TypeParam struct {
	Name  string
	Local mir.LocalID
	Type  string
}

// StateExpr names a successor state. Resume is set for suspension targets
// of a resumable machine.
type StateExpr struct {
	State  StateID
	Resume ResumeID
}

type TransitionKind uint8

const (
	TransGoto TransitionKind = iota
	TransIf
	TransMatch
	TransSuspend
	TransReturn
)

func (k TransitionKind) String() string {
	switch k {
	case TransGoto:
		return "goto"
	case TransIf:
		return "if"
	case TransMatch:
		return "match"
	case TransSuspend:
		return "suspend"
	case TransReturn:
		return "return"
	default:
		return "unknown"
	}
}

type ArmTransition struct {
	Pattern *ast.Pattern
	Next    StateExpr
}

// Transition is what a handler does after its statements. Goto, If and
// Match continue stepping; Suspend and Return hand an output to the driver.
type Transition struct {
	Kind TransitionKind

	Next StateExpr // Goto, Suspend, Return (Illegal)

	Cond *ast.Expr // If
	Then StateExpr
	Else StateExpr

	Value *ast.Expr // Match scrutinee, Suspend operand
	Arms  []ArmTransition

	Output OutputKind // Suspend, Return
}

// Handler runs one state.
type Handler struct {
	State      StateID
	Block      mir.BlockID
	Stmts      []mir.Stmt
	Transition Transition
}

// Machine is the synthesized enumeration plus its handlers.
type Machine struct {
	Name       string
	Kind       ast.FuncKind
	Discipline Discipline `msgpack:"-"`

	Variants []Variant
	Handlers []Handler
	Params   []TypeParam

	Start   StateID
	Illegal StateID

	// Resume is the reduced layer, nil unless requested and the function
	// suspends at least once.
	Resume *ResumeLayer

	stateOf []StateID
}

// StateOf returns the state of block bb.
func (m *Machine) StateOf(bb mir.BlockID) (StateID, bool) {
	if bb < 0 || int(bb) >= len(m.stateOf) || m.stateOf[bb] == NoState {
		return NoState, false
	}
	return m.stateOf[bb], true
}

// Variant returns the variant with the given id or nil.
func (m *Machine) Variant(id StateID) *Variant {
	if id < 0 || int(id) >= len(m.Variants) {
		return nil
	}
	return &m.Variants[id]
}

// Handler returns the handler of state id or nil. Illegal has none.
func (m *Machine) Handler(id StateID) *Handler {
	if id < 0 || int(id) >= len(m.Handlers) {
		return nil
	}
	return &m.Handlers[id]
}

// Terminal reports whether id is the Illegal placeholder.
func (m *Machine) Terminal(id StateID) bool {
	return id == m.Illegal
}
