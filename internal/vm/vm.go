package vm

import (
	"fmt"
	"sync/atomic"

	"stateful/internal/ast"
	"stateful/internal/mir"
	"stateful/internal/statemachine"
)

// DefaultMaxSteps bounds the work of one Step call.
const DefaultMaxSteps = 100_000

// Options tunes a VM.
type Options struct {
	// MaxSteps bounds handler runs and opaque loop iterations per Step.
	MaxSteps int
	// Builtins extends or overrides DefaultBuiltins.
	Builtins map[string]Builtin
}

// Output is what one Step hands to the caller.
type Output struct {
	Kind  statemachine.OutputKind
	Value Value
}

func (o Output) String() string {
	if o.Kind == statemachine.OutputPending && o.Value.Kind == VKUnit {
		return o.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", o.Kind, o.Value)
}

// DropEvent records the end of one local.
type DropEvent struct {
	Local     mir.LocalID
	Name      string
	Value     Value
	Cancelled bool
}

// VM drives one instance of a machine. It is not safe for concurrent use;
// overlapping calls fail with VM2002.
type VM struct {
	machine  *statemachine.Machine
	fn       *mir.Func
	builtins map[string]Builtin
	maxSteps int

	state  statemachine.StateID
	resume statemachine.ResumeID
	fields [][]Value
	done   bool
	busy   atomic.Bool

	steps int
	drops []DropEvent
	// lastArg is the most recent resume argument. It is never bound.
	lastArg *Value
}

// New builds the start state of m with args bound to the parameters of f.
func New(m *statemachine.Machine, f *mir.Func, args []Value, opts Options) (*VM, error) {
	if m == nil || f == nil {
		return nil, fmt.Errorf("vm: missing machine or function")
	}
	if len(args) != len(f.Params) {
		return nil, vmErrorf(PanicBadCall, "%s takes %d arguments, got %d", f.Name, len(f.Params), len(args))
	}
	vm := &VM{
		machine:  m,
		fn:       f,
		builtins: DefaultBuiltins(),
		maxSteps: opts.MaxSteps,
		state:    m.Start,
		resume:   statemachine.NoResume,
	}
	if vm.maxSteps <= 0 {
		vm.maxSteps = DefaultMaxSteps
	}
	for name, b := range opts.Builtins {
		vm.builtins[name] = b
	}
	if m.Resume != nil {
		vm.resume = m.Resume.Start
	}
	e := newEnv()
	for i, p := range f.Params {
		e.bind(f.BindingName(p), args[i])
	}
	fields, err := vm.capture(e, m.Start)
	if err != nil {
		return nil, err
	}
	vm.fields = fields
	return vm, nil
}

// State is the current state.
func (m *VM) State() statemachine.StateID { return m.state }

// StateName is the name of the current state.
func (m *VM) StateName() string { return m.machine.Variants[m.state].Name }

// Done reports whether the terminal output was produced or the VM was cancelled.
func (m *VM) Done() bool { return m.done }

// DropLog returns the drops performed so far in order.
func (m *VM) DropLog() []DropEvent {
	return append([]DropEvent(nil), m.drops...)
}

// LastResumeArg returns the argument of the latest Resume call.
func (m *VM) LastResumeArg() (Value, bool) {
	if m.lastArg == nil {
		return Value{}, false
	}
	return *m.lastArg, true
}

// Step runs handlers until one suspends or returns.
func (m *VM) Step() (Output, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return Output{}, vmErrorf(PanicReentrant, "%s is already being driven", m.machine.Name)
	}
	defer m.busy.Store(false)
	return m.step()
}

// Resume drives a resumable machine: the held reduced state is adapted to
// its internal state with arg attached, then stepped.
func (m *VM) Resume(arg Value) (Output, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return Output{}, vmErrorf(PanicReentrant, "%s is already being driven", m.machine.Name)
	}
	defer m.busy.Store(false)
	if m.machine.Resume == nil {
		return Output{}, vmErrorf(PanicNotResumable, "%s has no resume layer", m.machine.Name)
	}
	if m.done {
		return Output{}, vmErrorf(PanicFinished, "%s already finished", m.machine.Name)
	}
	entry, err := statemachine.Adapt(m.machine.Resume, m.resume, m.fields, arg)
	if err != nil {
		return Output{}, vmErrorf(PanicNotResumable, "%v", err)
	}
	m.state, m.fields = entry.State, entry.Fields
	m.lastArg = &entry.Arg
	return m.step()
}

// Cancel drops the captures of the current state, innermost last-declared
// first, and finishes the VM. Cancelling a finished VM drops nothing.
func (m *VM) Cancel() ([]DropEvent, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return nil, vmErrorf(PanicReentrant, "%s is already being driven", m.machine.Name)
	}
	defer m.busy.Store(false)
	if m.done {
		return nil, nil
	}
	v := m.machine.Variant(m.state)
	var out []DropEvent
	for fi := len(v.Fields) - 1; fi >= 0; fi-- {
		caps := v.Fields[fi].Captures
		for ci := len(caps) - 1; ci >= 0; ci-- {
			out = append(out, DropEvent{Local: caps[ci].Local, Name: caps[ci].Name, Value: m.fields[fi][ci], Cancelled: true})
		}
	}
	m.drops = append(m.drops, out...)
	m.finish()
	return out, nil
}

func (m *VM) finish() {
	m.done = true
	m.state = m.machine.Illegal
	m.resume = statemachine.NoResume
	m.fields = nil
}

func (m *VM) spend() error {
	m.steps++
	if m.steps > m.maxSteps {
		return vmErrorf(PanicStepLimit, "step limit %d exceeded", m.maxSteps)
	}
	return nil
}

func (m *VM) step() (Output, error) {
	if m.done {
		return Output{}, vmErrorf(PanicFinished, "%s already finished", m.machine.Name)
	}
	m.steps = 0
	for {
		out, yielded, err := m.runHandler()
		if err != nil {
			if vmErr, ok := err.(*VMError); ok && vmErr.State == "" {
				vmErr.State = m.StateName()
				vmErr.Block = m.machine.Variants[m.state].Block
			}
			return Output{}, err
		}
		if yielded {
			return out, nil
		}
	}
}

// runHandler runs the current state's handler and moves to the next state.
// It reports true when the transition hands an output to the caller.
func (m *VM) runHandler() (Output, bool, error) {
	if err := m.spend(); err != nil {
		return Output{}, false, err
	}
	h := m.machine.Handler(m.state)
	v := m.machine.Variant(m.state)
	if h == nil {
		return Output{}, false, vmErrorf(PanicFinished, "no handler for %s", v.Name)
	}
	e := newEnv()
	for fi, f := range v.Fields {
		for ci, c := range f.Captures {
			e.bind(c.Name, m.fields[fi][ci])
		}
	}
	for i := range h.Stmts {
		if err := m.execMirStmt(e, &h.Stmts[i]); err != nil {
			if vmErr, ok := err.(*VMError); ok {
				vmErr.Span = h.Stmts[i].Info.Span
			}
			return Output{}, false, err
		}
	}

	t := &h.Transition
	switch t.Kind {
	case statemachine.TransGoto:
		return Output{}, false, m.enter(e, t.Next)
	case statemachine.TransIf:
		c, err := m.cond(e, t.Cond)
		if err != nil {
			return Output{}, false, err
		}
		if c {
			return Output{}, false, m.enter(e, t.Then)
		}
		return Output{}, false, m.enter(e, t.Else)
	case statemachine.TransMatch:
		val, err := m.eval(e, t.Value)
		if err != nil {
			return Output{}, false, err
		}
		for _, arm := range t.Arms {
			if bindPattern(e, arm.Pattern, val) {
				return Output{}, false, m.enter(e, arm.Next)
			}
		}
		return Output{}, false, vmErrorf(PanicNoMatch, "no arm matches %s", val)
	case statemachine.TransSuspend:
		val, err := m.eval(e, t.Value)
		if err != nil {
			return Output{}, false, err
		}
		if err := m.enter(e, t.Next); err != nil {
			return Output{}, false, err
		}
		return Output{Kind: t.Output, Value: val}, true, nil
	case statemachine.TransReturn:
		val, ok := e.lookup(ast.ReturnSlotName)
		if !ok {
			return Output{}, false, m.missing(ast.ReturnSlotName)
		}
		m.finish()
		return Output{Kind: t.Output, Value: val}, true, nil
	}
	return Output{}, false, vmErrorf(PanicBadCall, "unknown transition %s", t.Kind)
}

// enter captures the next state's locals from e and makes it current.
func (m *VM) enter(e *env, next statemachine.StateExpr) error {
	fields, err := m.capture(e, next.State)
	if err != nil {
		return err
	}
	m.state, m.fields = next.State, fields
	if next.Resume != statemachine.NoResume {
		m.resume = next.Resume
	}
	return nil
}

func (m *VM) capture(e *env, id statemachine.StateID) ([][]Value, error) {
	v := m.machine.Variant(id)
	if v == nil {
		return nil, vmErrorf(PanicFinished, "unknown state %d", id)
	}
	fields := make([][]Value, len(v.Fields))
	for fi, f := range v.Fields {
		fields[fi] = make([]Value, len(f.Captures))
		for ci, c := range f.Captures {
			val, ok := e.lookup(c.Name)
			if !ok {
				return nil, vmErrorf(PanicMissingCapture, "%s captures %s, which is not bound", v.Name, c.Name)
			}
			fields[fi][ci] = val
		}
	}
	return fields, nil
}

// missing reports an unbound name: a local of the function that the current
// state did not capture, or a name the function never declares.
func (m *VM) missing(name string) error {
	if name == ast.ReturnSlotName {
		return vmErrorf(PanicMissingCapture, "%s is not captured", name)
	}
	for id := range m.fn.Locals {
		l := &m.fn.Locals[id]
		if l.Name == name || mir.ShadowAlias(l.Name, mir.LocalID(id)) == name {
			return vmErrorf(PanicMissingCapture, "local %s is not captured by this state", name)
		}
	}
	return vmErrorf(PanicUnbound, "unknown name %s", name)
}
