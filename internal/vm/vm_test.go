package vm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"stateful/internal/ast"
	"stateful/internal/mir"
	"stateful/internal/statemachine"
	"stateful/internal/vm"
)

func build(t *testing.T, fn *ast.Func, resumable bool) (*mir.Func, *statemachine.Machine) {
	t.Helper()
	f, err := mir.Construct(context.Background(), fn, mir.Options{})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	m, err := statemachine.Synthesize(f, statemachine.Options{Resumable: resumable})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	return f, m
}

func start(t *testing.T, fn *ast.Func, args []vm.Value, opts vm.Options) *vm.VM {
	t.Helper()
	f, m := build(t, fn, false)
	inst, err := vm.New(m, f, args, opts)
	if err != nil {
		t.Fatalf("vm.New: %v", err)
	}
	return inst
}

// drain steps until the terminal output and renders every output.
func drain(t *testing.T, inst *vm.VM) string {
	t.Helper()
	var outs []string
	for i := 0; i < 100; i++ {
		out, err := inst.Step()
		if err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
		outs = append(outs, out.String())
		if out.Kind.Terminal() {
			return strings.Join(outs, " ")
		}
	}
	t.Fatal("machine did not finish")
	return ""
}

func panicCode(err error) vm.PanicCode {
	var vmErr *vm.VMError
	if errors.As(err, &vmErr) {
		return vmErr.Code
	}
	return 0
}

func straightLine() *ast.Func {
	return ast.Generator("three", nil, ast.Body(
		ast.Do(ast.Yield(ast.Int(1))),
		ast.Do(ast.Yield(ast.Int(2))),
		ast.Do(ast.Return(ast.Int(3))),
	))
}

func shadowing() *ast.Func {
	return ast.Generator("shadow", nil, ast.Body(
		ast.LetName("x", ast.Int(1)),
		ast.Do(ast.Yield(ast.Var("x"))),
		ast.LetName("x", ast.Binary(ast.BinAdd, ast.Var("x"), ast.Int(1))),
		ast.Do(ast.Yield(ast.Var("x"))),
	))
}

func TestVM_StraightLine(t *testing.T) {
	inst := start(t, straightLine(), nil, vm.Options{})
	if got := drain(t, inst); got != "Yield(1) Yield(2) Done(3)" {
		t.Errorf("outputs = %s", got)
	}
	if !inst.Done() {
		t.Error("not done after the terminal output")
	}
	if _, err := inst.Step(); panicCode(err) != vm.PanicFinished {
		t.Errorf("step after finish: %v", err)
	}
}

func TestVM_ShadowRebindAndDrops(t *testing.T) {
	inst := start(t, shadowing(), nil, vm.Options{})
	if got := drain(t, inst); got != "Yield(1) Yield(2) Done(())" {
		t.Errorf("outputs = %s", got)
	}
	var log []string
	for _, d := range inst.DropLog() {
		log = append(log, d.Name+"="+d.Value.String())
	}
	if strings.Join(log, " ") != "x=2 x=1" {
		t.Errorf("drop log = %v", log)
	}
}

func TestVM_WhileCounter(t *testing.T) {
	fn := ast.Generator("count", ast.Params("n"), ast.Body(
		ast.LetMut("i", ast.Int(0)),
		ast.Do(ast.While(ast.Binary(ast.BinLt, ast.Var("i"), ast.Var("n")), ast.Body(
			ast.Do(ast.Yield(ast.Var("i"))),
			ast.Do(ast.Assign("i", ast.Binary(ast.BinAdd, ast.Var("i"), ast.Int(1)))),
		))),
		ast.Do(ast.Return(ast.Var("i"))),
	))
	inst := start(t, fn, []vm.Value{vm.IntValue(3)}, vm.Options{})
	if got := drain(t, inst); got != "Yield(0) Yield(1) Yield(2) Done(3)" {
		t.Errorf("outputs = %s", got)
	}
}

func TestVM_LoopBreak(t *testing.T) {
	fn := ast.Generator("upto", ast.Params("n"), ast.Body(
		ast.LetMut("i", ast.Int(0)),
		ast.Do(ast.Loop(ast.Body(
			ast.Do(ast.If(ast.Binary(ast.BinEq, ast.Var("i"), ast.Var("n")),
				ast.Body(ast.Do(ast.Break())),
				ast.Body(ast.Do(ast.Yield(ast.Var("i")))),
			)),
			ast.Do(ast.Assign("i", ast.Binary(ast.BinAdd, ast.Var("i"), ast.Int(1)))),
		))),
		ast.Do(ast.Return(ast.Var("i"))),
	))
	inst := start(t, fn, []vm.Value{vm.IntValue(2)}, vm.Options{})
	if got := drain(t, inst); got != "Yield(0) Yield(1) Done(2)" {
		t.Errorf("outputs = %s", got)
	}
	var names []string
	for _, d := range inst.DropLog() {
		names = append(names, d.Name)
	}
	if strings.Join(names, ",") != "i,n" {
		t.Errorf("drops = %v", names)
	}
}

func TestVM_MatchAndBuiltins(t *testing.T) {
	fn := ast.Async("pick", ast.Params("p"), ast.Body(
		ast.Do(ast.Match(ast.Var("p"),
			ast.Arm(ast.PatTupleOf(ast.PatInt(0), ast.Wild()), ast.Body(ast.Do(ast.Return(ast.Str("zero"))))),
			ast.Arm(ast.PatTupleOf(ast.Bind("a"), ast.Bind("b")), ast.Body(
				ast.Do(ast.Await(ast.Call("max", ast.Var("a"), ast.Var("b")))),
				ast.Do(ast.Return(ast.Call("str", ast.Var("a")))),
			)),
		)),
		ast.Do(ast.Return(ast.Str("unreachable"))),
	))
	inst := start(t, fn, []vm.Value{vm.TupleValue(vm.IntValue(4), vm.IntValue(9))}, vm.Options{})
	if got := drain(t, inst); got != `Pending(9) Ready("4")` {
		t.Errorf("outputs = %s", got)
	}
	inst = start(t, fn, []vm.Value{vm.TupleValue(vm.IntValue(0), vm.IntValue(1))}, vm.Options{})
	if got := drain(t, inst); got != `Ready("zero")` {
		t.Errorf("outputs = %s", got)
	}
}

func TestVM_MoveIsNotCaptured(t *testing.T) {
	fn := ast.Generator("mv", nil, ast.Body(
		ast.LetName("s", ast.Str("a")),
		ast.Do(ast.Yield(ast.Move("s"))),
		ast.Do(ast.Yield(ast.Int(0))),
	))
	inst := start(t, fn, nil, vm.Options{})
	if got := drain(t, inst); got != `Yield("a") Yield(0) Done(())` {
		t.Errorf("outputs = %s", got)
	}
	if log := inst.DropLog(); len(log) != 0 {
		t.Errorf("moved local dropped: %+v", log)
	}
}

func TestVM_Cancel(t *testing.T) {
	inst := start(t, shadowing(), nil, vm.Options{})
	if _, err := inst.Step(); err != nil {
		t.Fatal(err)
	}
	dropped, err := inst.Cancel()
	if err != nil {
		t.Fatal(err)
	}
	if len(dropped) != 1 || dropped[0].Name != "x" || !dropped[0].Cancelled || dropped[0].Value.Int != 1 {
		t.Errorf("cancel dropped %+v", dropped)
	}
	if _, err := inst.Step(); panicCode(err) != vm.PanicFinished {
		t.Errorf("step after cancel: %v", err)
	}
	if again, err := inst.Cancel(); again != nil || err != nil {
		t.Errorf("second cancel dropped %+v, %v", again, err)
	}
}

func TestVM_Resume(t *testing.T) {
	f, m := build(t, shadowing(), true)
	inst, err := vm.New(m, f, nil, vm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var outs []string
	for !inst.Done() {
		out, err := inst.Resume(vm.IntValue(7))
		if err != nil {
			t.Fatalf("Resume: %v", err)
		}
		outs = append(outs, out.String())
	}
	if strings.Join(outs, " ") != "Yield(1) Yield(2) Done(())" {
		t.Errorf("outputs = %v", outs)
	}
	if arg, ok := inst.LastResumeArg(); !ok || arg.Int != 7 {
		t.Errorf("last resume arg = %v, %v", arg, ok)
	}

	plain := start(t, shadowing(), nil, vm.Options{})
	if _, err := plain.Resume(vm.Unit()); panicCode(err) != vm.PanicNotResumable {
		t.Errorf("resume without layer: %v", err)
	}
}

func TestVM_Reentrant(t *testing.T) {
	var inst *vm.VM
	opts := vm.Options{Builtins: map[string]vm.Builtin{
		"reenter": func([]vm.Value) (vm.Value, error) {
			_, err := inst.Step()
			return vm.Unit(), err
		},
	}}
	inst = start(t, ast.Generator("re", nil, ast.Body(
		ast.Do(ast.Call("reenter")),
		ast.Do(ast.Yield(ast.Int(1))),
	)), nil, opts)
	if _, err := inst.Step(); panicCode(err) != vm.PanicReentrant {
		t.Errorf("reentrant step: %v", err)
	}
}

func TestVM_CancelWhileStepping(t *testing.T) {
	var inst *vm.VM
	opts := vm.Options{Builtins: map[string]vm.Builtin{
		"abort": func([]vm.Value) (vm.Value, error) {
			_, err := inst.Cancel()
			return vm.Unit(), err
		},
	}}
	inst = start(t, ast.Generator("abort", nil, ast.Body(
		ast.LetName("x", ast.Int(1)),
		ast.Do(ast.Call("abort")),
		ast.Do(ast.Yield(ast.Var("x"))),
	)), nil, opts)
	if _, err := inst.Step(); panicCode(err) != vm.PanicReentrant {
		t.Errorf("cancel during step: %v", err)
	}
	if inst.Done() || len(inst.DropLog()) != 0 {
		t.Errorf("overlapping cancel changed the VM: done=%v drops=%+v", inst.Done(), inst.DropLog())
	}
}

func TestVM_StepLimit(t *testing.T) {
	inst := start(t, ast.Generator("spin", nil, ast.Body(ast.Do(ast.Loop(ast.Body())))), nil, vm.Options{MaxSteps: 50})
	if _, err := inst.Step(); panicCode(err) != vm.PanicStepLimit {
		t.Errorf("spin: %v", err)
	}
}

func TestVM_MissingCapture(t *testing.T) {
	f, m := build(t, shadowing(), false)
	v := &m.Variants[1]
	for fi := range v.Fields {
		v.Fields[fi].Captures = nil
	}
	inst, err := vm.New(m, f, nil, vm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inst.Step(); err != nil {
		t.Fatalf("first step: %v", err)
	}
	_, err = inst.Step()
	if panicCode(err) != vm.PanicMissingCapture {
		t.Fatalf("err = %v, want VM2003", err)
	}
	if !strings.Contains(err.Error(), "State1AfterSuspend") {
		t.Errorf("error does not name the state: %v", err)
	}
}

func TestVM_Arity(t *testing.T) {
	f, m := build(t, ast.Generator("one", ast.Params("a"), ast.Body(ast.Do(ast.Yield(ast.Var("a"))))), false)
	if _, err := vm.New(m, f, nil, vm.Options{}); panicCode(err) != vm.PanicBadCall {
		t.Errorf("arity: %v", err)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want vm.Value
	}{
		{"42", vm.IntValue(42)},
		{"-3", vm.IntValue(-3)},
		{"true", vm.BoolValue(true)},
		{"()", vm.Unit()},
		{`"hi there"`, vm.StringValue("hi there")},
		{"word", vm.StringValue("word")},
	}
	for _, tt := range tests {
		if got := vm.ParseValue(tt.in); !got.Equal(tt.want) {
			t.Errorf("ParseValue(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
