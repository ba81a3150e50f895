package statemachine_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"stateful/internal/ast"
	"stateful/internal/mir"
	"stateful/internal/statemachine"
)

func synth(t *testing.T, fn *ast.Func, opts statemachine.Options) (*mir.Func, *statemachine.Machine) {
	t.Helper()
	f, err := mir.Construct(context.Background(), fn, mir.Options{})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	m, err := statemachine.Synthesize(f, opts)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	return f, m
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

func variantNames(m *statemachine.Machine) string {
	names := make([]string, 0, len(m.Variants))
	for _, v := range m.Variants {
		names = append(names, v.Name)
	}
	return strings.Join(names, " ")
}

func TestSynthesize_StraightLine(t *testing.T) {
	_, m := synth(t, straightLine(), statemachine.Options{})
	if got := variantNames(m); got != "State0Start State1AfterSuspend State2AfterSuspend State3Return Illegal" {
		t.Fatalf("variants = %s", got)
	}
	if m.Start != 0 || m.Illegal != 4 || len(m.Handlers) != 4 {
		t.Fatalf("start=%d illegal=%d handlers=%d", m.Start, m.Illegal, len(m.Handlers))
	}
	for i := 0; i < 2; i++ {
		tr := m.Handlers[i].Transition
		if tr.Kind != statemachine.TransSuspend || tr.Output != statemachine.OutputYield || tr.Next.State != statemachine.StateID(i+1) {
			t.Errorf("handler %d transition = %+v", i, tr)
		}
	}
	if tr := m.Handlers[2].Transition; tr.Kind != statemachine.TransGoto || tr.Next.State != 3 {
		t.Errorf("handler 2 transition = %+v", tr)
	}
	ret := m.Handlers[3].Transition
	if ret.Kind != statemachine.TransReturn || ret.Output != statemachine.OutputDone || !m.Terminal(ret.Next.State) {
		t.Errorf("return transition = %+v", ret)
	}
	if m.Resume != nil {
		t.Error("resume layer built without being requested")
	}
}

func TestSynthesize_NoSuspension(t *testing.T) {
	fn := ast.Async("plain", ast.Params("a"), ast.Body(ast.Do(ast.Return(ast.Var("a")))))
	_, m := synth(t, fn, statemachine.Options{Resumable: true})
	if len(m.Variants) != 3 {
		t.Fatalf("variants = %s, want two states and Illegal", variantNames(m))
	}
	if m.Resume != nil {
		t.Error("resume layer built for a function that never suspends")
	}
	if tr := m.Handlers[1].Transition; tr.Output != statemachine.OutputReady {
		t.Errorf("async completion = %s, want Ready", tr.Output)
	}
}

func TestSynthesize_ShadowCaptures(t *testing.T) {
	_, m := synth(t, shadowing(), statemachine.Options{})
	v := m.Variant(2)
	if v.Name != "State2AfterSuspend" {
		t.Fatalf("variant 2 = %s", v.Name)
	}
	if len(v.Fields) != 2 || len(v.Fields[0].Captures) != 0 {
		t.Fatalf("fields = %+v", v.Fields)
	}
	var got []string
	for _, c := range v.Fields[1].Captures {
		got = append(got, c.Name+":"+c.Param)
	}
	if strings.Join(got, " ") != "x:T2 x_shadowed_1:T1" {
		t.Errorf("captures = %v", got)
	}
	if strings.Join(v.Params, ",") != "T2,T1" {
		t.Errorf("variant params = %v", v.Params)
	}
	var params []string
	for _, p := range m.Params {
		params = append(params, p.Name)
	}
	if strings.Join(params, ",") != "T1,T2,T0" {
		t.Errorf("machine params = %v", params)
	}
}

func TestSynthesize_MovedNotCaptured(t *testing.T) {
	fn := ast.Generator("mv", nil, ast.Body(
		ast.LetName("s", ast.Str("a")),
		ast.LetName("k", ast.Int(1)),
		ast.Do(ast.Yield(ast.Move("s"))),
		ast.Do(ast.Yield(ast.Var("k"))),
	))
	_, m := synth(t, fn, statemachine.Options{})
	for _, c := range m.Variant(1).Captures() {
		if c.Name == "s" {
			t.Errorf("moved local captured in %s", m.Variant(1).Name)
		}
	}
	if caps := m.Variant(1).Captures(); len(caps) != 1 || caps[0].Name != "k" {
		t.Errorf("captures = %+v", caps)
	}
}

func TestSynthesize_ResumeLayer(t *testing.T) {
	_, m := synth(t, shadowing(), statemachine.Options{Resumable: true})
	r := m.Resume
	if r == nil {
		t.Fatal("no resume layer")
	}
	var names []string
	for _, v := range r.Variants {
		names = append(names, v.Name)
	}
	if strings.Join(names, " ") != "Coroutine0Start Coroutine1AfterSuspend Coroutine2AfterSuspend" {
		t.Fatalf("reduced = %v", names)
	}
	if tr := m.Handlers[0].Transition; tr.Next.Resume != 1 {
		t.Errorf("suspend resumes at %d, want reduced state 1", tr.Next.Resume)
	}

	v := r.Variant(2)
	fields := [][]int{{}, {2, 1}}
	entry, err := statemachine.Adapt(r, 2, fields, 99)
	if err != nil {
		t.Fatalf("Adapt: %v", err)
	}
	if entry.State != v.Internal || entry.Arg != 99 || len(entry.Fields) != 2 {
		t.Errorf("entry = %+v", entry)
	}
	if _, err := statemachine.Adapt(r, 2, [][]int{{1}}, 0); err == nil {
		t.Error("Adapt accepted a wrong field count")
	}
	if _, err := statemachine.Adapt(r, 7, [][]int(nil), 0); err == nil {
		t.Error("Adapt accepted an unknown state")
	}
}

func TestResumeLayer_Params(t *testing.T) {
	paramNames := func(ps []statemachine.TypeParam) string {
		names := make([]string, 0, len(ps))
		for _, p := range ps {
			names = append(names, p.Name)
		}
		return strings.Join(names, " ")
	}
	// y is captured by the branch states only, none of which follow a suspension.
	branchOnly := ast.Generator("branch", nil, ast.Body(
		ast.Do(ast.Yield(ast.Int(1))),
		ast.LetName("y", ast.Int(2)),
		ast.Do(ast.If(ast.Bool(true), ast.Body(), ast.Body())),
		ast.Do(ast.Return(ast.Var("y"))),
	))

	tests := []struct {
		name        string
		fn          *ast.Func
		machine     string
		reduced     string
		lastVariant string
	}{
		{"shadowing", shadowing(), "T1 T2 T0", "T1 T2", "T2, T1"},
		{"branch only", branchOnly, "T1 T0", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m := synth(t, tt.fn, statemachine.Options{Resumable: true})
			if m.Resume == nil {
				t.Fatal("no resume layer")
			}
			if got := paramNames(m.Params); got != tt.machine {
				t.Errorf("machine params = %q, want %q", got, tt.machine)
			}
			if got := paramNames(m.Resume.Params); got != tt.reduced {
				t.Errorf("reduced params = %q, want %q", got, tt.reduced)
			}
			last := m.Resume.Variants[len(m.Resume.Variants)-1]
			if got := strings.Join(last.Params, ", "); got != tt.lastVariant {
				t.Errorf("%s params = %q, want %q", last.Name, got, tt.lastVariant)
			}
		})
	}
}

func TestDump(t *testing.T) {
	f, m := synth(t, shadowing(), statemachine.Options{Resumable: true})
	var buf bytes.Buffer
	if err := statemachine.Dump(&buf, f, m); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"machine shadow [sequence] start=State0Start",
		"State2AfterSuspend <T2, T1> {} { x: T2, x_shadowed_1: T1 }",
		"Yield(x), Coroutine1AfterSuspend",
		"Done(return_), Illegal",
		"Coroutine0Start",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}

func TestMachine_MsgpackRoundTrip(t *testing.T) {
	_, m := synth(t, shadowing(), statemachine.Options{Resumable: true})
	data, err := msgpack.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back statemachine.Machine
	if err := msgpack.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Discipline != statemachine.Sequence {
		t.Errorf("discipline = %v", back.Discipline)
	}
	if id, ok := back.StateOf(2); !ok || id != 2 {
		t.Errorf("StateOf(bb2) = %d, %v", id, ok)
	}
	if variantNames(&back) != variantNames(m) {
		t.Errorf("variants = %s", variantNames(&back))
	}
	if back.Resume == nil || len(back.Resume.Variants) != 3 {
		t.Fatalf("resume layer = %+v", back.Resume)
	}
}
