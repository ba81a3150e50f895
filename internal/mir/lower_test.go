package mir_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"stateful/internal/ast"
	"stateful/internal/diag"
	"stateful/internal/mir"
)

func construct(t *testing.T, fn *ast.Func) *mir.Func {
	t.Helper()
	f, err := mir.Construct(context.Background(), fn, mir.Options{})
	if err != nil {
		t.Fatalf("Construct(%s): %v", fn.Name, err)
	}
	return f
}

func countReachable(f *mir.Func) int {
	n := 0
	for _, ok := range mir.Reachable(f) {
		if ok {
			n++
		}
	}
	return n
}

func stmtsOf(f *mir.Func, bb mir.BlockID) []string {
	blk := f.Block(bb)
	out := make([]string, 0, len(blk.Stmts))
	for i := range blk.Stmts {
		out = append(out, mir.FormatStmt(f, &blk.Stmts[i]))
	}
	return out
}

func blockNamed(t *testing.T, f *mir.Func, name string) *mir.Block {
	t.Helper()
	for i := range f.Blocks {
		if f.Blocks[i].Name == name {
			return &f.Blocks[i]
		}
	}
	t.Fatalf("no block named %s", name)
	return nil
}

func TestConstruct_StraightLine(t *testing.T) {
	fn := ast.Generator("three", nil, ast.Body(
		ast.Do(ast.Yield(ast.Int(1))),
		ast.Do(ast.Yield(ast.Int(2))),
		ast.Do(ast.Return(ast.Int(3))),
	))
	f := construct(t, fn)

	if len(f.Blocks) != 5 {
		t.Fatalf("got %d blocks, want 5", len(f.Blocks))
	}
	if f.ReturnBlock != 3 {
		t.Errorf("return block = bb%d, want bb3", f.ReturnBlock)
	}
	if got := countReachable(f); got != 4 {
		t.Errorf("reachable = %d, want 4", got)
	}
	wantTerms := []string{"yield 1 -> bb1", "yield 2 -> bb2", "goto bb3", "return", "goto bb3"}
	for i, want := range wantTerms {
		if got := mir.FormatTerm(&f.Blocks[i].Term); got != want {
			t.Errorf("bb%d term = %q, want %q", i, got, want)
		}
	}
	if got := stmtsOf(f, 2); len(got) != 1 || got[0] != "return_ = 3" {
		t.Errorf("bb2 stmts = %q", got)
	}
}

func TestConstruct_NoSuspension(t *testing.T) {
	tests := []struct {
		name string
		body *ast.Block
	}{
		{"explicit_return", ast.Body(ast.Do(ast.Return(ast.Int(1))))},
		{"fall_off", ast.Body(ast.LetName("x", ast.Int(1)))},
		{"empty", ast.Body()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := construct(t, ast.Generator("plain", nil, tt.body))
			if got := countReachable(f); got != 2 {
				t.Errorf("reachable = %d, want 2", got)
			}
			rb := f.Block(f.ReturnBlock)
			if kind, ok := rb.Decls.Find(mir.ReturnPointer); !ok || kind != mir.LiveActive {
				t.Errorf("return slot in return block = %v, %v", kind, ok)
			}
		})
	}
}

func TestConstruct_ShadowingAliases(t *testing.T) {
	fn := ast.Generator("shadow", nil, ast.Body(
		ast.LetName("x", ast.Int(1)),
		ast.Do(ast.Yield(ast.Var("x"))),
		ast.LetName("x", ast.Int(2)),
		ast.Do(ast.Yield(ast.Var("x"))),
	))
	f := construct(t, fn)

	if got := strings.Join(stmtsOf(f, 1), "; "); got != "let x_shadowed_1 = x; let x = 2" {
		t.Errorf("bb1 = %q", got)
	}
	if got := strings.Join(stmtsOf(f, 2), "; "); got != "drop x; x = x_shadowed_1; drop x; return_ = ()" {
		t.Errorf("bb2 = %q", got)
	}
	if l := f.Local(2); l.Name != "x" || l.Shadowed != 1 {
		t.Errorf("L2 = %+v, want x shadowing L1", l)
	}
	kind, _ := f.Blocks[2].Decls.Find(1)
	if kind != mir.LiveMoved {
		t.Errorf("shadowed local state in bb2 = %v, want moved", kind)
	}
}

func TestConstruct_Uninitialized(t *testing.T) {
	fn := ast.Generator("fwd", nil, ast.Body(
		ast.Let(ast.Bind("x"), nil),
		ast.Do(ast.Yield(ast.Int(0))),
	))
	_, err := mir.Construct(context.Background(), fn, mir.Options{})
	if !errors.Is(err, mir.ErrUninitialized) {
		t.Fatalf("err = %v, want ErrUninitialized", err)
	}
	var inv *mir.InvariantError
	if !errors.As(err, &inv) || inv.Code != diag.InternalUninitialized {
		t.Fatalf("err = %#v, want invariant error", err)
	}
	if !strings.Contains(err.Error(), "uninitialized variables: x") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestConstruct_ForwardAssignedOnOnePath(t *testing.T) {
	fn := ast.Generator("fwd", ast.Params("c"), ast.Body(
		ast.Let(ast.Bind("x"), nil),
		ast.Do(ast.If(ast.Var("c"), ast.Body(ast.Do(ast.Assign("x", ast.Int(1)))), nil)),
		ast.Do(ast.Yield(ast.Int(0))),
	))
	f := construct(t, fn)
	end := blockNamed(t, f, "EndIf")
	if kind, _ := end.Decls.Find(2); kind != mir.LiveForward {
		t.Errorf("x after partial assignment = %v, want forward", kind)
	}
}

func TestConstruct_MoveInBranchJoins(t *testing.T) {
	fn := ast.Generator("mv", ast.Params("c"), ast.Body(
		ast.LetName("x", ast.Int(1)),
		ast.Do(ast.If(ast.Var("c"),
			ast.Body(ast.Do(ast.Call("consume", ast.Move("x")))),
			ast.Body(ast.Do(ast.Yield(ast.Int(0)))),
		)),
		ast.Do(ast.Yield(ast.Int(1))),
	))
	f := construct(t, fn)
	end := blockNamed(t, f, "EndIf")
	if kind, _ := end.Decls.Find(2); kind != mir.LiveMoved {
		t.Errorf("x after join = %v, want moved", kind)
	}
	for i := range f.Blocks {
		for _, st := range f.Blocks[i].Stmts {
			if st.Kind == mir.StmtDrop && st.Drop.Local == 2 && f.Blocks[i].Name == "EndIf" {
				t.Errorf("moved x dropped in EndIf")
			}
		}
	}
}

func TestConstruct_WhileLoop(t *testing.T) {
	fn := ast.Generator("count", ast.Params("n"), ast.Body(
		ast.LetMut("i", ast.Int(0)),
		ast.Do(ast.While(ast.Binary(ast.BinLt, ast.Var("i"), ast.Var("n")), ast.Body(
			ast.Do(ast.Yield(ast.Var("i"))),
			ast.Do(ast.Assign("i", ast.Binary(ast.BinAdd, ast.Var("i"), ast.Int(1)))),
		))),
		ast.Do(ast.Return(ast.Var("i"))),
	))
	f := construct(t, fn)

	names := make([]string, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		names = append(names, b.Name)
	}
	want := "Start WhileCond WhileBody LoopExit AfterSuspend Return AfterReturn"
	if got := strings.Join(names, " "); got != want {
		t.Fatalf("blocks = %s, want %s", got, want)
	}
	if got := mir.FormatTerm(&f.Blocks[1].Term); got != "if i < n then bb2 else bb3" {
		t.Errorf("cond = %q", got)
	}
	if got := mir.FormatTerm(&f.Blocks[4].Term); got != "goto bb1" {
		t.Errorf("back edge = %q", got)
	}
	if got := strings.Join(stmtsOf(f, 3), "; "); got != "return_ = i; drop i" {
		t.Errorf("exit = %q", got)
	}
	if got := strings.Join(stmtsOf(f, f.ReturnBlock), "; "); got != "drop n" {
		t.Errorf("return block = %q", got)
	}
	if got := countReachable(f); got != 6 {
		t.Errorf("reachable = %d, want 6", got)
	}
}

func TestConstruct_BreakUnwinds(t *testing.T) {
	fn := ast.Generator("brk", nil, ast.Body(
		ast.Do(ast.Loop(ast.Body(
			ast.LetName("y", ast.Int(1)),
			ast.Do(ast.Yield(ast.Var("y"))),
			ast.Do(ast.Break()),
		))),
		ast.Do(ast.Return(ast.Int(0))),
	))
	f := construct(t, fn)
	after := f.Block(3)
	if after.Name != "AfterSuspend" {
		t.Fatalf("bb3 = %s", after.Name)
	}
	if got := strings.Join(stmtsOf(f, 3), "; "); got != "drop y" {
		t.Errorf("break block = %q", got)
	}
	if got := mir.FormatTerm(&after.Term); got != "goto bb2" {
		t.Errorf("break term = %q", got)
	}
	if reach := mir.Reachable(f); reach[4] {
		t.Error("AfterBreak is reachable")
	}
}

func TestConstruct_LoopBackEdgeAndBreak(t *testing.T) {
	fn := ast.Generator("poll", ast.Params("done", "v"), ast.Body(
		ast.Do(ast.Loop(ast.Body(
			ast.Do(ast.If(ast.Var("done"),
				ast.Body(ast.Do(ast.Break())),
				ast.Body(ast.Do(ast.Yield(ast.Var("v")))),
			)),
		))),
	))
	f := construct(t, fn)
	entry := blockNamed(t, f, "Loop")
	exit := blockNamed(t, f, "LoopExit")
	then := blockNamed(t, f, "Then")
	tail := blockNamed(t, f, "EndIf")

	tests := []struct {
		name string
		blk  *mir.Block
		want mir.BlockID
	}{
		{"break targets exit", then, exit.ID},
		{"body tail loops back", tail, entry.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.blk.Term.Kind != mir.TermGoto {
				t.Fatalf("%s ends in %s, want goto", tt.blk.Name, tt.blk.Term.Kind)
			}
			if got := tt.blk.Term.Goto.Target; got != tt.want {
				t.Errorf("%s goes to bb%d, want bb%d", tt.blk.Name, got, tt.want)
			}
		})
	}

	if !mir.Reachable(f)[tail.ID] {
		t.Error("loop tail is unreachable")
	}
}

func TestConstruct_ForwardAssignedInLoop(t *testing.T) {
	fn := ast.Generator("init", nil, ast.Body(
		ast.Let(ast.Bind("x"), nil),
		ast.Do(ast.Loop(ast.Body(
			ast.Do(ast.Assign("x", ast.Int(5))),
			ast.Do(ast.Break()),
		))),
		ast.Do(ast.Yield(ast.Var("x"))),
	))
	f := construct(t, fn)
	exit := blockNamed(t, f, "LoopExit")
	if kind, _ := exit.Decls.Find(1); kind != mir.LiveActive {
		t.Errorf("x at loop exit = %v, want active", kind)
	}
}

func TestConstruct_MatchArms(t *testing.T) {
	fn := ast.Async("m", ast.Params("v"), ast.Body(
		ast.Do(ast.Match(ast.Var("v"),
			ast.Arm(ast.PatInt(0), ast.Body(ast.Do(ast.Await(ast.Int(0))))),
			ast.Arm(ast.Bind("k"), ast.Body(ast.Do(ast.Return(ast.Var("k"))))),
		)),
		ast.Do(ast.Return(ast.Int(-1))),
	))
	f := construct(t, fn)
	if got := mir.FormatTerm(&f.Blocks[0].Term); got != "match v { 0 => bb1, k => bb3 }" {
		t.Fatalf("match = %q", got)
	}
	arm := f.Block(3)
	if kind, ok := arm.Decls.Find(2); !ok || kind != mir.LiveActive {
		t.Errorf("arm binding k in arm block = %v, %v", kind, ok)
	}
	if got := strings.Join(stmtsOf(f, 3), "; "); got != "return_ = k; drop k" {
		t.Errorf("arm = %q", got)
	}
}

func TestConstruct_TerminatorArity(t *testing.T) {
	f := construct(t, sampleFunc())
	for i := range f.Blocks {
		term := &f.Blocks[i].Term
		want := map[mir.TermKind]int{
			mir.TermGoto:    1,
			mir.TermIf:      2,
			mir.TermSuspend: 1,
			mir.TermReturn:  0,
		}
		n, ok := want[term.Kind]
		if term.Kind == mir.TermMatch {
			n, ok = len(term.Match.Arms), true
		}
		if !ok {
			t.Errorf("bb%d: unexpected terminator %s", i, term.Kind)
			continue
		}
		if got := len(term.Successors()); got != n {
			t.Errorf("bb%d %s: %d successors, want %d", i, term.Kind, got, n)
		}
	}
	if err := mir.Validate(f); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestConstruct_Deterministic(t *testing.T) {
	a := construct(t, sampleFunc())
	b := construct(t, sampleFunc())
	if mir.Shape(a) != mir.Shape(b) {
		t.Errorf("shapes differ:\n%s\n%s", mir.Shape(a), mir.Shape(b))
	}
}

func sampleFunc() *ast.Func {
	return ast.Generator("sample", ast.Params("n"), ast.Body(
		ast.LetMut("i", ast.Int(0)),
		ast.Do(ast.While(ast.Binary(ast.BinLt, ast.Var("i"), ast.Var("n")), ast.Body(
			ast.LetName("sq", ast.Binary(ast.BinMul, ast.Var("i"), ast.Var("i"))),
			ast.Do(ast.If(ast.Binary(ast.BinEq, ast.Var("sq"), ast.Int(4)),
				ast.Body(ast.Do(ast.Assign("i", ast.Binary(ast.BinAdd, ast.Var("i"), ast.Int(1)))), ast.Do(ast.Continue())),
				nil,
			)),
			ast.Do(ast.Match(ast.Var("sq"),
				ast.Arm(ast.PatInt(9), ast.Body(ast.Do(ast.Break()))),
				ast.Arm(ast.Wild(), ast.Body(ast.Do(ast.Yield(ast.Var("sq"))))),
			)),
			ast.Do(ast.Assign("i", ast.Binary(ast.BinAdd, ast.Var("i"), ast.Int(1)))),
		))),
		ast.Do(ast.Return(ast.Var("i"))),
	))
}

func TestConstruct_Unsupported(t *testing.T) {
	tests := []struct {
		name string
		body *ast.Block
		code diag.Code
	}{
		{"item", ast.Body(ast.Item("fn", "inner")), diag.LowerItemDecl},
		{"tail", &ast.Block{Tail: ast.Int(1)}, diag.LowerBlockTail},
		{"bare_return", ast.Body(ast.Do(ast.Return(nil))), diag.LowerEmptyReturn},
		{"break_outside", ast.Body(ast.Do(ast.Break())), diag.LowerBreakOutsideLoop},
		{"suspend_in_cond", ast.Body(ast.Do(ast.If(ast.Yield(ast.Int(1)), ast.Body(), nil))), diag.LowerSuspendInCond},
		{"nested_suspend", ast.Body(ast.Do(ast.Call("f", ast.Yield(ast.Int(1))))), diag.LowerNestedSuspend},
		{"arm_shadow", ast.Body(
			ast.LetName("x", ast.Int(1)),
			ast.Do(ast.Match(ast.Int(2), ast.Arm(ast.Bind("x"), ast.Body(ast.Do(ast.Yield(ast.Var("x"))))))),
		), diag.LowerShadowInArm},
		{"refutable_let", ast.Body(ast.Let(ast.PatInt(1), ast.Int(1))), diag.LowerUnsupportedPat},
		{"marker_arity", ast.Body(ast.Do(ast.Call(ast.YieldMarker))), diag.LowerMarkerArity},
		{"moved_in_loop", ast.Body(
			ast.LetName("s", ast.Int(1)),
			ast.Do(ast.Loop(ast.Body(ast.Do(ast.Yield(ast.Move("s")))))),
		), diag.LowerMovedInLoop},
		{"return_in_let", ast.Body(ast.LetName("y", ast.Call("f", ast.Return(ast.Int(1))))), diag.LowerTransferInExpr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mir.Construct(context.Background(), ast.Generator("bad", nil, tt.body), mir.Options{})
			var ue *mir.UnsupportedError
			if !errors.As(err, &ue) {
				t.Fatalf("err = %v, want UnsupportedError", err)
			}
			if ue.Code != tt.code {
				t.Errorf("code = %s, want %s", ue.Code.ID(), tt.code.ID())
			}
			if d := ue.Diagnostic(); d.Severity != diag.SevError || d.Code != tt.code {
				t.Errorf("diagnostic = %+v", d)
			}
		})
	}
}

func TestConstruct_CustomClassifier(t *testing.T) {
	fn := ast.Generator("custom", nil, ast.Body(
		ast.Do(ast.Call("emit", ast.Int(1))),
		ast.Do(ast.Yield(ast.Int(2))),
	))
	f, err := mir.Construct(context.Background(), fn, mir.Options{Classifier: ast.Markers{Yield: "emit"}})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if f.Blocks[0].Term.Kind != mir.TermSuspend {
		t.Errorf("custom marker not recognized: %s", f.Blocks[0].Term.Kind)
	}
	if got := stmtsOf(f, 1); len(got) == 0 || got[0] != "yield_(2)" {
		t.Errorf("default marker should be opaque with a custom classifier, got %q", got)
	}
}

func TestConstruct_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mir.Construct(ctx, sampleFunc(), mir.Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
