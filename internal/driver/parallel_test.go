package driver_test

import (
	"context"
	"errors"
	"testing"

	"stateful/internal/ast"
	"stateful/internal/diag"
	"stateful/internal/driver"
)

func counter(name string) *ast.Func {
	return ast.Generator(name, ast.Params("n"), ast.Body(
		ast.LetMut("i", ast.Int(0)),
		ast.Do(ast.While(ast.Binary(ast.BinLt, ast.Var("i"), ast.Var("n")), ast.Body(
			ast.Do(ast.Yield(ast.Var("i"))),
			ast.Do(ast.Assign("i", ast.Binary(ast.BinAdd, ast.Var("i"), ast.Int(1)))),
		))),
		ast.Do(ast.Return(ast.Var("i"))),
	))
}

func withItem(name string) *ast.Func {
	return ast.Generator(name, nil, ast.Body(
		ast.Item("fn", "helper"),
		ast.Do(ast.Yield(ast.Int(1))),
	))
}

func sampleProgram() *ast.Program {
	return &ast.Program{Funcs: []*ast.Func{
		counter("first"),
		withItem("broken"),
		counter("second"),
		ast.Async("later", nil, ast.Body(ast.Do(ast.Await(ast.Int(1))), ast.Do(ast.Return(ast.Int(2))))),
	}}
}

func firstCode(r *driver.Result) diag.Code {
	items := r.Bag.Items()
	if len(items) == 0 {
		return diag.UnknownCode
	}
	return items[0].Code
}

func TestLowerProgram_OrderAndSiblings(t *testing.T) {
	results, err := driver.LowerProgram(context.Background(), sampleProgram(), driver.Options{Jobs: 2})
	if err != nil {
		t.Fatalf("LowerProgram: %v", err)
	}
	want := []string{"first", "broken", "second", "later"}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	for i, name := range want {
		r := &results[i]
		if r.Name != name || r.Index != i {
			t.Errorf("result %d = %s (index %d), want %s", i, r.Name, r.Index, name)
		}
		if name == "broken" {
			if !r.Failed() || firstCode(r) != diag.LowerItemDecl {
				t.Errorf("broken: failed=%v code=%v", r.Failed(), firstCode(r))
			}
			continue
		}
		if r.Failed() || r.Bag.HasErrors() {
			t.Errorf("%s failed: %v", name, r.Bag.Items())
		}
	}
}

func TestLowerProgram_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := driver.LowerProgram(ctx, sampleProgram(), driver.Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestLowerFunc_Uninitialized(t *testing.T) {
	fn := ast.Generator("never", nil, ast.Body(
		ast.Let(ast.Bind("x"), nil),
		ast.Do(ast.Yield(ast.Int(1))),
	))
	res, err := driver.LowerFunc(context.Background(), fn, driver.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Failed() || firstCode(&res) != diag.InternalUninitialized {
		t.Fatalf("failed=%v code=%v", res.Failed(), firstCode(&res))
	}
}

func TestLowerFunc_MemoryCache(t *testing.T) {
	opts := driver.Options{Memory: driver.NewFuncCache(4)}
	first, err := driver.LowerFunc(context.Background(), counter("c"), opts)
	if err != nil || first.Cached {
		t.Fatalf("first: cached=%v err=%v", first.Cached, err)
	}
	second, err := driver.LowerFunc(context.Background(), counter("c"), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Machine != first.Machine {
		t.Errorf("second lowering was not served from memory")
	}

	opts.Resumable = true
	third, err := driver.LowerFunc(context.Background(), counter("c"), opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached || third.Machine.Resume == nil {
		t.Errorf("changed options must miss the cache")
	}
}

type callsOnly struct{}

func (callsOnly) SuspendMarker(e *ast.Expr) (ast.SuspendKind, bool) {
	return ast.DefaultMarkers.SuspendMarker(e)
}

func (callsOnly) ContainsSuspend(e *ast.Expr) bool { return ast.DefaultMarkers.ContainsSuspend(e) }

func TestFuncDigest(t *testing.T) {
	a, ok := driver.FuncDigest(counter("c"), driver.Options{})
	if !ok || a.IsZero() {
		t.Fatal("default options must be cacheable")
	}
	b, _ := driver.FuncDigest(counter("c"), driver.Options{})
	if a != b {
		t.Error("digest is not deterministic")
	}
	c, _ := driver.FuncDigest(counter("c"), driver.Options{Resumable: true})
	if a == c {
		t.Error("digest ignores Resumable")
	}
	d, _ := driver.FuncDigest(counter("d"), driver.Options{})
	if a == d {
		t.Error("digest ignores the function")
	}
	if _, ok := driver.FuncDigest(counter("c"), driver.Options{Classifier: callsOnly{}}); ok {
		t.Error("custom classifier must not be cacheable")
	}
}
