package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stateful/internal/ast"
	"stateful/internal/diag"
	"stateful/internal/mir"
	"stateful/internal/statemachine"
	"stateful/internal/trace"
)

// Options configures batch lowering.
type Options struct {
	// Jobs bounds concurrent functions; <= 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	Resumable      bool
	Classifier     ast.Classifier

	// Disk and Memory are optional caches consulted in that order after
	// Memory misses.
	Disk   *DiskCache
	Memory *FuncCache
}

// Result is the outcome of lowering one function. A failed function has a
// nil Machine and at least one error in Bag.
type Result struct {
	Index    int
	Name     string
	Func     *mir.Func
	Machine  *statemachine.Machine
	Bag      *diag.Bag
	Cached   bool
	Duration time.Duration
}

// Failed reports whether lowering produced no machine.
func (r *Result) Failed() bool { return r.Machine == nil }

// LowerFunc constructs and synthesizes fn. User-facing failures end up in
// the result's Bag; only cancellation is returned as an error.
func LowerFunc(ctx context.Context, fn *ast.Func, opts Options) (res Result, err error) {
	res = Result{Name: fn.Name, Bag: diag.NewBag(maxDiagnostics(opts))}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	key, cacheable := FuncDigest(fn, opts)
	if cacheable {
		if hit, ok := lookupCached(fn.Name, key, opts); ok {
			return hit, nil
		}
	}

	f, m, err := lowerOne(ctx, fn, opts)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return res, err
		}
		res.Bag.Add(diagnosticOf(fn, err))
		Logger().Debug("lowering failed", zap.String("func", fn.Name), zap.Error(err))
		return res, nil
	}
	res.Func, res.Machine = f, m

	if cacheable {
		storeCached(key, &res, opts)
	}
	return res, nil
}

// lowerOne runs both passes. Builder invariant panics are turned into errors
// so one broken function cannot take its siblings down.
func lowerOne(ctx context.Context, fn *ast.Func, opts Options) (f *mir.Func, m *statemachine.Machine, err error) {
	defer func() {
		if r := recover(); r != nil {
			ice, ok := r.(*mir.InvariantError)
			if !ok {
				panic(r)
			}
			f, m, err = nil, nil, ice
		}
	}()
	f, err = mir.Construct(ctx, fn, mir.Options{Classifier: opts.Classifier})
	if err != nil {
		return nil, nil, err
	}
	m, err = statemachine.Synthesize(f, statemachine.Options{
		Resumable:   opts.Resumable,
		Tracer:      trace.FromContext(ctx),
		TraceParent: trace.CurrentSpan(ctx).SpanID,
	})
	if err != nil {
		return nil, nil, err
	}
	return f, m, nil
}

func diagnosticOf(fn *ast.Func, err error) diag.Diagnostic {
	var unsup *mir.UnsupportedError
	if errors.As(err, &unsup) {
		return unsup.Diagnostic()
	}
	var ice *mir.InvariantError
	if errors.As(err, &ice) {
		msg := ice.Msg
		if msg == "" {
			msg = ice.Error()
		}
		return diag.NewError(ice.Code, fn.Span, msg)
	}
	return diag.NewError(diag.UnknownCode, fn.Span, fmt.Sprintf("%s: %v", fn.Name, err))
}

func lookupCached(name string, key Digest, opts Options) (Result, bool) {
	if res, ok := opts.Memory.Get(name, key); ok {
		res.Cached = true
		return res, true
	}
	if opts.Disk == nil {
		return Result{}, false
	}
	var art Artifact
	ok, err := opts.Disk.Get(key, &art)
	if err != nil {
		Logger().Warn("cache read failed", zap.String("func", name), zap.Error(err))
		return Result{}, false
	}
	if !ok || art.Failed() {
		return Result{}, false
	}
	res := Result{Name: name, Func: art.Graph, Machine: art.Machine, Bag: diag.NewBag(maxDiagnostics(opts)), Cached: true}
	opts.Memory.Put(key, res)
	return res, true
}

func storeCached(key Digest, res *Result, opts Options) {
	opts.Memory.Put(key, *res)
	if opts.Disk == nil {
		return
	}
	art := ArtifactOf(res)
	if err := opts.Disk.Put(key, &art); err != nil {
		Logger().Warn("cache write failed", zap.String("func", res.Name), zap.Error(err))
	}
}

func maxDiagnostics(opts Options) int {
	if opts.MaxDiagnostics > 0 {
		return opts.MaxDiagnostics
	}
	return 64
}
