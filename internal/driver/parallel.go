package driver

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stateful/internal/ast"
	"stateful/internal/trace"
)

// LowerProgram lowers every function of prog concurrently. Results are in
// declaration order. A function that fails with diagnostics does not affect
// its siblings; cancellation of ctx aborts the whole batch.
func LowerProgram(ctx context.Context, prog *ast.Program, opts Options) ([]Result, error) {
	if prog == nil || len(prog.Funcs) == 0 {
		return nil, nil
	}
	tracer := trace.FromContext(ctx)
	sp := trace.Begin(tracer, trace.ScopeProgram, "lower-program", trace.CurrentSpan(ctx).SpanID)
	defer sp.End("")
	sp.WithExtra("funcs", strconv.Itoa(len(prog.Funcs)))

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Indexes are unique per goroutine, no mutex needed.
	results := make([]Result, len(prog.Funcs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(prog.Funcs)))
	for i, fn := range prog.Funcs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fsp := trace.Begin(tracer, trace.ScopeFunc, fn.Name, sp.ID())
			fctx := trace.WithSpanContext(gctx, trace.SpanContext{SpanID: fsp.ID()})
			res, err := LowerFunc(fctx, fn, opts)
			res.Index = i
			results[i] = res
			if res.Cached {
				fsp.WithExtra("cached", "true")
			}
			fsp.End("")
			if err != nil {
				return fmt.Errorf("lower %s: %w", fn.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for i := range results {
		if results[i].Failed() {
			failed++
		}
	}
	Logger().Info("lowered program",
		zap.Int("funcs", len(results)),
		zap.Int("failed", failed),
		zap.Int("jobs", jobs))
	return results, nil
}
