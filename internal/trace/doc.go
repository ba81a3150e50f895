// Package trace records where lowering spends its time.
//
// Enable tracing via command-line flags:
//
//	stateful lower --trace=- --trace-level=detail prog.yaml
//
// Tracer implementations:
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate text or NDJSON write to a file or stderr
//   - ZapTracer: forwards events to a zap logger
//
// Levels gate scopes: LevelPhase shows program and pass boundaries,
// LevelDetail adds per-function spans, LevelDebug adds per-block events.
//
// Tracers travel through the pipeline on the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "construct", parentID)
//	defer span.End("")
package trace
