package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stateful/internal/trace"
)

// setupTracing initializes the tracer from the resolved settings and attaches
// it to the command context. It returns a cleanup function.
func setupTracing(cmd *cobra.Command, s *settings) (func(), error) {
	level, err := trace.ParseLevel(s.Trace.Level)
	if err != nil {
		return nil, err
	}
	if level == trace.LevelOff && s.Trace.Output == "" {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}
	if level == trace.LevelOff {
		level = trace.LevelPhase
	}

	var tracer trace.Tracer
	if s.Trace.Output == "zap" {
		tracer = trace.NewZapTracer(log, level)
	} else {
		tracer, err = trace.New(trace.Config{Level: level, OutputPath: s.Trace.Output})
		if err != nil {
			return nil, err
		}
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	return func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}
