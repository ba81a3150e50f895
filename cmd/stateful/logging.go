package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stateful/internal/driver"
)

// log is the CLI logger; it stays a no-op unless --verbose is set.
var log = zap.NewNop()

func setupLogging(cmd *cobra.Command) (func(), error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	if !verbose {
		return func() {}, nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	log = l.Named("stateful")
	driver.SetLogger(l.Named("driver"))
	return func() { _ = l.Sync() }, nil
}
