package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"stateful/internal/ast"
	"stateful/internal/diag"
	"stateful/internal/driver"
	"stateful/internal/observ"
	"stateful/internal/source"
)

// session carries one loaded program through a command.
type session struct {
	files *source.FileSet
	prog  *ast.Program
	timer *observ.Timer
}

func loadProgram(stderr io.Writer, path string, timings bool) (*session, error) {
	s := &session{files: source.NewFileSet()}
	if timings {
		s.timer = observ.NewTimer()
	}
	idx := s.timer.Begin("load")
	defer s.timer.End(idx, path)

	id, err := s.files.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	bag := diag.NewBag(current.Output.MaxDiagnostics)
	prog, err := ast.DecodeYAML(id, s.files.Get(id).Content, diag.BagReporter{Bag: bag})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if bag.Len() > 0 {
		bag.Sort()
		printDiagnostics(stderr, s.files, bag.Items(), current.Output.MaxDiagnostics)
	}
	if bag.HasErrors() {
		return nil, fmt.Errorf("%s: program has errors", path)
	}
	log.Debug("program loaded", zap.String("path", path), zap.Int("funcs", len(prog.Funcs)))
	s.prog = prog
	return s, nil
}

// selectFuncs narrows the program to name when it is set.
func (s *session) selectFuncs(name string) error {
	if name == "" {
		return nil
	}
	fn, ok := s.prog.Lookup(name)
	if !ok {
		return fmt.Errorf("no function named %q", name)
	}
	s.prog = &ast.Program{File: s.prog.File, Funcs: []*ast.Func{fn}}
	return nil
}

func (s *session) lower(ctx context.Context) ([]driver.Result, error) {
	idx := s.timer.Begin("lower")
	defer s.timer.End(idx, fmt.Sprintf("%d funcs", len(s.prog.Funcs)))

	opts := driver.Options{
		Jobs:           current.Lower.Jobs,
		MaxDiagnostics: current.Output.MaxDiagnostics,
		Resumable:      current.Lower.Resumable,
		Memory:         driver.NewFuncCache(len(s.prog.Funcs)),
	}
	if current.Cache.Enabled {
		dc, err := openCache()
		if err != nil {
			log.Warn("cache disabled", zap.Error(err))
		} else {
			opts.Disk = dc
		}
	}
	return driver.LowerProgram(ctx, s.prog, opts)
}

func openCache() (*driver.DiskCache, error) {
	if current.Cache.Dir != "" {
		return driver.NewDiskCache(current.Cache.Dir)
	}
	return driver.OpenDiskCache("stateful")
}

// report prints the diagnostics of failed results and returns an error
// naming how many failed.
func (s *session) report(w io.Writer, results []driver.Result) error {
	failed := 0
	for i := range results {
		r := &results[i]
		if r.Bag != nil && r.Bag.Len() > 0 {
			printDiagnostics(w, s.files, r.Bag.Items(), current.Output.MaxDiagnostics)
		}
		if r.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d functions failed to lower", failed, len(results))
	}
	return nil
}

func (s *session) printTimings(w io.Writer) {
	if s.timer != nil {
		fmt.Fprint(w, s.timer.Summary())
	}
}
