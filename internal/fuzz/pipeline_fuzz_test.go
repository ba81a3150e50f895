package fuzztests

import (
	"context"
	"errors"
	"testing"
	"time"

	"stateful/internal/ast"
	"stateful/internal/diag"
	"stateful/internal/mir"
	"stateful/internal/source"
	"stateful/internal/statemachine"
	"stateful/internal/testkit"
	"stateful/internal/vm"
)

const (
	maxFuzzInput = 1 << 16 // 64 KiB
	// pipelineTimeout bounds one input; longer runs indicate a hang.
	pipelineTimeout = 5 * time.Second
	maxOutputs      = 64
)

func FuzzPipeline(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		input = append([]byte(nil), input...)

		done := make(chan struct{})
		go func() {
			defer close(done)
			runPipeline(t, input)
		}()
		select {
		case <-done:
		case <-time.After(pipelineTimeout):
			t.Fatalf("pipeline hang on input (%d bytes): %q", len(input), input)
		}
	})
}

func runPipeline(t *testing.T, input []byte) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("fuzz.yaml", input)
	bag := diag.NewBag(128)
	prog, err := ast.DecodeYAML(id, input, diag.BagReporter{Bag: bag})
	if err != nil || prog == nil {
		return
	}
	for _, fn := range prog.Funcs {
		if fn == nil || fn.Body == nil {
			continue
		}
		f, err := mir.Construct(context.Background(), fn, mir.Options{})
		if err != nil {
			var unsup *mir.UnsupportedError
			if !errors.As(err, &unsup) && !errors.Is(err, mir.ErrUninitialized) {
				t.Errorf("%s: unexpected construct error: %v", fn.Name, err)
			}
			continue
		}
		m, err := statemachine.Synthesize(f, statemachine.Options{Resumable: true})
		if err != nil {
			t.Errorf("%s: synthesize: %v", fn.Name, err)
			continue
		}
		if err := testkit.CheckMachine(f, m); err != nil {
			t.Errorf("%s: %v", fn.Name, err)
			continue
		}
		drive(t, f, m)
	}
}

// drive runs the machine with zero arguments; VM panics are acceptable,
// Go panics are not.
func drive(t *testing.T, f *mir.Func, m *statemachine.Machine) {
	args := make([]vm.Value, len(f.Params))
	for i := range args {
		args[i] = vm.IntValue(0)
	}
	inst, err := vm.New(m, f, args, vm.Options{MaxSteps: 1000})
	if err != nil {
		return
	}
	for i := 0; i < maxOutputs && !inst.Done(); i++ {
		if _, err := inst.Step(); err != nil {
			var vmErr *vm.VMError
			if !errors.As(err, &vmErr) {
				t.Errorf("%s: non-VM error: %v", f.Name, err)
			}
			return
		}
	}
}
