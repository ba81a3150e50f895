package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stateful/internal/vm"
)

var (
	runFunc     string
	runArgs     []string
	runResume   bool
	runMaxSteps int
	runDrops    bool
	runCancel   int
)

func init() {
	runCmd.Flags().StringVar(&runFunc, "func", "", "function to run (may be omitted when the program has one)")
	runCmd.Flags().StringArrayVar(&runArgs, "arg", nil, "argument value, repeat once per parameter")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "drive through the resume-state adapter")
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", vm.DefaultMaxSteps, "handler budget per step")
	runCmd.Flags().BoolVar(&runDrops, "drops", false, "print the drop log at the end")
	runCmd.Flags().IntVar(&runCancel, "cancel-after", 0, "cancel after this many outputs (0=run to completion)")
}

var runCmd = &cobra.Command{
	Use:   "run <file.yaml>",
	Short: "Drive a function's state machine and print every output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timings, _ := cmd.Root().PersistentFlags().GetBool("timings")
		s, err := loadProgram(cmd.ErrOrStderr(), args[0], timings)
		if err != nil {
			return err
		}
		name := runFunc
		if name == "" {
			if len(s.prog.Funcs) != 1 {
				return errors.New("--func is required when the program has several functions")
			}
			name = s.prog.Funcs[0].Name
		}
		if err := s.selectFuncs(name); err != nil {
			return err
		}
		if runResume {
			current.Lower.Resumable = true
		}
		results, err := s.lower(cmd.Context())
		if err != nil {
			return err
		}
		if err := s.report(cmd.ErrOrStderr(), results); err != nil {
			return err
		}
		r := &results[0]

		values := make([]vm.Value, len(runArgs))
		for i, a := range runArgs {
			values[i] = vm.ParseValue(a)
		}
		inst, err := vm.New(r.Machine, r.Func, values, vm.Options{MaxSteps: runMaxSteps})
		if err != nil {
			return err
		}

		idx := s.timer.Begin("run")
		out := cmd.OutOrStdout()
		count := 0
		for !inst.Done() {
			if runCancel > 0 && count == runCancel {
				dropped, err := inst.Cancel()
				if err != nil {
					return err
				}
				for _, d := range dropped {
					fmt.Fprintf(out, "cancel: drop %s = %s\n", d.Name, d.Value)
				}
				break
			}
			var o vm.Output
			if runResume && r.Machine.Resume != nil {
				o, err = inst.Resume(vm.Unit())
			} else {
				o, err = inst.Step()
			}
			if err != nil {
				var vmErr *vm.VMError
				if errors.As(err, &vmErr) {
					fmt.Fprint(cmd.ErrOrStderr(), errorColor.Sprint(vmErr.FormatWithFiles(s.files)))
					return fmt.Errorf("%s panicked", name)
				}
				return err
			}
			count++
			if o.Kind.Terminal() {
				fmt.Fprintln(out, outputColor.Sprint(o.String()))
			} else {
				fmt.Fprintln(out, o.String())
			}
			log.Debug("step", zap.String("func", name), zap.String("state", inst.StateName()), zap.Stringer("output", o))
		}
		s.timer.End(idx, fmt.Sprintf("%d outputs", count))

		if runDrops {
			for _, d := range inst.DropLog() {
				fmt.Fprintf(out, "drop %s = %s\n", d.Name, d.Value)
			}
		}
		s.printTimings(cmd.ErrOrStderr())
		return nil
	},
}
