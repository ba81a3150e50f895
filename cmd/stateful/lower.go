package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stateful/internal/mir"
	"stateful/internal/statemachine"
)

var (
	lowerFunc   string
	lowerNested bool
	lowerLive   bool
)

func init() {
	lowerCmd.Flags().StringVar(&lowerFunc, "func", "", "lower only the named function")
	lowerCmd.Flags().BoolVar(&lowerNested, "nested", false, "group statements by visibility scope")
	lowerCmd.Flags().BoolVar(&lowerLive, "live", false, "print the liveness snapshot of each block")
	lowerCmd.Flags().Bool("resumable", false, "add the resume-state layer")
}

var lowerCmd = &cobra.Command{
	Use:   "lower <file.yaml>",
	Short: "Print the block graph and state machine of each function",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timings, _ := cmd.Root().PersistentFlags().GetBool("timings")
		s, err := loadProgram(cmd.ErrOrStderr(), args[0], timings)
		if err != nil {
			return err
		}
		if err := s.selectFuncs(lowerFunc); err != nil {
			return err
		}
		results, err := s.lower(cmd.Context())
		if err != nil {
			return err
		}

		idx := s.timer.Begin("dump")
		out := cmd.OutOrStdout()
		first := true
		for i := range results {
			r := &results[i]
			if r.Failed() {
				continue
			}
			if !first {
				fmt.Fprintln(out)
			}
			first = false
			if !quiet() {
				fmt.Fprintln(out, headerColor.Sprintf("== %s ==", r.Name))
			}
			if err := mir.Dump(out, r.Func, mir.DumpOptions{Nested: lowerNested, Live: lowerLive}); err != nil {
				return err
			}
			fmt.Fprintln(out)
			if err := statemachine.Dump(out, r.Func, r.Machine); err != nil {
				return err
			}
		}
		s.timer.End(idx, "")
		err = s.report(cmd.ErrOrStderr(), results)
		s.printTimings(cmd.ErrOrStderr())
		return err
	},
}
