package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stateful/internal/driver"
)

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (.mp)")
	exportCmd.Flags().Bool("resumable", false, "add the resume-state layer")
	_ = exportCmd.MarkFlagRequired("output")
}

var exportCmd = &cobra.Command{
	Use:   "export <file.yaml>",
	Short: "Write the lowered artifacts of every function as msgpack",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timings, _ := cmd.Root().PersistentFlags().GetBool("timings")
		s, err := loadProgram(cmd.ErrOrStderr(), args[0], timings)
		if err != nil {
			return err
		}
		results, err := s.lower(cmd.Context())
		if err != nil {
			return err
		}
		reportErr := s.report(cmd.ErrOrStderr(), results)

		arts := make([]driver.Artifact, len(results))
		for i := range results {
			arts[i] = driver.ArtifactOf(&results[i])
		}
		if err := writeArtifacts(exportOutput, arts); err != nil {
			return err
		}
		log.Info("artifacts written", zap.String("path", exportOutput), zap.Int("count", len(arts)))
		if !quiet() {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d artifacts to %s\n", len(arts), exportOutput)
		}
		s.printTimings(cmd.ErrOrStderr())
		return reportErr
	},
}

// writeArtifacts replaces path atomically.
func writeArtifacts(path string, arts []driver.Artifact) (err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = driver.EncodeArtifacts(f, arts); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
