package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"stateful/internal/diag"
	"stateful/internal/diagfmt"
	"stateful/internal/source"
)

var (
	errorColor  = color.New(color.FgRed, color.Bold)
	headerColor = color.New(color.Bold)
	outputColor = color.New(color.FgGreen)
)

func applyColor(mode string) {
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		color.NoColor = !isTerminal(os.Stdout)
	}
}

func quiet() bool {
	q, _ := rootCmd.PersistentFlags().GetBool("quiet")
	return q
}

// printDiagnostics writes items in the format chosen by --diag-format.
func printDiagnostics(w io.Writer, files *source.FileSet, items []diag.Diagnostic, limit int) {
	format, _ := rootCmd.PersistentFlags().GetString("diag-format")
	if format == "json" {
		if err := diagfmt.JSON(w, items, files, diagfmt.JSONOpts{Max: limit, IncludeNotes: true}); err != nil {
			log.Warn("diagnostics not written", zap.Error(err))
		}
		return
	}
	diagfmt.Pretty(w, items, files, diagfmt.PrettyOpts{Max: limit, ShowNotes: true, ShowPreview: !quiet()})
}
