package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"stateful/internal/diag"
	"stateful/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgBlue, color.Bold)
	noteColor    = color.New(color.FgCyan)
	gutterColor  = color.New(color.FgBlue)
)

// Pretty writes items in a human-readable form:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// followed by the source line with a caret under the column, then notes.
// Color follows color.NoColor.
func Pretty(w io.Writer, items []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	for i, d := range items {
		if opts.Max > 0 && i >= opts.Max {
			fmt.Fprintf(w, "... %d more diagnostics\n", len(items)-opts.Max)
			return
		}
		fmt.Fprintf(w, "%s: %s: %s\n", fs.Format(d.Primary), severityColor(d.Severity).Sprintf("%s %s", d.Severity, d.Code.ID()), d.Message)
		if opts.ShowPreview {
			writePreview(w, fs, d.Primary)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %s: %s: %s\n", noteColor.Sprint("note"), fs.Format(n.Span), n.Msg)
		}
	}
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

func writePreview(w io.Writer, fs *source.FileSet, sp source.Span) {
	if fs == nil || !sp.Known() || int(sp.File) >= fs.Len() {
		return
	}
	text, ok := sourceLine(fs.Get(sp.File), sp.Line)
	if !ok {
		return
	}
	num := strconv.FormatUint(uint64(sp.Line), 10)
	gutter := strings.Repeat(" ", len(num))
	fmt.Fprintf(w, " %s %s %s\n", gutterColor.Sprint(num), gutterColor.Sprint("|"), text)
	fmt.Fprintf(w, " %s %s %s%s\n", gutter, gutterColor.Sprint("|"), caretPad(text, sp.Col), errorColor.Sprint("^"))
}
