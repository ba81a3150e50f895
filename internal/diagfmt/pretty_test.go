package diagfmt_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fatih/color"

	"stateful/internal/diag"
	"stateful/internal/diagfmt"
	"stateful/internal/source"
)

func sample() (*source.FileSet, []diag.Diagnostic) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("prog.yaml", []byte("functions:\n  - name: f\n    body:\n\t- item: fn\n"))
	d := diag.NewError(diag.LowerItemDecl, source.Span{File: id, Line: 4, Col: 3}, "cannot handle item declarations").
		WithNote(source.Span{File: id, Line: 2, Col: 5}, "in function f")
	w := diag.New(diag.SevWarning, diag.LowerInfo, source.Span{File: id, Line: 1, Col: 1}, "nothing to lower")
	return fs, []diag.Diagnostic{d, w}
}

func TestPretty(t *testing.T) {
	color.NoColor = true
	fs, items := sample()
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, items, fs, diagfmt.PrettyOpts{ShowNotes: true, ShowPreview: true})
	want := "prog.yaml:4:3: ERROR LOW4001: cannot handle item declarations\n" +
		" 4 | \t- item: fn\n" +
		"   | \t ^\n" +
		"  note: prog.yaml:2:5: in function f\n" +
		"prog.yaml:1:1: WARNING LOW4000: nothing to lower\n" +
		" 1 | functions:\n" +
		"   | ^\n"
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPretty_Max(t *testing.T) {
	color.NoColor = true
	fs, items := sample()
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, items, fs, diagfmt.PrettyOpts{Max: 1})
	want := "prog.yaml:4:3: ERROR LOW4001: cannot handle item declarations\n... 1 more diagnostics\n"
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestJSON(t *testing.T) {
	fs, items := sample()
	var buf bytes.Buffer
	if err := diagfmt.JSON(&buf, items, fs, diagfmt.JSONOpts{Max: 1, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || len(out.Diagnostics) != 1 {
		t.Fatalf("count=%d len=%d", out.Count, len(out.Diagnostics))
	}
	d := out.Diagnostics[0]
	if d.Code != "LOW4001" || d.Severity != "ERROR" || d.Location.File != "prog.yaml" || d.Location.Line != 4 {
		t.Errorf("diagnostic = %+v", d)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location.Line != 2 {
		t.Errorf("notes = %+v", d.Notes)
	}
}
