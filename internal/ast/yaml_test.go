package ast_test

import (
	"strings"
	"testing"

	"stateful/internal/ast"
	"stateful/internal/diag"
)

const counterDoc = `
functions:
  - name: counter
    kind: generator
    params: [n, {name: step, mut: true}]
    body:
      - let: i
        mut: true
        value: 0
      - while: {"<": [i, n]}
        do:
          - yield: i
          - assign: i
            value: {"+": [i, step]}
      - return: {str: "done"}
  - name: fetch
    kind: async
    params: [url]
    body:
      - let: resp
        value: {await: {call: get, args: [url]}}
      - match: resp
        arms:
          - pat: [code, _]
            do:
              - return: code
      - return: -1
`

func TestDecodeYAML_Program(t *testing.T) {
	bag := diag.NewBag(16)
	prog, err := ast.DecodeYAML(0, []byte(counterDoc), diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(prog.Funcs) != 2 {
		t.Fatalf("got %d functions, want 2", len(prog.Funcs))
	}

	counter, ok := prog.Lookup("counter")
	if !ok {
		t.Fatal("counter not found")
	}
	if counter.Kind != ast.FuncGenerator || len(counter.Params) != 2 || !counter.Params[1].Mut {
		t.Errorf("counter header = %+v", counter)
	}
	got := make([]string, 0, len(counter.Body.Stmts))
	for _, s := range counter.Body.Stmts {
		got = append(got, ast.FormatStmt(s))
	}
	want := []string{
		"let mut i = 0",
		"while i < n { yield_(i); i = i + step; }",
		`return "done"`,
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("counter body:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	if sp := counter.Body.Stmts[0].Span; sp.Line != 7 {
		t.Errorf("let span = %v, want line 7", sp)
	}

	fetch, _ := prog.Lookup("fetch")
	if fetch.Kind != ast.FuncAsync {
		t.Errorf("fetch kind = %v", fetch.Kind)
	}
	if got := ast.FormatStmt(fetch.Body.Stmts[1]); got != "match resp { (code, _) => { return code; } }" {
		t.Errorf("match = %q", got)
	}
}

func TestDecodeYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code diag.Code
	}{
		{
			name: "unknown expression",
			doc:  "functions:\n  - name: f\n    body:\n      - frobnicate: 1\n",
			code: diag.LoadUnknownKind,
		},
		{
			name: "reserved return slot",
			doc:  "functions:\n  - name: f\n    body:\n      - let: return_\n        value: 1\n",
			code: diag.LoadBadIdentifier,
		},
		{
			name: "shadow alias collision",
			doc:  "functions:\n  - name: f\n    body:\n      - let: x_shadowed_1\n        value: 1\n",
			code: diag.LoadBadIdentifier,
		},
		{
			name: "missing name",
			doc:  "functions:\n  - body: []\n",
			code: diag.LoadMissingField,
		},
		{
			name: "bad kind",
			doc:  "functions:\n  - name: f\n    kind: thread\n",
			code: diag.LoadUnknownKind,
		},
		{
			name: "tail not last",
			doc:  "functions:\n  - name: f\n    body:\n      - tail: 1\n      - yield: 2\n",
			code: diag.LoadSyntax,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bag := diag.NewBag(8)
			prog, err := ast.DecodeYAML(0, []byte(tt.doc), diag.BagReporter{Bag: bag})
			if err != nil {
				t.Fatalf("DecodeYAML: %v", err)
			}
			if len(prog.Funcs) != 0 {
				t.Errorf("broken function was kept")
			}
			found := false
			for _, d := range bag.Items() {
				if d.Code == tt.code {
					found = true
				}
			}
			if !found {
				t.Errorf("want %s, got %+v", tt.code.ID(), bag.Items())
			}
		})
	}
}

func TestDecodeYAML_DuplicateKeepsFirst(t *testing.T) {
	doc := "functions:\n  - name: f\n    body: [{return: 1}]\n  - name: f\n    body: [{return: 2}]\n"
	bag := diag.NewBag(4)
	prog, err := ast.DecodeYAML(0, []byte(doc), diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatal(err)
	}
	if len(prog.Funcs) != 1 || bag.Len() != 1 || bag.Items()[0].Code != diag.LoadDuplicateFunc {
		t.Errorf("funcs=%d diags=%+v", len(prog.Funcs), bag.Items())
	}
}

func TestDecodeYAML_NotYAML(t *testing.T) {
	if _, err := ast.DecodeYAML(0, []byte("functions: [\n"), nil); err == nil {
		t.Error("expected a decode error")
	}
}

func TestDecodeYAML_NormalizesIdentifiers(t *testing.T) {
	// e followed by a combining acute accent
	doc := "functions:\n  - name: f\n    body:\n      - let: \"cafe\u0301\"\n        value: 1\n      - yield: \"cafe\u0301\"\n      - return: 0\n"
	prog, err := ast.DecodeYAML(0, []byte(doc), nil)
	if err != nil || len(prog.Funcs) != 1 {
		t.Fatalf("prog=%v err=%v", prog, err)
	}
	let := prog.Funcs[0].Body.Stmts[0].Let()
	if let.Pattern.Name != "caf\u00e9" {
		t.Errorf("name = %q, want NFC form", let.Pattern.Name)
	}
}
