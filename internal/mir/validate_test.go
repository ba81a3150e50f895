package mir_test

import (
	"strings"
	"testing"

	"stateful/internal/ast"
	"stateful/internal/mir"
)

func TestValidate_Constructed(t *testing.T) {
	for _, fn := range []*ast.Func{sampleFunc(), nestedFunc()} {
		f := construct(t, fn)
		if err := mir.Validate(f); err != nil {
			t.Errorf("%s: %v", fn.Name, err)
		}
	}
}

func TestValidate_Broken(t *testing.T) {
	f := &mir.Func{
		Name:        "broken",
		ReturnBlock: 1,
		Locals:      []mir.Local{{Name: "return_", Kind: mir.LocalReturn, Shadowed: mir.NoLocalID}},
		Blocks: []mir.Block{
			{ID: 0, Term: mir.Terminator{Kind: mir.TermGoto, Goto: mir.GotoTerm{Target: 7}}},
			{ID: 1, Stmts: []mir.Stmt{{Kind: mir.StmtDrop, Drop: mir.DropStmt{Local: 4}}}},
		},
	}
	err := mir.Validate(f)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{
		"bb0: invalid target bb7",
		"bb1: unterminated block",
		"drop of unknown local L4",
		"0 return blocks",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}

func TestReachable_Predecessors(t *testing.T) {
	f := construct(t, sampleFunc())
	preds := mir.Predecessors(f)
	reach := mir.Reachable(f)
	for bb, ok := range reach {
		if bb == int(mir.StartBlock) || !ok {
			continue
		}
		if len(preds[bb]) == 0 {
			t.Errorf("reachable bb%d has no predecessors", bb)
		}
	}
	if got := mir.ReachableBlocks(f); got[0] != mir.StartBlock {
		t.Errorf("reachable blocks start with bb%d", got[0])
	}
}
