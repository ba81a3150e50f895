package mir

import (
	"fmt"
	"io"
	"strings"

	"stateful/internal/ast"
)

// DumpOptions selects the rendering of Dump.
type DumpOptions struct {
	// Nested groups statements by visibility scope.
	Nested bool
	// Live prints the liveness snapshot of each block.
	Live bool
}

// Dump writes a human-readable rendering of f.
func Dump(w io.Writer, f *Func, opts DumpOptions) error {
	if f == nil {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s(", f.Name)
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Locals[p].Name)
	}
	fmt.Fprintf(&sb, ") [%s]:\n", f.Kind)

	sb.WriteString("  locals:\n")
	for i, l := range f.Locals {
		fmt.Fprintf(&sb, "    L%d: %s", i, l.Name)
		if l.Mut {
			sb.WriteString(" mut")
		}
		fmt.Fprintf(&sb, " %s", l.Kind)
		if l.Type != "" {
			fmt.Fprintf(&sb, " : %s", l.Type)
		}
		if l.Shadowed != NoLocalID {
			fmt.Fprintf(&sb, " shadows L%d", l.Shadowed)
		}
		sb.WriteString("\n")
	}

	reachable := Reachable(f)
	for i := range f.Blocks {
		blk := &f.Blocks[i]
		fmt.Fprintf(&sb, "\n  bb%d: %s", i, blk.Name)
		if !reachable[i] {
			sb.WriteString(" (unreachable)")
		}
		sb.WriteString("\n")
		if opts.Live {
			fmt.Fprintf(&sb, "    live %s\n", FormatLive(blk.Decls))
		}
		if opts.Nested {
			writeScopeNode(&sb, f, blk, BuildScopeTree(f, blk.ID), 2)
			continue
		}
		for j := range blk.Stmts {
			fmt.Fprintf(&sb, "    %s\n", FormatStmt(f, &blk.Stmts[j]))
		}
		fmt.Fprintf(&sb, "    %s\n", FormatTerm(&blk.Term))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeScopeNode(sb *strings.Builder, f *Func, blk *Block, n *ScopeNode, depth int) {
	pad := strings.Repeat("  ", depth)
	for _, it := range n.Items {
		switch {
		case it.Child != nil:
			fmt.Fprintf(sb, "%sscope S%d {\n", pad, it.Child.Scope)
			writeScopeNode(sb, f, blk, it.Child, depth+1)
			fmt.Fprintf(sb, "%s}\n", pad)
		case it.Term:
			fmt.Fprintf(sb, "%s%s\n", pad, FormatTerm(&blk.Term))
		default:
			fmt.Fprintf(sb, "%s%s\n", pad, FormatStmt(f, &blk.Stmts[it.Stmt]))
		}
	}
}

// FormatStmt renders one statement.
func FormatStmt(f *Func, st *Stmt) string {
	switch st.Kind {
	case StmtExpr:
		return ast.FormatExpr(st.Expr)
	case StmtLet:
		var sb strings.Builder
		sb.WriteString("let ")
		sb.WriteString(ast.FormatPattern(st.Let.Pattern))
		if st.Let.Type != "" {
			sb.WriteString(": ")
			sb.WriteString(st.Let.Type)
		}
		if st.Let.Value != nil {
			sb.WriteString(" = ")
			sb.WriteString(ast.FormatExpr(st.Let.Value))
		}
		return sb.String()
	case StmtDrop:
		d := st.Drop
		rebind := ""
		if d.Alias != nil {
			rebind = fmt.Sprintf("%s = %s", d.Name, d.Alias.Name)
		}
		if d.Moved {
			return rebind
		}
		if rebind != "" {
			return fmt.Sprintf("drop %s; %s", d.Name, rebind)
		}
		return "drop " + d.Name
	}
	return fmt.Sprintf("<%s>", st.Kind)
}

// FormatTerm renders a terminator.
func FormatTerm(t *Terminator) string {
	switch t.Kind {
	case TermGoto:
		return fmt.Sprintf("goto bb%d", t.Goto.Target)
	case TermIf:
		return fmt.Sprintf("if %s then bb%d else bb%d", ast.FormatExpr(t.If.Cond), t.If.Then, t.If.Else)
	case TermMatch:
		var sb strings.Builder
		fmt.Fprintf(&sb, "match %s {", ast.FormatExpr(t.Match.Value))
		for i, arm := range t.Match.Arms {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, " %s => bb%d", ast.FormatPattern(arm.Pattern), arm.Target)
		}
		sb.WriteString(" }")
		return sb.String()
	case TermSuspend:
		return fmt.Sprintf("%s %s -> bb%d", t.Suspend.Kind, ast.FormatExpr(t.Suspend.Value), t.Suspend.Target)
	case TermReturn:
		return "return"
	default:
		return "<no terminator>"
	}
}

// FormatLive renders a liveness snapshot, e.g. [{fwd L0, L1}, {moved L2}].
func FormatLive(m LiveDeclMap) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, sc := range m {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, d := range sc.Decls {
			if j > 0 {
				sb.WriteString(", ")
			}
			switch d.Kind {
			case LiveMoved:
				sb.WriteString("moved ")
			case LiveForward:
				sb.WriteString("fwd ")
			}
			fmt.Fprintf(&sb, "L%d", d.Local)
		}
		sb.WriteString("}")
	}
	sb.WriteString("]")
	return sb.String()
}
