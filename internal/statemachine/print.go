package statemachine

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"stateful/internal/ast"
	"stateful/internal/mir"
)

// Dump writes the state enumeration and the handlers of m. f supplies the
// local table for statement rendering.
func Dump(w io.Writer, f *mir.Func, m *Machine) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "machine %s [%s] start=%s\n", m.Name, m.Discipline.Name(), m.stateName(StateExpr{State: m.Start, Resume: NoResume}))

	if len(m.Params) > 0 {
		sb.WriteString("  params:")
		for _, p := range m.Params {
			fmt.Fprintf(&sb, " %s=L%d", p.Name, p.Local)
			if p.Type != "" {
				fmt.Fprintf(&sb, ":%s", p.Type)
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("  states:\n")
	width := 0
	for _, v := range m.Variants {
		width = max(width, runewidth.StringWidth(v.Name))
	}
	for _, v := range m.Variants {
		fmt.Fprintf(&sb, "    %s", runewidth.FillRight(v.Name, width))
		if len(v.Params) > 0 {
			fmt.Fprintf(&sb, " <%s>", strings.Join(v.Params, ", "))
		}
		sb.WriteString(formatFields(v.Fields))
		sb.WriteString("\n")
	}

	if r := m.Resume; r != nil {
		sb.WriteString("  resume:")
		for _, p := range r.Params {
			fmt.Fprintf(&sb, " %s", p.Name)
		}
		sb.WriteString("\n")
		rw := 0
		for _, v := range r.Variants {
			rw = max(rw, runewidth.StringWidth(v.Name))
		}
		for _, v := range r.Variants {
			fmt.Fprintf(&sb, "    %s", runewidth.FillRight(v.Name, rw))
			if len(v.Params) > 0 {
				fmt.Fprintf(&sb, " <%s>", strings.Join(v.Params, ", "))
			}
			fmt.Fprintf(&sb, " -> %s + %s%s\n", m.Variants[v.Internal].Name, ResumeArgField, formatFields(v.Fields))
		}
	}

	sb.WriteString("  handlers:\n")
	for _, h := range m.Handlers {
		fmt.Fprintf(&sb, "    %s:\n", m.Variants[h.State].Name)
		for i := range h.Stmts {
			fmt.Fprintf(&sb, "      %s\n", mir.FormatStmt(f, &h.Stmts[i]))
		}
		fmt.Fprintf(&sb, "      %s\n", m.formatTransition(&h.Transition))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func formatFields(fields []ScopeField) string {
	var sb strings.Builder
	for _, f := range fields {
		sb.WriteString(" {")
		for i, c := range f.Captures {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(" ")
			if c.Mut {
				sb.WriteString("mut ")
			}
			fmt.Fprintf(&sb, "%s: %s", c.Name, c.Param)
		}
		if len(f.Captures) > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("}")
	}
	return sb.String()
}

func (m *Machine) stateName(e StateExpr) string {
	if m.Resume != nil && e.Resume != NoResume {
		if v := m.Resume.Variant(e.Resume); v != nil {
			return v.Name
		}
	}
	if v := m.Variant(e.State); v != nil {
		return v.Name
	}
	return fmt.Sprintf("<state %d>", e.State)
}

func (m *Machine) formatTransition(t *Transition) string {
	switch t.Kind {
	case TransGoto:
		return "goto " + m.stateName(t.Next)
	case TransIf:
		return fmt.Sprintf("if %s then %s else %s", ast.FormatExpr(t.Cond), m.stateName(t.Then), m.stateName(t.Else))
	case TransMatch:
		parts := make([]string, 0, len(t.Arms))
		for _, arm := range t.Arms {
			parts = append(parts, fmt.Sprintf("%s => %s", ast.FormatPattern(arm.Pattern), m.stateName(arm.Next)))
		}
		return fmt.Sprintf("match %s { %s }", ast.FormatExpr(t.Value), strings.Join(parts, ", "))
	case TransSuspend:
		return fmt.Sprintf("%s(%s), %s", t.Output, ast.FormatExpr(t.Value), m.stateName(t.Next))
	case TransReturn:
		return fmt.Sprintf("%s(%s), %s", t.Output, ast.ReturnSlotName, m.stateName(t.Next))
	}
	return "<" + t.Kind.String() + ">"
}
