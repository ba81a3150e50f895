package ast

import (
	"strconv"
	"strings"
)

// FormatExpr renders e on one line. Nested blocks are rendered inline.
func FormatExpr(e *Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

// FormatPattern renders p.
func FormatPattern(p *Pattern) string {
	var sb strings.Builder
	writePattern(&sb, p)
	return sb.String()
}

// FormatStmt renders s without the trailing semicolon.
func FormatStmt(s *Stmt) string {
	var sb strings.Builder
	writeStmt(&sb, s)
	return sb.String()
}

// FormatLiteral renders a literal value.
func FormatLiteral(l *LiteralData) string {
	switch l.Kind {
	case LiteralInt:
		return strconv.FormatInt(l.IntValue, 10)
	case LiteralBool:
		return strconv.FormatBool(l.BoolValue)
	case LiteralString:
		return strconv.Quote(l.StringValue)
	default:
		return "()"
	}
}

func writeStmt(sb *strings.Builder, s *Stmt) {
	switch d := s.Data.(type) {
	case *LetData:
		sb.WriteString("let ")
		writePattern(sb, d.Pattern)
		if d.Type != "" {
			sb.WriteString(": ")
			sb.WriteString(d.Type)
		}
		if d.Value != nil {
			sb.WriteString(" = ")
			writeExpr(sb, d.Value)
		}
	case *ExprStmtData:
		writeExpr(sb, d.Expr)
	case *ItemData:
		sb.WriteString(d.Kind)
		sb.WriteString(" ")
		sb.WriteString(d.Name)
		sb.WriteString(" { .. }")
	}
}

func writeBlock(sb *strings.Builder, b *Block) {
	sb.WriteString("{")
	if b != nil {
		for _, s := range b.Stmts {
			sb.WriteString(" ")
			writeStmt(sb, s)
			sb.WriteString(";")
		}
		if b.Tail != nil {
			sb.WriteString(" ")
			writeExpr(sb, b.Tail)
		}
	}
	sb.WriteString(" }")
}

func writeExprs(sb *strings.Builder, es []*Expr) {
	for i, e := range es {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeExpr(sb, e)
	}
}

func writeExpr(sb *strings.Builder, e *Expr) {
	if e == nil {
		sb.WriteString("<nil>")
		return
	}
	switch d := e.Data.(type) {
	case *LiteralData:
		sb.WriteString(FormatLiteral(d))
	case *VarRefData:
		sb.WriteString(d.Name)
	case *UnaryOpData:
		sb.WriteString(d.Op.String())
		writeOperand(sb, d.Operand)
	case *BinaryOpData:
		writeOperand(sb, d.Left)
		sb.WriteString(" ")
		sb.WriteString(d.Op.String())
		sb.WriteString(" ")
		writeOperand(sb, d.Right)
	case *CallData:
		sb.WriteString(d.Callee)
		sb.WriteString("(")
		writeExprs(sb, d.Args)
		sb.WriteString(")")
	case *TupleLitData:
		sb.WriteString("(")
		writeExprs(sb, d.Elements)
		if len(d.Elements) == 1 {
			sb.WriteString(",")
		}
		sb.WriteString(")")
	case *AssignData:
		sb.WriteString(d.Target)
		sb.WriteString(" = ")
		writeExpr(sb, d.Value)
	case *MoveData:
		sb.WriteString("move ")
		sb.WriteString(d.Name)
	case *IfData:
		sb.WriteString("if ")
		writeExpr(sb, d.Cond)
		sb.WriteString(" ")
		writeBlock(sb, d.Then)
		if d.Else != nil {
			sb.WriteString(" else ")
			writeBlock(sb, d.Else)
		}
	case *LoopData:
		sb.WriteString("loop ")
		writeBlock(sb, d.Body)
	case *WhileData:
		sb.WriteString("while ")
		writeExpr(sb, d.Cond)
		sb.WriteString(" ")
		writeBlock(sb, d.Body)
	case *MatchData:
		sb.WriteString("match ")
		writeExpr(sb, d.Value)
		sb.WriteString(" {")
		for _, arm := range d.Arms {
			sb.WriteString(" ")
			writePattern(sb, arm.Pattern)
			sb.WriteString(" => ")
			writeBlock(sb, arm.Body)
		}
		sb.WriteString(" }")
	case *BlockData:
		writeBlock(sb, d.Block)
	case *BreakData:
		sb.WriteString("break")
	case *ContinueData:
		sb.WriteString("continue")
	case *ReturnData:
		sb.WriteString("return")
		if d.Value != nil {
			sb.WriteString(" ")
			writeExpr(sb, d.Value)
		}
	default:
		sb.WriteString("<" + e.Kind.String() + ">")
	}
}

// writeOperand parenthesizes compound operands.
func writeOperand(sb *strings.Builder, e *Expr) {
	if e != nil && (e.Kind == ExprBinaryOp || e.Kind == ExprAssign) {
		sb.WriteString("(")
		writeExpr(sb, e)
		sb.WriteString(")")
		return
	}
	writeExpr(sb, e)
}

func writePattern(sb *strings.Builder, p *Pattern) {
	if p == nil {
		sb.WriteString("_")
		return
	}
	switch p.Kind {
	case PatBinding:
		if p.Mut {
			sb.WriteString("mut ")
		}
		sb.WriteString(p.Name)
	case PatWildcard:
		sb.WriteString("_")
	case PatLiteral:
		sb.WriteString(FormatLiteral(&p.Lit))
	case PatTuple:
		sb.WriteString("(")
		for i, el := range p.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			writePattern(sb, el)
		}
		sb.WriteString(")")
	}
}
