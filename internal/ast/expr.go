package ast

import (
	"stateful/internal/source"
)

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	// ExprLiteral represents literals (int, bool, string, unit).
	ExprLiteral ExprKind = iota
	// ExprVarRef represents a variable reference.
	ExprVarRef
	// ExprUnaryOp represents unary operators (-, !).
	ExprUnaryOp
	// ExprBinaryOp represents binary operators (+, -, *, /, ==, etc.).
	ExprBinaryOp
	// ExprCall represents a call of a named function, including suspension markers.
	ExprCall
	// ExprTupleLit represents tuple literals ((a, b, c)).
	ExprTupleLit
	// ExprAssign represents `name = value`.
	ExprAssign
	// ExprMove represents an explicit `move name`.
	ExprMove
	// ExprIf represents `if cond { } else { }`.
	ExprIf
	// ExprLoop represents `loop { }`.
	ExprLoop
	// ExprWhile represents `while cond { }`.
	ExprWhile
	// ExprMatch represents `match value { pat => { } ... }`.
	ExprMatch
	// ExprBlock represents a nested block expression { ... }.
	ExprBlock
	// ExprBreak leaves the innermost loop.
	ExprBreak
	// ExprContinue restarts the innermost loop.
	ExprContinue
	// ExprReturn represents `return [value]`.
	ExprReturn
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVarRef:
		return "VarRef"
	case ExprUnaryOp:
		return "UnaryOp"
	case ExprBinaryOp:
		return "BinaryOp"
	case ExprCall:
		return "Call"
	case ExprTupleLit:
		return "TupleLit"
	case ExprAssign:
		return "Assign"
	case ExprMove:
		return "Move"
	case ExprIf:
		return "If"
	case ExprLoop:
		return "Loop"
	case ExprWhile:
		return "While"
	case ExprMatch:
		return "Match"
	case ExprBlock:
		return "Block"
	case ExprBreak:
		return "Break"
	case ExprContinue:
		return "Continue"
	case ExprReturn:
		return "Return"
	default:
		return "Unknown"
	}
}

// Expr is an expression node.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Data ExprData
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// LiteralKind enumerates literal value kinds.
type LiteralKind uint8

const (
	LiteralInt LiteralKind = iota
	LiteralBool
	LiteralString
	LiteralUnit
)

// LiteralData holds data for ExprLiteral.
type LiteralData struct {
	Kind        LiteralKind
	IntValue    int64
	BoolValue   bool
	StringValue string
}

func (*LiteralData) exprData() {}

// VarRefData holds data for ExprVarRef.
type VarRefData struct {
	Name string
}

func (*VarRefData) exprData() {}

// UnaryOp is a unary operator.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
)

func (op UnaryOp) String() string {
	if op == UnaryNot {
		return "!"
	}
	return "-"
}

// UnaryOpData holds data for ExprUnaryOp.
type UnaryOpData struct {
	Op      UnaryOp
	Operand *Expr
}

func (*UnaryOpData) exprData() {}

// BinaryOp is a binary operator.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
)

var binaryOpText = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinRem: "%",
	BinEq: "==", BinNe: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
	BinAnd: "&&", BinOr: "||",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// ParseBinaryOp maps operator text to BinaryOp.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	for i, text := range binaryOpText {
		if text == s {
			return BinaryOp(i), true
		}
	}
	return 0, false
}

// BinaryOpData holds data for ExprBinaryOp.
type BinaryOpData struct {
	Op    BinaryOp
	Left  *Expr
	Right *Expr
}

func (*BinaryOpData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Callee string
	Args   []*Expr
}

func (*CallData) exprData() {}

// TupleLitData holds data for ExprTupleLit.
type TupleLitData struct {
	Elements []*Expr
}

func (*TupleLitData) exprData() {}

// AssignData holds data for ExprAssign.
type AssignData struct {
	Target string
	Value  *Expr
}

func (*AssignData) exprData() {}

// MoveData holds data for ExprMove.
type MoveData struct {
	Name string
}

func (*MoveData) exprData() {}

// IfData holds data for ExprIf. Else may be nil.
type IfData struct {
	Cond *Expr
	Then *Block
	Else *Block
}

func (*IfData) exprData() {}

// LoopData holds data for ExprLoop.
type LoopData struct {
	Body *Block
}

func (*LoopData) exprData() {}

// WhileData holds data for ExprWhile.
type WhileData struct {
	Cond *Expr
	Body *Block
}

func (*WhileData) exprData() {}

// MatchArm is one `pattern => { body }` arm.
type MatchArm struct {
	Pattern *Pattern
	Body    *Block
	Span    source.Span
}

// MatchData holds data for ExprMatch.
type MatchData struct {
	Value *Expr
	Arms  []MatchArm
}

func (*MatchData) exprData() {}

// BlockData holds data for ExprBlock.
type BlockData struct {
	Block *Block
}

func (*BlockData) exprData() {}

// BreakData holds data for ExprBreak.
type BreakData struct{}

func (*BreakData) exprData() {}

// ContinueData holds data for ExprContinue.
type ContinueData struct{}

func (*ContinueData) exprData() {}

// ReturnData holds data for ExprReturn. Value is nil for a bare `return`.
type ReturnData struct {
	Value *Expr
}

func (*ReturnData) exprData() {}
