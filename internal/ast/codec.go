package ast

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"stateful/internal/source"
)

// exprWire is the flat msgpack form of Expr. Kind decides which fields carry
// meaning, mirroring how the payload interface is switched on in memory.
type exprWire struct {
	Kind   ExprKind
	Span   source.Span
	Lit    *LiteralData `msgpack:",omitempty"`
	Name   string       `msgpack:",omitempty"`
	Op     uint8        `msgpack:",omitempty"`
	Args   []*Expr      `msgpack:",omitempty"`
	Blocks []*Block     `msgpack:",omitempty"`
	Arms   []MatchArm   `msgpack:",omitempty"`
}

type stmtWire struct {
	Kind StmtKind
	Span source.Span
	Let  *LetData  `msgpack:",omitempty"`
	Expr *Expr     `msgpack:",omitempty"`
	Item *ItemData `msgpack:",omitempty"`
}

var (
	_ msgpack.CustomEncoder = (*Expr)(nil)
	_ msgpack.CustomDecoder = (*Expr)(nil)
	_ msgpack.CustomEncoder = (*Stmt)(nil)
	_ msgpack.CustomDecoder = (*Stmt)(nil)
)

func (e *Expr) EncodeMsgpack(enc *msgpack.Encoder) error {
	w := exprWire{Kind: e.Kind, Span: e.Span}
	switch d := e.Data.(type) {
	case *LiteralData:
		w.Lit = d
	case *VarRefData:
		w.Name = d.Name
	case *UnaryOpData:
		w.Op = uint8(d.Op)
		w.Args = []*Expr{d.Operand}
	case *BinaryOpData:
		w.Op = uint8(d.Op)
		w.Args = []*Expr{d.Left, d.Right}
	case *CallData:
		w.Name = d.Callee
		w.Args = d.Args
	case *TupleLitData:
		w.Args = d.Elements
	case *AssignData:
		w.Name = d.Target
		w.Args = []*Expr{d.Value}
	case *MoveData:
		w.Name = d.Name
	case *IfData:
		w.Args = []*Expr{d.Cond}
		w.Blocks = []*Block{d.Then, d.Else}
	case *LoopData:
		w.Blocks = []*Block{d.Body}
	case *WhileData:
		w.Args = []*Expr{d.Cond}
		w.Blocks = []*Block{d.Body}
	case *MatchData:
		w.Args = []*Expr{d.Value}
		w.Arms = d.Arms
	case *BlockData:
		w.Blocks = []*Block{d.Block}
	case *BreakData, *ContinueData:
	case *ReturnData:
		w.Args = []*Expr{d.Value}
	default:
		return fmt.Errorf("ast: cannot encode %s expression with %T payload", e.Kind, e.Data)
	}
	return enc.Encode(&w)
}

func (e *Expr) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w exprWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	arg := func(i int) *Expr {
		if i < len(w.Args) {
			return w.Args[i]
		}
		return nil
	}
	block := func(i int) *Block {
		if i < len(w.Blocks) {
			return w.Blocks[i]
		}
		return nil
	}
	e.Kind, e.Span = w.Kind, w.Span
	switch w.Kind {
	case ExprLiteral:
		if w.Lit == nil {
			w.Lit = &LiteralData{Kind: LiteralUnit}
		}
		e.Data = w.Lit
	case ExprVarRef:
		e.Data = &VarRefData{Name: w.Name}
	case ExprUnaryOp:
		e.Data = &UnaryOpData{Op: UnaryOp(w.Op), Operand: arg(0)}
	case ExprBinaryOp:
		e.Data = &BinaryOpData{Op: BinaryOp(w.Op), Left: arg(0), Right: arg(1)}
	case ExprCall:
		e.Data = &CallData{Callee: w.Name, Args: w.Args}
	case ExprTupleLit:
		e.Data = &TupleLitData{Elements: w.Args}
	case ExprAssign:
		e.Data = &AssignData{Target: w.Name, Value: arg(0)}
	case ExprMove:
		e.Data = &MoveData{Name: w.Name}
	case ExprIf:
		e.Data = &IfData{Cond: arg(0), Then: block(0), Else: block(1)}
	case ExprLoop:
		e.Data = &LoopData{Body: block(0)}
	case ExprWhile:
		e.Data = &WhileData{Cond: arg(0), Body: block(0)}
	case ExprMatch:
		e.Data = &MatchData{Value: arg(0), Arms: w.Arms}
	case ExprBlock:
		e.Data = &BlockData{Block: block(0)}
	case ExprBreak:
		e.Data = &BreakData{}
	case ExprContinue:
		e.Data = &ContinueData{}
	case ExprReturn:
		e.Data = &ReturnData{Value: arg(0)}
	default:
		return fmt.Errorf("ast: cannot decode expression kind %d", w.Kind)
	}
	return nil
}

func (s *Stmt) EncodeMsgpack(enc *msgpack.Encoder) error {
	w := stmtWire{Kind: s.Kind, Span: s.Span}
	switch d := s.Data.(type) {
	case *LetData:
		w.Let = d
	case *ExprStmtData:
		w.Expr = d.Expr
	case *ItemData:
		w.Item = d
	default:
		return fmt.Errorf("ast: cannot encode %s statement with %T payload", s.Kind, s.Data)
	}
	return enc.Encode(&w)
}

func (s *Stmt) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w stmtWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	s.Kind, s.Span = w.Kind, w.Span
	switch w.Kind {
	case StmtLet:
		if w.Let == nil {
			return fmt.Errorf("ast: let statement without payload")
		}
		s.Data = w.Let
	case StmtExpr:
		s.Data = &ExprStmtData{Expr: w.Expr}
	case StmtItem:
		if w.Item == nil {
			w.Item = &ItemData{}
		}
		s.Data = w.Item
	default:
		return fmt.Errorf("ast: cannot decode statement kind %d", w.Kind)
	}
	return nil
}
