package ast

// Constructors for hand-built programs. Nodes get no span.

func Int(v int64) *Expr {
	return &Expr{Kind: ExprLiteral, Data: &LiteralData{Kind: LiteralInt, IntValue: v}}
}

func Bool(v bool) *Expr {
	return &Expr{Kind: ExprLiteral, Data: &LiteralData{Kind: LiteralBool, BoolValue: v}}
}

func Str(v string) *Expr {
	return &Expr{Kind: ExprLiteral, Data: &LiteralData{Kind: LiteralString, StringValue: v}}
}

func Unit() *Expr {
	return &Expr{Kind: ExprLiteral, Data: &LiteralData{Kind: LiteralUnit}}
}

func Var(name string) *Expr {
	return &Expr{Kind: ExprVarRef, Data: &VarRefData{Name: name}}
}

func Unary(op UnaryOp, x *Expr) *Expr {
	return &Expr{Kind: ExprUnaryOp, Data: &UnaryOpData{Op: op, Operand: x}}
}

func Binary(op BinaryOp, l, r *Expr) *Expr {
	return &Expr{Kind: ExprBinaryOp, Data: &BinaryOpData{Op: op, Left: l, Right: r}}
}

func Call(callee string, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Data: &CallData{Callee: callee, Args: args}}
}

// Yield builds the default generator suspension marker call.
func Yield(v *Expr) *Expr { return Call(YieldMarker, v) }

// Await builds the default async suspension marker call.
func Await(v *Expr) *Expr { return Call(AwaitMarker, v) }

func Tuple(elems ...*Expr) *Expr {
	return &Expr{Kind: ExprTupleLit, Data: &TupleLitData{Elements: elems}}
}

func Assign(target string, v *Expr) *Expr {
	return &Expr{Kind: ExprAssign, Data: &AssignData{Target: target, Value: v}}
}

func Move(name string) *Expr {
	return &Expr{Kind: ExprMove, Data: &MoveData{Name: name}}
}

// If builds a conditional; els may be nil.
func If(cond *Expr, then, els *Block) *Expr {
	return &Expr{Kind: ExprIf, Data: &IfData{Cond: cond, Then: then, Else: els}}
}

func Loop(body *Block) *Expr {
	return &Expr{Kind: ExprLoop, Data: &LoopData{Body: body}}
}

func While(cond *Expr, body *Block) *Expr {
	return &Expr{Kind: ExprWhile, Data: &WhileData{Cond: cond, Body: body}}
}

func Match(v *Expr, arms ...MatchArm) *Expr {
	return &Expr{Kind: ExprMatch, Data: &MatchData{Value: v, Arms: arms}}
}

func Arm(p *Pattern, body *Block) MatchArm {
	return MatchArm{Pattern: p, Body: body}
}

func BlockExpr(b *Block) *Expr {
	return &Expr{Kind: ExprBlock, Data: &BlockData{Block: b}}
}

func Break() *Expr { return &Expr{Kind: ExprBreak, Data: &BreakData{}} }

func Continue() *Expr { return &Expr{Kind: ExprContinue, Data: &ContinueData{}} }

// Return builds `return v`; a nil v is a bare return.
func Return(v *Expr) *Expr {
	return &Expr{Kind: ExprReturn, Data: &ReturnData{Value: v}}
}

// Body builds a block without a tail expression.
func Body(stmts ...*Stmt) *Block {
	return &Block{Stmts: stmts}
}

// Do wraps an expression as a statement.
func Do(e *Expr) *Stmt {
	return &Stmt{Kind: StmtExpr, Data: &ExprStmtData{Expr: e}}
}

// Let builds `let p = v;`. A nil v declares without initializing.
func Let(p *Pattern, v *Expr) *Stmt {
	return &Stmt{Kind: StmtLet, Data: &LetData{Pattern: p, Value: v}}
}

// LetName builds `let name = v;`.
func LetName(name string, v *Expr) *Stmt { return Let(Bind(name), v) }

// LetMut builds `let mut name = v;`.
func LetMut(name string, v *Expr) *Stmt { return Let(BindMut(name), v) }

func Item(kind, name string) *Stmt {
	return &Stmt{Kind: StmtItem, Data: &ItemData{Kind: kind, Name: name}}
}

func Bind(name string) *Pattern { return &Pattern{Kind: PatBinding, Name: name} }

func BindMut(name string) *Pattern { return &Pattern{Kind: PatBinding, Name: name, Mut: true} }

func Wild() *Pattern { return &Pattern{Kind: PatWildcard} }

func PatInt(v int64) *Pattern {
	return &Pattern{Kind: PatLiteral, Lit: LiteralData{Kind: LiteralInt, IntValue: v}}
}

func PatBool(v bool) *Pattern {
	return &Pattern{Kind: PatLiteral, Lit: LiteralData{Kind: LiteralBool, BoolValue: v}}
}

func PatTupleOf(elems ...*Pattern) *Pattern { return &Pattern{Kind: PatTuple, Elems: elems} }

// Generator builds a generator function.
func Generator(name string, params []Param, body *Block) *Func {
	return &Func{Name: name, Kind: FuncGenerator, Params: params, Body: body}
}

// Async builds an async function.
func Async(name string, params []Param, body *Block) *Func {
	return &Func{Name: name, Kind: FuncAsync, Params: params, Body: body}
}

// Params builds immutable parameters from names.
func Params(names ...string) []Param {
	out := make([]Param, len(names))
	for i, n := range names {
		out[i] = Param{Name: n}
	}
	return out
}
