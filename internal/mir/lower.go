package mir

import (
	"context"
	"fmt"
	"strconv"

	"fortio.org/safecast"

	"stateful/internal/ast"
	"stateful/internal/diag"
	"stateful/internal/source"
	"stateful/internal/trace"
)

// Options tunes construction.
type Options struct {
	// Classifier recognizes suspension points. Nil means ast.DefaultMarkers.
	Classifier ast.Classifier
}

type loopScope struct {
	breakTo    BlockID
	continueTo BlockID
	depth      int

	breaks    []scopeStack
	continues []scopeStack
}

type builder struct {
	cls    ast.Classifier
	tracer trace.Tracer
	span   uint64

	f      *Func
	scopes scopeStack
	loops  []*loopScope

	// dead marks continuation blocks opened after an early exit.
	dead     map[BlockID]bool
	assigned map[LocalID]bool
	returns  []scopeStack
}

// Construct lowers fn into a block graph with liveness snapshots.
//
// Unsupported input yields *UnsupportedError. A broken post-build invariant
// yields *InvariantError; ErrUninitialized is reachable through errors.Is.
func Construct(ctx context.Context, fn *ast.Func, opts Options) (f *Func, err error) {
	if fn == nil || fn.Body == nil {
		return nil, fmt.Errorf("mir: construct: missing function body")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cls := opts.Classifier
	if cls == nil {
		cls = ast.DefaultMarkers
	}
	tracer := trace.FromContext(ctx)
	sp := trace.Begin(tracer, trace.ScopePass, "construct:"+fn.Name, trace.CurrentSpan(ctx).SpanID)
	defer func() {
		if f != nil {
			sp.WithExtra("blocks", strconv.Itoa(len(f.Blocks)))
		}
		sp.End("")
	}()

	b := &builder{
		cls:    cls,
		tracer: tracer,
		span:   sp.ID(),
		f: &Func{
			Name:        fn.Name,
			Kind:        fn.Kind,
			Result:      fn.Result,
			Span:        fn.Span,
			ReturnBlock: NoBlockID,
		},
		dead:     make(map[BlockID]bool),
		assigned: make(map[LocalID]bool),
	}
	if err := b.lowerFunc(fn); err != nil {
		return nil, err
	}
	if err := b.finish(); err != nil {
		return nil, err
	}
	return b.f, nil
}

// lowerFunc emits the prologue, the body and the shared return block.
func (b *builder) lowerFunc(fn *ast.Func) error {
	fnExtent := b.pushScope(ExtentFunction, fn.Span)
	b.declareBinding(ast.ReturnSlotName, true, LocalReturn, fn.Result, fn.Span, LiveForward)
	for _, p := range fn.Params {
		if _, _, dup := b.resolveName(p.Name); dup {
			return unsupported(diag.LowerUnsupportedPat, p.Span, "duplicate parameter %q", p.Name)
		}
		id := b.declareBinding(p.Name, p.Mut, LocalArg, p.Type, p.Span, LiveActive)
		b.scheduleDrop(fnExtent, id, nil)
		b.f.Params = append(b.f.Params, id)
	}

	start := b.newBlock("Start", fn.Span)
	end, err := b.lowerBlock(start, fn.Body, ExtentBlock)
	if err != nil {
		return err
	}

	b.push(end, b.assignReturn(ast.Unit(), fn.Body.Span))
	if !b.dead[end] {
		fall := b.scopes.clone()
		fall.setStatus(ReturnPointer, LiveActive)
		b.returns = append(b.returns, fall)
	}
	ret := b.returnBlock(fn.Span)
	b.terminate(end, Terminator{Kind: TermGoto, Info: b.info(fn.Body.Span), Goto: GotoTerm{Target: ret}})

	// The return block is allocated at the first return but only entered
	// after the join of every path into it.
	if len(b.returns) > 0 {
		b.scopes = joinStacks(b.returns)
	} else {
		b.scopes.setStatus(ReturnPointer, LiveActive)
	}
	b.f.Blocks[ret].Decls = b.scopes.snapshot()
	b.popScope(fnExtent, ret)
	b.terminate(ret, Terminator{Kind: TermReturn, Info: SourceInfo{Span: fn.Span, Scope: ArgumentScope}})
	return nil
}

func (b *builder) nextID(n int, what string) int32 {
	id, err := safecast.Conv[int32](n)
	if err != nil {
		panic(fmt.Errorf("mir: %s id overflow: %w", what, err))
	}
	return id
}

// newBlock allocates a block recording the tracker as it is now.
func (b *builder) newBlock(name string, sp source.Span) BlockID {
	id := BlockID(b.nextID(len(b.f.Blocks), "block"))
	b.f.Blocks = append(b.f.Blocks, Block{
		ID:    id,
		Name:  name,
		Decls: b.scopes.snapshot(),
		Span:  sp,
	})
	trace.Point(b.tracer, trace.ScopeBlock, fmt.Sprintf("bb%d", id), name, b.span)
	return id
}

// deadBlock allocates the continuation after an early exit.
func (b *builder) deadBlock(name string, sp source.Span) BlockID {
	id := b.newBlock(name, sp)
	b.dead[id] = true
	return id
}

func (b *builder) returnBlock(sp source.Span) BlockID {
	if b.f.ReturnBlock == NoBlockID {
		b.f.ReturnBlock = b.newBlock("Return", sp)
	}
	return b.f.ReturnBlock
}

func (b *builder) terminate(bb BlockID, term Terminator) {
	blk := &b.f.Blocks[bb]
	if blk.Terminated() {
		panic(&InvariantError{Code: diag.InternalDoubleTerm, Func: b.f.Name, Block: bb,
			Msg: fmt.Sprintf("bb%d already ends in %s", bb, blk.Term.Kind)})
	}
	blk.Term = term
}

func (b *builder) push(bb BlockID, st Stmt) {
	blk := &b.f.Blocks[bb]
	if blk.Terminated() {
		panic(&InvariantError{Code: diag.InternalDoubleTerm, Func: b.f.Name, Block: bb,
			Msg: fmt.Sprintf("statement pushed after the terminator of bb%d", bb)})
	}
	blk.Stmts = append(blk.Stmts, st)
}

func (b *builder) info(sp source.Span) SourceInfo {
	return SourceInfo{Span: sp, Scope: b.currentScope()}
}

func (b *builder) assignReturn(v *ast.Expr, sp source.Span) Stmt {
	e := ast.Assign(ast.ReturnSlotName, v)
	e.Span = sp
	return Stmt{Kind: StmtExpr, Info: b.info(sp), Expr: e}
}
