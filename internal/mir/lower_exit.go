package mir

import (
	"stateful/internal/ast"
	"stateful/internal/diag"
)

func (b *builder) lowerSuspend(bb BlockID, e *ast.Expr, kind ast.SuspendKind) (BlockID, error) {
	operand, ok := ast.MarkerOperand(e)
	if !ok {
		return bb, unsupported(diag.LowerMarkerArity, e.Span, "")
	}
	if b.cls.ContainsSuspend(operand) {
		return bb, unsupported(diag.LowerNestedSuspend, e.Span, "suspension inside the operand of another suspension")
	}
	if b.isTransition(operand) {
		return bb, b.transferError(operand, e.Span)
	}
	for _, name := range ast.MovedNames(operand) {
		b.moveByName(name)
	}
	next := b.newBlock("AfterSuspend", e.Span)
	b.terminate(bb, Terminator{Kind: TermSuspend, Info: b.info(e.Span), Suspend: SuspendTerm{Kind: kind, Value: operand, Target: next}})
	return next, nil
}

// lowerReturn writes the return slot, unwinds every extent but the
// function's and jumps to the shared return block.
func (b *builder) lowerReturn(bb BlockID, e *ast.Expr, d *ast.ReturnData) (BlockID, error) {
	if d.Value == nil {
		return bb, unsupported(diag.LowerEmptyReturn, e.Span, "")
	}
	bb, value, err := b.lowerValue(bb, d.Value, e.Span)
	if err != nil {
		return bb, err
	}
	b.push(bb, b.assignReturn(value, e.Span))
	unwound := b.unwindTo(1, bb)
	unwound.setStatus(ReturnPointer, LiveActive)
	b.returns = append(b.returns, unwound)
	ret := b.returnBlock(e.Span)
	b.gotoFrom(bb, ret, e.Span)
	return b.deadBlock("AfterReturn", e.Span), nil
}

func (b *builder) lowerBreak(bb BlockID, e *ast.Expr, cont bool) (BlockID, error) {
	if len(b.loops) == 0 {
		return bb, unsupported(diag.LowerBreakOutsideLoop, e.Span, "")
	}
	loop := b.loops[len(b.loops)-1]
	unwound := b.unwindTo(loop.depth, bb)
	if cont {
		loop.continues = append(loop.continues, unwound)
		b.gotoFrom(bb, loop.continueTo, e.Span)
		return b.deadBlock("AfterContinue", e.Span), nil
	}
	loop.breaks = append(loop.breaks, unwound)
	b.gotoFrom(bb, loop.breakTo, e.Span)
	return b.deadBlock("AfterBreak", e.Span), nil
}
