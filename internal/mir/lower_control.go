package mir

import (
	"stateful/internal/ast"
	"stateful/internal/diag"
	"stateful/internal/source"
)

type branchExit struct {
	end   BlockID
	state scopeStack
}

// join sets the tracker to the merge of the branches that fall through.
// It reports false when every branch diverged.
func (b *builder) join(exits []branchExit, fallback scopeStack) bool {
	live := make([]scopeStack, 0, len(exits))
	for _, ex := range exits {
		if !b.dead[ex.end] {
			live = append(live, ex.state)
		}
	}
	if len(live) == 0 {
		b.scopes = fallback
		return false
	}
	b.scopes = joinStacks(live)
	return true
}

func (b *builder) checkCond(cond *ast.Expr, sp source.Span) error {
	if b.cls.ContainsSuspend(cond) {
		if cond.Span.Known() {
			sp = cond.Span
		}
		return unsupported(diag.LowerSuspendInCond, sp, "")
	}
	if b.isTransition(cond) {
		return b.transferError(cond, sp)
	}
	for _, name := range ast.MovedNames(cond) {
		b.moveByName(name)
	}
	return nil
}

func (b *builder) lowerIf(bb BlockID, e *ast.Expr, d *ast.IfData) (BlockID, error) {
	if err := b.checkCond(d.Cond, e.Span); err != nil {
		return bb, err
	}
	thenBB := b.newBlock("Then", spanOf(d.Then, e.Span))
	elseBB := b.newBlock("Else", spanOf(d.Else, e.Span))
	b.terminate(bb, Terminator{Kind: TermIf, Info: b.info(e.Span), If: IfTerm{Cond: d.Cond, Then: thenBB, Else: elseBB}})

	saved := b.scopes.clone()
	thenEnd, err := b.lowerBlock(thenBB, d.Then, ExtentBlock)
	if err != nil {
		return bb, err
	}
	thenState := b.scopes

	b.scopes = saved.clone()
	elseEnd, err := b.lowerBlock(elseBB, d.Else, ExtentBlock)
	if err != nil {
		return bb, err
	}
	elseState := b.scopes

	live := b.join([]branchExit{{thenEnd, thenState}, {elseEnd, elseState}}, thenState)
	end := b.newBlock("EndIf", e.Span)
	if !live {
		b.dead[end] = true
	}
	b.gotoFrom(thenEnd, end, e.Span)
	b.gotoFrom(elseEnd, end, e.Span)
	return end, nil
}

func (b *builder) lowerLoop(bb BlockID, e *ast.Expr, d *ast.LoopData) (BlockID, error) {
	entry := b.newBlock("Loop", spanOf(d.Body, e.Span))
	exit := b.newBlock("LoopExit", e.Span)
	b.gotoFrom(bb, entry, e.Span)

	saved := b.scopes.clone()
	loop := &loopScope{breakTo: exit, continueTo: entry, depth: len(b.scopes)}
	tail, err := b.lowerLoopBody(entry, d.Body, loop)
	if err != nil {
		return bb, err
	}
	if err := b.checkCarried(saved, loop, tail, e.Span); err != nil {
		return bb, err
	}
	b.gotoFrom(tail, entry, e.Span)

	if len(loop.breaks) == 0 {
		b.scopes = saved
		b.dead[exit] = true
	} else {
		b.scopes = joinStacks(loop.breaks)
	}
	// exit is allocated before the body but only entered after the join.
	b.f.Blocks[exit].Decls = b.scopes.snapshot()
	return exit, nil
}

func (b *builder) lowerWhile(bb BlockID, e *ast.Expr, d *ast.WhileData) (BlockID, error) {
	if err := b.checkCond(d.Cond, e.Span); err != nil {
		return bb, err
	}
	cond := b.newBlock("WhileCond", e.Span)
	body := b.newBlock("WhileBody", spanOf(d.Body, e.Span))
	exit := b.newBlock("LoopExit", e.Span)
	b.gotoFrom(bb, cond, e.Span)
	b.terminate(cond, Terminator{Kind: TermIf, Info: b.info(e.Span), If: IfTerm{Cond: d.Cond, Then: body, Else: exit}})

	saved := b.scopes.clone()
	loop := &loopScope{breakTo: exit, continueTo: cond, depth: len(b.scopes)}
	tail, err := b.lowerLoopBody(body, d.Body, loop)
	if err != nil {
		return bb, err
	}
	if err := b.checkCarried(saved, loop, tail, e.Span); err != nil {
		return bb, err
	}
	b.gotoFrom(tail, cond, e.Span)

	b.scopes = joinStacks(append([]scopeStack{saved}, loop.breaks...))
	// exit is allocated before the body but only entered after the join.
	b.f.Blocks[exit].Decls = b.scopes.snapshot()
	return exit, nil
}

func (b *builder) lowerLoopBody(bb BlockID, body *ast.Block, loop *loopScope) (BlockID, error) {
	b.loops = append(b.loops, loop)
	defer func() { b.loops = b.loops[:len(b.loops)-1] }()
	return b.lowerBlock(bb, body, ExtentLoop)
}

// checkCarried rejects a local that is live on loop entry but moved on a
// path that jumps back to the entry.
func (b *builder) checkCarried(entry scopeStack, loop *loopScope, tail BlockID, sp source.Span) error {
	back := loop.continues
	if !b.dead[tail] {
		back = append(back, b.scopes)
	}
	for _, st := range back {
		for i := range entry {
			for j, d := range entry[i].decls {
				if d.Kind == LiveActive && st[i].decls[j].Kind == LiveMoved {
					return unsupported(diag.LowerMovedInLoop, sp, "%q is moved in a previous iteration of the loop", b.f.BindingName(d.Local))
				}
			}
		}
	}
	return nil
}

func (b *builder) lowerMatch(bb BlockID, e *ast.Expr, d *ast.MatchData) (BlockID, error) {
	if err := b.checkCond(d.Value, e.Span); err != nil {
		return bb, err
	}
	saved := b.scopes.clone()
	arms := make([]MatchArm, 0, len(d.Arms))
	exits := make([]branchExit, 0, len(d.Arms))
	for _, arm := range d.Arms {
		b.scopes = saved.clone()
		ext := b.pushScope(ExtentArm, arm.Span)
		for _, p := range arm.Pattern.Bindings() {
			if _, _, ok := b.findDecl(p.Name); ok {
				return bb, unsupported(diag.LowerShadowInArm, p.Span, "match arm binding %q shadows a live local", p.Name)
			}
			id := b.declareBinding(p.Name, p.Mut, LocalArmBinding, "", p.Span, LiveActive)
			b.scheduleDrop(ext, id, nil)
		}
		armBB := b.newBlock("Arm", spanOf(arm.Body, arm.Span))
		end, err := b.lowerBlock(armBB, arm.Body, ExtentBlock)
		if err != nil {
			return bb, err
		}
		b.popScope(ext, end)
		arms = append(arms, MatchArm{Pattern: arm.Pattern, Target: armBB})
		exits = append(exits, branchExit{end, b.scopes})
	}
	b.terminate(bb, Terminator{Kind: TermMatch, Info: SourceInfo{Span: e.Span, Scope: saved[len(saved)-1].vis}, Match: MatchTerm{Value: d.Value, Arms: arms}})

	live := b.join(exits, saved)
	end := b.newBlock("EndMatch", e.Span)
	if !live {
		b.dead[end] = true
	}
	for _, ex := range exits {
		b.gotoFrom(ex.end, end, e.Span)
	}
	return end, nil
}

func (b *builder) gotoFrom(from, to BlockID, sp source.Span) {
	b.terminate(from, Terminator{Kind: TermGoto, Info: b.info(sp), Goto: GotoTerm{Target: to}})
}

func spanOf(blk *ast.Block, fallback source.Span) source.Span {
	if blk != nil && blk.Span.Known() {
		return blk.Span
	}
	return fallback
}
