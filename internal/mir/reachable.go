package mir

// Reachable marks the blocks reachable from StartBlock.
func Reachable(f *Func) []bool {
	if f == nil || len(f.Blocks) == 0 {
		return nil
	}
	reachable := make([]bool, len(f.Blocks))
	stack := []BlockID{StartBlock}
	reachable[StartBlock] = true
	for len(stack) > 0 {
		bb := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		blk := f.Block(bb)
		if blk == nil {
			continue
		}
		for _, succ := range blk.Term.Successors() {
			if succ < 0 || int(succ) >= len(reachable) || reachable[succ] {
				continue
			}
			reachable[succ] = true
			stack = append(stack, succ)
		}
	}
	return reachable
}

// ReachableBlocks lists the reachable blocks in id order.
func ReachableBlocks(f *Func) []BlockID {
	marks := Reachable(f)
	out := make([]BlockID, 0, len(marks))
	for i, ok := range marks {
		if ok {
			out = append(out, BlockID(i))
		}
	}
	return out
}

// Predecessors returns, per block, the blocks that jump to it.
func Predecessors(f *Func) [][]BlockID {
	preds := make([][]BlockID, len(f.Blocks))
	for i := range f.Blocks {
		for _, succ := range f.Blocks[i].Term.Successors() {
			if succ >= 0 && int(succ) < len(preds) {
				preds[succ] = append(preds[succ], BlockID(i))
			}
		}
	}
	return preds
}
