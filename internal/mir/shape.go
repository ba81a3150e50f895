package mir

import (
	"fmt"
	"strings"
)

// Shape is a canonical fingerprint of the block graph: block count,
// terminator kinds with their targets, and per-block live counts. Two
// constructions of the same input have equal shapes.
func Shape(f *Func) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d blocks, return bb%d\n", len(f.Blocks), f.ReturnBlock)
	for i := range f.Blocks {
		blk := &f.Blocks[i]
		fmt.Fprintf(&sb, "bb%d %s", i, blk.Term.Kind)
		for _, succ := range blk.Term.Successors() {
			fmt.Fprintf(&sb, " bb%d", succ)
		}
		sb.WriteString(" |")
		for _, sc := range blk.Decls {
			active := 0
			for _, d := range sc.Decls {
				if d.Kind == LiveActive {
					active++
				}
			}
			fmt.Fprintf(&sb, " %d/%d", active, len(sc.Decls))
		}
		fmt.Fprintf(&sb, " | %d stmts\n", len(blk.Stmts))
	}
	return sb.String()
}
