package mir

import (
	"errors"
	"fmt"
	"strings"

	"stateful/internal/diag"
)

// finish runs the post-build checks of Construct.
func (b *builder) finish() error {
	f := b.f
	for i := range f.Blocks {
		if !f.Blocks[i].Terminated() {
			return &InvariantError{Code: diag.InternalNoTerminator, Func: f.Name, Block: BlockID(i),
				Msg: fmt.Sprintf("no terminator on block bb%d", i)}
		}
	}
	if missing := uninitialized(f, b.assigned); len(missing) > 0 {
		return &InvariantError{Code: diag.InternalUninitialized, Func: f.Name, Block: NoBlockID,
			Msg: "uninitialized variables: " + strings.Join(missing, ", "),
			Err: ErrUninitialized}
	}
	if err := Validate(f); err != nil {
		return &InvariantError{Code: diag.InternalValidation, Func: f.Name, Block: NoBlockID, Err: err}
	}
	return nil
}

// uninitialized lists locals with no evidence of ever holding a value: not
// live or moved in any snapshot, never dropped, never assigned.
func uninitialized(f *Func, assigned map[LocalID]bool) []string {
	seen := make([]bool, len(f.Locals))
	for id := range assigned {
		seen[id] = true
	}
	for i := range f.Blocks {
		blk := &f.Blocks[i]
		for _, sc := range blk.Decls {
			for _, d := range sc.Decls {
				if d.Kind != LiveForward {
					seen[d.Local] = true
				}
			}
		}
		for _, st := range blk.Stmts {
			if st.Kind == StmtDrop && !st.Drop.Moved {
				seen[st.Drop.Local] = true
			}
		}
	}
	var out []string
	for id, ok := range seen {
		if !ok {
			out = append(out, f.Locals[id].Name)
		}
	}
	return out
}

// Validate checks the structural well-formedness of f.
func Validate(f *Func) error {
	if f == nil {
		return fmt.Errorf("mir: nil function")
	}
	var errs []error
	if len(f.Blocks) == 0 {
		return fmt.Errorf("mir: %s: no blocks", f.Name)
	}
	if len(f.Locals) == 0 || f.Locals[ReturnPointer].Kind != LocalReturn {
		errs = append(errs, fmt.Errorf("mir: %s: local 0 is not the return slot", f.Name))
	}
	for _, p := range f.Params {
		if f.Local(p) == nil || f.Locals[p].Kind != LocalArg {
			errs = append(errs, fmt.Errorf("mir: %s: parameter L%d is not an argument local", f.Name, p))
		}
	}
	returns := 0
	for i := range f.Blocks {
		blk := &f.Blocks[i]
		if blk.ID != BlockID(i) {
			errs = append(errs, fmt.Errorf("mir: %s: bb%d: recorded id is bb%d", f.Name, i, blk.ID))
		}
		errs = append(errs, validateTerm(f, blk)...)
		if blk.Term.Kind == TermReturn {
			returns++
		}
		for j, st := range blk.Stmts {
			if err := validateStmt(f, &st); err != nil {
				errs = append(errs, fmt.Errorf("mir: %s: bb%d[%d]: %w", f.Name, i, j, err))
			}
		}
		for _, sc := range blk.Decls {
			if sc.Extent < 0 || int(sc.Extent) >= len(f.Extents) {
				errs = append(errs, fmt.Errorf("mir: %s: bb%d: unknown extent %d", f.Name, i, sc.Extent))
			}
			for _, d := range sc.Decls {
				if f.Local(d.Local) == nil {
					errs = append(errs, fmt.Errorf("mir: %s: bb%d: unknown local L%d in liveness", f.Name, i, d.Local))
				}
			}
		}
	}
	if returns != 1 {
		errs = append(errs, fmt.Errorf("mir: %s: %d return blocks", f.Name, returns))
	} else if f.Block(f.ReturnBlock) == nil || f.Blocks[f.ReturnBlock].Term.Kind != TermReturn {
		errs = append(errs, fmt.Errorf("mir: %s: return block bb%d does not return", f.Name, f.ReturnBlock))
	}
	return errors.Join(errs...)
}

func validateTerm(f *Func, blk *Block) []error {
	var errs []error
	switch blk.Term.Kind {
	case TermNone:
		errs = append(errs, fmt.Errorf("mir: %s: bb%d: unterminated block", f.Name, blk.ID))
	case TermIf:
		if blk.Term.If.Cond == nil {
			errs = append(errs, fmt.Errorf("mir: %s: bb%d: if without condition", f.Name, blk.ID))
		}
	case TermMatch:
		if blk.Term.Match.Value == nil {
			errs = append(errs, fmt.Errorf("mir: %s: bb%d: match without scrutinee", f.Name, blk.ID))
		}
	case TermSuspend:
		if blk.Term.Suspend.Value == nil {
			errs = append(errs, fmt.Errorf("mir: %s: bb%d: suspend without value", f.Name, blk.ID))
		}
	}
	for _, succ := range blk.Term.Successors() {
		if f.Block(succ) == nil {
			errs = append(errs, fmt.Errorf("mir: %s: bb%d: invalid target bb%d", f.Name, blk.ID, succ))
		}
	}
	return errs
}

func validateStmt(f *Func, st *Stmt) error {
	switch st.Kind {
	case StmtExpr:
		if st.Expr == nil {
			return fmt.Errorf("empty expression statement")
		}
	case StmtLet:
		if st.Let.Pattern == nil {
			return fmt.Errorf("let without pattern")
		}
	case StmtDrop:
		if f.Local(st.Drop.Local) == nil {
			return fmt.Errorf("drop of unknown local L%d", st.Drop.Local)
		}
		if a := st.Drop.Alias; a != nil && f.Local(a.Local) == nil {
			return fmt.Errorf("alias of unknown local L%d", a.Local)
		}
		if st.Drop.Moved && st.Drop.Alias == nil {
			return fmt.Errorf("moved drop of L%d restores nothing", st.Drop.Local)
		}
	default:
		return fmt.Errorf("unknown statement kind %d", st.Kind)
	}
	return nil
}
