package mir

// ScopeNode groups the statements of one block by visibility scope.
type ScopeNode struct {
	Scope ScopeID
	Items []ScopeItem
}

// ScopeItem is a statement index, the terminator, or a nested scope.
type ScopeItem struct {
	Stmt  int
	Term  bool
	Child *ScopeNode
}

// BuildScopeTree regroups the statements of bb into nested visibility
// scopes rooted at ArgumentScope. Statement order is preserved.
func BuildScopeTree(f *Func, bb BlockID) *ScopeNode {
	root := &ScopeNode{Scope: ArgumentScope}
	blk := f.Block(bb)
	if blk == nil {
		return root
	}
	open := []*ScopeNode{root}
	place := func(scope ScopeID, item ScopeItem) {
		path := scopePath(f, scope)
		keep := 1
		for keep < len(open) && keep < len(path) && open[keep].Scope == path[keep] {
			keep++
		}
		open = open[:keep]
		for _, s := range path[keep:] {
			child := &ScopeNode{Scope: s}
			parent := open[len(open)-1]
			parent.Items = append(parent.Items, ScopeItem{Stmt: -1, Child: child})
			open = append(open, child)
		}
		top := open[len(open)-1]
		top.Items = append(top.Items, item)
	}
	for i, st := range blk.Stmts {
		place(st.Info.Scope, ScopeItem{Stmt: i})
	}
	if blk.Terminated() {
		place(blk.Term.Info.Scope, ScopeItem{Stmt: -1, Term: true})
	}
	return root
}

// scopePath lists the scopes from ArgumentScope down to s.
func scopePath(f *Func, s ScopeID) []ScopeID {
	var rev []ScopeID
	for cur := s; cur != NoScopeID; cur = f.ScopeParent(cur) {
		rev = append(rev, cur)
		if cur == ArgumentScope {
			break
		}
	}
	if len(rev) == 0 || rev[len(rev)-1] != ArgumentScope {
		rev = append(rev, ArgumentScope)
	}
	out := make([]ScopeID, len(rev))
	for i, id := range rev {
		out[len(rev)-1-i] = id
	}
	return out
}
