package mir

// LiveDeclKind is the initialization state of a declared local.
type LiveDeclKind uint8

const (
	// LiveActive holds a value that must be dropped on scope exit.
	LiveActive LiveDeclKind = iota
	// LiveMoved was consumed and is not dropped.
	LiveMoved
	// LiveForward is declared but not yet assigned.
	LiveForward
)

func (k LiveDeclKind) String() string {
	switch k {
	case LiveActive:
		return "active"
	case LiveMoved:
		return "moved"
	case LiveForward:
		return "forward"
	default:
		return "unknown"
	}
}

// rank orders kinds for joins: the most pessimistic state wins.
func (k LiveDeclKind) rank() int {
	switch k {
	case LiveMoved:
		return 2
	case LiveForward:
		return 1
	default:
		return 0
	}
}

type LiveDecl struct {
	Kind  LiveDeclKind
	Local LocalID
}

// LiveScope is one open code extent with its declarations in order.
type LiveScope struct {
	Extent ExtentID
	Decls  []LiveDecl
}

// LiveDeclMap is the stack of open extents, outermost first.
type LiveDeclMap []LiveScope

// Clone returns a deep copy.
func (m LiveDeclMap) Clone() LiveDeclMap {
	if m == nil {
		return nil
	}
	out := make(LiveDeclMap, len(m))
	for i, s := range m {
		out[i] = LiveScope{Extent: s.Extent, Decls: append([]LiveDecl(nil), s.Decls...)}
	}
	return out
}

// Find returns the recorded state of local.
func (m LiveDeclMap) Find(local LocalID) (LiveDeclKind, bool) {
	for i := len(m) - 1; i >= 0; i-- {
		for _, d := range m[i].Decls {
			if d.Local == local {
				return d.Kind, true
			}
		}
	}
	return 0, false
}

// Locals lists the locals in the given state, outermost scope first.
func (m LiveDeclMap) Locals(kind LiveDeclKind) []LocalID {
	var out []LocalID
	for _, s := range m {
		for _, d := range s.Decls {
			if d.Kind == kind {
				out = append(out, d.Local)
			}
		}
	}
	return out
}
