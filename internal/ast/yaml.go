package ast

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"stateful/internal/diag"
	"stateful/internal/source"
)

// DecodeYAML loads a program document:
//
//	functions:
//	  - name: counter
//	    kind: generator          # or async
//	    params: [n, {name: acc, mut: true}]
//	    body:
//	      - let: i
//	        mut: true
//	        value: 0
//	      - while: {"<": [i, n]}
//	        do:
//	          - yield: i
//	          - assign: i
//	            value: {"+": [i, 1]}
//	      - return: i
//
// Scalars are identifiers, integers, booleans or `()`. String literals are
// written {str: "..."}. Malformed functions are reported to rep and skipped;
// the returned error is reserved for documents that are not YAML at all.
func DecodeYAML(file source.FileID, data []byte, rep diag.Reporter) (*Program, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ast: decode program: %w", err)
	}
	l := &loader{file: file, rep: rep}
	prog := &Program{File: file}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return prog, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		l.errorf(root, diag.LoadSyntax, "program document must be a mapping with a 'functions' key")
		return prog, nil
	}
	fns := mapGet(root, "functions")
	if fns == nil {
		l.errorf(root, diag.LoadMissingField, "missing 'functions'")
		return prog, nil
	}
	if fns.Kind != yaml.SequenceNode {
		l.errorf(fns, diag.LoadSyntax, "'functions' must be a sequence")
		return prog, nil
	}
	seen := make(map[string]source.Span, len(fns.Content))
	for _, n := range fns.Content {
		l.failed = false
		fn := l.function(n)
		if fn == nil || l.failed {
			continue
		}
		if prev, dup := seen[fn.Name]; dup {
			diag.ReportError(l.rep, diag.LoadDuplicateFunc, fn.Span, fmt.Sprintf("function %q is already defined", fn.Name)).
				WithNote(prev, "previous definition").
				Emit()
			continue
		}
		seen[fn.Name] = fn.Span
		prog.Funcs = append(prog.Funcs, fn)
	}
	return prog, nil
}

type loader struct {
	file   source.FileID
	rep    diag.Reporter
	failed bool
}

func (l *loader) span(n *yaml.Node) source.Span {
	if n == nil {
		return source.Span{File: l.file}
	}
	return source.Span{File: l.file, Line: uint32(max(n.Line, 0)), Col: uint32(max(n.Column, 0))} //nolint:gosec
}

func (l *loader) errorf(n *yaml.Node, code diag.Code, format string, args ...any) {
	l.failed = true
	if l.rep == nil {
		return
	}
	diag.ReportError(l.rep, code, l.span(n), fmt.Sprintf(format, args...)).Emit()
}

func mapGet(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// head returns the first key of a mapping, which selects the node kind.
func head(n *yaml.Node) (string, *yaml.Node) {
	if n == nil || n.Kind != yaml.MappingNode || len(n.Content) < 2 {
		return "", nil
	}
	return n.Content[0].Value, n.Content[1]
}

// expectKeys reports keys outside allowed.
func (l *loader) expectKeys(n *yaml.Node, allowed ...string) {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		ok := false
		for _, a := range allowed {
			if k.Value == a {
				ok = true
				break
			}
		}
		if !ok {
			l.errorf(k, diag.LoadUnknownKind, "unexpected key %q (expected one of %s)", k.Value, strings.Join(allowed, ", "))
		}
	}
}

func (l *loader) function(n *yaml.Node) *Func {
	if n.Kind != yaml.MappingNode {
		l.errorf(n, diag.LoadSyntax, "function must be a mapping")
		return nil
	}
	l.expectKeys(n, "name", "kind", "params", "result", "body")
	fn := &Func{Span: l.span(n)}
	nameNode := mapGet(n, "name")
	if nameNode == nil {
		l.errorf(n, diag.LoadMissingField, "function without 'name'")
		return nil
	}
	fn.Name = l.ident(nameNode)
	switch kind := mapGet(n, "kind"); {
	case kind == nil || kind.Value == "generator":
		fn.Kind = FuncGenerator
	case kind.Value == "async":
		fn.Kind = FuncAsync
	default:
		l.errorf(kind, diag.LoadUnknownKind, "unknown function kind %q (expected generator|async)", kind.Value)
	}
	if r := mapGet(n, "result"); r != nil {
		fn.Result = r.Value
	}
	if ps := mapGet(n, "params"); ps != nil {
		if ps.Kind != yaml.SequenceNode {
			l.errorf(ps, diag.LoadSyntax, "'params' must be a sequence")
		} else {
			for _, p := range ps.Content {
				fn.Params = append(fn.Params, l.param(p))
			}
		}
	}
	fn.Body = l.block(mapGet(n, "body"), n)
	return fn
}

func (l *loader) param(n *yaml.Node) Param {
	p := Param{Span: l.span(n)}
	switch n.Kind {
	case yaml.ScalarNode:
		p.Name, p.Mut = l.bindingText(n)
	case yaml.MappingNode:
		l.expectKeys(n, "name", "mut", "type")
		if nm := mapGet(n, "name"); nm != nil {
			p.Name = l.ident(nm)
		} else {
			l.errorf(n, diag.LoadMissingField, "parameter without 'name'")
		}
		p.Mut = l.flag(mapGet(n, "mut"))
		if t := mapGet(n, "type"); t != nil {
			p.Type = t.Value
		}
	default:
		l.errorf(n, diag.LoadSyntax, "parameter must be a name or a mapping")
	}
	return p
}

// block decodes a statement sequence. owner locates errors for a missing block.
func (l *loader) block(n, owner *yaml.Node) *Block {
	b := &Block{Span: l.span(n).Or(l.span(owner))}
	if n == nil || n.Tag == "!!null" {
		return b
	}
	if n.Kind != yaml.SequenceNode {
		l.errorf(n, diag.LoadSyntax, "block must be a sequence of statements")
		return b
	}
	for i, sn := range n.Content {
		if key, val := head(sn); key == "tail" {
			if i != len(n.Content)-1 {
				l.errorf(sn, diag.LoadSyntax, "'tail' must be the last element of a block")
			}
			b.Tail = l.expr(val)
			continue
		}
		if st := l.stmt(sn); st != nil {
			b.Stmts = append(b.Stmts, st)
		}
	}
	return b
}

func (l *loader) stmt(n *yaml.Node) *Stmt {
	sp := l.span(n)
	key, val := head(n)
	switch key {
	case "let":
		l.expectKeys(n, "let", "mut", "type", "value")
		pat := l.pattern(val)
		if l.flag(mapGet(n, "mut")) && pat != nil && pat.Kind == PatBinding {
			pat.Mut = true
		}
		let := &LetData{Pattern: pat}
		if t := mapGet(n, "type"); t != nil {
			let.Type = t.Value
		}
		if v := mapGet(n, "value"); v != nil {
			let.Value = l.expr(v)
		}
		return &Stmt{Kind: StmtLet, Span: sp, Data: let}
	case "item":
		l.expectKeys(n, "item", "kind")
		kind := "fn"
		if k := mapGet(n, "kind"); k != nil {
			kind = k.Value
		}
		return &Stmt{Kind: StmtItem, Span: sp, Data: &ItemData{Kind: kind, Name: val.Value}}
	case "expr":
		l.expectKeys(n, "expr")
		return &Stmt{Kind: StmtExpr, Span: sp, Data: &ExprStmtData{Expr: l.expr(val)}}
	}
	return &Stmt{Kind: StmtExpr, Span: sp, Data: &ExprStmtData{Expr: l.expr(n)}}
}

func (l *loader) flag(n *yaml.Node) bool {
	if n == nil {
		return false
	}
	b, err := strconv.ParseBool(n.Value)
	if err != nil || n.Tag != "!!bool" {
		l.errorf(n, diag.LoadBadLiteral, "expected a boolean, got %q", n.Value)
		return false
	}
	return b
}

func (l *loader) exprs(n *yaml.Node) []*Expr {
	if n == nil || n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		return []*Expr{l.expr(n)}
	}
	out := make([]*Expr, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, l.expr(c))
	}
	return out
}

func (l *loader) expr(n *yaml.Node) *Expr {
	if n == nil {
		return Unit()
	}
	var e *Expr
	switch n.Kind {
	case yaml.ScalarNode:
		e = l.scalarExpr(n)
	case yaml.SequenceNode:
		e = Tuple(l.exprs(n)...)
	case yaml.MappingNode:
		e = l.mappingExpr(n)
	case yaml.AliasNode:
		e = l.expr(n.Alias)
	default:
		l.errorf(n, diag.LoadSyntax, "unexpected node")
		e = Unit()
	}
	e.Span = l.span(n)
	return e
}

func (l *loader) scalarExpr(n *yaml.Node) *Expr {
	switch n.Tag {
	case "!!int":
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			l.errorf(n, diag.LoadBadLiteral, "integer literal %q: %v", n.Value, err)
			return Int(0)
		}
		return Int(v)
	case "!!bool":
		v, err := strconv.ParseBool(n.Value)
		if err != nil {
			// yaml 1.1 spellings like "yes"
			v = strings.EqualFold(n.Value, "yes") || strings.EqualFold(n.Value, "on")
		}
		return Bool(v)
	case "!!null":
		return Unit()
	}
	switch n.Value {
	case "()":
		return Unit()
	case "break":
		return Break()
	case "continue":
		return Continue()
	}
	return Var(l.ident(n))
}

func (l *loader) mappingExpr(n *yaml.Node) *Expr {
	key, val := head(n)
	if op, ok := ParseBinaryOp(key); ok {
		l.expectKeys(n, key)
		args := l.exprs(val)
		if len(args) != 2 {
			l.errorf(val, diag.LoadSyntax, "operator %q takes two operands", key)
			return Unit()
		}
		return Binary(op, args[0], args[1])
	}
	switch key {
	case "str":
		l.expectKeys(n, "str")
		return Str(val.Value)
	case "unit":
		return Unit()
	case "var":
		return Var(l.ident(val))
	case "not", "!":
		return Unary(UnaryNot, l.expr(val))
	case "neg":
		return Unary(UnaryNeg, l.expr(val))
	case "call":
		l.expectKeys(n, "call", "args")
		return Call(l.ident(val), l.exprs(mapGet(n, "args"))...)
	case "yield":
		l.expectKeys(n, "yield")
		return Yield(l.expr(val))
	case "await":
		l.expectKeys(n, "await")
		return Await(l.expr(val))
	case "tuple":
		return Tuple(l.exprs(val)...)
	case "assign":
		l.expectKeys(n, "assign", "value")
		v := mapGet(n, "value")
		if v == nil {
			l.errorf(n, diag.LoadMissingField, "assignment without 'value'")
		}
		return Assign(l.ident(val), l.expr(v))
	case "move":
		return Move(l.ident(val))
	case "if":
		l.expectKeys(n, "if", "then", "else")
		var els *Block
		if en := mapGet(n, "else"); en != nil {
			els = l.block(en, n)
		}
		return If(l.expr(val), l.block(mapGet(n, "then"), n), els)
	case "loop":
		l.expectKeys(n, "loop")
		return Loop(l.block(val, n))
	case "while":
		l.expectKeys(n, "while", "do")
		return While(l.expr(val), l.block(mapGet(n, "do"), n))
	case "match":
		l.expectKeys(n, "match", "arms")
		return Match(l.expr(val), l.arms(mapGet(n, "arms"), n)...)
	case "block":
		l.expectKeys(n, "block")
		return BlockExpr(l.block(val, n))
	case "return":
		l.expectKeys(n, "return")
		if val == nil || val.Tag == "!!null" {
			return Return(nil)
		}
		return Return(l.expr(val))
	case "break":
		return Break()
	case "continue":
		return Continue()
	}
	l.errorf(n, diag.LoadUnknownKind, "unknown expression %q", key)
	return Unit()
}

func (l *loader) arms(n, owner *yaml.Node) []MatchArm {
	if n == nil || n.Kind != yaml.SequenceNode {
		l.errorf(owner, diag.LoadMissingField, "match without an 'arms' sequence")
		return nil
	}
	out := make([]MatchArm, 0, len(n.Content))
	for _, an := range n.Content {
		l.expectKeys(an, "pat", "do")
		pn := mapGet(an, "pat")
		if pn == nil {
			l.errorf(an, diag.LoadMissingField, "match arm without 'pat'")
			continue
		}
		out = append(out, MatchArm{
			Pattern: l.pattern(pn),
			Body:    l.block(mapGet(an, "do"), an),
			Span:    l.span(an),
		})
	}
	return out
}

func (l *loader) pattern(n *yaml.Node) *Pattern {
	if n == nil {
		return Wild()
	}
	sp := l.span(n)
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!int":
			v, err := strconv.ParseInt(n.Value, 0, 64)
			if err != nil {
				l.errorf(n, diag.LoadBadLiteral, "integer pattern %q: %v", n.Value, err)
			}
			p := PatInt(v)
			p.Span = sp
			return p
		case "!!bool":
			v, _ := strconv.ParseBool(n.Value) //nolint:errcheck
			p := PatBool(v)
			p.Span = sp
			return p
		}
		if n.Value == "_" {
			return &Pattern{Kind: PatWildcard, Span: sp}
		}
		name, mut := l.bindingText(n)
		return &Pattern{Kind: PatBinding, Name: name, Mut: mut, Span: sp}
	case yaml.SequenceNode:
		p := &Pattern{Kind: PatTuple, Span: sp}
		for _, c := range n.Content {
			p.Elems = append(p.Elems, l.pattern(c))
		}
		return p
	case yaml.MappingNode:
		l.expectKeys(n, "bind", "mut")
		return &Pattern{Kind: PatBinding, Name: l.ident(mapGet(n, "bind")), Mut: l.flag(mapGet(n, "mut")), Span: sp}
	}
	l.errorf(n, diag.LoadSyntax, "unsupported pattern")
	return Wild()
}

// bindingText accepts "x" and "mut x".
func (l *loader) bindingText(n *yaml.Node) (string, bool) {
	if rest, ok := strings.CutPrefix(n.Value, "mut "); ok {
		return l.identText(n, strings.TrimSpace(rest)), true
	}
	return l.ident(n), false
}

var reservedIdents = map[string]bool{
	"break": true, "continue": true, "return": true, "loop": true, "while": true,
	"if": true, "else": true, "match": true, "let": true, "mut": true, "move": true,
}

func (l *loader) ident(n *yaml.Node) string {
	if n == nil {
		l.errorf(n, diag.LoadMissingField, "missing identifier")
		return "_"
	}
	return l.identText(n, n.Value)
}

// identText validates and NFC-normalizes a name. Names that collide with the
// return slot or with shadow aliases are rejected.
func (l *loader) identText(n *yaml.Node, raw string) string {
	name := norm.NFC.String(raw)
	if !ValidIdent(name) || reservedIdents[name] {
		l.errorf(n, diag.LoadBadIdentifier, "invalid identifier %q", raw)
		return "_"
	}
	if name == ReturnSlotName || strings.Contains(name, ShadowInfix) {
		l.errorf(n, diag.LoadBadIdentifier, "identifier %q is reserved for generated code", raw)
		return "_"
	}
	return name
}

// Names used by generated code.
const (
	ReturnSlotName = "return_"
	ShadowInfix    = "_shadowed_"
)

// ValidIdent reports whether s is a letter or underscore followed by letters,
// digits or underscores.
func ValidIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
