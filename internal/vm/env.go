package vm

// env is the binding environment of one handler run: the captures of the
// current state plus whatever the handler binds. Opaque blocks push frames.
type env struct {
	frames []map[string]Value
}

func newEnv() *env {
	return &env{frames: []map[string]Value{make(map[string]Value)}}
}

func (e *env) push() { e.frames = append(e.frames, make(map[string]Value)) }

func (e *env) pop() { e.frames = e.frames[:len(e.frames)-1] }

func (e *env) lookup(name string) (Value, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if v, ok := e.frames[i][name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

func (e *env) bind(name string, v Value) {
	e.frames[len(e.frames)-1][name] = v
}

// assign updates the innermost binding of name. An unbound name is bound in
// the handler frame: that is how a forward-declared local gets its value.
func (e *env) assign(name string, v Value) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if _, ok := e.frames[i][name]; ok {
			e.frames[i][name] = v
			return
		}
	}
	e.frames[0][name] = v
}

func (e *env) unbind(name string) (Value, bool) {
	for i := len(e.frames) - 1; i >= 0; i-- {
		if v, ok := e.frames[i][name]; ok {
			delete(e.frames[i], name)
			return v, true
		}
	}
	return Value{}, false
}
