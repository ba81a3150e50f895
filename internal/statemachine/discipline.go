package statemachine

import "stateful/internal/ast"

type OutputKind uint8

const (
	OutputNone OutputKind = iota
	// OutputYield hands one element of a sequence to the caller.
	OutputYield
	// OutputDone finishes a sequence with the return value.
	OutputDone
	// OutputPending reports an eventual value as not ready yet.
	OutputPending
	// OutputReady finishes an eventual value.
	OutputReady
)

func (k OutputKind) String() string {
	switch k {
	case OutputYield:
		return "Yield"
	case OutputDone:
		return "Done"
	case OutputPending:
		return "Pending"
	case OutputReady:
		return "Ready"
	default:
		return "None"
	}
}

// Terminal reports whether the output ends the computation.
func (k OutputKind) Terminal() bool {
	return k == OutputDone || k == OutputReady
}

// Discipline maps suspension and completion onto the caller-facing outputs.
type Discipline interface {
	Name() string
	Suspend() OutputKind
	Complete() OutputKind
}

type sequence struct{}

func (sequence) Name() string         { return "sequence" }
func (sequence) Suspend() OutputKind  { return OutputYield }
func (sequence) Complete() OutputKind { return OutputDone }

type eventual struct{}

func (eventual) Name() string         { return "eventual" }
func (eventual) Suspend() OutputKind  { return OutputPending }
func (eventual) Complete() OutputKind { return OutputReady }

var (
	// Sequence drives generator functions.
	Sequence Discipline = sequence{}
	// Eventual drives async functions.
	Eventual Discipline = eventual{}
)

// DisciplineFor picks the discipline of a function kind.
func DisciplineFor(kind ast.FuncKind) Discipline {
	if kind == ast.FuncAsync {
		return Eventual
	}
	return Sequence
}
