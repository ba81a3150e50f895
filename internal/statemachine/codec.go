package statemachine

import (
	"github.com/vmihailenco/msgpack/v5"

	"stateful/internal/mir"
)

type machineWire Machine

var _ msgpack.CustomDecoder = (*Machine)(nil)

// DecodeMsgpack restores the lookup tables that are not serialized.
func (m *Machine) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w machineWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	*m = Machine(w)
	m.Discipline = DisciplineFor(m.Kind)

	blocks := 0
	for _, v := range m.Variants {
		blocks = max(blocks, int(v.Block)+1)
	}
	m.stateOf = make([]StateID, blocks)
	for i := range m.stateOf {
		m.stateOf[i] = NoState
	}
	for _, v := range m.Variants {
		if v.Block != mir.NoBlockID {
			m.stateOf[v.Block] = v.ID
		}
	}
	if r := m.Resume; r != nil {
		r.byBlock = make(map[mir.BlockID]ResumeID, len(r.Variants))
		for _, v := range r.Variants {
			r.byBlock[m.Variants[v.Internal].Block] = v.ID
		}
	}
	return nil
}
