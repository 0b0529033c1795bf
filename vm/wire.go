package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Snapshot encoding: CBOR for blocks and whole machines
// ---------------------------------------------------------------------------

// Canonical mode keeps snapshots deterministic: the same machine state
// always encodes to the same bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type wireBlock struct {
	Kind   uint8      `cbor:"k"`
	First  *wireBlock `cbor:"f,omitempty"`
	Second *wireBlock `cbor:"s,omitempty"`
	Name   string     `cbor:"n,omitempty"`
	Int    int64      `cbor:"i,omitempty"`
}

type wireMachine struct {
	Code  []*wireBlock `cbor:"code"`
	Data  []*wireBlock `cbor:"data"`
	Sink  []*wireBlock `cbor:"sink"`
	Quota int          `cbor:"quota"`
}

func toWire(b *Block) *wireBlock {
	w := &wireBlock{Kind: uint8(b.Kind)}
	switch b.Kind {
	case KindSeq:
		w.First = toWire(b.First)
		w.Second = toWire(b.Second)
	case KindWord, KindHole:
		w.Name = b.Name
	case KindInt:
		w.Int = b.Int
	}
	return w
}

func fromWire(w *wireBlock) (*Block, error) {
	switch BlockKind(w.Kind) {
	case KindId:
		return Identity, nil
	case KindSeq:
		if w.First == nil || w.Second == nil {
			return nil, fmt.Errorf("vm: sequence block missing children")
		}
		first, err := fromWire(w.First)
		if err != nil {
			return nil, err
		}
		second, err := fromWire(w.Second)
		if err != nil {
			return nil, err
		}
		return Seq(first, second), nil
	case KindWord:
		return Word(w.Name), nil
	case KindInt:
		return Int(w.Int), nil
	case KindHole:
		return Hole(w.Name), nil
	default:
		return nil, fmt.Errorf("vm: unknown block kind tag %d", w.Kind)
	}
}

// MarshalBlock serializes a block tree to canonical CBOR bytes.
func MarshalBlock(b *Block) ([]byte, error) {
	return cborEncMode.Marshal(toWire(b))
}

// UnmarshalBlock deserializes a block tree from CBOR bytes.
func UnmarshalBlock(data []byte) (*Block, error) {
	var w wireBlock
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("vm: unmarshal block: %w", err)
	}
	return fromWire(&w)
}

// MarshalMachine serializes the full machine state, all three regions plus
// the remaining quota, to canonical CBOR bytes.
func MarshalMachine(m *Machine) ([]byte, error) {
	w := wireMachine{Quota: m.quota}
	for _, b := range m.code {
		w.Code = append(w.Code, toWire(b))
	}
	for _, b := range m.data {
		w.Data = append(w.Data, toWire(b))
	}
	for _, b := range m.sink {
		w.Sink = append(w.Sink, toWire(b))
	}
	return cborEncMode.Marshal(&w)
}

// UnmarshalMachine deserializes a machine snapshot. Region order and quota
// survive the round trip, so a resumed machine continues exactly where the
// snapshotted one stopped.
func UnmarshalMachine(data []byte) (*Machine, error) {
	var w wireMachine
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("vm: unmarshal machine: %w", err)
	}
	m := &Machine{quota: w.Quota}
	for _, wb := range w.Code {
		b, err := fromWire(wb)
		if err != nil {
			return nil, err
		}
		m.code = append(m.code, b)
	}
	for _, wb := range w.Data {
		b, err := fromWire(wb)
		if err != nil {
			return nil, err
		}
		m.data = append(m.data, b)
	}
	for _, wb := range w.Sink {
		b, err := fromWire(wb)
		if err != nil {
			return nil, err
		}
		m.sink = append(m.sink, b)
	}
	return m, nil
}
