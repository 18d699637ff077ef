package reg

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is a labelled capture of register values.
type Snapshot struct {
	Label string `cbor:"1,keyasint"`
	Words []Word `cbor:"2,keyasint"`
}

type Word struct {
	_    struct{} `cbor:",toarray"`
	Addr uint32
	Val  uint32
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
}

// Capture reads every register in addrs. Capturing reads registers,
// so addrs must not include registers with read side effects.
func Capture(label string, f File, addrs []uint32) Snapshot {
	s := Snapshot{Label: label, Words: make([]Word, len(addrs))}
	for i, a := range addrs {
		s.Words[i] = Word{Addr: a, Val: f.Load(a)}
	}
	return s
}

// Lookup returns the captured value at addr.
func (s Snapshot) Lookup(addr uint32) (uint32, bool) {
	for _, w := range s.Words {
		if w.Addr == addr {
			return w.Val, true
		}
	}
	return 0, false
}

// Encode returns the deterministic CBOR encoding of s.
func (s Snapshot) Encode() ([]byte, error) {
	return encMode.Marshal(s)
}

func ParseSnapshot(enc []byte) (Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(enc, &s); err != nil {
		return Snapshot{}, fmt.Errorf("reg: snapshot: %w", err)
	}
	return s, nil
}
