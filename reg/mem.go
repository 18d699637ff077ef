package reg

import (
	"fmt"
	"slices"
)

// Mem is a sparse, zero-initialized register space held in memory.
type Mem struct {
	words map[uint32]uint32
}

func NewMem() *Mem {
	return &Mem{words: make(map[uint32]uint32)}
}

func (m *Mem) Load(addr uint32) uint32 {
	return m.words[addr]
}

func (m *Mem) Store(addr uint32, v uint32) {
	if v == 0 {
		delete(m.words, addr)
		return
	}
	m.words[addr] = v
}

// Addrs returns the addresses of the non-zero registers in
// ascending order.
func (m *Mem) Addrs() []uint32 {
	addrs := make([]uint32, 0, len(m.words))
	for a := range m.words {
		addrs = append(addrs, a)
	}
	slices.Sort(addrs)
	return addrs
}

// Op is a single register access.
type Op struct {
	Write bool
	Addr  uint32
	Val   uint32
}

func (o Op) String() string {
	dir := "R"
	if o.Write {
		dir = "W"
	}
	return fmt.Sprintf("%s %#010x %#010x", dir, o.Addr, o.Val)
}

// Recorder forwards accesses to File and logs every one of them.
type Recorder struct {
	File File
	Ops  []Op
}

func (r *Recorder) Load(addr uint32) uint32 {
	v := r.File.Load(addr)
	r.Ops = append(r.Ops, Op{Addr: addr, Val: v})
	return v
}

func (r *Recorder) Store(addr uint32, v uint32) {
	r.Ops = append(r.Ops, Op{Write: true, Addr: addr, Val: v})
	r.File.Store(addr, v)
}

// Writes returns the logged stores, in order.
func (r *Recorder) Writes() []Op {
	var w []Op
	for _, op := range r.Ops {
		if op.Write {
			w = append(w, op)
		}
	}
	return w
}

// Reset discards the log.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}
