package gdma

import (
	"gdma.dev/driver/system"
	"gdma.dev/reg"
)

// Simulator is an in-memory model of a GDMA engine and the SYSTEM
// registers of its chip. It implements the side effects drivers rely
// on: write-one-to-clear status, self-clearing start bits, channel
// and engine resets. Transfers complete only when told to.
type Simulator struct {
	v   *Variant
	mem *reg.Mem
	// Clock gate over the simulated registers, for inspection.
	gate    *system.ClockGate
	regs    map[uint32]simReg
	running [][2]bool
	writes  int
}

type regKind uint8

const (
	kindConf0 regKind = iota
	kindLink
	kindIntClr
)

type simReg struct {
	kind regKind
	ch   int
	dir  Dir
}

func NewSimulator(v *Variant) *Simulator {
	s := &Simulator{
		v:       v,
		mem:     reg.NewMem(),
		regs:    make(map[uint32]simReg),
		running: make([][2]bool, v.Channels),
	}
	l := v.layout
	for ch := range v.Channels {
		for _, dir := range []Dir{Out, In} {
			d := &l.dirs[dir]
			s.regs[l.base+d.conf0.at(ch)] = simReg{kindConf0, ch, dir}
			s.regs[l.base+d.link.at(ch)] = simReg{kindLink, ch, dir}
			s.regs[l.base+d.intClr.at(ch)] = simReg{kindIntClr, ch, dir}
		}
	}
	s.gate = system.New(s.mem, v.Chip)
	// Every peripheral is held in reset at power-on.
	regs := s.gate.Registers()
	for i := 1; i < len(regs); i += 2 {
		s.mem.Store(regs[i], 0xffff_ffff)
	}
	return s
}

func (s *Simulator) Load(addr uint32) uint32 {
	if r, ok := s.regs[addr]; ok && r.kind == kindIntClr {
		return 0
	}
	return s.mem.Load(addr)
}

func (s *Simulator) Store(addr uint32, v uint32) {
	s.writes++
	l := s.v.layout
	if addr == l.base+l.miscConf && v&l.ahbmRst != 0 {
		s.resetEngine()
	}
	r, ok := s.regs[addr]
	if !ok {
		s.mem.Store(addr, v)
		return
	}
	d := &l.dirs[r.dir]
	switch r.kind {
	case kindConf0:
		if v&d.rst != 0 {
			s.running[r.ch][r.dir] = false
		}
	case kindLink:
		if v&d.linkStart != 0 {
			s.running[r.ch][r.dir] = true
			v &^= d.linkStart
		}
	case kindIntClr:
		raw := l.base + d.intRaw.at(r.ch)
		s.mem.Store(raw, s.mem.Load(raw)&^v)
		return
	}
	s.mem.Store(addr, v)
}

func (s *Simulator) resetEngine() {
	for ch := range s.v.Channels {
		for _, a := range s.v.Registers(ch) {
			s.mem.Store(a, 0)
		}
		s.running[ch] = [2]bool{}
	}
}

// Writes returns the number of register stores so far.
func (s *Simulator) Writes() int {
	return s.writes
}

// Gate returns a clock gate over the simulated SYSTEM registers.
func (s *Simulator) Gate() *system.ClockGate {
	return s.gate
}

// Clocked reports whether the engine's clock domain is enabled and
// its internal clock is on.
func (s *Simulator) Clocked() bool {
	l := s.v.layout
	return s.gate.Enabled(system.Gdma) && s.mem.Load(l.base+l.miscConf)&l.clkEn != 0
}

// Running reports whether the direction is walking its chain.
func (s *Simulator) Running(ch int, dir Dir) bool {
	return s.running[ch][dir]
}

// Complete finishes the running transfer of the direction, raising its
// total end-of-frame flag. It reports whether a transfer was running.
func (s *Simulator) Complete(ch int, dir Dir) bool {
	return s.raise(ch, dir, s.v.layout.dirs[dir].done)
}

// FailDescriptor aborts the running transfer of the direction with a
// descriptor error. It reports whether a transfer was running.
func (s *Simulator) FailDescriptor(ch int, dir Dir) bool {
	return s.raise(ch, dir, s.v.layout.dirs[dir].dscrErr)
}

func (s *Simulator) raise(ch int, dir Dir, flag uint32) bool {
	if !s.running[ch][dir] {
		return false
	}
	s.running[ch][dir] = false
	l := s.v.layout
	raw := l.base + l.dirs[dir].intRaw.at(ch)
	s.mem.Store(raw, s.mem.Load(raw)|flag)
	return true
}

func (s *Simulator) load(ch int, dir Dir, r func(*dirLayout) loc) uint32 {
	l := s.v.layout
	return s.mem.Load(l.base + r(&l.dirs[dir]).at(ch))
}

// BurstMode reports whether both burst enables of the direction are
// set.
func (s *Simulator) BurstMode(ch int, dir Dir) bool {
	d := &s.v.layout.dirs[dir]
	mask := d.dscrBurst | d.dataBurst
	return s.load(ch, dir, func(d *dirLayout) loc { return d.conf0 })&mask == mask
}

func (s *Simulator) Priority(ch int, dir Dir) Priority {
	return Priority(s.load(ch, dir, func(d *dirLayout) loc { return d.pri }) & priorityMask)
}

func (s *Simulator) DescriptorBase(ch int, dir Dir) uint32 {
	return s.load(ch, dir, func(d *dirLayout) loc { return d.link }) & linkAddrMask
}

func (s *Simulator) Peripheral(ch int, dir Dir) PeripheralID {
	return PeripheralID(s.load(ch, dir, func(d *dirLayout) loc { return d.periSel }) & periSelMask)
}

// Status returns the raw interrupt status word of the direction.
func (s *Simulator) Status(ch int, dir Dir) uint32 {
	return s.load(ch, dir, func(d *dirLayout) loc { return d.intRaw })
}
