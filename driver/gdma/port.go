package gdma

import (
	"fmt"

	"gdma.dev/reg"
)

// Port is the register interface of one direction of one channel.
// Every operation is a single infallible register access or pulse.
type Port interface {
	// Init performs direction specific bring-up.
	Init()
	// SetBurstMode enables or disables both data bursts and burst
	// descriptor fetches.
	SetBurstMode(on bool)
	SetPriority(p Priority)
	// ClearInterrupts clears every status flag of the direction.
	ClearInterrupts()
	// Reset pulses the direction's reset, returning its state machine
	// to idle.
	Reset()
	// SetDescriptorBase programs the address of the first descriptor.
	SetDescriptorBase(addr uint32)
	HasDescriptorError() bool
	// SetPeripheral binds the direction to a peripheral FIFO.
	SetPeripheral(id PeripheralID)
	// Start begins walking the descriptor chain.
	Start()
	// IsDone reports whether the whole chain has been transferred.
	IsDone() bool
}

type regPort struct {
	f  reg.File
	l  *layout
	d  *dirLayout
	ch int
}

// newPort returns the Port of direction dir of channel ch. newPort
// panics if the variant has no channel ch.
func newPort(f reg.File, v *Variant, ch int, dir Dir) Port {
	if ch < 0 || ch >= v.Channels {
		panic(fmt.Sprintf("gdma: %v has no channel %d", v.Chip, ch))
	}
	return &regPort{f: f, l: v.layout, d: &v.layout.dirs[dir], ch: ch}
}

func (p *regPort) addr(r loc) uint32 {
	return p.l.base + r.at(p.ch)
}

func (p *regPort) Init() {
	// Nothing to do on GDMA.
}

func (p *regPort) SetBurstMode(on bool) {
	mask := p.d.dscrBurst | p.d.dataBurst
	var v uint32
	if on {
		v = mask
	}
	reg.Modify(p.f, p.addr(p.d.conf0), mask, v)
}

func (p *regPort) SetPriority(prio Priority) {
	p.f.Store(p.addr(p.d.pri), uint32(prio)&priorityMask)
}

func (p *regPort) ClearInterrupts() {
	p.f.Store(p.addr(p.d.intClr), p.d.clear)
}

func (p *regPort) Reset() {
	a := p.addr(p.d.conf0)
	reg.SetBits(p.f, a, p.d.rst)
	reg.ClearBits(p.f, a, p.d.rst)
}

func (p *regPort) SetDescriptorBase(addr uint32) {
	reg.Modify(p.f, p.addr(p.d.link), linkAddrMask, addr)
}

func (p *regPort) HasDescriptorError() bool {
	return reg.HasBits(p.f, p.addr(p.d.intRaw), p.d.dscrErr)
}

func (p *regPort) SetPeripheral(id PeripheralID) {
	reg.Modify(p.f, p.addr(p.d.periSel), periSelMask, uint32(id))
}

func (p *regPort) Start() {
	reg.SetBits(p.f, p.addr(p.d.link), p.d.linkStart)
}

func (p *regPort) IsDone() bool {
	return reg.HasBits(p.f, p.addr(p.d.intRaw), p.d.done)
}
