package gdma

import (
	"fmt"
	"sync"

	"gdma.dev/driver/system"
	"gdma.dev/reg"
)

// Gate enables peripheral clock domains. [system.ClockGate]
// implements it.
type Gate interface {
	Enable(p system.Peripheral)
}

var (
	claimMu sync.Mutex
	// claimed tracks the register files with an engine.
	claimed = make(map[reg.File]bool)
)

// Engine is an initialized GDMA engine.
type Engine struct {
	f reg.File
	v *Variant

	mu       sync.Mutex
	creators []*ChannelCreator
}

// New enables the clock of the engine, resets it and returns it with
// one ChannelCreator per physical channel. It fails if an engine
// has already been created for f, so each channel can be configured
// at most once per process. f must be comparable.
func New(f reg.File, v *Variant, gate Gate) (*Engine, error) {
	claimMu.Lock()
	defer claimMu.Unlock()
	if claimed[f] {
		return nil, ErrEngineTaken
	}
	claimed[f] = true

	gate.Enable(system.Gdma)
	l := v.layout
	misc := l.base + l.miscConf
	reg.SetBits(f, misc, l.ahbmRst)
	reg.ClearBits(f, misc, l.ahbmRst)
	reg.SetBits(f, misc, l.clkEn)

	e := &Engine{f: f, v: v}
	for i := range v.Channels {
		e.creators = append(e.creators, &ChannelCreator{e: e, index: i})
	}
	return e, nil
}

func (e *Engine) Variant() *Variant {
	return e.v
}

// Creators returns the creators of every channel, indexed by channel.
func (e *Engine) Creators() []*ChannelCreator {
	return e.creators
}

func (e *Engine) Creator(ch int) (*ChannelCreator, error) {
	if ch < 0 || ch >= len(e.creators) {
		return nil, fmt.Errorf("%w: %d", ErrNoChannel, ch)
	}
	return e.creators[ch], nil
}
