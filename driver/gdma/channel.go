package gdma

import (
	"fmt"

	"periph.io/x/conn/v3"
)

// Channel is a configured DMA channel. Its burst mode and priority are
// fixed for the lifetime of the channel.
type Channel struct {
	Tx *Tx
	Rx *Rx

	index   int
	burst   bool
	prio    Priority
	allowed Peripherals
}

var _ conn.Resource = (*Channel)(nil)

func (c *Channel) Index() int {
	return c.index
}

func (c *Channel) BurstMode() bool {
	return c.burst
}

func (c *Channel) Priority() Priority {
	return c.prio
}

// Peripherals returns the peripherals the channel may be bound to.
func (c *Channel) Peripherals() Peripherals {
	return c.allowed
}

// Supports reports whether the channel may be bound to p. Drivers
// check it before accepting a channel.
func (c *Channel) Supports(p PeripheralID) bool {
	return c.allowed.Has(p)
}

func (c *Channel) String() string {
	return fmt.Sprintf("gdma.ch%d", c.index)
}

// Halt stops both directions and clears their status.
func (c *Channel) Halt() error {
	c.Tx.Halt()
	c.Rx.Halt()
	return nil
}

// ChannelCreator turns one physical channel into a Channel. It can be
// used once. Creators come from [New]; the zero value has no channel.
type ChannelCreator struct {
	e     *Engine
	index int
	used  bool
}

func (c *ChannelCreator) Index() int {
	return c.index
}

// Configure initializes both directions of the channel with the given
// burst mode and priority, points them at tx and rx and returns the
// channel. tx and rx are the descriptor chains the channel transfers
// from and to; they must outlive the channel. Configure fails
// without touching any register if a chain is empty, the priority is
// out of range or the creator has already been used.
func (c *ChannelCreator) Configure(burst bool, tx, rx Chain, prio Priority) (*Channel, error) {
	if c.e == nil {
		return nil, ErrNoChannel
	}
	c.e.mu.Lock()
	defer c.e.mu.Unlock()
	if c.used {
		return nil, fmt.Errorf("ch%d: %w", c.index, ErrTaken)
	}
	if tx.Empty() || rx.Empty() {
		return nil, fmt.Errorf("ch%d: %w", c.index, ErrEmptyChain)
	}
	if prio > MaxPriority {
		return nil, fmt.Errorf("ch%d: %w: %d", c.index, ErrPriority, prio)
	}
	c.used = true

	v := c.e.v
	allowed := v.Peripherals[c.index]
	ch := &Channel{
		index:   c.index,
		burst:   burst,
		prio:    prio,
		allowed: allowed,
		Tx: &Tx{transfer{
			port:    newPort(c.e.f, v, c.index, Out),
			ch:      c.index,
			dir:     Out,
			allowed: allowed,
			chain:   tx,
		}},
		Rx: &Rx{transfer{
			port:    newPort(c.e.f, v, c.index, In),
			ch:      c.index,
			dir:     In,
			allowed: allowed,
			chain:   rx,
		}},
	}
	ch.Tx.init(burst, prio)
	ch.Rx.init(burst, prio)
	return ch, nil
}
