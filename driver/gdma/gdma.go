// Package gdma drives the general-purpose DMA engine of Espressif
// chips.
//
// [New] brings the engine out of reset and hands out one
// [ChannelCreator] per physical channel. Configuring a creator yields
// a [Channel] whose [Tx] and [Rx] halves each walk a caller-owned
// descriptor chain:
//
//	ch, err := e.Creators()[0].Configure(false, txChain, rxChain, 0)
//	...
//	ch.Tx.Configure(txChain)
//	ch.Tx.Start(gdma.PeripheralSPI2)
//	for !ch.Tx.Poll().Done {
//	}
//	ch.Tx.Acknowledge()
//
// Descriptor memory is only referenced by address. It must stay valid
// and unmodified from Configure until the following Acknowledge.
package gdma

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

var (
	ErrEmptyChain           = errors.New("gdma: empty descriptor chain")
	ErrPriority             = errors.New("gdma: priority out of range")
	ErrTaken                = errors.New("gdma: channel already configured")
	ErrEngineTaken          = errors.New("gdma: engine already initialized")
	ErrNoChannel            = errors.New("gdma: no such channel")
	ErrNotConfigured        = errors.New("gdma: transfer not configured")
	ErrNotRunning           = errors.New("gdma: transfer not running")
	ErrBusy                 = errors.New("gdma: transfer in progress")
	ErrNotAcknowledged      = errors.New("gdma: completed transfer not acknowledged")
	ErrUnsuitablePeripheral = errors.New("gdma: peripheral not supported by channel")
	ErrDescriptor           = errors.New("gdma: descriptor error")
)

// Dir is a transfer direction.
type Dir uint8

const (
	Out Dir = iota // memory to peripheral
	In             // peripheral to memory
)

func (d Dir) String() string {
	if d == Out {
		return "tx"
	}
	return "rx"
}

// Priority resolves bus arbitration between channels. Higher values
// win.
type Priority uint8

const MaxPriority Priority = 15

// Chain is a descriptor chain in memory owned by the caller.
type Chain struct {
	// Base is the bus address of the first descriptor.
	Base uint32
	// Len is the number of descriptors.
	Len int
}

// Empty reports whether c is missing or has no descriptors.
func (c Chain) Empty() bool {
	return c.Base == 0 || c.Len <= 0
}

// PeripheralID selects the peripheral FIFO a channel is bound to.
type PeripheralID uint8

const (
	PeripheralSPI2   PeripheralID = 0
	PeripheralSPI3   PeripheralID = 1
	PeripheralUHCI0  PeripheralID = 2
	PeripheralI2S0   PeripheralID = 3
	PeripheralI2S1   PeripheralID = 4
	PeripheralLCDCAM PeripheralID = 5
	PeripheralAES    PeripheralID = 6
	PeripheralSHA    PeripheralID = 7
	PeripheralADC    PeripheralID = 8
	PeripheralRMT    PeripheralID = 9
)

var peripheralNames = [...]string{
	PeripheralSPI2:   "spi2",
	PeripheralSPI3:   "spi3",
	PeripheralUHCI0:  "uhci0",
	PeripheralI2S0:   "i2s0",
	PeripheralI2S1:   "i2s1",
	PeripheralLCDCAM: "lcd_cam",
	PeripheralAES:    "aes",
	PeripheralSHA:    "sha",
	PeripheralADC:    "adc",
	PeripheralRMT:    "rmt",
}

func (p PeripheralID) String() string {
	if int(p) < len(peripheralNames) {
		return peripheralNames[p]
	}
	return fmt.Sprintf("peripheral%d", uint8(p))
}

// Peripherals is a set of peripherals a channel may be bound to.
type Peripherals uint32

// PeripheralSet returns the set of ids.
func PeripheralSet(ids ...PeripheralID) Peripherals {
	var s Peripherals
	for _, id := range ids {
		s |= 0b1 << id
	}
	return s
}

func (s Peripherals) Has(id PeripheralID) bool {
	return id < 32 && s&(0b1<<id) != 0
}

func (s Peripherals) Len() int {
	return bits.OnesCount32(uint32(s))
}

func (s Peripherals) String() string {
	var names []string
	for id := PeripheralID(0); id < 32; id++ {
		if s.Has(id) {
			names = append(names, id.String())
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}

// Status is the hardware status of one direction of a channel.
type Status struct {
	// Done is set when the whole chain has been transferred.
	Done bool
	// DescriptorError is set when the engine fetched an invalid
	// descriptor.
	DescriptorError bool
}
