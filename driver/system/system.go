// Package system controls the peripheral clock and reset lines of
// the SYSTEM register block on Espressif chips with a GDMA engine.
package system

import (
	"errors"
	"fmt"

	"gdma.dev/reg"
)

// Base is the address of the SYSTEM register block.
const Base = 0x600c_0000

// Chip identifies a supported chip variant.
type Chip int

const (
	ESP32C2 Chip = iota
	ESP32C3
	ESP32S3
)

var chipNames = [...]string{
	ESP32C2: "esp32c2",
	ESP32C3: "esp32c3",
	ESP32S3: "esp32s3",
}

func (c Chip) String() string {
	if c < 0 || int(c) >= len(chipNames) {
		return fmt.Sprintf("Chip(%d)", int(c))
	}
	return chipNames[c]
}

func ParseChip(name string) (Chip, error) {
	for c, n := range chipNames {
		if n == name {
			return Chip(c), nil
		}
	}
	return 0, fmt.Errorf("system: unknown chip %q", name)
}

// Peripheral names a clock domain that can be enabled.
type Peripheral int

const (
	Spi2 Peripheral = iota
	Spi3
	I2cExt0
	I2cExt1
	Rmt
	Ledc
	ApbSarAdc
	Gdma
	Usb

	numPeripherals
)

var peripheralNames = [...]string{
	Spi2:      "spi2",
	Spi3:      "spi3",
	I2cExt0:   "i2c_ext0",
	I2cExt1:   "i2c_ext1",
	Rmt:       "rmt",
	Ledc:      "ledc",
	ApbSarAdc: "apb_saradc",
	Gdma:      "gdma",
	Usb:       "usb",
}

func (p Peripheral) String() string {
	if p < 0 || p >= numPeripherals {
		return fmt.Sprintf("Peripheral(%d)", int(p))
	}
	return peripheralNames[p]
}

// bank is a PERIP_CLK_ENn/PERIP_RST_ENn register pair.
type bank struct {
	clk, rst uint32
}

type gate struct {
	bank int
	bit  uint32
}

type chipTable struct {
	banks [2]bank
	gates [numPeripherals][]gate
}

// Bit positions in PERIP_CLK_EN0/PERIP_RST_EN0.
const (
	bitSpi2      = 6
	bitI2cExt0   = 7
	bitRmt       = 9
	bitLedc      = 11
	bitSpi3      = 16
	bitI2cExt1   = 18
	bitUsb       = 23
	bitApbSarAdc = 28

	// PERIP_CLK_EN1/PERIP_RST_EN1.
	bitDma = 6
)

var tables = [...]chipTable{
	ESP32C2: {
		banks: [2]bank{{clk: 0x10, rst: 0x18}, {clk: 0x14, rst: 0x1c}},
		gates: [numPeripherals][]gate{
			Spi2:      {{0, bitSpi2}},
			I2cExt0:   {{0, bitI2cExt0}},
			Ledc:      {{0, bitLedc}},
			ApbSarAdc: {{0, bitApbSarAdc}},
			Gdma:      {{1, bitDma}},
		},
	},
	ESP32C3: {
		banks: [2]bank{{clk: 0x10, rst: 0x18}, {clk: 0x14, rst: 0x1c}},
		gates: [numPeripherals][]gate{
			Spi2:      {{0, bitSpi2}},
			Spi3:      {{0, bitSpi3}},
			I2cExt0:   {{0, bitI2cExt0}},
			Rmt:       {{0, bitRmt}},
			Ledc:      {{0, bitLedc}},
			ApbSarAdc: {{0, bitApbSarAdc}},
			Gdma:      {{1, bitDma}},
		},
	},
	ESP32S3: {
		banks: [2]bank{{clk: 0x18, rst: 0x20}, {clk: 0x1c, rst: 0x24}},
		gates: [numPeripherals][]gate{
			Spi2:    {{0, bitSpi2}},
			Spi3:    {{0, bitSpi3}},
			I2cExt0: {{0, bitI2cExt0}},
			I2cExt1: {{0, bitI2cExt1}},
			Rmt:     {{0, bitRmt}},
			Ledc:    {{0, bitLedc}},
			Gdma:    {{1, bitDma}},
			Usb:     {{0, bitUsb}},
		},
	},
}

var errUnknownChip = errors.New("system: unknown chip")

// ClockGate enables peripheral clock domains. The underlying
// registers are shared by every peripheral driver of the chip.
type ClockGate struct {
	f    reg.File
	chip Chip
	t    *chipTable
}

func New(f reg.File, chip Chip) *ClockGate {
	if chip < 0 || int(chip) >= len(tables) {
		panic(errUnknownChip)
	}
	return &ClockGate{f: f, chip: chip, t: &tables[chip]}
}

func (g *ClockGate) Chip() Chip {
	return g.chip
}

// Has reports whether p exists on the chip.
func (g *ClockGate) Has(p Peripheral) bool {
	return p >= 0 && p < numPeripherals && len(g.t.gates[p]) > 0
}

// Enable turns on the clock of p and releases it from reset. Enabling
// an enabled peripheral has no effect. Enable panics if p is not
// present on the chip.
func (g *ClockGate) Enable(p Peripheral) {
	if !g.Has(p) {
		panic(fmt.Sprintf("system: %v not present on %v", p, g.chip))
	}
	for _, gt := range g.t.gates[p] {
		b := g.t.banks[gt.bank]
		reg.SetBits(g.f, Base+b.clk, 0b1<<gt.bit)
		reg.ClearBits(g.f, Base+b.rst, 0b1<<gt.bit)
	}
}

// Enabled reports whether p is clocked and out of reset.
func (g *ClockGate) Enabled(p Peripheral) bool {
	if !g.Has(p) {
		return false
	}
	for _, gt := range g.t.gates[p] {
		b := g.t.banks[gt.bank]
		if !reg.HasBits(g.f, Base+b.clk, 0b1<<gt.bit) || reg.HasBits(g.f, Base+b.rst, 0b1<<gt.bit) {
			return false
		}
	}
	return true
}

// Registers returns the addresses of the clock-enable and reset
// registers of the chip.
func (g *ClockGate) Registers() []uint32 {
	var addrs []uint32
	for _, b := range g.t.banks {
		addrs = append(addrs, Base+b.clk, Base+b.rst)
	}
	return addrs
}
