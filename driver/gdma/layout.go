package gdma

import (
	"fmt"

	"gdma.dev/driver/system"
)

// loc is the address of a per-channel register relative to the
// engine base.
type loc struct {
	off, stride uint32
}

func (l loc) at(ch int) uint32 {
	return l.off + uint32(ch)*l.stride
}

// dirLayout describes the registers of one direction of a channel.
type dirLayout struct {
	conf0, link, pri, periSel loc
	// Interrupt status. On chips where both directions share one
	// status group, intRaw and intClr are the same for In and Out.
	intRaw, intClr loc

	// CONF0 bits.
	rst, dscrBurst, dataBurst uint32
	// LINK bits.
	linkStart uint32
	// Raw status bits.
	done, dscrErr uint32
	// Every status flag of the direction, written to intClr.
	clear uint32
}

type layout struct {
	base     uint32
	size     uint32
	miscConf uint32
	ahbmRst  uint32
	clkEn    uint32
	dirs     [2]dirLayout
}

// Field widths common to every supported chip.
const (
	linkAddrMask = 0xf_ffff
	priorityMask = 0xf
	periSelMask  = 0x3f
)

const base = 0x6003_f000

// ESP32-C2 and ESP32-C3 keep one interrupt group per channel for both
// directions and the configuration registers in a separate bank.
var layoutC3 = layout{
	base:     base,
	size:     0x1000,
	miscConf: 0x044,
	ahbmRst:  0b1 << 0,
	clkEn:    0b1 << 3,
	dirs: [2]dirLayout{
		Out: {
			conf0:     loc{0x0d0, 0xc0},
			link:      loc{0x0e0, 0xc0},
			pri:       loc{0x0fc, 0xc0},
			periSel:   loc{0x100, 0xc0},
			intRaw:    loc{0x000, 0x10},
			intClr:    loc{0x00c, 0x10},
			rst:       0b1 << 0,
			dscrBurst: 0b1 << 4,
			dataBurst: 0b1 << 5,
			linkStart: 0b1 << 21,
			done:      0b1 << 8, // OUT_TOTAL_EOF
			dscrErr:   0b1 << 6,
			// OUT_DONE | OUT_EOF | OUT_DSCR_ERR | OUT_TOTAL_EOF |
			// OUTFIFO_OVF | OUTFIFO_UDF
			clear: 0b1<<3 | 0b1<<4 | 0b1<<6 | 0b1<<8 | 0b1<<11 | 0b1<<12,
		},
		In: {
			conf0:     loc{0x070, 0xc0},
			link:      loc{0x080, 0xc0},
			pri:       loc{0x09c, 0xc0},
			periSel:   loc{0x0a0, 0xc0},
			intRaw:    loc{0x000, 0x10},
			intClr:    loc{0x00c, 0x10},
			rst:       0b1 << 0,
			dscrBurst: 0b1 << 2,
			dataBurst: 0b1 << 3,
			linkStart: 0b1 << 22,
			done:      0b1 << 1, // IN_SUC_EOF
			dscrErr:   0b1 << 5,
			// IN_DONE | IN_SUC_EOF | IN_ERR_EOF | IN_DSCR_ERR |
			// IN_DSCR_EMPTY | INFIFO_OVF | INFIFO_UDF
			clear: 0b1<<0 | 0b1<<1 | 0b1<<2 | 0b1<<5 | 0b1<<7 | 0b1<<9 | 0b1<<10,
		},
	},
}

// ESP32-S3 groups every register of a channel, with separate
// interrupt groups per direction and FIFO flags split by L1/L3 FIFO.
var layoutS3 = layout{
	base:     base,
	size:     0x1000,
	miscConf: 0x3c8,
	ahbmRst:  0b1 << 0,
	clkEn:    0b1 << 3,
	dirs: [2]dirLayout{
		Out: {
			conf0:     loc{0x060, 0xc0},
			link:      loc{0x080, 0xc0},
			pri:       loc{0x0a4, 0xc0},
			periSel:   loc{0x0a8, 0xc0},
			intRaw:    loc{0x068, 0xc0},
			intClr:    loc{0x074, 0xc0},
			rst:       0b1 << 0,
			dscrBurst: 0b1 << 4,
			dataBurst: 0b1 << 5,
			linkStart: 0b1 << 21,
			done:      0b1 << 3, // OUT_TOTAL_EOF
			dscrErr:   0b1 << 2,
			// OUT_DONE | OUT_EOF | OUT_DSCR_ERR | OUT_TOTAL_EOF |
			// OUTFIFO_OVF_L1 | OUTFIFO_UDF_L1 | OUTFIFO_OVF_L3 | OUTFIFO_UDF_L3
			clear: 0xff,
		},
		In: {
			conf0:     loc{0x000, 0xc0},
			link:      loc{0x020, 0xc0},
			pri:       loc{0x044, 0xc0},
			periSel:   loc{0x048, 0xc0},
			intRaw:    loc{0x008, 0xc0},
			intClr:    loc{0x014, 0xc0},
			rst:       0b1 << 0,
			dscrBurst: 0b1 << 2,
			dataBurst: 0b1 << 3,
			linkStart: 0b1 << 22,
			done:      0b1 << 1, // IN_SUC_EOF
			dscrErr:   0b1 << 3,
			// IN_DONE | IN_SUC_EOF | IN_ERR_EOF | IN_DSCR_ERR | IN_DSCR_EMPTY |
			// INFIFO_OVF_L1 | INFIFO_UDF_L1 | INFIFO_OVF_L3 | INFIFO_UDF_L3
			clear: 0x1ff,
		},
	},
}

// Variant describes the GDMA engine of one chip.
type Variant struct {
	Chip system.Chip
	// Channels is the number of physical channels.
	Channels int
	// Peripherals lists the peripherals each channel may be bound to,
	// indexed by channel.
	Peripherals []Peripherals

	layout *layout
}

var (
	peripheralsC2 = PeripheralSet(PeripheralSPI2, PeripheralUHCI0, PeripheralSHA, PeripheralADC)
	peripheralsC3 = PeripheralSet(PeripheralSPI2, PeripheralUHCI0, PeripheralI2S0,
		PeripheralAES, PeripheralSHA, PeripheralADC)
	peripheralsS3 = PeripheralSet(PeripheralSPI2, PeripheralSPI3, PeripheralUHCI0,
		PeripheralI2S0, PeripheralI2S1, PeripheralLCDCAM, PeripheralAES,
		PeripheralSHA, PeripheralADC, PeripheralRMT)
)

// With GDMA every channel can serve every peripheral of the chip.
var (
	ESP32C2 = &Variant{
		Chip:        system.ESP32C2,
		Channels:    1,
		Peripherals: []Peripherals{peripheralsC2},
		layout:      &layoutC3,
	}
	ESP32C3 = &Variant{
		Chip:        system.ESP32C3,
		Channels:    3,
		Peripherals: []Peripherals{peripheralsC3, peripheralsC3, peripheralsC3},
		layout:      &layoutC3,
	}
	ESP32S3 = &Variant{
		Chip:     system.ESP32S3,
		Channels: 5,
		Peripherals: []Peripherals{peripheralsS3, peripheralsS3, peripheralsS3,
			peripheralsS3, peripheralsS3},
		layout: &layoutS3,
	}
)

func VariantFor(chip system.Chip) (*Variant, error) {
	for _, v := range []*Variant{ESP32C2, ESP32C3, ESP32S3} {
		if v.Chip == chip {
			return v, nil
		}
	}
	return nil, fmt.Errorf("gdma: no engine on %v", chip)
}

// Base returns the address of the engine's register block.
func (v *Variant) Base() uint32 {
	return v.layout.base
}

// Size returns the size of the engine's register block.
func (v *Variant) Size() uint32 {
	return v.layout.size
}

// Registers returns the addresses of the configuration and status
// registers of channel ch. None of them have read side effects.
func (v *Variant) Registers(ch int) []uint32 {
	l := v.layout
	var addrs []uint32
	for _, d := range []Dir{Out, In} {
		dl := &l.dirs[d]
		for _, r := range []loc{dl.conf0, dl.link, dl.pri, dl.periSel, dl.intRaw} {
			a := l.base + r.at(ch)
			if d == In && r == dl.intRaw && dl.intRaw == l.dirs[Out].intRaw {
				continue
			}
			addrs = append(addrs, a)
		}
	}
	return addrs
}
