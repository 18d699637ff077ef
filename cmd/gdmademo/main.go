//go:build tinygo

// Command gdmademo brings up the GDMA engine of the running chip and
// streams a buffer out through SPI2.
package main

import (
	"time"
	"unsafe"

	"gdma.dev/driver/gdma"
	"gdma.dev/driver/system"
	"gdma.dev/reg"
)

// Descriptor words: size/length/owner, buffer address, next
// descriptor.
const (
	dscrOwnerDMA = 0b1 << 31
	dscrEOF      = 0b1 << 30
)

var (
	txDescriptors [3]uint32
	rxDescriptors [3]uint32
	txBuf         [64]byte
	rxBuf         [64]byte
)

func main() {
	var f reg.MMIO
	gate := system.New(f, system.ESP32C3)
	e, err := gdma.New(f, gdma.ESP32C3, gate)
	if err != nil {
		fail(err)
	}
	gate.Enable(system.Spi2)
	fill(txDescriptors[:], txBuf[:], true)
	fill(rxDescriptors[:], rxBuf[:], false)
	tx, rx := gdma.ChainOf(txDescriptors[:], 1), gdma.ChainOf(rxDescriptors[:], 1)
	ch, err := e.Creators()[0].Configure(false, tx, rx, 0)
	if err != nil {
		fail(err)
	}
	for i := range txBuf {
		txBuf[i] = byte(i)
	}
	for {
		if err := ch.Tx.Configure(tx); err != nil {
			fail(err)
		}
		if err := ch.Tx.Start(gdma.PeripheralSPI2); err != nil {
			fail(err)
		}
		for s := ch.Tx.Poll(); !s.Done; s = ch.Tx.Poll() {
			if s.DescriptorError {
				println("gdmademo: descriptor error")
				ch.Halt()
				break
			}
		}
		ch.Tx.Acknowledge()
		time.Sleep(time.Second)
	}
}

func fill(d []uint32, buf []byte, eof bool) {
	n := uint32(len(buf))
	d[0] = dscrOwnerDMA | n<<12 | n
	if eof {
		d[0] |= dscrEOF
	}
	d[1] = uint32(uintptr(unsafe.Pointer(&buf[0])))
	d[2] = 0
}

func fail(err error) {
	for {
		println("gdmademo:", err.Error())
		time.Sleep(time.Second)
	}
}
