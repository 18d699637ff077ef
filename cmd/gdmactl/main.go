//go:build !tinygo

// Command gdmactl brings up the GDMA engine of a chip, runs one
// transfer on a channel and optionally dumps its registers.
//
// Registers are reached through the ROM loader of a chip in download
// mode (-device), through /dev/mem (-phys), or simulated.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"slices"
	"time"

	"gdma.dev/driver/espserial"
	"gdma.dev/driver/gdma"
	"gdma.dev/driver/system"
	"gdma.dev/reg"
	"periph.io/x/conn/v3"
)

var (
	serialDev = flag.String("device", "", "serial device of a chip in download mode, or auto")
	resetChip = flag.Bool("reset", false, "reset the chip into download mode through DTR and RTS")
	physMem   = flag.Bool("phys", false, "access registers through /dev/mem")
	chipName  = flag.String("chip", "esp32c3", "chip: esp32c2, esp32c3 or esp32s3")
	channel   = flag.Int("channel", 0, "DMA channel")
	burst     = flag.Bool("burst", false, "enable burst transfers")
	priority  = flag.Uint("priority", 0, "arbitration priority")
	txBase    = flag.Uint("tx", 0x3fc8_0000, "address of the transmit descriptor chain")
	rxBase    = flag.Uint("rx", 0x3fc8_0100, "address of the receive descriptor chain")
	periph    = flag.Uint("peripheral", uint(gdma.PeripheralSPI2), "peripheral select id")
	timeout   = flag.Duration("timeout", time.Second, "transfer timeout")
	snapshot  = flag.String("snapshot", "", "write a CBOR register snapshot to file")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gdmactl: %v\n", err)
		os.Exit(1)
	}
}

type registers struct {
	f     reg.File
	sim   *gdma.Simulator
	close func() error
}

func openRegisters(v *gdma.Variant) (*registers, error) {
	switch {
	case *serialDev != "":
		dev := *serialDev
		if dev == "auto" {
			dev = ""
		}
		rw, err := espserial.Open(dev, *resetChip)
		if err != nil {
			return nil, err
		}
		b, err := espserial.Connect(rw)
		if err != nil {
			rw.Close()
			return nil, err
		}
		return &registers{f: b, close: rw.Close}, nil
	case *physMem:
		f, closer, err := openPhys(v)
		if err != nil {
			return nil, err
		}
		return &registers{f: f, close: closer}, nil
	default:
		sim := gdma.NewSimulator(v)
		return &registers{f: sim, sim: sim, close: func() error { return nil }}, nil
	}
}

func run() error {
	chip, err := system.ParseChip(*chipName)
	if err != nil {
		return err
	}
	v, err := gdma.VariantFor(chip)
	if err != nil {
		return err
	}
	if *priority > uint(gdma.MaxPriority) {
		return fmt.Errorf("priority %d out of range 0-%d", *priority, gdma.MaxPriority)
	}
	regs, err := openRegisters(v)
	if err != nil {
		return err
	}
	defer regs.close()

	gate := system.New(regs.f, chip)
	e, err := gdma.New(regs.f, v, gate)
	if err != nil {
		return err
	}
	cr, err := e.Creator(*channel)
	if err != nil {
		return err
	}
	tx := gdma.Chain{Base: uint32(*txBase), Len: 1}
	rx := gdma.Chain{Base: uint32(*rxBase), Len: 1}
	ch, err := cr.Configure(*burst, tx, rx, gdma.Priority(*priority))
	if err != nil {
		return err
	}
	resources := []conn.Resource{ch}
	p := gdma.PeripheralID(*periph)
	if !ch.Supports(p) {
		return fmt.Errorf("%v cannot serve %v, only %v", ch, p, ch.Peripherals())
	}
	werr := transfer(ch, p, regs.sim)
	if werr != nil {
		log.Printf("gdmactl: %v: %v", ch, werr)
		werr = errors.Join(werr, halt(resources))
	}
	if b, ok := regs.f.(*espserial.Bridge); ok && b.Err() != nil {
		return b.Err()
	}
	if *snapshot != "" {
		addrs := slices.Concat(gate.Registers(), v.Registers(ch.Index()))
		enc, err := reg.Capture(chip.String(), regs.f, addrs).Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(*snapshot, enc, 0o640); err != nil {
			return err
		}
	}
	return werr
}

func transfer(ch *gdma.Channel, p gdma.PeripheralID, sim *gdma.Simulator) error {
	if err := ch.Rx.Configure(ch.Rx.Chain()); err != nil {
		return err
	}
	if err := ch.Tx.Configure(ch.Tx.Chain()); err != nil {
		return err
	}
	if err := ch.Rx.Start(p); err != nil {
		return err
	}
	if err := ch.Tx.Start(p); err != nil {
		return err
	}
	if sim != nil {
		sim.Complete(ch.Index(), gdma.Out)
		sim.Complete(ch.Index(), gdma.In)
	}
	ctx, stop := signal.NotifyContext(context.Background(), stopSignals...)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	start := time.Now()
	if err := errors.Join(ch.Tx.Wait(ctx), ch.Rx.Wait(ctx)); err != nil {
		return err
	}
	fmt.Printf("%v: transfer complete in %v\n", ch, time.Since(start))
	return errors.Join(ch.Tx.Acknowledge(), ch.Rx.Acknowledge())
}

// halt stops every resource, the most recently opened first.
func halt(rs []conn.Resource) error {
	var errs []error
	for i := len(rs) - 1; i >= 0; i-- {
		r := rs[i]
		if err := r.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt %v: %w", r, err))
			continue
		}
		log.Printf("gdmactl: halted %v", r)
	}
	return errors.Join(errs...)
}
