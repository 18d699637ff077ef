//go:build linux && !tinygo

package main

import (
	"errors"

	"gdma.dev/driver/gdma"
	"gdma.dev/driver/system"
	"gdma.dev/reg"
)

// systemSize covers the clock and reset registers of every chip.
const systemSize = 0x100

func openPhys(v *gdma.Variant) (reg.File, func() error, error) {
	dma, err := reg.OpenPhys(v.Base(), int(v.Size()))
	if err != nil {
		return nil, nil, err
	}
	sys, err := reg.OpenPhys(system.Base, systemSize)
	if err != nil {
		dma.Close()
		return nil, nil, err
	}
	bus := new(reg.Bus)
	if err := bus.Map(v.Base(), v.Size(), dma); err != nil {
		return nil, nil, err
	}
	if err := bus.Map(system.Base, systemSize, sys); err != nil {
		return nil, nil, err
	}
	closer := func() error {
		return errors.Join(dma.Close(), sys.Close())
	}
	return bus, closer, nil
}
