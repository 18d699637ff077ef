//go:build !tinygo

package espserial

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/tarm/serial"
)

// Open opens the serial port of a chip. If dev is empty, the usual
// USB serial devices are tried in turn. If reset is set, the chip is
// reset into download mode through the DTR and RTS lines, as wired
// on development boards.
func Open(dev string, reset bool) (io.ReadWriteCloser, error) {
	const (
		baudRate    = 115200
		readTimeout = 100 * time.Millisecond
	)

	var devices []string
	if dev != "" {
		devices = append(devices, dev)
	} else {
		switch runtime.GOOS {
		case "windows":
			devices = append(devices, "COM3")
		case "linux":
			// USB-Serial-JTAG, then external USB-UART bridges.
			devices = append(devices, "/dev/ttyACM0", "/dev/ttyUSB0", "/dev/ttyUSB1")
		}
	}
	if len(devices) == 0 {
		return nil, errors.New("espserial: no device specified")
	}
	var firstErr error
	for _, dev := range devices {
		c := &serial.Config{Name: dev, Baud: baudRate, ReadTimeout: readTimeout}
		s, err := serial.OpenPort(c)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if reset {
			if err := resetPort(dev); err != nil {
				s.Close()
				return nil, fmt.Errorf("espserial: reset %s: %w", dev, err)
			}
			// Drop the boot messages printed before the loader runs.
			if err := s.Flush(); err != nil {
				s.Close()
				return nil, err
			}
		}
		return s, nil
	}
	return nil, firstErr
}

// modemLines drives the control lines of a serial port.
type modemLines interface {
	SetDTR(on bool) error
	SetRTS(on bool) error
}

// enterLoader pulses the auto-program circuit of a development board:
// RTS holds EN low, DTR holds the boot strapping pin low, and the
// chip samples the pin when EN is released.
func enterLoader(l modemLines, sleep func(time.Duration)) error {
	steps := []struct {
		dtr, rts bool
		wait     time.Duration
	}{
		{false, true, 100 * time.Millisecond},
		{true, false, 50 * time.Millisecond},
		{false, false, 0},
	}
	for _, s := range steps {
		if err := l.SetDTR(s.dtr); err != nil {
			return err
		}
		if err := l.SetRTS(s.rts); err != nil {
			return err
		}
		if s.wait > 0 {
			sleep(s.wait)
		}
	}
	return nil
}
