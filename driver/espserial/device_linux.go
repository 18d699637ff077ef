//go:build linux && !tinygo

package espserial

import (
	"time"

	"golang.org/x/sys/unix"
)

// tty controls the modem lines of a terminal device.
type tty struct {
	fd int
}

func (t tty) set(line int, on bool) error {
	req := uint(unix.TIOCMBIC)
	if on {
		req = unix.TIOCMBIS
	}
	return unix.IoctlSetPointerInt(t.fd, req, line)
}

func (t tty) SetDTR(on bool) error {
	return t.set(unix.TIOCM_DTR, on)
}

func (t tty) SetRTS(on bool) error {
	return t.set(unix.TIOCM_RTS, on)
}

func resetPort(dev string) error {
	fd, err := unix.Open(dev, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)
	return enterLoader(tty{fd: fd}, time.Sleep)
}
