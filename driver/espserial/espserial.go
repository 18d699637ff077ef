// Package espserial reaches the registers of an Espressif chip
// through the serial protocol of its ROM loader.
//
// The chip must be in download mode. Every register access is one
// request and one response, so a [Bridge] is slow but good enough to
// poke at peripherals from a host during bring-up.
package espserial

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
)

// Loader commands.
const (
	cmdSync     = 0x08
	cmdWriteReg = 0x09
	cmdReadReg  = 0x0a
)

const (
	dirRequest  = 0x00
	dirResponse = 0x01

	headerLen = 8
	// Status bytes trailing every response on ESP32-C2, ESP32-C3 and
	// ESP32-S3 ROMs.
	statusLen = 2

	syncAttempts = 5
	// Responses to skip while waiting for a matching one, such as
	// the duplicate replies to a sync.
	maxStale = 16
)

var syncData = append([]byte{0x07, 0x07, 0x12, 0x20}, repeat(0x55, 32)...)

func repeat(b byte, n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = b
	}
	return buf
}

var errMalformed = errors.New("espserial: malformed response")

// StatusError is a failure reported by the loader.
type StatusError struct {
	Cmd  byte
	Code byte
}

func (e *StatusError) Error() string {
	var msg string
	switch e.Code {
	case 0x05:
		msg = "invalid message"
	case 0x06:
		msg = "failed to act on message"
	case 0x07:
		msg = "invalid crc"
	case 0x08:
		msg = "flash write error"
	case 0x09:
		msg = "flash read error"
	default:
		msg = fmt.Sprintf("error %#02x", e.Code)
	}
	return fmt.Sprintf("espserial: command %#02x: %s", e.Cmd, msg)
}

// Bridge is a register file reached through the ROM loader. Load and
// Store cannot report errors; the first failure is kept and returned
// by Err, and every later access is skipped.
type Bridge struct {
	w   io.Writer
	r   *bufio.Reader
	err error
}

// Connect synchronizes with the loader on rw.
func Connect(rw io.ReadWriter) (*Bridge, error) {
	b := &Bridge{w: rw, r: bufio.NewReader(rw)}
	var err error
	for i := range syncAttempts {
		if _, err = b.command(cmdSync, syncData); err == nil {
			return b, nil
		}
		log.Printf("espserial: sync attempt %d: %v", i+1, err)
	}
	return nil, fmt.Errorf("espserial: no response from loader: %w", err)
}

func (b *Bridge) ReadReg(addr uint32) (uint32, error) {
	return b.command(cmdReadReg, binary.LittleEndian.AppendUint32(nil, addr))
}

func (b *Bridge) WriteReg(addr, v uint32) error {
	data := make([]byte, 0, 16)
	data = binary.LittleEndian.AppendUint32(data, addr)
	data = binary.LittleEndian.AppendUint32(data, v)
	// Mask and delay in microseconds.
	data = binary.LittleEndian.AppendUint32(data, 0xffff_ffff)
	data = binary.LittleEndian.AppendUint32(data, 0)
	_, err := b.command(cmdWriteReg, data)
	return err
}

func (b *Bridge) Load(addr uint32) uint32 {
	if b.err != nil {
		return 0
	}
	v, err := b.ReadReg(addr)
	if err != nil {
		b.err = fmt.Errorf("espserial: load %#08x: %w", addr, err)
	}
	return v
}

func (b *Bridge) Store(addr uint32, v uint32) {
	if b.err != nil {
		return
	}
	if err := b.WriteReg(addr, v); err != nil {
		b.err = fmt.Errorf("espserial: store %#08x: %w", addr, err)
	}
}

// Err returns the first error encountered by Load or Store.
func (b *Bridge) Err() error {
	return b.err
}

func (b *Bridge) command(cmd byte, data []byte) (uint32, error) {
	pkt := make([]byte, headerLen, headerLen+len(data))
	pkt[0] = dirRequest
	pkt[1] = cmd
	binary.LittleEndian.PutUint16(pkt[2:], uint16(len(data)))
	// The checksum is only checked for flash and memory data.
	pkt = append(pkt, data...)
	if _, err := b.w.Write(appendFrame(nil, pkt)); err != nil {
		return 0, err
	}
	for range maxStale {
		resp, err := readFrame(b.r)
		if err != nil {
			return 0, err
		}
		if len(resp) < headerLen || resp[0] != dirResponse {
			return 0, errMalformed
		}
		if resp[1] != cmd {
			continue
		}
		size := int(binary.LittleEndian.Uint16(resp[2:]))
		val := binary.LittleEndian.Uint32(resp[4:])
		body := resp[headerLen:]
		if size < statusLen || len(body) < size {
			return 0, errMalformed
		}
		status := body[size-statusLen:]
		if status[0] != 0 {
			return 0, &StatusError{Cmd: cmd, Code: status[1]}
		}
		return val, nil
	}
	return 0, fmt.Errorf("espserial: no response to command %#02x", cmd)
}
