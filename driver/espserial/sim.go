package espserial

import (
	"bytes"
	"encoding/binary"
	"io"

	"gdma.dev/reg"
)

// Simulator is a ROM loader in download mode serving the registers of
// a File.
type Simulator struct {
	f  reg.File
	in []byte
	// Pending response bytes.
	out bytes.Buffer

	synced bool
	// DropSyncs is the number of sync requests to ignore, as a chip
	// does while it detects the baud rate.
	DropSyncs int
}

func NewSimulator(f reg.File) *Simulator {
	return &Simulator{f: f}
}

func (s *Simulator) Write(p []byte) (int, error) {
	s.in = append(s.in, p...)
	for {
		start := bytes.IndexByte(s.in, slipEnd)
		if start == -1 {
			s.in = s.in[:0]
			break
		}
		end := bytes.IndexByte(s.in[start+1:], slipEnd)
		if end == -1 {
			s.in = s.in[start:]
			break
		}
		body := s.in[start+1 : start+1+end]
		s.in = s.in[start+1+end:]
		if len(body) == 0 {
			continue
		}
		pkt, err := decodeFrame(body)
		if err != nil {
			continue
		}
		s.handle(pkt)
	}
	return len(p), nil
}

func (s *Simulator) Read(p []byte) (int, error) {
	if s.out.Len() == 0 {
		return 0, io.EOF
	}
	return s.out.Read(p)
}

func (s *Simulator) Close() error {
	return nil
}

func (s *Simulator) handle(pkt []byte) {
	if len(pkt) < headerLen || pkt[0] != dirRequest {
		return
	}
	cmd := pkt[1]
	size := int(binary.LittleEndian.Uint16(pkt[2:]))
	data := pkt[headerLen:]
	if len(data) != size {
		s.respond(cmd, 0, 0x05)
		return
	}
	if cmd == cmdSync {
		if s.DropSyncs > 0 {
			s.DropSyncs--
			return
		}
		s.synced = true
		// The ROM answers a sync more than once.
		for range 3 {
			s.respond(cmd, 0, 0)
		}
		return
	}
	if !s.synced {
		return
	}
	le := binary.LittleEndian
	switch {
	case cmd == cmdReadReg && size == 4:
		s.respond(cmd, s.f.Load(le.Uint32(data)), 0)
	case cmd == cmdWriteReg && size == 16:
		addr, v, mask := le.Uint32(data), le.Uint32(data[4:]), le.Uint32(data[8:])
		if mask != 0xffff_ffff {
			v = s.f.Load(addr)&^mask | v&mask
		}
		s.f.Store(addr, v)
		s.respond(cmd, 0, 0)
	default:
		s.respond(cmd, 0, 0x05)
	}
}

func (s *Simulator) respond(cmd byte, val uint32, code byte) {
	pkt := make([]byte, headerLen, headerLen+statusLen)
	pkt[0] = dirResponse
	pkt[1] = cmd
	binary.LittleEndian.PutUint16(pkt[2:], statusLen)
	binary.LittleEndian.PutUint32(pkt[4:], val)
	var status byte
	if code != 0 {
		status = 1
	}
	pkt = append(pkt, status, code)
	s.out.Write(appendFrame(nil, pkt))
}
