package espserial

import (
	"bufio"
	"errors"
)

// SLIP framing (RFC 1055).
const (
	slipEnd    = 0xc0
	slipEsc    = 0xdb
	slipEscEnd = 0xdc
	slipEscEsc = 0xdd
)

var errBadEscape = errors.New("espserial: invalid slip escape")

func appendFrame(buf, pkt []byte) []byte {
	buf = append(buf, slipEnd)
	for _, c := range pkt {
		switch c {
		case slipEnd:
			buf = append(buf, slipEsc, slipEscEnd)
		case slipEsc:
			buf = append(buf, slipEsc, slipEscEsc)
		default:
			buf = append(buf, c)
		}
	}
	return append(buf, slipEnd)
}

// readFrame returns the next non-empty frame, discarding bytes before
// its start.
func readFrame(r *bufio.Reader) ([]byte, error) {
	for {
		c, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if c == slipEnd {
			break
		}
	}
	var pkt []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch c {
		case slipEnd:
			if len(pkt) == 0 {
				// Back to back delimiters.
				continue
			}
			return pkt, nil
		case slipEsc:
			c, err = r.ReadByte()
			if err != nil {
				return nil, err
			}
			switch c {
			case slipEscEnd:
				c = slipEnd
			case slipEscEsc:
				c = slipEsc
			default:
				return nil, errBadEscape
			}
		}
		pkt = append(pkt, c)
	}
}

// decodeFrame removes the escapes from the body of a frame.
func decodeFrame(body []byte) ([]byte, error) {
	pkt := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == slipEsc {
			i++
			if i == len(body) {
				return nil, errBadEscape
			}
			switch body[i] {
			case slipEscEnd:
				c = slipEnd
			case slipEscEsc:
				c = slipEsc
			default:
				return nil, errBadEscape
			}
		}
		pkt = append(pkt, c)
	}
	return pkt, nil
}
