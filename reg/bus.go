package reg

import "fmt"

// Bus routes accesses to the File mapped over the address window
// containing them. Accesses outside every window panic.
type Bus struct {
	windows []window
}

type window struct {
	base, size uint32
	f          File
}

// Map routes [base, base+size) to f. Windows must not overlap.
func (b *Bus) Map(base, size uint32, f File) error {
	for _, w := range b.windows {
		if base < w.base+w.size && w.base < base+size {
			return fmt.Errorf("reg: window %#08x+%#x overlaps %#08x+%#x", base, size, w.base, w.size)
		}
	}
	b.windows = append(b.windows, window{base: base, size: size, f: f})
	return nil
}

func (b *Bus) lookup(addr uint32) File {
	for _, w := range b.windows {
		if addr-w.base < w.size {
			return w.f
		}
	}
	panic(fmt.Sprintf("reg: no window for address %#08x", addr))
}

func (b *Bus) Load(addr uint32) uint32 {
	return b.lookup(addr).Load(addr)
}

func (b *Bus) Store(addr uint32, v uint32) {
	b.lookup(addr).Store(addr, v)
}
