//go:build linux && !tinygo

package reg

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/unix"
	"periph.io/x/host/v3/pmem"
)

// Phys is a window of physical memory mapped through /dev/mem.
// Addresses passed to Load and Store are physical addresses.
type Phys struct {
	view  *pmem.View
	words []uint32
	base  uint32
}

// OpenPhys maps size bytes of physical memory starting at base. The
// mapping is widened to whole pages.
func OpenPhys(base uint32, size int) (*Phys, error) {
	page := uint32(unix.Getpagesize())
	start := base &^ (page - 1)
	n := int(base-start) + size
	n = (n + int(page) - 1) &^ (int(page) - 1)
	v, err := pmem.Map(uint64(start), n)
	if err != nil {
		return nil, fmt.Errorf("reg: map %#08x: %w", base, err)
	}
	return &Phys{view: v, words: v.Uint32(), base: start}, nil
}

func (p *Phys) word(addr uint32) *uint32 {
	i := (addr - p.base) / 4
	if addr < p.base || int(i) >= len(p.words) {
		panic(fmt.Sprintf("reg: address %#08x outside mapped window", addr))
	}
	return &p.words[i]
}

func (p *Phys) Load(addr uint32) uint32 {
	return atomic.LoadUint32(p.word(addr))
}

func (p *Phys) Store(addr uint32, v uint32) {
	atomic.StoreUint32(p.word(addr), v)
}

func (p *Phys) Close() error {
	return p.view.Close()
}
