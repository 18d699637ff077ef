//go:build tinygo

package reg

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is the memory-mapped register space of the running chip.
type MMIO struct{}

func (MMIO) Load(addr uint32) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(uintptr(addr))))
}

func (MMIO) Store(addr uint32, v uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(uintptr(addr))), v)
}
