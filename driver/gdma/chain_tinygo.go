//go:build tinygo

package gdma

import "unsafe"

// ChainOf returns the chain of n descriptors stored in mem. mem must
// be in internal SRAM and stay reachable while the chain is in use.
func ChainOf(mem []uint32, n int) Chain {
	if len(mem) == 0 {
		return Chain{}
	}
	return Chain{Base: uint32(uintptr(unsafe.Pointer(&mem[0]))), Len: n}
}
