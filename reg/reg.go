// Package reg abstracts access to a flat 32-bit register address space.
//
// Drivers are written against [File] and never dereference fixed
// addresses themselves, so the same driver runs on memory-mapped
// hardware, through a debug bridge, or against an in-memory model.
package reg

// File is a 32-bit register address space. Accesses never fail;
// implementations backed by a transport record their first error
// out of band.
type File interface {
	Load(addr uint32) uint32
	Store(addr uint32, v uint32)
}

// Modify replaces the bits selected by mask with the corresponding
// bits of v, leaving the rest of the register untouched.
func Modify(f File, addr, mask, v uint32) {
	f.Store(addr, f.Load(addr)&^mask|v&mask)
}

// SetBits sets bits in the register at addr.
func SetBits(f File, addr, bits uint32) {
	f.Store(addr, f.Load(addr)|bits)
}

// ClearBits clears bits in the register at addr.
func ClearBits(f File, addr, bits uint32) {
	f.Store(addr, f.Load(addr)&^bits)
}

// HasBits reports whether any of bits are set in the register at addr.
func HasBits(f File, addr, bits uint32) bool {
	return f.Load(addr)&bits != 0
}
