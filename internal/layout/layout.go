// Package layout provides alignment and overflow-safe arithmetic for the
// property address space. Offsets are 32-bit: a subject's layout is bounded
// at 4GB, which is far beyond any realistic property schema.
package layout

import "math/bits"

// MaxOffset is the upper bound of the property address space.
const MaxOffset = ^uint32(0)

// WordSize is the byte size of one initialization-bitmap word.
const WordSize = 8

// WordBits is the number of initialization bits per bitmap word.
const WordBits = 64

// IsPowerOfTwo reports whether align is a valid alignment (a power of two).
// Zero is not a valid alignment.
func IsPowerOfTwo(align uint32) bool {
	return align != 0 && bits.OnesCount32(align) == 1
}

// AlignUp returns n rounded up to the next multiple of align, and ok = false
// when the result would overflow uint32. align must be a power of two.
//
// Example:
//
//	AlignUp(1, 8)  = 8
//	AlignUp(8, 8)  = 8
//	AlignUp(9, 8)  = 16
func AlignUp(n, align uint32) (uint32, bool) {
	mask := align - 1
	if n > MaxOffset-mask {
		return 0, false
	}
	return (n + mask) & ^mask, true
}

// AddSpan adds a span of size bytes at offset off, returning the end offset
// and ok = false when the result would overflow uint32.
func AddSpan(off, size uint32) (uint32, bool) {
	if off > MaxOffset-size {
		return 0, false
	}
	return off + size, true
}
