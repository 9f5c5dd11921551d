package prop

import (
	"fmt"
	"slices"
	"sync/atomic"
)

// cell is the storage for one reserved range of a chunk: either a property
// value or an initialization-bitmap word.
//
// For value slots only val is used. It is written at most once by the commit
// step of the get/init protocol (or by the first Set) and holds the boxed
// value as a *V. For bitmap-word slots only bits is used. Keeping the value
// behind a GC-visible box instead of packing raw bytes is the deliberate
// memory-safe rendition of the engine; the byte address space still governs
// which chunk a cell lives in.
//
// The bit is the publication flag for the value: writers store val before
// setting the bit under the store mutex, readers may test the bit without any
// lock and read val only after observing it set.
type cell struct {
	bits atomic.Uint64
	val  any
}

// chunk is one fixed block of a store's backing memory, covering the byte
// range [lo, hi) of the subject address space. Its cell array is allocated
// once at construction and never grows or moves, so cell pointers handed out
// from a chunk stay valid for the life of the store.
type chunk struct {
	lo, hi uint32

	// offs holds the start offset of every reserved range within [lo, hi),
	// ascending. cells is parallel to offs.
	offs  []uint32
	cells []cell
}

// newChunk builds a chunk covering [lo, hi). offs must be the ascending
// reserved offsets of the subject restricted to that range.
func newChunk(lo, hi uint32, offs []uint32) *chunk {
	return &chunk{
		lo:    lo,
		hi:    hi,
		offs:  offs,
		cells: make([]cell, len(offs)),
	}
}

// covers reports whether off falls inside this chunk's byte range.
func (c *chunk) covers(off uint32) bool {
	return off >= c.lo && off < c.hi
}

// cellAt returns the cell for the reserved range starting at off. The offset
// must be one handed out by the subject; anything else is an engine bug.
func (c *chunk) cellAt(off uint32) *cell {
	i, ok := slices.BinarySearch(c.offs, off)
	if !ok {
		panic(fmt.Sprintf("prop: no cell at offset %d in chunk [%d,%d)", off, c.lo, c.hi))
	}
	return &c.cells[i]
}

// findCell locates the cell for off in an ordered chunk list, or nil when no
// chunk covers the offset yet. It never grows the chain.
func findCell(chunks []*chunk, off uint32) *cell {
	lo, hi := 0, len(chunks)
	for lo < hi {
		mid := (lo + hi) / 2
		c := chunks[mid]
		switch {
		case off < c.lo:
			hi = mid
		case off >= c.hi:
			lo = mid + 1
		default:
			return c.cellAt(off)
		}
	}
	return nil
}
