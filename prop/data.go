package prop

import (
	"fmt"
	"math/bits"
	"slices"
	"sync"
)

// Data is the extension store for one object: it owns the chunk chain backing
// every property value the object has initialized, plus the initialization
// bitmap words. A Data is bound permanently to the subject it was created
// from; using a property registered on a different subject against it panics
// with ErrSubjectMismatch.
//
// A Data is safe for concurrent use by multiple goroutines provided the
// property value types themselves are. The store mutex guards only chunk
// chain growth and init-bit commits; it is never held while an initializer
// runs, so an initializer may freely read or write other properties of the
// same object.
type Data struct {
	subject *Subject

	mu sync.Mutex

	// chunks cover the subject address space contiguously from offset 0.
	// chunks[0] is the head, sized to the subject at construction time;
	// the rest are overflow chunks appended as later registrations are
	// touched. Chunks are never resized, reordered or removed before
	// Release.
	chunks []*chunk

	released bool
}

// NewData creates a store bound to the given subject, with every property
// uninitialized. The head chunk covers the subject's layout as of this call;
// properties registered afterwards are served from overflow chunks allocated
// on first touch.
func NewData(s *Subject) *Data {
	size, offs := s.snapshot()
	return &Data{
		subject: s,
		chunks:  []*chunk{newChunk(0, size, offs)},
	}
}

// Subject returns the subject this store is bound to.
func (d *Data) Subject() *Subject { return d.subject }

// assertSubject rejects a handle whose subject is not the store's.
func (d *Data) assertSubject(s *Subject) {
	if d.subject != s {
		panic(fmt.Errorf("%w: property registered on %v, store bound to %v",
			ErrSubjectMismatch, s, d.subject))
	}
}

// assertLiveLocked rejects access to a released store. The caller must hold
// d.mu; the panic unwinds through the caller's deferred unlock.
func (d *Data) assertLiveLocked() {
	if d.released {
		panic(fmt.Errorf("%w: %v", ErrStoreReleased, d.subject))
	}
}

// resolve returns stable cell pointers for a slot's value and its bitmap
// word, growing the chunk chain if the slot was registered after the last
// covered offset. The store mutex is held only for this step.
func (d *Data) resolve(sl Slot) (value, word *cell) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.assertLiveLocked()
	return d.cellLocked(sl.off), d.cellLocked(sl.wordOff)
}

// cellLocked locates the cell for off, appending overflow chunks as needed.
// The caller must hold d.mu.
func (d *Data) cellLocked(off uint32) *cell {
	if c := findCell(d.chunks, off); c != nil {
		return c
	}

	// The offset is past the covered extent: append one overflow chunk
	// reaching the subject's current total size. Lock order is always
	// store then subject; the subject never takes a store lock.
	lo := d.chunks[len(d.chunks)-1].hi
	size, offs := d.subject.snapshot()
	if off >= size {
		panic(fmt.Sprintf("prop: offset %d beyond subject extent %d", off, size))
	}
	from, _ := slices.BinarySearch(offs, lo)
	nc := newChunk(lo, size, offs[from:])
	d.chunks = append(d.chunks, nc)
	return nc.cellAt(off)
}

// Release tears the store down: for every finalizable slot whose init bit is
// set it runs the finalizer on the stored value exactly once, then drops the
// chunk chain. Release is idempotent; any other access after it panics with
// ErrStoreReleased.
//
// The engine never calls Release itself. The host owning the store calls it
// when the object's lifetime ends.
func (d *Data) Release() {
	finals := d.subject.finalsSnapshot()

	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		return
	}
	d.released = true
	chunks := d.chunks
	d.chunks = nil
	d.mu.Unlock()

	// Finalizers are user code: run them outside the store mutex.
	for _, f := range finals {
		w := findCell(chunks, f.wordOff)
		if w == nil {
			// Registered after this store last grew and never touched.
			continue
		}
		if w.bits.Load()&(1<<f.bit) == 0 {
			continue
		}
		f.fin(findCell(chunks, f.off).val)
	}
}

// DataStats summarizes a store's backing memory for diagnostics and tests.
type DataStats struct {
	// Chunks is the number of blocks in the chain, including the head.
	Chunks int
	// CoveredBytes is the extent of the subject address space the chain
	// currently covers.
	CoveredBytes uint32
	// Initialized is the number of slots whose init bit is set.
	Initialized int
}

// Stats returns a snapshot of the store's backing memory accounting.
func (d *Data) Stats() DataStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := DataStats{Chunks: len(d.chunks)}
	// Coverage is contiguous from offset 0 (the head may be the empty [0,0)
	// chunk), so the last chunk's hi is the covered extent.
	if n := len(d.chunks); n > 0 {
		st.CoveredBytes = d.chunks[n-1].hi
	}
	// Value cells never touch their bits field, so popcounting every cell
	// counts exactly the set init bits.
	for _, c := range d.chunks {
		for i := range c.cells {
			st.Initialized += bits.OnesCount64(c.cells[i].bits.Load())
		}
	}
	return st
}
