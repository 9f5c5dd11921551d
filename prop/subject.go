package prop

import (
	"fmt"
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/propkit/propkit/internal/layout"
)

// subjectSeq issues process-unique subject identifiers for diagnostics.
var subjectSeq atomic.Uint64

// Subject is the append-only layout registry for one class of extensible
// objects. It assigns every registered property a byte offset, size and
// alignment in a shared address space, plus one bit in an initialization
// bitmap. Bitmap words are themselves reserved in the same address space,
// 8 bytes at a time, as registrations fill them up.
//
// Offsets are monotonically increasing and never reused, compacted or
// relocated, so stores created before a registration remain valid after it.
//
// A Subject is safe for concurrent use. Layout mutation happens under a
// single internal mutex that is held only for bookkeeping, never across
// caller-supplied code.
//
// One Subject must serve exactly one host type. Sharing a Subject across
// unrelated host types aliases their slots and is a programmer error the
// engine cannot detect.
type Subject struct {
	id uint64

	mu sync.Mutex

	// cursor is the next free byte offset. Grows monotonically.
	cursor uint32

	// maxAlign is the largest alignment any slot has requested.
	maxAlign uint32

	// offsets holds the start offset of every reserved range (values and
	// bitmap words), in ascending order. Chunks index their cells by
	// binary-searching a prefix of this slice.
	offsets []uint32

	// words are the initialization-bitmap words, in registration order.
	words []wordState

	// finals are the finalizable-slot descriptors, append-only.
	finals []finalSlot

	slots int
}

// NewSubject creates an empty subject with no registered properties.
func NewSubject() *Subject {
	return &Subject{id: subjectSeq.Add(1), maxAlign: 1}
}

// ID returns the subject's process-unique identifier.
func (s *Subject) ID() uint64 { return s.id }

// register reserves a slot of the given size and alignment and assigns it an
// initialization bit. When fin is non-nil the slot is recorded as finalizable
// and fin runs at store teardown on every store that initialized the slot.
//
// Zero-sized reservations are widened to one byte so every slot owns a
// distinct offset.
func (s *Subject) register(size, align uint32, fin func(any)) Slot {
	if !layout.IsPowerOfTwo(align) {
		panic(fmt.Errorf("%w: got %d", ErrBadAlign, align))
	}
	if size == 0 {
		size = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Take the lowest unset bit of an existing bitmap word, or reserve a
	// fresh word in the address space and take its first bit.
	wi := -1
	for i := range s.words {
		if s.words[i].used != ^uint64(0) {
			wi = i
			break
		}
	}
	if wi < 0 {
		off := s.reserveLocked(layout.WordSize, layout.WordSize)
		s.words = append(s.words, wordState{off: off})
		wi = len(s.words) - 1
	}
	w := &s.words[wi]
	bit := uint(bits.TrailingZeros64(^w.used))
	w.used |= 1 << bit

	off := s.reserveLocked(size, align)
	if align > s.maxAlign {
		s.maxAlign = align
	}
	s.slots++

	sl := Slot{off: off, size: size, align: align, wordOff: w.off, bit: bit}
	if fin != nil {
		s.finals = append(s.finals, finalSlot{off: off, wordOff: w.off, bit: bit, fin: fin})
	}
	return sl
}

// reserveLocked rounds the cursor up to align and claims size bytes.
// The caller must hold s.mu.
func (s *Subject) reserveLocked(size, align uint32) uint32 {
	off, ok := layout.AlignUp(s.cursor, align)
	if !ok {
		panic(fmt.Errorf("%w: aligning %d to %d", ErrLayoutOverflow, s.cursor, align))
	}
	end, ok := layout.AddSpan(off, size)
	if !ok {
		panic(fmt.Errorf("%w: %d bytes at offset %d", ErrLayoutOverflow, size, off))
	}
	s.cursor = end
	s.offsets = append(s.offsets, off)
	return off
}

// snapshot returns the current layout extent and the reserved offsets within
// it. The returned slice is an immutable prefix: later registrations only
// append past its length.
func (s *Subject) snapshot() (uint32, []uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, s.offsets[:len(s.offsets):len(s.offsets)]
}

// finalsSnapshot returns the finalizable-slot descriptors registered so far.
func (s *Subject) finalsSnapshot() []finalSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finals[:len(s.finals):len(s.finals)]
}

// SubjectStats summarizes a subject's layout for diagnostics and tests.
type SubjectStats struct {
	// Slots is the number of registered properties.
	Slots int
	// Bytes is the total extent of the address space, including bitmap
	// words and alignment padding.
	Bytes uint32
	// MaxAlign is the largest alignment any slot requested.
	MaxAlign uint32
	// BitmapWords is the number of initialization-bitmap words reserved.
	BitmapWords int
	// Finalizable is the number of slots registered with a finalizer.
	Finalizable int
}

// Stats returns a snapshot of the subject's layout accounting.
func (s *Subject) Stats() SubjectStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SubjectStats{
		Slots:       s.slots,
		Bytes:       s.cursor,
		MaxAlign:    s.maxAlign,
		BitmapWords: len(s.words),
		Finalizable: len(s.finals),
	}
}

// String implements fmt.Stringer for log and panic messages.
func (s *Subject) String() string {
	return fmt.Sprintf("subject#%d", s.id)
}
