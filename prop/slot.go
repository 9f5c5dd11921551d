package prop

// Slot identifies one property's reservation within a subject: the byte range
// holding its value and the initialization bit recording whether the value
// has been produced for a given store.
//
// A Slot is immutable once issued by Subject registration. It carries no
// storage of its own; every store bound to the same subject interprets it
// against its own chunk chain.
type Slot struct {
	// off is the byte offset of the value within the subject address space.
	off uint32

	// size is the reserved byte size (at least 1, even for zero-sized types,
	// so every slot owns a distinct offset).
	size uint32

	// align is the alignment the offset was rounded to.
	align uint32

	// wordOff is the byte offset of the bitmap word holding the init bit.
	wordOff uint32

	// bit is the index of the init bit within that word.
	bit uint
}

// Offset returns the slot's byte offset within the subject address space.
func (sl Slot) Offset() uint32 { return sl.off }

// Size returns the slot's reserved byte size.
func (sl Slot) Size() uint32 { return sl.size }

// mask returns the slot's init bit as a word mask.
func (sl Slot) mask() uint64 { return 1 << sl.bit }

// finalSlot records a finalizable slot: where its value and init bit live,
// and the type-erased finalizer to run at store teardown.
//
// Entries are retained for the lifetime of the subject even if the property
// handle is discarded: stores extended with the slot may still need the
// finalizer during their own teardown.
type finalSlot struct {
	off     uint32
	wordOff uint32
	bit     uint
	fin     func(any)
}

// wordState tracks one initialization-bitmap word in the subject: the byte
// offset it was reserved at and which of its bits have been handed out.
type wordState struct {
	off  uint32
	used uint64
}
