package prop

import "errors"

// The conditions below are programmer-contract violations, not runtime states.
// The engine panics with an error wrapping one of these sentinels so the bug
// is caught at the offending call site; callers are not expected to recover.
var (
	// ErrSubjectMismatch indicates a property handle was used against a store
	// bound to a different subject.
	ErrSubjectMismatch = errors.New("prop: property subject does not match store subject")

	// ErrStoreReleased indicates a store was accessed after Release.
	ErrStoreReleased = errors.New("prop: store accessed after release")

	// ErrLayoutOverflow indicates the subject's 32-bit address space was
	// exhausted while reserving a slot.
	ErrLayoutOverflow = errors.New("prop: subject layout exceeds address space")

	// ErrBadAlign indicates a requested alignment that is not a power of two.
	ErrBadAlign = errors.New("prop: alignment must be a power of two")
)
