// Package prop attaches open-ended sets of named, typed values ("dynamic
// properties") to instances of a host type after that type's definition is
// fixed, without intrusive changes to it.
//
// # Overview
//
// Three pieces cooperate:
//
//   - Subject: an append-only layout registry for one host type. Every
//     registered property receives a byte offset, size and alignment in a
//     shared address space plus one bit in an initialization bitmap.
//   - Property[T, V]: a typed handle naming one registered slot, carrying an
//     initializer strategy. Many objects share one handle.
//   - Data: the per-object extension store holding the current value of every
//     initialized slot and the initialization bitmap, backed by a chain of
//     fixed blocks that never move once allocated.
//
// Properties may be registered at any time, including after stores already
// exist: existing stores lazily grow an overflow chunk the first time a
// late-registered property is touched, without invalidating anything handed
// out earlier.
//
// # Usage Example
//
//	type Part struct {
//		Serial string
//		data   *prop.Data
//	}
//
//	func (p *Part) PropData() *prop.Data { return p.data }
//
//	subject := prop.NewSubject()
//	part := &Part{Serial: "X-100", data: prop.NewData(subject)}
//
//	inspected := prop.NewConst[*Part](subject, false)
//	notes := prop.NewDefault[*Part, string](subject)
//
//	inspected.Set(part, true)
//	notes.Set(part, "surface pitting near mount")
//
//	fmt.Println(inspected.Get(part), notes.Get(part))
//
// # Initializer Strategies
//
// A property read before any write produces its first value from its
// strategy: NewDefault (zero value), NewConst (copy of a fixed value),
// NewComputed (function of the object, which may itself read other
// properties of the same object), or NewDynamic (any Initializer supplied at
// runtime). WithInitializer re-keys an existing handle to another strategy
// without registering a new slot.
//
// # Lazy Initialization Contract
//
// First reads commit exactly once per slot per store. Initializers run with
// no engine lock held, so a computed property may recursively read other
// properties of the same object. The price is that under concurrent first
// reads several goroutines may each run the initializer; one result wins,
// the others are discarded. Initializers should therefore be pure or
// idempotent. Locks are only ever held for chunk-chain growth, layout
// bookkeeping and the final commit test-and-set, never across user code.
//
// # Teardown
//
// Properties registered with WithFinalizer have their finalizer run by
// Data.Release, exactly once for every store that initialized the slot and
// never for untouched slots. The host owning the store calls Release when
// the object's lifetime ends. Finalizable slot descriptors are retained by
// the subject forever, because stores extended with the slot may outlive the
// handle and still need teardown; this trades unbounded descriptor growth
// for correctness.
//
// # Error Contract
//
// Subject mismatch (a handle used against a store from a different subject)
// and use after Release are programming errors: the engine panics with an
// error wrapping ErrSubjectMismatch or ErrStoreReleased rather than
// returning it. Address-space exhaustion panics with ErrLayoutOverflow.
// None of these are runtime states to recover from.
//
// # Thread Safety
//
// Subjects, stores and handles may all be shared across goroutines provided
// the property value types themselves are safe to share. See the Data and
// Subject documentation for the exact locking discipline.
package prop
