package prop

import "reflect"

// Extender is the contract a host type implements to carry dynamic
// properties: it exposes the Data store embedded in (or owned by) the object.
// PropData must return the same store for the same object every time.
//
// One subject serves exactly one host type. The glue layer deriving Extender
// implementations is responsible for giving every host type its own subject.
type Extender interface {
	PropData() *Data
}

// Property is a typed handle for one registered slot on host type T with
// value type V. Many objects share one handle; the handle owns only its
// registration metadata, never the storage it indexes.
//
// A Property is safe for concurrent use.
type Property[T Extender, V any] struct {
	subject *Subject
	slot    Slot
	init    Initializer[T, V]
}

// newProperty registers a slot sized and aligned for V and wraps it with the
// given initializer strategy.
func newProperty[T Extender, V any](s *Subject, init Initializer[T, V], opts []Option[V]) *Property[T, V] {
	var cfg propConfig[V]
	for _, opt := range opts {
		opt(&cfg)
	}

	var fin func(any)
	if cfg.finalizer != nil {
		f := cfg.finalizer
		fin = func(boxed any) {
			f(*(boxed.(*V)))
		}
	}

	rt := reflect.TypeFor[V]()
	return &Property[T, V]{
		subject: s,
		slot:    s.register(uint32(rt.Size()), uint32(rt.Align()), fin),
		init:    init,
	}
}

// NewDefault registers a property initialized to the zero value of V.
func NewDefault[T Extender, V any](s *Subject, opts ...Option[V]) *Property[T, V] {
	return newProperty[T](s, DefaultInit[T, V]{}, opts)
}

// NewConst registers a property initialized to a copy of value.
func NewConst[T Extender, V any](s *Subject, value V, opts ...Option[V]) *Property[T, V] {
	return newProperty[T](s, ConstInit[T, V]{Value: value}, opts)
}

// NewComputed registers a property initialized by fn applied to the object.
// fn may read other properties of the same object through their handles.
func NewComputed[T Extender, V any](s *Subject, fn func(T) V, opts ...Option[V]) *Property[T, V] {
	return newProperty[T](s, FuncInit[T, V]{Fn: fn}, opts)
}

// NewDynamic registers a property with a caller-supplied initializer
// strategy, dispatched through the Initializer interface. Use it when the
// strategy is chosen at runtime or must be stored type-erased.
func NewDynamic[T Extender, V any](s *Subject, init Initializer[T, V], opts ...Option[V]) *Property[T, V] {
	return newProperty[T](s, init, opts)
}

// WithInitializer returns a handle for the same slot with a different
// initializer strategy. The slot, its storage and its finalizer are shared
// with the receiver; only the strategy used for lazy initialization changes.
func (p *Property[T, V]) WithInitializer(init Initializer[T, V]) *Property[T, V] {
	return &Property[T, V]{subject: p.subject, slot: p.slot, init: init}
}

// Slot returns the property's slot descriptor.
func (p *Property[T, V]) Slot() Slot { return p.slot }

// Get returns the property's value on obj, running the initializer first if
// the slot has never been written on obj's store.
func (p *Property[T, V]) Get(obj T) V {
	return *p.ref(obj)
}

// Mut returns a pointer to the property's value on obj for in-place
// mutation, initializing the slot first if needed. The pointer stays valid
// for the life of the store; writes through it while other goroutines read
// the same slot are the caller's responsibility to synchronize.
func (p *Property[T, V]) Mut(obj T) *V {
	return p.ref(obj)
}

// ref implements the lazy get/init protocol:
//
//  1. Resolve stable cell pointers under the store mutex, growing the chunk
//     chain if the slot postdates the store.
//  2. With no lock held, test the init bit; if set, the slot is committed
//     and the stored box is returned.
//  3. Otherwise run the initializer, still with no lock held, so it may
//     recursively access the same store.
//  4. Re-test under the store mutex and commit the candidate only if the
//     bit is still unset; a racing winner's value is kept and the candidate
//     discarded.
func (p *Property[T, V]) ref(obj T) *V {
	d := obj.PropData()
	d.assertSubject(p.subject)

	value, word := d.resolve(p.slot)
	mask := p.slot.mask()
	if word.bits.Load()&mask != 0 {
		return value.val.(*V)
	}

	candidate := p.init.InitialValue(obj)
	return p.commit(d, value, word, candidate)
}

// commit performs the double-checked publication of a candidate value. The
// store may have been released while the initializer ran; committing then
// would produce a value whose finalizer never fires, so the release check is
// repeated under the lock.
func (p *Property[T, V]) commit(d *Data, value, word *cell, candidate V) *V {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.assertLiveLocked()
	mask := p.slot.mask()
	if word.bits.Load()&mask == 0 {
		boxed := new(V)
		*boxed = candidate
		value.val = boxed
		word.bits.Or(mask)
	}
	return value.val.(*V)
}

// Set writes the property's value on obj unconditionally. The first write
// also commits the slot, so a later Get returns the written value without
// running the initializer. Writes after initialization go through the
// existing box, so pointers previously returned by Mut observe them.
func (p *Property[T, V]) Set(obj T, value V) {
	d := obj.PropData()
	d.assertSubject(p.subject)

	vc, word := d.resolve(p.slot)
	mask := p.slot.mask()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.assertLiveLocked()
	if word.bits.Load()&mask != 0 {
		*vc.val.(*V) = value
	} else {
		boxed := new(V)
		*boxed = value
		vc.val = boxed
		word.bits.Or(mask)
	}
}
