package prop

// Initializer produces a property's first value for an object when the
// property is read before any Set. It runs with no engine lock held, so it
// may read or write other properties of the same object through their own
// handles.
//
// Under concurrent first reads of the same slot, more than one goroutine may
// run the initializer; exactly one result is committed and the rest are
// discarded. Initializers with side effects must tolerate that.
type Initializer[T Extender, V any] interface {
	// InitialValue returns the value the slot starts with on obj.
	InitialValue(obj T) V
}

// DefaultInit initializes a slot to the zero value of its type.
type DefaultInit[T Extender, V any] struct{}

func (DefaultInit[T, V]) InitialValue(T) V {
	var zero V
	return zero
}

// ConstInit initializes a slot to a copy of a fixed value.
type ConstInit[T Extender, V any] struct {
	Value V
}

func (c ConstInit[T, V]) InitialValue(T) V {
	return c.Value
}

// FuncInit initializes a slot by computing a value from the object.
type FuncInit[T Extender, V any] struct {
	Fn func(T) V
}

func (f FuncInit[T, V]) InitialValue(obj T) V {
	return f.Fn(obj)
}
