package prop

// Option configures a property at registration time.
type Option[V any] func(*propConfig[V])

type propConfig[V any] struct {
	finalizer func(V)
}

// WithFinalizer registers fn to run at store teardown on every store that
// initialized the property, receiving the stored value. It runs exactly once
// per initialized store and never for stores that left the slot untouched.
//
// A finalizable slot's descriptor is retained by the subject forever, even
// after the property handle is discarded; see the package documentation.
func WithFinalizer[V any](fn func(V)) Option[V] {
	return func(c *propConfig[V]) {
		c.finalizer = fn
	}
}
