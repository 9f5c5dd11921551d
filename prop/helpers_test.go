package prop

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// thing is the host type used throughout the tests: a fixed struct extended
// with dynamic properties through its embedded store.
type thing struct {
	param int
	data  *Data
}

func (o *thing) PropData() *Data { return o.data }

func newThing(s *Subject, param int) *thing {
	return &thing{param: param, data: NewData(s)}
}

// tracked is a value whose liveness is observable: the finalizer registered
// alongside it decrements the tracker, so leaks and double runs both show.
type tracked struct {
	alive *atomic.Int64
}

func newTracked(tracker *atomic.Int64) tracked {
	tracker.Add(1)
	return tracked{alive: tracker}
}

func (c tracked) finalize() {
	if c.alive.Add(-1) < 0 {
		panic("tracked value finalized twice")
	}
}

// requirePanicsWith asserts that fn panics with an error wrapping sentinel.
func requirePanicsWith(t *testing.T, sentinel error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value should be an error, got %T", r)
		require.ErrorIs(t, err, sentinel)
	}()
	fn()
}

// Compile-time checks that every strategy satisfies Initializer.
var (
	_ Initializer[*thing, int] = DefaultInit[*thing, int]{}
	_ Initializer[*thing, int] = ConstInit[*thing, int]{}
	_ Initializer[*thing, int] = FuncInit[*thing, int]{}
)
