package prop

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrency_RacingFirstGet: goroutines race the first Get on one
// never-initialized slot. Several initializer executions are permitted, but
// every caller must observe the single committed value.
func TestConcurrency_RacingFirstGet(t *testing.T) {
	const goroutines = 32

	s := NewSubject()
	var runs atomic.Int64
	p := NewComputed[*thing](s, func(*thing) int64 {
		return runs.Add(1)
	})
	obj := newThing(s, 0)

	var (
		start   sync.WaitGroup
		done    sync.WaitGroup
		results [goroutines]int64
	)
	start.Add(1)
	done.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i] = p.Get(obj)
		}(i)
	}
	start.Done()
	done.Wait()

	require.GreaterOrEqual(t, runs.Load(), int64(1))
	for i := 1; i < goroutines; i++ {
		assert.Equal(t, results[0], results[i],
			"every caller must see the committed value")
	}
	// Only one value was ever committed, and it is one that an initializer
	// actually produced.
	assert.LessOrEqual(t, results[0], runs.Load())
	assert.Equal(t, results[0], p.Get(obj))
}

// TestConcurrency_RegistrationUnderLoad: registrations race store growth and
// initialization on a shared store. Exercises the publish-once guarantee for
// layout metadata and chunk-chain appends.
func TestConcurrency_RegistrationUnderLoad(t *testing.T) {
	const (
		workers       = 8
		propsPerRound = 25
	)

	s := NewSubject()
	obj := newThing(s, 3)

	var done sync.WaitGroup
	done.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer done.Done()
			for i := 0; i < propsPerRound; i++ {
				want := w*propsPerRound + i
				p := NewConst[*thing](s, want)
				assert.Equal(t, want, p.Get(obj))
				assert.Equal(t, want, p.Get(obj))
			}
		}(w)
	}
	done.Wait()

	st := obj.data.Stats()
	assert.Equal(t, workers*propsPerRound, st.Initialized)
	assert.Equal(t, s.Stats().Bytes, st.CoveredBytes)
}

// TestConcurrency_ManyStores: one handle, many stores, touched from many
// goroutines; commits must stay per-store.
func TestConcurrency_ManyStores(t *testing.T) {
	const stores = 16

	s := NewSubject()
	p := NewComputed[*thing](s, func(o *thing) int { return o.param * o.param })

	objs := make([]*thing, stores)
	for i := range objs {
		objs[i] = newThing(s, i)
	}

	var done sync.WaitGroup
	for i, obj := range objs {
		for g := 0; g < 4; g++ {
			done.Add(1)
			go func(i int, obj *thing) {
				defer done.Done()
				assert.Equal(t, i*i, p.Get(obj))
			}(i, obj)
		}
	}
	done.Wait()
}

// TestConcurrency_ReleaseOnce: concurrent Release runs the finalizers of one
// store exactly once.
func TestConcurrency_ReleaseOnce(t *testing.T) {
	s := NewSubject()
	var live atomic.Int64
	p := NewComputed[*thing](s, func(*thing) tracked { return newTracked(&live) },
		WithFinalizer(tracked.finalize))

	obj := newThing(s, 0)
	p.Get(obj)
	require.Equal(t, int64(1), live.Load())

	var done sync.WaitGroup
	done.Add(4)
	for i := 0; i < 4; i++ {
		go func() {
			defer done.Done()
			obj.data.Release()
		}()
	}
	done.Wait()
	assert.Zero(t, live.Load())
}

// TestConcurrency_ReentrantChainUnderContention: dependent computed
// properties resolved concurrently; recursion during initialization must not
// deadlock and all committed values must agree.
func TestConcurrency_ReentrantChainUnderContention(t *testing.T) {
	const goroutines = 16

	s := NewSubject()
	double := NewComputed[*thing](s, func(o *thing) int { return o.param * 2 })
	square := NewComputed[*thing](s, func(o *thing) int { return o.param * o.param })
	combined := NewComputed[*thing](s, func(o *thing) int {
		return square.Get(o) + double.Get(o)
	})
	obj := newThing(s, 3)

	var done sync.WaitGroup
	done.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer done.Done()
			assert.Equal(t, 15, combined.Get(obj))
		}()
	}
	done.Wait()

	assert.Equal(t, 6, double.Get(obj))
	assert.Equal(t, 9, square.Get(obj))
}
