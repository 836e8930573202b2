package kthread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyper-org/Unishyper-sub001/kctx"
	"github.com/shyper-org/Unishyper-sub001/kstack"
)

func newTestRegistry() *Registry {
	return NewRegistry(kstack.NewPool(4096), nil)
}

func runAndYieldForever(self *Thread, _, _ uint64) {
	for {
		self.Baton().Yield(kctx.Frame{Kind: kctx.Yield})
	}
}

func TestAllocStartsAtFirstTidAndIncrements(t *testing.T) {
	r := newTestRegistry()
	a, err := r.Alloc(runAndYieldForever, AllocOptions{Name: "a"})
	require.NoError(t, err)
	b, err := r.Alloc(runAndYieldForever, AllocOptions{Name: "b"})
	require.NoError(t, err)

	assert.Equal(t, Tid(firstTid), a.ID())
	assert.Equal(t, Tid(firstTid+1), b.ID())
	assert.Equal(t, Runnable, a.Status())
}

func TestLookupAndDestroy(t *testing.T) {
	r := newTestRegistry()
	a, err := r.Alloc(runAndYieldForever, AllocOptions{})
	require.NoError(t, err)

	assert.Same(t, a, r.Lookup(a.ID()))
	r.Destroy(a.ID())
	assert.Nil(t, r.Lookup(a.ID()))

	// destroying twice is a no-op
	r.Destroy(a.ID())
}

func TestDestroyUnknownIsNoop(t *testing.T) {
	r := newTestRegistry()
	assert.NotPanics(t, func() { r.Destroy(Tid(999)) })
}

func TestJoinBlocksUntilExit(t *testing.T) {
	r := newTestRegistry()
	a, err := r.Alloc(func(self *Thread, arg0, _ uint64) {
		r.Exit(self.ID(), int(arg0))
	}, AllocOptions{Arg0: 7})
	require.NoError(t, err)

	// Kick the thread's goroutine so it actually runs to its exit call.
	// The entry returns without yielding back, so Resume is run in its
	// own goroutine rather than awaited directly.
	go a.Baton().Resume(kctx.Frame{Kind: kctx.Yield})

	code, err := r.Join(a.ID())
	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

func TestJoinUnknownThreadErrors(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Join(Tid(12345))
	assert.Error(t, err)
}

func TestJoinReturnsImmediatelyAfterExit(t *testing.T) {
	r := newTestRegistry()
	a, err := r.Alloc(func(self *Thread, _, _ uint64) {
		r.Exit(self.ID(), 1)
	}, AllocOptions{})
	require.NoError(t, err)
	go a.Baton().Resume(kctx.Frame{Kind: kctx.Yield})

	done := make(chan struct{})
	go func() {
		_, _ = r.Join(a.ID())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("join did not return after exit")
	}
}
