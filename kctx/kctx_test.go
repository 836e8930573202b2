package kctx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatonRoundTrip(t *testing.T) {
	b := NewBaton()
	received := make(chan Frame, 1)

	go func() {
		f := b.AwaitResume()
		received <- f
		b.Yield(Frame{Kind: Yield})
	}()

	out := SwitchToYieldCtx(b)
	assert.Equal(t, Yield, out.Kind)

	select {
	case f := <-received:
		assert.Equal(t, Yield, f.Kind)
	case <-time.After(time.Second):
		t.Fatal("goroutine never resumed")
	}
}

func TestSwitchToTrapCtxCarriesPC(t *testing.T) {
	b := NewBaton()
	go func() {
		f := b.AwaitResume()
		require.Equal(t, Trap, f.Kind)
		require.Equal(t, uint64(42), f.PC)
		b.Yield(Frame{Kind: Yield})
	}()

	SwitchToTrapCtx(b, 42)
}

func TestFrameInTrapContext(t *testing.T) {
	assert.True(t, Frame{Kind: Trap}.InTrapContext())
	assert.False(t, Frame{Kind: Yield}.InTrapContext())
}
