package irq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGateStartsEnabled(t *testing.T) {
	g := NewGate()
	assert.True(t, g.Enabled())
}

func TestGateNestedDisableEnableRestoresOuter(t *testing.T) {
	g := NewGate()
	was1 := g.NestedDisable()
	assert.True(t, was1)
	assert.False(t, g.Enabled())

	was2 := g.NestedDisable()
	assert.False(t, was2)
	assert.False(t, g.Enabled())

	// Inner enable shouldn't restore interrupts yet - still nested.
	g.NestedEnable(was2)
	assert.False(t, g.Enabled())

	// Outer enable restores to the state before the outermost disable.
	g.NestedEnable(was1)
	assert.True(t, g.Enabled())
}

func TestGateDisableEnable(t *testing.T) {
	g := NewGate()
	g.Disable()
	assert.False(t, g.Enabled())
	g.Enable()
	assert.True(t, g.Enabled())
}

func TestSpinlockMutualExclusion(t *testing.T) {
	s := NewSpinlock()
	done := make(chan struct{})
	var counter int

	const n = 50
	for i := 0; i < n; i++ {
		go func() {
			wasEnabled := s.Lock()
			counter++
			s.Unlock(wasEnabled)
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
	assert.Equal(t, n, counter)
	assert.True(t, s.Gate().Enabled())
}
