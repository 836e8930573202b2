package kmetrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountersStartAtZero(t *testing.T) {
	var c Counters
	assert.Equal(t, Snapshot{}, c.Snapshot())
}

func TestIncDispatchAndContextSwitch(t *testing.T) {
	var c Counters
	c.IncDispatch()
	c.IncDispatch()
	c.IncContextSwitch()

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap.Dispatches)
	assert.Equal(t, uint64(1), snap.ContextSwitches)
}

func TestIncFutexWakeAccumulatesWokenCount(t *testing.T) {
	var c Counters
	c.IncFutexWake(3)
	c.IncFutexWake(0)
	c.IncFutexWake(-1)

	assert.Equal(t, uint64(3), c.Snapshot().FutexWakes)
}

func TestIncSpawnAndDestroy(t *testing.T) {
	var c Counters
	c.IncSpawn()
	c.IncSpawn()
	c.IncDestroy()

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap.Spawns)
	assert.Equal(t, uint64(1), snap.Destroys)
}

func TestCountersAreSafeForConcurrentUse(t *testing.T) {
	var c Counters
	var wg sync.WaitGroup
	const goroutines = 50
	const perGoroutine = 100

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				c.IncDispatch()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(goroutines*perGoroutine), c.Snapshot().Dispatches)
}
