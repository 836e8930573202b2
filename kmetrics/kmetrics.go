// Package kmetrics provides cache-line-padded atomic counters for the
// scheduler's hot paths, in the style of eventloop's FastState and
// metrics.go: pure atomics, no mutex, no external exporter.
package kmetrics

import "sync/atomic"

// paddedCounter is a single atomic counter isolated to its own cache
// line to avoid false sharing between cores incrementing unrelated
// counters concurrently.
type paddedCounter struct { //nolint:unused
	_ [64]byte
	v atomic.Uint64
	_ [56]byte
}

func (c *paddedCounter) add(n uint64) { c.v.Add(n) }
func (c *paddedCounter) load() uint64 { return c.v.Load() }

// Counters aggregates the runtime's hot-path counters: dispatches,
// context switches, futex operations, and timeouts.
type Counters struct {
	dispatches     paddedCounter
	contextSwitches paddedCounter
	futexWaits     paddedCounter
	futexWakes     paddedCounter
	timeouts       paddedCounter
	spawns         paddedCounter
	destroys       paddedCounter
}

// IncDispatch records one scheduler dispatch (Cpu.schedule() picking a
// next thread).
func (c *Counters) IncDispatch() { c.dispatches.add(1) }

// IncContextSwitch records one context switch (trap or yield).
func (c *Counters) IncContextSwitch() { c.contextSwitches.add(1) }

// IncFutexWait records one futex_wait call.
func (c *Counters) IncFutexWait() { c.futexWaits.add(1) }

// IncFutexWake records one futex_wake call's woken count.
func (c *Counters) IncFutexWake(n int) {
	if n > 0 {
		c.futexWakes.add(uint64(n))
	}
}

// IncTimeout records one timed-out block.
func (c *Counters) IncTimeout() { c.timeouts.add(1) }

// IncSpawn records one thread allocation.
func (c *Counters) IncSpawn() { c.spawns.add(1) }

// IncDestroy records one thread destruction.
func (c *Counters) IncDestroy() { c.destroys.add(1) }

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Dispatches      uint64
	ContextSwitches uint64
	FutexWaits      uint64
	FutexWakes      uint64
	Timeouts        uint64
	Spawns          uint64
	Destroys        uint64
}

// Snapshot reads every counter atomically (but not as a single atomic
// transaction across counters, matching the teacher's metrics.go).
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Dispatches:      c.dispatches.load(),
		ContextSwitches: c.contextSwitches.load(),
		FutexWaits:      c.futexWaits.load(),
		FutexWakes:      c.futexWakes.load(),
		Timeouts:        c.timeouts.load(),
		Spawns:          c.spawns.load(),
		Destroys:        c.destroys.load(),
	}
}
