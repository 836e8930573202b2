// Package irq models the kernel's interrupt-masking gate: nested
// enable/disable depth tracking, and the IRQ-safe spinlock the parking
// lot and semaphores (package park) are guarded by.
//
// A hosted Go process has no hardware interrupt mask. Gate instead
// tracks a logical disable depth; the tick driver (package tick)
// consults the kernel's Gate before delivering a simulated timer
// interrupt and skips the tick while it is disabled. Each Spinlock
// carries its own private Gate, separate from the kernel's, so holding a
// Spinlock does not hold off ticks.
package irq

import "sync/atomic"

// Gate tracks nested interrupt-disable depth for one logical core (or,
// for state shared across cores such as the parking lot, for the
// runtime as a whole). The zero value starts disabled; NewGate returns
// one that starts enabled.
type Gate struct {
	depth   atomic.Int32
	enabled atomic.Bool
}

// NewGate returns a Gate starting in the enabled state.
func NewGate() *Gate {
	g := &Gate{}
	g.enabled.Store(true)
	return g
}

// Enabled reports whether interrupts are currently enabled on this gate.
func (g *Gate) Enabled() bool { return g.enabled.Load() }

// Enable unconditionally enables interrupts and resets nesting depth to
// zero. Used only at boot and in tests; ordinary code should use
// NestedDisable/NestedEnable pairs.
func (g *Gate) Enable() {
	g.depth.Store(0)
	g.enabled.Store(true)
}

// Disable unconditionally disables interrupts and resets nesting depth
// to one.
func (g *Gate) Disable() {
	g.depth.Store(1)
	g.enabled.Store(false)
}

// NestedDisable disables interrupts, incrementing the nesting depth, and
// returns whether interrupts were enabled before this call so the
// matching NestedEnable can restore the correct state.
func (g *Gate) NestedDisable() (wasEnabled bool) {
	wasEnabled = g.enabled.Swap(false)
	g.depth.Add(1)
	return wasEnabled
}

// NestedEnable undoes one NestedDisable. Once depth returns to zero,
// interrupts are restored to wasEnabled.
func (g *Gate) NestedEnable(wasEnabled bool) {
	if g.depth.Add(-1) <= 0 {
		g.enabled.Store(wasEnabled)
	}
}

// Spinlock is the IRQ-safe lock the parking lot and semaphores are
// guarded by. It is a real mutex (a hosted Go process has
// real concurrent goroutines to serialize, unlike a single physical
// core), paired with a Gate so callers can still observe and depend on
// the nested-disable contract.
type Spinlock struct {
	gate *Gate
	mu   chan struct{} // 1-buffered channel used as a non-reentrant mutex
}

// NewSpinlock constructs a ready-to-use Spinlock.
func NewSpinlock() *Spinlock {
	s := &Spinlock{gate: NewGate(), mu: make(chan struct{}, 1)}
	s.mu <- struct{}{}
	return s
}

// Lock acquires the spinlock and disables interrupts for the critical
// section, returning a token to pass to Unlock.
func (s *Spinlock) Lock() (wasEnabled bool) {
	<-s.mu
	wasEnabled = s.gate.NestedDisable()
	return wasEnabled
}

// Unlock releases the spinlock and restores interrupts per the token
// returned by the matching Lock.
func (s *Spinlock) Unlock(wasEnabled bool) {
	s.gate.NestedEnable(wasEnabled)
	s.mu <- struct{}{}
}

// Gate returns the lock's underlying interrupt gate.
func (s *Spinlock) Gate() *Gate { return s.gate }
