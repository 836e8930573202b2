// Package ksched is the round-robin scheduler: a ready queue and a
// blocked-with-timeout set, grounded on
// original_source/src/libs/scheduler.rs's RoundRobinScheduler. One
// Scheduler instance is either shared by every core (kconfig.Global)
// or owned one-per-core (kconfig.PerCore) — kcpu decides which, this
// package only implements the single-instance queue pair.
package ksched

import (
	"sync"

	"github.com/shyper-org/Unishyper-sub001/kthread"
)

// Scheduler is a ready queue plus a blocked-with-timeout set. Where
// scheduler.rs guards each of its queues with its own lock, here one
// mutex covers both.
type Scheduler struct {
	mu      sync.Mutex
	ready   *readyQueue
	blocked *blockedSet
}

// New constructs an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{
		ready:   newReadyQueue(),
		blocked: newBlockedSet(),
	}
}

// Add enqueues a ready thread at the tail of the ready queue.
func (s *Scheduler) Add(t *kthread.Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready.pushBack(t)
}

// AddFront enqueues a ready thread at the head of the ready queue,
// matching scheduler.rs's add_front.
func (s *Scheduler) AddFront(t *kthread.Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready.pushFront(t)
}

// Pop removes and returns the next ready thread, or nil if none is
// ready.
func (s *Scheduler) Pop() *kthread.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready.popFront()
}

// ReadyLen reports how many threads are waiting in the ready queue.
func (s *Scheduler) ReadyLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready.len()
}

// Block parks t in the blocked-with-timeout set until wakeupMs
// (absolute milliseconds since boot), matching
// RoundRobinScheduler::blocked. A timeout of nil parks indefinitely,
// the source's usize::MAX sentinel.
func (s *Scheduler) Block(t *kthread.Thread, wakeupMs *uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline := ^uint64(0)
	if wakeupMs != nil {
		deadline = *wakeupMs
	}
	s.blocked.insert(t, deadline)
}

// Unblock removes t from the blocked set before its deadline elapses,
// reporting whether it was actually found there (a no-op wake-by-id
// racing a timeout that already fired returns false).
func (s *Scheduler) Unblock(t *kthread.Thread) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked.remove(t)
}

// DueThreads pops every thread in the blocked set whose deadline has
// elapsed by nowMs, in wakeup order, matching
// RoundRobinScheduler::get_wakeup_thread_by_time.
func (s *Scheduler) DueThreads(nowMs uint64) []*kthread.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked.popExpired(nowMs)
}

// BlockedLen reports how many threads are parked with a pending
// deadline.
func (s *Scheduler) BlockedLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked.len()
}

// EachReady calls fn for every ready thread, used by the shell's `ps`.
func (s *Scheduler) EachReady(fn func(*kthread.Thread)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready.each(fn)
}

// EachBlocked calls fn for every blocked thread, used by the shell's
// `ps`.
func (s *Scheduler) EachBlocked(fn func(*kthread.Thread)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked.each(fn)
}
