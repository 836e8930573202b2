// Package netexec is the async task executor blocking network I/O
// parks into, grounded on original_source/src/libs/net/executor.rs
// (its QUEUE: Spinlock<Vec<Runnable>> run loop and
// block_current_with_timeout/thread_wake_by_tid park/unpark pair) and
// restructured around eventloop/loop.go's FastState-driven run loop: a
// task queue drained by a single driver goroutine.
package netexec

import (
	"sync"
	"sync/atomic"

	"github.com/shyper-org/Unishyper-sub001/kthread"
)

// Task is one unit of work submitted to the executor — typically a
// closure that drives a future/poll-style state machine one step and
// re-submits itself if not yet complete.
type Task func()

// Scheduler is the slice of *kernel.Kernel's facade Executor needs to
// park a thread inside a blocking network call and unpark it by id once
// the awaited I/O completes. netexec cannot import kernel (kernel wires
// an Executor in, the reverse would cycle), so this narrows the
// dependency down to block_current_with_timeout and thread_wake_by_tid,
// the two operations executor.rs's ThreadNotify actually needs from the
// scheduler underneath it.
type Scheduler interface {
	BlockCurrentWithTimeoutUs(self *kthread.Thread, coreID int, us uint64) error
	WakeByID(self *kthread.Thread, id kthread.Tid, coreID int) error
}

// state mirrors eventloop/state.go's LoopState enum, reduced to the
// three phases an executor actually needs.
type state int32

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Executor runs submitted tasks on a single driver goroutine (Run),
// the way a network stack's single-threaded poll loop drains ready
// sockets without needing per-task synchronization beyond the queue
// itself. Blocking calls it drives park through Park/Unpark rather than
// a private condvar, so a parked thread is always the same thread the
// scheduler knows about and can account for in ps/debug output.
type Executor struct {
	sched Scheduler

	mu    sync.Mutex
	queue []Task

	wake  chan struct{}
	state atomic.Int32
}

// New constructs an idle Executor whose blocking calls park/unpark
// through sched.
func New(sched Scheduler) *Executor {
	return &Executor{sched: sched, wake: make(chan struct{}, 1)}
}

// Spawn enqueues a task and wakes the driver loop if it is sleeping.
func (e *Executor) Spawn(t Task) {
	e.mu.Lock()
	e.queue = append(e.queue, t)
	e.mu.Unlock()
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Executor) drain() []Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return nil
	}
	out := e.queue
	e.queue = nil
	return out
}

// Run drives the executor until stop is closed, running every queued
// task to completion before sleeping for the next wakeup.
func (e *Executor) Run(stop <-chan struct{}) {
	e.state.Store(int32(stateRunning))
	defer e.state.Store(int32(stateStopped))
	for {
		for _, t := range e.drain() {
			t()
		}
		select {
		case <-stop:
			return
		case <-e.wake:
		}
	}
}

// Park blocks self on coreID's scheduler until a matching Unpark(self's
// id) arrives or timeoutUs microseconds elapse, whichever comes first —
// block_current_with_timeout. A blocking network call (connect, read,
// accept) calls this instead of busy-polling while its packet is in
// flight.
func (e *Executor) Park(self *kthread.Thread, coreID int, timeoutUs uint64) error {
	return e.sched.BlockCurrentWithTimeoutUs(self, coreID, timeoutUs)
}

// Unpark wakes the thread identified by tid on coreID — thread_wake_by_tid,
// called by the driver loop once the socket tid is waiting on becomes
// ready. It returns the scheduler's error for a tid that is no longer
// registered (*kernel.Kernel reports kerr.NotFound).
func (e *Executor) Unpark(tid kthread.Tid, coreID int) error {
	return e.sched.WakeByID(nil, tid, coreID)
}

// State reports the executor's run-loop phase, used by the shell's
// debug surface.
func (e *Executor) State() string {
	switch state(e.state.Load()) {
	case stateRunning:
		return "running"
	case stateStopped:
		return "stopped"
	default:
		return "idle"
	}
}
