package park

import (
	"github.com/shyper-org/Unishyper-sub001/irq"
	"github.com/shyper-org/Unishyper-sub001/ksched"
	"github.com/shyper-org/Unishyper-sub001/kthread"
	"github.com/shyper-org/Unishyper-sub001/ktime"
)

// Semaphore is a counting semaphore with a FIFO waiter queue, grounded
// on original_source/src/lib/synch/semaphore.rs.
type Semaphore struct {
	lock  *irq.Spinlock
	sched *ksched.Scheduler
	value uint
	queue []*kthread.Thread
	// reschedule, if set, is invoked after Release actually wakes a
	// waiter, giving the caller a chance to force an immediate dispatch
	// rather than waiting for the releasing thread's own next yield.
	// semaphore.rs calls cpu().schedule() unconditionally here; this
	// runtime leaves that decision to the caller since forcing it
	// synchronously would re-enter the dispatch loop from inside a kernel
	// call. Without a hook, the woken waiter runs once the releasing
	// thread next leaves the CPU.
	reschedule func()
}

// NewSemaphore constructs a semaphore with the given initial value.
func NewSemaphore(sched *ksched.Scheduler, initial uint, reschedule func()) *Semaphore {
	return &Semaphore{
		lock:       irq.NewSpinlock(),
		sched:      sched,
		value:      initial,
		reschedule: reschedule,
	}
}

// Acquire blocks self until the semaphore's value is nonzero, then
// decrements it.
func (s *Semaphore) Acquire(self *kthread.Thread) {
	s.AcquireTimed(self, nil)
}

// AcquireTimed blocks self until the semaphore's value is nonzero or
// deadlineMs (absolute milliseconds since boot) elapses, reporting
// whether a unit was actually acquired. A nil deadlineMs blocks
// indefinitely, equivalent to Acquire.
//
// Unlike the Release-driven wake path, a timed wait has to stay driven
// by self's own goroutine the whole way through: self.ParkSelf hands
// self's baton to whichever goroutine is running Core.Schedule, and
// only self's own goroutine is allowed to operate that baton again on
// the way back. A separate watchdog goroutine acquiring on self's
// behalf would leave two goroutines representing the same thread. So
// the deadline is instead registered with the scheduler's own blocked
// set, and the queue removal on timeout is deadline-aware, the same
// shape as park.FutexTable.Wait's re-check loop.
func (s *Semaphore) AcquireTimed(self *kthread.Thread, deadlineMs *uint64) bool {
	for {
		wasEnabled := s.lock.Lock()
		if s.value != 0 {
			s.value--
			s.lock.Unlock(wasEnabled)
			return true
		}
		s.queue = append(s.queue, self)
		s.lock.Unlock(wasEnabled)

		if deadlineMs != nil {
			s.sched.Block(self, deadlineMs)
		}
		self.ParkSelf(kthread.Blocked)

		wasEnabled = s.lock.Lock()
		idx := s.indexOf(self)
		if idx < 0 {
			// Release already popped self off the queue and handed it the
			// unit directly.
			s.lock.Unlock(wasEnabled)
			return true
		}
		if deadlineMs != nil && ktime.CurrentMs() >= *deadlineMs {
			s.removeAt(idx)
			s.lock.Unlock(wasEnabled)
			return false
		}
		// Spurious wake (resumed without being dequeued and before our
		// own deadline): leave the queue and retry from the top, which
		// re-queues self and parks again if no unit is available.
		s.removeAt(idx)
		s.lock.Unlock(wasEnabled)
	}
}

func (s *Semaphore) indexOf(self *kthread.Thread) int {
	for i, w := range s.queue {
		if w == self {
			return i
		}
	}
	return -1
}

func (s *Semaphore) removeAt(idx int) {
	s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
}

// Release increments the semaphore's value, or if a thread is already
// waiting, hands the unit of value directly to the head of the queue
// instead (matching semaphore.rs: an uncontended release never wakes
// anyone, a contended one never actually increments the counter).
func (s *Semaphore) Release() {
	wasEnabled := s.lock.Lock()
	if len(s.queue) == 0 {
		s.value++
		s.lock.Unlock(wasEnabled)
		return
	}
	waiter := s.queue[0]
	s.queue = s.queue[1:]
	s.lock.Unlock(wasEnabled)

	// A no-op for a plain Acquire waiter (never registered with the
	// scheduler's blocked set); removes the pending deadline entry for
	// an AcquireTimed waiter so it cannot also fire as a timeout later.
	s.sched.Unblock(waiter)

	waiter.MarkReady()
	s.sched.Add(waiter)
	if s.reschedule != nil {
		s.reschedule()
	}
}

// Value returns the semaphore's current counter value, used by the
// shell's `ps`/debug surface. It does not reflect queued waiters.
func (s *Semaphore) Value() uint {
	wasEnabled := s.lock.Lock()
	defer s.lock.Unlock(wasEnabled)
	return s.value
}
