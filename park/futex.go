// Package park implements the two blocking primitives built directly
// on the scheduler: futex wait/wake and counting semaphores. Grounded
// on original_source/src/libs/synch/futex.rs and
// original_source/src/lib/synch/semaphore.rs.
package park

import (
	"sync/atomic"

	"github.com/shyper-org/Unishyper-sub001/irq"
	"github.com/shyper-org/Unishyper-sub001/kmetrics"
	"github.com/shyper-org/Unishyper-sub001/ksched"
	"github.com/shyper-org/Unishyper-sub001/kthread"
	"github.com/shyper-org/Unishyper-sub001/ktime"
)

// Flags mirrors futex.rs's bitflags Flags: currently only whether the
// supplied timeout is relative to now rather than an absolute
// millisecond deadline.
type Flags uint32

// Relative marks a futex wait's timeout as relative-to-now rather than
// an absolute wakeup time.
const Relative Flags = 1 << 0

const (
	// WakeTimedOut is returned by Wait when the deadline elapsed before
	// a matching Wake arrived, or the expected-value check failed at
	// entry — matching futex_wait's single -1 sentinel for both.
	WakeTimedOut = -1
	// WakeOK is returned by Wait when the caller was actually woken by
	// a matching Wake call.
	WakeOK = 0
)

// FutexTable is the parking lot: one FIFO queue of waiters per watched
// address, guarded by a single IRQ-safe spinlock matching futex.rs's
// static PARKING_LOT: SpinlockIrqSave<HashMap<...>>.
type FutexTable struct {
	lock    *irq.Spinlock
	queues  map[*atomic.Uint64][]*kthread.Thread
	sched   *ksched.Scheduler
	metrics *kmetrics.Counters
}

// NewFutexTable constructs an empty parking lot whose waiters are
// scheduled on sched.
func NewFutexTable(sched *ksched.Scheduler, metrics *kmetrics.Counters) *FutexTable {
	return &FutexTable{
		lock:    irq.NewSpinlock(),
		queues:  make(map[*atomic.Uint64][]*kthread.Thread),
		sched:   sched,
		metrics: metrics,
	}
}

// Wait returns WakeTimedOut at once if word does not equal expected.
// Otherwise it blocks self until a Wake call on word dequeues it, or
// until timeoutMs elapses (absolute
// milliseconds unless flags has Relative set, in which case it is
// added to the current time). A nil timeoutMs blocks indefinitely.
// Returns WakeOK or WakeTimedOut.
func (f *FutexTable) Wait(word *atomic.Uint64, expected uint64, timeoutMs *uint64, flags Flags, self *kthread.Thread) int {
	if f.metrics != nil {
		f.metrics.IncFutexWait()
	}

	wasEnabled := f.lock.Lock()
	if word.Load() != expected {
		f.lock.Unlock(wasEnabled)
		return WakeTimedOut
	}

	var deadline *uint64
	if timeoutMs != nil {
		d := *timeoutMs
		if flags&Relative != 0 {
			d += ktime.CurrentMs()
		}
		deadline = &d
		f.sched.Block(self, deadline)
	}
	f.queues[word] = append(f.queues[word], self)
	f.lock.Unlock(wasEnabled)

	for {
		self.ParkSelf(kthread.WaitForEvent)

		wasEnabled = f.lock.Lock()
		stillQueued, idx := f.indexOf(word, self)
		if !stillQueued {
			f.lock.Unlock(wasEnabled)
			return WakeOK
		}
		if deadline != nil && ktime.CurrentMs() >= *deadline {
			f.removeAt(word, idx)
			f.lock.Unlock(wasEnabled)
			if f.metrics != nil {
				f.metrics.IncTimeout()
			}
			return WakeTimedOut
		}
		f.lock.Unlock(wasEnabled)
		// Spurious wake (resumed without being dequeued and before our
		// own deadline): park again.
	}
}

// Wake wakes up to count waiters parked on word, FIFO, returning how
// many were actually woken. A negative count is an error (matches
// futex_wake's i32 validation); a count of 0 wakes nobody.
func (f *FutexTable) Wake(word *atomic.Uint64, count int) int {
	if count < 0 {
		return -1
	}
	wasEnabled := f.lock.Lock()
	defer f.lock.Unlock(wasEnabled)

	q := f.queues[word]
	n := count
	if n > len(q) {
		n = len(q)
	}
	woken := q[:n]
	rest := q[n:]
	if len(rest) == 0 {
		delete(f.queues, word)
	} else {
		f.queues[word] = rest
	}

	for _, t := range woken {
		f.sched.Unblock(t)
		t.MarkReady()
		f.sched.Add(t)
	}
	if f.metrics != nil {
		f.metrics.IncFutexWake(len(woken))
	}
	return len(woken)
}

func (f *FutexTable) indexOf(word *atomic.Uint64, t *kthread.Thread) (bool, int) {
	for i, w := range f.queues[word] {
		if w == t {
			return true, i
		}
	}
	return false, -1
}

func (f *FutexTable) removeAt(word *atomic.Uint64, idx int) {
	q := f.queues[word]
	q = append(q[:idx], q[idx+1:]...)
	if len(q) == 0 {
		delete(f.queues, word)
	} else {
		f.queues[word] = q
	}
}
