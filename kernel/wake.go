package kernel

import (
	"github.com/shyper-org/Unishyper-sub001/kerr"
	"github.com/shyper-org/Unishyper-sub001/klog"
	"github.com/shyper-org/Unishyper-sub001/kthread"
	"github.com/shyper-org/Unishyper-sub001/ktime"
)

// wake moves t out of the scheduler's blocked set (a no-op if it was
// never in it) and onto coreID's ready queue, front or back. Waking an
// already-Ready thread is a no-op, matching the source's thread_wake:
// wake() on a thread not actually parked does nothing. Waking a Dead
// thread is a no-op too, since a Dead thread is never dispatched again.
func (k *Kernel) wake(t *kthread.Thread, coreID int, front bool) error {
	if s := t.Status(); s == kthread.Ready || s == kthread.Dead {
		return nil
	}
	core, err := k.cpu.Core(coreID)
	if err != nil {
		return err
	}
	core.Scheduler().Unblock(t)
	t.MarkReady()
	if front {
		core.Scheduler().AddFront(t)
	} else {
		core.Scheduler().Add(t)
	}
	return nil
}

// Wake moves t to the back of coreID's ready queue (thread_wake).
func (k *Kernel) Wake(t *kthread.Thread, coreID int) error {
	return k.wake(t, coreID, false)
}

// WakeToFront moves t to the front of coreID's ready queue
// (thread_wake_to_front), used to give a just-unblocked thread priority
// over whatever else is already waiting.
func (k *Kernel) WakeToFront(t *kthread.Thread, coreID int) error {
	return k.wake(t, coreID, true)
}

// WakeByID looks tid up in the registry and wakes it, returning
// kerr.NotFound if tid is unknown (already destroyed, or never
// existed) — thread_wake_by_tid. Waking self or a thread that is
// already Running is dropped silently rather than treated as an error,
// matching the source's handling of a wake racing ahead of its target
// actually blocking.
func (k *Kernel) WakeByID(self *kthread.Thread, id kthread.Tid, coreID int) error {
	if self != nil && id == self.ID() {
		return nil
	}
	t := k.registry.Lookup(id)
	if t == nil {
		klog.Warn("kernel", "wake_by_id: no such thread", klog.Fields{"tid": uint64(id)})
		return kerr.New(kerr.NotFound, "kernel.WakeByID", "no such thread")
	}
	if t.Status() == kthread.Running {
		return nil
	}
	return k.Wake(t, coreID)
}

// BlockCurrent parks self indefinitely on coreID's scheduler
// (block_current). Only a matching Wake/WakeByID/WakeToFront call
// returns it to the ready queue.
func (k *Kernel) BlockCurrent(self *kthread.Thread, coreID int) error {
	core, err := k.cpu.Core(coreID)
	if err != nil {
		return err
	}
	core.Scheduler().Block(self, nil)
	self.ParkSelf(kthread.Blocked)
	return nil
}

// BlockCurrentWithTimeoutMs parks self until woken or until ms
// milliseconds elapse, whichever comes first
// (block_current_with_timeout).
func (k *Kernel) BlockCurrentWithTimeoutMs(self *kthread.Thread, coreID int, ms uint64) error {
	core, err := k.cpu.Core(coreID)
	if err != nil {
		return err
	}
	wakeup := ktime.CurrentMs() + ms
	core.Scheduler().Block(self, &wakeup)
	self.ParkSelf(kthread.Sleep)
	return nil
}

// BlockCurrentWithTimeoutUs is BlockCurrentWithTimeoutMs at microsecond
// granularity, truncated to whole milliseconds like SleepUs.
func (k *Kernel) BlockCurrentWithTimeoutUs(self *kthread.Thread, coreID int, us uint64) error {
	return k.BlockCurrentWithTimeoutMs(self, coreID, us/1000)
}
