package kernel

import (
	"sync"
	"sync/atomic"

	"github.com/shyper-org/Unishyper-sub001/kerr"
	"github.com/shyper-org/Unishyper-sub001/kthread"
	"github.com/shyper-org/Unishyper-sub001/ktime"
	"github.com/shyper-org/Unishyper-sub001/park"
)

// SemID identifies one semaphore allocated by SemInit.
type SemID uint64

// semaphoreTable is the handle registry sem_init/sem_post/sem_wait
// operate through, in the style of kthread.Registry's id allocator
// rather than original_source's direct Arc<Semaphore> references
// (spec's flat C-style API hands callers an integer id, not a pointer).
type semaphoreTable struct {
	nextID atomic.Uint64

	mu   sync.RWMutex
	sems map[SemID]*park.Semaphore
}

func newSemaphoreTable() *semaphoreTable {
	return &semaphoreTable{sems: make(map[SemID]*park.Semaphore)}
}

// SemInit allocates a new semaphore with the given initial value on
// core 0's scheduler, returning a handle for subsequent operations.
func (k *Kernel) SemInit(initial uint) (SemID, error) {
	core, err := k.cpu.Core(0)
	if err != nil {
		return 0, err
	}
	sem := park.NewSemaphore(core.Scheduler(), initial, nil)

	id := SemID(k.sems.nextID.Add(1))
	k.sems.mu.Lock()
	k.sems.sems[id] = sem
	k.sems.mu.Unlock()
	return id, nil
}

func (k *Kernel) lookupSem(id SemID) (*park.Semaphore, error) {
	k.sems.mu.RLock()
	defer k.sems.mu.RUnlock()
	sem, ok := k.sems.sems[id]
	if !ok {
		return nil, kerr.New(kerr.NotFound, "kernel.sem", "unknown semaphore id")
	}
	return sem, nil
}

// SemPost releases one unit of the semaphore identified by id.
func (k *Kernel) SemPost(id SemID) error {
	sem, err := k.lookupSem(id)
	if err != nil {
		return err
	}
	sem.Release()
	return nil
}

// SemWait blocks self until a unit of the semaphore is available.
func (k *Kernel) SemWait(self *kthread.Thread, id SemID) error {
	sem, err := k.lookupSem(id)
	if err != nil {
		return err
	}
	sem.Acquire(self)
	return nil
}

// SemTimedWait blocks self until a unit is available or timeoutMs
// elapses, returning kerr.Internal("timed out") on timeout. Driven
// entirely by self's own goroutine through park.Semaphore.AcquireTimed
// rather than a watchdog acquiring on self's behalf, since only self's
// own goroutine may ever operate self's baton.
func (k *Kernel) SemTimedWait(self *kthread.Thread, id SemID, timeoutMs uint64) error {
	sem, err := k.lookupSem(id)
	if err != nil {
		return err
	}
	deadline := ktime.CurrentMs() + timeoutMs
	if sem.AcquireTimed(self, &deadline) {
		return nil
	}
	return kerr.New(kerr.Internal, "kernel.SemTimedWait", "timed out")
}

// SemDestroy removes a semaphore handle. Threads already parked inside
// an Acquire on it are not woken — callers are expected to have drained
// waiters before destroying, matching the source's lack of any
// "destroy a semaphore with waiters" contract.
func (k *Kernel) SemDestroy(id SemID) {
	k.sems.mu.Lock()
	delete(k.sems.sems, id)
	k.sems.mu.Unlock()
}
