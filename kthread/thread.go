package kthread

import (
	"sync"
	"sync/atomic"

	"github.com/shyper-org/Unishyper-sub001/kctx"
	"github.com/shyper-org/Unishyper-sub001/kstack"
)

// Tid is a thread identifier, assigned starting at 100 to leave room
// for reserved low ids the way the source's THREAD_UUID_ALLOCATOR does.
type Tid uint64

// PrivilegedLevel distinguishes kernel-owned service threads from
// user-spawned work, mirroring thread.rs's PrivilegedLevel.
type PrivilegedLevel int

const (
	// User is the level ordinary spawned threads run at.
	User PrivilegedLevel = iota
	// Kernel is the level idle threads and kernel services run at.
	Kernel
)

// Entry is a thread's entry point: the function it starts running at,
// and the two word-sized arguments thread_alloc2 passes it. self is
// passed explicitly rather than recovered from ambient goroutine state
// (there is no Go equivalent of the source's per-core "current thread"
// register); every flat kernel.* operation that the original sourced
// implicitly from the running thread takes self as its first argument
// instead.
type Entry func(self *Thread, arg0, arg1 uint64)

// Thread is the control block the rest of the kernel references by
// pointer, corresponding to thread.rs's Thread(Arc<ControlBlock>).
type Thread struct {
	id     Tid
	name   string
	parent Tid
	level  PrivilegedLevel

	stack *kstack.Region
	baton *kctx.Baton

	status    atomicStatus
	lastFrame kctx.Frame
	entered   atomic.Bool

	mu       sync.Mutex
	tls      map[uint64]uint64
	joiners  []chan struct{}
	exitCode int
	joined   bool
}

// ID returns the thread's identifier.
func (t *Thread) ID() Tid { return t.id }

// Name returns the thread's human-readable name (may be empty).
func (t *Thread) Name() string { return t.name }

// Parent returns the id of the thread that spawned this one.
func (t *Thread) Parent() Tid { return t.parent }

// IsChildOf reports whether this thread was spawned by parent.
func (t *Thread) IsChildOf(parent Tid) bool { return t.parent == parent }

// Level returns the thread's privilege level.
func (t *Thread) Level() PrivilegedLevel { return t.level }

// Baton returns the thread's context-switch handoff channel pair.
func (t *Thread) Baton() *kctx.Baton { return t.baton }

// Stack returns the thread's stack region.
func (t *Thread) Stack() *kstack.Region { return t.stack }

// Status returns the thread's current status.
func (t *Thread) Status() Status { return t.status.load() }

// SetStatus unconditionally sets the thread's status.
func (t *Thread) SetStatus(s Status) { t.status.store(s) }

// CompareAndSwapStatus atomically transitions the thread's status from
// old to new, reporting whether it took effect.
func (t *Thread) CompareAndSwapStatus(old, new Status) bool {
	return t.status.cas(old, new)
}

// LastFrame returns the context frame the thread most recently left the
// CPU with. Core.Schedule reads only its PC; the trap vs yield choice is
// made by FirstEntry.
func (t *Thread) LastFrame() kctx.Frame { return t.lastFrame }

// SetLastFrame records the frame a thread left the CPU with.
func (t *Thread) SetLastFrame(f kctx.Frame) { t.lastFrame = f }

// Runnable reports whether the thread can be scheduled, matching
// thread.rs's Thread::runnable (true unless WaitForReply/WaitForRequest).
func (t *Thread) Runnable() bool {
	switch t.Status() {
	case WaitForReply, WaitForRequest:
		return false
	default:
		return true
	}
}

// InTrapContext reports whether the thread's last frame was a trap
// frame, matching thread.rs's Thread::in_trap_context.
func (t *Thread) InTrapContext() bool { return t.lastFrame.InTrapContext() }

// FirstEntry reports whether this thread has never been dispatched by
// Core.Schedule, matching thread.rs's context_frame first-entry flag.
// It is independent of LastFrame: LastFrame records how the thread most
// recently left the CPU (always Yield in this runtime, since nothing
// here preempts a running goroutine mid-instruction), while FirstEntry
// records whether the CPU has ever dispatched it at all, which is what
// decides the trap-vs-yield switch primitive on the way in.
func (t *Thread) FirstEntry() bool { return !t.entered.Load() }

// MarkEntered clears the first-entry flag. Called exactly once per
// thread, by Core.Schedule's first dispatch of it.
func (t *Thread) MarkEntered() { t.entered.Store(true) }

// ParkSelf is how a thread voluntarily leaves the CPU: it sets its own
// status, then hands the baton back to whichever goroutine is running
// Core.Schedule and blocks until that thread is chosen to run again.
// Every blocking primitive (futex wait, semaphore acquire, sleep,
// thread_yield) is built on this one call.
func (t *Thread) ParkSelf(status Status) kctx.Frame {
	t.SetStatus(status)
	return t.baton.Yield(kctx.Frame{Kind: kctx.Yield})
}

// MarkReady transitions the thread to Ready. Callers are responsible
// for then enqueuing it on a Scheduler so Core.Schedule can find it —
// MarkReady alone does not make the thread runnable again.
func (t *Thread) MarkReady() { t.SetStatus(Ready) }

// SetLocal stores a thread-local value under key, for package tls.
func (t *Thread) SetLocal(key, value uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tls == nil {
		t.tls = make(map[uint64]uint64)
	}
	t.tls[key] = value
}

// GetLocal reads a thread-local value, reporting whether it was set.
func (t *Thread) GetLocal(key uint64) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.tls[key]
	return v, ok
}

// ClearLocal removes every thread-local value, called on destroy.
func (t *Thread) ClearLocal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tls = nil
}

// exit records the thread's exit code and wakes every waiter blocked in
// Join. Calling exit more than once only the first call has effect.
func (t *Thread) exit(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.joined {
		return
	}
	t.joined = true
	t.exitCode = code
	for _, ch := range t.joiners {
		close(ch)
	}
	t.joiners = nil
}

// join blocks the caller's goroutine until the thread has exited,
// returning its exit code. join returns immediately if the thread has
// already exited.
func (t *Thread) join() int {
	t.mu.Lock()
	if t.joined {
		code := t.exitCode
		t.mu.Unlock()
		return code
	}
	ch := make(chan struct{})
	t.joiners = append(t.joiners, ch)
	t.mu.Unlock()
	<-ch
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exitCode
}

// hasExited reports whether the thread has already run to exit.
func (t *Thread) hasExited() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.joined
}
