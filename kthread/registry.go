package kthread

import (
	"sync"
	"sync/atomic"

	"github.com/shyper-org/Unishyper-sub001/kconfig"
	"github.com/shyper-org/Unishyper-sub001/kctx"
	"github.com/shyper-org/Unishyper-sub001/kerr"
	"github.com/shyper-org/Unishyper-sub001/klog"
	"github.com/shyper-org/Unishyper-sub001/kmetrics"
	"github.com/shyper-org/Unishyper-sub001/kstack"
)

// firstTid is the first id handed out by a Registry's allocator,
// matching THREAD_UUID_ALLOCATOR's AtomicUsize::new(100): ids below it
// are reserved for the idle threads synthesized at boot (spec's
// (core+1)*11 formula never produces a value below 11, but keeping the
// same floor as the source avoids colliding with any reserved id a
// future component introduces).
const firstTid = 100

// Registry owns every live Thread, grounded on thread.rs's
// THREAD_MAP: Mutex<BTreeMap<Tid, Thread>>, restructured around
// eventloop/registry.go's id-allocator-plus-map shape.
type Registry struct {
	stacks  *kstack.Pool
	metrics *kmetrics.Counters

	nextID atomic.Uint64

	mu      sync.RWMutex
	threads map[Tid]*Thread
}

// NewRegistry constructs an empty Registry drawing stacks from pool.
func NewRegistry(pool *kstack.Pool, metrics *kmetrics.Counters) *Registry {
	r := &Registry{
		stacks:  pool,
		metrics: metrics,
		threads: make(map[Tid]*Thread),
	}
	r.nextID.Store(firstTid)
	return r
}

// AllocOptions configures a new thread at spawn time.
type AllocOptions struct {
	Name      string
	Parent    Tid
	Level     PrivilegedLevel
	StackSize int
	Arg0      uint64
	Arg1      uint64
}

// Alloc allocates a new thread control block and stack and starts its
// entry goroutine, which waits until the thread's first dispatch. It
// does not make the thread schedulable — the caller still has to add it
// to a ksched.Scheduler, matching thread_alloc2 returning a Thread the
// caller still has to add to a scheduler queue.
func (r *Registry) Alloc(entry Entry, opts AllocOptions) (*Thread, error) {
	if entry == nil {
		return nil, kerr.New(kerr.InvArg, "kthread.Alloc", "entry must not be nil")
	}
	size := opts.StackSize
	if size <= 0 {
		size = kconfig.DefaultStackSize
	}
	stack, err := r.stacks.Alloc(size)
	if err != nil {
		return nil, kerr.Wrap(kerr.Oom, "kthread.Alloc", err)
	}

	t := &Thread{
		id:     Tid(r.nextID.Add(1) - 1),
		name:   opts.Name,
		parent: opts.Parent,
		level:  opts.Level,
		stack:  stack,
		baton:  kctx.NewBaton(),
	}
	t.status.store(Runnable)

	r.mu.Lock()
	r.threads[t.id] = t
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.IncSpawn()
	}
	klog.Debug("kthread", "thread allocated", klog.Fields{"tid": uint64(t.id), "name": t.name})

	go runEntry(t, entry, opts.Arg0, opts.Arg1)

	return t, nil
}

// runEntry drives one thread's goroutine: wait to be dispatched, run
// its entry point, and if that entry point ever returns on its own
// (rather than being torn down mid-yield), mark the thread Dead and
// hand the baton back one last time so the scheduler's pending Resume
// call completes instead of blocking forever on a goroutine that has
// already exited.
func runEntry(t *Thread, entry Entry, arg0, arg1 uint64) {
	frame := t.baton.AwaitResume()
	t.SetLastFrame(frame)
	entry(t, arg0, arg1)
	t.SetStatus(Dead)
	t.baton.Yield(kctx.Frame{Kind: kctx.Yield})
}

// AllocIdle allocates a thread at a caller-chosen id rather than the
// next id from the allocator, used once per core to create that core's
// idle thread the first time the core falls back to idle (spec's (core+1)*11 id scheme lives below
// the allocator's starting point of 100 so it can never collide with a
// spawned thread's id).
func (r *Registry) AllocIdle(id Tid, entry Entry) (*Thread, error) {
	if entry == nil {
		return nil, kerr.New(kerr.InvArg, "kthread.AllocIdle", "entry must not be nil")
	}
	stack, err := r.stacks.Alloc(kconfig.DefaultStackSize)
	if err != nil {
		return nil, kerr.Wrap(kerr.Oom, "kthread.AllocIdle", err)
	}
	t := &Thread{
		id:    id,
		name:  "idle",
		level: Kernel,
		stack: stack,
		baton: kctx.NewBaton(),
	}
	t.status.store(Runnable)

	r.mu.Lock()
	r.threads[t.id] = t
	r.mu.Unlock()

	go runEntry(t, entry, 0, 0)
	return t, nil
}

// Lookup returns the thread with the given id, or nil if none is live.
func (r *Registry) Lookup(id Tid) *Thread {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.threads[id]
}

// Destroy removes a thread from the registry and releases its stack.
// Destroying an already-destroyed or unknown thread is a no-op
// (spec §8: "no leaks, no double-free"), matching thread_destroy's
// silent return when the tid is not found.
func (r *Registry) Destroy(id Tid) {
	r.mu.Lock()
	t, ok := r.threads[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.threads, id)
	r.mu.Unlock()

	t.ClearLocal()
	if err := r.stacks.Release(t.stack); err != nil {
		klog.Warn("kthread", "stack release failed", klog.Fields{"tid": uint64(id), "error": err.Error()})
	}
	if r.metrics != nil {
		r.metrics.IncDestroy()
	}
	klog.Debug("kthread", "thread destroyed", klog.Fields{"tid": uint64(id)})
}

// Join blocks until the thread with the given id has exited and
// returns its exit code. Returns kerr.NotFound if the id is not in the
// registry (never allocated, or already destroyed).
func (r *Registry) Join(id Tid) (int, error) {
	t := r.Lookup(id)
	if t == nil {
		return 0, kerr.New(kerr.NotFound, "kthread.Join", "no such thread")
	}
	return t.join(), nil
}

// Exit records a thread's exit code and wakes its joiners. It does not
// remove the thread from the registry; the thread stays registered until
// Destroy is called for it.
func (r *Registry) Exit(id Tid, code int) {
	t := r.Lookup(id)
	if t == nil {
		return
	}
	t.exit(code)
}

// Snapshot returns every live thread's id and status, used by the
// shell's `ps` command.
func (r *Registry) Snapshot() map[Tid]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Tid]Status, len(r.threads))
	for id, t := range r.threads {
		out[id] = t.Status()
	}
	return out
}
