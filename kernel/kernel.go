// Package kernel is the flat facade spec describes: spawn, join, exit,
// yield, futex, semaphore, TLS, and IRQ operations as free functions on
// a single Kernel value, wiring together kconfig, kthread, ksched,
// kcpu, park, tls, tick, and irq the way original_source/src/lib.rs's
// top-level re-exports wire the source's modules into one flat surface.
package kernel

import (
	"sync/atomic"
	"time"

	"github.com/shyper-org/Unishyper-sub001/irq"
	"github.com/shyper-org/Unishyper-sub001/kconfig"
	"github.com/shyper-org/Unishyper-sub001/kcpu"
	"github.com/shyper-org/Unishyper-sub001/klog"
	"github.com/shyper-org/Unishyper-sub001/kmetrics"
	"github.com/shyper-org/Unishyper-sub001/kstack"
	"github.com/shyper-org/Unishyper-sub001/kthread"
	"github.com/shyper-org/Unishyper-sub001/ktime"
	"github.com/shyper-org/Unishyper-sub001/netexec"
	"github.com/shyper-org/Unishyper-sub001/park"
	"github.com/shyper-org/Unishyper-sub001/tick"
	"github.com/shyper-org/Unishyper-sub001/tls"
)

// Kernel owns every runtime subsystem and is the receiver for the flat
// API spec names. Boot() returns a ready-to-use Kernel; callers drive
// dispatch themselves by calling RunCore in one goroutine per core.
type Kernel struct {
	cfg      *kconfig.Config
	metrics  *kmetrics.Counters
	stacks   *kstack.Pool
	registry *kthread.Registry
	cpu      *kcpu.Cpu
	futex    *park.FutexTable
	sems     *semaphoreTable
	tlsKeys  *tls.KeyTable
	gate     *irq.Gate
	ticker   *tick.Handler
	netExec  *netexec.Executor
	netStop  chan struct{}
}

// Boot resolves configuration, constructs every subsystem, and starts
// the tick handler. Callers must still run RunCore for each core to
// actually dispatch threads.
func Boot(opts ...kconfig.Option) (*Kernel, error) {
	cfg, err := kconfig.Resolve(opts...)
	if err != nil {
		return nil, err
	}
	ktime.Init()

	metrics := &kmetrics.Counters{}
	stacks := kstack.NewPool(kconfig.PageSize)
	registry := kthread.NewRegistry(stacks, metrics)
	cpu := kcpu.New(cfg, registry, metrics)

	k := &Kernel{
		cfg:      cfg,
		metrics:  metrics,
		stacks:   stacks,
		registry: registry,
		cpu:      cpu,
		sems:     newSemaphoreTable(),
		tlsKeys:  tls.NewKeyTable(),
		gate:     irq.NewGate(),
	}

	coreZero, err := cpu.Core(0)
	if err != nil {
		return nil, err
	}
	k.futex = park.NewFutexTable(coreZero.Scheduler(), metrics)

	k.ticker = tick.NewHandler(cpu, k.gate, cfg.TickPeriod())
	go k.ticker.Run()

	k.netExec = netexec.New(k)
	k.netStop = make(chan struct{})
	go k.netExec.Run(k.netStop)

	klog.Info("kernel", "booted", klog.Fields{"cores": cfg.Cores(), "scheduler": schedulerKindName(cfg.SchedulerKind())})
	return k, nil
}

func schedulerKindName(k kconfig.SchedulerKind) string {
	if k == kconfig.Global {
		return "global"
	}
	return "per-core"
}

// Shutdown stops the tick handler and the network executor's driver
// loop. It does not destroy any live threads.
func (k *Kernel) Shutdown() {
	k.ticker.Stop()
	close(k.netStop)
}

// NetExecutor exposes the async task executor blocking network calls
// park/unpark through, for code driving smoltcp-style sockets on top of
// this runtime.
func (k *Kernel) NetExecutor() *netexec.Executor { return k.netExec }

// Metrics returns the kernel's hot-path counters.
func (k *Kernel) Metrics() kmetrics.Snapshot { return k.metrics.Snapshot() }

// Cpu exposes the per-core dispatch surface for the process driving
// RunCore loops and the shell's `ps` command.
func (k *Kernel) Cpu() *kcpu.Cpu { return k.cpu }

// Registry exposes the thread registry for the shell's `ps`/`kill`
// commands.
func (k *Kernel) Registry() *kthread.Registry { return k.registry }

// Stacks exposes the stack pool for the shell's `free` command.
func (k *Kernel) Stacks() *kstack.Pool { return k.stacks }

// RunCore drives one core's dispatch loop forever. Intended to be
// called once per core, each in its own goroutine.
func (k *Kernel) RunCore(coreID int) error {
	core, err := k.cpu.Core(coreID)
	if err != nil {
		return err
	}
	for {
		core.Schedule()
	}
}

// Spawn allocates and enqueues a new user thread with an empty name.
func (k *Kernel) Spawn(entry kthread.Entry, arg0, arg1 uint64) (kthread.Tid, error) {
	return k.SpawnNamed("", entry, arg0, arg1)
}

// SpawnNamed allocates and enqueues a new user thread on core 0's ready
// queue (or the shared scheduler under kconfig.Global), matching
// thread_alloc2 followed by an implicit add to the running queue.
func (k *Kernel) SpawnNamed(name string, entry kthread.Entry, arg0, arg1 uint64) (kthread.Tid, error) {
	t, err := k.registry.Alloc(entry, kthread.AllocOptions{
		Name:      name,
		Level:     kthread.User,
		StackSize: k.cfg.StackSize(),
		Arg0:      arg0,
		Arg1:      arg1,
	})
	if err != nil {
		return 0, err
	}
	core, err := k.cpu.Core(0)
	if err != nil {
		return 0, err
	}
	t.MarkReady()
	core.Scheduler().Add(t)
	return t.ID(), nil
}

// Join blocks until tid exits, returning its exit code.
func (k *Kernel) Join(tid kthread.Tid) (int, error) {
	return k.registry.Join(tid)
}

// Exit records self's exit code and wakes its joiners. The calling
// thread's goroutine should return immediately after calling Exit; the
// thread remains registered (and its stack held) until DestroyByID is
// called, matching the source's separation between a thread exiting and
// it being reaped.
func (k *Kernel) Exit(self *kthread.Thread, code int) {
	k.registry.Exit(self.ID(), code)
}

// DestroyByID removes a thread and releases its stack. A no-op if the
// id is unknown or already destroyed.
func (k *Kernel) DestroyByID(tid kthread.Tid) {
	k.registry.Destroy(tid)
}

// Yield parks self at the back of the ready queue for voluntary
// rescheduling (thread_yield).
func (k *Kernel) Yield(self *kthread.Thread, coreID int) error {
	core, err := k.cpu.Core(coreID)
	if err != nil {
		return err
	}
	self.MarkReady()
	core.Scheduler().Add(self)
	self.ParkSelf(kthread.Ready)
	return nil
}

// CurrentID returns self's own id — a thin wrapper kept for symmetry
// with spec's current_thread_id(), since self is already explicit in
// this API.
func (k *Kernel) CurrentID(self *kthread.Thread) kthread.Tid { return self.ID() }

// SleepUs parks self for at least us/1000 whole milliseconds: us is
// truncated to milliseconds, so a sub-millisecond sleep lasts only until
// a tick observes the next millisecond.
func (k *Kernel) SleepUs(self *kthread.Thread, coreID int, us uint64) error {
	core, err := k.cpu.Core(coreID)
	if err != nil {
		return err
	}
	wakeup := ktime.CurrentMs() + us/1000
	core.Scheduler().Block(self, &wakeup)
	self.ParkSelf(kthread.Sleep)
	return nil
}

// FutexWait returns park.WakeTimedOut at once if word != expected.
// Otherwise it blocks self on word's address until a FutexWake on that
// address dequeues it (park.WakeOK) or timeoutMs elapses
// (park.WakeTimedOut).
func (k *Kernel) FutexWait(self *kthread.Thread, word *atomic.Uint64, expected uint64, timeoutMs *uint64, flags park.Flags) int {
	return k.futex.Wait(word, expected, timeoutMs, flags, self)
}

// FutexWake wakes up to count threads parked on word's address.
func (k *Kernel) FutexWake(word *atomic.Uint64, count int) int {
	return k.futex.Wake(word, count)
}

// IrqEnable unconditionally enables interrupt delivery (tick sweeps).
func (k *Kernel) IrqEnable() { k.gate.Enable() }

// IrqDisable unconditionally disables interrupt delivery.
func (k *Kernel) IrqDisable() { k.gate.Disable() }

// IrqNestedDisable disables interrupt delivery, returning a token for
// the matching IrqNestedEnable.
func (k *Kernel) IrqNestedDisable() bool { return k.gate.NestedDisable() }

// IrqNestedEnable restores interrupt delivery per a token from
// IrqNestedDisable.
func (k *Kernel) IrqNestedEnable(wasEnabled bool) { k.gate.NestedEnable(wasEnabled) }

// CurrentCycle, CurrentUs, CurrentMs, CurrentNs report elapsed time
// since boot.
func (k *Kernel) CurrentCycle() uint64 { return ktime.CurrentCycle() }
func (k *Kernel) CurrentUs() uint64    { return ktime.CurrentUs() }
func (k *Kernel) CurrentMs() uint64    { return ktime.CurrentMs() }
func (k *Kernel) CurrentNs() uint64    { return ktime.CurrentNs() }

// BootTimeUs returns the kernel's boot time in Unix microseconds.
func (k *Kernel) BootTimeUs() uint64 { return ktime.BootTimeUs() }

// TickPeriod returns the configured simulated interrupt period.
func (k *Kernel) TickPeriod() time.Duration { return k.cfg.TickPeriod() }

// TlsKeyCreate allocates a new thread-local storage key.
func (k *Kernel) TlsKeyCreate() tls.Key { return k.tlsKeys.Create() }

// TlsKeyDestroy invalidates a thread-local storage key.
func (k *Kernel) TlsKeyDestroy(key tls.Key) { k.tlsKeys.Destroy(key) }

// TlsSet stores value under key for self.
func (k *Kernel) TlsSet(self *kthread.Thread, key tls.Key, value uint64) error {
	return k.tlsKeys.Set(self, key, value)
}

// TlsGet reads the value stored under key for self.
func (k *Kernel) TlsGet(self *kthread.Thread, key tls.Key) (uint64, bool, error) {
	return k.tlsKeys.Get(self, key)
}
