// Package tick is the simulated timer interrupt, grounded on
// original_source/src/libs/timer.rs's interrupt() handler: on every
// tick it re-arms the next tick and sweeps every core's scheduler for
// threads whose blocked deadline has elapsed (handle_blocked_threads).
// Thread reaping (timer.rs's handle_exit_threads) is not done here: an
// exited thread is reaped when kernel.DestroyByID is called for it,
// since a hosted goroutine blocked in Join already observes exit the
// moment it happens rather than needing a periodic sweep.
package tick

import (
	"sync/atomic"
	"time"

	"github.com/shyper-org/Unishyper-sub001/irq"
	"github.com/shyper-org/Unishyper-sub001/kcpu"
	"github.com/shyper-org/Unishyper-sub001/klog"
	"github.com/shyper-org/Unishyper-sub001/ktime"
)

// Handler periodically wakes every core's timed-out blocked threads,
// standing in for the hardware timer interrupt.
type Handler struct {
	cpu    *kcpu.Cpu
	gate   *irq.Gate
	period time.Duration

	ticks   atomic.Uint64
	stop    chan struct{}
	stopped chan struct{}
}

// NewHandler constructs a tick handler for cpu, delivering at period
// intervals unless gate reports interrupts disabled (in which case the
// tick is skipped, matching real hardware masking delivery while the
// core has interrupts off).
func NewHandler(cpu *kcpu.Cpu, gate *irq.Gate, period time.Duration) *Handler {
	return &Handler{
		cpu:     cpu,
		gate:    gate,
		period:  period,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run drives the tick loop until Stop is called. Intended to run in its
// own goroutine, one per Handler.
func (h *Handler) Run() {
	defer close(h.stopped)
	t := time.NewTicker(h.period)
	defer t.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-t.C:
			h.deliver()
		}
	}
}

// Stop halts the tick loop and waits for Run to return.
func (h *Handler) Stop() {
	close(h.stop)
	<-h.stopped
}

func (h *Handler) deliver() {
	if h.gate != nil && !h.gate.Enabled() {
		return
	}
	h.ticks.Add(1)
	now := ktime.CurrentMs()
	for _, core := range h.cpu.Cores() {
		due := core.Scheduler().DueThreads(now)
		for _, t := range due {
			t.MarkReady()
			core.Scheduler().Add(t)
			klog.Debug("tick", "woke timed-out thread", klog.Fields{"tid": uint64(t.ID())})
		}
	}
}

// Ticks returns how many tick deliveries have run, used for tests and
// the shell's debug surface.
func (h *Handler) Ticks() uint64 { return h.ticks.Load() }
