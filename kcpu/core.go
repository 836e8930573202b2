// Package kcpu is the per-core dispatch loop: Core.Schedule implements
// the exact six-step algorithm in
// original_source/src/libs/cpu.rs's Core::schedule, and Cpu is the
// CORES array plus accessors from the same file.
package kcpu

import (
	"sync"
	"sync/atomic"

	"github.com/shyper-org/Unishyper-sub001/kctx"
	"github.com/shyper-org/Unishyper-sub001/kerr"
	"github.com/shyper-org/Unishyper-sub001/klog"
	"github.com/shyper-org/Unishyper-sub001/kmetrics"
	"github.com/shyper-org/Unishyper-sub001/ksched"
	"github.com/shyper-org/Unishyper-sub001/kthread"
)

// idleIDFactor resolves spec's Open Question on the idle thread id
// formula: the source computes (core_id+1)*10+(core_id+1), which
// reduces algebraically to (core_id+1)*11 for every core_id — core 0's
// idle thread is id 11, core 1's is 22, matching the source comment
// verbatim ("core 0's idle thread id is 11, core 1's idle thread id is
// 22").
const idleIDFactor = 11

// Core owns one scheduler instance's worth of dispatch state: which
// thread is running, and a lazily-created idle thread to fall back to
// when nothing else is ready.
type Core struct {
	id        int
	scheduler *ksched.Scheduler
	registry  *kthread.Registry
	metrics   *kmetrics.Counters

	running atomic.Pointer[kthread.Thread]

	idleOnce sync.Once
	idle     *kthread.Thread
}

func newCore(id int, sched *ksched.Scheduler, registry *kthread.Registry, metrics *kmetrics.Counters) *Core {
	return &Core{id: id, scheduler: sched, registry: registry, metrics: metrics}
}

// ID returns the core's logical index.
func (c *Core) ID() int { return c.id }

// Scheduler returns the core's ready/blocked queue pair.
func (c *Core) Scheduler() *ksched.Scheduler { return c.scheduler }

// Running returns the thread currently dispatched on this core, or nil
// before the first Schedule call.
func (c *Core) Running() *kthread.Thread { return c.running.Load() }

func (c *Core) idleThread() *kthread.Thread {
	c.idleOnce.Do(func() {
		id := kthread.Tid((c.id + 1) * idleIDFactor)
		t, err := c.registry.AllocIdle(id, func(self *kthread.Thread, _, _ uint64) {
			for {
				self.Baton().Yield(kctx.Frame{Kind: kctx.Yield})
			}
		})
		if err != nil {
			panic(kerr.Wrap(kerr.Internal, "kcpu.idleThread", err))
		}
		c.idle = t
	})
	return c.idle
}

// Schedule runs one dispatch step: pick the next ready thread (or the
// idle thread if none is ready), requeue the previously running thread
// if it is still runnable, and switch to the chosen thread. It mirrors
// Core::schedule's six steps precisely, including the early return when
// nothing needs to change and step 6's first-entry distinction: a
// thread's very first dispatch goes through SwitchToTrapCtx, every
// subsequent one through SwitchToYieldCtx.
func (c *Core) Schedule() {
	prev := c.running.Load()

	next := c.scheduler.Pop()
	if next == nil {
		if prev != nil && prev.Status() == kthread.Running {
			return
		}
		next = c.idleThread()
	}

	if next.Status() != kthread.Ready && next.Status() != kthread.Runnable {
		klog.Warn("kcpu", "scheduled thread was not ready", klog.Fields{"tid": uint64(next.ID()), "status": next.Status().String()})
	}

	if prev != nil && prev.Status() == kthread.Running {
		prev.SetStatus(kthread.Ready)
		if prev != c.idleIfCreated() {
			c.scheduler.Add(prev)
		}
	}

	next.SetStatus(kthread.Running)
	c.running.Store(next)
	if c.metrics != nil {
		c.metrics.IncDispatch()
		c.metrics.IncContextSwitch()
	}

	var resumed kctx.Frame
	if next.FirstEntry() {
		next.MarkEntered()
		resumed = kctx.SwitchToTrapCtx(next.Baton(), next.LastFrame().PC)
	} else {
		resumed = kctx.SwitchToYieldCtx(next.Baton())
	}
	next.SetLastFrame(resumed)
}

func (c *Core) idleIfCreated() *kthread.Thread {
	return c.idle
}
