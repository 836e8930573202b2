package kcpu

import (
	"github.com/shyper-org/Unishyper-sub001/kconfig"
	"github.com/shyper-org/Unishyper-sub001/kerr"
	"github.com/shyper-org/Unishyper-sub001/kmetrics"
	"github.com/shyper-org/Unishyper-sub001/ksched"
	"github.com/shyper-org/Unishyper-sub001/kthread"
)

// Cpu owns every core, corresponding to cpu.rs's static CORES array and
// its get_cpu accessor.
type Cpu struct {
	cores []*Core
}

// New builds a Cpu with cfg.Cores() cores, wiring either one Scheduler
// per core or a single shared Scheduler depending on
// cfg.SchedulerKind(), matching spec's deployment choice between a
// per-core and a global run queue.
func New(cfg *kconfig.Config, registry *kthread.Registry, metrics *kmetrics.Counters) *Cpu {
	n := cfg.Cores()
	cores := make([]*Core, n)

	var shared *ksched.Scheduler
	if cfg.SchedulerKind() == kconfig.Global {
		shared = ksched.New()
	}

	for i := 0; i < n; i++ {
		sched := shared
		if sched == nil {
			sched = ksched.New()
		}
		cores[i] = newCore(i, sched, registry, metrics)
	}
	return &Cpu{cores: cores}
}

// Core returns the core at the given index, or an error if out of
// range.
func (c *Cpu) Core(id int) (*Core, error) {
	if id < 0 || id >= len(c.cores) {
		return nil, kerr.New(kerr.OutOfRange, "kcpu.Core", "core id out of range")
	}
	return c.cores[id], nil
}

// Cores returns every core, in index order.
func (c *Cpu) Cores() []*Core { return c.cores }

// NumCores returns how many cores this Cpu manages.
func (c *Cpu) NumCores() int { return len(c.cores) }
