package kcpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyper-org/Unishyper-sub001/kconfig"
	"github.com/shyper-org/Unishyper-sub001/kctx"
	"github.com/shyper-org/Unishyper-sub001/kmetrics"
	"github.com/shyper-org/Unishyper-sub001/kstack"
	"github.com/shyper-org/Unishyper-sub001/kthread"
)

func yieldOnce(self *kthread.Thread, _, _ uint64) {
	for {
		self.Baton().Yield(kctx.Frame{Kind: kctx.Yield})
	}
}

func TestScheduleFallsBackToIdleWhenReadyQueueEmpty(t *testing.T) {
	cfg, err := kconfig.Resolve(kconfig.WithCores(1))
	require.NoError(t, err)
	reg := kthread.NewRegistry(kstack.NewPool(4096), &kmetrics.Counters{})
	cpu := New(cfg, reg, &kmetrics.Counters{})

	core, err := cpu.Core(0)
	require.NoError(t, err)

	core.Schedule()
	running := core.Running()
	require.NotNil(t, running)
	assert.Equal(t, "idle", running.Name())
}

func TestScheduleDispatchesReadyThreadBeforeIdle(t *testing.T) {
	cfg, err := kconfig.Resolve(kconfig.WithCores(1))
	require.NoError(t, err)
	reg := kthread.NewRegistry(kstack.NewPool(4096), &kmetrics.Counters{})
	cpu := New(cfg, reg, &kmetrics.Counters{})
	core, err := cpu.Core(0)
	require.NoError(t, err)

	th, err := reg.Alloc(yieldOnce, kthread.AllocOptions{Name: "worker"})
	require.NoError(t, err)
	th.MarkReady()
	core.Scheduler().Add(th)

	core.Schedule()
	assert.Equal(t, th, core.Running())
	assert.Equal(t, kthread.Running, th.Status())
}

func TestScheduleRequeuesRunningThreadOnNextDispatch(t *testing.T) {
	cfg, err := kconfig.Resolve(kconfig.WithCores(1))
	require.NoError(t, err)
	reg := kthread.NewRegistry(kstack.NewPool(4096), &kmetrics.Counters{})
	cpu := New(cfg, reg, &kmetrics.Counters{})
	core, err := cpu.Core(0)
	require.NoError(t, err)

	a, err := reg.Alloc(yieldOnce, kthread.AllocOptions{Name: "a"})
	require.NoError(t, err)
	b, err := reg.Alloc(yieldOnce, kthread.AllocOptions{Name: "b"})
	require.NoError(t, err)
	a.MarkReady()
	b.MarkReady()
	core.Scheduler().Add(a)
	core.Scheduler().Add(b)

	core.Schedule() // dispatches a, which immediately yields back
	assert.Equal(t, a, core.Running())

	core.Schedule() // a is requeued, b is dispatched next
	assert.Equal(t, b, core.Running())

	core.Schedule() // b is requeued, a runs again (round robin)
	assert.Equal(t, a, core.Running())
}

func TestScheduleClearsFirstEntryAfterFirstDispatch(t *testing.T) {
	cfg, err := kconfig.Resolve(kconfig.WithCores(1))
	require.NoError(t, err)
	reg := kthread.NewRegistry(kstack.NewPool(4096), &kmetrics.Counters{})
	cpu := New(cfg, reg, &kmetrics.Counters{})
	core, err := cpu.Core(0)
	require.NoError(t, err)

	a, err := reg.Alloc(yieldOnce, kthread.AllocOptions{Name: "a"})
	require.NoError(t, err)
	b, err := reg.Alloc(yieldOnce, kthread.AllocOptions{Name: "b"})
	require.NoError(t, err)
	a.MarkReady()
	b.MarkReady()
	core.Scheduler().Add(a)
	core.Scheduler().Add(b)

	assert.True(t, a.FirstEntry())
	assert.True(t, b.FirstEntry())

	core.Schedule() // dispatches a for the first time, via SwitchToTrapCtx
	assert.False(t, a.FirstEntry())
	assert.True(t, b.FirstEntry())

	core.Schedule() // a requeued; b dispatched for the first time
	assert.False(t, b.FirstEntry())

	core.Schedule() // b requeued; a runs again via SwitchToYieldCtx this time
	assert.False(t, a.FirstEntry())
}
