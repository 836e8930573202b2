package tick

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyper-org/Unishyper-sub001/irq"
	"github.com/shyper-org/Unishyper-sub001/kconfig"
	"github.com/shyper-org/Unishyper-sub001/kcpu"
	"github.com/shyper-org/Unishyper-sub001/kctx"
	"github.com/shyper-org/Unishyper-sub001/kstack"
	"github.com/shyper-org/Unishyper-sub001/kthread"
	"github.com/shyper-org/Unishyper-sub001/ktime"
)

func newTestCpu(t *testing.T) *kcpu.Cpu {
	t.Helper()
	cfg, err := kconfig.Resolve(kconfig.WithCores(1))
	require.NoError(t, err)
	registry := kthread.NewRegistry(kstack.NewPool(4096), nil)
	return kcpu.New(cfg, registry, nil)
}

func blockSelf(self *kthread.Thread, _, _ uint64) {
	self.ParkSelf(kthread.Sleep)
}

func TestDeliverSkippedWhenGateDisabled(t *testing.T) {
	ktime.Init()
	cpu := newTestCpu(t)
	gate := irq.NewGate()
	gate.Disable()

	h := NewHandler(cpu, gate, time.Millisecond)
	h.deliver()
	assert.Equal(t, uint64(0), h.Ticks())
}

func TestDeliverIncrementsTicksWhenGateEnabled(t *testing.T) {
	ktime.Init()
	cpu := newTestCpu(t)
	gate := irq.NewGate()

	h := NewHandler(cpu, gate, time.Millisecond)
	h.deliver()
	h.deliver()
	assert.Equal(t, uint64(2), h.Ticks())
}

func TestDeliverRequeuesDueBlockedThreads(t *testing.T) {
	ktime.Init()
	cpu := newTestCpu(t)
	core, err := cpu.Core(0)
	require.NoError(t, err)

	reg := kthread.NewRegistry(kstack.NewPool(4096), nil)
	th, err := reg.Alloc(blockSelf, kthread.AllocOptions{})
	require.NoError(t, err)
	go th.Baton().Resume(kctx.Frame{Kind: kctx.Yield})
	// let runEntry dispatch into blockSelf and park
	time.Sleep(10 * time.Millisecond)

	past := ktime.CurrentMs() - 1 // already-elapsed deadline (strictly before now)
	core.Scheduler().Block(th, &past)

	gate := irq.NewGate()
	h := NewHandler(cpu, gate, time.Millisecond)
	h.deliver()

	assert.Equal(t, 1, core.Scheduler().ReadyLen())
}

func TestRunStopsCleanly(t *testing.T) {
	ktime.Init()
	cpu := newTestCpu(t)
	gate := irq.NewGate()
	h := NewHandler(cpu, gate, time.Millisecond)

	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	h.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Greater(t, h.Ticks(), uint64(0))
}
