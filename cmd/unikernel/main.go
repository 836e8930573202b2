// Command unikernel is a small demo harness driving the kernel
// facade, in the spirit of
// original_source/examples/threading/src/main.rs: boot, spawn a
// handful of worker threads that coordinate over a semaphore, join
// them, and shut down.
package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/shyper-org/Unishyper-sub001/kconfig"
	"github.com/shyper-org/Unishyper-sub001/kernel"
	"github.com/shyper-org/Unishyper-sub001/klog"
	"github.com/shyper-org/Unishyper-sub001/kthread"
)

func main() {
	klog.SetLogger(klog.NewZerologLogger(klog.LevelInfo))

	k, err := kernel.Boot(
		kconfig.WithCores(1),
		kconfig.WithTickPeriod(2*time.Millisecond),
	)
	if err != nil {
		panic(err)
	}
	defer k.Shutdown()

	go func() {
		if err := k.RunCore(0); err != nil {
			panic(err)
		}
	}()

	semID, err := k.SemInit(1)
	if err != nil {
		panic(err)
	}

	const workers = 4
	var wg sync.WaitGroup
	wg.Add(workers)

	tids := make([]kthread.Tid, 0, workers)
	for i := 0; i < workers; i++ {
		id, err := k.SpawnNamed(fmt.Sprintf("worker-%d", i), func(self *kthread.Thread, arg0, _ uint64) {
			defer wg.Done()
			if err := k.SemWait(self, semID); err != nil {
				klog.Error("demo", "sem wait failed", klog.Fields{"error": err.Error()})
				k.Exit(self, 1)
				return
			}
			klog.Info("demo", "worker entered critical section", klog.Fields{"worker": arg0})
			_ = k.SleepUs(self, 0, 500)
			klog.Info("demo", "worker leaving critical section", klog.Fields{"worker": arg0})
			if err := k.SemPost(semID); err != nil {
				klog.Error("demo", "sem post failed", klog.Fields{"error": err.Error()})
			}
			k.Exit(self, 0)
		}, uint64(i), 0)
		if err != nil {
			panic(err)
		}
		tids = append(tids, id)
	}

	for _, id := range tids {
		code, err := k.Join(id)
		if err != nil {
			panic(err)
		}
		klog.Info("demo", "worker exited", klog.Fields{"tid": uint64(id), "code": code})
		k.DestroyByID(id)
	}

	wg.Wait()
	snap := k.Metrics()
	klog.Info("demo", "done", klog.Fields{
		"dispatches":      snap.Dispatches,
		"contextSwitches": snap.ContextSwitches,
	})
}
