// Package ktime is the TimeBase: a monotonic cycle/us/ms/ns counter and
// the kernel's boot-time reference, grounded on
// original_source/src/libs/timer.rs.
package ktime

import (
	"sync"
	"time"
)

const (
	secToMs = 1_000
	secToUs = 1_000_000
	secToNs = 1_000_000_000
)

var (
	bootOnce sync.Once
	bootTime time.Time
)

// Init records the kernel boot time. Calling it more than once is a
// no-op, matching the source's BOOT_TIME-set-once semantics.
func Init() {
	bootOnce.Do(func() {
		bootTime = time.Now()
	})
}

func elapsed() time.Duration {
	if bootTime.IsZero() {
		Init()
	}
	return time.Since(bootTime)
}

// CurrentNs returns nanoseconds elapsed since boot.
func CurrentNs() uint64 { return uint64(elapsed().Nanoseconds()) }

// CurrentUs returns microseconds elapsed since boot.
func CurrentUs() uint64 { return uint64(elapsed().Microseconds()) }

// CurrentMs returns milliseconds elapsed since boot.
func CurrentMs() uint64 { return uint64(elapsed().Milliseconds()) }

// CurrentSec returns seconds elapsed since boot.
func CurrentSec() uint64 { return uint64(elapsed().Seconds()) }

// CurrentCycle returns a monotonic "cycle" counter. A hosted process has
// no TSC access, so one cycle is defined as one nanosecond, which keeps
// the relation current_cycle/freq == current_ns intact for callers that
// divide by a frequency of 1GHz.
func CurrentCycle() uint64 { return CurrentNs() }

// BootTimeUs returns the kernel's boot time, in Unix microseconds.
func BootTimeUs() uint64 {
	if bootTime.IsZero() {
		Init()
	}
	return uint64(bootTime.UnixMicro())
}
