// Package kstack is the StackPool: fixed-size, guard-paged kernel
// stacks, exclusively owned by one thread at a time and released on
// thread destruction. Grounded on
// original_source/src/libs/stack.rs (alloc_stack/free_stack over a page
// arena) and, for the real guard-page enforcement, on
// eventloop/poller_linux.go and eventloop/wakeup_linux.go's direct use
// of golang.org/x/sys/unix to reach below the stdlib.
package kstack

import (
	"sync"
	"sync/atomic"

	"github.com/shyper-org/Unishyper-sub001/kerr"
	"github.com/shyper-org/Unishyper-sub001/klog"
)

// Region is one allocated stack: the usable byte range plus bookkeeping
// needed to release it exactly once.
type Region struct {
	base     uintptr
	size     int
	mem      []byte // backing slice; nil once released
	released atomic.Bool
	pool     *Pool
}

// Base returns the usable stack's base address (the low end, above any
// guard page).
func (r *Region) Base() uintptr { return r.base }

// Size returns the usable stack size in bytes.
func (r *Region) Size() int { return r.size }

// Top returns the address one past the top of the usable stack — where
// a fresh thread's stack pointer is initialized, per spec §4.1.
func (r *Region) Top() uintptr { return r.base + uintptr(r.size) }

// Pool is the StackPool: it draws stacks from a fixed-size-page arena
// and guards the pages adjacent to each allocation.
type Pool struct {
	pageSize int

	mu        sync.Mutex
	allocated int
	freed     int
}

// NewPool constructs a Pool using the given page size (spec's
// fixed-size kernel stacks are sized in pages of this size).
func NewPool(pageSize int) *Pool {
	if pageSize <= 0 {
		pageSize = 4096
	}
	return &Pool{pageSize: pageSize}
}

// Alloc allocates a stack of the given size in bytes (rounded up to a
// whole number of pages) and guards it. Returns kerr.Oom if the
// underlying allocation fails; the pool's internal state is unmodified
// on failure (spec §4.2: "no partial state").
func (p *Pool) Alloc(size int) (*Region, error) {
	if size <= 0 {
		return nil, kerr.New(kerr.InvArg, "kstack.Alloc", "size must be positive")
	}
	pages := (size + p.pageSize - 1) / p.pageSize
	total := pages * p.pageSize

	region, err := allocGuarded(total, p.pageSize)
	if err != nil {
		klog.Warn("kstack", "stack allocation failed", klog.Fields{"size": total, "error": err.Error()})
		return nil, kerr.Wrap(kerr.Oom, "kstack.Alloc", err)
	}
	region.pool = p

	p.mu.Lock()
	p.allocated++
	p.mu.Unlock()
	return region, nil
}

// Release returns a stack's pages to the arena. Releasing the same
// Region twice is a no-op (mirrors ThreadRegistry.destroy idempotence).
func (p *Pool) Release(r *Region) error {
	if r == nil {
		return nil
	}
	if !r.released.CompareAndSwap(false, true) {
		return nil
	}
	err := freeGuarded(r)
	p.mu.Lock()
	p.freed++
	p.mu.Unlock()
	return err
}

// Stats reports the pool's lifetime allocation/free counts, used by the
// shell's `free` command.
func (p *Pool) Stats() (allocated, freed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocated, p.freed
}
