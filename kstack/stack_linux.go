//go:build linux

package kstack

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// allocGuarded maps total bytes plus one leading guard page via
// unix.Mmap and drops that guard page's permissions with
// unix.Mprotect(PROT_NONE), the same reach-below-the-stdlib approach
// eventloop/poller_linux.go uses for epoll and wakeup_linux.go uses for
// eventfd. The stack grows down, so the guard page sits below the
// usable range and a stack overflow faults into it immediately.
func allocGuarded(total, pageSize int) (*Region, error) {
	mapped, err := unix.Mmap(-1, 0, total+pageSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	if err := unix.Mprotect(mapped[:pageSize], unix.PROT_NONE); err != nil {
		_ = unix.Munmap(mapped)
		return nil, err
	}
	usable := mapped[pageSize:]
	base := uintptr(unsafe.Pointer(&usable[0]))
	r := &Region{base: base, size: total, mem: mapped}
	runtime.KeepAlive(mapped)
	return r, nil
}

func freeGuarded(r *Region) error {
	mem := r.mem
	r.mem = nil
	if mem == nil {
		return nil
	}
	return unix.Munmap(mem)
}
