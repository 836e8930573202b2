//go:build !linux

package kstack

import "unsafe"

// allocGuarded on non-Linux platforms falls back to a plain heap
// allocation: golang.org/x/sys/unix's Mmap/Mprotect pair is only wired
// up for Linux here (the teacher's own poller_linux.go/poller_darwin.go
// split leaves non-Linux platforms on a reduced-functionality path
// rather than pulling in a second syscall surface). The guard page is
// therefore logical only — Region.Base still points at a real,
// uniquely-owned buffer, but writing past it will not fault.
func allocGuarded(total, pageSize int) (*Region, error) {
	mem := make([]byte, total)
	base := uintptr(unsafe.Pointer(&mem[0]))
	return &Region{base: base, size: total, mem: mem}, nil
}

func freeGuarded(r *Region) error {
	r.mem = nil
	return nil
}
