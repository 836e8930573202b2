// Package tls provides POSIX-pthread-style keyed thread-local storage,
// generalizing the single-slot register access in
// original_source/src/arch/tls.rs (set_tls_ptr/get_tls_ptr) into the
// multi-key create/set/get/destroy surface spec's flat API exposes.
// Storage itself lives on each kthread.Thread; this package only owns
// key identity and validity.
package tls

import (
	"sync"
	"sync/atomic"

	"github.com/shyper-org/Unishyper-sub001/kerr"
	"github.com/shyper-org/Unishyper-sub001/kthread"
)

// Key identifies one thread-local slot, valid across every thread until
// destroyed.
type Key uint64

// KeyTable allocates and validates TLS keys.
type KeyTable struct {
	nextKey atomic.Uint64

	mu    sync.Mutex
	valid map[Key]bool
}

// NewKeyTable constructs an empty key table.
func NewKeyTable() *KeyTable {
	return &KeyTable{valid: make(map[Key]bool)}
}

// Create allocates a fresh key.
func (kt *KeyTable) Create() Key {
	k := Key(kt.nextKey.Add(1))
	kt.mu.Lock()
	kt.valid[k] = true
	kt.mu.Unlock()
	return k
}

// Destroy invalidates a key. Using a destroyed key in Set or Get
// returns kerr.InvArg.
func (kt *KeyTable) Destroy(key Key) {
	kt.mu.Lock()
	delete(kt.valid, key)
	kt.mu.Unlock()
}

func (kt *KeyTable) check(key Key) error {
	kt.mu.Lock()
	ok := kt.valid[key]
	kt.mu.Unlock()
	if !ok {
		return kerr.New(kerr.InvArg, "tls", "unknown or destroyed key")
	}
	return nil
}

// Set stores value under key for self.
func (kt *KeyTable) Set(self *kthread.Thread, key Key, value uint64) error {
	if err := kt.check(key); err != nil {
		return err
	}
	self.SetLocal(uint64(key), value)
	return nil
}

// Get reads the value stored under key for self. ok is false if no
// value was ever set for this thread and key.
func (kt *KeyTable) Get(self *kthread.Thread, key Key) (value uint64, ok bool, err error) {
	if err := kt.check(key); err != nil {
		return 0, false, err
	}
	value, ok = self.GetLocal(uint64(key))
	return value, ok, nil
}
