package ksched

import (
	"container/heap"

	"github.com/shyper-org/Unishyper-sub001/kthread"
)

// blockedEntry is one thread parked in the blocked-with-timeout set.
// wakeupMs, the same field scheduler.rs's BTreeMap key, is joined with
// a strictly increasing seq so that two threads blocked in the same
// millisecond keep distinct heap identity — the source's
// BTreeMap<usize, Thread> silently drops the earlier thread when this
// happens, since a plain integer key collides. spec.md §4.3 requires
// same-timestamp entries to wake in insertion order, which this fixes.
type blockedEntry struct {
	wakeupMs uint64
	seq      uint64
	value    *kthread.Thread
	index    int
}

// blockedHeap is a min-heap over (wakeupMs, seq), used exactly the way
// eventloop/loop.go's timerHeap uses container/heap over (when).
type blockedHeap []*blockedEntry

func (h blockedHeap) Len() int { return len(h) }
func (h blockedHeap) Less(i, j int) bool {
	if h[i].wakeupMs != h[j].wakeupMs {
		return h[i].wakeupMs < h[j].wakeupMs
	}
	return h[i].seq < h[j].seq
}
func (h blockedHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *blockedHeap) Push(x any) {
	e := x.(*blockedEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *blockedHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// blockedSet is the blocked-with-timeout queue: a heap ordered by
// wakeup time, plus a lookup index so a waiter can be removed on
// wake-by-id before its deadline.
type blockedSet struct {
	h       blockedHeap
	byValue map[*kthread.Thread]*blockedEntry
	seq     uint64
}

func newBlockedSet() *blockedSet {
	return &blockedSet{byValue: make(map[*kthread.Thread]*blockedEntry)}
}

// insert adds value with the given absolute wakeup time in
// milliseconds. If value is already present, its deadline is replaced.
func (s *blockedSet) insert(value *kthread.Thread, wakeupMs uint64) {
	if _, ok := s.byValue[value]; ok {
		s.remove(value)
	}
	s.seq++
	e := &blockedEntry{wakeupMs: wakeupMs, seq: s.seq, value: value}
	heap.Push(&s.h, e)
	s.byValue[value] = e
}

// remove drops value from the set if present, reporting whether it was
// found (a thread woken explicitly before its deadline elapses).
func (s *blockedSet) remove(value *kthread.Thread) bool {
	e, ok := s.byValue[value]
	if !ok {
		return false
	}
	heap.Remove(&s.h, e.index)
	delete(s.byValue, value)
	return true
}

// popExpired removes and returns every value whose wakeupMs is < now,
// in wakeup order, matching scheduler.rs:58's
// `*nearest_wakeup_time < current_ms` (strictly less — a deadline equal
// to now has not yet elapsed).
func (s *blockedSet) popExpired(now uint64) []*kthread.Thread {
	var out []*kthread.Thread
	for s.h.Len() > 0 && s.h[0].wakeupMs < now {
		e := heap.Pop(&s.h).(*blockedEntry)
		delete(s.byValue, e.value)
		out = append(out, e.value)
	}
	return out
}

func (s *blockedSet) len() int { return s.h.Len() }

func (s *blockedSet) each(fn func(v *kthread.Thread)) {
	for _, e := range s.h {
		fn(e.value)
	}
}
