package ksched

import (
	"container/list"

	"github.com/shyper-org/Unishyper-sub001/kthread"
)

// readyQueue is the round-robin ready list, grounded on
// original_source/src/libs/scheduler.rs's
// running_queue: Mutex<VecDeque<Thread>>. container/list stands in for
// VecDeque: catrate/ring.go's generic ring buffer requires a
// power-of-2, pre-sized capacity, which does not fit an unbounded,
// arbitrarily-growing ready list, so this is one of the few places
// this module reaches for a stdlib container rather than an
// examples-sourced one.
type readyQueue struct {
	l *list.List
}

func newReadyQueue() *readyQueue {
	return &readyQueue{l: list.New()}
}

// pushBack enqueues at the tail, the position of a thread that just
// yielded or was preempted back into rotation.
func (q *readyQueue) pushBack(v *kthread.Thread) {
	q.l.PushBack(v)
}

// pushFront enqueues at the head, matching scheduler.rs's add_front for
// a thread that must run next (e.g. a woken high-priority waiter).
func (q *readyQueue) pushFront(v *kthread.Thread) {
	q.l.PushFront(v)
}

// popFront removes and returns the head, or nil if empty.
func (q *readyQueue) popFront() *kthread.Thread {
	e := q.l.Front()
	if e == nil {
		return nil
	}
	q.l.Remove(e)
	return e.Value.(*kthread.Thread)
}

func (q *readyQueue) len() int { return q.l.Len() }

// each calls fn for every queued value, head to tail, without removing
// them. Used by the shell's `ps` command.
func (q *readyQueue) each(fn func(v *kthread.Thread)) {
	for e := q.l.Front(); e != nil; e = e.Next() {
		fn(e.Value.(*kthread.Thread))
	}
}
