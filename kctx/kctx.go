// Package kctx is the context-switch layer. The original runtime saves
// and restores raw CPU register files (original_source/src/arch/*),
// distinguishing a "trap frame" (interrupted mid-instruction, full
// register set including the faulting PC) from a "yield frame" (a
// thread that called thread_yield voluntarily, with a restricted
// register set). Hosted Go cannot touch registers directly, so a
// switch here hands control between two real goroutines instead: the
// thread's own goroutine and whichever goroutine is running
// Core.Schedule. Package eventloop's pattern of pairing buffered
// channels for a single-producer/single-consumer handoff (its
// wakeup_linux.go eventfd drain loop) is generalized here to a
// two-channel baton that alternates ownership.
package kctx

// Kind distinguishes how a thread most recently left the CPU.
type Kind int

const (
	// Yield means the thread voluntarily gave up the CPU (thread_yield,
	// blocking on a futex/semaphore, or exiting).
	Yield Kind = iota
	// Trap marks the frame a thread is handed on its very first dispatch
	// (SwitchToTrapCtx). Nothing in this runtime preempts a running
	// thread, so no thread ever leaves the CPU with a Trap frame.
	Trap
)

func (k Kind) String() string {
	switch k {
	case Yield:
		return "yield"
	case Trap:
		return "trap"
	default:
		return "unknown"
	}
}

// Frame records why a thread last left the CPU and, for a Trap frame,
// carries a logical program counter value standing in for a hardware
// PC. Nothing in this runtime assigns PC, so it is zero in practice.
type Frame struct {
	Kind Kind
	PC   uint64
}

// InTrapContext reports whether this frame was produced by a timer
// interrupt rather than a voluntary yield, matching
// Thread::in_trap_context in the source.
func (f Frame) InTrapContext() bool { return f.Kind == Trap }

// Baton is the two-channel handoff between a thread's goroutine and the
// scheduler goroutine driving its core. Exactly one side holds the
// baton at a time: the thread runs after receiving on resume, and the
// scheduler regains control after receiving on yielded.
type Baton struct {
	resume  chan Frame
	yielded chan Frame
}

// NewBaton constructs an unstarted Baton. Both channels are unbuffered:
// a handoff is a synchronous rendezvous, not a queue, so at most one
// pending switch ever exists between the two goroutines.
func NewBaton() *Baton {
	return &Baton{
		resume:  make(chan Frame),
		yielded: make(chan Frame),
	}
}

// AwaitResume blocks the thread's goroutine until the scheduler resumes
// it, returning the frame the scheduler resumed it with.
func (b *Baton) AwaitResume() Frame { return <-b.resume }

// Yield hands control back to the scheduler with the given frame,
// blocking the thread's goroutine until it is resumed again.
func (b *Baton) Yield(f Frame) Frame {
	b.yielded <- f
	return b.AwaitResume()
}

// Resume hands control to the thread's goroutine, then blocks the
// scheduler until that thread yields or traps back, returning the
// frame it left with.
func (b *Baton) Resume(f Frame) Frame {
	b.resume <- f
	return <-b.yielded
}

// SwitchToYieldCtx is the scheduler-side half of a voluntary context
// switch: dispatch a thread and wait for it to yield back.
func SwitchToYieldCtx(b *Baton) Frame {
	return b.Resume(Frame{Kind: Yield})
}

// SwitchToTrapCtx is the scheduler-side half of a thread's first
// dispatch: it hands the thread a Trap frame carrying pc and waits for
// it to yield back. Core.Schedule uses it exactly once per thread.
func SwitchToTrapCtx(b *Baton, pc uint64) Frame {
	return b.Resume(Frame{Kind: Trap, PC: pc})
}
