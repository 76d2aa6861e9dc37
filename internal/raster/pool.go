// Package raster offloads C1 font shaping/rasterization to a fixed pool of
// worker goroutines, per the concurrency model in spec §5: the single-
// threaded admit/compact/draw owner loop never blocks on shaping, and a
// task that runs past its shape deadline is cancelled and dropped rather
// than stalling the pool or the frame.
//
// Results surface out of completion order (whichever worker finishes
// first), so Reorder restores the submission sequence before a caller
// feeds them back into the admit path, preserving the per-stream
// spawn-time monotonicity C4's scroll-lane formula depends on.
package raster

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fifth-light/danmaku-renderer/comment"
	"github.com/fifth-light/danmaku-renderer/text"
)

// Job is one comment awaiting rasterization on a worker goroutine.
type Job struct {
	// Seq is the submission sequence number, used by Reorder to restore
	// admission order across workers.
	Seq     uint64
	Comment comment.Comment
	Face    text.Face
}

// Result is a completed rasterization, or a shaping/deadline failure.
// A non-nil Err means the comment must be dropped (§7 ShapeError/
// FontUnavailable), never retried (§9's drop-and-forget decision).
type Result struct {
	Seq        uint64
	Comment    comment.Comment
	Rasterized text.RasterizedComment
	Err        error
}

// Pool runs Jobs on a fixed set of worker goroutines pulled from a shared
// queue. It is the worker pool §5 describes for offloading C1 shaping
// from the render owner loop; grounded on the teacher's own
// internal/parallel.WorkerPool goroutine/queue/drain shape, adapted here
// to a Submit/Result-with-sequence-number contract instead of fire-and-
// forget closures, since rasterization results must survive a reorder
// step the teacher's tile-rendering work items never needed.
type Pool struct {
	jobs     chan Job
	results  chan Result
	done     chan struct{}
	wg       sync.WaitGroup
	deadline time.Duration
	closed   atomic.Bool
}

// NewPool starts workers goroutines (GOMAXPROCS(0) if workers <= 0)
// pulling from a shared job queue. shapeDeadline bounds a single
// rasterization call; exceeding it yields a Result carrying
// context.DeadlineExceeded rather than blocking the worker indefinitely.
func NewPool(workers int, shapeDeadline time.Duration) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := workers * 4
	p := &Pool{
		jobs:     make(chan Job, queueSize),
		results:  make(chan Result, queueSize),
		done:     make(chan struct{}),
		deadline: shapeDeadline,
	}
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			select {
			case p.results <- p.run(j):
			case <-p.done:
				return
			}
		}
	}
}

// run rasterizes j under a shape deadline. text.Rasterize has no internal
// cancellation points (it is a tight per-rune loop over an already-parsed
// font, §4.1), so the deadline is enforced by racing it against a timer
// on its own goroutine rather than threading a context into the shaper;
// a task that loses the race is reported as failed and its goroutine is
// left to finish and be discarded, matching §9's no-retry policy.
func (p *Pool) run(j Job) Result {
	ctx, cancel := context.WithTimeout(context.Background(), p.deadline)
	defer cancel()

	type outcome struct {
		rc  text.RasterizedComment
		err error
	}
	out := make(chan outcome, 1)
	go func() {
		rc, err := text.Rasterize(j.Face, j.Comment.Text)
		out <- outcome{rc, err}
	}()

	select {
	case o := <-out:
		return Result{Seq: j.Seq, Comment: j.Comment, Rasterized: o.rc, Err: o.err}
	case <-ctx.Done():
		return Result{Seq: j.Seq, Comment: j.Comment, Err: ctx.Err()}
	}
}

// Submit enqueues c for rasterization under face, tagged with seq for
// downstream reordering. It blocks while the shared job queue is full,
// and is a no-op once the pool has started closing.
func (p *Pool) Submit(seq uint64, c comment.Comment, face text.Face) {
	select {
	case p.jobs <- Job{Seq: seq, Comment: c, Face: face}:
	case <-p.done:
	}
}

// Results returns the channel completed Jobs are posted to, in completion
// order. Callers needing submission order back should route this through
// a Reorder.
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Close stops accepting new work and waits for every worker to exit. A
// worker finishes the job it is running, but its result is discarded if
// nobody is receiving; jobs still queued are dropped unrun. Close is
// idempotent.
func (p *Pool) Close() {
	if p.closed.CompareAndSwap(false, true) {
		close(p.done)
	}
	p.wg.Wait()
}
