package raster

// Reorder restores Pool results to non-decreasing Seq order. Workers can
// finish jobs in any order, but §5 requires each stream's admission order
// be preserved across the round trip through the pool, since C4's scroll-
// lane free-time formula assumes monotone spawn_time_ms per stream.
//
// Reorder is meant to be drained once per frame, at frame start, before
// any of its output is passed to the admit path (§5: "results return via
// an ordered queue consumed at frame start before C4.admit").
type Reorder struct {
	next    uint64
	pending map[uint64]Result
}

// NewReorder builds a Reorder expecting submission sequence numbers to
// start at 0.
func NewReorder() *Reorder {
	return &Reorder{pending: make(map[uint64]Result)}
}

// Push records a completed Result and returns every Result now
// releasable in order, i.e. the longest run of consecutive sequence
// numbers starting at the next expected one. An empty return means res
// arrived ahead of an earlier, still-outstanding job.
func (r *Reorder) Push(res Result) []Result {
	r.pending[res.Seq] = res

	var ready []Result
	for {
		next, ok := r.pending[r.next]
		if !ok {
			break
		}
		ready = append(ready, next)
		delete(r.pending, r.next)
		r.next++
	}
	return ready
}

// Pending reports how many completed-but-not-yet-releasable results are
// buffered, waiting on an earlier sequence number.
func (r *Reorder) Pending() int {
	return len(r.pending)
}
