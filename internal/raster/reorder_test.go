package raster

import "testing"

func TestReorderInOrderPassesThroughImmediately(t *testing.T) {
	r := NewReorder()
	for seq := range uint64(3) {
		ready := r.Push(Result{Seq: seq})
		if len(ready) != 1 || ready[0].Seq != seq {
			t.Fatalf("Push(%d) = %v, want single result with that seq", seq, ready)
		}
	}
	if r.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0", r.Pending())
	}
}

func TestReorderBuffersOutOfOrderResults(t *testing.T) {
	r := NewReorder()

	if ready := r.Push(Result{Seq: 2}); len(ready) != 0 {
		t.Fatalf("Push(seq=2) released %v before seq 0/1 arrived", ready)
	}
	if ready := r.Push(Result{Seq: 1}); len(ready) != 0 {
		t.Fatalf("Push(seq=1) released %v before seq 0 arrived", ready)
	}
	if r.Pending() != 2 {
		t.Fatalf("Pending() = %d, want 2", r.Pending())
	}

	ready := r.Push(Result{Seq: 0})
	if len(ready) != 3 {
		t.Fatalf("Push(seq=0) released %d results, want 3", len(ready))
	}
	for i, res := range ready {
		if res.Seq != uint64(i) {
			t.Fatalf("released[%d].Seq = %d, want %d", i, res.Seq, i)
		}
	}
	if r.Pending() != 0 {
		t.Fatalf("Pending() = %d after full release, want 0", r.Pending())
	}
}

func TestReorderDuplicateSeqOverwrites(t *testing.T) {
	r := NewReorder()
	r.Push(Result{Seq: 1})
	r.Push(Result{Seq: 1, Err: errTest})
	ready := r.Push(Result{Seq: 0})
	if len(ready) != 2 {
		t.Fatalf("got %d released, want 2", len(ready))
	}
	if ready[1].Err != errTest {
		t.Fatalf("released[1].Err = %v, want the overwritten value", ready[1].Err)
	}
}

var errTest = &testError{}

type testError struct{}

func (*testError) Error() string { return "test error" }
