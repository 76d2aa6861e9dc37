package raster

import (
	"testing"
	"time"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/fifth-light/danmaku-renderer/comment"
	"github.com/fifth-light/danmaku-renderer/text"
)

func loadTestFace(t *testing.T) text.Face {
	t.Helper()
	source, err := text.NewFontSource(goregular.TTF)
	if err != nil {
		t.Fatalf("NewFontSource() = %v", err)
	}
	t.Cleanup(func() {
		if err := source.Close(); err != nil {
			t.Errorf("Close() = %v", err)
		}
	})
	return source.Face(24)
}

func TestPoolSubmitRasterizes(t *testing.T) {
	face := loadTestFace(t)
	p := NewPool(2, time.Second)
	defer p.Close()

	p.Submit(0, comment.Comment{ID: 1, Text: "hello"}, face)

	select {
	case res := <-p.Results():
		if res.Err != nil {
			t.Fatalf("rasterization failed: %v", res.Err)
		}
		if res.Comment.ID != 1 {
			t.Fatalf("Comment.ID = %d, want 1", res.Comment.ID)
		}
		if res.Rasterized.AdvancePx <= 0 {
			t.Fatalf("AdvancePx = %v, want > 0", res.Rasterized.AdvancePx)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestPoolShapeDeadlineExceeded(t *testing.T) {
	face := loadTestFace(t)
	p := NewPool(1, time.Nanosecond)
	defer p.Close()

	p.Submit(0, comment.Comment{ID: 1, Text: "slow?"}, face)

	select {
	case res := <-p.Results():
		if res.Err == nil {
			t.Fatal("expected a deadline error, got nil")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestPoolClosePreventsFurtherSubmit(t *testing.T) {
	face := loadTestFace(t)
	p := NewPool(1, time.Second)
	p.Close()

	// Submit after Close must not block forever; it observes p.done and
	// returns without enqueueing.
	done := make(chan struct{})
	go func() {
		p.Submit(0, comment.Comment{ID: 1, Text: "x"}, face)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked after Close")
	}
}

func TestPoolManyJobsAllComplete(t *testing.T) {
	face := loadTestFace(t)
	p := NewPool(4, time.Second)
	defer p.Close()

	const n = 50
	for i := range n {
		p.Submit(uint64(i), comment.Comment{ID: uint64(i), Text: "danmaku"}, face)
	}

	seen := make(map[uint64]bool)
	for range n {
		select {
		case res := <-p.Results():
			seen[res.Seq] = true
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out after %d of %d results", len(seen), n)
		}
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct results, want %d", len(seen), n)
	}
}
