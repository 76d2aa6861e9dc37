package track

import (
	"errors"
	"testing"

	"github.com/fifth-light/danmaku-renderer/comment"
)

func baseConfig() Config {
	return Config{ScreenWidthPx: 1920, LineHeightPx: 36, LifetimeMs: 8000}
}

func TestAdmitScrollFirstComment(t *testing.T) {
	tb := New(baseConfig())
	idx, err := tb.Admit(comment.MotionScroll, 200, 0)
	if err != nil {
		t.Fatalf("Admit() = %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected lane 0, got %d", idx)
	}
}

// TestLaneReuseScenario mirrors the spec's scenario 2: widths 200 and
// 400, spawned 1000ms apart, lifetime 8000. The second comment must not
// share lane 0 because 1000 < 8000*(200+400)/(1920+400) =~ 2069.
func TestLaneReuseScenario(t *testing.T) {
	tb := New(baseConfig())

	idx0, err := tb.Admit(comment.MotionScroll, 200, 0)
	if err != nil {
		t.Fatalf("first admit: %v", err)
	}
	if idx0 != 0 {
		t.Fatalf("first comment lane = %d, want 0", idx0)
	}

	idx1, err := tb.Admit(comment.MotionScroll, 400, 1000)
	if err != nil {
		t.Fatalf("second admit: %v", err)
	}
	if idx1 != 1 {
		t.Fatalf("second comment lane = %d, want 1 (shared lane 0 would violate non-overlap)", idx1)
	}
}

// TestLaneReuseAfterThreshold confirms the same pair DOES share lane 0
// once the gap crosses the ~2069ms threshold.
func TestLaneReuseAfterThreshold(t *testing.T) {
	tb := New(baseConfig())

	if _, err := tb.Admit(comment.MotionScroll, 200, 0); err != nil {
		t.Fatalf("first admit: %v", err)
	}

	idx, err := tb.Admit(comment.MotionScroll, 400, 2100)
	if err != nil {
		t.Fatalf("second admit: %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected lane reuse at t=2100, got lane %d", idx)
	}
}

func TestAdmitTopPicksLowestFreeLane(t *testing.T) {
	tb := New(baseConfig())

	tb.Admit(comment.MotionTop, 300, 0)
	tb.Admit(comment.MotionTop, 300, 0)

	// Lane 0 expires at 8000; at t=9000 it should be reused before a
	// new lane 2 is opened.
	idx, err := tb.Admit(comment.MotionTop, 300, 9000)
	if err != nil {
		t.Fatalf("Admit() = %v", err)
	}
	if idx != 0 {
		t.Fatalf("expected lowest-index free lane 0, got %d", idx)
	}
}

func TestAdmitBottomPicksHighestFreeLane(t *testing.T) {
	tb := New(baseConfig())

	tb.Admit(comment.MotionBottom, 300, 0)
	tb.Admit(comment.MotionBottom, 300, 0)

	idx, err := tb.Admit(comment.MotionBottom, 300, 9000)
	if err != nil {
		t.Fatalf("Admit() = %v", err)
	}
	if idx != 1 {
		t.Fatalf("expected highest-index free lane 1, got %d", idx)
	}
}

func TestAdmitRejectsAtCapacity(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxTracksForMotion = 1
	tb := New(cfg)

	if _, err := tb.Admit(comment.MotionTop, 300, 0); err != nil {
		t.Fatalf("first admit: %v", err)
	}
	_, err := tb.Admit(comment.MotionTop, 300, 100)
	var rejected *Rejected
	if !errors.As(err, &rejected) {
		t.Fatalf("expected Rejected error, got %v", err)
	}
}

func TestNonOverlapInvariantSampledOverTime(t *testing.T) {
	tb := New(baseConfig())
	tb.Admit(comment.MotionScroll, 200, 0)
	laneIdx, err := tb.Admit(comment.MotionScroll, 400, 2100)
	if err != nil {
		t.Fatalf("Admit() = %v", err)
	}
	if laneIdx != 0 {
		t.Fatalf("expected lane reuse, got lane %d", laneIdx)
	}

	// At the moment the second comment spawns, the first comment's
	// trailing edge must already be fully on-screen (condition (a) of
	// the spec's scroll admission rule).
	cfg := baseConfig()
	v0 := (float64(cfg.ScreenWidthPx) + 200) / float64(cfg.LifetimeMs)
	clearAt := 200 / v0
	if 2100 < clearAt {
		t.Fatalf("lane reuse admitted before prior comment cleared the screen: clearAt=%v", clearAt)
	}
}
