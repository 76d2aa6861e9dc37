package instance

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/fifth-light/danmaku-renderer/comment"
)

func baseConfig() Config {
	return Config{ScreenWidthPx: 1920, ScreenHeightPx: 1080, LineHeightPx: 36, LifetimeMs: 8000}
}

// TestTopMotionCenteringScenario mirrors the spec's scenario 3: screen
// width 1000, line_width 300 -> offset_x = 350; track 0 -> offset_y =
// line_height.
func TestTopMotionCenteringScenario(t *testing.T) {
	cfg := Config{ScreenWidthPx: 1000, ScreenHeightPx: 1000, LineHeightPx: 36, LifetimeMs: 8000}
	b := New(cfg)
	b.Push(comment.LiveComment{
		ID: 1, SpawnTimeMs: 0, Motion: comment.MotionTop,
		TrackIndex: 0, LineWidthPx: 300,
	})
	rec := b.entries[0].rec
	if rec.OffsetX != 350 {
		t.Errorf("offset_x = %d, want 350", rec.OffsetX)
	}
	if rec.OffsetY != 36 {
		t.Errorf("offset_y = %d, want line_height(36)", rec.OffsetY)
	}
}

func TestScrollOffsetIsLaneOnly(t *testing.T) {
	b := New(baseConfig())
	b.Push(comment.LiveComment{ID: 1, SpawnTimeMs: 0, Motion: comment.MotionScroll, TrackIndex: 2, LineWidthPx: 200})
	rec := b.entries[0].rec
	if rec.OffsetX != 0 {
		t.Errorf("scroll offset_x = %d, want 0 (horizontal is time-driven)", rec.OffsetX)
	}
	if rec.OffsetY != int32(2*36) {
		t.Errorf("scroll offset_y = %d, want %d", rec.OffsetY, 2*36)
	}
}

func TestPushMaintainsSpawnTimeOrder(t *testing.T) {
	b := New(baseConfig())
	b.Push(comment.LiveComment{ID: 3, SpawnTimeMs: 300})
	b.Push(comment.LiveComment{ID: 1, SpawnTimeMs: 100})
	b.Push(comment.LiveComment{ID: 2, SpawnTimeMs: 200})

	var order []uint32
	for _, e := range b.entries {
		order = append(order, e.rec.TimeMs)
	}
	want := []uint32{100, 200, 300}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("entries not ordered by spawn time: got %v, want %v", order, want)
		}
	}
}

// TestFrameCompactScenario mirrors the spec's scenario 6: at t=10000
// with lifetime=8000, comments spawned at t<=2000 are absent and their
// atlas rectangles are returned for unpinning.
func TestFrameCompactScenario(t *testing.T) {
	b := New(baseConfig())
	b.Push(comment.LiveComment{ID: 1, SpawnTimeMs: 1000, AtlasUV: comment.AtlasRect{U: 1}})
	b.Push(comment.LiveComment{ID: 2, SpawnTimeMs: 2000, AtlasUV: comment.AtlasRect{U: 2}})
	b.Push(comment.LiveComment{ID: 3, SpawnTimeMs: 5000, AtlasUV: comment.AtlasRect{U: 3}})

	expired := b.Compact(10000)
	if len(expired) != 2 {
		t.Fatalf("expected 2 expired entries, got %d", len(expired))
	}
	if b.Len() != 1 {
		t.Fatalf("expected 1 live entry remaining, got %d", b.Len())
	}
}

func TestCompactIdempotent(t *testing.T) {
	b := New(baseConfig())
	b.Push(comment.LiveComment{ID: 1, SpawnTimeMs: 0})
	b.Push(comment.LiveComment{ID: 2, SpawnTimeMs: 9000})

	b.Compact(10000)
	firstBytes := b.Bytes()
	b.Compact(10000)
	secondBytes := b.Bytes()

	if len(firstBytes) != len(secondBytes) {
		t.Fatalf("compact is not idempotent: lengths %d vs %d", len(firstBytes), len(secondBytes))
	}
	for i := range firstBytes {
		if firstBytes[i] != secondBytes[i] {
			t.Fatalf("compact is not idempotent at byte %d", i)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	rec := Record{
		TimeMs: 123, Motion: 1, Track: 2, LineWidthPx: 300,
		OffsetX: -10, OffsetY: 20, AtlasU: 5, AtlasV: 6,
		ColorR: 1, ColorG: 0.5, ColorB: 0.25,
	}
	buf := rec.Encode(nil)
	if len(buf) != recordSize {
		t.Fatalf("encoded length = %d, want %d", len(buf), recordSize)
	}
	le := binary.LittleEndian
	got := Record{
		TimeMs: le.Uint32(buf[0:4]), Motion: le.Uint32(buf[4:8]),
		Track: le.Uint32(buf[8:12]), LineWidthPx: le.Uint32(buf[12:16]),
		OffsetX: int32(le.Uint32(buf[16:20])), OffsetY: int32(le.Uint32(buf[20:24])),
		AtlasU: le.Uint32(buf[24:28]), AtlasV: le.Uint32(buf[28:32]),
		ColorR: math.Float32frombits(le.Uint32(buf[32:36])),
		ColorG: math.Float32frombits(le.Uint32(buf[36:40])),
		ColorB: math.Float32frombits(le.Uint32(buf[40:44])),
	}
	if got != rec {
		t.Fatalf("decoded record = %+v, want %+v", got, rec)
	}
}
