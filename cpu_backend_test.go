package danmaku

import (
	"testing"

	"github.com/fifth-light/danmaku-renderer/atlas"
	"github.com/fifth-light/danmaku-renderer/comment"
	"github.com/fifth-light/danmaku-renderer/instance"
	"github.com/fifth-light/danmaku-renderer/text"
)

// TestQuadOriginScrollScenario mirrors the spec's scenario 1: a 1920x1080
// screen, an 8000ms lifetime, and a 200px-wide scroll comment spawned at
// t=0. The leading edge starts at the right screen edge and the trailing
// edge reaches x=0 exactly at t=lifetime.
func TestQuadOriginScrollScenario(t *testing.T) {
	rec := instance.Record{Motion: uint32(MotionScroll), LineWidthPx: 200, OffsetY: 0}

	x, _ := quadOrigin(rec, 1920, progressOf(0, 0, 8000))
	if x != 1920 {
		t.Fatalf("leading edge at t=0: got x=%d, want 1920", x)
	}

	x, _ = quadOrigin(rec, 1920, progressOf(4000, 0, 8000))
	if x != 860 {
		t.Fatalf("anchor at t=4000: got x=%d, want 860", x)
	}

	x, _ = quadOrigin(rec, 1920, progressOf(8000, 0, 8000))
	trailingEdge := x + 200
	if trailingEdge != 0 {
		t.Fatalf("trailing edge at t=lifetime: got %d, want 0", trailingEdge)
	}
}

// TestQuadOriginStaticMotionUsesOffset verifies top/bottom comments ignore
// progress and use their precomputed offset_xy unchanged.
func TestQuadOriginStaticMotionUsesOffset(t *testing.T) {
	rec := instance.Record{Motion: uint32(MotionTop), OffsetX: 350, OffsetY: 36}
	x, y := quadOrigin(rec, 1920, 0.9)
	if x != 350 || y != 36 {
		t.Fatalf("static offset: got (%d, %d), want (350, 36)", x, y)
	}
}

// TestRenderCPUCompositesLiveRecord pushes one fabricated top-motion
// comment through the atlas and instance buffer directly, then checks
// renderCPU blends an opaque glyph texel into the target buffer at the
// expected centered offset.
func TestRenderCPUCompositesLiveRecord(t *testing.T) {
	atl := atlas.New(atlas.Config{WidthPx: 16, HeightPx: 16, LowWaterMark: 0})
	entry, err := atl.Intern("k", text.RasterizedComment{Bitmap: []uint8{255, 255, 255, 255}, Width: 2, Height: 2}, 0)
	if err != nil {
		t.Fatalf("Intern() = %v", err)
	}
	atl.Pin(entry)

	buf := instance.New(instance.Config{ScreenWidthPx: 1000, ScreenHeightPx: 200, LineHeightPx: 36, LifetimeMs: 8000})
	buf.Push(comment.LiveComment{
		ID: 1, SpawnTimeMs: 0, Motion: comment.MotionTop, TrackIndex: 0,
		LineWidthPx: 2, AtlasUV: entry.UV(), ShadowUV: entry.ShadowUV(),
		Color: comment.RGB{R: 1, G: 1, B: 1},
	})

	r := &Renderer{
		cfg: Config{ScreenWidthPx: 1000, ScreenHeightPx: 200, LineHeightPx: 36, LifetimeMs: 8000},
		atl: atl,
		buf: buf,
	}

	target := RenderTarget{Data: make([]uint8, 1000*200*4), Width: 1000, Height: 200, Stride: 1000 * 4}
	if err := r.renderCPU(4000, target, 1.0); err != nil {
		t.Fatalf("renderCPU() = %v", err)
	}

	// Top motion centers a 2px-wide line: offset_x = (1000-2)/2 = 499;
	// track 0 sits at offset_y = line_height = 36.
	idx := (36 * target.Stride) + 499*4
	if target.Data[idx+3] == 0 {
		t.Fatalf("expected the glyph texel at the centered offset to be opaque, got alpha=%d", target.Data[idx+3])
	}
}

// TestRenderCPUSkipsExpiredRecord confirms progress outside [0, 1) leaves
// the target untouched.
func TestRenderCPUSkipsExpiredRecord(t *testing.T) {
	atl := atlas.New(atlas.Config{WidthPx: 16, HeightPx: 16, LowWaterMark: 0})
	entry, _ := atl.Intern("k", text.RasterizedComment{Bitmap: []uint8{255, 255, 255, 255}, Width: 2, Height: 2}, 0)
	atl.Pin(entry)

	buf := instance.New(instance.Config{ScreenWidthPx: 1000, ScreenHeightPx: 200, LineHeightPx: 36, LifetimeMs: 8000})
	buf.Push(comment.LiveComment{
		ID: 1, SpawnTimeMs: 0, Motion: comment.MotionTop, TrackIndex: 0,
		LineWidthPx: 2, AtlasUV: entry.UV(), ShadowUV: entry.ShadowUV(),
		Color: comment.RGB{R: 1, G: 1, B: 1},
	})

	r := &Renderer{
		cfg: Config{ScreenWidthPx: 1000, ScreenHeightPx: 200, LineHeightPx: 36, LifetimeMs: 8000},
		atl: atl,
		buf: buf,
	}

	target := RenderTarget{Data: make([]uint8, 1000*200*4), Width: 1000, Height: 200, Stride: 1000 * 4}
	if err := r.renderCPU(9000, target, 1.0); err != nil {
		t.Fatalf("renderCPU() = %v", err)
	}
	for _, b := range target.Data {
		if b != 0 {
			t.Fatal("expected an expired record to leave the target untouched")
		}
	}
}
