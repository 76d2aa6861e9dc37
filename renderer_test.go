package danmaku

import (
	"os"
	"testing"
	"time"

	"github.com/fifth-light/danmaku-renderer/filter"
	"github.com/fifth-light/danmaku-renderer/text"
)

// testFontPath looks for a system TTF and skips the test if none is
// installed.
func testFontPath(t *testing.T) string {
	t.Helper()
	candidates := []string{
		"C:\\Windows\\Fonts\\arial.ttf",
		"/Library/Fonts/Arial.ttf",
		"/System/Library/Fonts/Supplemental/Arial.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/liberation/LiberationSans-Regular.ttf",
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skip("no TTF font available for renderer integration test")
	return ""
}

// TestRendererPushAndRenderEndToEnd drives the full live pipeline
// (C7 filter -> C1 rasterize -> C2 intern -> C4 admit -> C5 push -> C6
// render) through the public Renderer API, with a filter.Chain wired via
// WithFilterChain exactly as a host is expected to build one.
func TestRendererPushAndRenderEndToEnd(t *testing.T) {
	source, err := text.NewFontSourceFromFile(testFontPath(t))
	if err != nil {
		t.Fatalf("NewFontSourceFromFile() = %v", err)
	}
	defer func() { _ = source.Close() }()

	chain := filter.New(
		filter.RegexReject("^spam"),
		filter.MaxLength(140),
	)

	r, err := NewRenderer(
		WithFontSource(source),
		WithScreenSize(1920, 1080),
		WithLifetime(8000),
		WithFilterChain(chain.Accept),
		WithPipelineMode(PipelineModeCPU),
	)
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}

	accepted := r.PushComment(Comment{
		ID: 1, SpawnTimeMs: 0, Text: "hello danmaku",
		Motion: MotionScroll, Color: RGB{R: 1, G: 1, B: 1}, FontSizePx: 24,
	})
	if !accepted {
		t.Fatal("expected the comment to be admitted")
	}

	// Rejected by the first predicate; never reaches the track allocator.
	if r.PushComment(Comment{ID: 2, SpawnTimeMs: 0, Text: "spam offer", Motion: MotionScroll, FontSizePx: 24}) {
		t.Fatal("expected the regex predicate to reject this comment")
	}

	target := RenderTarget{Data: make([]uint8, 1920*1080*4), Width: 1920, Height: 1080, Stride: 1920 * 4}
	if err := r.Render(100, target, 1.0); err != nil {
		t.Fatalf("Render() = %v", err)
	}

	if r.buf.Count() != 1 {
		t.Fatalf("instance buffer count = %d, want 1", r.buf.Count())
	}
}

// TestRendererCompactsExpiredComments confirms a comment outlives its
// lifetime and is purged from the instance buffer by the next Render call,
// matching spec.md's frame-compact scenario.
func TestRendererCompactsExpiredComments(t *testing.T) {
	source, err := text.NewFontSourceFromFile(testFontPath(t))
	if err != nil {
		t.Fatalf("NewFontSourceFromFile() = %v", err)
	}
	defer func() { _ = source.Close() }()

	r, err := NewRenderer(
		WithFontSource(source),
		WithScreenSize(1920, 1080),
		WithLifetime(8000),
		WithPipelineMode(PipelineModeCPU),
	)
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}

	if !r.PushComment(Comment{ID: 1, SpawnTimeMs: 0, Text: "hi", Motion: MotionTop, FontSizePx: 24}) {
		t.Fatal("expected the comment to be admitted")
	}

	target := RenderTarget{Data: make([]uint8, 1920*1080*4), Width: 1920, Height: 1080, Stride: 1920 * 4}
	if err := r.Render(10000, target, 1.0); err != nil {
		t.Fatalf("Render() = %v", err)
	}
	if r.buf.Count() != 0 {
		t.Fatalf("instance buffer count after expiry = %d, want 0", r.buf.Count())
	}
}

// TestRendererAsyncRasterizationAdmitsLikeSynchronous drives a comment
// through SubmitComment/DrainRasterized (the §5 worker-pool path) and
// checks it lands in the instance buffer exactly as PushComment's
// synchronous path would.
func TestRendererAsyncRasterizationAdmitsLikeSynchronous(t *testing.T) {
	source, err := text.NewFontSourceFromFile(testFontPath(t))
	if err != nil {
		t.Fatalf("NewFontSourceFromFile() = %v", err)
	}
	defer func() { _ = source.Close() }()

	r, err := NewRenderer(
		WithFontSource(source),
		WithScreenSize(1920, 1080),
		WithLifetime(8000),
		WithPipelineMode(PipelineModeCPU),
		WithAsyncRasterization(2, time.Second),
	)
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	defer r.Close()

	r.SubmitComment(Comment{
		ID: 1, SpawnTimeMs: 0, Text: "hello async",
		Motion: MotionScroll, Color: RGB{R: 1, G: 1, B: 1}, FontSizePx: 24,
	})

	deadline := time.Now().Add(5 * time.Second)
	for r.buf.Count() == 0 && time.Now().Before(deadline) {
		r.DrainRasterized()
		if r.buf.Count() == 0 {
			time.Sleep(time.Millisecond)
		}
	}

	if r.buf.Count() != 1 {
		t.Fatalf("instance buffer count = %d, want 1", r.buf.Count())
	}
}

// TestRendererAsyncRasterizationPreservesSubmissionOrder submits comments
// from the same stream to four workers, which may complete them in any
// order, and checks DrainRasterized still
// admits them so that their SpawnTimeMs sequence in the instance buffer
// is non-decreasing, per §5's ordering guarantee.
func TestRendererAsyncRasterizationPreservesSubmissionOrder(t *testing.T) {
	source, err := text.NewFontSourceFromFile(testFontPath(t))
	if err != nil {
		t.Fatalf("NewFontSourceFromFile() = %v", err)
	}
	defer func() { _ = source.Close() }()

	r, err := NewRenderer(
		WithFontSource(source),
		WithScreenSize(1920, 1080),
		WithLifetime(8000),
		WithMaxTracksForMotion(0),
		WithPipelineMode(PipelineModeCPU),
		WithAsyncRasterization(4, time.Second),
	)
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	defer r.Close()

	const n = 20
	for i := range uint32(n) {
		r.SubmitComment(Comment{
			ID: uint64(i), SpawnTimeMs: i * 100, Text: "danmaku",
			Motion: MotionTop, Color: RGB{R: 1, G: 1, B: 1}, FontSizePx: 24,
		})
	}

	deadline := time.Now().Add(10 * time.Second)
	for r.buf.Count() < n && time.Now().Before(deadline) {
		r.DrainRasterized()
		if r.buf.Count() < n {
			time.Sleep(time.Millisecond)
		}
	}

	if r.buf.Count() != n {
		t.Fatalf("instance buffer count = %d, want %d", r.buf.Count(), n)
	}

	var lastSpawn uint32
	for i, rec := range r.buf.Records() {
		if i > 0 && rec.TimeMs < lastSpawn {
			t.Fatalf("record[%d].TimeMs = %d, went backwards from %d", i, rec.TimeMs, lastSpawn)
		}
		lastSpawn = rec.TimeMs
	}
}
