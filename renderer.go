package danmaku

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/fifth-light/danmaku-renderer/atlas"
	"github.com/fifth-light/danmaku-renderer/cache"
	"github.com/fifth-light/danmaku-renderer/comment"
	"github.com/fifth-light/danmaku-renderer/instance"
	"github.com/fifth-light/danmaku-renderer/internal/raster"
	"github.com/fifth-light/danmaku-renderer/text"
	"github.com/fifth-light/danmaku-renderer/track"
)

// Comment, Motion, and RGB are re-exported from the comment package so
// hosts constructing input records never need to import it directly.
type (
	Comment = comment.Comment
	Motion  = comment.Motion
	RGB     = comment.RGB
)

// Motion class constants, see comment.Motion.
const (
	MotionScroll = comment.MotionScroll
	MotionTop    = comment.MotionTop
	MotionBottom = comment.MotionBottom
)

// Renderer owns the full danmaku pipeline: admission filtering,
// rasterization, the glyph atlas, the track allocator, and the instance
// buffer. A single Renderer is not safe for concurrent use; the admit
// and render paths are meant to be driven from one owner loop (see the
// concurrency model in the package documentation).
type Renderer struct {
	cfg Config

	faceCache  map[float32]text.Face
	rasterized *cache.Cache[string, text.RasterizedComment]
	filter     *filterChainAdapter

	atl    *atlas.Atlas
	tracks *track.Table
	buf    *instance.Buffer

	liveEntry map[uint64]*atlas.Entry

	frame      uint32
	deviceLost bool

	// raster/reorder back the optional async rasterization path (§5).
	// Both are nil unless Config.AsyncRasterization was set.
	rasterPool *raster.Pool
	reorder    *raster.Reorder
	submitSeq  uint64
}

// NewRenderer builds a Renderer from the given options. It returns
// ErrConfigError if no FontSource was supplied.
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.FontSource == nil {
		return nil, fmt.Errorf("%w: FontSource is required", ErrConfigError)
	}

	r := &Renderer{
		cfg:        cfg,
		faceCache:  make(map[float32]text.Face),
		rasterized: cache.New[string, text.RasterizedComment](0),
		filter:     cfg.Filter,
		atl: atlas.New(atlas.Config{
			WidthPx:      cfg.AtlasWidthPx,
			HeightPx:     cfg.AtlasHeightPx,
			Padding:      cfg.AtlasPadding,
			GraceFrames:  cfg.AtlasGraceFrames,
			LowWaterMark: cfg.AtlasLowWaterMark,
			Shadow:       atlas.ShadowConfig{WidthPx: cfg.ShadowWidthPx, Weight: cfg.ShadowWeight},
		}),
		tracks: track.New(track.Config{
			ScreenWidthPx:      cfg.ScreenWidthPx,
			LineHeightPx:       cfg.LineHeightPx,
			LifetimeMs:         cfg.LifetimeMs,
			MaxTracksForMotion: cfg.MaxTracksForMotion,
		}),
		buf: instance.New(instance.Config{
			ScreenWidthPx:  cfg.ScreenWidthPx,
			ScreenHeightPx: cfg.ScreenHeightPx,
			LineHeightPx:   cfg.LineHeightPx,
			LifetimeMs:     cfg.LifetimeMs,
		}),
		liveEntry: make(map[uint64]*atlas.Entry),
	}
	if cfg.AsyncRasterization {
		r.rasterPool = raster.NewPool(cfg.RasterWorkers, cfg.ShapeDeadline)
		r.reorder = raster.NewReorder()
	}
	return r, nil
}

// Close releases resources NewRenderer may have started, currently just
// the async rasterization pool when WithAsyncRasterization was used. It
// is safe to call on a Renderer that never started one.
func (r *Renderer) Close() {
	if r.rasterPool != nil {
		r.rasterPool.Close()
	}
}

func (r *Renderer) faceFor(sizePx float32) text.Face {
	if f, ok := r.faceCache[sizePx]; ok {
		return f
	}
	f := r.cfg.FontSource.Face(float64(sizePx))
	r.faceCache[sizePx] = f
	return f
}

// PushComment admits c into the pipeline: filter, rasterize, intern,
// and allocate a track lane. It reports whether the comment was
// admitted; every rejection path is logged and never returned as an
// error, matching the policy that individual comment failures never
// propagate to the frame.
func (r *Renderer) PushComment(c Comment) bool {
	log := Logger()

	if r.filter != nil && !r.filter.accept(c) {
		log.Debug("comment rejected by filter chain", slog.Uint64("id", c.ID))
		return false
	}

	key := rasterKey(c.Text, c.FontSizePx)

	rc, hit := r.rasterized.Get(key)
	if !hit {
		face := r.faceFor(c.FontSizePx)
		var err error
		rc, err = text.Rasterize(face, c.Text)
		if err != nil {
			log.Warn("comment dropped: rasterization failed", slog.Uint64("id", c.ID), slog.Any("error", err))
			return false
		}
		r.rasterized.Set(key, rc)
	}

	return r.admitRasterized(c, key, rc)
}

// admitRasterized runs the C2-C5 half of admission (intern, track, push)
// for a comment whose RasterizedComment is already known, shared by both
// PushComment's synchronous path and DrainRasterized's async path.
func (r *Renderer) admitRasterized(c Comment, key string, rc text.RasterizedComment) bool {
	log := Logger()

	entry, err := r.atl.Intern(key, rc, r.frame)
	if err != nil {
		log.Warn("comment dropped: atlas full", slog.Uint64("id", c.ID))
		return false
	}

	trackIdx, err := r.tracks.Admit(c.Motion, uint32(rc.AdvancePx), c.SpawnTimeMs)
	if err != nil {
		log.Warn("comment dropped: no track available", slog.Uint64("id", c.ID), slog.String("motion", c.Motion.String()))
		return false
	}

	r.atl.Pin(entry)
	r.liveEntry[c.ID] = entry

	r.buf.Push(comment.LiveComment{
		ID:          c.ID,
		SpawnTimeMs: c.SpawnTimeMs,
		Motion:      c.Motion,
		TrackIndex:  trackIdx,
		LineWidthPx: uint32(rc.AdvancePx),
		AtlasUV:     entry.UV(),
		ShadowUV:    entry.ShadowUV(),
		Color:       c.Color,
	})
	return true
}

// SubmitComment runs c through the filter chain (C7) synchronously, then
// hands rasterization (C1) to the async worker pool started by
// WithAsyncRasterization. The result is not admitted immediately: call
// DrainRasterized once per frame, before Render, to pull completed
// comments back in submission order and finish their C2-C5 admission.
// SubmitComment panics if the Renderer was not built with
// WithAsyncRasterization.
func (r *Renderer) SubmitComment(c Comment) {
	if r.rasterPool == nil {
		panic("danmaku: SubmitComment requires WithAsyncRasterization")
	}
	if r.filter != nil && !r.filter.accept(c) {
		Logger().Debug("comment rejected by filter chain", slog.Uint64("id", c.ID))
		return
	}
	face := r.faceFor(c.FontSizePx)
	r.rasterPool.Submit(r.submitSeq, c, face)
	r.submitSeq++
}

// DrainRasterized pulls every worker-pool result available without
// blocking, restores submission order via Reorder, and finishes admission
// (intern/track/push) for each one that rasterized successfully. Call it
// once per frame before Render, per §5's "ordered queue consumed at frame
// start before C4.admit". It is a no-op when AsyncRasterization was not
// enabled.
func (r *Renderer) DrainRasterized() {
	if r.rasterPool == nil {
		return
	}
	log := Logger()

	for {
		select {
		case res := <-r.rasterPool.Results():
			for _, ready := range r.reorder.Push(res) {
				if ready.Err != nil {
					log.Warn("comment dropped: rasterization failed or timed out",
						slog.Uint64("id", ready.Comment.ID), slog.Any("error", ready.Err))
					continue
				}
				key := rasterKey(ready.Comment.Text, ready.Comment.FontSizePx)
				r.rasterized.Set(key, ready.Rasterized)
				r.admitRasterized(ready.Comment, key, ready.Rasterized)
			}
		default:
			return
		}
	}
}

// rasterKey identifies a (text, font size) pair for atlas interning.
// Comments with identical text and size share one atlas entry.
func rasterKey(body string, sizePx float32) string {
	return fmt.Sprintf("%.2f:%s", sizePx, body)
}

// Resize updates the playback surface dimensions. Atlas coordinates are
// unaffected since they are independent of screen size; only the next
// frame's config uniform and the track allocator's scroll-speed
// parameters change.
func (r *Renderer) Resize(width, height uint32) {
	r.cfg.ScreenWidthPx = width
	r.cfg.ScreenHeightPx = height
}

// Render drives one frame: compact expired comments, pick a backend per
// the configured PipelineMode, and fall back to the CPU path on any GPU
// error (PipelineModeGPU excepted, which reports the error instead).
func (r *Renderer) Render(nowMs uint32, target RenderTarget, opacity float32) error {
	r.frame++

	expired := r.buf.Compact(nowMs)
	for _, rect := range expired {
		if e := r.entryForRect(rect); e != nil {
			r.atl.Unpin(e)
		}
	}
	r.atl.Sweep(r.frame)

	backend := Accelerator()
	mode := r.cfg.Mode
	if mode == PipelineModeAuto {
		mode = SelectPipeline(FrameStats{LiveCommentCount: int(r.buf.Count()), DeviceLost: r.deviceLost}, backend != nil)
	}

	if mode == PipelineModeGPU {
		if backend == nil {
			return errors.New("danmaku: PipelineModeGPU requires a registered accelerator")
		}
		err := backend.DrawFrame(target, r.atl, r.buf, nowMs, opacity)
		if err != nil {
			r.deviceLost = true
			if r.cfg.Mode == PipelineModeGPU {
				return fmt.Errorf("%w: %v", ErrDeviceLost, err)
			}
			Logger().Warn("GPU backend failed, falling back to CPU", slog.Any("error", err))
			return r.renderCPU(nowMs, target, opacity)
		}
		return backend.Flush(target)
	}

	return r.renderCPU(nowMs, target, opacity)
}

// entryForRect finds the atlas Entry backing an expired instance's UV
// rect so its refcount can be dropped. LiveComment only carries a
// copied rect (not a pointer) to avoid atlas<->instance import cycles,
// so this does an O(live) scan; live comment counts are small relative
// to frame budgets at the scale this renderer targets.
func (r *Renderer) entryForRect(rect comment.AtlasRect) *atlas.Entry {
	for id, e := range r.liveEntry {
		if e.UV() == rect {
			delete(r.liveEntry, id)
			return e
		}
	}
	return nil
}
