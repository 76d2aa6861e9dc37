package danmaku

import (
	"time"

	"github.com/fifth-light/danmaku-renderer/text"
)

// RendererOption configures a Renderer during creation.
// Use functional options to customize Renderer behavior.
//
// Example:
//
//	// Defaults: 1920x1080, 8s lifetime, no filters
//	r, err := danmaku.NewRenderer(danmaku.WithScreenSize(1920, 1080))
//
//	// With a filter chain and a shorter lifetime
//	r, err := danmaku.NewRenderer(
//	    danmaku.WithScreenSize(1280, 720),
//	    danmaku.WithLifetime(6000),
//	    danmaku.WithFilterChain(myChain.Accept),
//	)
type RendererOption func(*Config)

// Config holds the full configuration needed to construct a Renderer.
// NewRenderer starts from the defaults below and applies the options over
// them; a field an option sets to zero stays zero.
type Config struct {
	ScreenWidthPx  uint32
	ScreenHeightPx uint32
	LineHeightPx   uint32
	LifetimeMs     uint32

	AtlasWidthPx, AtlasHeightPx uint32
	AtlasPadding                uint32
	AtlasGraceFrames            uint32
	AtlasLowWaterMark           uint32
	ShadowWidthPx               int
	ShadowWeight                float32

	MaxTracksForMotion int

	// Mode selects the frame-rendering backend. Defaults to
	// PipelineModeAuto, which prefers the registered GPU backend and
	// falls back to CPU once a device loss is observed.
	Mode PipelineMode

	Filter *filterChainAdapter

	// FontSource backs rasterization for every comment. It is required;
	// NewRenderer returns ErrConfigError if it is nil.
	FontSource *text.FontSource

	// AsyncRasterization starts the §5 worker-pool rasterization path
	// alongside the synchronous one PushComment already offers. Use
	// SubmitComment/DrainRasterized for comments that should be shaped
	// off the owner loop.
	AsyncRasterization bool

	// RasterWorkers sizes the pool when AsyncRasterization is set. Zero
	// means GOMAXPROCS(0).
	RasterWorkers int

	// ShapeDeadline bounds a single worker's rasterization call when
	// AsyncRasterization is set. Defaults to DefaultShapeDeadline.
	ShapeDeadline time.Duration
}

// Default configuration constants, used for every Config field that no
// option sets.
const (
	DefaultScreenWidthPx  = 1920
	DefaultScreenHeightPx = 1080
	DefaultLineHeightPx   = 36
	DefaultLifetimeMs     = 8000

	DefaultAtlasWidthPx  = 2048
	DefaultAtlasHeightPx = 2048
	DefaultShadowWidthPx = 3
	DefaultShadowWeight  = 0.6

	// DefaultShapeDeadline bounds a single asynchronous rasterization
	// call (§5) when WithAsyncRasterization is used.
	DefaultShapeDeadline = 100 * time.Millisecond
)

func defaultConfig() Config {
	return Config{
		ScreenWidthPx:  DefaultScreenWidthPx,
		ScreenHeightPx: DefaultScreenHeightPx,
		LineHeightPx:   DefaultLineHeightPx,
		LifetimeMs:     DefaultLifetimeMs,
		AtlasWidthPx:   DefaultAtlasWidthPx,
		AtlasHeightPx:  DefaultAtlasHeightPx,
		ShadowWidthPx:  DefaultShadowWidthPx,
		ShadowWeight:   DefaultShadowWeight,
		ShapeDeadline:  DefaultShapeDeadline,
	}
}

// WithScreenSize sets the playback surface dimensions in pixels.
func WithScreenSize(width, height uint32) RendererOption {
	return func(c *Config) {
		c.ScreenWidthPx = width
		c.ScreenHeightPx = height
	}
}

// WithLineHeight sets the vertical pitch between adjacent lanes.
func WithLineHeight(px uint32) RendererOption {
	return func(c *Config) {
		c.LineHeightPx = px
	}
}

// WithLifetime sets the on-screen duration shared by every comment.
func WithLifetime(ms uint32) RendererOption {
	return func(c *Config) {
		c.LifetimeMs = ms
	}
}

// WithMaxTracksForMotion bounds the number of lanes opened per motion
// class. Zero (the default) means unbounded.
func WithMaxTracksForMotion(n int) RendererOption {
	return func(c *Config) {
		c.MaxTracksForMotion = n
	}
}

// WithAtlasSize sets the glyph atlas texture dimensions.
func WithAtlasSize(width, height uint32) RendererOption {
	return func(c *Config) {
		c.AtlasWidthPx = width
		c.AtlasHeightPx = height
	}
}

// WithAtlasEviction configures the atlas's grace window (in frames) and
// low-water mark (in free texels) used by sweep.
func WithAtlasEviction(graceFrames, lowWaterMark uint32) RendererOption {
	return func(c *Config) {
		c.AtlasGraceFrames = graceFrames
		c.AtlasLowWaterMark = lowWaterMark
	}
}

// WithShadow configures the radial falloff glow radius and weight.
func WithShadow(widthPx int, weight float32) RendererOption {
	return func(c *Config) {
		c.ShadowWidthPx = widthPx
		c.ShadowWeight = weight
	}
}

// WithFilterChain installs the admission filter chain (C7). Comments
// failing any predicate are dropped before reaching the track
// allocator.
func WithFilterChain(accept func(Comment) bool) RendererOption {
	return func(c *Config) {
		c.Filter = &filterChainAdapter{accept: accept}
	}
}

// WithFontSource sets the font database every comment is rasterized
// against.
func WithFontSource(fs *text.FontSource) RendererOption {
	return func(c *Config) {
		c.FontSource = fs
	}
}

// WithAsyncRasterization starts a §5 worker pool that offloads C1
// rasterization onto workers worker goroutines (GOMAXPROCS(0) if workers
// <= 0), alongside PushComment's synchronous path. A worker whose
// rasterization call runs longer than shapeDeadline is abandoned and the
// comment is dropped, matching §9's drop-and-forget retry policy. Feed
// comments meant to be shaped off the owner loop through SubmitComment
// and collect them with DrainRasterized at the start of each frame.
func WithAsyncRasterization(workers int, shapeDeadline time.Duration) RendererOption {
	return func(c *Config) {
		c.AsyncRasterization = true
		c.RasterWorkers = workers
		if shapeDeadline > 0 {
			c.ShapeDeadline = shapeDeadline
		}
	}
}

// WithPipelineMode forces GPU or CPU rendering instead of the default
// auto-selection. See PipelineMode for the semantics of each mode.
func WithPipelineMode(mode PipelineMode) RendererOption {
	return func(c *Config) {
		c.Mode = mode
	}
}

// filterChainAdapter lets NewRenderer accept a filter.Chain without this
// package importing the comment/filter concrete types in its exported
// option signature.
type filterChainAdapter struct {
	accept func(Comment) bool
}
