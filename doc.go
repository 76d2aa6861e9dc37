// Package danmaku implements a scrolling video comment overlay renderer.
//
// # Overview
//
// danmaku admits timestamped text comments, lays them out into
// non-overlapping screen lanes according to their motion class (scroll,
// top, bottom), rasterizes and caches their glyphs in a shelf-packed GPU
// atlas, and draws every live comment in a single instanced draw call per
// frame. A CPU fallback path composites the same instance buffer directly
// into a pixel buffer when no GPU backend is registered.
//
// # Quick Start
//
//	import "github.com/fifth-light/danmaku-renderer"
//
//	source, err := text.NewFontSourceFromFile("NotoSansCJK-Regular.ttf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer source.Close()
//
//	r, err := danmaku.NewRenderer(
//	    danmaku.WithScreenSize(1920, 1080),
//	    danmaku.WithFontSource(source),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r.PushComment(danmaku.Comment{
//	    ID: 1, SpawnTimeMs: 0, Text: "hello",
//	    Motion: danmaku.MotionScroll, FontSizePx: 24,
//	})
//
//	target := danmaku.RenderTarget{Data: pixels, Width: 1920, Height: 1080, Stride: 1920 * 4}
//	if err := r.Render(nowMs, target, 1.0); err != nil {
//	    log.Fatal(err)
//	}
//
// # Backends
//
// Rendering has a software and a GPU-accelerated path:
//   - CPU compositor, used whenever no backend is registered
//   - GPU backend via gogpu/wgpu, opted into with a blank import
//
// # Architecture
//
// The library is organized into:
//   - Public API: Renderer, Config, RendererOption, RenderTarget
//   - comment: shared, dependency-free data types (Comment, Motion, LiveComment)
//   - track: lane allocation and non-overlap enforcement
//   - atlas: glyph/shadow texture cache with reference-counted LRU eviction
//   - instance: the per-frame GPU instance buffer assembler
//   - text: font loading, shaping, and rasterization
//   - filter: the admission predicate chain
//
// # Coordinate System
//
// Uses standard computer graphics coordinates:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//
// # Performance
//
// Per-frame CPU work is O(expired comments), since a live comment's
// on-screen placement is a closed-form function of time computed once at
// admission and evaluated per-instance thereafter.
//
// # Concurrency
//
// The admit/compact/draw path (PushComment, Render) is single-threaded
// and must be driven from one owner loop. Rasterization can optionally be
// offloaded onto a worker pool with WithAsyncRasterization: submit
// comments with SubmitComment and collect them, in submission order, by
// calling DrainRasterized once per frame before Render.
package danmaku
