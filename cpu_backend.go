package danmaku

import "github.com/fifth-light/danmaku-renderer/instance"

// renderCPU is the software fallback for C6: it walks every live instance
// record and composites it directly into target.Data, without involving a
// FrameBackend. It mirrors the GPU pipeline's per-fragment math (§4.6 step
// 5-6) closely enough to stay within the documented tolerance between the
// two backends, but does the per-instance placement and per-texel sampling
// in a plain loop instead of a vertex/fragment shader pair.
func (r *Renderer) renderCPU(nowMs uint32, target RenderTarget, opacity float32) error {
	lifetimeMs := r.buf.LifetimeMs()
	screenW := r.cfg.ScreenWidthPx

	for _, rec := range r.buf.Records() {
		progress := progressOf(nowMs, rec.TimeMs, lifetimeMs)
		if progress < 0 || progress >= 1 {
			continue
		}

		w, h, ok := r.atl.RectAt(rec.AtlasU, rec.AtlasV)
		if !ok {
			continue
		}

		x, y := quadOrigin(rec, screenW, progress)
		r.blitRecord(target, rec, x, y, w, h, opacity)
	}

	return nil
}

// progressOf computes a comment's animation progress in [0, 1) terms; it
// returns a value outside that range once the comment is not yet visible
// or has already expired, matching the vertex shader's off-screen gate in
// §4.4/§4.6.
func progressOf(nowMs, spawnMs, lifetimeMs uint32) float64 {
	if lifetimeMs == 0 {
		return 1
	}
	return float64(nowMs-spawnMs) / float64(lifetimeMs)
}

// quadOrigin computes the top-left pixel coordinate of rec's quad at the
// given progress. Scroll comments travel from the right edge to fully off
// the left edge over their lifetime; top/bottom comments are static, so
// their precomputed offset_xy is used unchanged.
func quadOrigin(rec instance.Record, screenW uint32, progress float64) (x, y int) {
	if Motion(rec.Motion) != MotionScroll {
		return int(rec.OffsetX), int(rec.OffsetY)
	}
	anchor := float64(screenW) - float64(screenW+rec.LineWidthPx)*progress
	return int(anchor), int(rec.OffsetY)
}

// blitRecord samples the glyph and shadow canvases across a w x h region
// and composites shadow_rgba + text_rgba (both premultiplied), scaled by
// the global opacity, onto target.Data using source-over blending.
func (r *Renderer) blitRecord(target RenderTarget, rec instance.Record, x, y int, w, h uint32, opacity float32) {
	glyph := r.atl.GlyphCanvas()
	shadow := r.atl.ShadowCanvas()
	atlasW := r.atl.Width()

	for row := uint32(0); row < h; row++ {
		dy := y + int(row)
		if dy < 0 || dy >= target.Height {
			continue
		}
		srcRow := (rec.AtlasV + row) * atlasW

		for col := uint32(0); col < w; col++ {
			dx := x + int(col)
			if dx < 0 || dx >= target.Width {
				continue
			}

			srcIdx := srcRow + rec.AtlasU + col
			glyphA := float32(glyph[srcIdx]) / 255
			shadowA := float32(shadow[srcIdx]) / 255
			if glyphA == 0 && shadowA == 0 {
				continue
			}

			a := (glyphA + shadowA) * opacity
			if a > 1 {
				a = 1
			}
			sr := rec.ColorR * glyphA * opacity
			sg := rec.ColorG * glyphA * opacity
			sb := rec.ColorB * glyphA * opacity

			dstIdx := dy*target.Stride + dx*4
			blendPremultiplied(target.Data[dstIdx:dstIdx+4], sr, sg, sb, a)
		}
	}
}

// blendPremultiplied performs source-over compositing of a premultiplied
// (r, g, b, a) source, each in [0, 1], onto a premultiplied RGBA8 pixel:
// result = source + dest * (1 - source_alpha).
func blendPremultiplied(dst []uint8, r, g, b, a float32) {
	inv := 1 - a
	dst[0] = clampByte(r*255 + float32(dst[0])*inv)
	dst[1] = clampByte(g*255 + float32(dst[1])*inv)
	dst[2] = clampByte(b*255 + float32(dst[2])*inv)
	dst[3] = clampByte(a*255 + float32(dst[3])*inv)
}

func clampByte(x float32) uint8 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}
