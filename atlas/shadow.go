package atlas

import "math"

// ShadowConfig controls the radial falloff glow built around each
// glyph bitmap.
type ShadowConfig struct {
	// WidthPx is the sampling radius in texels.
	WidthPx int
	// Weight scales every neighborhood contribution before clamping.
	Weight float32
}

// buildShadow implements the shadow builder (C3): for every output
// texel, it samples a square neighborhood of radius cfg.WidthPx around
// the same texel in src, and takes the maximum falloff-weighted
// contribution across that neighborhood. The result is a same-size,
// single-channel bitmap.
func buildShadow(src []uint8, width, height int, cfg ShadowConfig) []uint8 {
	out := make([]uint8, width*height)
	if cfg.WidthPx <= 0 {
		return out
	}
	radius := cfg.WidthPx

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var best float64
			for dy := -radius; dy <= radius; dy++ {
				sy := y + dy
				if sy < 0 || sy >= height {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					sx := x + dx
					if sx < 0 || sx >= width {
						continue
					}
					dist := math.Hypot(float64(dx), float64(dy))
					if dist > float64(radius) {
						continue
					}
					alpha := float64(src[sy*width+sx]) / 255
					contribution := alpha * (1 - dist/float64(radius))
					weighted := float64(cfg.Weight) * contribution
					if weighted > best {
						best = weighted
					}
				}
			}
			if best > 1 {
				best = 1
			}
			out[y*width+x] = uint8(best * 255)
		}
	}
	return out
}
