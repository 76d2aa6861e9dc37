package atlas

import "testing"

func TestBuildShadowZeroRadiusIsBlank(t *testing.T) {
	src := []uint8{255, 255, 255, 255}
	out := buildShadow(src, 2, 2, ShadowConfig{WidthPx: 0, Weight: 1})
	for _, v := range out {
		if v != 0 {
			t.Fatalf("expected blank shadow at radius 0, got %v", out)
		}
	}
}

func TestBuildShadowSameSize(t *testing.T) {
	src := make([]uint8, 5*5)
	src[2*5+2] = 255
	out := buildShadow(src, 5, 5, ShadowConfig{WidthPx: 2, Weight: 1})
	if len(out) != len(src) {
		t.Fatalf("shadow length = %d, want %d", len(out), len(src))
	}
}

func TestBuildShadowFallsOffWithDistance(t *testing.T) {
	src := make([]uint8, 9*9)
	src[4*9+4] = 255
	out := buildShadow(src, 9, 9, ShadowConfig{WidthPx: 4, Weight: 1})

	center := out[4*9+4]
	edge := out[4*9+7]
	if !(center > edge) {
		t.Fatalf("expected shadow to fall off with distance: center=%d edge=%d", center, edge)
	}
}

func TestBuildShadowClampedToOne(t *testing.T) {
	src := []uint8{255}
	out := buildShadow(src, 1, 1, ShadowConfig{WidthPx: 1, Weight: 10})
	if out[0] != 255 {
		t.Fatalf("expected clamped output of 255, got %d", out[0])
	}
}
