package text

import "golang.org/x/image/font"

// mapHinting converts the face's configured Hinting to the x/image/font
// hinting mode Rasterize needs when it builds an opentype.Face.
func mapHinting(h Hinting) font.Hinting {
	switch h {
	case HintingNone:
		return font.HintingNone
	case HintingVertical:
		return font.HintingVertical
	case HintingFull:
		return font.HintingFull
	default:
		return font.HintingFull
	}
}
