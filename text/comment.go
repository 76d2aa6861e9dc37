package text

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// RasterizedComment is the tight monochrome coverage bitmap produced by
// Rasterize for a single comment. Bitmap is single-channel (0..255
// coverage), row-major, with no padding: len(Bitmap) == Width*Height.
// Color is applied later by the fragment shader, not baked into the
// bitmap.
type RasterizedComment struct {
	Bitmap []uint8
	Width  int
	Height int

	// BaselinePx is the distance in pixels from the top of Bitmap down to
	// the text baseline.
	BaselinePx int

	// AdvancePx is the logical line width used by the track allocator; it
	// may differ slightly from Width due to hinting and overshoot.
	AdvancePx int
}

// Rasterize converts a single line of text into a RasterizedComment using
// face. Output is deterministic for identical (text, face) pairs: repeated
// calls with the same face and text return bitmap-identical results.
//
// Rasterize never blocks; on failure it returns ErrMultiline (s contains
// a line break), ErrFontUnavailable (the face cannot back an opentype
// rasterizer) or a wrapped ErrShapeFailed (s is empty, or the glyph run
// could not be measured or drawn). Callers should drop the
// comment and log a warning rather than retry.
func Rasterize(face Face, s string) (RasterizedComment, error) {
	if s == "" {
		return RasterizedComment{}, fmt.Errorf("text: %w: empty comment text", ErrShapeFailed)
	}
	if strings.ContainsAny(s, "\n\r") {
		return RasterizedComment{}, ErrMultiline
	}

	sf, ok := face.(*sourceFace)
	if !ok {
		return RasterizedComment{}, ErrFontUnavailable
	}
	parsed, ok := sf.source.Parsed().(*ximageParsedFont)
	if !ok {
		return RasterizedComment{}, ErrFontUnavailable
	}
	if !anyGlyphResolves(face, s) {
		return RasterizedComment{}, fmt.Errorf("text: %w: no glyph in face for %q", ErrShapeFailed, s)
	}

	opts := &opentype.FaceOptions{
		Size:    sf.size,
		DPI:     72,
		Hinting: mapHinting(sf.config.hinting),
	}
	otFace, err := opentype.NewFace(parsed.font, opts)
	if err != nil {
		return RasterizedComment{}, fmt.Errorf("text: %w: %v", ErrFontUnavailable, err)
	}
	defer func() {
		_ = otFace.Close()
	}()

	bounds, _ := font.BoundString(otFace, s)
	width := int((bounds.Max.X - bounds.Min.X) >> 6)
	height := int((bounds.Max.Y - bounds.Min.Y) >> 6)
	if width <= 0 || height <= 0 {
		return RasterizedComment{}, fmt.Errorf("text: %w: degenerate bounds for %q", ErrShapeFailed, s)
	}

	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	drawer := &font.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: otFace,
		Dot:  fixed.Point26_6{X: -bounds.Min.X, Y: -bounds.Min.Y},
	}
	drawer.DrawString(s)

	return RasterizedComment{
		Bitmap:     mask.Pix,
		Width:      width,
		Height:     height,
		BaselinePx: int(-bounds.Min.Y >> 6),
		AdvancePx:  int(face.Advance(s)),
	}, nil
}

// anyGlyphResolves reports whether at least one rune in s has a real
// glyph in face, as opposed to every rune falling back to .notdef. A
// comment whose text is entirely unsupported by the font (e.g. a script
// the font carries no glyphs for) fails fast instead of rasterizing a
// row of blank boxes.
func anyGlyphResolves(face Face, s string) bool {
	for _, r := range s {
		if face.HasGlyph(r) {
			return true
		}
	}
	return false
}
