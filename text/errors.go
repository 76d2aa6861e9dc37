package text

import "errors"

// Sentinel errors for text package.
var (
	// ErrEmptyFontData is returned when font data is empty.
	ErrEmptyFontData = errors.New("text: empty font data")

	// ErrFontUnavailable is returned when no face can be resolved for a comment.
	ErrFontUnavailable = errors.New("text: font unavailable")

	// ErrShapeFailed is returned when shaping a comment's text fails.
	ErrShapeFailed = errors.New("text: shape error")

	// ErrMultiline is returned when comment text contains a line break.
	// Comments are rendered as a single line; callers should strip newlines
	// before calling Rasterize.
	ErrMultiline = errors.New("text: multiline text is not supported")
)
