// Package comment defines the input record shared by the filter chain,
// track allocator, and instance buffer assembler. It has no dependencies
// so every downstream package can import it without risking a cycle.
package comment

// Motion is one of the three canonical on-screen movement classes a
// comment can be assigned.
type Motion uint32

const (
	// MotionScroll moves right to left across the full screen width.
	MotionScroll Motion = iota

	// MotionTop is centered and static, anchored near the top edge.
	MotionTop

	// MotionBottom is centered and static, anchored near the bottom edge.
	MotionBottom
)

// String returns the motion class name.
func (m Motion) String() string {
	switch m {
	case MotionScroll:
		return "scroll"
	case MotionTop:
		return "top"
	case MotionBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// StyleFlags carries per-comment rendering hints beyond plain solid-color
// text. The zero value means no special styling.
type StyleFlags uint32

const (
	// StyleBold requests a bold weight, when the font database has one.
	StyleBold StyleFlags = 1 << iota
)

// RGB is a comment's solid display color. Components are linear [0,1].
type RGB struct {
	R, G, B float32
}

// AtlasRect is a copied (u, v, w, h) rectangle within an atlas texture.
// LiveComment stores a copy rather than a live reference to the owning
// atlas entry, so track/instance can report and consume placement data
// without importing the atlas package.
type AtlasRect struct {
	U, V, W, H uint32
}

// LiveComment is an admitted comment actively occupying a lane, tracked
// by C4 and mirrored into the instance buffer by C5. It becomes dead
// once NowMs-SpawnTimeMs >= lifetime_ms.
type LiveComment struct {
	ID          uint64
	SpawnTimeMs uint32
	Motion      Motion
	TrackIndex  uint32
	LineWidthPx uint32
	AtlasUV     AtlasRect
	ShadowUV    AtlasRect
	Color       RGB
}

// Comment is an immutable input record. Once constructed it is never
// mutated; the pipeline (C7 filter -> C1 rasterize -> C2 intern -> C4
// admit -> C5 push) only ever reads it.
type Comment struct {
	// ID uniquely identifies this comment within its source stream.
	ID uint64

	// SpawnTimeMs is the playback clock time at which this comment
	// should begin its on-screen motion. Successive comments admitted
	// from the same stream must have non-decreasing SpawnTimeMs.
	SpawnTimeMs uint32

	// Text is the comment body, always rendered as a single line.
	Text string

	// Motion selects the on-screen movement class.
	Motion Motion

	// Color is the comment's solid display color.
	Color RGB

	// FontSizePx is the requested font size in pixels.
	FontSizePx float32

	// StyleFlags carries optional rendering hints.
	StyleFlags StyleFlags
}
