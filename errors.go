package danmaku

import "errors"

// Sentinel errors returned by Renderer methods. Individual comment
// failures (font/shape errors, filtered comments) never reach these paths;
// they are logged and dropped at PushComment. These are frame- and
// session-level failures.
var (
	// ErrAtlasFull is returned when a comment cannot be admitted because
	// the glyph atlas has no free region for it, even after a sweep. The
	// comment is dropped for this admission attempt and is not retried.
	ErrAtlasFull = errors.New("danmaku: atlas full")

	// ErrTrackUnavailable is returned when no lane is free for a
	// comment's motion class and the lane pool is at capacity. Rejecting
	// the comment takes priority over forcing an overlap.
	ErrTrackUnavailable = errors.New("danmaku: no track available")

	// ErrDeviceLost is returned by Render when the GPU backend reports a
	// lost device. The atlas and instance buffer are torn down and
	// rebuilt from the current live set; the caller should retry the
	// next frame on a best-effort basis.
	ErrDeviceLost = errors.New("danmaku: device lost")

	// ErrConfigError is returned by NewRenderer for invalid configuration.
	// It is fatal at startup only; it is never returned after the
	// Renderer has been constructed.
	ErrConfigError = errors.New("danmaku: invalid configuration")
)

// SurfaceResizedError is returned by Render the first frame after Resize.
// It is informational, not fatal: uniforms have already been recomputed
// and the frame was drawn from the current live set. Atlas coordinates
// are unaffected because they are independent of screen size.
type SurfaceResizedError struct {
	Width, Height uint32
}

func (e *SurfaceResizedError) Error() string {
	return "danmaku: surface resized"
}
