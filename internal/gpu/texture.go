//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/wgpu/core"
)

// Texture errors.
var (
	// ErrTextureReleased is returned when operating on a released texture.
	ErrTextureReleased = errors.New("gpu: texture has been released")

	// ErrInvalidDimensions is returned when a texture or region has a
	// non-positive or out-of-bounds size.
	ErrInvalidDimensions = errors.New("gpu: invalid texture dimensions")

	// ErrTextureReadbackNotSupported is returned when a caller asks for a
	// CPU-side copy of a GPU texture; this backend renders straight to a
	// surface or offscreen target and never reads a texture back.
	ErrTextureReadbackNotSupported = errors.New("gpu: texture readback not supported")
)

// GPUTexture is a single-channel (R8) coverage texture: the glyph atlas
// and its shadow companion are the only textures this backend creates,
// both at the resolution handed to Init by the danmaku atlas package.
//
// GPUTexture is safe for concurrent read access; Upload/Close should be
// synchronized externally (the frame renderer owns both calls).
type GPUTexture struct {
	mu sync.RWMutex

	textureID core.TextureID
	viewID    core.TextureViewID

	width, height int
	released      atomic.Bool
	label         string
}

// CreateTexture allocates a width x height single-channel texture on the
// given backend. The texture is zero-filled; use UploadRegion to fill it
// from an atlas.Upload.
func CreateTexture(b *Backend, width, height int, label string) (*GPUTexture, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	if b != nil && !b.IsInitialized() {
		return nil, ErrNotInitialized
	}

	// TODO: actual wgpu texture creation once core.CreateTexture lands;
	// textureID/viewID stay zero until then and UploadRegion is a no-op
	// bookkeeping call against this logical texture.
	return &GPUTexture{width: width, height: height, label: label}, nil
}

// Width and Height report the texture's dimensions in texels.
func (t *GPUTexture) Width() int  { return t.width }
func (t *GPUTexture) Height() int { return t.height }

// Label returns the debug label.
func (t *GPUTexture) Label() string { return t.label }

// IsReleased reports whether Close has been called.
func (t *GPUTexture) IsReleased() bool { return t.released.Load() }

// TextureID returns the underlying wgpu texture ID, zero for a stub texture.
func (t *GPUTexture) TextureID() core.TextureID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.textureID
}

// View returns a new TextureView over the whole texture on each call.
func (t *GPUTexture) View() *TextureView {
	return &TextureView{texture: t, viewID: t.viewID}
}

// UploadRegion writes a rectangle of single-channel coverage pixels at
// (x, y). pixels must have exactly w*h bytes, row-major. This mirrors the
// atlas's own shelf-rect upload granularity: one call per atlas.Upload.
func (t *GPUTexture) UploadRegion(x, y, w, h int, pixels []uint8) error {
	if t.released.Load() {
		return ErrTextureReleased
	}
	if x < 0 || y < 0 || x+w > t.width || y+h > t.height {
		return fmt.Errorf("%w: region (%d,%d)+(%dx%d) exceeds texture bounds (%dx%d)",
			ErrInvalidDimensions, x, y, w, h, t.width, t.height)
	}
	if len(pixels) != w*h {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidDimensions, w*h, len(pixels))
	}

	// TODO: actual queue.WriteTexture call once core.CreateTexture lands;
	// for now this only validates bounds, matching the CPU fallback's
	// own read path (atlas.GlyphCanvas/ShadowCanvas) until the real GPU
	// upload is wired.

	return nil
}

// Close releases the GPU texture. Safe to call more than once.
func (t *GPUTexture) Close() {
	if t.released.Swap(true) {
		return
	}
	t.mu.Lock()
	t.textureID = core.TextureID{}
	t.viewID = core.TextureViewID{}
	t.mu.Unlock()
}

// TextureView is a view over a GPUTexture, bound to a render pass color
// attachment or a fragment-stage sampler binding.
type TextureView struct {
	texture *GPUTexture
	viewID  core.TextureViewID
}

// Texture returns the texture this view was created from.
func (v *TextureView) Texture() *GPUTexture {
	if v == nil {
		return nil
	}
	return v.texture
}
