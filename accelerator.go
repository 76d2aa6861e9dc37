package danmaku

import (
	"errors"
	"sync"

	"github.com/fifth-light/danmaku-renderer/atlas"
)

// ErrFallbackToCPU indicates the GPU backend cannot handle this frame.
// The caller should transparently fall back to the CPU backend.
var ErrFallbackToCPU = errors.New("danmaku: falling back to CPU rendering")

// AcceleratedOp describes render stages for GPU capability checking.
type AcceleratedOp uint32

const (
	// AccelInstancedDraw represents the single instanced draw call that
	// rasterizes all live comment quads in one pass.
	AccelInstancedDraw AcceleratedOp = 1 << iota

	// AccelShadowBlur represents GPU-side dilation/blur of glyph shadows.
	AccelShadowBlur

	// AccelCopyPass represents the atlas-to-surface copy/composite pass.
	AccelCopyPass
)

// RenderTarget provides pixel buffer access for CPU-readback output, or a
// surface view handle for direct GPU presentation. Exactly one of Data or
// SurfaceView should be set.
type RenderTarget struct {
	// Data is the premultiplied RGBA8 pixel buffer, row-major, used when a
	// backend renders offscreen and the host reads pixels back to the CPU.
	Data          []uint8
	Width, Height int
	Stride        int // bytes per row

	// SurfaceView is an opaque hal.TextureView handle for direct GPU
	// presentation. Backends that support SurfaceTargetAware write here
	// instead of Data.
	SurfaceView any
}

// FrameBackend is an optional accelerated renderer for a single frame of
// live comments. When registered via RegisterAccelerator, the frame
// renderer tries the backend first; if it returns ErrFallbackToCPU or any
// error, rendering falls back to the CPU backend for that frame.
//
// Implementations are provided by backend packages. Hosts opt in via blank
// import:
//
//	import _ "github.com/fifth-light/danmaku-renderer/gpu" // enables the GPU backend
type FrameBackend interface {
	// Name returns the backend name (e.g., "wgpu-vulkan", "cpu").
	Name() string

	// Init initializes backend resources. Called once during registration.
	Init() error

	// Close releases backend resources.
	Close()

	// CanAccelerate reports whether the backend supports the given stage.
	// This is a fast check used to skip the backend entirely for
	// unsupported stages.
	CanAccelerate(op AcceleratedOp) bool

	// DrawFrame issues the instanced draw for the given atlas texture and
	// instance buffer, writing into target. nowMs is the current playback
	// clock in milliseconds and opacity is the global comment opacity
	// (0.0-1.0). Returns ErrFallbackToCPU if the frame cannot be
	// accelerated (e.g. device lost).
	DrawFrame(target RenderTarget, atlas AtlasSource, instances InstanceSource, nowMs uint32, opacity float32) error

	// Flush dispatches any pending GPU work to target. Batch-capable
	// backends accumulate work during DrawFrame and submit on Flush.
	// Immediate-mode backends return nil.
	Flush(target RenderTarget) error
}

// AtlasSource exposes the GPU texture backing a glyph atlas to a backend,
// without the backend needing to depend on the atlas package directly.
type AtlasSource interface {
	// TextureHandle returns the backend-specific GPU texture handle.
	TextureHandle() any
	Width() uint32
	Height() uint32
}

// InstanceSource exposes the packed instance buffer for a frame.
type InstanceSource interface {
	// BufferHandle returns the backend-specific GPU buffer handle.
	BufferHandle() any
	// Count returns the number of instance records currently packed.
	Count() uint32
}

// DirtyUploadSource is an optional interface for AtlasSource implementations
// that batch CPU-side bitmap writes and expose them in discrete rectangles
// since the last flush, rather than the whole canvas. A GPU backend type-
// asserts for this before DrawFrame to learn what to write into its glyph
// and shadow textures; the CPU backend never needs it since it reads the
// canvases directly. [atlas.Atlas] implements this.
type DirtyUploadSource interface {
	TakeDirtyUploads() (glyph, shadow []atlas.Upload)
}

// SoftwareMirrorSource is an optional interface for AtlasSource
// implementations that keep a CPU-side mirror of the resident glyph and
// shadow bitmaps alongside the GPU texture. A backend without real
// hardware texture sampling wired in can composite correct pixels from
// this mirror for a CPU-readback RenderTarget instead of leaving it
// blank. [atlas.Atlas] implements this.
type SoftwareMirrorSource interface {
	GlyphCanvas() []uint8
	ShadowCanvas() []uint8
	RectAt(u, v uint32) (w, h uint32, ok bool)
}

// LifetimeSource is an optional interface for InstanceSource
// implementations that know each instance record's shared lifetime,
// needed to turn a record's time_ms into an animation progress value.
// [instance.Buffer] implements this.
type LifetimeSource interface {
	LifetimeMs() uint32
}

// DeviceProviderAware is an optional interface for backends that can share
// a GPU device with an external provider (e.g., a host window system).
// When SetDeviceProvider is called, the backend reuses the provided GPU
// device instead of creating its own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

// SurfaceTargetAware is an optional interface for backends that support
// direct surface rendering. When SetSurfaceTarget is called with a non-nil
// view, the backend renders directly to the surface texture instead of
// reading back pixels to the CPU. This eliminates a GPU->CPU->GPU
// round-trip for windowed hosts.
//
// Call SetSurfaceTarget with nil to return to offscreen (readback) mode.
// The caller retains ownership of the surface view.
type SurfaceTargetAware interface {
	SetSurfaceTarget(view any, width, height uint32)
}

var (
	accelMu sync.RWMutex
	accel   FrameBackend
)

// RegisterAccelerator registers a frame backend for optional GPU rendering.
//
// Only one backend can be registered at a time. Subsequent calls replace
// the previous one. The backend's Init() method is called during
// registration; if Init() fails, the backend is not registered and the
// error is returned.
//
// Typical usage via blank import in backend packages:
//
//	func init() {
//	    danmaku.RegisterAccelerator(NewWGPUBackend())
//	}
func RegisterAccelerator(a FrameBackend) error {
	if a == nil {
		return errors.New("danmaku: backend must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	propagateLogger(a, Logger())
	return nil
}

// Accelerator returns the currently registered frame backend, or nil if none.
func Accelerator() FrameBackend {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// CloseAccelerator shuts down the global frame backend, releasing all GPU
// resources (textures, pipelines, device, instance). After this call,
// [Accelerator] returns nil and rendering falls back to the CPU backend.
//
// Call this at application shutdown to prevent GPU resource leaks. It is
// safe to call when no backend is registered (no-op). CloseAccelerator is
// idempotent.
func CloseAccelerator() {
	accelMu.Lock()
	a := accel
	accel = nil
	accelMu.Unlock()
	if a != nil {
		a.Close()
	}
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// backend, enabling GPU device sharing. If no backend is registered or it
// doesn't support device sharing, this is a no-op.
func SetAcceleratorDeviceProvider(provider any) error {
	a := Accelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}

// SetAcceleratorSurfaceTarget configures the registered backend for direct
// surface rendering. When view is non-nil, the backend renders directly to
// the surface texture view, eliminating a GPU->CPU readback. Call with nil
// view to return to offscreen mode.
//
// If no backend is registered or it doesn't support surface rendering,
// this is a no-op.
func SetAcceleratorSurfaceTarget(view any, width, height uint32) {
	a := Accelerator()
	if a == nil {
		return
	}
	if sta, ok := a.(SurfaceTargetAware); ok {
		sta.SetSurfaceTarget(view, width, height)
	}
}
