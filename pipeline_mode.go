package danmaku

// PipelineMode selects the frame-rendering backend.
type PipelineMode int

const (
	// PipelineModeAuto lets the renderer pick GPU or CPU rendering based on
	// device availability and the frame's state.
	PipelineModeAuto PipelineMode = iota

	// PipelineModeGPU forces the registered FrameBackend's instanced draw
	// path. If no backend is registered, Render returns an error rather
	// than silently falling back.
	PipelineModeGPU

	// PipelineModeCPU forces software rasterization of live comment quads
	// directly into the destination frame buffer, bypassing any registered
	// FrameBackend entirely.
	PipelineModeCPU
)

// String returns the pipeline mode name.
func (m PipelineMode) String() string {
	switch m {
	case PipelineModeAuto:
		return "Auto"
	case PipelineModeGPU:
		return "GPU"
	case PipelineModeCPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// FrameStats summarizes the state a single frame is rendered from, used by
// [SelectPipeline] to choose a backend under PipelineModeAuto.
type FrameStats struct {
	// LiveCommentCount is the number of comments with a visible window at
	// the current clock.
	LiveCommentCount int

	// DeviceLost is true if the last GPU submission reported a lost
	// device. Auto mode falls back to CPU for the remainder of the
	// session once this is observed, since the GPU backend requires a
	// fresh device to recover.
	DeviceLost bool
}

// SelectPipeline chooses GPU or CPU rendering for PipelineModeAuto.
//
// Heuristics:
//   - No GPU backend registered: always CPU.
//   - Device lost: CPU for this and all subsequent frames, since recovery
//     requires the host to re-create the device and re-register the backend.
//   - Otherwise: GPU. The instanced draw call costs the same regardless of
//     live comment count, so there is no complexity threshold below which
//     CPU rendering is preferable once a device exists.
func SelectPipeline(stats FrameStats, hasGPUBackend bool) PipelineMode {
	if !hasGPUBackend || stats.DeviceLost {
		return PipelineModeCPU
	}
	return PipelineModeGPU
}
