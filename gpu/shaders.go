package gpu

import (
	_ "embed"
	"errors"
)

// Embedded WGSL shader sources, compiled into shader modules at Init time.
//
//go:embed shaders/glyph.wgsl
var glyphShaderSource string

//go:embed shaders/shadow.wgsl
var shadowShaderSource string

//go:embed shaders/copy.wgsl
var copyShaderSource string

// ShaderModuleID identifies a compiled shader module. This is a
// placeholder handle: gogpu/wgpu's naga-based module compilation is not
// yet wired into this backend, so CompileShaders only validates the WGSL
// sources are present and hands back stable non-zero IDs a pipeline can
// reference.
type ShaderModuleID uint64

// InvalidShaderModule marks an uninitialized shader module handle.
const InvalidShaderModule ShaderModuleID = 0

// ShaderModules holds the compiled modules for all three render passes a
// frame may use.
type ShaderModules struct {
	// Glyph is the instanced glyph-pass vertex+fragment module.
	Glyph ShaderModuleID

	// Shadow is the GPU-accelerated shadow blur module (AccelShadowBlur).
	Shadow ShaderModuleID

	// Copy is the full-screen opacity composite module (AccelCopyPass).
	Copy ShaderModuleID
}

// IsValid reports whether every module handle was assigned.
func (s *ShaderModules) IsValid() bool {
	return s.Glyph != InvalidShaderModule &&
		s.Shadow != InvalidShaderModule &&
		s.Copy != InvalidShaderModule
}

// CompileShaders validates the embedded WGSL sources and returns stub
// module handles.
//
// TODO: replace the stub handles with real core.ShaderModuleID values once
// naga-based WGSL compilation lands in gogpu/wgpu; the sources above are
// already final and ready to compile unchanged.
func CompileShaders() (*ShaderModules, error) {
	if glyphShaderSource == "" {
		return nil, errors.New("gpu: glyph shader source is empty")
	}
	if shadowShaderSource == "" {
		return nil, errors.New("gpu: shadow shader source is empty")
	}
	if copyShaderSource == "" {
		return nil, errors.New("gpu: copy shader source is empty")
	}

	return &ShaderModules{
		Glyph:  ShaderModuleID(1),
		Shadow: ShaderModuleID(2),
		Copy:   ShaderModuleID(3),
	}, nil
}

// GlyphShaderSource returns the WGSL source for the glyph pass.
func GlyphShaderSource() string { return glyphShaderSource }

// ShadowShaderSource returns the WGSL source for the shadow pass.
func ShadowShaderSource() string { return shadowShaderSource }

// CopyShaderSource returns the WGSL source for the copy pass.
func CopyShaderSource() string { return copyShaderSource }
