package shader

import "github.com/cogentcore/webgpu/wgpu"

// ResourceKind classifies what a @group/@binding declaration binds.
type ResourceKind int

const (
	ResourceUnknown ResourceKind = iota
	ResourceUniformBuffer
	ResourceReadOnlyStorageBuffer
	ResourceStorageBuffer
	ResourceTexture
	ResourceDepthTexture
	ResourceSampler
	ResourceComparisonSampler
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceUniformBuffer:
		return "uniform"
	case ResourceReadOnlyStorageBuffer:
		return "storage,read"
	case ResourceStorageBuffer:
		return "storage,read_write"
	case ResourceTexture:
		return "texture"
	case ResourceDepthTexture:
		return "depth texture"
	case ResourceSampler:
		return "sampler"
	case ResourceComparisonSampler:
		return "sampler_comparison"
	default:
		return "unknown"
	}
}

// IsBuffer reports whether the kind is bound with a GPU buffer.
func (k ResourceKind) IsBuffer() bool {
	return k == ResourceUniformBuffer || k == ResourceReadOnlyStorageBuffer || k == ResourceStorageBuffer
}

// Declaration is one resource binding declared in WGSL source.
type Declaration struct {
	Group   uint32
	Binding uint32
	Name    string
	// TypeName is the declared WGSL type, e.g. "texture_2d<f32>" or "CameraUniform".
	TypeName string
	Kind     ResourceKind
	// ViewDimension is set for texture kinds.
	ViewDimension wgpu.TextureViewDimension
	// MinSize is the resolved byte size for buffer kinds, or 0 when the type could not be resolved.
	// Runtime-sized arrays resolve to one element.
	MinSize uint64
}

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the WGSL specification.
// Used to compute MinSize for buffer bindings.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}
