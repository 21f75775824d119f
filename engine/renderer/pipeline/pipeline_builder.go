package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexLayouts sets the vertex buffer layouts in slot order.
//
// Parameters:
//   - layouts: the vertex buffer layouts
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex layouts for this pipeline
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayouts = layouts
	}
}

// WithColorTargets sets the color targets in location order.
//
// Parameters:
//   - targets: the color targets
//
// Returns:
//   - PipelineBuilderOption: a function that sets the color targets for this pipeline
func WithColorTargets(targets ...ColorTarget) PipelineBuilderOption {
	return func(p *pipeline) {
		p.targets = targets
	}
}

// WithDepth enables a depth attachment with the given compare function and write flag.
//
// Parameters:
//   - format: the depth texture format
//   - compare: the depth compare function
//   - write: whether passing fragments write depth
//
// Returns:
//   - PipelineBuilderOption: a function that sets the depth state for this pipeline
func WithDepth(format wgpu.TextureFormat, compare wgpu.CompareFunction, write bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depth = &DepthState{Format: format, Compare: compare, Write: write}
	}
}

// WithBindGroups sets the bind group schemas in group order.
//
// Parameters:
//   - groups: the schemas
//
// Returns:
//   - PipelineBuilderOption: a function that sets the bind group schemas for this pipeline
func WithBindGroups(groups ...*BindGroupSchema) PipelineBuilderOption {
	return func(p *pipeline) {
		p.groups = groups
	}
}

// WithCullMode sets the face culling mode.
//
// Parameters:
//   - cullMode: the cull mode (e.g., wgpu.CullModeBack)
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode for this pipeline
func WithCullMode(cullMode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = cullMode
	}
}

// WithTopology sets the primitive topology.
//
// Parameters:
//   - topology: the primitive topology
//
// Returns:
//   - PipelineBuilderOption: a function that sets the topology for this pipeline
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithFrontFace sets the winding considered front facing.
//
// Parameters:
//   - frontFace: the winding
//
// Returns:
//   - PipelineBuilderOption: a function that sets the front face for this pipeline
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}

// WithWriteMask sets the color write mask applied to every target.
//
// Parameters:
//   - writeMask: the write mask
//
// Returns:
//   - PipelineBuilderOption: a function that sets the write mask for this pipeline
func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}
