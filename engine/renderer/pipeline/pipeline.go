package pipeline

import (
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ID names one of the fixed pipelines of the frame.
type ID string

const (
	// Geometry writes albedo, world position and world normal into the G-buffer.
	Geometry ID = "geometry"
	// DepthFirst records the nearest depth per pixel with MIN blending.
	DepthFirst ID = "depth_first"
	// Peel records the second-nearest depth per pixel, rejecting the first layer.
	Peel ID = "peel"
	// Composite lights the G-buffer onto the surface.
	Composite ID = "composite"
	// Skybox renders one face of the skybox cube from a cube-laid-out panorama.
	Skybox ID = "skybox"
	// SkyboxEquirect renders one face of the skybox cube from a flat panorama.
	SkyboxEquirect ID = "skybox_equirect"
)

// ColorTarget describes one color output of a pipeline.
type ColorTarget struct {
	Format wgpu.TextureFormat
	// Blend is nil for replace.
	Blend *wgpu.BlendState
}

// DepthState describes the depth-stencil state of a pipeline.
type DepthState struct {
	Format  wgpu.TextureFormat
	Compare wgpu.CompareFunction
	Write   bool
}

// pipeline is the implementation of the Pipeline interface.
// It holds the immutable creation state of a render pipeline and the GPU objects created from it.
type pipeline struct {
	id     ID
	shader shader.Shader

	vertexLayouts []wgpu.VertexBufferLayout
	targets       []ColorTarget
	depth         *DepthState
	groups        []*BindGroupSchema

	cullMode  wgpu.CullMode
	topology  wgpu.PrimitiveTopology
	frontFace wgpu.FrontFace
	writeMask wgpu.ColorWriteMask

	// renderPipeline and bindGroupLayouts are backend handles set by Registry.Build
	renderPipeline   any
	bindGroupLayouts []any
}

// Pipeline defines the interface for a render pipeline descriptor. It holds the shader, vertex
// layouts, color targets, depth state, rasterizer state and typed bind group schemas needed to
// create the GPU pipeline, and the backend handles once it has been built.
type Pipeline interface {
	// ID returns the pipeline's identifier.
	//
	// Returns:
	//   - ID: the pipeline identifier
	ID() ID

	// Shader returns the parsed WGSL module holding both entry points.
	//
	// Returns:
	//   - shader.Shader: the pipeline's shader
	Shader() shader.Shader

	// VertexLayouts returns the vertex buffer layouts in slot order.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// Targets returns the color targets in location order.
	//
	// Returns:
	//   - []ColorTarget: the color targets
	Targets() []ColorTarget

	// Depth returns the depth state.
	//
	// Returns:
	//   - *DepthState: the depth state, nil if the pipeline has no depth attachment
	Depth() *DepthState

	// Groups returns the bind group schemas in group order.
	//
	// Returns:
	//   - []*BindGroupSchema: the schemas
	Groups() []*BindGroupSchema

	// Group returns one bind group schema.
	//
	// Parameters:
	//   - index: the bind group index
	//
	// Returns:
	//   - *BindGroupSchema: the schema, nil if index is out of range
	Group(index uint32) *BindGroupSchema

	// CullMode returns the face culling mode.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the topology
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding.
	//
	// Returns:
	//   - wgpu.FrontFace: the winding
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask applied to every target.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the write mask
	WriteMask() wgpu.ColorWriteMask

	// RenderPipeline returns the backend pipeline handle.
	//
	// Returns:
	//   - any: the handle, nil before Registry.Build
	RenderPipeline() any

	// BindGroupLayout returns the backend bind group layout handle for a group.
	//
	// Parameters:
	//   - index: the bind group index
	//
	// Returns:
	//   - any: the handle, nil before Registry.Build or if index is out of range
	BindGroupLayout(index uint32) any

	// SetRenderPipeline stores the backend handles created for this pipeline.
	//
	// Parameters:
	//   - renderPipeline: the backend pipeline handle
	//   - layouts: the bind group layout handles in group order
	SetRenderPipeline(renderPipeline any, layouts []any)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline descriptor with the given shader and options.
// Defaults are triangle lists, counter-clockwise front faces, no culling, no depth and all channels written.
//
// Parameters:
//   - id: the pipeline identifier
//   - sh: the parsed shader with vertex and fragment entry points
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline with the specified configuration
func NewPipeline(id ID, sh shader.Shader, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		id:        id,
		shader:    sh,
		cullMode:  wgpu.CullModeNone,
		topology:  wgpu.PrimitiveTopologyTriangleList,
		frontFace: wgpu.FrontFaceCCW,
		writeMask: wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) ID() ID {
	return p.id
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertexLayouts
}

func (p *pipeline) Targets() []ColorTarget {
	return p.targets
}

func (p *pipeline) Depth() *DepthState {
	return p.depth
}

func (p *pipeline) Groups() []*BindGroupSchema {
	return p.groups
}

func (p *pipeline) Group(index uint32) *BindGroupSchema {
	if int(index) >= len(p.groups) {
		return nil
	}
	return p.groups[index]
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) RenderPipeline() any {
	return p.renderPipeline
}

func (p *pipeline) BindGroupLayout(index uint32) any {
	if int(index) >= len(p.bindGroupLayouts) {
		return nil
	}
	return p.bindGroupLayouts[index]
}

func (p *pipeline) SetRenderPipeline(renderPipeline any, layouts []any) {
	p.renderPipeline = renderPipeline
	p.bindGroupLayouts = layouts
}

// minBlend keeps the smaller of source and destination in every channel.
var minBlend = &wgpu.BlendState{
	Color: wgpu.BlendComponent{
		Operation: wgpu.BlendOperationMin,
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
	},
	Alpha: wgpu.BlendComponent{
		Operation: wgpu.BlendOperationMin,
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
	},
}

// MinBlend returns a copy of the MIN blend state used by the depth-first and peel pipelines.
func MinBlend() *wgpu.BlendState {
	b := *minBlend
	return &b
}
