package pipeline

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/Carmen-Shannon/oxy-peel/engine/camera"
	"github.com/Carmen-Shannon/oxy-peel/engine/instance"
	"github.com/Carmen-Shannon/oxy-peel/engine/light"
	"github.com/Carmen-Shannon/oxy-peel/engine/model"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Formats of the intermediate targets the pipelines write.
const (
	PositionFormat = wgpu.TextureFormatRGBA32Float
	NormalFormat   = wgpu.TextureFormatRGBA32Float
	DepthFormat    = wgpu.TextureFormatDepth32Float
	PeelFormat     = wgpu.TextureFormatRGBA16Float
)

// Sizes of the small uniform buffers owned by the frame. Both hold a single scalar padded to 16 bytes.
const (
	UtilsUniformSize = 16
	FaceUniformSize  = 16
)

// Factory creates the GPU objects described by a Pipeline.
type Factory interface {
	// CreateBindGroupLayout creates a bind group layout from a schema.
	CreateBindGroupLayout(schema *BindGroupSchema) (any, error)
	// CreateRenderPipeline creates a render pipeline using layouts created by CreateBindGroupLayout.
	CreateRenderPipeline(p Pipeline, layouts []any) (any, error)
}

// Registry holds the fixed set of pipelines used by the frame.
type Registry struct {
	mu            *sync.Mutex
	surfaceFormat wgpu.TextureFormat
	validate      bool
	order         []ID
	pipelines     map[ID]Pipeline
	built         bool
}

// RegistryBuilderOption is a functional option applied to a Registry during construction via NewRegistry.
type RegistryBuilderOption func(*Registry)

// WithShaderValidation compiles every shader with naga while the registry is constructed.
//
// Parameters:
//   - enabled: true to compile each shader
//
// Returns:
//   - RegistryBuilderOption: a function that applies the validation option to a registry
func WithShaderValidation(enabled bool) RegistryBuilderOption {
	return func(r *Registry) {
		r.validate = enabled
	}
}

// NewRegistry parses every pipeline's shader and checks its declarations against the pipeline's
// bind group schemas.
//
// Parameters:
//   - surfaceFormat: the format of the presentation surface and of surface-format targets
//   - opts: a variadic list of RegistryBuilderOption functions
//
// Returns:
//   - *Registry: the registry, pipelines not yet built
//   - error: an error wrapping common.ErrPipelineLayoutMismatch if a shader disagrees with its schemas
func NewRegistry(surfaceFormat wgpu.TextureFormat, opts ...RegistryBuilderOption) (*Registry, error) {
	r := &Registry{
		mu:            &sync.Mutex{},
		surfaceFormat: surfaceFormat,
		pipelines:     make(map[ID]Pipeline),
	}
	for _, opt := range opts {
		opt(r)
	}

	builders := []func() (Pipeline, error){
		r.geometry,
		r.depthFirst,
		r.peel,
		r.composite,
		func() (Pipeline, error) { return r.skybox(Skybox, skyboxSource, wgpu.TextureViewDimensionCube) },
		func() (Pipeline, error) {
			return r.skybox(SkyboxEquirect, skyboxEquirectSource, wgpu.TextureViewDimension2D)
		},
	}
	for _, build := range builders {
		p, err := build()
		if err != nil {
			return nil, err
		}
		if err := r.add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// add checks the pipeline's shader against its schemas and stores it.
func (r *Registry) add(p Pipeline) error {
	if err := CheckPipeline(p); err != nil {
		return err
	}
	if r.validate {
		if err := p.Shader().Validate(); err != nil {
			return fmt.Errorf("failed to validate pipeline %s: %w", p.ID(), err)
		}
	}
	r.order = append(r.order, p.ID())
	r.pipelines[p.ID()] = p
	return nil
}

// CheckPipeline verifies that every group the shader uses has a schema and that each schema
// agrees with the shader's declarations.
//
// Parameters:
//   - p: the pipeline to check
//
// Returns:
//   - error: an error wrapping common.ErrPipelineLayoutMismatch, or nil
func CheckPipeline(p Pipeline) error {
	sh := p.Shader()
	for _, d := range sh.Declarations() {
		if int(d.Group) >= len(p.Groups()) {
			return fmt.Errorf("%w: pipeline %s has no schema for group %d (%s)",
				common.ErrPipelineLayoutMismatch, p.ID(), d.Group, d.Name)
		}
	}
	for i, schema := range p.Groups() {
		if err := schema.CheckShader(sh, uint32(i)); err != nil {
			return fmt.Errorf("failed to check pipeline %s: %w", p.ID(), err)
		}
	}
	return nil
}

// Build creates the bind group layouts and render pipeline of every registered pipeline.
// Calling Build again after success is a no-op.
//
// Parameters:
//   - f: the GPU object factory
//
// Returns:
//   - error: the first creation error
func (r *Registry) Build(f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.built {
		return nil
	}
	for _, id := range r.order {
		p := r.pipelines[id]
		layouts := make([]any, 0, len(p.Groups()))
		for g, schema := range p.Groups() {
			layout, err := f.CreateBindGroupLayout(schema)
			if err != nil {
				return fmt.Errorf("failed to create bind group layout %d for %s: %w", g, id, err)
			}
			layouts = append(layouts, layout)
		}
		created, err := f.CreateRenderPipeline(p, layouts)
		if err != nil {
			return fmt.Errorf("failed to create render pipeline %s: %w", id, err)
		}
		p.SetRenderPipeline(created, layouts)
	}
	r.built = true
	return nil
}

// IDs returns the registered pipeline IDs in creation order.
func (r *Registry) IDs() []ID {
	return append([]ID(nil), r.order...)
}

// Descriptor returns a registered pipeline.
//
// Parameters:
//   - id: the pipeline ID
//
// Returns:
//   - Pipeline: the pipeline
//   - bool: false if no pipeline has this ID
func (r *Registry) Descriptor(id ID) (Pipeline, bool) {
	p, ok := r.pipelines[id]
	return p, ok
}

// Schema returns one bind group schema of a pipeline.
//
// Parameters:
//   - id: the pipeline ID
//   - group: the bind group index
//
// Returns:
//   - *BindGroupSchema: the schema, nil if the pipeline or group does not exist
func (r *Registry) Schema(id ID, group uint32) *BindGroupSchema {
	p, ok := r.pipelines[id]
	if !ok {
		return nil
	}
	return p.Group(group)
}

func newShader(id ID, body string, definitions ...string) (shader.Shader, error) {
	sh, err := shader.NewShader(string(id), body, definitions...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shader %s: %w", id, err)
	}
	return sh, nil
}

func cameraSchema(label string, visibility wgpu.ShaderStage) *BindGroupSchema {
	var uniform camera.GPUCameraUniform
	return &BindGroupSchema{
		Label: label,
		Entries: []BindingSpec{
			{Binding: 0, Kind: shader.ResourceUniformBuffer, Visibility: visibility, MinSize: uint64(uniform.Size())},
		},
	}
}

// texturePair is a texture at binding and its sampler at binding+1.
func texturePair(binding uint32, dim wgpu.TextureViewDimension, filterable bool) []BindingSpec {
	return []BindingSpec{
		{Binding: binding, Kind: shader.ResourceTexture, Visibility: wgpu.ShaderStageFragment, ViewDimension: dim, Filterable: filterable},
		{Binding: binding + 1, Kind: shader.ResourceSampler, Visibility: wgpu.ShaderStageFragment, Filterable: filterable},
	}
}

func (r *Registry) geometry() (Pipeline, error) {
	sh, err := newShader(Geometry, geometrySource, camera.GPUCameraUniformSource, instancedInputSource)
	if err != nil {
		return nil, err
	}
	return NewPipeline(Geometry, sh,
		WithVertexLayouts(model.VertexLayout(), instance.VertexLayout()),
		WithColorTargets(
			ColorTarget{Format: r.surfaceFormat},
			ColorTarget{Format: PositionFormat},
			ColorTarget{Format: NormalFormat},
		),
		WithDepth(DepthFormat, wgpu.CompareFunctionLess, true),
		WithCullMode(wgpu.CullModeBack),
		WithBindGroups(
			&BindGroupSchema{Label: "diffuse", Entries: texturePair(0, wgpu.TextureViewDimension2D, true)},
			cameraSchema("geometry camera", wgpu.ShaderStageVertex),
		),
	), nil
}

func (r *Registry) depthFirst() (Pipeline, error) {
	sh, err := newShader(DepthFirst, depthFirstSource, camera.GPUCameraUniformSource, instancedInputSource)
	if err != nil {
		return nil, err
	}
	return NewPipeline(DepthFirst, sh,
		WithVertexLayouts(model.VertexLayout(), instance.VertexLayout()),
		WithColorTargets(ColorTarget{Format: PeelFormat, Blend: MinBlend()}),
		WithBindGroups(cameraSchema("depth_first camera", wgpu.ShaderStageVertex)),
	), nil
}

func (r *Registry) peel() (Pipeline, error) {
	sh, err := newShader(Peel, peelSource, camera.GPUCameraUniformSource, instancedInputSource)
	if err != nil {
		return nil, err
	}
	return NewPipeline(Peel, sh,
		WithVertexLayouts(model.VertexLayout(), instance.VertexLayout()),
		WithColorTargets(ColorTarget{Format: PeelFormat, Blend: MinBlend()}),
		WithBindGroups(
			cameraSchema("peel camera", wgpu.ShaderStageVertex),
			&BindGroupSchema{Label: "first_depth", Entries: texturePair(0, wgpu.TextureViewDimension2D, false)},
		),
	), nil
}

func (r *Registry) composite() (Pipeline, error) {
	sh, err := newShader(Composite, compositeSource, camera.GPUCameraUniformSource, light.GPULightSource, fullscreenVertexSource)
	if err != nil {
		return nil, err
	}

	var gbuffer []BindingSpec
	for i := uint32(0); i < 5; i++ {
		gbuffer = append(gbuffer, texturePair(i*2, wgpu.TextureViewDimension2D, false)...)
	}
	gbuffer = append(gbuffer, texturePair(10, wgpu.TextureViewDimensionCube, true)...)

	var gpuLight light.GPULight
	return NewPipeline(Composite, sh,
		WithVertexLayouts(model.ScreenVertexLayout()),
		WithColorTargets(ColorTarget{Format: r.surfaceFormat}),
		WithBindGroups(
			&BindGroupSchema{Label: "composite textures", Entries: gbuffer},
			cameraSchema("composite camera", wgpu.ShaderStageFragment),
			&BindGroupSchema{Label: "utils", Entries: []BindingSpec{
				{Binding: 0, Kind: shader.ResourceUniformBuffer, Visibility: wgpu.ShaderStageFragment, MinSize: 4},
			}},
			&BindGroupSchema{Label: "lights", Entries: []BindingSpec{
				{Binding: 0, Kind: shader.ResourceReadOnlyStorageBuffer, Visibility: wgpu.ShaderStageFragment, MinSize: uint64(gpuLight.Size())},
			}},
		),
	), nil
}

func (r *Registry) skybox(id ID, body string, dim wgpu.TextureViewDimension) (Pipeline, error) {
	sh, err := newShader(id, body, fullscreenVertexSource, cubeFaceSource)
	if err != nil {
		return nil, err
	}
	entries := texturePair(0, dim, true)
	entries = append(entries, BindingSpec{Binding: 2, Kind: shader.ResourceUniformBuffer, Visibility: wgpu.ShaderStageFragment, MinSize: 4})
	return NewPipeline(id, sh,
		WithVertexLayouts(model.ScreenVertexLayout()),
		WithColorTargets(ColorTarget{Format: r.surfaceFormat}),
		WithBindGroups(&BindGroupSchema{Label: string(id) + " panorama", Entries: entries}),
	), nil
}
