package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSurfaceFormat = wgpu.TextureFormatBGRA8UnormSrgb

type fakeFactory struct {
	layouts   []*BindGroupSchema
	pipelines []ID
	failOn    ID
}

func (f *fakeFactory) CreateBindGroupLayout(schema *BindGroupSchema) (any, error) {
	f.layouts = append(f.layouts, schema)
	return schema.Label, nil
}

func (f *fakeFactory) CreateRenderPipeline(p Pipeline, layouts []any) (any, error) {
	if p.ID() == f.failOn {
		return nil, errors.New("boom")
	}
	if len(layouts) != len(p.Groups()) {
		return nil, errors.New("layout count mismatch")
	}
	f.pipelines = append(f.pipelines, p.ID())
	return "pipeline:" + string(p.ID()), nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(testSurfaceFormat)
	require.NoError(t, err)
	return r
}

func TestNewRegistryPipelines(t *testing.T) {
	r := newTestRegistry(t)
	assert.Equal(t, []ID{Geometry, DepthFirst, Peel, Composite, Skybox, SkyboxEquirect}, r.IDs())

	_, ok := r.Descriptor("missing")
	assert.False(t, ok)
	assert.Nil(t, r.Schema("missing", 0))
	assert.Nil(t, r.Schema(Geometry, 7))
}

func TestGeometryDescriptor(t *testing.T) {
	r := newTestRegistry(t)
	p, ok := r.Descriptor(Geometry)
	require.True(t, ok)

	require.Len(t, p.Targets(), 3)
	assert.Equal(t, testSurfaceFormat, p.Targets()[0].Format)
	assert.Equal(t, PositionFormat, p.Targets()[1].Format)
	assert.Equal(t, NormalFormat, p.Targets()[2].Format)
	for _, target := range p.Targets() {
		assert.Nil(t, target.Blend)
	}

	require.NotNil(t, p.Depth())
	assert.Equal(t, DepthFormat, p.Depth().Format)
	assert.Equal(t, wgpu.CompareFunctionLess, p.Depth().Compare)
	assert.True(t, p.Depth().Write)
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Len(t, p.VertexLayouts(), 2)
	assert.Len(t, p.Groups(), 2)
}

func TestPeelPipelinesUseMinBlend(t *testing.T) {
	r := newTestRegistry(t)
	for _, id := range []ID{DepthFirst, Peel} {
		t.Run(string(id), func(t *testing.T) {
			p, ok := r.Descriptor(id)
			require.True(t, ok)
			assert.Nil(t, p.Depth())
			assert.Equal(t, wgpu.CullModeNone, p.CullMode())
			require.Len(t, p.Targets(), 1)
			assert.Equal(t, PeelFormat, p.Targets()[0].Format)
			require.NotNil(t, p.Targets()[0].Blend)
			assert.Equal(t, wgpu.BlendOperationMin, p.Targets()[0].Blend.Color.Operation)
			assert.Equal(t, wgpu.BlendOperationMin, p.Targets()[0].Blend.Alpha.Operation)
		})
	}

	peel, _ := r.Descriptor(Peel)
	first := peel.Group(1)
	require.NotNil(t, first)
	want, ok := first.Entry(0)
	require.True(t, ok)
	assert.False(t, want.Filterable)
}

func TestPeelShadersCompareHalfPrecisionDepth(t *testing.T) {
	const quantize = "unpack2x16float(pack2x16float(vec2<f32>(z, 0.0))).x"
	for name, src := range map[string]string{"depth_first": depthFirstSource, "peel": peelSource} {
		assert.Contains(t, src, quantize, name)
		assert.Contains(t, src, "let z = to_half(in.clip_position.z);", name)
	}
	assert.Contains(t, peelSource, "if z <= first {")
}

func TestCompositeSchemas(t *testing.T) {
	r := newTestRegistry(t)

	textures := r.Schema(Composite, 0)
	require.NotNil(t, textures)
	require.Len(t, textures.Entries, 12)
	for i, e := range textures.Entries[:10] {
		assert.False(t, e.Filterable, "binding %d", i)
		assert.Equal(t, uint32(i), e.Binding)
	}
	assert.Equal(t, wgpu.TextureViewDimensionCube, textures.Entries[10].ViewDimension)
	assert.True(t, textures.Entries[10].Filterable)
	assert.True(t, textures.Entries[11].Filterable)

	assert.Equal(t, uint64(144), r.Schema(Composite, 1).Entries[0].MinSize)
	assert.Equal(t, shader.ResourceUniformBuffer, r.Schema(Composite, 2).Entries[0].Kind)

	lights := r.Schema(Composite, 3)
	require.NotNil(t, lights)
	assert.Equal(t, shader.ResourceReadOnlyStorageBuffer, lights.Entries[0].Kind)
	assert.Equal(t, uint64(48), lights.Entries[0].MinSize)
}

func TestLayoutDescriptor(t *testing.T) {
	r := newTestRegistry(t)
	desc := r.Schema(Composite, 0).LayoutDescriptor()
	require.Len(t, desc.Entries, 12)
	assert.Equal(t, wgpu.TextureSampleTypeUnfilterableFloat, desc.Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeNonFiltering, desc.Entries[1].Sampler.Type)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, desc.Entries[10].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, desc.Entries[11].Sampler.Type)

	lights := r.Schema(Composite, 3).LayoutDescriptor()
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, lights.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(48), lights.Entries[0].Buffer.MinBindingSize)
}

func skyboxResources(dim wgpu.TextureViewDimension) []Resource {
	return []Resource{
		{Binding: 0, Kind: shader.ResourceTexture, ViewDimension: dim, Filterable: true},
		{Binding: 1, Kind: shader.ResourceSampler, Filterable: true},
		{Binding: 2, Kind: shader.ResourceUniformBuffer, Size: FaceUniformSize},
	}
}

func TestCheckResources(t *testing.T) {
	r := newTestRegistry(t)
	cube := r.Schema(Skybox, 0)
	flat := r.Schema(SkyboxEquirect, 0)

	tests := []struct {
		name      string
		schema    *BindGroupSchema
		resources []Resource
		wantErr   bool
	}{
		{name: "cube source on cube schema", schema: cube, resources: skyboxResources(wgpu.TextureViewDimensionCube)},
		{name: "flat source on flat schema", schema: flat, resources: skyboxResources(wgpu.TextureViewDimension2D)},
		{name: "flat source on cube schema", schema: cube, resources: skyboxResources(wgpu.TextureViewDimension2D), wantErr: true},
		{name: "missing binding", schema: cube, resources: skyboxResources(wgpu.TextureViewDimensionCube)[:2], wantErr: true},
		{
			name:   "buffer too small",
			schema: cube,
			resources: append(skyboxResources(wgpu.TextureViewDimensionCube)[:2],
				Resource{Binding: 2, Kind: shader.ResourceUniformBuffer, Size: 2}),
			wantErr: true,
		},
		{
			name:   "wrong kind",
			schema: cube,
			resources: append(skyboxResources(wgpu.TextureViewDimensionCube)[:2],
				Resource{Binding: 2, Kind: shader.ResourceSampler}),
			wantErr: true,
		},
		{
			name:   "unknown binding",
			schema: cube,
			resources: append(skyboxResources(wgpu.TextureViewDimensionCube),
				Resource{Binding: 9, Kind: shader.ResourceSampler}),
			wantErr: true,
		},
		{
			name:   "filtering sampler in non-filtering slot",
			schema: r.Schema(Peel, 1),
			resources: []Resource{
				{Binding: 0, Kind: shader.ResourceTexture, ViewDimension: wgpu.TextureViewDimension2D, Filterable: true},
				{Binding: 1, Kind: shader.ResourceSampler, Filterable: true},
			},
			wantErr: true,
		},
		{
			name:   "unfilterable texture in filterable slot",
			schema: r.Schema(Geometry, 0),
			resources: []Resource{
				{Binding: 0, Kind: shader.ResourceTexture, ViewDimension: wgpu.TextureViewDimension2D},
				{Binding: 1, Kind: shader.ResourceSampler, Filterable: true},
			},
			wantErr: true,
		},
		{
			name:   "filterable texture in unfilterable slot",
			schema: r.Schema(Peel, 1),
			resources: []Resource{
				{Binding: 0, Kind: shader.ResourceTexture, ViewDimension: wgpu.TextureViewDimension2D, Filterable: true},
				{Binding: 1, Kind: shader.ResourceSampler},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Check(tt.resources)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrPipelineLayoutMismatch)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckShaderMismatch(t *testing.T) {
	sh, err := shader.NewShader("flat_sky", skyboxEquirectSource, fullscreenVertexSource, cubeFaceSource)
	require.NoError(t, err)

	r := newTestRegistry(t)
	err = r.Schema(Skybox, 0).CheckShader(sh, 0)
	assert.ErrorIs(t, err, common.ErrPipelineLayoutMismatch)
	assert.NoError(t, r.Schema(SkyboxEquirect, 0).CheckShader(sh, 0))

	p := NewPipeline("stray", sh, WithBindGroups())
	assert.ErrorIs(t, CheckPipeline(p), common.ErrPipelineLayoutMismatch)
}

func TestBuild(t *testing.T) {
	r := newTestRegistry(t)
	f := &fakeFactory{}
	require.NoError(t, r.Build(f))

	assert.Equal(t, r.IDs(), f.pipelines)
	composite, _ := r.Descriptor(Composite)
	assert.Equal(t, "pipeline:composite", composite.RenderPipeline())
	assert.Equal(t, "lights", composite.BindGroupLayout(3))
	assert.Nil(t, composite.BindGroupLayout(4))

	// a second Build creates nothing new
	require.NoError(t, r.Build(f))
	assert.Len(t, f.pipelines, len(r.IDs()))
}

func TestBuildError(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Build(&fakeFactory{failOn: Peel})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "peel")
}

func TestShaderValidation(t *testing.T) {
	_, err := NewRegistry(testSurfaceFormat, WithShaderValidation(true))
	if err != nil {
		require.NotErrorIs(t, err, common.ErrPipelineLayoutMismatch)
		msg := err.Error()
		if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") || strings.Contains(msg, "lowering error") {
			t.Skipf("naga cannot lower this module yet: %v", err)
		}
		t.Skipf("naga rejected a module: %v", err)
	}
}
