package renderer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/Carmen-Shannon/oxy-peel/engine/camera"
	"github.com/Carmen-Shannon/oxy-peel/engine/instance"
	"github.com/Carmen-Shannon/oxy-peel/engine/light"
	"github.com/Carmen-Shannon/oxy-peel/engine/loader"
	"github.com/Carmen-Shannon/oxy-peel/engine/model"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/target"
	"github.com/cogentcore/webgpu/wgpu"
)

// binding ties a provider to the pipeline layout it is built against.
type binding struct {
	provider bind_group_provider.BindGroupProvider
	pipeline pipeline.ID
	group    uint32
}

// rendererImpl is the implementation of the Renderer interface.
type rendererImpl struct {
	mu *sync.Mutex

	backend  Backend
	camera   camera.Camera
	lights   []light.Light
	registry *pipeline.Registry
	targets  *target.Manager
	plan     []PassDescriptor

	// options
	panorama         *common.TextureStagingData
	diffuse          *common.TextureStagingData
	mesh             model.Mesh
	instances        []instance.Instance
	skyboxSize       uint32
	validateShaders  bool
	background       wgpu.Color
	skyboxPipelineID pipeline.ID

	quad       model.Mesh
	meshVertex *Buffer
	meshIndex  *Buffer
	instanceVB *Buffer
	quadVertex *Buffer
	quadIndex  *Buffer
	cameraBuf  *Buffer
	utilsBuf   *Buffer
	lightsBuf  *Buffer
	faceBuf    *Buffer

	bindings     map[string]*binding
	bindingOrder []string

	frameCount uint32
}

// Renderer records the depth peeling frame against a Backend. It owns the render targets,
// pipelines, bind groups and per-frame buffers.
//
// Usage pattern:
//  1. NewRenderer allocates every resource and renders the skybox cube once
//  2. Each tick the engine calls Update(dt) then Render()
//  3. Resize events go through Resize(w, h) between frames
type Renderer interface {
	// Render records and submits one frame: geometry, depth_first, peel and composite passes, then
	// a copy of the surface image into the last-frame target. The frame is presented on success.
	//
	// Returns:
	//   - error: the surface acquisition error (wrapping one of the common.ErrSurface sentinels) or a recording error
	Render() error

	// Update advances the camera controller by dt seconds and uploads the camera and light uniforms.
	//
	// Parameters:
	//   - dt: elapsed time in seconds since the last update
	Update(dt float32)

	// Resize reconfigures the surface, reallocates the surface-sized targets, updates the camera
	// aspect and rebuilds every bind group that reads a reallocated target. Zero width or height is a no-op.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: the first reconfiguration, allocation or bind group error
	Resize(width, height uint32) error

	// FramePlan returns the ordered pass descriptors recorded each frame.
	//
	// Returns:
	//   - []PassDescriptor: a copy of the pass plan
	FramePlan() []PassDescriptor

	// FrameCount returns the frame counter value last uploaded to the utils uniform.
	//
	// Returns:
	//   - uint32: the number of presented frames
	FrameCount() uint32

	// Targets returns the render target registry.
	//
	// Returns:
	//   - *target.Manager: the targets
	Targets() *target.Manager

	// Registry returns the pipeline registry.
	//
	// Returns:
	//   - *pipeline.Registry: the built pipelines
	Registry() *pipeline.Registry

	// Camera returns the camera the renderer uploads each update.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Release destroys every bind group, buffer and target.
	Release()
}

var _ Renderer = &rendererImpl{}

// NewRenderer creates the frame orchestrator. It allocates the frame's targets, uploads the
// panorama and diffuse images, builds the pipelines and bind groups, creates the mesh, instance,
// quad and uniform buffers, and renders the skybox cube from the panorama.
//
// Parameters:
//   - backend: the GPU backend, usually a *Context
//   - cam: the camera uploaded each update
//   - lights: the ordered light list, uploaded in this order
//   - opts: a variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
//   - error: an error wrapping common.ErrPipelineLayoutMismatch or common.ErrImageDecodeFailed, or a backend error
func NewRenderer(backend Backend, cam camera.Camera, lights []light.Light, opts ...RendererBuilderOption) (Renderer, error) {
	r := &rendererImpl{
		mu:         &sync.Mutex{},
		backend:    backend,
		camera:     cam,
		lights:     lights,
		skyboxSize: 2048,
		background: DefaultBackground,
		bindings:   make(map[string]*binding),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.mesh == nil {
		r.mesh = model.NewCube(1)
	}
	if r.instances == nil {
		r.instances = instance.Grid(10, 10, 3)
	}
	if r.panorama == nil {
		r.panorama = loader.SkyCross(512)
	}
	if r.diffuse == nil {
		r.diffuse = loader.Checkerboard(256, 8)
	}
	r.quad = model.NewScreenQuad()
	r.plan = framePlan(r.background)
	r.targets = target.NewManager(backend)

	width, height := backend.SurfaceSize()
	if width > 0 && height > 0 {
		cam.SetAspect(float32(width) / float32(height))
	}
	cam.Update()

	steps := []func() error{
		func() error { return r.createTargets(width, height) },
		r.createRegistry,
		r.createBuffers,
		r.createBindings,
		r.renderSkybox,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			r.Release()
			return nil, err
		}
	}
	log.Printf("[Renderer] ready: %d instances, %d lights, %d targets", len(r.instances), len(r.lights), len(r.targets.Names()))
	return r, nil
}

func (r *rendererImpl) createTargets(width, height uint32) error {
	format := r.backend.SurfaceFormat()
	attachment := wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding

	colors := []struct {
		name   string
		format wgpu.TextureFormat
		usage  wgpu.TextureUsage
	}{
		{TargetAlbedo, format, attachment},
		{TargetPosition, pipeline.PositionFormat, attachment},
		{TargetNormal, pipeline.NormalFormat, attachment},
		{TargetFirstDepth, pipeline.PeelFormat, attachment},
		{TargetPeelDepth, pipeline.PeelFormat, attachment},
		{TargetLastFrame, format, wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst},
	}
	for _, c := range colors {
		if _, err := r.targets.CreateColorTarget(c.name, width, height, c.format, c.usage, target.SamplingNearest, true); err != nil {
			return err
		}
	}
	if _, err := r.targets.CreateDepthTarget(TargetDepth, width, height); err != nil {
		return err
	}
	if _, err := r.targets.CreateCubemapTarget(TargetSkybox, r.skyboxSize, r.skyboxSize, format, attachment); err != nil {
		return err
	}

	panorama, err := r.targets.LoadDecoded(TargetPanorama, r.panorama)
	if err != nil {
		return fmt.Errorf("failed to load panorama: %w", err)
	}
	r.skyboxPipelineID = pipeline.Skybox
	if panorama.ViewDimension != wgpu.TextureViewDimensionCube {
		r.skyboxPipelineID = pipeline.SkyboxEquirect
	}
	if _, err := r.targets.LoadDecoded(TargetDiffuse, r.diffuse); err != nil {
		return fmt.Errorf("failed to load diffuse texture: %w", err)
	}
	return nil
}

func (r *rendererImpl) createRegistry() error {
	registry, err := pipeline.NewRegistry(r.backend.SurfaceFormat(), pipeline.WithShaderValidation(r.validateShaders))
	if err != nil {
		return fmt.Errorf("failed to create pipeline registry: %w", err)
	}
	if err := registry.Build(r.backend); err != nil {
		return fmt.Errorf("failed to build pipelines: %w", err)
	}
	r.registry = registry
	return nil
}

func (r *rendererImpl) createBuffers() error {
	uniform := r.camera.Uniform()
	specs := []struct {
		dst      **Buffer
		label    string
		usage    wgpu.BufferUsage
		contents []byte
		size     uint64
	}{
		{&r.meshVertex, r.mesh.Name() + " Vertex Buffer", wgpu.BufferUsageVertex, r.mesh.VertexData(), 0},
		{&r.meshIndex, r.mesh.Name() + " Index Buffer", wgpu.BufferUsageIndex, r.mesh.IndexData(), 0},
		{&r.instanceVB, "Instance Buffer", wgpu.BufferUsageVertex, instance.MarshalInstances(r.instances), instance.InstanceRawSize},
		{&r.quadVertex, "Screen Quad Vertex Buffer", wgpu.BufferUsageVertex, r.quad.VertexData(), 0},
		{&r.quadIndex, "Screen Quad Index Buffer", wgpu.BufferUsageIndex, r.quad.IndexData(), 0},
		{&r.cameraBuf, "Camera Buffer", wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst, uniform.Marshal(), 0},
		{&r.utilsBuf, "Utils Buffer", wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst, encodeScalar(0), 0},
		{&r.lightsBuf, "Lights Buffer", wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst, light.MarshalLights(r.lights), 0},
		{&r.faceBuf, "Skybox Face Buffer", wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst, nil, pipeline.FaceUniformSize},
	}
	for _, s := range specs {
		buf, err := r.backend.CreateBuffer(s.label, s.usage, s.contents, s.size)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", s.label, err)
		}
		*s.dst = buf
	}
	return nil
}

func (r *rendererImpl) createBindings() error {
	uniform := func(buf *Buffer) bind_group_provider.BindGroupProviderOption {
		return bind_group_provider.WithBuffer(0, shader.ResourceUniformBuffer, buf, buf.Size)
	}

	r.addBinding(BindDiffuse, pipeline.Geometry, 0, bind_group_provider.WithTexturePair(0, TargetDiffuse))
	r.addBinding(BindGeometryCamera, pipeline.Geometry, 1, uniform(r.cameraBuf))
	r.addBinding(BindDepthFirstCamera, pipeline.DepthFirst, 0, uniform(r.cameraBuf))
	r.addBinding(BindPeelCamera, pipeline.Peel, 0, uniform(r.cameraBuf))
	r.addBinding(BindFirstDepth, pipeline.Peel, 1, bind_group_provider.WithTexturePair(0, TargetFirstDepth))
	r.addBinding(BindCompositeTextures, pipeline.Composite, 0,
		bind_group_provider.WithTexturePair(0, TargetAlbedo),
		bind_group_provider.WithTexturePair(2, TargetPeelDepth),
		bind_group_provider.WithTexturePair(4, TargetPosition),
		bind_group_provider.WithTexturePair(6, TargetNormal),
		bind_group_provider.WithTexturePair(8, TargetLastFrame),
		bind_group_provider.WithTexturePair(10, TargetSkybox),
	)
	r.addBinding(BindCompositeCamera, pipeline.Composite, 1, uniform(r.cameraBuf))
	r.addBinding(BindUtils, pipeline.Composite, 2, uniform(r.utilsBuf))
	r.addBinding(BindLights, pipeline.Composite, 3,
		bind_group_provider.WithBuffer(0, shader.ResourceReadOnlyStorageBuffer, r.lightsBuf, r.lightsBuf.Size))
	r.addBinding(BindSkyboxSource, r.skyboxPipelineID, 0,
		bind_group_provider.WithTexturePair(0, TargetPanorama),
		bind_group_provider.WithBuffer(2, shader.ResourceUniformBuffer, r.faceBuf, r.faceBuf.Size))

	for _, name := range r.bindingOrder {
		if err := r.buildBinding(r.bindings[name]); err != nil {
			return err
		}
	}
	return nil
}

func (r *rendererImpl) addBinding(name string, id pipeline.ID, group uint32, opts ...bind_group_provider.BindGroupProviderOption) {
	schema := r.registry.Schema(id, group)
	r.bindings[name] = &binding{
		provider: bind_group_provider.NewBindGroupProvider(name, schema, opts...),
		pipeline: id,
		group:    group,
	}
	r.bindingOrder = append(r.bindingOrder, name)
}

func (r *rendererImpl) buildBinding(b *binding) error {
	p, ok := r.registry.Descriptor(b.pipeline)
	if !ok {
		return fmt.Errorf("%w: bind group %s names unknown pipeline %s",
			common.ErrPipelineLayoutMismatch, b.provider.Label(), b.pipeline)
	}
	if b.provider.Schema() == nil {
		return fmt.Errorf("%w: pipeline %s has no group %d for %s",
			common.ErrPipelineLayoutMismatch, b.pipeline, b.group, b.provider.Label())
	}
	return b.provider.Build(r.backend, p.BindGroupLayout(b.group), r.targets)
}

// renderSkybox draws the panorama into each face of the skybox cube. Every face is its own
// submission so the face uniform written before it is the one the pass reads.
func (r *rendererImpl) renderSkybox() error {
	sky, ok := r.targets.Get(TargetSkybox)
	if !ok {
		return fmt.Errorf("render target %s does not exist", TargetSkybox)
	}
	p, _ := r.registry.Descriptor(r.skyboxPipelineID)
	source := r.bindings[BindSkyboxSource].provider

	for face := uint32(0); face < target.CubeFaceCount; face++ {
		r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
			{Buffer: r.faceBuf, Data: encodeUint(face)},
		})
		enc, err := r.backend.BeginEncoder(fmt.Sprintf("Skybox Face %d Encoder", face))
		if err != nil {
			return fmt.Errorf("failed to begin skybox face %d: %w", face, err)
		}
		pass, err := enc.BeginRenderPass(&RenderPassDesc{
			Label:  fmt.Sprintf("skybox face %d", face),
			Colors: []ColorAttachment{{View: sky.LayerView(face), Clear: wgpu.Color{A: 1}}},
		})
		if err != nil {
			return fmt.Errorf("failed to begin skybox face %d: %w", face, err)
		}
		pass.SetPipeline(p.RenderPipeline())
		pass.SetBindGroup(0, source.BindGroup())
		r.drawScreenQuad(pass)
		if err := pass.End(); err != nil {
			return fmt.Errorf("failed to end skybox face %d: %w", face, err)
		}
		if err := r.backend.Submit(enc); err != nil {
			return fmt.Errorf("failed to submit skybox face %d: %w", face, err)
		}
	}
	log.Printf("[Renderer] baked skybox %dx%d using %s", sky.Width, sky.Height, r.skyboxPipelineID)
	return nil
}

func (r *rendererImpl) Render() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	frame, err := r.backend.AcquireFrame()
	if err != nil {
		return err
	}

	if err := r.recordFrame(frame); err != nil {
		r.backend.DiscardFrame(frame)
		return err
	}
	r.backend.Present(frame)

	r.frameCount++
	r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
		{Buffer: r.utilsBuf, Data: encodeScalar(float32(r.frameCount))},
	})
	return nil
}

func (r *rendererImpl) recordFrame(frame *SurfaceFrame) error {
	enc, err := r.backend.BeginEncoder("Frame Encoder")
	if err != nil {
		return fmt.Errorf("failed to create frame encoder: %w", err)
	}
	for _, pass := range r.plan {
		if err := r.recordPass(enc, frame, pass); err != nil {
			return fmt.Errorf("failed to record %s pass: %w", pass.Name, err)
		}
	}

	last, ok := r.targets.Get(TargetLastFrame)
	if !ok {
		return fmt.Errorf("render target %s does not exist", TargetLastFrame)
	}
	width, height := min(frame.Width, last.Width), min(frame.Height, last.Height)
	if err := enc.CopyTextureToTexture(frame.Texture, last.Texture(), width, height); err != nil {
		return fmt.Errorf("failed to copy frame into %s: %w", TargetLastFrame, err)
	}
	return r.backend.Submit(enc)
}

func (r *rendererImpl) recordPass(enc CommandEncoder, frame *SurfaceFrame, pass PassDescriptor) error {
	desc := &RenderPassDesc{Label: pass.Name}
	for _, c := range pass.Colors {
		view, err := r.attachmentView(frame, c.Target)
		if err != nil {
			return err
		}
		desc.Colors = append(desc.Colors, ColorAttachment{View: view, Clear: c.Clear})
	}
	if pass.Depth != nil {
		view, err := r.attachmentView(frame, pass.Depth.Target)
		if err != nil {
			return err
		}
		desc.Depth = &DepthAttachment{View: view, Clear: pass.Depth.Clear}
	}

	p, ok := r.registry.Descriptor(pass.Pipeline)
	if !ok {
		return fmt.Errorf("pipeline %s does not exist", pass.Pipeline)
	}
	groups := make([]any, 0, len(pass.BindGroups))
	for _, name := range pass.BindGroups {
		b, ok := r.bindings[name]
		if !ok || b.provider.BindGroup() == nil {
			return fmt.Errorf("bind group %s is not built", name)
		}
		groups = append(groups, b.provider.BindGroup())
	}

	rp, err := enc.BeginRenderPass(desc)
	if err != nil {
		return err
	}
	rp.SetPipeline(p.RenderPipeline())
	for i, g := range groups {
		rp.SetBindGroup(uint32(i), g)
	}
	switch pass.Draw {
	case DrawInstances:
		rp.SetVertexBuffer(0, r.meshVertex)
		rp.SetVertexBuffer(1, r.instanceVB)
		rp.SetIndexBuffer(r.meshIndex, r.mesh.IndexFormat())
		rp.DrawIndexed(r.mesh.IndexCount(), uint32(len(r.instances)))
	case DrawScreenQuad:
		r.drawScreenQuad(rp)
	}
	return rp.End()
}

func (r *rendererImpl) drawScreenQuad(rp RenderPass) {
	rp.SetVertexBuffer(0, r.quadVertex)
	rp.SetIndexBuffer(r.quadIndex, r.quad.IndexFormat())
	rp.DrawIndexed(r.quad.IndexCount(), 1)
}

func (r *rendererImpl) attachmentView(frame *SurfaceFrame, name string) (any, error) {
	if name == SurfaceTarget {
		return frame.View, nil
	}
	rt, ok := r.targets.Get(name)
	if !ok {
		return nil, fmt.Errorf("render target %s does not exist", name)
	}
	return rt.View(), nil
}

func (r *rendererImpl) Update(dt float32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ctrl := r.camera.Controller(); ctrl != nil {
		ctrl.Update(dt)
	}
	r.camera.Update()
	uniform := r.camera.Uniform()

	r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
		{Buffer: r.cameraBuf, Data: uniform.Marshal()},
		{Buffer: r.lightsBuf, Data: light.MarshalLights(r.lights)},
		{Buffer: r.utilsBuf, Data: encodeScalar(float32(r.frameCount))},
	})
}

func (r *rendererImpl) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.backend.Resize(width, height); err != nil {
		return fmt.Errorf("failed to resize surface: %w", err)
	}
	resized, err := r.targets.ResizeTracked(width, height)
	if err != nil {
		return err
	}
	r.camera.SetAspect(float32(width) / float32(height))

	var errs []error
	for _, name := range r.bindingOrder {
		b := r.bindings[name]
		if !b.provider.References(resized...) {
			continue
		}
		if err := r.buildBinding(b); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to rebuild bind groups after resize: %w", err)
	}
	return nil
}

func (r *rendererImpl) FramePlan() []PassDescriptor {
	return append([]PassDescriptor(nil), r.plan...)
}

func (r *rendererImpl) FrameCount() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameCount
}

func (r *rendererImpl) Targets() *target.Manager {
	return r.targets
}

func (r *rendererImpl) Registry() *pipeline.Registry {
	return r.registry
}

func (r *rendererImpl) Camera() camera.Camera {
	return r.camera
}

func (r *rendererImpl) Release() {
	for _, name := range r.bindingOrder {
		r.bindings[name].provider.Release(r.backend)
	}
	for _, buf := range []*Buffer{
		r.meshVertex, r.meshIndex, r.instanceVB, r.quadVertex, r.quadIndex,
		r.cameraBuf, r.utilsBuf, r.lightsBuf, r.faceBuf,
	} {
		if buf != nil {
			r.backend.ReleaseBuffer(buf)
		}
	}
	if r.targets != nil {
		r.targets.Release()
	}
}

// encodeScalar packs a float into a 16 byte uniform.
func encodeScalar(v float32) []byte {
	return encodeUint(math.Float32bits(v))
}

// encodeUint packs a u32 into a 16 byte uniform.
func encodeUint(v uint32) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}
