package renderer_test

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/Carmen-Shannon/oxy-peel/engine/camera"
	"github.com/Carmen-Shannon/oxy-peel/engine/light"
	"github.com/Carmen-Shannon/oxy-peel/engine/loader"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/recorder"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/target"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const surfaceFormat = wgpu.TextureFormatBGRA8UnormSrgb

func newTestRenderer(t *testing.T, width, height uint32, opts ...renderer.RendererBuilderOption) (renderer.Renderer, *recorder.Backend) {
	t.Helper()
	rec := recorder.NewBackend(surfaceFormat, width, height)
	cam := camera.NewCamera(camera.WithController(camera.NewCameraController()))
	opts = append([]renderer.RendererBuilderOption{renderer.WithSkyboxSize(64)}, opts...)
	r, err := renderer.NewRenderer(rec, cam, []light.Light{light.NewDefaultLight()}, opts...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r, rec
}

func pipelineLabel(t *testing.T, h any) string {
	t.Helper()
	handle, ok := h.(*recorder.Handle)
	require.True(t, ok, "pipeline handle %T", h)
	return handle.Label
}

func TestFramePlanOrder(t *testing.T) {
	r, _ := newTestRenderer(t, 320, 240)
	plan := r.FramePlan()
	require.Len(t, plan, 4)

	wantNames := []string{"geometry", "depth_first", "peel", "composite"}
	wantPipelines := []pipeline.ID{pipeline.Geometry, pipeline.DepthFirst, pipeline.Peel, pipeline.Composite}
	for i, pass := range plan {
		assert.Equal(t, wantNames[i], pass.Name)
		assert.Equal(t, wantPipelines[i], pass.Pipeline)
	}

	assert.Equal(t, []string{renderer.TargetAlbedo, renderer.TargetPosition, renderer.TargetNormal, renderer.TargetDepth}, plan[0].Writes())
	assert.Equal(t, []string{renderer.TargetFirstDepth}, plan[1].Writes())
	assert.Contains(t, plan[2].Reads(), renderer.BindFirstDepth)
	assert.Equal(t, []string{renderer.SurfaceTarget}, plan[3].Writes())
	assert.Equal(t, renderer.DrawScreenQuad, plan[3].Draw)
}

func TestRenderSingleFrame(t *testing.T) {
	r, rec := newTestRenderer(t, 320, 240)
	rec.Reset()

	require.NoError(t, r.Render())

	assert.Equal(t, 1, rec.Count(recorder.OpAcquire))
	assert.Equal(t, 1, rec.Count(recorder.OpSubmit), "the frame is a single command buffer")
	assert.Equal(t, 1, rec.Count(recorder.OpPresent))
	assert.Equal(t, 1, rec.Count(recorder.OpCopy))

	var acquired any
	for _, c := range rec.Commands() {
		if c.Op == recorder.OpAcquire {
			acquired = c.Handle
		}
	}

	passes := rec.Passes()
	require.Len(t, passes, 4)
	for i, name := range []string{"geometry", "depth_first", "peel", "composite"} {
		assert.Equal(t, name, passes[i].Label)
		assert.Equal(t, name, pipelineLabel(t, passes[i].Pipeline))
	}

	geometry := passes[0]
	require.Len(t, geometry.Colors, 3)
	for _, c := range geometry.Colors {
		assert.Equal(t, wgpu.Color{}, c.Clear)
	}
	require.NotNil(t, geometry.Depth)
	assert.Equal(t, float32(1), geometry.Depth.Clear)
	require.Len(t, geometry.Draws, 1)
	assert.Equal(t, uint32(36), geometry.Draws[0].Count)
	assert.Equal(t, uint32(100), geometry.Draws[0].Instances)
	assert.Len(t, geometry.BindGroups, 2)

	for _, p := range passes[1:3] {
		require.Len(t, p.Colors, 1)
		assert.Equal(t, wgpu.Color{R: 1, G: 1, B: 1, A: 1}, p.Colors[0].Clear)
		assert.Nil(t, p.Depth)
		assert.Equal(t, uint32(100), p.Draws[0].Instances)
	}

	composite := passes[3]
	require.Len(t, composite.Colors, 1)
	assert.Same(t, acquired, composite.Colors[0].View, "composite renders into the acquired surface image")
	assert.Equal(t, renderer.DefaultBackground, composite.Colors[0].Clear)
	require.Len(t, composite.Draws, 1)
	assert.Equal(t, uint32(6), composite.Draws[0].Count)
	assert.Equal(t, uint32(1), composite.Draws[0].Instances)
	assert.Len(t, composite.BindGroups, 4)

	last, ok := r.Targets().Get(renderer.TargetLastFrame)
	require.True(t, ok)
	for _, c := range rec.Commands() {
		if c.Op == recorder.OpCopy {
			assert.Same(t, last.Texture(), c.Dst)
			assert.Equal(t, uint32(320), c.Width)
			assert.Equal(t, uint32(240), c.Height)
		}
	}

	// the copy follows the composite pass and precedes the submit and present
	var order []recorder.Op
	for _, c := range rec.Commands() {
		switch c.Op {
		case recorder.OpEndPass, recorder.OpCopy, recorder.OpSubmit, recorder.OpPresent:
			order = append(order, c.Op)
		}
	}
	assert.Equal(t, []recorder.Op{
		recorder.OpEndPass, recorder.OpEndPass, recorder.OpEndPass, recorder.OpEndPass,
		recorder.OpCopy, recorder.OpSubmit, recorder.OpPresent,
	}, order)
}

func TestBackgroundColorOption(t *testing.T) {
	bg := wgpu.Color{R: 1, G: 0, B: 1, A: 1}
	r, rec := newTestRenderer(t, 64, 64, renderer.WithBackgroundColor(bg))
	rec.Reset()
	require.NoError(t, r.Render())
	passes := rec.Passes()
	require.Len(t, passes, 4)
	assert.Equal(t, bg, passes[3].Colors[0].Clear)
}

func readScalar(t *testing.T, rec *recorder.Backend, label string) float32 {
	t.Helper()
	data, ok := rec.BufferData(label)
	require.True(t, ok, "buffer %s", label)
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}

func TestFrameCounter(t *testing.T) {
	r, rec := newTestRenderer(t, 64, 64)
	assert.Equal(t, uint32(0), r.FrameCount())
	assert.Equal(t, float32(0), readScalar(t, rec, "Utils Buffer"))

	const frames = 7
	for i := 0; i < frames; i++ {
		r.Update(1.0 / 60)
		require.NoError(t, r.Render())
	}
	assert.Equal(t, uint32(frames), r.FrameCount())
	assert.Equal(t, float32(frames), readScalar(t, rec, "Utils Buffer"))
}

func TestRenderAcquireFailure(t *testing.T) {
	r, rec := newTestRenderer(t, 64, 64)
	rec.Reset()
	rec.FailAcquire(fmt.Errorf("failed to acquire surface texture: %w", common.ErrSurfaceOutdated))

	err := r.Render()
	require.ErrorIs(t, err, common.ErrSurfaceOutdated)
	assert.True(t, common.IsRecoverableSurfaceError(err))
	assert.Zero(t, rec.Count(recorder.OpSubmit))
	assert.Zero(t, rec.Count(recorder.OpPresent))
	assert.Equal(t, uint32(0), r.FrameCount())

	require.NoError(t, r.Render())
	assert.Equal(t, uint32(1), r.FrameCount())
}

func TestUpdateUploadsCamera(t *testing.T) {
	cc := camera.NewCameraController()
	cam := camera.NewCamera(camera.WithController(cc))
	rec := recorder.NewBackend(surfaceFormat, 64, 64)
	r, err := renderer.NewRenderer(rec, cam, []light.Light{light.NewDefaultLight()}, renderer.WithSkyboxSize(16))
	require.NoError(t, err)
	defer r.Release()

	require.True(t, cc.ProcessKeyboard(common.KeyW, true))
	r.Update(0.5)

	uniform := cam.Uniform()
	data, ok := rec.BufferData("Camera Buffer")
	require.True(t, ok)
	assert.Equal(t, uniform.Marshal(), data)

	x, _, z := cc.Position()
	assert.NotEqual(t, [2]float32{0, 0}, [2]float32{x, z}, "holding forward moves the camera")

	lights, ok := rec.BufferData("Lights Buffer")
	require.True(t, ok)
	assert.Equal(t, light.MarshalLights([]light.Light{light.NewDefaultLight()}), lights)
}

func TestResize(t *testing.T) {
	r, rec := newTestRenderer(t, 800, 600)
	groupsBefore := len(rec.LiveBindGroups())
	texturesBefore := rec.LiveTextures()

	require.NoError(t, r.Resize(1024, 768))

	tracked := []string{
		renderer.TargetAlbedo, renderer.TargetPosition, renderer.TargetNormal, renderer.TargetDepth,
		renderer.TargetFirstDepth, renderer.TargetPeelDepth, renderer.TargetLastFrame,
	}
	for _, name := range tracked {
		rt, ok := r.Targets().Get(name)
		require.True(t, ok, name)
		assert.Equal(t, uint32(1024), rt.Width, name)
		assert.Equal(t, uint32(768), rt.Height, name)
	}
	sky, _ := r.Targets().Get(renderer.TargetSkybox)
	assert.Equal(t, uint32(64), sky.Width)
	assert.InDelta(t, 1024.0/768.0, r.Camera().Aspect(), 1e-6)

	assert.Equal(t, groupsBefore, len(rec.LiveBindGroups()), "rebuilt bind groups replace the old ones")
	assert.Equal(t, texturesBefore, rec.LiveTextures(), "resized targets release their old textures")

	// every live bind group only references live views
	albedo, _ := r.Targets().Get(renderer.TargetAlbedo)
	var found bool
	for _, g := range rec.LiveBindGroups() {
		for _, res := range g.Resources {
			if res.Handle == albedo.View() {
				found = true
			}
			if h, ok := res.Handle.(*recorder.Handle); ok && h.Desc != nil && h.Desc.Label == renderer.TargetAlbedo {
				assert.Same(t, albedo.View(), res.Handle, "bind group %s holds a stale albedo view", g.Label)
			}
		}
	}
	assert.True(t, found)

	rec.Reset()
	require.NoError(t, r.Render())
	for _, c := range rec.Commands() {
		if c.Op == recorder.OpCopy {
			assert.Equal(t, uint32(1024), c.Width)
			assert.Equal(t, uint32(768), c.Height)
		}
	}
}

func TestResizeZeroIsNoop(t *testing.T) {
	r, rec := newTestRenderer(t, 800, 600)
	before, _ := r.Targets().Get(renderer.TargetAlbedo)
	aspect := r.Camera().Aspect()
	rec.Reset()

	for _, size := range [][2]uint32{{0, 600}, {800, 0}, {0, 0}} {
		require.NoError(t, r.Resize(size[0], size[1]))
	}
	after, _ := r.Targets().Get(renderer.TargetAlbedo)
	assert.Same(t, before, after)
	assert.Equal(t, aspect, r.Camera().Aspect())
	assert.Zero(t, rec.Count(recorder.OpResize))
}

func TestSkyboxBake(t *testing.T) {
	rec := recorder.NewBackend(surfaceFormat, 64, 64)
	cam := camera.NewCamera(camera.WithController(camera.NewCameraController()))
	r, err := renderer.NewRenderer(rec, cam, nil, renderer.WithSkyboxSize(32))
	require.NoError(t, err)
	defer r.Release()

	sky, _ := r.Targets().Get(renderer.TargetSkybox)
	passes := rec.Passes()
	require.Len(t, passes, target.CubeFaceCount)
	for i, p := range passes {
		assert.Equal(t, fmt.Sprintf("skybox face %d", i), p.Label)
		assert.Equal(t, "skybox", pipelineLabel(t, p.Pipeline))
		require.Len(t, p.Colors, 1)
		assert.Same(t, sky.LayerView(uint32(i)), p.Colors[0].View)
	}

	// the face uniform holds the face index when each face is submitted
	face := uint32(math.MaxUint32)
	submits := 0
	for _, c := range rec.Commands() {
		switch {
		case c.Op == recorder.OpWriteBuffer && c.Label == "Skybox Face Buffer":
			require.Len(t, c.Data, pipeline.FaceUniformSize)
			face = binary.LittleEndian.Uint32(c.Data)
		case c.Op == recorder.OpSubmit:
			assert.Equal(t, uint32(submits), face, "face uniform at submit %d", submits)
			submits++
		}
	}
	assert.Equal(t, target.CubeFaceCount, submits)
	data, _ := rec.BufferData("Skybox Face Buffer")
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(data))
}

func TestFlatPanoramaUsesEquirectPipeline(t *testing.T) {
	rec := recorder.NewBackend(surfaceFormat, 64, 64)
	cam := camera.NewCamera(camera.WithController(camera.NewCameraController()))
	r, err := renderer.NewRenderer(rec, cam, nil,
		renderer.WithSkyboxSize(16),
		renderer.WithPanorama(loader.Checkerboard(32, 4)),
	)
	require.NoError(t, err)
	defer r.Release()

	pano, _ := r.Targets().Get(renderer.TargetPanorama)
	assert.Equal(t, wgpu.TextureViewDimension2D, pano.ViewDimension)
	for _, p := range rec.Passes() {
		assert.Equal(t, string(pipeline.SkyboxEquirect), pipelineLabel(t, p.Pipeline))
	}
}

func TestNewRendererBadPanorama(t *testing.T) {
	rec := recorder.NewBackend(surfaceFormat, 64, 64)
	cam := camera.NewCamera()
	tiny := &common.TextureStagingData{Pixels: make([]byte, 3*2*4), Width: 3, Height: 2, Format: common.ImageFormatHDR}

	_, err := renderer.NewRenderer(rec, cam, nil, renderer.WithPanorama(tiny))
	require.ErrorIs(t, err, common.ErrImageDecodeFailed)
	assert.Zero(t, rec.LiveTextures(), "a failed construction releases what it allocated")
}
