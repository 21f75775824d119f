package target

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWrite struct {
	layer, width, height uint32
	pixels               []byte
}

type fakeAllocator struct {
	next     int
	live     map[int]*TextureDesc
	writes   []fakeWrite
	released []string
	fail     bool
	writeErr error
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{live: make(map[int]*TextureDesc)}
}

func (f *fakeAllocator) AllocateTexture(desc *TextureDesc) (*Allocation, error) {
	if f.fail {
		return nil, errors.New("out of memory")
	}
	f.next++
	f.live[f.next] = desc
	a := &Allocation{Texture: f.next, View: f.next, Sampler: f.next}
	if desc.Layers > 1 {
		for i := uint32(0); i < desc.Layers; i++ {
			a.LayerViews = append(a.LayerViews, i)
		}
	}
	return a, nil
}

func (f *fakeAllocator) WriteTexture(a *Allocation, layer, width, height uint32, pixels []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, fakeWrite{layer: layer, width: width, height: height, pixels: pixels})
	return nil
}

func (f *fakeAllocator) ReleaseTexture(a *Allocation) {
	id := a.Texture.(int)
	f.released = append(f.released, f.live[id].Label)
	delete(f.live, id)
}

type fakeDecoder struct {
	img *common.TextureStagingData
	err error
}

func (d fakeDecoder) Decode(name string, data []byte) (*common.TextureStagingData, error) {
	return d.img, d.err
}

func solid(w, h uint32, format common.ImageFormat) *common.TextureStagingData {
	return &common.TextureStagingData{Pixels: make([]byte, w*h*4), Width: w, Height: h, Format: format}
}

func TestResizeTracked(t *testing.T) {
	alloc := newFakeAllocator()
	m := NewManager(alloc)

	_, err := m.CreateColorTarget("albedo", 800, 600, wgpu.TextureFormatBGRA8UnormSrgb,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding, SamplingNearest, true)
	require.NoError(t, err)
	_, err = m.CreateDepthTarget("depth", 800, 600)
	require.NoError(t, err)
	_, err = m.CreateCubemapTarget("skybox", 2048, 2048, wgpu.TextureFormatBGRA8UnormSrgb,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
	require.NoError(t, err)
	_, err = m.LoadDecoded("diffuse", solid(16, 16, common.ImageFormatStandard))
	require.NoError(t, err)

	resized, err := m.ResizeTracked(1024, 768)
	require.NoError(t, err)
	assert.Equal(t, []string{"albedo", "depth"}, resized)
	assert.ElementsMatch(t, []string{"albedo", "depth"}, alloc.released)

	for _, name := range []string{"albedo", "depth"} {
		rt, ok := m.Get(name)
		require.True(t, ok)
		assert.Equal(t, uint32(1024), rt.Width)
		assert.Equal(t, uint32(768), rt.Height)
	}
	sky, _ := m.Get("skybox")
	assert.Equal(t, uint32(2048), sky.Width)
	diffuse, _ := m.Get("diffuse")
	assert.Equal(t, uint32(16), diffuse.Width)
	assert.Len(t, alloc.live, 4)
}

func TestResizeTrackedZeroIsNoop(t *testing.T) {
	alloc := newFakeAllocator()
	m := NewManager(alloc)
	before, err := m.CreateColorTarget("albedo", 800, 600, wgpu.TextureFormatBGRA8UnormSrgb,
		wgpu.TextureUsageRenderAttachment, SamplingNearest, true)
	require.NoError(t, err)

	for _, size := range [][2]uint32{{0, 600}, {800, 0}, {0, 0}} {
		resized, err := m.ResizeTracked(size[0], size[1])
		require.NoError(t, err)
		assert.Empty(t, resized)
	}
	after, _ := m.Get("albedo")
	assert.Same(t, before, after)
	assert.Empty(t, alloc.released)
}

func TestResizeReplacesTarget(t *testing.T) {
	m := NewManager(newFakeAllocator())
	before, err := m.CreateColorTarget("position", 4, 4, wgpu.TextureFormatRGBA32Float,
		wgpu.TextureUsageRenderAttachment, SamplingNearest, true)
	require.NoError(t, err)

	_, err = m.ResizeTracked(8, 8)
	require.NoError(t, err)
	after, _ := m.Get("position")
	assert.NotSame(t, before, after)
	assert.Equal(t, uint32(4), before.Width)
	assert.NotEqual(t, before.View(), after.View())
	assert.False(t, after.Filterable())
}

func TestLoadPanorama(t *testing.T) {
	alloc := newFakeAllocator()
	m := NewManager(alloc)

	rt, err := m.LoadDecoded("panorama", solid(2048, 1536, common.ImageFormatHDR))
	require.NoError(t, err)
	assert.Equal(t, uint32(512), rt.Width)
	assert.Equal(t, uint32(512), rt.Height)
	assert.Equal(t, uint32(6), rt.Layers)
	assert.Equal(t, wgpu.TextureViewDimensionCube, rt.ViewDimension)
	assert.Equal(t, ImageFormat, rt.Format)
	assert.False(t, rt.TracksSurface)

	require.Len(t, alloc.writes, 6)
	for i, w := range alloc.writes {
		assert.Equal(t, uint32(i), w.layer)
		assert.Len(t, w.pixels, 512*512*4)
	}
}

func TestLoadStandardImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	alloc := newFakeAllocator()
	m := NewManager(alloc)
	rt, err := m.LoadFromEncodedImage("diffuse", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint32(3), rt.Width)
	assert.Equal(t, uint32(2), rt.Height)
	assert.Equal(t, uint32(1), rt.Layers)
	assert.Equal(t, wgpu.TextureViewDimension2D, rt.ViewDimension)
	assert.Equal(t, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst, rt.Usage)
	assert.Equal(t, SamplingLinearMag, rt.Sampling)
	require.Len(t, alloc.writes, 1)
	assert.Equal(t, byte(255), alloc.writes[0].pixels[0])
}

func TestLoadErrors(t *testing.T) {
	m := NewManager(newFakeAllocator())
	_, err := m.LoadFromEncodedImage("junk", []byte("definitely not an image"))
	assert.ErrorIs(t, err, common.ErrImageFormatUnrecognized)

	m = NewManager(newFakeAllocator(), WithDecoder(fakeDecoder{err: common.ErrImageDecodeFailed}))
	_, err = m.LoadFromEncodedImage("broken", []byte{1})
	assert.ErrorIs(t, err, common.ErrImageDecodeFailed)

	m = NewManager(newFakeAllocator(), WithDecoder(fakeDecoder{img: solid(3, 2, common.ImageFormatHDR)}))
	_, err = m.LoadFromEncodedImage("tiny", []byte{1})
	assert.ErrorIs(t, err, common.ErrImageDecodeFailed)
}

func TestUploadFailureUnregistersTarget(t *testing.T) {
	alloc := newFakeAllocator()
	m := NewManager(alloc, WithDecoder(fakeDecoder{img: solid(8, 6, common.ImageFormatHDR)}))
	_, err := m.CreateDepthTarget("depth", 4, 4)
	require.NoError(t, err)

	alloc.writeErr = errors.New("queue lost")
	_, err = m.LoadFromEncodedImage("panorama", []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload panorama")

	_, ok := m.Get("panorama")
	assert.False(t, ok)
	assert.Equal(t, []string{"depth"}, m.Names())
	assert.Len(t, alloc.live, 1, "the half-uploaded texture is released")
}

func TestDecoderStartsOnFirstLoad(t *testing.T) {
	m := NewManager(newFakeAllocator())
	assert.Nil(t, m.decoder)

	_, err := m.LoadFromEncodedImage("junk", []byte("definitely not an image"))
	require.Error(t, err)
	assert.NotNil(t, m.owned)

	m.Release()
	assert.Nil(t, m.owned)
	assert.Nil(t, m.decoder)

	custom := fakeDecoder{img: solid(2, 2, common.ImageFormatStandard)}
	m = NewManager(newFakeAllocator(), WithDecoder(custom))
	_, err = m.LoadFromEncodedImage("diffuse", []byte{1})
	require.NoError(t, err)
	m.Release()
	assert.Nil(t, m.owned)
	assert.Equal(t, custom, m.decoder, "a supplied decoder is left alone")
}

func TestExtractCubeFaces(t *testing.T) {
	const face = 2
	img := solid(4*face, 3*face, common.ImageFormatHDR)
	// tag every pixel with the index of the cross cell it belongs to
	for y := uint32(0); y < img.Height; y++ {
		for x := uint32(0); x < img.Width; x++ {
			cell := (y/face)*4 + x/face
			img.Pixels[(y*img.Width+x)*4] = byte(cell)
		}
	}

	faces, err := ExtractCubeFaces(img)
	require.NoError(t, err)
	require.Len(t, faces, 6)

	wantCells := []byte{6, 4, 1, 9, 5, 7}
	for i, f := range faces {
		require.Len(t, f, face*face*4)
		for p := 0; p < face*face; p++ {
			assert.Equal(t, wantCells[i], f[p*4], "face %d pixel %d", i, p)
		}
	}
}

func TestAllocationFailure(t *testing.T) {
	alloc := newFakeAllocator()
	m := NewManager(alloc)
	_, err := m.CreateColorTarget("albedo", 4, 4, wgpu.TextureFormatBGRA8UnormSrgb, wgpu.TextureUsageRenderAttachment, SamplingNearest, true)
	require.NoError(t, err)

	alloc.fail = true
	_, err = m.ResizeTracked(8, 8)
	assert.Error(t, err)
	rt, _ := m.Get("albedo")
	assert.Equal(t, uint32(4), rt.Width)
}

func TestRelease(t *testing.T) {
	alloc := newFakeAllocator()
	m := NewManager(alloc)
	_, err := m.CreateDepthTarget("depth", 4, 4)
	require.NoError(t, err)
	_, err = m.CreateDepthTarget("depth", 8, 8)
	require.NoError(t, err)
	assert.Equal(t, []string{"depth"}, m.Names())
	assert.Len(t, alloc.live, 1)

	m.Release()
	assert.Empty(t, m.Names())
	assert.Empty(t, alloc.live)
}

func TestSamplingDescriptor(t *testing.T) {
	nearest := SamplingNearest.Descriptor()
	assert.Equal(t, wgpu.FilterModeNearest, nearest.MagFilter)
	assert.Equal(t, float32(-100), nearest.LodMinClamp)
	assert.Equal(t, float32(100), nearest.LodMaxClamp)
	assert.Equal(t, wgpu.AddressModeClampToEdge, nearest.AddressModeU)
	assert.False(t, SamplingNearest.Filtering())

	mixed := SamplingLinearMag.Descriptor()
	assert.Equal(t, wgpu.FilterModeLinear, mixed.MagFilter)
	assert.Equal(t, wgpu.FilterModeNearest, mixed.MinFilter)
	assert.True(t, SamplingLinearMag.Filtering())
}
