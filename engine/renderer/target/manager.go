package target

import (
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/Carmen-Shannon/oxy-peel/engine/loader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ImageFormat is the GPU format of textures loaded from images.
const ImageFormat = wgpu.TextureFormatRGBA8UnormSrgb

// DepthFormat is the format of depth targets.
const DepthFormat = wgpu.TextureFormatDepth32Float

// Decoder turns encoded image bytes into RGBA8 pixels.
type Decoder interface {
	Decode(name string, data []byte) (*common.TextureStagingData, error)
}

// Manager is a named registry of render targets backed by a TextureAllocator.
type Manager struct {
	mu        *sync.Mutex
	allocator TextureAllocator
	decoder   Decoder
	owned     loader.Loader
	targets   map[string]*RenderTarget
	order     []string
}

// ManagerBuilderOption is a functional option applied to a Manager during construction via NewManager.
type ManagerBuilderOption func(*Manager)

// WithDecoder sets the decoder used by LoadFromEncodedImage. Without one, the manager starts its own
// loader on the first LoadFromEncodedImage and closes it in Release.
//
// Parameters:
//   - d: the decoder, typically a loader.Loader
//
// Returns:
//   - ManagerBuilderOption: a function that applies the decoder option to a manager
func WithDecoder(d Decoder) ManagerBuilderOption {
	return func(m *Manager) {
		m.decoder = d
	}
}

// NewManager creates an empty target registry.
//
// Parameters:
//   - allocator: the GPU context or a fake that creates the textures
//   - opts: a variadic list of ManagerBuilderOption functions
//
// Returns:
//   - *Manager: the manager
func NewManager(allocator TextureAllocator, opts ...ManagerBuilderOption) *Manager {
	m := &Manager{
		mu:        &sync.Mutex{},
		allocator: allocator,
		targets:   make(map[string]*RenderTarget),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) imageDecoder() Decoder {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.decoder == nil {
		m.owned = loader.NewLoader()
		m.decoder = m.owned
	}
	return m.decoder
}

// CreateColorTarget allocates a single-layer 2D color target. An existing target with the same name is released.
//
// Parameters:
//   - name: the registry key
//   - width, height: the extent in pixels
//   - format: the texture format
//   - usage: the texture usage flags
//   - sampling: the sampler kind created with the texture
//   - tracksSurface: true if ResizeTracked should reallocate the target
//
// Returns:
//   - *RenderTarget: the target
//   - error: the allocation error
func (m *Manager) CreateColorTarget(name string, width, height uint32, format wgpu.TextureFormat, usage wgpu.TextureUsage, sampling Sampling, tracksSurface bool) (*RenderTarget, error) {
	return m.create(&RenderTarget{
		Name:          name,
		Width:         width,
		Height:        height,
		Layers:        1,
		Format:        format,
		Usage:         usage,
		ViewDimension: wgpu.TextureViewDimension2D,
		Sampling:      sampling,
		TracksSurface: tracksSurface,
	})
}

// CreateDepthTarget allocates a Depth32Float target that tracks the surface.
//
// Parameters:
//   - name: the registry key
//   - width, height: the extent in pixels
//
// Returns:
//   - *RenderTarget: the target
//   - error: the allocation error
func (m *Manager) CreateDepthTarget(name string, width, height uint32) (*RenderTarget, error) {
	return m.create(&RenderTarget{
		Name:          name,
		Width:         width,
		Height:        height,
		Layers:        1,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		ViewDimension: wgpu.TextureViewDimension2D,
		Sampling:      SamplingLinear,
		TracksSurface: true,
	})
}

// CreateCubemapTarget allocates a fixed-size six-layer target viewed as a cube.
//
// Parameters:
//   - name: the registry key
//   - width, height: the extent of each face
//   - format: the texture format
//   - usage: the texture usage flags
//
// Returns:
//   - *RenderTarget: the target
//   - error: the allocation error
func (m *Manager) CreateCubemapTarget(name string, width, height uint32, format wgpu.TextureFormat, usage wgpu.TextureUsage) (*RenderTarget, error) {
	return m.create(&RenderTarget{
		Name:          name,
		Width:         width,
		Height:        height,
		Layers:        CubeFaceCount,
		Format:        format,
		Usage:         usage,
		ViewDimension: wgpu.TextureViewDimensionCube,
		Sampling:      SamplingLinear,
	})
}

// LoadFromEncodedImage sniffs and decodes an image, then uploads it as a target. Panoramas become
// cube targets with extent (W/4, H/3, 6); other images become 2D targets with extent (W, H, 1).
//
// Parameters:
//   - name: the registry key
//   - data: the encoded image bytes
//
// Returns:
//   - *RenderTarget: the target
//   - error: an error wrapping common.ErrImageFormatUnrecognized or common.ErrImageDecodeFailed
func (m *Manager) LoadFromEncodedImage(name string, data []byte) (*RenderTarget, error) {
	img, err := m.imageDecoder().Decode(name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return m.LoadDecoded(name, img)
}

// LoadDecoded uploads already decoded pixels as a target, laid out by the image's format tag.
//
// Parameters:
//   - name: the registry key
//   - img: the decoded pixels
//
// Returns:
//   - *RenderTarget: the target
//   - error: an error wrapping common.ErrImageDecodeFailed for malformed pixels, or the allocation error
func (m *Manager) LoadDecoded(name string, img *common.TextureStagingData) (*RenderTarget, error) {
	if img.Width == 0 || img.Height == 0 {
		return nil, fmt.Errorf("%w: %s is empty", common.ErrImageDecodeFailed, name)
	}

	rt := &RenderTarget{
		Name:          name,
		Width:         img.Width,
		Height:        img.Height,
		Layers:        1,
		Format:        ImageFormat,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		ViewDimension: wgpu.TextureViewDimension2D,
		Sampling:      SamplingLinearMag,
	}
	layers := [][]byte{img.Pixels}
	if img.Format.IsPanorama() {
		faces, err := ExtractCubeFaces(img)
		if err != nil {
			return nil, fmt.Errorf("failed to split %s into cube faces: %w", name, err)
		}
		rt.Width, rt.Height = PanoramaFaceSize(img.Width, img.Height)
		rt.Layers = CubeFaceCount
		rt.ViewDimension = wgpu.TextureViewDimensionCube
		layers = faces
	} else if uint64(len(img.Pixels)) < uint64(img.Width)*uint64(img.Height)*4 {
		return nil, fmt.Errorf("%w: %s holds %d bytes, want %d", common.ErrImageDecodeFailed, name, len(img.Pixels), img.Width*img.Height*4)
	}

	created, err := m.create(rt)
	if err != nil {
		return nil, err
	}
	for layer, pixels := range layers {
		if err := m.allocator.WriteTexture(created.allocation, uint32(layer), created.Width, created.Height, pixels); err != nil {
			m.remove(created)
			return nil, fmt.Errorf("failed to upload %s layer %d: %w", name, layer, err)
		}
	}
	log.Printf("[Targets] loaded %s (%s, %dx%dx%d)", name, img.Format, created.Width, created.Height, created.Layers)
	return created, nil
}

// ResizeTracked reallocates every surface-tracking target at the new extent and releases the old
// textures. Zero width or height is a no-op.
//
// Parameters:
//   - width, height: the new surface extent
//
// Returns:
//   - []string: the names of the replaced targets in creation order
//   - error: the first allocation error
func (m *Manager) ResizeTracked(width, height uint32) ([]string, error) {
	if width == 0 || height == 0 {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var resized []string
	for _, name := range m.order {
		old := m.targets[name]
		if !old.TracksSurface {
			continue
		}
		next := *old
		next.Width, next.Height = width, height
		alloc, err := m.allocator.AllocateTexture(next.descriptor())
		if err != nil {
			return resized, fmt.Errorf("failed to resize target %s: %w", name, err)
		}
		next.allocation = alloc
		m.targets[name] = &next
		m.allocator.ReleaseTexture(old.allocation)
		resized = append(resized, name)
	}
	return resized, nil
}

// Get looks up a target by name.
//
// Parameters:
//   - name: the registry key
//
// Returns:
//   - *RenderTarget: the target
//   - bool: false if no target has this name
func (m *Manager) Get(name string) (*RenderTarget, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rt, ok := m.targets[name]
	return rt, ok
}

// Names returns the registered target names in creation order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.order...)
}

// Release destroys every target and empties the registry. A loader the manager started itself is closed.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range m.order {
		m.allocator.ReleaseTexture(m.targets[name].allocation)
	}
	m.targets = make(map[string]*RenderTarget)
	m.order = nil

	if m.owned != nil {
		m.owned.Close()
		m.owned = nil
		m.decoder = nil
	}
}

// remove releases rt and drops it from the registry if it is still the target registered under its name.
func (m *Manager) remove(rt *RenderTarget) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocator.ReleaseTexture(rt.allocation)
	if m.targets[rt.Name] != rt {
		return
	}
	delete(m.targets, rt.Name)
	for i, name := range m.order {
		if name == rt.Name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Manager) create(rt *RenderTarget) (*RenderTarget, error) {
	alloc, err := m.allocator.AllocateTexture(rt.descriptor())
	if err != nil {
		return nil, fmt.Errorf("failed to allocate target %s: %w", rt.Name, err)
	}
	rt.allocation = alloc

	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.targets[rt.Name]; ok {
		m.allocator.ReleaseTexture(old.allocation)
	} else {
		m.order = append(m.order, rt.Name)
	}
	m.targets[rt.Name] = rt
	return rt, nil
}
