package renderer

import (
	"fmt"
	"log"
	"runtime"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceSource provides the platform surface the Context presents to. window.Window satisfies it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
}

// Context owns the GPU instance, adapter, device, queue and presentation surface. It is created
// once and passed by reference to everything that talks to the GPU; it is the wgpu Backend.
type Context struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	presentMode   wgpu.PresentMode
	width         uint32
	height        uint32

	forceFallbackAdapter bool
}

// ContextBuilderOption is a functional option applied to a Context during construction via NewContext.
type ContextBuilderOption func(*Context)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - ContextBuilderOption: a function that applies the present mode option to a context
func WithPresentMode(mode PresentMode) ContextBuilderOption {
	return func(c *Context) {
		switch mode {
		case PresentModeUncapped:
			c.presentMode = wgpu.PresentModeImmediate
		default:
			c.presentMode = wgpu.PresentModeFifo
		}
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - ContextBuilderOption: a function that applies the option to a context
func WithForceSoftwareRenderer(force bool) ContextBuilderOption {
	return func(c *Context) {
		c.forceFallbackAdapter = force
	}
}

var _ Backend = &Context{}

// NewContext creates the GPU context for a window: a surface, a high-performance adapter
// compatible with it, a device with default limits and its queue, then configures the surface.
// The surface uses the first format the adapter reports.
//
// Parameters:
//   - window: the surface provider
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - opts: a variadic list of ContextBuilderOption functions
//
// Returns:
//   - *Context: the context
//   - error: an error wrapping common.ErrAdapterUnavailable or common.ErrDeviceCreationFailed
func NewContext(window SurfaceSource, width, height uint32, opts ...ContextBuilderOption) (*Context, error) {
	runtime.LockOSThread()
	c := &Context{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.surface = c.instance.CreateSurface(window.SurfaceDescriptor())

	adapter, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference:      wgpu.PowerPreferenceHighPerformance,
		ForceFallbackAdapter: c.forceFallbackAdapter,
		CompatibleSurface:    c.surface,
	})
	if err != nil {
		return c.fail(fmt.Errorf("failed to request adapter: %w: %v", common.ErrAdapterUnavailable, err))
	}
	c.adapter = adapter

	// Line polygon mode is a wgpu-native feature the binding does not expose as a FeatureName,
	// so the device is requested with default features and every pipeline fills triangles.
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return c.fail(fmt.Errorf("failed to request device: %w: %v", common.ErrDeviceCreationFailed, err))
	}
	c.device = device
	c.queue = device.GetQueue()

	capabilities := c.surface.GetCapabilities(c.adapter)
	if len(capabilities.Formats) == 0 {
		return c.fail(fmt.Errorf("failed to configure surface: %w: no surface formats", common.ErrAdapterUnavailable))
	}
	c.surfaceFormat = capabilities.Formats[0]
	if len(capabilities.AlphaModes) > 0 {
		c.alphaMode = capabilities.AlphaModes[0]
	}

	c.width, c.height = width, height
	c.configure()
	log.Printf("[Renderer] surface format %v, %dx%d", c.surfaceFormat, width, height)
	return c, nil
}

// fail releases whatever NewContext created before returning err.
func (c *Context) fail(err error) (*Context, error) {
	c.Release()
	return nil, err
}

// configure applies the current surface size. Callers hold mu or own c exclusively.
func (c *Context) configure() {
	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
		Format:      c.surfaceFormat,
		Width:       c.width,
		Height:      c.height,
		PresentMode: c.presentMode,
		AlphaMode:   c.alphaMode,
	})
}

func (c *Context) SurfaceFormat() wgpu.TextureFormat {
	return c.surfaceFormat
}

func (c *Context) SurfaceSize() (uint32, uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *Context) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.width, c.height = width, height
	c.configure()
	return nil
}

func (c *Context) AcquireFrame() (*SurfaceFrame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	texture, err := c.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire surface texture: %w", surfaceError(err))
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("failed to create surface view: %w", err)
	}
	return &SurfaceFrame{Texture: texture, View: view, Width: c.width, Height: c.height}, nil
}

func (c *Context) Present(frame *SurfaceFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.surface.Present()
	c.releaseFrame(frame)
}

func (c *Context) DiscardFrame(frame *SurfaceFrame) {
	c.releaseFrame(frame)
}

func (c *Context) releaseFrame(frame *SurfaceFrame) {
	if frame == nil {
		return
	}
	if view, ok := frame.View.(*wgpu.TextureView); ok && view != nil {
		view.Release()
	}
	if texture, ok := frame.Texture.(*wgpu.Texture); ok && texture != nil {
		texture.Release()
	}
}

// Release destroys the device, surface, adapter and instance. Releasing twice is a no-op.
func (c *Context) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queue != nil {
		c.queue.Release()
		c.queue = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}

// surfaceError maps a surface acquisition failure onto the surface sentinels. The status is only
// available through the error text, so unknown failures are treated as a lost surface.
func surfaceError(err error) error {
	msg := strings.ToLower(strings.ReplaceAll(err.Error(), "_", ""))
	switch {
	case strings.Contains(msg, "outofmemory") || strings.Contains(msg, "out of memory"):
		return fmt.Errorf("%w: %v", common.ErrSurfaceOutOfMemory, err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out"):
		return fmt.Errorf("%w: %v", common.ErrSurfaceTimeout, err)
	case strings.Contains(msg, "outdated"):
		return fmt.Errorf("%w: %v", common.ErrSurfaceOutdated, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrSurfaceLost, err)
	}
}
