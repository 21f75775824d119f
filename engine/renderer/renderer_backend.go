package renderer

import (
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/target"
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// Buffer is a GPU buffer created by a Backend.
type Buffer struct {
	Label  string
	Size   uint64
	Usage  wgpu.BufferUsage
	Handle any
}

// SurfaceFrame is the surface image acquired for one frame.
type SurfaceFrame struct {
	Texture any
	View    any
	Width   uint32
	Height  uint32
}

// ColorAttachment is a color output of a render pass, cleared at the start of the pass.
type ColorAttachment struct {
	View  any
	Clear wgpu.Color
}

// DepthAttachment is the depth output of a render pass, cleared at the start of the pass.
type DepthAttachment struct {
	View  any
	Clear float32
}

// RenderPassDesc describes the attachments of one render pass.
type RenderPassDesc struct {
	Label  string
	Colors []ColorAttachment
	Depth  *DepthAttachment
}

// RenderPass records draw commands into a command encoder.
type RenderPass interface {
	SetPipeline(p any)
	SetBindGroup(index uint32, group any)
	SetVertexBuffer(slot uint32, buf *Buffer)
	SetIndexBuffer(buf *Buffer, format wgpu.IndexFormat)
	DrawIndexed(indexCount, instanceCount uint32)
	End() error
}

// CommandEncoder records passes and copies into one command buffer.
type CommandEncoder interface {
	// BeginRenderPass starts a pass. Only one pass may be open at a time.
	BeginRenderPass(desc *RenderPassDesc) (RenderPass, error)
	// CopyTextureToTexture copies the first layer of src into dst over the given extent.
	CopyTextureToTexture(src, dst any, width, height uint32) error
}

// Backend is the GPU abstraction the Renderer records frames against. The wgpu Context is
// the production implementation; recorder.Backend records calls for tests and dry runs.
type Backend interface {
	target.TextureAllocator
	pipeline.Factory
	bind_group_provider.Creator

	// SurfaceFormat returns the format of the presentation surface.
	SurfaceFormat() wgpu.TextureFormat

	// SurfaceSize returns the configured surface extent.
	SurfaceSize() (width, height uint32)

	// Resize reconfigures the surface. Zero width or height is a no-op.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: the configuration error
	Resize(width, height uint32) error

	// CreateBuffer creates a buffer. When contents is non-empty the buffer is sized to it and
	// initialized with it, otherwise size bytes are allocated.
	//
	// Parameters:
	//   - label: debug label
	//   - usage: buffer usage flags
	//   - contents: initial contents, may be nil
	//   - size: the size used when contents is empty
	//
	// Returns:
	//   - *Buffer: the buffer
	//   - error: the creation error
	CreateBuffer(label string, usage wgpu.BufferUsage, contents []byte, size uint64) (*Buffer, error)

	// WriteBuffers queues every write before the next submission.
	//
	// Parameters:
	//   - writes: the buffer writes
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// ReleaseBuffer destroys a buffer.
	ReleaseBuffer(buf *Buffer)

	// AcquireFrame acquires the next surface image.
	//
	// Returns:
	//   - *SurfaceFrame: the acquired image
	//   - error: an error wrapping one of the common.ErrSurface sentinels
	AcquireFrame() (*SurfaceFrame, error)

	// BeginEncoder creates a command encoder.
	BeginEncoder(label string) (CommandEncoder, error)

	// Submit finishes the encoder and submits its command buffer to the queue.
	Submit(enc CommandEncoder) error

	// Present presents an acquired frame and releases it.
	Present(frame *SurfaceFrame)

	// DiscardFrame releases an acquired frame without presenting it.
	DiscardFrame(frame *SurfaceFrame)
}
