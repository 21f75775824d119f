// Package recorder provides a renderer.Backend that records every GPU call instead of executing it.
// It backs the renderer tests and the -dry-run mode of the binary.
package recorder

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-peel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/target"
	"github.com/cogentcore/webgpu/wgpu"
)

// Op names a recorded call.
type Op string

const (
	OpAcquire      Op = "acquire"
	OpBeginPass    Op = "begin_pass"
	OpSetPipeline  Op = "set_pipeline"
	OpSetBindGroup Op = "set_bind_group"
	OpSetVertex    Op = "set_vertex_buffer"
	OpSetIndex     Op = "set_index_buffer"
	OpDraw         Op = "draw_indexed"
	OpEndPass      Op = "end_pass"
	OpCopy         Op = "copy_texture"
	OpSubmit       Op = "submit"
	OpPresent      Op = "present"
	OpDiscard      Op = "discard"
	OpWriteBuffer  Op = "write_buffer"
	OpResize       Op = "resize"
)

// Handle stands in for every GPU object the backend creates.
type Handle struct {
	Kind  string
	ID    int
	Label string

	// Desc is set on textures and their views.
	Desc *target.TextureDesc
	// Layer is the layer of a per-layer view, -1 for views covering the whole texture.
	Layer int
	// Resources is set on bind groups.
	Resources []pipeline.Resource
	// Schema is set on bind group layouts.
	Schema *pipeline.BindGroupSchema
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s#%d(%s)", h.Kind, h.ID, h.Label)
}

// Command is one recorded call. Only the fields relevant to Op are set.
type Command struct {
	Op        Op
	Label     string
	Colors    []renderer.ColorAttachment
	Depth     *renderer.DepthAttachment
	Handle    any
	Index     uint32
	Count     uint32
	Instances uint32
	Width     uint32
	Height    uint32
	Src, Dst  any
	// Data is a copy of the bytes of a buffer write.
	Data []byte
}

// PassRecord groups the commands of one render pass.
type PassRecord struct {
	Label      string
	Colors     []renderer.ColorAttachment
	Depth      *renderer.DepthAttachment
	Pipeline   any
	BindGroups map[uint32]any
	Draws      []Command
}

// Backend records calls. The zero value is not usable; create one with NewBackend.
type Backend struct {
	mu *sync.Mutex

	format wgpu.TextureFormat
	width  uint32
	height uint32
	nextID int

	commands   []Command
	buffers    map[*renderer.Buffer][]byte
	liveGroups map[*Handle]bool
	textures   map[*Handle]bool

	acquireErrs []error
}

var _ renderer.Backend = &Backend{}

// NewBackend creates a recording backend with a surface of the given format and size.
//
// Parameters:
//   - format: the surface format reported to the renderer
//   - width, height: the initial surface size
//
// Returns:
//   - *Backend: the backend
func NewBackend(format wgpu.TextureFormat, width, height uint32) *Backend {
	return &Backend{
		mu:         &sync.Mutex{},
		format:     format,
		width:      width,
		height:     height,
		buffers:    make(map[*renderer.Buffer][]byte),
		liveGroups: make(map[*Handle]bool),
		textures:   make(map[*Handle]bool),
	}
}

// FailAcquire makes the next AcquireFrame calls return the given errors, one per call.
//
// Parameters:
//   - errs: the errors returned in order
func (b *Backend) FailAcquire(errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acquireErrs = append(b.acquireErrs, errs...)
}

func (b *Backend) handle(kind, label string) *Handle {
	b.nextID++
	return &Handle{Kind: kind, ID: b.nextID, Label: label, Layer: -1}
}

func (b *Backend) record(c Command) {
	b.commands = append(b.commands, c)
}

func (b *Backend) SurfaceFormat() wgpu.TextureFormat {
	return b.format
}

func (b *Backend) SurfaceSize() (uint32, uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *Backend) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width, b.height = width, height
	b.record(Command{Op: OpResize, Width: width, Height: height})
	return nil
}

func (b *Backend) AllocateTexture(desc *target.TextureDesc) (*target.Allocation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("texture %s has zero extent", desc.Label)
	}
	tex := b.handle("texture", desc.Label)
	tex.Desc = desc
	b.textures[tex] = true

	view := b.handle("view", desc.Label)
	view.Desc = desc
	a := &target.Allocation{Texture: tex, View: view, Sampler: b.handle("sampler", desc.Label)}
	if desc.Layers > 1 {
		for layer := 0; layer < int(desc.Layers); layer++ {
			lv := b.handle("view", desc.Label)
			lv.Desc = desc
			lv.Layer = layer
			a.LayerViews = append(a.LayerViews, lv)
		}
	}
	return a, nil
}

func (b *Backend) WriteTexture(a *target.Allocation, layer, width, height uint32, pixels []byte) error {
	if uint64(len(pixels)) < uint64(width)*uint64(height)*4 {
		return fmt.Errorf("texture write of %d bytes is smaller than %dx%d", len(pixels), width, height)
	}
	return nil
}

func (b *Backend) ReleaseTexture(a *target.Allocation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h, ok := a.Texture.(*Handle); ok {
		delete(b.textures, h)
	}
}

func (b *Backend) CreateBindGroupLayout(schema *pipeline.BindGroupSchema) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.handle("bind_group_layout", schema.Label)
	h.Schema = schema
	return h, nil
}

func (b *Backend) CreateRenderPipeline(p pipeline.Pipeline, layouts []any) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(layouts) != len(p.Groups()) {
		return nil, fmt.Errorf("pipeline %s has %d layouts for %d groups", p.ID(), len(layouts), len(p.Groups()))
	}
	return b.handle("render_pipeline", string(p.ID())), nil
}

func (b *Backend) CreateBindGroup(label string, layout any, resources []pipeline.Resource) (any, error) {
	l, ok := layout.(*Handle)
	if !ok || l.Kind != "bind_group_layout" {
		return nil, fmt.Errorf("bind group %s has no layout", label)
	}
	for _, r := range resources {
		if r.Handle == nil {
			return nil, fmt.Errorf("bind group %s binding %d has no resource", label, r.Binding)
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.handle("bind_group", label)
	h.Schema = l.Schema
	h.Resources = append([]pipeline.Resource(nil), resources...)
	b.liveGroups[h] = true
	return h, nil
}

func (b *Backend) ReleaseBindGroup(group any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h, ok := group.(*Handle); ok {
		delete(b.liveGroups, h)
	}
}

func (b *Backend) CreateBuffer(label string, usage wgpu.BufferUsage, contents []byte, size uint64) (*renderer.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(contents) > 0 {
		size = uint64(len(contents))
	}
	if size == 0 {
		return nil, fmt.Errorf("buffer %s has zero size", label)
	}
	buf := &renderer.Buffer{Label: label, Size: size, Usage: usage, Handle: b.handle("buffer", label)}
	data := make([]byte, size)
	copy(data, contents)
	b.buffers[buf] = data
	return buf, nil
}

func (b *Backend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range writes {
		buf, ok := w.Buffer.(*renderer.Buffer)
		if !ok {
			continue
		}
		data := b.buffers[buf]
		if end := w.Offset + uint64(len(w.Data)); end > uint64(len(data)) {
			grown := make([]byte, end)
			copy(grown, data)
			data = grown
		}
		copy(data[w.Offset:], w.Data)
		b.buffers[buf] = data
		b.record(Command{Op: OpWriteBuffer, Label: buf.Label, Handle: buf, Data: append([]byte(nil), w.Data...)})
	}
}

func (b *Backend) ReleaseBuffer(buf *renderer.Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buffers, buf)
}

func (b *Backend) AcquireFrame() (*renderer.SurfaceFrame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.acquireErrs) > 0 {
		err := b.acquireErrs[0]
		b.acquireErrs = b.acquireErrs[1:]
		return nil, err
	}
	desc := &target.TextureDesc{Label: "surface", Width: b.width, Height: b.height, Layers: 1, Format: b.format}
	tex := b.handle("surface_texture", "surface")
	tex.Desc = desc
	view := b.handle("surface_view", "surface")
	view.Desc = desc
	b.record(Command{Op: OpAcquire, Handle: view, Width: b.width, Height: b.height})
	return &renderer.SurfaceFrame{Texture: tex, View: view, Width: b.width, Height: b.height}, nil
}

func (b *Backend) BeginEncoder(label string) (renderer.CommandEncoder, error) {
	return &encoder{owner: b, label: label}, nil
}

func (b *Backend) Submit(enc renderer.CommandEncoder) error {
	e, ok := enc.(*encoder)
	if !ok || e.owner != b {
		return fmt.Errorf("cannot submit %T", enc)
	}
	if e.open {
		return errors.New("render pass still open at submit")
	}
	if e.submitted {
		return errors.New("encoder submitted twice")
	}
	e.submitted = true

	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, e.commands...)
	b.record(Command{Op: OpSubmit, Label: e.label})
	return nil
}

func (b *Backend) Present(frame *renderer.SurfaceFrame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Command{Op: OpPresent, Handle: frame.View})
}

func (b *Backend) DiscardFrame(frame *renderer.SurfaceFrame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(Command{Op: OpDiscard, Handle: frame.View})
}

// Commands returns every recorded call in order. Encoder commands appear when their encoder is submitted.
func (b *Backend) Commands() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Command(nil), b.commands...)
}

// Count returns how many calls of one kind were recorded.
func (b *Backend) Count(op Op) int {
	n := 0
	for _, c := range b.Commands() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Passes groups the submitted commands by render pass.
func (b *Backend) Passes() []PassRecord {
	var (
		passes  []PassRecord
		current *PassRecord
	)
	for _, c := range b.Commands() {
		switch c.Op {
		case OpBeginPass:
			passes = append(passes, PassRecord{Label: c.Label, Colors: c.Colors, Depth: c.Depth, BindGroups: make(map[uint32]any)})
			current = &passes[len(passes)-1]
		case OpSetPipeline:
			if current != nil {
				current.Pipeline = c.Handle
			}
		case OpSetBindGroup:
			if current != nil {
				current.BindGroups[c.Index] = c.Handle
			}
		case OpDraw:
			if current != nil {
				current.Draws = append(current.Draws, c)
			}
		case OpEndPass:
			current = nil
		}
	}
	return passes
}

// BufferData returns the current contents of the buffer with the given label.
func (b *Backend) BufferData(label string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for buf, data := range b.buffers {
		if buf.Label == label {
			return append([]byte(nil), data...), true
		}
	}
	return nil, false
}

// LiveBindGroups returns the bind groups created and not yet released.
func (b *Backend) LiveBindGroups() []*Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Handle, 0, len(b.liveGroups))
	for h := range b.liveGroups {
		out = append(out, h)
	}
	return out
}

// LiveTextures returns the number of textures allocated and not yet released.
func (b *Backend) LiveTextures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.textures)
}

// Reset drops the recorded calls.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = nil
}

// encoder buffers commands until it is submitted.
type encoder struct {
	owner     *Backend
	label     string
	commands  []Command
	open      bool
	submitted bool
}

func (e *encoder) BeginRenderPass(desc *renderer.RenderPassDesc) (renderer.RenderPass, error) {
	if e.open {
		return nil, fmt.Errorf("render pass %s begun while another pass is open", desc.Label)
	}
	for i, c := range desc.Colors {
		if c.View == nil {
			return nil, fmt.Errorf("render pass %s color %d has no view", desc.Label, i)
		}
	}
	e.open = true
	e.commands = append(e.commands, Command{
		Op:     OpBeginPass,
		Label:  desc.Label,
		Colors: append([]renderer.ColorAttachment(nil), desc.Colors...),
		Depth:  desc.Depth,
	})
	return &pass{owner: e}, nil
}

func (e *encoder) CopyTextureToTexture(src, dst any, width, height uint32) error {
	if e.open {
		return errors.New("copy recorded while a render pass is open")
	}
	if src == nil || dst == nil {
		return errors.New("copy needs a source and a destination")
	}
	e.commands = append(e.commands, Command{Op: OpCopy, Src: src, Dst: dst, Width: width, Height: height})
	return nil
}

// pass appends draw commands to its encoder.
type pass struct {
	owner *encoder
}

func (p *pass) SetPipeline(pl any) {
	p.owner.commands = append(p.owner.commands, Command{Op: OpSetPipeline, Handle: pl})
}

func (p *pass) SetBindGroup(index uint32, group any) {
	p.owner.commands = append(p.owner.commands, Command{Op: OpSetBindGroup, Index: index, Handle: group})
}

func (p *pass) SetVertexBuffer(slot uint32, buf *renderer.Buffer) {
	p.owner.commands = append(p.owner.commands, Command{Op: OpSetVertex, Index: slot, Handle: buf})
}

func (p *pass) SetIndexBuffer(buf *renderer.Buffer, format wgpu.IndexFormat) {
	p.owner.commands = append(p.owner.commands, Command{Op: OpSetIndex, Handle: buf})
}

func (p *pass) DrawIndexed(indexCount, instanceCount uint32) {
	p.owner.commands = append(p.owner.commands, Command{Op: OpDraw, Count: indexCount, Instances: instanceCount})
}

func (p *pass) End() error {
	if !p.owner.open {
		return errors.New("render pass ended twice")
	}
	p.owner.open = false
	p.owner.commands = append(p.owner.commands, Command{Op: OpEndPass})
	return nil
}
