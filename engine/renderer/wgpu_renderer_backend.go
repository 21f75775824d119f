package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/target"
	"github.com/cogentcore/webgpu/wgpu"
)

func (c *Context) AllocateTexture(desc *target.TextureDesc) (*target.Allocation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	layers := max(desc.Layers, 1)
	tex, err := c.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label + " Texture",
		Usage:     desc.Usage,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: layers,
		},
		Format:        desc.Format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	alloc := &target.Allocation{Texture: tex}
	release := func() {
		c.releaseAllocation(alloc)
	}

	aspect := wgpu.TextureAspectAll
	if desc.Format == target.DepthFormat {
		aspect = wgpu.TextureAspectDepthOnly
	}
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label + " View",
		Format:          desc.Format,
		Dimension:       desc.ViewDimension,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: layers,
		Aspect:          aspect,
	})
	if err != nil {
		release()
		return nil, err
	}
	alloc.View = view

	if layers > 1 {
		for layer := uint32(0); layer < layers; layer++ {
			lv, err := tex.CreateView(&wgpu.TextureViewDescriptor{
				Label:           fmt.Sprintf("%s Layer %d", desc.Label, layer),
				Format:          desc.Format,
				Dimension:       wgpu.TextureViewDimension2D,
				BaseMipLevel:    0,
				MipLevelCount:   1,
				BaseArrayLayer:  layer,
				ArrayLayerCount: 1,
				Aspect:          aspect,
			})
			if err != nil {
				release()
				return nil, err
			}
			alloc.LayerViews = append(alloc.LayerViews, lv)
		}
	}

	s := desc.Sampler
	sampler, err := c.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label + " Sampler",
		AddressModeU:  s.AddressModeU,
		AddressModeV:  s.AddressModeV,
		AddressModeW:  s.AddressModeW,
		MagFilter:     s.MagFilter,
		MinFilter:     s.MinFilter,
		MipmapFilter:  s.MipmapFilter,
		LodMinClamp:   s.LodMinClamp,
		LodMaxClamp:   s.LodMaxClamp,
		MaxAnisotropy: max(s.MaxAnisotropy, 1),
		Compare:       s.Compare,
	})
	if err != nil {
		release()
		return nil, err
	}
	alloc.Sampler = sampler
	return alloc, nil
}

func (c *Context) WriteTexture(a *target.Allocation, layer, width, height uint32, pixels []byte) error {
	tex, ok := a.Texture.(*wgpu.Texture)
	if !ok || tex == nil {
		return errors.New("allocation holds no wgpu texture")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{Z: layer},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (c *Context) ReleaseTexture(a *target.Allocation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseAllocation(a)
}

func (c *Context) releaseAllocation(a *target.Allocation) {
	if a == nil {
		return
	}
	if s, ok := a.Sampler.(*wgpu.Sampler); ok && s != nil {
		s.Release()
	}
	for _, lv := range a.LayerViews {
		if v, ok := lv.(*wgpu.TextureView); ok && v != nil {
			v.Release()
		}
	}
	if v, ok := a.View.(*wgpu.TextureView); ok && v != nil {
		v.Release()
	}
	if t, ok := a.Texture.(*wgpu.Texture); ok && t != nil {
		t.Release()
	}
}

func (c *Context) CreateBindGroupLayout(schema *pipeline.BindGroupSchema) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device.CreateBindGroupLayout(schema.LayoutDescriptor())
}

func (c *Context) CreateRenderPipeline(p pipeline.Pipeline, layouts []any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sh := p.Shader()
	module, err := c.device.CreateShaderModule(sh.ModuleDescriptor())
	if err != nil {
		return nil, fmt.Errorf("failed to create shader module %s: %w", sh.Key(), err)
	}

	bindGroupLayouts := make([]*wgpu.BindGroupLayout, len(layouts))
	for i, l := range layouts {
		layout, ok := l.(*wgpu.BindGroupLayout)
		if !ok {
			return nil, fmt.Errorf("%w: group %d of %s is not a wgpu layout", common.ErrPipelineLayoutMismatch, i, p.ID())
		}
		bindGroupLayouts[i] = layout
	}
	pipelineLayout, err := c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            string(p.ID()),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return nil, err
	}

	targets := make([]wgpu.ColorTargetState, 0, len(p.Targets()))
	for _, t := range p.Targets() {
		targets = append(targets, wgpu.ColorTargetState{
			Format:    t.Format,
			Blend:     t.Blend,
			WriteMask: p.WriteMask(),
		})
	}

	var depthStencil *wgpu.DepthStencilState
	if d := p.Depth(); d != nil {
		depthStencil = &wgpu.DepthStencilState{
			Format:            d.Format,
			DepthWriteEnabled: d.Write,
			DepthCompare:      d.Compare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	return c.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  string(p.ID()) + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: sh.VertexEntryPoint(),
			Buffers:    p.VertexLayouts(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: sh.FragmentEntryPoint(),
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: p.FrontFace(),
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
}

func (c *Context) CreateBindGroup(label string, layout any, resources []pipeline.Resource) (any, error) {
	bgl, ok := layout.(*wgpu.BindGroupLayout)
	if !ok || bgl == nil {
		return nil, fmt.Errorf("%w: bind group %s has no wgpu layout", common.ErrPipelineLayoutMismatch, label)
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(resources))
	for _, r := range resources {
		entry := wgpu.BindGroupEntry{Binding: r.Binding}
		switch h := r.Handle.(type) {
		case *wgpu.TextureView:
			entry.TextureView = h
		case *wgpu.Sampler:
			entry.Sampler = h
		case *Buffer:
			buf, ok := h.Handle.(*wgpu.Buffer)
			if !ok {
				return nil, fmt.Errorf("bind group %s binding %d: buffer has no wgpu handle", label, r.Binding)
			}
			entry.Buffer = buf
			entry.Offset = 0
			entry.Size = wgpu.WholeSize
		case *wgpu.Buffer:
			entry.Buffer = h
			entry.Offset = 0
			entry.Size = wgpu.WholeSize
		default:
			return nil, fmt.Errorf("bind group %s binding %d: unsupported handle %T", label, r.Binding, r.Handle)
		}
		entries = append(entries, entry)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label + " Bind Group",
		Layout:  bgl,
		Entries: entries,
	})
}

func (c *Context) ReleaseBindGroup(group any) {
	if bg, ok := group.(*wgpu.BindGroup); ok && bg != nil {
		bg.Release()
	}
}

func (c *Context) CreateBuffer(label string, usage wgpu.BufferUsage, contents []byte, size uint64) (*Buffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		buf *wgpu.Buffer
		err error
	)
	if len(contents) > 0 {
		size = uint64(len(contents))
		buf, err = c.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    label,
			Contents: contents,
			Usage:    usage,
		})
	} else {
		buf, err = c.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            label,
			Size:             size,
			Usage:            usage,
			MappedAtCreation: false,
		})
	}
	if err != nil {
		return nil, err
	}
	return &Buffer{Label: label, Size: size, Usage: usage, Handle: buf}, nil
}

func (c *Context) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, w := range writes {
		var buf *wgpu.Buffer
		switch h := w.Buffer.(type) {
		case *Buffer:
			buf, _ = h.Handle.(*wgpu.Buffer)
		case *wgpu.Buffer:
			buf = h
		}
		if buf == nil {
			continue
		}
		c.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (c *Context) ReleaseBuffer(buf *Buffer) {
	if buf == nil {
		return
	}
	if b, ok := buf.Handle.(*wgpu.Buffer); ok && b != nil {
		b.Release()
	}
}

func (c *Context) BeginEncoder(label string) (CommandEncoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	encoder, err := c.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, err
	}
	return &wgpuEncoder{encoder: encoder}, nil
}

func (c *Context) Submit(enc CommandEncoder) error {
	e, ok := enc.(*wgpuEncoder)
	if !ok {
		return fmt.Errorf("cannot submit %T", enc)
	}
	defer e.encoder.Release()
	if e.open != nil {
		return errors.New("render pass still open at submit")
	}

	commandBuffer, err := e.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish command encoder: %w", err)
	}
	defer commandBuffer.Release()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Submit(commandBuffer)
	return nil
}

// wgpuEncoder records into a wgpu command encoder.
type wgpuEncoder struct {
	encoder *wgpu.CommandEncoder
	open    *wgpuRenderPass
}

func (e *wgpuEncoder) BeginRenderPass(desc *RenderPassDesc) (RenderPass, error) {
	if e.open != nil {
		return nil, fmt.Errorf("render pass %s begun while another pass is open", desc.Label)
	}

	colors := make([]wgpu.RenderPassColorAttachment, 0, len(desc.Colors))
	for i, ca := range desc.Colors {
		view, ok := ca.View.(*wgpu.TextureView)
		if !ok || view == nil {
			return nil, fmt.Errorf("render pass %s color %d has no wgpu view", desc.Label, i)
		}
		colors = append(colors, wgpu.RenderPassColorAttachment{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: ca.Clear,
		})
	}

	rpd := &wgpu.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: colors,
	}
	if desc.Depth != nil {
		view, ok := desc.Depth.View.(*wgpu.TextureView)
		if !ok || view == nil {
			return nil, fmt.Errorf("render pass %s depth has no wgpu view", desc.Label)
		}
		rpd.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: desc.Depth.Clear,
		}
	}

	pass := &wgpuRenderPass{owner: e, pass: e.encoder.BeginRenderPass(rpd)}
	e.open = pass
	return pass, nil
}

func (e *wgpuEncoder) CopyTextureToTexture(src, dst any, width, height uint32) error {
	srcTex, ok := src.(*wgpu.Texture)
	if !ok || srcTex == nil {
		return errors.New("copy source is not a wgpu texture")
	}
	dstTex, ok := dst.(*wgpu.Texture)
	if !ok || dstTex == nil {
		return errors.New("copy destination is not a wgpu texture")
	}
	e.encoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: srcTex, MipLevel: 0, Origin: wgpu.Origin3D{}, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyTexture{Texture: dstTex, MipLevel: 0, Origin: wgpu.Origin3D{}, Aspect: wgpu.TextureAspectAll},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	return nil
}

// wgpuRenderPass forwards draw commands to a wgpu render pass encoder.
type wgpuRenderPass struct {
	owner *wgpuEncoder
	pass  *wgpu.RenderPassEncoder
}

func (p *wgpuRenderPass) SetPipeline(pl any) {
	if rp, ok := pl.(*wgpu.RenderPipeline); ok {
		p.pass.SetPipeline(rp)
	}
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, group any) {
	if bg, ok := group.(*wgpu.BindGroup); ok {
		p.pass.SetBindGroup(index, bg, nil)
	}
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buf *Buffer) {
	if b, ok := buf.Handle.(*wgpu.Buffer); ok {
		p.pass.SetVertexBuffer(slot, b, 0, wgpu.WholeSize)
	}
}

func (p *wgpuRenderPass) SetIndexBuffer(buf *Buffer, format wgpu.IndexFormat) {
	if b, ok := buf.Handle.(*wgpu.Buffer); ok {
		p.pass.SetIndexBuffer(b, format, 0, wgpu.WholeSize)
	}
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *wgpuRenderPass) End() error {
	p.pass.End()
	p.owner.open = nil
	return nil
}
