// Package target owns the textures the frame renders into and samples from.
package target

import (
	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Sampling selects the sampler created alongside a target.
type Sampling int

const (
	// SamplingNearest is a non-filtering sampler, the only kind valid for unfilterable formats.
	SamplingNearest Sampling = iota
	// SamplingLinear filters in every direction.
	SamplingLinear
	// SamplingLinearMag filters when magnifying and picks the nearest texel when minifying.
	SamplingLinearMag
)

// Filtering reports whether samplers of this kind use a linear filter.
func (s Sampling) Filtering() bool {
	return s != SamplingNearest
}

// Descriptor returns the sampler configuration for this kind. Every sampler clamps to the edge.
func (s Sampling) Descriptor() common.SamplerStagingData {
	d := common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   -100,
		LodMaxClamp:   100,
		MaxAnisotropy: 1,
	}
	switch s {
	case SamplingLinear:
		d.MagFilter = wgpu.FilterModeLinear
		d.MinFilter = wgpu.FilterModeLinear
		d.LodMinClamp, d.LodMaxClamp = 0, 32
	case SamplingLinearMag:
		d.MagFilter = wgpu.FilterModeLinear
		d.LodMinClamp, d.LodMaxClamp = 0, 32
	}
	return d
}

// FormatFilterable reports whether textures of the format can be sampled with a filtering sampler
// without optional device features.
func FormatFilterable(format wgpu.TextureFormat) bool {
	switch format {
	case wgpu.TextureFormatR32Float, wgpu.TextureFormatRG32Float, wgpu.TextureFormatRGBA32Float,
		wgpu.TextureFormatDepth32Float, wgpu.TextureFormatDepth24Plus, wgpu.TextureFormatDepth16Unorm:
		return false
	default:
		return true
	}
}

// TextureDesc is everything an allocator needs to create a texture, its sampled view and its sampler.
type TextureDesc struct {
	Label         string
	Width         uint32
	Height        uint32
	Layers        uint32
	Format        wgpu.TextureFormat
	Usage         wgpu.TextureUsage
	ViewDimension wgpu.TextureViewDimension
	Sampler       common.SamplerStagingData
}

// Allocation holds the backend objects of one texture. Handles are opaque to the manager.
type Allocation struct {
	Texture any
	// View is the sampled view covering every layer with the descriptor's view dimension.
	View    any
	Sampler any
	// LayerViews holds a 2D view per layer for textures with more than one layer, usable as render attachments.
	LayerViews []any
}

// TextureAllocator creates and destroys GPU textures for the manager.
type TextureAllocator interface {
	// AllocateTexture creates a texture with its sampled view, per-layer views and sampler.
	AllocateTexture(desc *TextureDesc) (*Allocation, error)
	// WriteTexture uploads tightly packed RGBA8 pixels into one layer.
	WriteTexture(a *Allocation, layer, width, height uint32, pixels []byte) error
	// ReleaseTexture destroys every object of the allocation.
	ReleaseTexture(a *Allocation)
}

// RenderTarget is a named texture owned by the Manager. A tracked target is replaced with a new
// value when the surface is resized, so holders must look it up again after a resize.
type RenderTarget struct {
	Name          string
	Width         uint32
	Height        uint32
	Layers        uint32
	Format        wgpu.TextureFormat
	Usage         wgpu.TextureUsage
	ViewDimension wgpu.TextureViewDimension
	Sampling      Sampling
	TracksSurface bool

	allocation *Allocation
}

// Filterable reports whether the texture's format allows filtered sampling.
func (t *RenderTarget) Filterable() bool {
	return FormatFilterable(t.Format)
}

// Texture returns the backend texture handle.
func (t *RenderTarget) Texture() any {
	return t.allocation.Texture
}

// View returns the backend sampled view handle.
func (t *RenderTarget) View() any {
	return t.allocation.View
}

// Sampler returns the backend sampler handle.
func (t *RenderTarget) Sampler() any {
	return t.allocation.Sampler
}

// LayerView returns the 2D view of one layer. Single-layer targets return their sampled view for layer 0.
func (t *RenderTarget) LayerView(layer uint32) any {
	if t.Layers <= 1 {
		if layer == 0 {
			return t.allocation.View
		}
		return nil
	}
	if int(layer) >= len(t.allocation.LayerViews) {
		return nil
	}
	return t.allocation.LayerViews[layer]
}

func (t *RenderTarget) descriptor() *TextureDesc {
	return &TextureDesc{
		Label:         t.Name,
		Width:         t.Width,
		Height:        t.Height,
		Layers:        t.Layers,
		Format:        t.Format,
		Usage:         t.Usage,
		ViewDimension: t.ViewDimension,
		Sampler:       t.Sampling.Descriptor(),
	}
}
