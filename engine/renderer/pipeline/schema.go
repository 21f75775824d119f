package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// BindingSpec is the typed capability a single binding of a bind group requires.
type BindingSpec struct {
	Binding    uint32
	Kind       shader.ResourceKind
	Visibility wgpu.ShaderStage
	// ViewDimension applies to texture kinds.
	ViewDimension wgpu.TextureViewDimension
	// Filterable selects a filterable float texture or a filtering sampler.
	Filterable bool
	// MinSize is the smallest buffer accepted for buffer kinds.
	MinSize uint64
}

// BindGroupSchema describes the layout of one bind group.
type BindGroupSchema struct {
	Label   string
	Entries []BindingSpec
}

// Resource is a concrete GPU object offered for one binding when a bind group is created.
// Handle is the backend's opaque object (texture view, sampler or buffer).
type Resource struct {
	Binding       uint32
	Kind          shader.ResourceKind
	ViewDimension wgpu.TextureViewDimension
	Filterable    bool
	Size          uint64
	Handle        any
}

// Entry returns the entry for a binding.
func (s *BindGroupSchema) Entry(binding uint32) (BindingSpec, bool) {
	for _, e := range s.Entries {
		if e.Binding == binding {
			return e, true
		}
	}
	return BindingSpec{}, false
}

// LayoutDescriptor converts the schema to a wgpu bind group layout descriptor.
//
// Returns:
//   - *wgpu.BindGroupLayoutDescriptor: the descriptor, entries in schema order
func (s *BindGroupSchema) LayoutDescriptor() *wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(s.Entries))
	for _, e := range s.Entries {
		entry := wgpu.BindGroupLayoutEntry{
			Binding:    e.Binding,
			Visibility: e.Visibility,
		}
		switch e.Kind {
		case shader.ResourceUniformBuffer:
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: e.MinSize}
		case shader.ResourceReadOnlyStorageBuffer:
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: e.MinSize}
		case shader.ResourceStorageBuffer:
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage, MinBindingSize: e.MinSize}
		case shader.ResourceTexture:
			sampleType := wgpu.TextureSampleTypeUnfilterableFloat
			if e.Filterable {
				sampleType = wgpu.TextureSampleTypeFloat
			}
			entry.Texture = wgpu.TextureBindingLayout{SampleType: sampleType, ViewDimension: e.ViewDimension}
		case shader.ResourceDepthTexture:
			entry.Texture = wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeDepth, ViewDimension: e.ViewDimension}
		case shader.ResourceSampler:
			samplerType := wgpu.SamplerBindingTypeNonFiltering
			if e.Filterable {
				samplerType = wgpu.SamplerBindingTypeFiltering
			}
			entry.Sampler = wgpu.SamplerBindingLayout{Type: samplerType}
		case shader.ResourceComparisonSampler:
			entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeComparison}
		}
		entries = append(entries, entry)
	}
	return &wgpu.BindGroupLayoutDescriptor{
		Label:   s.Label,
		Entries: entries,
	}
}

// CheckShader verifies that a shader's declarations for one group agree with the schema in both
// directions: every declaration has an entry of the same kind and view dimension, every entry is
// declared, and buffer entries are at least as large as the WGSL type.
//
// Parameters:
//   - sh: the parsed shader
//   - group: the bind group index the schema is bound at
//
// Returns:
//   - error: an error wrapping common.ErrPipelineLayoutMismatch, or nil
func (s *BindGroupSchema) CheckShader(sh shader.Shader, group uint32) error {
	for _, d := range sh.GroupDeclarations(group) {
		want, ok := s.Entry(d.Binding)
		if !ok {
			return fmt.Errorf("%w: %s declares @group(%d) @binding(%d) %s missing from %s",
				common.ErrPipelineLayoutMismatch, sh.Key(), group, d.Binding, d.Name, s.Label)
		}
		if want.Kind != d.Kind {
			return fmt.Errorf("%w: %s binds %s as %s, %s expects %s",
				common.ErrPipelineLayoutMismatch, sh.Key(), d.Name, d.Kind, s.Label, want.Kind)
		}
		if (d.Kind == shader.ResourceTexture || d.Kind == shader.ResourceDepthTexture) && want.ViewDimension != d.ViewDimension {
			return fmt.Errorf("%w: %s declares %s with view dimension %v, %s expects %v",
				common.ErrPipelineLayoutMismatch, sh.Key(), d.Name, d.ViewDimension, s.Label, want.ViewDimension)
		}
		if d.Kind.IsBuffer() && d.MinSize > 0 && want.MinSize < d.MinSize {
			return fmt.Errorf("%w: %s needs %d bytes for %s, %s allows %d",
				common.ErrPipelineLayoutMismatch, sh.Key(), d.MinSize, d.Name, s.Label, want.MinSize)
		}
	}
	for _, want := range s.Entries {
		if _, ok := sh.Declaration(group, want.Binding); !ok {
			return fmt.Errorf("%w: %s binding %d is not declared by %s at group %d",
				common.ErrPipelineLayoutMismatch, s.Label, want.Binding, sh.Key(), group)
		}
	}
	return nil
}

// Check verifies that a set of resources satisfies the schema, one resource per binding.
//
// Parameters:
//   - resources: the resources offered for the bind group
//
// Returns:
//   - error: an error wrapping common.ErrPipelineLayoutMismatch, or nil
func (s *BindGroupSchema) Check(resources []Resource) error {
	return CheckResources(s, resources)
}

// CheckResources enforces the capability check performed before a bind group is created.
// A texture slot that requires filtering rejects unfilterable formats, a non-filtering sampler slot
// rejects filtering samplers, view dimensions must match exactly and buffers must meet MinSize.
//
// Parameters:
//   - schema: the layout the bind group is created against
//   - resources: the resources offered for the bind group
//
// Returns:
//   - error: an error wrapping common.ErrPipelineLayoutMismatch, or nil
func CheckResources(schema *BindGroupSchema, resources []Resource) error {
	seen := make(map[uint32]bool, len(resources))
	for _, r := range resources {
		want, ok := schema.Entry(r.Binding)
		if !ok {
			return fmt.Errorf("%w: %s has no binding %d", common.ErrPipelineLayoutMismatch, schema.Label, r.Binding)
		}
		if seen[r.Binding] {
			return fmt.Errorf("%w: %s binding %d supplied twice", common.ErrPipelineLayoutMismatch, schema.Label, r.Binding)
		}
		seen[r.Binding] = true

		if r.Kind != want.Kind {
			return fmt.Errorf("%w: %s binding %d expects %s, got %s",
				common.ErrPipelineLayoutMismatch, schema.Label, r.Binding, want.Kind, r.Kind)
		}
		switch {
		case want.Kind == shader.ResourceTexture || want.Kind == shader.ResourceDepthTexture:
			if r.ViewDimension != want.ViewDimension {
				return fmt.Errorf("%w: %s binding %d expects view dimension %v, got %v",
					common.ErrPipelineLayoutMismatch, schema.Label, r.Binding, want.ViewDimension, r.ViewDimension)
			}
			if want.Filterable && !r.Filterable {
				return fmt.Errorf("%w: %s binding %d requires a filterable texture",
					common.ErrPipelineLayoutMismatch, schema.Label, r.Binding)
			}
		case want.Kind == shader.ResourceSampler:
			if !want.Filterable && r.Filterable {
				return fmt.Errorf("%w: %s binding %d requires a non-filtering sampler",
					common.ErrPipelineLayoutMismatch, schema.Label, r.Binding)
			}
		case want.Kind.IsBuffer():
			if r.Size < want.MinSize {
				return fmt.Errorf("%w: %s binding %d needs at least %d bytes, got %d",
					common.ErrPipelineLayoutMismatch, schema.Label, r.Binding, want.MinSize, r.Size)
			}
		}
	}
	for _, want := range schema.Entries {
		if !seen[want.Binding] {
			return fmt.Errorf("%w: %s binding %d has no resource", common.ErrPipelineLayoutMismatch, schema.Label, want.Binding)
		}
	}
	return nil
}
