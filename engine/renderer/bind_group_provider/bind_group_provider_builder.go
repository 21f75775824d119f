package bind_group_provider

import "github.com/Carmen-Shannon/oxy-peel/engine/renderer/shader"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithTexture binds the sampled view of a render target.
//
// Parameters:
//   - binding: the binding index
//   - targetName: the render target name
//
// Returns:
//   - BindGroupProviderOption: a function that adds the texture source to this provider
func WithTexture(binding uint32, targetName string) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.sources = append(p.sources, source{binding: binding, target: targetName})
	}
}

// WithSampler binds the sampler of a render target.
//
// Parameters:
//   - binding: the binding index
//   - targetName: the render target name
//
// Returns:
//   - BindGroupProviderOption: a function that adds the sampler source to this provider
func WithSampler(binding uint32, targetName string) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.sources = append(p.sources, source{binding: binding, target: targetName, sampler: true})
	}
}

// WithTexturePair binds a render target's view at binding and its sampler at binding+1.
//
// Parameters:
//   - binding: the texture binding index
//   - targetName: the render target name
//
// Returns:
//   - BindGroupProviderOption: a function that adds both sources to this provider
func WithTexturePair(binding uint32, targetName string) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		WithTexture(binding, targetName)(p)
		WithSampler(binding+1, targetName)(p)
	}
}

// WithBuffer binds a buffer handle.
//
// Parameters:
//   - binding: the binding index
//   - kind: the buffer kind (uniform or storage)
//   - handle: the backend buffer
//   - size: the buffer size in bytes
//
// Returns:
//   - BindGroupProviderOption: a function that adds the buffer source to this provider
func WithBuffer(binding uint32, kind shader.ResourceKind, handle any, size uint64) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.sources = append(p.sources, source{binding: binding, kind: kind, handle: handle, size: size})
	}
}
