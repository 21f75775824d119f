package bind_group_provider

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/target"
)

// TargetLookup resolves render targets by name. target.Manager satisfies it.
type TargetLookup interface {
	Get(name string) (*target.RenderTarget, bool)
}

// Creator creates and destroys backend bind groups.
type Creator interface {
	// CreateBindGroup creates a bind group against a layout from checked resources.
	CreateBindGroup(label string, layout any, resources []pipeline.Resource) (any, error)
	// ReleaseBindGroup destroys a bind group.
	ReleaseBindGroup(group any)
}

// source is where the resource of one binding comes from.
type source struct {
	binding uint32
	// target is the render target name for texture and sampler bindings
	target  string
	sampler bool
	// buffer bindings carry their handle directly
	kind   shader.ResourceKind
	handle any
	size   uint64
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	mu *sync.Mutex

	// label is a debug label added for convenience.
	label  string
	schema *pipeline.BindGroupSchema

	sources []source

	// bindGroup is the backend bind group created by the last successful Build, or nil.
	bindGroup any
}

// BindGroupProvider binds named render targets and buffers to one bind group schema. The
// provider remembers where every resource comes from, so after targets are reallocated the
// bind group can be rebuilt from the same description.
//
// Usage pattern:
//  1. The renderer creates a provider for a schema with WithTexture, WithSampler and WithBuffer
//  2. Build resolves the sources, checks them against the schema and creates the bind group
//  3. Passes set BindGroup() on the render pass
//  4. After a resize, providers whose References report a resized target are built again
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Schema returns the layout this provider builds against.
	//
	// Returns:
	//   - *pipeline.BindGroupSchema: the schema
	Schema() *pipeline.BindGroupSchema

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if Build has not succeeded yet.
	//
	// Returns:
	//   - any: the backend bind group or nil
	BindGroup() any

	// Targets returns the names of the render targets the provider reads.
	//
	// Returns:
	//   - []string: target names in binding order, without duplicates
	Targets() []string

	// References reports whether the provider reads any of the named targets.
	//
	// Parameters:
	//   - names: render target names
	//
	// Returns:
	//   - bool: true if at least one name is read by this provider
	References(names ...string) bool

	// Resources resolves every source into a pipeline.Resource.
	//
	// Parameters:
	//   - targets: the render target registry
	//
	// Returns:
	//   - []pipeline.Resource: resources in binding order
	//   - error: an error if a named target does not exist
	Resources(targets TargetLookup) ([]pipeline.Resource, error)

	// Build resolves the sources, checks them against the schema and creates a new bind group,
	// releasing the previous one. On error the previous bind group is kept.
	//
	// Parameters:
	//   - c: the backend that creates bind groups
	//   - layout: the backend layout created from Schema
	//   - targets: the render target registry
	//
	// Returns:
	//   - error: an error wrapping common.ErrPipelineLayoutMismatch for incompatible resources, or the creation error
	Build(c Creator, layout any, targets TargetLookup) error

	// Release destroys the bind group held by this provider.
	//
	// Parameters:
	//   - c: the backend that created the bind group
	Release(c Creator)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a provider for a schema.
//
// Parameters:
//   - label: the debug label
//   - schema: the bind group schema the provider satisfies
//   - options: functional options declaring the source of every binding
//
// Returns:
//   - BindGroupProvider: the provider, not yet built
func NewBindGroupProvider(label string, schema *pipeline.BindGroupSchema, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		mu:     &sync.Mutex{},
		label:  label,
		schema: schema,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Schema() *pipeline.BindGroupSchema {
	return p.schema
}

func (p *bindGroupProvider) BindGroup() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindGroup
}

func (p *bindGroupProvider) Targets() []string {
	var names []string
	seen := make(map[string]bool)
	for _, s := range p.sources {
		if s.target != "" && !seen[s.target] {
			seen[s.target] = true
			names = append(names, s.target)
		}
	}
	return names
}

func (p *bindGroupProvider) References(names ...string) bool {
	for _, s := range p.sources {
		for _, n := range names {
			if s.target != "" && s.target == n {
				return true
			}
		}
	}
	return false
}

func (p *bindGroupProvider) Resources(targets TargetLookup) ([]pipeline.Resource, error) {
	resources := make([]pipeline.Resource, 0, len(p.sources))
	for _, s := range p.sources {
		if s.target == "" {
			resources = append(resources, pipeline.Resource{
				Binding: s.binding,
				Kind:    s.kind,
				Size:    s.size,
				Handle:  s.handle,
			})
			continue
		}

		rt, ok := targets.Get(s.target)
		if !ok {
			return nil, fmt.Errorf("bind group %s: render target %q does not exist", p.label, s.target)
		}
		if s.sampler {
			resources = append(resources, pipeline.Resource{
				Binding:    s.binding,
				Kind:       shader.ResourceSampler,
				Filterable: rt.Sampling.Filtering(),
				Handle:     rt.Sampler(),
			})
			continue
		}
		kind := shader.ResourceTexture
		if rt.Format == target.DepthFormat {
			kind = shader.ResourceDepthTexture
		}
		resources = append(resources, pipeline.Resource{
			Binding:       s.binding,
			Kind:          kind,
			ViewDimension: rt.ViewDimension,
			Filterable:    rt.Filterable(),
			Handle:        rt.View(),
		})
	}
	return resources, nil
}

func (p *bindGroupProvider) Build(c Creator, layout any, targets TargetLookup) error {
	resources, err := p.Resources(targets)
	if err != nil {
		return err
	}
	if err := pipeline.CheckResources(p.schema, resources); err != nil {
		return fmt.Errorf("failed to bind %s: %w", p.label, err)
	}
	group, err := c.CreateBindGroup(p.label, layout, resources)
	if err != nil {
		return fmt.Errorf("failed to create bind group %s: %w", p.label, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindGroup != nil {
		c.ReleaseBindGroup(p.bindGroup)
	}
	p.bindGroup = group
	return nil
}

func (p *bindGroupProvider) Release(c Creator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindGroup != nil {
		c.ReleaseBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
}
