package renderer

import (
	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/Carmen-Shannon/oxy-peel/engine/instance"
	"github.com/Carmen-Shannon/oxy-peel/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a Renderer during construction via NewRenderer.
type RendererBuilderOption func(*rendererImpl)

// WithPanorama sets the decoded image the skybox cube is rendered from. HDR and EXR images are
// laid out as a 4x3 cross, standard images as an equirectangular map.
//
// Parameters:
//   - img: the decoded panorama
//
// Returns:
//   - RendererBuilderOption: a function that applies the panorama option to a renderer
func WithPanorama(img *common.TextureStagingData) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.panorama = img
	}
}

// WithDiffuse sets the decoded diffuse map sampled by the geometry pass.
//
// Parameters:
//   - img: the decoded diffuse texture
//
// Returns:
//   - RendererBuilderOption: a function that applies the diffuse option to a renderer
func WithDiffuse(img *common.TextureStagingData) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.diffuse = img
	}
}

// WithMesh sets the mesh drawn once per instance. Defaults to a unit cube.
//
// Parameters:
//   - mesh: the mesh
//
// Returns:
//   - RendererBuilderOption: a function that applies the mesh option to a renderer
func WithMesh(mesh model.Mesh) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.mesh = mesh
	}
}

// WithInstances sets the instance batch. Defaults to a 10x10 grid spaced 3 units apart.
//
// Parameters:
//   - instances: the instances, uploaded once
//
// Returns:
//   - RendererBuilderOption: a function that applies the instances option to a renderer
func WithInstances(instances []instance.Instance) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.instances = instances
	}
}

// WithSkyboxSize sets the edge length of each skybox cube face. Defaults to 2048.
//
// Parameters:
//   - size: the face size in pixels, ignored when zero
//
// Returns:
//   - RendererBuilderOption: a function that applies the skybox size option to a renderer
func WithSkyboxSize(size uint32) RendererBuilderOption {
	return func(r *rendererImpl) {
		if size > 0 {
			r.skyboxSize = size
		}
	}
}

// WithShaderValidation compiles every pipeline shader with naga during construction.
//
// Parameters:
//   - enabled: true to validate shaders
//
// Returns:
//   - RendererBuilderOption: a function that applies the validation option to a renderer
func WithShaderValidation(enabled bool) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.validateShaders = enabled
	}
}

// WithBackgroundColor sets the color the surface is cleared to before compositing.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the background option to a renderer
func WithBackgroundColor(color wgpu.Color) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.background = color
	}
}
