package renderer

import (
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceTarget names the acquired surface image in a pass's outputs.
const SurfaceTarget = "@surface"

// Names of the render targets the frame allocates.
const (
	TargetAlbedo     = "albedo"
	TargetPosition   = "position"
	TargetNormal     = "normal"
	TargetDepth      = "depth"
	TargetFirstDepth = "first_depth"
	TargetPeelDepth  = "peel_depth"
	TargetLastFrame  = "last_frame"
	TargetSkybox     = "skybox"
	TargetPanorama   = "panorama"
	TargetDiffuse    = "diffuse"
)

// Names of the bind groups the passes set.
const (
	BindDiffuse           = "diffuse"
	BindGeometryCamera    = "geometry_camera"
	BindDepthFirstCamera  = "depth_first_camera"
	BindPeelCamera        = "peel_camera"
	BindFirstDepth        = "first_depth"
	BindCompositeTextures = "composite_textures"
	BindCompositeCamera   = "composite_camera"
	BindUtils             = "utils"
	BindLights            = "lights"
	BindSkyboxSource      = "skybox_source"
)

// DrawKind selects what a pass draws.
type DrawKind int

const (
	// DrawInstances draws the mesh once per instance.
	DrawInstances DrawKind = iota
	// DrawScreenQuad draws the fullscreen quad once.
	DrawScreenQuad
)

func (k DrawKind) String() string {
	if k == DrawScreenQuad {
		return "screen quad"
	}
	return "instances"
}

// ColorOutput is a color attachment of a pass, by target name or SurfaceTarget.
type ColorOutput struct {
	Target string
	Clear  wgpu.Color
}

// DepthOutput is the depth attachment of a pass.
type DepthOutput struct {
	Target string
	Clear  float32
}

// PassDescriptor declares one pass of the frame. The renderer interprets descriptors in order
// against its backend.
type PassDescriptor struct {
	Name     string
	Pipeline pipeline.ID
	Colors   []ColorOutput
	Depth    *DepthOutput
	// BindGroups lists bind group names in group index order.
	BindGroups []string
	Draw       DrawKind
}

// Reads returns the names of the bind groups the pass sets.
func (p PassDescriptor) Reads() []string {
	return p.BindGroups
}

// Writes returns the names of the targets the pass renders into.
func (p PassDescriptor) Writes() []string {
	out := make([]string, 0, len(p.Colors)+1)
	for _, c := range p.Colors {
		out = append(out, c.Target)
	}
	if p.Depth != nil {
		out = append(out, p.Depth.Target)
	}
	return out
}

var (
	transparent = wgpu.Color{R: 0, G: 0, B: 0, A: 0}
	farDepth    = wgpu.Color{R: 1, G: 1, B: 1, A: 1}
)

// DefaultBackground is the clear color of the surface, visible wherever no geometry is drawn.
var DefaultBackground = wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0}

// framePlan builds the fixed pass sequence: G-buffer, nearest depth, second-nearest depth, composite.
func framePlan(background wgpu.Color) []PassDescriptor {
	return []PassDescriptor{
		{
			Name:     "geometry",
			Pipeline: pipeline.Geometry,
			Colors: []ColorOutput{
				{Target: TargetAlbedo, Clear: transparent},
				{Target: TargetPosition, Clear: transparent},
				{Target: TargetNormal, Clear: transparent},
			},
			Depth:      &DepthOutput{Target: TargetDepth, Clear: 1.0},
			BindGroups: []string{BindDiffuse, BindGeometryCamera},
			Draw:       DrawInstances,
		},
		{
			Name:       "depth_first",
			Pipeline:   pipeline.DepthFirst,
			Colors:     []ColorOutput{{Target: TargetFirstDepth, Clear: farDepth}},
			BindGroups: []string{BindDepthFirstCamera},
			Draw:       DrawInstances,
		},
		{
			Name:       "peel",
			Pipeline:   pipeline.Peel,
			Colors:     []ColorOutput{{Target: TargetPeelDepth, Clear: farDepth}},
			BindGroups: []string{BindPeelCamera, BindFirstDepth},
			Draw:       DrawInstances,
		},
		{
			Name:       "composite",
			Pipeline:   pipeline.Composite,
			Colors:     []ColorOutput{{Target: SurfaceTarget, Clear: background}},
			BindGroups: []string{BindCompositeTextures, BindCompositeCamera, BindUtils, BindLights},
			Draw:       DrawScreenQuad,
		},
	}
}
