package pipeline

import _ "embed"

var (
	//go:embed assets/instanced_input.wgsl
	instancedInputSource string
	//go:embed assets/fullscreen_vertex.wgsl
	fullscreenVertexSource string
	//go:embed assets/cube_face.wgsl
	cubeFaceSource string

	//go:embed assets/geometry.wgsl
	geometrySource string
	//go:embed assets/depth_first.wgsl
	depthFirstSource string
	//go:embed assets/peel.wgsl
	peelSource string
	//go:embed assets/composite.wgsl
	compositeSource string
	//go:embed assets/skybox.wgsl
	skyboxSource string
	//go:embed assets/skybox_equirect.wgsl
	skyboxEquirectSource string
)
