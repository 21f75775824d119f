package main

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-peel/config"
	"github.com/Carmen-Shannon/oxy-peel/engine"
	"github.com/Carmen-Shannon/oxy-peel/engine/camera"
	"github.com/Carmen-Shannon/oxy-peel/engine/instance"
	"github.com/Carmen-Shannon/oxy-peel/engine/light"
	"github.com/Carmen-Shannon/oxy-peel/engine/loader"
	"github.com/Carmen-Shannon/oxy-peel/engine/model"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-peel/engine/renderer/recorder"
	"github.com/Carmen-Shannon/oxy-peel/engine/window"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

// Asset keys used with the loader.
const (
	assetPanorama = "panorama"
	assetDiffuse  = "diffuse"
)

func radians(deg float32) float32 {
	return deg * math32.Pi / 180
}

// newCamera builds the fly camera described by the camera section.
func newCamera(cfg *config.Config) camera.Camera {
	c := cfg.Camera
	return camera.NewCamera(
		camera.WithFov(radians(c.Fov)),
		camera.WithAspect(float32(cfg.Window.Width)/float32(cfg.Window.Height)),
		camera.WithClipPlanes(c.Near, c.Far),
		camera.WithController(camera.NewCameraController(
			camera.WithPosition(c.Position[0], c.Position[1], c.Position[2]),
			camera.WithOrientation(radians(c.Yaw), radians(c.Pitch)),
			camera.WithSpeed(c.Speed),
			camera.WithSensitivity(c.Sensitivity),
		)),
	)
}

// newLights builds the ordered light list.
func newLights(cfg *config.Config) []light.Light {
	lights := make([]light.Light, 0, len(cfg.Lights))
	for _, l := range cfg.Lights {
		lights = append(lights, light.NewLight(
			light.WithPosition(l.Position[0], l.Position[1], l.Position[2]),
			light.WithColor(l.Color[0], l.Color[1], l.Color[2]),
			light.WithIntensity(l.Intensity),
			light.WithRadius(l.Radius),
		))
	}
	return lights
}

// loadAssets decodes the configured panorama and diffuse images in parallel. Images without a
// path are left out so the renderer uses its built-in ones.
func loadAssets(cfg *config.Config) ([]renderer.RendererBuilderOption, error) {
	paths := make(map[string]string, 2)
	if cfg.Assets.Panorama != "" {
		paths[assetPanorama] = cfg.Assets.Panorama
	}
	if cfg.Assets.Diffuse != "" {
		paths[assetDiffuse] = cfg.Assets.Diffuse
	}
	if len(paths) == 0 {
		return nil, nil
	}

	l := loader.NewLoader(loader.WithWorkers(cfg.Assets.Workers))
	defer l.Close()
	images, err := l.LoadAll(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}
	var opts []renderer.RendererBuilderOption
	if img, ok := images[assetPanorama]; ok {
		opts = append(opts, renderer.WithPanorama(img))
	}
	if img, ok := images[assetDiffuse]; ok {
		opts = append(opts, renderer.WithDiffuse(img))
	}
	return opts, nil
}

// rendererOptions collects the renderer options for the scene and the loaded assets.
func rendererOptions(cfg *config.Config) ([]renderer.RendererBuilderOption, error) {
	bg := cfg.Render.Background
	opts := []renderer.RendererBuilderOption{
		renderer.WithMesh(model.NewCube(cfg.Grid.CubeSize)),
		renderer.WithInstances(instance.Grid(cfg.Grid.Rows, cfg.Grid.Cols, cfg.Grid.Spacing)),
		renderer.WithSkyboxSize(cfg.Render.SkyboxSize),
		renderer.WithShaderValidation(cfg.Render.ValidateShaders),
		renderer.WithBackgroundColor(wgpu.Color{R: bg[0], G: bg[1], B: bg[2], A: bg[3]}),
	}
	assets, err := loadAssets(cfg)
	if err != nil {
		return nil, err
	}
	return append(opts, assets...), nil
}

func engineOptions(cfg *config.Config) []engine.EngineBuilderOption {
	return []engine.EngineBuilderOption{
		engine.WithTickRate(cfg.Engine.TickRate),
		engine.WithRenderFrameLimit(cfg.Engine.FrameLimit),
		engine.WithProfiling(cfg.Engine.Profiling),
	}
}

// dryRun renders the configured number of frames against the recording backend and logs the
// pass sequence of the last frame.
//
// Returns:
//   - *recorder.Backend: the backend holding the recorded commands
//   - error: a setup or render error
func dryRun(cfg *config.Config) (*recorder.Backend, error) {
	backend := recorder.NewBackend(wgpu.TextureFormatBGRA8Unorm, uint32(cfg.Window.Width), uint32(cfg.Window.Height))
	opts, err := rendererOptions(cfg)
	if err != nil {
		return nil, err
	}
	r, err := renderer.NewRenderer(backend, newCamera(cfg), newLights(cfg), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	defer r.Release()

	eng, err := engine.NewEngine(r, append(engineOptions(cfg), engine.WithSize(backend.SurfaceSize()))...)
	if err != nil {
		return nil, err
	}
	if err := eng.RunFrames(cfg.Engine.DryRunFrames); err != nil {
		return nil, err
	}

	passes := backend.Passes()
	for _, p := range passes[max(0, len(passes)-len(r.FramePlan())):] {
		log.Printf("[Peel] pass %-12s colors=%d depth=%t draws=%d", p.Label, len(p.Colors), p.Depth != nil, len(p.Draws))
	}
	rendered, skipped := eng.Stats()
	log.Printf("[Peel] dry run recorded %d frames (%d skipped), %d commands", rendered, skipped, len(backend.Commands()))
	return backend, nil
}

// run opens the window and drives the demo until it is closed.
func run(cfg *config.Config) error {
	w, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithResizable(cfg.Window.Resizable),
	)
	if err != nil {
		return err
	}
	defer w.Close()

	presentMode := renderer.PresentModeVSync
	if cfg.Render.PresentMode == config.PresentUncapped {
		presentMode = renderer.PresentModeUncapped
	}
	width, height := uint32(w.Width()), uint32(w.Height())
	ctx, err := renderer.NewContext(w, width, height,
		renderer.WithPresentMode(presentMode),
		renderer.WithForceSoftwareRenderer(cfg.Render.Software),
	)
	if err != nil {
		return fmt.Errorf("failed to create GPU context: %w", err)
	}
	defer ctx.Release()

	opts, err := rendererOptions(cfg)
	if err != nil {
		return err
	}
	r, err := renderer.NewRenderer(ctx, newCamera(cfg), newLights(cfg), opts...)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer r.Release()

	eng, err := engine.NewEngine(r, append(engineOptions(cfg), engine.WithWindow(w), engine.WithSize(width, height))...)
	if err != nil {
		return err
	}
	return eng.Run()
}
