// Package config holds the demo's tunables. Defaults are embedded from default.toml; a user file
// only needs the keys it overrides.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

//go:embed default.toml
var defaultTOML []byte

// Present mode names accepted in render.present_mode.
const (
	PresentVSync    = "vsync"
	PresentUncapped = "uncapped"
)

// Config is the full demo configuration.
type Config struct {
	Window Window  `toml:"window"`
	Render Render  `toml:"render"`
	Engine Engine  `toml:"engine"`
	Assets Assets  `toml:"assets"`
	Grid   Grid    `toml:"grid"`
	Camera Camera  `toml:"camera"`
	Lights []Light `toml:"lights"`
}

type Window struct {
	Title     string `toml:"title"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	Resizable bool   `toml:"resizable"`
}

type Render struct {
	PresentMode     string     `toml:"present_mode"`
	Software        bool       `toml:"software"`
	SkyboxSize      uint32     `toml:"skybox_size"`
	ValidateShaders bool       `toml:"validate_shaders"`
	Background      [4]float64 `toml:"background"`
}

type Engine struct {
	TickRate   float64 `toml:"tick_rate"`
	FrameLimit float64 `toml:"frame_limit"`
	Profiling  bool    `toml:"profiling"`
	// DryRunFrames is the number of frames recorded by -dry-run.
	DryRunFrames int `toml:"dry_run_frames"`
}

// Assets names the panorama and diffuse image files. Empty paths select the built-in images.
type Assets struct {
	Panorama string `toml:"panorama"`
	Diffuse  string `toml:"diffuse"`
	Workers  int    `toml:"workers"`
}

type Grid struct {
	Rows     int     `toml:"rows"`
	Cols     int     `toml:"cols"`
	Spacing  float32 `toml:"spacing"`
	CubeSize float32 `toml:"cube_size"`
}

// Camera angles are in degrees.
type Camera struct {
	Position    [3]float32 `toml:"position"`
	Yaw         float32    `toml:"yaw"`
	Pitch       float32    `toml:"pitch"`
	Fov         float32    `toml:"fov"`
	Near        float32    `toml:"near"`
	Far         float32    `toml:"far"`
	Speed       float32    `toml:"speed"`
	Sensitivity float32    `toml:"sensitivity"`
}

type Light struct {
	Position  [3]float32 `toml:"position"`
	Color     [3]float32 `toml:"color"`
	Intensity float32    `toml:"intensity"`
	Radius    float32    `toml:"radius"`
}

// Default returns the embedded defaults.
//
// Returns:
//   - *Config: the default configuration
func Default() *Config {
	cfg := &Config{}
	if err := toml.Unmarshal(defaultTOML, cfg); err != nil {
		panic(fmt.Sprintf("embedded default.toml is invalid: %v", err))
	}
	return cfg
}

// Load reads the TOML file at path over the defaults. An empty path returns the defaults.
//
// Parameters:
//   - path: the config file, or "" for none
//
// Returns:
//   - *Config: the merged configuration
//   - error: an error if the file cannot be read, has unknown keys, or fails validation
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults. A [[lights]] list in data replaces the default lights.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - *Config: the merged configuration
//   - error: a decode or validation error
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	defaultLights := cfg.Lights
	cfg.Lights = nil

	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("failed to decode config: %s", strict.String())
		}
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Lights == nil {
		cfg.Lights = defaultLights
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the ranges the renderer and engine depend on.
//
// Returns:
//   - error: every violation joined, or nil
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	switch c.Render.PresentMode {
	case PresentVSync, PresentUncapped:
	default:
		errs = append(errs, fmt.Errorf("render.present_mode must be %q or %q, got %q", PresentVSync, PresentUncapped, c.Render.PresentMode))
	}
	if c.Render.SkyboxSize == 0 {
		errs = append(errs, errors.New("render.skybox_size must be positive"))
	}
	if c.Engine.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("engine.tick_rate must be positive, got %v", c.Engine.TickRate))
	}
	if c.Grid.Rows <= 0 || c.Grid.Cols <= 0 {
		errs = append(errs, fmt.Errorf("grid must have at least one row and column, got %dx%d", c.Grid.Rows, c.Grid.Cols))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera clip planes must satisfy 0 < near < far, got %v/%v", c.Camera.Near, c.Camera.Far))
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		errs = append(errs, fmt.Errorf("camera.fov must be in (0, 180) degrees, got %v", c.Camera.Fov))
	}
	return errors.Join(errs...)
}
