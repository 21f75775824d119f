package light

import "sync"

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	position  [3]float32
	color     [3]float32
	intensity float32
	radius    float32
	enabled   bool
}

// Light defines the interface for a point light source.
//
// Lights are evaluated by the fullscreen composite pass. The ordered list of lights
// handed to the renderer is marshaled into a read-only storage buffer each frame;
// list order is the GPU array order.
type Light interface {
	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Radius returns the light's falloff radius in world units.
	//
	// Returns:
	//   - float32: the radius value
	Radius() float32

	// Enabled returns whether this light is active for rendering.
	// Disabled lights are marshaled with zero intensity so array indices stay stable.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the new intensity
	SetIntensity(intensity float32)

	// SetRadius sets the falloff radius.
	//
	// Parameters:
	//   - radius: the new radius in world units
	SetRadius(radius float32)

	// SetEnabled enables or disables the light.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// GPU returns the GPU representation of the light.
	//
	// Returns:
	//   - GPULight: the packed light
	GPU() GPULight
}

var _ Light = &lightImpl{}

// NewLight creates a white point light at the origin with unit intensity and radius.
//
// Parameters:
//   - options: functional options to configure the light
//
// Returns:
//   - Light: the newly created light
func NewLight(options ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:        &sync.Mutex{},
		color:     [3]float32{1, 1, 1},
		intensity: 1,
		radius:    1,
		enabled:   true,
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// NewDefaultLight creates the demo's single light: (5, 5, 5), warm white, unit strength and radius.
//
// Returns:
//   - Light: the default light
func NewDefaultLight() Light {
	return NewLight(
		WithPosition(5, 5, 5),
		WithColor(1, 0.8, 0.8),
		WithIntensity(1),
		WithRadius(1),
	)
}

func (l *lightImpl) Position() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Color() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) Radius() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.radius
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = [3]float32{x, y, z}
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = [3]float32{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetRadius(radius float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.radius = radius
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *lightImpl) GPU() GPULight {
	l.mu.Lock()
	defer l.mu.Unlock()
	g := GPULight{
		Position:  l.position,
		Color:     l.color,
		Intensity: l.intensity,
		Radius:    l.radius,
	}
	if !l.enabled {
		g.Intensity = 0
	}
	return g
}
