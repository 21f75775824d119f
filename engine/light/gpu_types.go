package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULightSource is the canonical WGSL definition of the Light struct.
// Matches GPULight layout exactly (48 bytes).
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULight is the GPU-aligned representation of a single point light.
// Matches the WGSL Light struct layout exactly (see GPULightSource).
// Size: 48 bytes.
type GPULight struct {
	Position  [3]float32 // offset  0: world-space position
	_pad0     float32    // offset 12
	Color     [3]float32 // offset 16: RGB color
	_pad1     float32    // offset 28
	Intensity float32    // offset 32: scalar multiplier
	Radius    float32    // offset 36: falloff radius
	_pad2     [2]float32 // offset 40: padding to 48 bytes
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 48)
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Position[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Color[i]))
	}
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Intensity))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Radius))
	return buf
}

// MarshalLights packs lights in list order into one storage buffer payload.
// An empty list still produces one zeroed element since storage bindings cannot be empty.
//
// Parameters:
//   - lights: the ordered light list
//
// Returns:
//   - []byte: len(lights)*48 bytes, or 48 zero bytes when lights is empty
func MarshalLights(lights []Light) []byte {
	if len(lights) == 0 {
		return make([]byte, 48)
	}
	buf := make([]byte, 0, len(lights)*48)
	for _, l := range lights {
		g := l.GPU()
		buf = append(buf, g.Marshal()...)
	}
	return buf
}
