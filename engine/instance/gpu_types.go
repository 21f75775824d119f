package instance

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// InstanceRawSize is the packed size of InstanceRaw in bytes.
const InstanceRawSize = 100

// InstanceRaw is the per-instance vertex data: a column-major model matrix followed by
// a column-major 3x3 normal matrix. Size: 100 bytes.
type InstanceRaw struct {
	Model  [16]float32 // offset  0: model matrix (4 x vec4<f32>)
	Normal [9]float32  // offset 64: normal matrix (3 x vec3<f32>)
}

// Marshal serializes the InstanceRaw into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 100-byte buffer ready for GPU upload
func (r *InstanceRaw) Marshal() []byte {
	buf := make([]byte, InstanceRawSize)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(r.Model[i]))
	}
	for i := range 9 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(r.Normal[i]))
	}
	return buf
}

// VertexLayout describes InstanceRaw as an instance-stepped buffer.
// The model matrix occupies locations 5-8 and the normal matrix locations 9-11,
// leaving 0-4 free for per-vertex attributes.
//
// Returns:
//   - wgpu.VertexBufferLayout: the instance layout
func VertexLayout() wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, 0, 7)
	for col := range 4 {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         wgpu.VertexFormatFloat32x4,
			Offset:         uint64(col * 16),
			ShaderLocation: uint32(5 + col),
		})
	}
	for col := range 3 {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         wgpu.VertexFormatFloat32x3,
			Offset:         uint64(64 + col*12),
			ShaderLocation: uint32(9 + col),
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: InstanceRawSize,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes:  attrs,
	}
}
