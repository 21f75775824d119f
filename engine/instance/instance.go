package instance

import (
	"github.com/Carmen-Shannon/oxy-peel/common"
)

// Instance places one copy of the mesh in the world.
type Instance struct {
	Position [3]float32
	Rotation common.Quat
}

// Raw expands the instance into its model and normal matrices.
// With rotation-only transforms the normal matrix is the rotation itself.
//
// Returns:
//   - InstanceRaw: the GPU-ready instance
func (i Instance) Raw() InstanceRaw {
	var raw InstanceRaw
	common.TranslationRotation(raw.Model[:], i.Position, i.Rotation)
	raw.Normal = i.Rotation.Mat3()
	return raw
}

// Grid lays out rows*cols instances on the XZ plane, spacing units apart and centered on the origin.
// The grid is shifted by half its extent so that, for the default 10x10 grid spaced 3 apart,
// instance (r, c) sits at (3c - 5, 0, 3r - 5).
//
// Parameters:
//   - rows: instances along Z
//   - cols: instances along X
//   - spacing: distance between neighbouring instances
//
// Returns:
//   - []Instance: the instances in row-major order, all with identity rotation
func Grid(rows, cols int, spacing float32) []Instance {
	displacement := [3]float32{float32(cols) * 0.5, 0, float32(rows) * 0.5}
	instances := make([]Instance, 0, rows*cols)
	for z := range rows {
		for x := range cols {
			instances = append(instances, Instance{
				Position: [3]float32{
					spacing*float32(x) - displacement[0],
					0,
					spacing*float32(z) - displacement[2],
				},
				Rotation: common.QuatIdentity(),
			})
		}
	}
	return instances
}

// MarshalInstances flattens instances into one vertex buffer payload.
//
// Parameters:
//   - instances: the instance batch
//
// Returns:
//   - []byte: len(instances)*InstanceRawSize bytes
func MarshalInstances(instances []Instance) []byte {
	buf := make([]byte, 0, len(instances)*InstanceRawSize)
	for _, inst := range instances {
		raw := inst.Raw()
		buf = append(buf, raw.Marshal()...)
	}
	return buf
}
