package common

import "github.com/chewxy/math32"

// Quat is a unit rotation quaternion stored as (x, y, z, w).
type Quat [4]float32

// QuatIdentity returns the quaternion representing no rotation.
func QuatIdentity() Quat {
	return Quat{0, 0, 0, 1}
}

// QuatFromAxisAngle builds a rotation of angle radians around the given axis.
// A zero-length axis yields the identity rotation.
//
// Parameters:
//   - axis: rotation axis, does not need to be normalized
//   - angle: rotation angle in radians
//
// Returns:
//   - Quat: the normalized rotation
func QuatFromAxisAngle(axis [3]float32, angle float32) Quat {
	n := Normalize3(axis)
	if n == ([3]float32{}) {
		return QuatIdentity()
	}
	s, c := math32.Sincos(angle / 2)
	return Quat{n[0] * s, n[1] * s, n[2] * s, c}
}

// Mat3 expands the quaternion into a column-major 3x3 rotation matrix.
func (q Quat) Mat3() [9]float32 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return [9]float32{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy),
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx),
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy),
	}
}

// TranslationRotation writes the column-major model matrix T * R into out.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - pos: translation in world space
//   - rot: rotation quaternion
func TranslationRotation(out []float32, pos [3]float32, rot Quat) {
	r := rot.Mat3()
	out[0], out[1], out[2], out[3] = r[0], r[1], r[2], 0
	out[4], out[5], out[6], out[7] = r[3], r[4], r[5], 0
	out[8], out[9], out[10], out[11] = r[6], r[7], r[8], 0
	out[12], out[13], out[14], out[15] = pos[0], pos[1], pos[2], 1
}

// Normalize3 returns v scaled to unit length, or the zero vector when v has no length.
func Normalize3(v [3]float32) [3]float32 {
	l := math32.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}

// Clamp limits v to the closed range [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
