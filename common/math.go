package common

import (
	"unsafe"

	"github.com/chewxy/math32"
)

// Mat4 is a 4x4 matrix in column-major order, the layout WGSL's mat4x4<f32> expects.
type Mat4 [16]float32

// Mat4Identity returns the identity matrix.
func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// SliceToBytes reinterprets a slice of fixed-size values as bytes for a GPU upload.
// The result aliases data and must not outlive or modify it.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte view of data, or nil if data is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	n := int(unsafe.Sizeof(data[0])) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(data))), n)
}

// at returns the element in row r, column c.
func (m *Mat4) at(r, c int) float32 {
	return m[c*4+r]
}

// Mul returns m * b.
func (m Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for c := range 4 {
		for r := range 4 {
			var sum float32
			for k := range 4 {
				sum += m.at(r, k) * b.at(k, c)
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// Inverse returns the inverse of m by Gauss-Jordan elimination with partial pivoting.
//
// Returns:
//   - Mat4: the inverse, or the identity when m is singular
//   - bool: false if m is singular
func (m Mat4) Inverse() (Mat4, bool) {
	// rows of the augmented matrix [m | I]
	var a [4][8]float32
	for r := range 4 {
		for c := range 4 {
			a[r][c] = m.at(r, c)
		}
		a[r][4+r] = 1
	}

	for col := range 4 {
		pivot := col
		for r := col + 1; r < 4; r++ {
			if math32.Abs(a[r][col]) > math32.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math32.Abs(a[pivot][col]) < 1e-12 {
			return Mat4Identity(), false
		}
		a[col], a[pivot] = a[pivot], a[col]

		inv := 1 / a[col][col]
		for c := range 8 {
			a[col][c] *= inv
		}
		for r := range 4 {
			if r == col || a[r][col] == 0 {
				continue
			}
			f := a[r][col]
			for c := range 8 {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	var out Mat4
	for r := range 4 {
		for c := range 4 {
			out[c*4+r] = a[r][4+c]
		}
	}
	return out, true
}

// Perspective builds a right-handed projection that maps view depth near..far to clip depth 0..1.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near: near plane distance, positive
//   - far: far plane distance, greater than near
//
// Returns:
//   - Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	depth := far / (near - far)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, depth, -1,
		0, 0, near * depth, 0,
	}
}

// LookAt builds a right-handed view matrix for an eye looking at center.
//
// Parameters:
//   - eye: camera position in world space
//   - center: the point looked at
//   - up: world up, usually +Y
//
// Returns:
//   - Mat4: the world-to-view matrix
func LookAt(eye, center, up [3]float32) Mat4 {
	back := Normalize3(Sub3(eye, center))
	if back == ([3]float32{}) {
		back = [3]float32{0, 0, 1}
	}
	right := Normalize3(Cross3(up, back))
	if right == ([3]float32{}) {
		right = [3]float32{1, 0, 0}
	}
	camUp := Cross3(back, right)

	return Mat4{
		right[0], camUp[0], back[0], 0,
		right[1], camUp[1], back[1], 0,
		right[2], camUp[2], back[2], 0,
		-Dot3(right, eye), -Dot3(camUp, eye), -Dot3(back, eye), 1,
	}
}

// Sub3 returns a - b.
func Sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Dot3 returns the dot product of a and b.
func Dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// Cross3 returns a × b.
func Cross3(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
