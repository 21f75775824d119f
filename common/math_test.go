package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transform applies m to the point p and performs the perspective divide.
func transform(m Mat4, p [3]float32) [3]float32 {
	var out [4]float32
	for r := range 4 {
		out[r] = m.at(r, 0)*p[0] + m.at(r, 1)*p[1] + m.at(r, 2)*p[2] + m.at(r, 3)
	}
	return [3]float32{out[0] / out[3], out[1] / out[3], out[2] / out[3]}
}

func TestInverse(t *testing.T) {
	m := Perspective(math32.Pi/4, 1.5, 0.1, 100).Mul(LookAt([3]float32{1, 2, 3}, [3]float32{0, 0, 0}, [3]float32{0, 1, 0}))
	inv, ok := m.Inverse()
	require.True(t, ok)

	product := m.Mul(inv)
	identity := Mat4Identity()
	assert.InDeltaSlice(t, identity[:], product[:], 1e-4)

	_, ok = Mat4{}.Inverse()
	assert.False(t, ok, "the zero matrix is singular")
}

func TestPerspectiveDepthRange(t *testing.T) {
	p := Perspective(math32.Pi/2, 1, 0.1, 100)
	assert.InDelta(t, 0.0, transform(p, [3]float32{0, 0, -0.1})[2], 1e-5)
	assert.InDelta(t, 1.0, transform(p, [3]float32{0, 0, -100})[2], 1e-5)
}

func TestLookAt(t *testing.T) {
	view := LookAt([3]float32{0, 0, 5}, [3]float32{0, 0, 0}, [3]float32{0, 1, 0})
	got := transform(view, [3]float32{0, 0, 0})
	assert.InDeltaSlice(t, []float32{0, 0, -5}, got[:], 1e-6, "the target lies straight ahead on -Z")

	got = transform(view, [3]float32{1, 0, 5})
	assert.InDeltaSlice(t, []float32{1, 0, 0}, got[:], 1e-6, "+X stays to the right")
}

func TestVectorHelpers(t *testing.T) {
	assert.Equal(t, [3]float32{0, 0, 1}, Cross3([3]float32{1, 0, 0}, [3]float32{0, 1, 0}))
	assert.Equal(t, float32(32), Dot3([3]float32{1, 2, 3}, [3]float32{4, 5, 6}))
	assert.Equal(t, [3]float32{}, Normalize3([3]float32{}))
	assert.Equal(t, float32(0.5), Clamp(2, -0.5, 0.5))
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]uint32{}))
	b := SliceToBytes([]uint16{0x0102, 0x0304})
	assert.Equal(t, []byte{0x02, 0x01, 0x04, 0x03}, b)
}
