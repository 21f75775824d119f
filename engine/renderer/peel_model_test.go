package renderer_test

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/chewxy/math32"
	"github.com/mrjoshuak/go-openexr/half"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// halfBits encodes f as IEEE 754 binary16 with round-to-nearest-even, the conversion an
// RGBA16Float render target applies on store.
func halfBits(f float32) uint16 {
	b := math.Float32bits(f)
	sign := uint16(b>>16) & 0x8000
	exp := int((b>>23)&0xff) - 127 + 15
	mant := b & 0x7fffff

	switch {
	case exp >= 31:
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint(14 - exp)
		h := mant >> shift
		rem := mant & (1<<shift - 1)
		mid := uint32(1) << (shift - 1)
		if rem > mid || (rem == mid && h&1 == 1) {
			h++
		}
		return sign | uint16(h)
	}

	h := uint32(exp)<<10 | mant>>13
	rem := mant & 0x1fff
	if rem > 0x1000 || (rem == 0x1000 && h&1 == 1) {
		h++
	}
	return sign | uint16(h)
}

// toHalf rounds f to half precision, matching to_half in the depth_first and peel shaders.
func toHalf(f float32) float32 {
	return half.Half(halfBits(f)).Float32()
}

// peelDepths resolves the depth_first and peel passes for one pixel. Both targets clear to 1 and
// blend with MIN; the peel pass discards fragments at or in front of the stored first layer.
func peelDepths(fragments []float32) (float32, float32) {
	first := float32(1)
	for _, z := range fragments {
		first = min(first, toHalf(z))
	}
	second := float32(1)
	for _, z := range fragments {
		zq := toHalf(z)
		if zq <= first {
			continue
		}
		second = min(second, zq)
	}
	return first, second
}

type quad struct {
	x0, y0, x1, y1 int
	depth          float32
}

// peelLayers runs peelDepths over a width x height image covered by quads drawn in order.
func peelLayers(width, height int, quads []quad) ([]float32, []float32) {
	first := make([]float32, width*height)
	second := make([]float32, width*height)
	var fragments []float32
	for y := range height {
		for x := range width {
			fragments = fragments[:0]
			for _, q := range quads {
				if x >= q.x0 && x < q.x1 && y >= q.y0 && y < q.y1 {
					fragments = append(fragments, q.depth)
				}
			}
			first[y*width+x], second[y*width+x] = peelDepths(fragments)
		}
	}
	return first, second
}

// clipDepth projects a point distance units in front of the camera and returns its NDC depth.
func clipDepth(proj common.Mat4, distance float32) float32 {
	z := proj[10]*-distance + proj[14]
	w := proj[11]*-distance + proj[15]
	return z / w
}

func TestHalfRounding(t *testing.T) {
	tests := []struct {
		in   float32
		want float32
	}{
		{in: 0, want: 0},
		{in: 1, want: 1},
		{in: 0.5, want: 0.5},
		{in: 0.9678553, want: 0.9677734375},
		{in: 1 + 1.0/2048, want: 1},
		{in: 1 + 3.0/2048, want: 1 + 2.0/1024},
		{in: 65520, want: float32(math.Inf(1))},
		{in: 1e-8, want: 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, toHalf(tc.in), "toHalf(%v)", tc.in)
	}
}

func TestPeelLayersOrdering(t *testing.T) {
	const d1, d2 = float32(0.3), float32(0.6)
	quads := []quad{
		{x0: 0, y0: 0, x1: 6, y1: 6, depth: d2},
		{x0: 3, y0: 3, x1: 9, y1: 9, depth: d1},
	}
	for _, order := range [][]quad{quads, {quads[1], quads[0]}} {
		first, second := peelLayers(10, 10, order)

		overlap := 4*10 + 4
		assert.Equal(t, toHalf(d1), first[overlap])
		assert.Equal(t, toHalf(d2), second[overlap])

		onlyFar := 1*10 + 1
		assert.Equal(t, toHalf(d2), first[onlyFar])
		assert.Equal(t, float32(1), second[onlyFar])

		empty := 9*10 + 0
		assert.Equal(t, float32(1), first[empty])
		assert.Equal(t, float32(1), second[empty])
	}
}

func TestPeelRejectsFirstLayerRoundedDown(t *testing.T) {
	proj := common.Perspective(math32.Pi/4, 4.0/3.0, 0.1, 100)
	z1 := clipDepth(proj, 3.02)
	require.Less(t, toHalf(z1), z1, "the stored first layer lies in front of the surface it came from")

	z2 := clipDepth(proj, 3.5)
	first, second := peelDepths([]float32{z1, z2})
	assert.Equal(t, toHalf(z1), first)
	assert.Equal(t, toHalf(z2), second)
}

func TestPeelProjectedDepths(t *testing.T) {
	proj := common.Perspective(math32.Pi/4, 4.0/3.0, 0.1, 100)

	z1, z2 := clipDepth(proj, 10), clipDepth(proj, 10.5)
	require.Less(t, z1, z2)
	first, second := peelDepths([]float32{z2, z1})
	assert.Equal(t, toHalf(z1), first)
	assert.Equal(t, toHalf(z2), second)

	checked := 0
	for i := range 2700 {
		d := 3 + float32(i)*0.01
		near, far := clipDepth(proj, d), clipDepth(proj, d+0.5)
		if toHalf(near) == toHalf(far) {
			// both surfaces share one half-precision depth; there is no second layer to find
			continue
		}
		first, second := peelDepths([]float32{far, near})
		require.Equal(t, toHalf(near), first, "distance %v", d)
		require.Equal(t, toHalf(far), second, "distance %v: the nearest surface must not survive its own peel", d)
		checked++
	}
	assert.Greater(t, checked, 1000)
}
