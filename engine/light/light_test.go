package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFloat(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func TestGPULightLayout(t *testing.T) {
	g := NewDefaultLight().GPU()
	require.Equal(t, 48, g.Size())

	buf := g.Marshal()
	require.Len(t, buf, 48)
	assert.Equal(t, float32(5), readFloat(buf, 0))
	assert.Equal(t, float32(5), readFloat(buf, 8))
	assert.Equal(t, float32(1), readFloat(buf, 16))
	assert.Equal(t, float32(0.8), readFloat(buf, 20))
	assert.Equal(t, float32(0.8), readFloat(buf, 24))
	assert.Equal(t, float32(1), readFloat(buf, 32))
	assert.Equal(t, float32(1), readFloat(buf, 36))
}

func TestMarshalLightsOrder(t *testing.T) {
	lights := []Light{
		NewLight(WithPosition(1, 0, 0)),
		NewLight(WithPosition(2, 0, 0), WithEnabled(false), WithIntensity(3)),
	}
	buf := MarshalLights(lights)
	require.Len(t, buf, 96)
	assert.Equal(t, float32(1), readFloat(buf, 0))
	assert.Equal(t, float32(2), readFloat(buf, 48))
	assert.Zero(t, readFloat(buf, 48+32), "disabled lights upload zero intensity")

	assert.Len(t, MarshalLights(nil), 48)
}
