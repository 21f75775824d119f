package loader

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSniffFormats(t *testing.T) {
	b := standardImageBackend{}
	tests := []struct {
		name   string
		data   []byte
		format common.ImageFormat
		err    error
	}{
		{"png", encodePNG(t, 2, 2), common.ImageFormatStandard, nil},
		{"radiance", []byte("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n-Y 1 +X 1\n"), common.ImageFormatHDR, nil},
		{"rgbe", []byte("#?RGBE\nFORMAT=32-bit_rle_rgbe\n\n"), common.ImageFormatHDR, nil},
		{"exr", []byte{0x76, 0x2f, 0x31, 0x01, 2, 0, 0, 0}, common.ImageFormatEXR, nil},
		{"text", []byte("hello, not an image"), common.ImageFormatStandard, common.ErrImageFormatUnrecognized},
		{"empty", nil, common.ImageFormatStandard, common.ErrImageFormatUnrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := b.Sniff(tt.data)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
		})
	}
}

func TestDecodePNG(t *testing.T) {
	l := NewLoader()
	img, err := l.Decode("diffuse", encodePNG(t, 4, 3))
	require.NoError(t, err)
	assert.Equal(t, uint32(4), img.Width)
	assert.Equal(t, uint32(3), img.Height)
	assert.Equal(t, common.ImageFormatStandard, img.Format)
	assert.Len(t, img.Pixels, 4*3*4)
	assert.Equal(t, []byte{3, 2, 7, 255}, img.Pixels[(2*4+3)*4:(2*4+3)*4+4])
	assert.Same(t, img, l.Get("diffuse"))
}

func TestDecodeCorruptImage(t *testing.T) {
	l := NewLoader()
	data := encodePNG(t, 4, 4)
	_, err := l.Decode("broken", data[:20])
	assert.ErrorIs(t, err, common.ErrImageDecodeFailed)
	assert.Nil(t, l.Get("broken"))
}

func TestLoadAllParallel(t *testing.T) {
	dir := t.TempDir()
	paths := map[string]string{}
	for _, name := range []string{"a", "b", "c"} {
		p := filepath.Join(dir, name+".png")
		require.NoError(t, os.WriteFile(p, encodePNG(t, 2, 2), 0o644))
		paths[name] = p
	}
	paths["missing"] = filepath.Join(dir, "missing.png")

	l := NewLoader(WithWorkers(3))
	images, err := l.LoadAll(paths)
	assert.Error(t, err)
	assert.Len(t, images, 3)
	for _, name := range []string{"a", "b", "c"} {
		assert.NotNil(t, l.Get(name))
	}
	l.Close()
}

func TestPoolStartsOnLoadAllAndStopsOnClose(t *testing.T) {
	l := NewLoader()
	impl := l.(*loader)
	_, err := l.Decode("diffuse", encodePNG(t, 2, 2))
	require.NoError(t, err)
	assert.Nil(t, impl.pool, "decoding alone does not start workers")

	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 2, 2), 0o644))
	_, err = l.LoadAll(map[string]string{"a": path})
	require.NoError(t, err)
	assert.NotNil(t, impl.pool)

	l.Close()
	assert.Nil(t, impl.pool)
	l.Close()

	_, err = l.LoadAll(map[string]string{"b": path})
	require.NoError(t, err, "a closed loader starts a new pool")
	l.Close()
}

func TestProceduralImages(t *testing.T) {
	board := Checkerboard(8, 2)
	assert.Equal(t, common.ImageFormatStandard, board.Format)
	require.Len(t, board.Pixels, 8*8*4)
	assert.Equal(t, byte(200), board.Pixels[0])
	assert.Equal(t, byte(60), board.Pixels[4*4])

	sky := SkyCross(4)
	assert.Equal(t, common.ImageFormatHDR, sky.Format)
	assert.Equal(t, uint32(16), sky.Width)
	assert.Equal(t, uint32(12), sky.Height)
	require.Len(t, sky.Pixels, 16*12*4)
	// the +Y face sits at column 1 of row 0 and is opaque, the unused corner is empty
	assert.Equal(t, byte(255), sky.Pixels[(0*16+4)*4+3])
	assert.Equal(t, byte(0), sky.Pixels[3])
}
