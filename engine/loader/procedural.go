package loader

import (
	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/chewxy/math32"
)

// Checkerboard builds a flat RGBA image of alternating light and dark squares.
//
// Parameters:
//   - size: the width and height in pixels
//   - cells: the number of squares along each side
//
// Returns:
//   - *common.TextureStagingData: the image, tagged standard
func Checkerboard(size, cells uint32) *common.TextureStagingData {
	if cells == 0 {
		cells = 1
	}
	cell := max(size/cells, 1)
	pix := make([]byte, size*size*4)
	for y := uint32(0); y < size; y++ {
		for x := uint32(0); x < size; x++ {
			v := byte(200)
			if (x/cell+y/cell)%2 == 1 {
				v = 60
			}
			i := (y*size + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 160
		}
	}
	return &common.TextureStagingData{Pixels: pix, Width: size, Height: size, Format: common.ImageFormatStandard}
}

// SkyCross builds a 4x3 cross panorama whose faces shade from a horizon colour to a zenith colour
// by the vertical component of each texel's direction.
//
// Parameters:
//   - face: the edge length of one face in pixels
//
// Returns:
//   - *common.TextureStagingData: the panorama, tagged HDR so it is laid out as a cube
func SkyCross(face uint32) *common.TextureStagingData {
	width, height := face*4, face*3
	pix := make([]byte, width*height*4)

	horizon := [3]float32{0.85, 0.80, 0.70}
	zenith := [3]float32{0.15, 0.35, 0.75}
	ground := [3]float32{0.25, 0.22, 0.20}

	for y := uint32(0); y < height; y++ {
		for x := uint32(0); x < width; x++ {
			col, row := x/face, y/face
			u := (float32(x%face)+0.5)/float32(face)*2 - 1
			v := (float32(y%face)+0.5)/float32(face)*2 - 1

			var up float32
			switch {
			case row == 0 && col == 1:
				up = 1
			case row == 2 && col == 1:
				up = -1
			case row == 1:
				up = -v / math32.Sqrt(1+u*u+v*v)
			default:
				continue
			}

			target := zenith
			if up < 0 {
				target = ground
			}
			t := math32.Min(math32.Abs(up), 1)
			i := (y*width + x) * 4
			for c := 0; c < 3; c++ {
				pix[i+uint32(c)] = byte((horizon[c] + (target[c]-horizon[c])*t) * 255)
			}
			pix[i+3] = 255
		}
	}
	return &common.TextureStagingData{Pixels: pix, Width: width, Height: height, Format: common.ImageFormatHDR}
}
