package target

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-peel/common"
)

// CubeFaceCount is the number of layers of a cube texture.
const CubeFaceCount = 6

// crossFaces is the (column, row) of each cube face in a horizontal 4x3 cross, in layer order
// +X, -X, +Y, -Y, +Z, -Z.
var crossFaces = [CubeFaceCount][2]uint32{
	{2, 1},
	{0, 1},
	{1, 0},
	{1, 2},
	{1, 1},
	{3, 1},
}

// PanoramaFaceSize returns the face extent of a panorama laid out as a horizontal 4x3 cross.
//
// Parameters:
//   - width: the panorama width in pixels
//   - height: the panorama height in pixels
//
// Returns:
//   - uint32: face width, width / 4
//   - uint32: face height, height / 3
func PanoramaFaceSize(width, height uint32) (uint32, uint32) {
	return width / 4, height / 3
}

// ExtractCubeFaces copies the six faces of a 4x3 cross panorama into separate tightly packed
// RGBA8 layers.
//
// Parameters:
//   - img: the decoded panorama
//
// Returns:
//   - [][]byte: one pixel slice per face in layer order
//   - error: an error wrapping common.ErrImageDecodeFailed if the image is too small or truncated
func ExtractCubeFaces(img *common.TextureStagingData) ([][]byte, error) {
	faceW, faceH := PanoramaFaceSize(img.Width, img.Height)
	if faceW == 0 || faceH == 0 {
		return nil, fmt.Errorf("%w: panorama %dx%d is smaller than a 4x3 cross", common.ErrImageDecodeFailed, img.Width, img.Height)
	}
	if uint64(len(img.Pixels)) < uint64(img.Width)*uint64(img.Height)*4 {
		return nil, fmt.Errorf("%w: panorama holds %d bytes, want %d", common.ErrImageDecodeFailed, len(img.Pixels), img.Width*img.Height*4)
	}

	stride := img.Width * 4
	rowBytes := faceW * 4
	faces := make([][]byte, CubeFaceCount)
	for i, cell := range crossFaces {
		face := make([]byte, rowBytes*faceH)
		x0 := cell[0] * faceW * 4
		y0 := cell[1] * faceH
		for y := uint32(0); y < faceH; y++ {
			src := (y0+y)*stride + x0
			copy(face[y*rowBytes:(y+1)*rowBytes], img.Pixels[src:src+rowBytes])
		}
		faces[i] = face
	}
	return faces, nil
}
