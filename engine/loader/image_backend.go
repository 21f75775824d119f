package loader

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	_ "github.com/mdouchement/hdr/codec/rgbe"
	_ "github.com/mrjoshuak/go-openexr/exr"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	hdrType = filetype.NewType("hdr", "image/vnd.radiance")
	exrType = filetype.NewType("exr", "image/x-exr")
)

func init() {
	filetype.AddMatcher(hdrType, matchRadiance)
	if !filetype.IsSupported("exr") {
		filetype.AddMatcher(exrType, matchOpenEXR)
	}
}

// matchRadiance recognizes the "#?RADIANCE" or "#?RGBE" signature line of Radiance HDR files.
func matchRadiance(buf []byte) bool {
	return bytes.HasPrefix(buf, []byte("#?RADIANCE")) || bytes.HasPrefix(buf, []byte("#?RGBE"))
}

// matchOpenEXR recognizes the OpenEXR magic number 0x762f3101.
func matchOpenEXR(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x76 && buf[1] == 0x2f && buf[2] == 0x31 && buf[3] == 0x01
}

// standardImageBackend decodes through the image package registry.
type standardImageBackend struct{}

var _ imageBackend = standardImageBackend{}

func (standardImageBackend) Sniff(data []byte) (common.ImageFormat, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return common.ImageFormatStandard, fmt.Errorf("failed to sniff image: %w", common.ErrImageFormatUnrecognized)
	}
	return classify(kind)
}

// classify maps a sniffed file type onto the format tag that drives texture layout.
func classify(kind types.Type) (common.ImageFormat, error) {
	switch kind.Extension {
	case "hdr":
		return common.ImageFormatHDR, nil
	case "exr":
		return common.ImageFormatEXR, nil
	}
	if kind == filetype.Unknown || kind.MIME.Type != "image" {
		return common.ImageFormatStandard, fmt.Errorf("unsupported content %q: %w", kind.MIME.Value, common.ErrImageFormatUnrecognized)
	}
	return common.ImageFormatStandard, nil
}

func (standardImageBackend) Decode(data []byte, format common.ImageFormat) (*common.TextureStagingData, error) {
	img, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w: %v", format, common.ErrImageDecodeFailed, err)
	}

	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	if format == common.ImageFormatStandard && (name == "hdr" || name == "exr") {
		format = common.ImageFormatHDR
		if name == "exr" {
			format = common.ImageFormatEXR
		}
	}

	return &common.TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Format: format,
	}, nil
}
