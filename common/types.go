// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// ImageFormat tags decoded image data with the encoding it came from.
// The tag decides whether a texture is uploaded flat or reinterpreted as a cubemap.
type ImageFormat int

const (
	// ImageFormatStandard covers flat images such as PNG, JPEG, WebP, BMP and TIFF.
	ImageFormatStandard ImageFormat = iota
	// ImageFormatHDR is a Radiance RGBE panorama.
	ImageFormatHDR
	// ImageFormatEXR is an OpenEXR panorama.
	ImageFormatEXR
)

// IsPanorama reports whether images of this format are laid out as a 4x3 cube cross.
func (f ImageFormat) IsPanorama() bool {
	return f == ImageFormatHDR || f == ImageFormatEXR
}

func (f ImageFormat) String() string {
	switch f {
	case ImageFormatHDR:
		return "hdr"
	case ImageFormatEXR:
		return "exr"
	default:
		return "standard"
	}
}

// TextureStagingData holds RGBA pixel data pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the source image in pixels.
	Width uint32
	// Height is the height of the source image in pixels.
	Height uint32
	// Format is the encoding the pixels were decoded from.
	Format ImageFormat
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}
