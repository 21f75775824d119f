package loader

import (
	"github.com/Carmen-Shannon/oxy-peel/common"
)

// imageBackend defines the format-specific half of image loading.
// Concrete implementations (e.g., standardImageBackend) handle sniffing and decoding.
type imageBackend interface {
	// Sniff classifies encoded bytes by their magic numbers.
	//
	// Parameters:
	//   - data: the encoded image bytes
	//
	// Returns:
	//   - common.ImageFormat: the detected format tag
	//   - error: wraps common.ErrImageFormatUnrecognized when the bytes are not a known image
	Sniff(data []byte) (common.ImageFormat, error)

	// Decode converts encoded bytes into tightly packed RGBA8 pixels.
	//
	// Parameters:
	//   - data: the encoded image bytes
	//   - format: the tag returned by Sniff
	//
	// Returns:
	//   - *common.TextureStagingData: the decoded pixels
	//   - error: wraps common.ErrImageDecodeFailed on failure
	Decode(data []byte, format common.ImageFormat) (*common.TextureStagingData, error)
}
