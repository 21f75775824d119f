package common

import "errors"

// GPU acquisition failures. These are fatal at startup.
var (
	ErrAdapterUnavailable   = errors.New("no compatible GPU adapter available")
	ErrDeviceCreationFailed = errors.New("GPU device creation failed")
)

// Surface acquisition failures reported per frame.
var (
	ErrSurfaceLost        = errors.New("surface lost")
	ErrSurfaceOutdated    = errors.New("surface outdated")
	ErrSurfaceTimeout     = errors.New("surface acquire timed out")
	ErrSurfaceOutOfMemory = errors.New("out of memory acquiring surface")
)

// Asset loading failures.
var (
	ErrImageDecodeFailed       = errors.New("image decode failed")
	ErrImageFormatUnrecognized = errors.New("image format unrecognized")
)

// ErrPipelineLayoutMismatch reports a bind group or shader that does not satisfy the layout it is built against.
var ErrPipelineLayoutMismatch = errors.New("pipeline layout mismatch")

// IsRecoverableSurfaceError reports whether a frame that failed with err can simply be skipped.
// Lost and Outdated additionally require the surface to be reconfigured before the next frame.
//
// Parameters:
//   - err: the error returned from a frame
//
// Returns:
//   - bool: true for lost, outdated and timeout errors
func IsRecoverableSurfaceError(err error) bool {
	return errors.Is(err, ErrSurfaceLost) || errors.Is(err, ErrSurfaceOutdated) || errors.Is(err, ErrSurfaceTimeout)
}

// NeedsReconfigure reports whether err requires the surface to be reconfigured.
func NeedsReconfigure(err error) bool {
	return errors.Is(err, ErrSurfaceLost) || errors.Is(err, ErrSurfaceOutdated)
}
