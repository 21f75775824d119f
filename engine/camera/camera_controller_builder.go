package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - x, y, z: world-space coordinates
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = [3]float32{x, y, z}
	}
}

// WithOrientation sets the initial yaw and pitch in radians.
//
// Parameters:
//   - yaw: horizontal angle in radians
//   - pitch: vertical angle in radians, clamped to MaxPitch
//
// Returns:
//   - CameraControllerOption: functional option to set the orientation
func WithOrientation(yaw, pitch float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.yaw = yaw
		cc.pitch = pitch
	}
}

// WithSpeed sets the movement speed in world units per second.
//
// Parameters:
//   - speed: movement speed (default 2.0)
//
// Returns:
//   - CameraControllerOption: functional option to set the speed
func WithSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.speed = speed
	}
}

// WithSensitivity sets the mouse-look sensitivity.
//
// Parameters:
//   - sensitivity: radians per pixel per second (default 0.002)
//
// Returns:
//   - CameraControllerOption: functional option to set the sensitivity
func WithSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.sensitivity = sensitivity
	}
}
