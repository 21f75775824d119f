package camera

// CameraController defines the interface for the first-person camera controller.
// Controllers own positional state (position, yaw, pitch). Camera reads from the controller
// and computes view/projection matrices. Input is buffered by ProcessKeyboard/ProcessMouse
// and integrated once per frame by Update.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - x, y, z: world-space camera position
	Position() (x, y, z float32)

	// Target returns a point one unit along the current view direction.
	//
	// Returns:
	//   - x, y, z: world-space look-at point
	Target() (x, y, z float32)

	// Yaw returns the horizontal view angle in radians. It is not wrapped.
	//
	// Returns:
	//   - float32: yaw in radians
	Yaw() float32

	// Pitch returns the vertical view angle in radians, always within [-MaxPitch, MaxPitch].
	//
	// Returns:
	//   - float32: pitch in radians
	Pitch() float32

	// SetPosition sets the camera's world-space position directly.
	//
	// Parameters:
	//   - x, y, z: world-space coordinates
	SetPosition(x, y, z float32)

	// SetOrientation sets yaw and pitch directly. Pitch is clamped.
	//
	// Parameters:
	//   - yaw: horizontal angle in radians
	//   - pitch: vertical angle in radians
	SetOrientation(yaw, pitch float32)

	// ProcessKeyboard records the held state of a movement key.
	// W/S/A/D, the arrow keys, Space and LeftShift are recognized.
	//
	// Parameters:
	//   - key: the GLFW key code
	//   - pressed: true on key down, false on key up
	//
	// Returns:
	//   - bool: true if the key is a movement key and the event was consumed
	ProcessKeyboard(key uint32, pressed bool) bool

	// ProcessMouse accumulates a mouse motion delta to be applied on the next Update.
	//
	// Parameters:
	//   - dx, dy: cursor motion in pixels since the last event
	ProcessMouse(dx, dy float64)

	// Update integrates held movement keys and accumulated mouse motion over dt seconds,
	// then clears the accumulated motion. A zero dt leaves position and orientation unchanged.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// Speed returns the movement speed in world units per second.
	//
	// Returns:
	//   - float32: movement speed
	Speed() float32

	// Sensitivity returns the mouse-look sensitivity in radians per pixel per second.
	//
	// Returns:
	//   - float32: mouse sensitivity
	Sensitivity() float32
}
