package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-peel/common"
)

// MouseLook gates mouse motion into a controller. Motion only reaches the controller
// while the look button is held; otherwise it is dropped.
type MouseLook struct {
	mu     sync.Mutex
	button int
	active bool
}

// NewMouseLook creates a MouseLook that is armed by the left mouse button.
//
// Returns:
//   - *MouseLook: the gate, initially inactive
func NewMouseLook() *MouseLook {
	return &MouseLook{button: common.MouseButtonLeft}
}

// SetButton records a mouse button transition. Only the look button changes state.
//
// Parameters:
//   - button: the GLFW mouse button number
//   - pressed: true on press, false on release
func (m *MouseLook) SetButton(button int, pressed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if button == m.button {
		m.active = pressed
	}
}

// Active reports whether the look button is currently held.
func (m *MouseLook) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Motion forwards a motion delta to ctrl if look mode is active.
//
// Parameters:
//   - ctrl: the controller to receive the motion
//   - dx, dy: cursor motion in pixels
//
// Returns:
//   - bool: true if the motion was forwarded
func (m *MouseLook) Motion(ctrl CameraController, dx, dy float64) bool {
	if ctrl == nil || !m.Active() {
		return false
	}
	ctrl.ProcessMouse(dx, dy)
	return true
}
