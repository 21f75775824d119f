package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/chewxy/math32"
)

// MaxPitch is the largest absolute pitch the controller allows, just short of straight up or down.
const MaxPitch = math32.Pi/2 - 0.0001

type cameraControllerImpl struct {
	mu *sync.Mutex

	position [3]float32
	yaw      float32
	pitch    float32

	speed       float32
	sensitivity float32

	// held movement keys, 1 while held
	amountLeft     float32
	amountRight    float32
	amountForward  float32
	amountBackward float32
	amountUp       float32
	amountDown     float32

	// mouse motion accumulated since the last Update
	rotateHorizontal float32
	rotateVertical   float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a first-person controller at the origin looking down +X.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:          &sync.Mutex{},
		speed:       2.0,
		sensitivity: 0.002,
	}
	for _, option := range options {
		option(cc)
	}
	cc.pitch = common.Clamp(cc.pitch, -MaxPitch, MaxPitch)
	return cc
}

func (cc *cameraControllerImpl) Position() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1], cc.position[2]
}

func (cc *cameraControllerImpl) Target() (x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	f := cc.forward()
	return cc.position[0] + f[0], cc.position[1] + f[1], cc.position[2] + f[2]
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) SetPosition(x, y, z float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = [3]float32{x, y, z}
}

func (cc *cameraControllerImpl) SetOrientation(yaw, pitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw = yaw
	cc.pitch = common.Clamp(pitch, -MaxPitch, MaxPitch)
}

func (cc *cameraControllerImpl) Speed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.speed
}

func (cc *cameraControllerImpl) Sensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.sensitivity
}

func (cc *cameraControllerImpl) ProcessKeyboard(key uint32, pressed bool) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	var amount float32
	if pressed {
		amount = 1
	}

	switch key {
	case common.KeyW, common.KeyUp:
		cc.amountForward = amount
	case common.KeyS, common.KeyDown:
		cc.amountBackward = amount
	case common.KeyA, common.KeyLeft:
		cc.amountLeft = amount
	case common.KeyD, common.KeyRight:
		cc.amountRight = amount
	case common.KeySpace:
		cc.amountUp = amount
	case common.KeyLeftShift:
		cc.amountDown = amount
	default:
		return false
	}
	return true
}

func (cc *cameraControllerImpl) ProcessMouse(dx, dy float64) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.rotateHorizontal += float32(dx)
	cc.rotateVertical += float32(dy)
}

func (cc *cameraControllerImpl) Update(dt float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	// Movement stays on the horizontal plane regardless of pitch.
	sinYaw, cosYaw := math32.Sincos(cc.yaw)
	forward := [3]float32{cosYaw, 0, sinYaw}
	right := [3]float32{-sinYaw, 0, cosYaw}

	fwd := (cc.amountForward - cc.amountBackward) * cc.speed * dt
	side := (cc.amountRight - cc.amountLeft) * cc.speed * dt
	for i := range 3 {
		cc.position[i] += forward[i]*fwd + right[i]*side
	}
	cc.position[1] += (cc.amountUp - cc.amountDown) * cc.speed * dt

	cc.yaw += cc.rotateHorizontal * cc.sensitivity * dt
	cc.pitch -= cc.rotateVertical * cc.sensitivity * dt
	cc.pitch = common.Clamp(cc.pitch, -MaxPitch, MaxPitch)

	cc.rotateHorizontal = 0
	cc.rotateVertical = 0
}

// forward returns the unit view direction for the current yaw and pitch.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) forward() [3]float32 {
	sinPitch, cosPitch := math32.Sincos(cc.pitch)
	sinYaw, cosYaw := math32.Sincos(cc.yaw)
	return [3]float32{cosPitch * cosYaw, sinPitch, cosPitch * sinYaw}
}
