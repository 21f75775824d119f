package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerZeroDeltaTimeKeepsState(t *testing.T) {
	cc := NewCameraController(WithPosition(1, 2, 3), WithOrientation(0.5, 0.25))
	for _, key := range []uint32{common.KeyW, common.KeyA, common.KeySpace, common.KeyLeftShift} {
		require.True(t, cc.ProcessKeyboard(key, true))
	}
	cc.ProcessMouse(400, -250)

	cc.Update(0)

	x, y, z := cc.Position()
	assert.Equal(t, [3]float32{1, 2, 3}, [3]float32{x, y, z})
	assert.Equal(t, float32(0.5), cc.Yaw())
	assert.Equal(t, float32(0.25), cc.Pitch())
}

func TestControllerMouseDeltaConsumedOnce(t *testing.T) {
	cc := NewCameraController()
	cc.ProcessMouse(100, 0)
	cc.Update(1)
	yaw := cc.Yaw()
	assert.InDelta(t, 100*0.002, yaw, 1e-6)

	cc.Update(1)
	assert.Equal(t, yaw, cc.Yaw(), "accumulated motion must be cleared after an update")
}

func TestControllerPitchClamp(t *testing.T) {
	cc := NewCameraController()
	inputs := []float64{-1e9, 5e8, 1e12, -3, -1e12, 7e6}
	for _, dy := range inputs {
		cc.ProcessMouse(0, dy)
		cc.Update(0.5)
		assert.LessOrEqual(t, math32.Abs(cc.Pitch()), MaxPitch)
	}

	cc.SetOrientation(0, 10)
	assert.Equal(t, MaxPitch, cc.Pitch())
	cc.SetOrientation(0, -10)
	assert.Equal(t, -MaxPitch, cc.Pitch())
}

func TestControllerKeyboardConsumption(t *testing.T) {
	cc := NewCameraController()
	tests := []struct {
		key      uint32
		consumed bool
	}{
		{common.KeyW, true},
		{common.KeyS, true},
		{common.KeyA, true},
		{common.KeyD, true},
		{common.KeyUp, true},
		{common.KeyDown, true},
		{common.KeyLeft, true},
		{common.KeyRight, true},
		{common.KeySpace, true},
		{common.KeyLeftShift, true},
		{common.KeyEsc, false},
		{'Q', false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.consumed, cc.ProcessKeyboard(tt.key, true), "key %d", tt.key)
		assert.Equal(t, tt.consumed, cc.ProcessKeyboard(tt.key, false), "key %d", tt.key)
	}
}

func TestControllerMovement(t *testing.T) {
	cc := NewCameraController(WithSpeed(2))
	cc.ProcessKeyboard(common.KeyW, true)
	cc.Update(0.5)
	x, y, z := cc.Position()
	assert.InDelta(t, 1.0, x, 1e-6)
	assert.InDelta(t, 0.0, y, 1e-6)
	assert.InDelta(t, 0.0, z, 1e-6)

	cc.ProcessKeyboard(common.KeyW, false)
	cc.ProcessKeyboard(common.KeySpace, true)
	cc.Update(1)
	_, y, _ = cc.Position()
	assert.InDelta(t, 2.0, y, 1e-6)

	cc.ProcessKeyboard(common.KeySpace, false)
	cc.ProcessKeyboard(common.KeyD, true)
	cc.Update(1)
	x, _, z = cc.Position()
	assert.InDelta(t, 1.0, x, 1e-6)
	assert.InDelta(t, 2.0, z, 1e-6)
}

func TestMouseLookGatesMotion(t *testing.T) {
	cc := NewCameraController()
	look := NewMouseLook()

	assert.False(t, look.Motion(cc, 50, 0))
	cc.Update(1)
	assert.Zero(t, cc.Yaw())

	look.SetButton(common.MouseButtonRight, true)
	assert.False(t, look.Active())

	look.SetButton(common.MouseButtonLeft, true)
	assert.True(t, look.Motion(cc, 50, 0))
	cc.Update(1)
	assert.InDelta(t, 50*0.002, cc.Yaw(), 1e-6)

	look.SetButton(common.MouseButtonLeft, false)
	assert.False(t, look.Motion(cc, 50, 0))
}

func TestCameraAspectOnlyChangesProjection(t *testing.T) {
	cc := NewCameraController(WithPosition(0, 1, 0))
	c := NewCamera(WithController(cc), WithAspect(1))
	view := c.ViewMatrix()

	c.SetAspect(2)
	assert.Equal(t, float32(2), c.Aspect())
	assert.Equal(t, view, c.ViewMatrix())
	x, y, z := cc.Position()
	assert.Equal(t, [3]float32{0, 1, 0}, [3]float32{x, y, z})

	c.SetAspect(0)
	assert.Equal(t, float32(2), c.Aspect())
}

func TestCameraUniformLayout(t *testing.T) {
	c := NewCamera(WithController(NewCameraController(WithPosition(4, 5, 6))))
	u := c.Uniform()
	assert.Equal(t, 144, u.Size())
	assert.Equal(t, [3]float32{4, 5, 6}, u.CameraPosition)

	// view-projection times its inverse is the identity
	product := common.Mat4(u.ViewProj).Mul(u.InvViewProj)
	identity := common.Mat4Identity()
	assert.InDeltaSlice(t, identity[:], product[:], 1e-3)

	buf := u.Marshal()
	require.Len(t, buf, 144)
}

func TestCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.InDelta(t, math32.Pi/4, c.Fov(), 1e-6)
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())
}
