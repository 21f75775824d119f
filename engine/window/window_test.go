package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorTrackerDeltas(t *testing.T) {
	var c cursorTracker

	_, _, ok := c.move(100, 50)
	assert.False(t, ok, "the first position only primes the tracker")

	dx, dy, ok := c.move(110, 45)
	assert.True(t, ok)
	assert.Equal(t, 10.0, dx)
	assert.Equal(t, -5.0, dy)

	c.reset()
	_, _, ok = c.move(0, 0)
	assert.False(t, ok, "re-entering the window must not jump")
	dx, dy, _ = c.move(0.5, 0.25)
	assert.Equal(t, 0.5, dx)
	assert.Equal(t, 0.25, dy)
}

func TestMotionCallback(t *testing.T) {
	w := &engineWindow{}
	var got [][2]float64
	w.SetMouseMotionCallback(func(dx, dy float64) {
		got = append(got, [2]float64{dx, dy})
	})

	w.cursorMoved(10, 10)
	w.cursorMoved(13, 6)
	w.cursorMoved(13, 6)
	assert.Equal(t, [][2]float64{{3, -4}, {0, 0}}, got)
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720, resizable: true}
	for _, opt := range []WindowBuilderOption{
		WithTitle("peel"),
		WithSize(800, 0),
		WithSizeLimits(1, 2, 3, 4),
		WithResizable(false),
	} {
		opt(w)
	}
	assert.Equal(t, "peel", w.title)
	assert.Equal(t, 800, w.width)
	assert.Equal(t, 720, w.height)
	assert.Equal(t, [4]int{1, 2, 3, 4}, [4]int{w.minWidth, w.minHeight, w.maxWidth, w.maxHeight})
	assert.False(t, w.resizable)
}
