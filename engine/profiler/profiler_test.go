package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithMemoryStats(false), WithQuiet(true))

	for i := 0; i < 59; i++ {
		clock.t = clock.t.Add(16 * time.Millisecond)
		_, reported := p.Tick()
		require.False(t, reported, "tick %d", i)
	}
	p.Skip()
	clock.t = clock.t.Add(60 * time.Millisecond)
	stats, reported := p.Tick()
	require.True(t, reported)
	assert.Equal(t, 60, stats.Frames)
	assert.InDelta(t, 60.0, stats.FPS, 1e-9)
	assert.Equal(t, 1, stats.SkippedFrames)
	assert.Zero(t, stats.HeapMB)

	clock.t = clock.t.Add(time.Millisecond)
	_, reported = p.Tick()
	assert.False(t, reported, "a new interval starts after reporting")
}

func TestIntervalOption(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(10*time.Millisecond), WithQuiet(true))
	clock.t = clock.t.Add(10 * time.Millisecond)
	stats, reported := p.Tick()
	require.True(t, reported)
	assert.Positive(t, stats.SysMB)
	assert.Contains(t, stats.String(), "FPS: 100.00")
}
