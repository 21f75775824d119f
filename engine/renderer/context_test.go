package renderer

import (
	"errors"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfaceErrorMapping(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{msg: "SurfaceTexture status: Timeout", want: common.ErrSurfaceTimeout},
		{msg: "surface acquire timed out", want: common.ErrSurfaceTimeout},
		{msg: "status OUT_OF_MEMORY", want: common.ErrSurfaceOutOfMemory},
		{msg: "SurfaceTexture status: Outdated", want: common.ErrSurfaceOutdated},
		{msg: "SurfaceTexture status: Lost", want: common.ErrSurfaceLost},
		{msg: "something else entirely", want: common.ErrSurfaceLost},
	}
	for _, tc := range tests {
		t.Run(tc.msg, func(t *testing.T) {
			err := surfaceError(errors.New(tc.msg))
			assert.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestContextFailReleasesPartialState(t *testing.T) {
	c := &Context{mu: &sync.Mutex{}}
	cause := errors.New("failed to request adapter: no adapter")

	got, err := c.fail(cause)
	assert.Nil(t, got)
	require.ErrorIs(t, err, cause)
	assert.Nil(t, c.instance)
	assert.Nil(t, c.surface)
	assert.Nil(t, c.adapter)

	assert.NotPanics(t, c.Release, "releasing an already released context is a no-op")
}
