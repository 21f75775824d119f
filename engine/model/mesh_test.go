package model

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestCubeMesh(t *testing.T) {
	m := NewCube(1)
	assert.Equal(t, uint32(36), m.IndexCount())
	assert.Len(t, m.VertexData(), 24*32)
	assert.Len(t, m.IndexData(), 36*4)
	assert.Equal(t, wgpu.IndexFormatUint32, m.IndexFormat())
	assert.Equal(t, uint64(32), m.VertexLayout().ArrayStride)
}

func TestScreenQuad(t *testing.T) {
	q := NewScreenQuad()
	assert.Equal(t, uint32(6), q.IndexCount())
	assert.Equal(t, wgpu.IndexFormatUint16, q.IndexFormat())
	assert.Equal(t, []byte{0, 0, 2, 0, 1, 0, 1, 0, 2, 0, 3, 0}, q.IndexData())
	assert.Len(t, q.VertexData(), 48)
	assert.Equal(t, uint64(12), q.VertexLayout().ArrayStride)
}
