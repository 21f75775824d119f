package model

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-peel/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// meshImpl is the implementation of the Mesh interface.
type meshImpl struct {
	name        string
	vertexData  []byte
	indexData   []byte
	indexCount  uint32
	indexFormat wgpu.IndexFormat
	layout      wgpu.VertexBufferLayout
}

// Mesh defines a GPU-ready vertex/index payload.
// Meshes are immutable; the renderer uploads them once at startup.
type Mesh interface {
	// Name retrieves the mesh identifier.
	//
	// Returns:
	//   - string: the mesh name
	Name() string

	// VertexData returns the packed vertex bytes.
	//
	// Returns:
	//   - []byte: vertex buffer contents
	VertexData() []byte

	// IndexData returns the packed index bytes.
	//
	// Returns:
	//   - []byte: index buffer contents
	IndexData() []byte

	// IndexCount returns the number of indices to draw.
	//
	// Returns:
	//   - uint32: index count
	IndexCount() uint32

	// IndexFormat returns the width of each index.
	//
	// Returns:
	//   - wgpu.IndexFormat: Uint16 or Uint32
	IndexFormat() wgpu.IndexFormat

	// VertexLayout returns the vertex buffer layout the mesh data is packed in.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the layout
	VertexLayout() wgpu.VertexBufferLayout
}

var _ Mesh = &meshImpl{}

// NewMesh packs vertices and 32-bit indices into a Mesh.
//
// Parameters:
//   - name: mesh identifier
//   - vertices: the vertex list
//   - indices: triangle list indices into vertices
//
// Returns:
//   - Mesh: the packed mesh
func NewMesh(name string, vertices []GPUVertex, indices []uint32) Mesh {
	vertexData := make([]byte, 0, len(vertices)*32)
	for i := range vertices {
		vertexData = append(vertexData, vertices[i].Marshal()...)
	}
	return &meshImpl{
		name:        name,
		vertexData:  vertexData,
		indexData:   common.SliceToBytes(indices),
		indexCount:  uint32(len(indices)),
		indexFormat: wgpu.IndexFormatUint32,
		layout:      VertexLayout(),
	}
}

// NewCube builds an axis-aligned cube with per-face normals and UVs.
//
// Parameters:
//   - size: edge length in world units
//
// Returns:
//   - Mesh: 24 vertices, 36 indices
func NewCube(size float32) Mesh {
	h := size / 2
	faces := []struct {
		normal [3]float32
		corner [4][3]float32
	}{
		{[3]float32{0, 0, 1}, [4][3]float32{{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{h, -h, -h}, {-h, -h, -h}, {-h, h, -h}, {h, h, -h}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{h, -h, h}, {h, -h, -h}, {h, h, -h}, {h, h, h}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-h, -h, -h}, {-h, -h, h}, {-h, h, h}, {-h, h, -h}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{-h, h, h}, {h, h, h}, {h, h, -h}, {-h, h, -h}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-h, -h, -h}, {h, -h, -h}, {h, -h, h}, {-h, -h, h}}},
	}
	uvs := [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		for i := range 4 {
			vertices = append(vertices, GPUVertex{Position: f.corner[i], Normal: f.normal, TexCoord: uvs[i]})
		}
		// counter-clockwise when viewed from outside
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return NewMesh("cube", vertices, indices)
}

// NewScreenQuad builds the two-triangle quad covering clip space, used by the composite and skybox passes.
//
// Returns:
//   - Mesh: 4 position-only vertices, 6 uint16 indices
func NewScreenQuad() Mesh {
	positions := [4][3]float32{
		{-1, 1, 0},
		{1, 1, 0},
		{-1, -1, 0},
		{1, -1, 0},
	}
	indices := []uint16{0, 2, 1, 1, 2, 3}

	vertexData := make([]byte, 0, len(positions)*12)
	for _, p := range positions {
		for _, c := range p {
			vertexData = binary.LittleEndian.AppendUint32(vertexData, math.Float32bits(c))
		}
	}
	indexData := make([]byte, 0, len(indices)*2)
	for _, i := range indices {
		indexData = binary.LittleEndian.AppendUint16(indexData, i)
	}
	return &meshImpl{
		name:        "screen_quad",
		vertexData:  vertexData,
		indexData:   indexData,
		indexCount:  uint32(len(indices)),
		indexFormat: wgpu.IndexFormatUint16,
		layout:      ScreenVertexLayout(),
	}
}

func (m *meshImpl) Name() string {
	return m.name
}

func (m *meshImpl) VertexData() []byte {
	return m.vertexData
}

func (m *meshImpl) IndexData() []byte {
	return m.indexData
}

func (m *meshImpl) IndexCount() uint32 {
	return m.indexCount
}

func (m *meshImpl) IndexFormat() wgpu.IndexFormat {
	return m.indexFormat
}

func (m *meshImpl) VertexLayout() wgpu.VertexBufferLayout {
	return m.layout
}
