package meshing

import "github.com/go-gl/mathgl/mgl32"

// Mesh is an indexed triangle soup in chunk-local lattice coordinates.
// Every triangle owns its three vertices; nothing is welded.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Colors    []mgl32.Vec4 // nil unless colorized
	Indices   []uint32
}

// NewMesh preallocates room for the given number of triangles.
func NewMesh(triangles int, colors bool) *Mesh {
	m := &Mesh{
		Positions: make([]mgl32.Vec3, 0, triangles*3),
		Normals:   make([]mgl32.Vec3, 0, triangles*3),
		Indices:   make([]uint32, 0, triangles*3),
	}
	if colors {
		m.Colors = make([]mgl32.Vec4, 0, triangles*3)
	}
	return m
}

func (m *Mesh) VertexCount() int   { return len(m.Positions) }
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Empty reports whether the mesh has no triangles. A nil mesh is empty.
func (m *Mesh) Empty() bool { return m == nil || len(m.Indices) == 0 }

// Bounds returns the axis-aligned box around all positions.
// The zero box is returned for an empty mesh.
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3) {
	if len(m.Positions) == 0 {
		return
	}
	lo, hi = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for i := range 3 {
			lo[i] = min(lo[i], p[i])
			hi[i] = max(hi[i], p[i])
		}
	}
	return lo, hi
}

// appendTriangle adds one triangle with a flat normal. The indices are written
// in reverse of emission order, which gives counter-clockwise winding seen
// from outside the surface.
func (m *Mesh) appendTriangle(v [3]mgl32.Vec3, c *[3]mgl32.Vec4) {
	base := uint32(len(m.Positions))
	n := faceNormal(v[2], v[1], v[0])
	m.Positions = append(m.Positions, v[0], v[1], v[2])
	m.Normals = append(m.Normals, n, n, n)
	if c != nil {
		m.Colors = append(m.Colors, c[0], c[1], c[2])
	}
	m.Indices = append(m.Indices, base+2, base+1, base)
}

// faceNormal is the unit normal of triangle (a, b, c) in that winding.
// Degenerate triangles get a zero normal instead of NaNs.
func faceNormal(a, b, c mgl32.Vec3) mgl32.Vec3 {
	n := b.Sub(a).Cross(c.Sub(a))
	if l := n.Len(); l > 1e-12 {
		return n.Mul(1 / l)
	}
	return mgl32.Vec3{}
}
