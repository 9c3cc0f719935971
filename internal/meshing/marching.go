package meshing

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"marching-terrain/internal/profiling"
	"marching-terrain/internal/world"
)

// Interpolation selects how a vertex is placed along a crossed edge.
type Interpolation int

const (
	// InterpolateLinear places the vertex where the linear blend of the two
	// corner samples equals the isovalue.
	InterpolateLinear Interpolation = iota
	// InterpolateMidpoint always uses the edge midpoint. Blocky, but cheap.
	InterpolateMidpoint
)

func (i Interpolation) String() string {
	switch i {
	case InterpolateLinear:
		return "linear"
	case InterpolateMidpoint:
		return "midpoint"
	default:
		return "unknown"
	}
}

// Options controls extraction.
type Options struct {
	Interpolation Interpolation
	Isovalue      float32
	Colorize      bool
	// Colors are ramped from LowColor to HighColor by normalized density.
	LowColor  mgl32.Vec4
	HighColor mgl32.Vec4
}

// DefaultOptions extracts the zero isosurface with linear interpolation.
func DefaultOptions() Options {
	return Options{
		Interpolation: InterpolateLinear,
		LowColor:      mgl32.Vec4{0.36, 0.27, 0.18, 1},
		HighColor:     mgl32.Vec4{0.42, 0.62, 0.26, 1},
	}
}

// CubeIndex returns the 8-bit configuration of the cube whose minimum corner
// is (x, y, z). Bit i is set when corner i is inside, i.e. its sample has the
// sign bit set.
func CubeIndex(g *world.VoxelGrid, x, y, z int) uint8 {
	return cubeIndex(g, x, y, z, 0)
}

func cubeIndex(g *world.VoxelGrid, x, y, z int, iso float32) uint8 {
	var idx uint8
	for i, o := range cornerOffsets {
		if inside(g.Read(x+o[0], y+o[1], z+o[2]), iso) {
			idx |= 1 << i
		}
	}
	return idx
}

func inside(v, iso float32) bool {
	if iso == 0 {
		return math.Signbit(float64(v))
	}
	return v < iso
}

// InterpolateEdge returns the point on segment p1-p2 where a linear blend of
// s1 and s2 reaches iso. Equal samples fall back to the midpoint.
func InterpolateEdge(p1, p2 mgl32.Vec3, s1, s2, iso float32) mgl32.Vec3 {
	if s1 == s2 {
		return p1.Add(p2).Mul(0.5)
	}
	t := (iso - s1) / (s2 - s1)
	return p1.Add(p2.Sub(p1).Mul(t))
}

// MarchCube appends the triangles of one cube to dst and returns how many
// were added. The cube spans (x, y, z) to (x+1, y+1, z+1).
func MarchCube(g *world.VoxelGrid, x, y, z int, opts Options, dst *Mesh) int {
	idx := cubeIndex(g, x, y, z, opts.Isovalue)
	if edgeMask[idx] == 0 {
		return 0
	}

	var (
		pos     [8]mgl32.Vec3
		samples [8]float32
	)
	for i, o := range cornerOffsets {
		cx, cy, cz := x+o[0], y+o[1], z+o[2]
		pos[i] = mgl32.Vec3{float32(cx), float32(cy), float32(cz)}
		samples[i] = g.Read(cx, cy, cz)
	}

	// Only the crossed edges are solved, each at most once.
	var (
		edgeVerts  [12]mgl32.Vec3
		edgeColors [12]mgl32.Vec4
	)
	mask := edgeMask[idx]
	for e, c := range edgeCorners {
		if mask&(1<<e) == 0 {
			continue
		}
		a, b := c[0], c[1]
		if opts.Interpolation == InterpolateMidpoint {
			edgeVerts[e] = pos[a].Add(pos[b]).Mul(0.5)
		} else {
			edgeVerts[e] = InterpolateEdge(pos[a], pos[b], samples[a], samples[b], opts.Isovalue)
		}
		if opts.Colorize {
			t := (g.NormalizeValue(samples[a]) + g.NormalizeValue(samples[b])) / 2
			edgeColors[e] = opts.LowColor.Add(opts.HighColor.Sub(opts.LowColor).Mul(t))
		}
	}

	row := &triTable[idx]
	n := 0
	for i := 0; i+2 < len(row) && row[i] >= 0; i += 3 {
		e0, e1, e2 := row[i], row[i+1], row[i+2]
		tri := [3]mgl32.Vec3{edgeVerts[e0], edgeVerts[e1], edgeVerts[e2]}
		if opts.Colorize {
			cols := [3]mgl32.Vec4{edgeColors[e0], edgeColors[e1], edgeColors[e2]}
			dst.appendTriangle(tri, &cols)
		} else {
			dst.appendTriangle(tri, nil)
		}
		n++
	}
	return n
}

// Extract polygonises the whole grid. A grid whose samples all share a sign
// produces an empty mesh.
func Extract(g *world.VoxelGrid, opts Options) *Mesh {
	defer profiling.Track("meshing.Extract")()

	if g.Uniform() && opts.Isovalue == 0 {
		return NewMesh(0, opts.Colorize)
	}

	cubes := g.Size() - 1
	// Surfaces cross roughly one cube layer, so reserve for a couple of
	// triangles per column.
	m := NewMesh(cubes*cubes*2, opts.Colorize)
	for z := range cubes {
		for y := range cubes {
			for x := range cubes {
				MarchCube(g, x, y, z, opts, m)
			}
		}
	}
	return m
}
