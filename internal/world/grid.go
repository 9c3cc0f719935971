package world

import (
	"fmt"
	"math"
)

// VoxelGrid holds sampled density values for one chunk.
// Samples cover lattice points 0..Size-1 on each axis, where Size is the
// chunk edge plus one, so neighbouring chunks share a face of samples.
//
// The flat layout is x + y*size + z*size^2.
type VoxelGrid struct {
	data  []float32
	size  int
	coord ChunkCoord
	min   float32
	max   float32
	// Sign bits seen so far; -0 counts as negative.
	negative, positive bool
}

// NewVoxelGrid allocates an empty grid able to hold size^3 samples.
func NewVoxelGrid(size int, coord ChunkCoord) *VoxelGrid {
	if size < 2 {
		panic(fmt.Sprintf("world: voxel grid size %d must be at least 2", size))
	}
	return &VoxelGrid{
		data:  make([]float32, 0, size*size*size),
		size:  size,
		coord: coord,
		min:   math.MaxFloat32,
		max:   -math.MaxFloat32,
	}
}

// Push appends the next sample. Samples must arrive z-outer, y-middle, x-inner.
func (g *VoxelGrid) Push(value float32) {
	if len(g.data) == cap(g.data) {
		panic(fmt.Sprintf("world: voxel grid %v already holds %d samples", g.coord, len(g.data)))
	}
	if value > g.max {
		g.max = value
	}
	if value < g.min {
		g.min = value
	}
	if math.Signbit(float64(value)) {
		g.negative = true
	} else {
		g.positive = true
	}
	g.data = append(g.data, value)
}

// Read returns the sample at (x, y, z). Out-of-range coordinates panic:
// they mean the sampler and the mesher disagree about the grid size.
func (g *VoxelGrid) Read(x, y, z int) float32 {
	if !g.inBounds(x, y, z) {
		panic(fmt.Sprintf("world: voxel grid read (%d,%d,%d) outside size %d", x, y, z, g.size))
	}
	i := Index(x, y, z, g.size)
	if i >= len(g.data) {
		panic(fmt.Sprintf("world: voxel grid read (%d,%d,%d) before sample %d was pushed", x, y, z, i))
	}
	return g.data[i]
}

// NormalizeValue maps v into [0,1] using the observed bounds.
// Only meant for coloring; the isosurface test always uses raw values.
func (g *VoxelGrid) NormalizeValue(v float32) float32 {
	if len(g.data) == 0 || g.max <= g.min {
		return 0
	}
	n := (v - g.min) / (g.max - g.min)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

func (g *VoxelGrid) inBounds(x, y, z int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size && z >= 0 && z < g.size
}

// Size returns the number of samples along one axis.
func (g *VoxelGrid) Size() int { return g.size }

// Coord returns the chunk the grid was sampled for.
func (g *VoxelGrid) Coord() ChunkCoord { return g.coord }

// Len returns the number of samples pushed so far.
func (g *VoxelGrid) Len() int { return len(g.data) }

// Complete reports whether every lattice point has been sampled.
func (g *VoxelGrid) Complete() bool { return len(g.data) == g.size*g.size*g.size }

// Bounds returns the smallest and largest sample seen.
func (g *VoxelGrid) Bounds() (lo, hi float32) { return g.min, g.max }

// Uniform reports whether every sample has the same sign bit, meaning the
// chunk holds no surface at all. -0 and +0 differ.
func (g *VoxelGrid) Uniform() bool {
	return !(g.negative && g.positive)
}

// Index linearizes lattice coordinates.
func Index(x, y, z, size int) int {
	return x + y*size + z*size*size
}

// Coords is the inverse of Index.
func Coords(i, size int) (x, y, z int) {
	x = i % size
	y = (i / size) % size
	z = i / (size * size)
	return x, y, z
}
