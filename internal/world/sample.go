package world

import "marching-terrain/internal/profiling"

// Sampler is anything that can be evaluated at a world position.
// density.Field satisfies it.
type Sampler interface {
	ScalarAt(x, y, z float32) float32
}

// SampleGrid evaluates s on every lattice point of the chunk at coord.
// The grid has edge+1 samples per axis so that it covers both faces of the cube.
func SampleGrid(s Sampler, coord ChunkCoord, edge int) *VoxelGrid {
	defer profiling.Track("world.SampleGrid")()

	size := edge + 1
	grid := NewVoxelGrid(size, coord)
	offset := coord.Offset(edge)
	ox, oy, oz := offset.X(), offset.Y(), offset.Z()

	for z := range size {
		wz := float32(z) + oz
		for y := range size {
			wy := float32(y) + oy
			for x := range size {
				grid.Push(s.ScalarAt(float32(x)+ox, wy, wz))
			}
		}
	}
	return grid
}
