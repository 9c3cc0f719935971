package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCoord identifies a chunk in chunk-space lattice units.
// One unit along any axis equals one chunk edge in world units.
type ChunkCoord struct {
	X, Y, Z int
}

// ChunkCoordFromWorld returns the chunk containing world position p.
// Floors toward negative infinity so that -0.5 maps to chunk -1.
func ChunkCoordFromWorld(p mgl32.Vec3, edge int) ChunkCoord {
	e := float64(edge)
	return ChunkCoord{
		X: int(math.Floor(float64(p.X()) / e)),
		Y: int(math.Floor(float64(p.Y()) / e)),
		Z: int(math.Floor(float64(p.Z()) / e)),
	}
}

// Add returns c + o.
func (c ChunkCoord) Add(o ChunkCoord) ChunkCoord {
	return ChunkCoord{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

// Sub returns c - o.
func (c ChunkCoord) Sub(o ChunkCoord) ChunkCoord {
	return ChunkCoord{X: c.X - o.X, Y: c.Y - o.Y, Z: c.Z - o.Z}
}

// Distance returns the horizontal Chebyshev distance (max of |dx|, |dz|)
// and the vertical distance |dy| between c and o.
func (c ChunkCoord) Distance(o ChunkCoord) (xz, y int) {
	d := c.Sub(o)
	return max(abs(d.X), abs(d.Z)), abs(d.Y)
}

// Within reports whether c lies inside the box of radius rdXZ horizontally
// and rdY vertically around center.
func (c ChunkCoord) Within(center ChunkCoord, rdXZ, rdY int) bool {
	xz, y := c.Distance(center)
	return xz <= rdXZ && y <= rdY
}

// Offset returns the world-space translation of the chunk origin.
func (c ChunkCoord) Offset(edge int) mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X * edge), float32(c.Y * edge), float32(c.Z * edge)}
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
