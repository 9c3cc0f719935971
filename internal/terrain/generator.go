package terrain

import (
	"fmt"
	"time"

	"marching-terrain/internal/density"
	"marching-terrain/internal/meshing"
	"marching-terrain/internal/world"
)

// Generator turns a chunk coordinate into a mesh. It holds no mutable state
// and may be called from any goroutine.
type Generator struct {
	field density.Field
	edge  int
	opts  meshing.Options
}

// NewGenerator samples field on chunks of the given edge length.
func NewGenerator(field density.Field, edge int, opts meshing.Options) *Generator {
	return &Generator{field: field, edge: edge, opts: opts}
}

// Field returns the density field, nil when none is configured.
func (g *Generator) Field() density.Field {
	if g == nil {
		return nil
	}
	return g.field
}

// Edge is the chunk edge length the generator samples with, 0 for nil.
func (g *Generator) Edge() int {
	if g == nil {
		return 0
	}
	return g.edge
}

// WithEdge returns a copy of g that samples chunks of the given edge.
func (g *Generator) WithEdge(edge int) *Generator {
	c := *g
	c.edge = edge
	return &c
}

// Result is a finished (or failed) generation.
type Result struct {
	Coord   world.ChunkCoord
	Seq     uint64
	Mesh    *meshing.Mesh
	Elapsed time.Duration
	Err     error
}

// Generate samples and polygonises one chunk. A panic in the field is
// reported as Result.Err.
func (g *Generator) Generate(coord world.ChunkCoord, seq uint64) (r Result) {
	start := time.Now()
	r = Result{Coord: coord, Seq: seq}
	defer func() {
		if p := recover(); p != nil {
			r.Mesh = nil
			r.Err = fmt.Errorf("generate chunk %v: %v", coord, p)
		}
		r.Elapsed = time.Since(start)
	}()

	grid := world.SampleGrid(g.field, coord, g.edge)
	r.Mesh = meshing.Extract(grid, g.opts)
	return r
}
