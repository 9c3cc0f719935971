// Package density provides scalar fields whose zero isosurface is the terrain.
//
// Every Field must be safe for concurrent evaluation: chunks are sampled on
// worker goroutines. Implementations here are immutable after construction.
// By convention values are negative inside solid ground and positive in air.
package density

import "github.com/go-gl/mathgl/mgl32"

// Field is a scalar function of world position.
type Field interface {
	ScalarAt(x, y, z float32) float32
}

// FieldFunc adapts a plain function into a Field.
type FieldFunc func(x, y, z float32) float32

// ScalarAt calls f.
func (f FieldFunc) ScalarAt(x, y, z float32) float32 {
	return f(x, y, z)
}

type union []Field

// Union is the solid covered by any of fields.
func Union(fields ...Field) Field { return union(fields) }

func (u union) ScalarAt(x, y, z float32) float32 {
	if len(u) == 0 {
		return 1
	}
	d := u[0].ScalarAt(x, y, z)
	for _, f := range u[1:] {
		d = min(d, f.ScalarAt(x, y, z))
	}
	return d
}

type intersect []Field

// Intersect is the solid covered by all of fields.
func Intersect(fields ...Field) Field { return intersect(fields) }

func (i intersect) ScalarAt(x, y, z float32) float32 {
	if len(i) == 0 {
		return 1
	}
	d := i[0].ScalarAt(x, y, z)
	for _, f := range i[1:] {
		d = max(d, f.ScalarAt(x, y, z))
	}
	return d
}

type subtract struct{ a, b Field }

// Subtract carves b out of a.
func Subtract(a, b Field) Field { return subtract{a: a, b: b} }

func (s subtract) ScalarAt(x, y, z float32) float32 {
	return max(s.a.ScalarAt(x, y, z), -s.b.ScalarAt(x, y, z))
}

type translate struct {
	f      Field
	offset mgl32.Vec3
}

// Translate moves f by offset.
func Translate(f Field, offset mgl32.Vec3) Field { return translate{f: f, offset: offset} }

func (t translate) ScalarAt(x, y, z float32) float32 {
	return t.f.ScalarAt(x-t.offset.X(), y-t.offset.Y(), z-t.offset.Z())
}
