package density

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sphere is the signed distance to a sphere surface.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

func (s Sphere) ScalarAt(x, y, z float32) float32 {
	return mgl32.Vec3{x, y, z}.Sub(s.Center).Len() - s.Radius
}

// SquaredSphere is |p-c|^2 - r^2. Same zero set as Sphere but grows
// quadratically, which makes edge interpolation less accurate.
type SquaredSphere struct {
	Center mgl32.Vec3
	Radius float32
}

func (s SquaredSphere) ScalarAt(x, y, z float32) float32 {
	d := mgl32.Vec3{x, y, z}.Sub(s.Center)
	return d.Dot(d) - s.Radius*s.Radius
}

// Torus lies in the XZ plane around Center. Major is the ring radius and
// Minor the tube radius.
type Torus struct {
	Center mgl32.Vec3
	Major  float32
	Minor  float32
}

func (t Torus) ScalarAt(x, y, z float32) float32 {
	p := mgl32.Vec3{x, y, z}.Sub(t.Center)
	q := mgl32.Vec2{mgl32.Vec2{p.X(), p.Z()}.Len() - t.Major, p.Y()}
	return q.Len() - t.Minor
}

// DeathStar is a sphere of radius Ra with a sphere of radius Rb carved out,
// the carving sphere centered D units along +X.
type DeathStar struct {
	Center mgl32.Vec3
	Ra, Rb float32
	D      float32
}

func (s DeathStar) ScalarAt(x, y, z float32) float32 {
	p3 := mgl32.Vec3{x, y, z}.Sub(s.Center)
	p := mgl32.Vec2{p3.X(), mgl32.Vec2{p3.Y(), p3.Z()}.Len()}

	ra, rb, d := s.Ra, s.Rb, s.D
	a := (ra*ra - rb*rb + d*d) / (2 * d)
	b := float32(math.Sqrt(float64(max(ra*ra-a*a, 0))))

	if p.X()*b-p.Y()*a > d*max(b-p.Y(), 0) {
		return p.Sub(mgl32.Vec2{a, b}).Len()
	}
	return max(p.Len()-ra, -(p.Sub(mgl32.Vec2{d, 0}).Len() - rb))
}

// Plane is the signed distance to the plane through Point with normal Normal.
// Negative on the side opposite the normal.
type Plane struct {
	Point  mgl32.Vec3
	Normal mgl32.Vec3
}

// NewPlane normalises normal so distances stay metric.
func NewPlane(point, normal mgl32.Vec3) Plane {
	if normal.Len() == 0 {
		normal = mgl32.Vec3{0, 1, 0}
	}
	return Plane{Point: point, Normal: normal.Normalize()}
}

func (p Plane) ScalarAt(x, y, z float32) float32 {
	return mgl32.Vec3{x, y, z}.Sub(p.Point).Dot(p.Normal)
}
