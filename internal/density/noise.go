package density

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// Noise2D is a coherent 2D noise source with output in roughly [-1,1].
type Noise2D interface {
	Eval2(x, y float64) float64
}

// Noise3D is a coherent 3D noise source with output in roughly [-1,1].
type Noise3D interface {
	Eval3(x, y, z float64) float64
}

// NewOpenSimplex returns an OpenSimplex noise source for seed.
// The returned value is read-only and safe for concurrent use.
func NewOpenSimplex(seed int64) opensimplex.Noise {
	return opensimplex.New(seed)
}

// ValueNoise is deterministic lattice value noise with smoothstep blending.
// No permutation tables; lattice values come from an integer hash.
type ValueNoise struct {
	Seed int64
}

// Eval2 returns noise in [-1,1].
func (n ValueNoise) Eval2(x, y float64) float64 {
	return valueNoise2D(x, y, n.Seed)*2 - 1
}

// Eval3 returns noise in [-1,1].
func (n ValueNoise) Eval3(x, y, z float64) float64 {
	return valueNoise3D(x, y, z, n.Seed)*2 - 1
}

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func hash2(x, z, seed int64) uint64 {
	// SplitMix64 style integer hash, stable across runs for same inputs
	v := uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func hash3(x, y, z, seed int64) uint64 {
	// Separate odd multipliers per axis so swapped axes hash differently.
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(z)*0x6C62272E07BB0142 + uint64(seed)
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func unit(h uint64) float64 {
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

// valueNoise2D returns noise in [0,1].
func valueNoise2D(x, z float64, seed int64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	ix, iz := int64(x0), int64(z0)

	fx := fade(x - x0)
	fz := fade(z - z0)

	v00 := unit(hash2(ix, iz, seed))
	v10 := unit(hash2(ix+1, iz, seed))
	v01 := unit(hash2(ix, iz+1, seed))
	v11 := unit(hash2(ix+1, iz+1, seed))

	return lerp(lerp(v00, v10, fx), lerp(v01, v11, fx), fz)
}

// valueNoise3D returns noise in [0,1].
func valueNoise3D(x, y, z float64, seed int64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	z0 := math.Floor(z)
	ix, iy, iz := int64(x0), int64(y0), int64(z0)

	fx := fade(x - x0)
	fy := fade(y - y0)
	fz := fade(z - z0)

	corner := func(dx, dy, dz int64) float64 {
		return unit(hash3(ix+dx, iy+dy, iz+dz, seed))
	}

	i00 := lerp(corner(0, 0, 0), corner(1, 0, 0), fx)
	i10 := lerp(corner(0, 1, 0), corner(1, 1, 0), fx)
	i01 := lerp(corner(0, 0, 1), corner(1, 0, 1), fx)
	i11 := lerp(corner(0, 1, 1), corner(1, 1, 1), fx)

	return lerp(lerp(i00, i10, fy), lerp(i01, i11, fy), fz)
}
