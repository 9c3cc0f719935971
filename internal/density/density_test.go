package density

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"marching-terrain/internal/config"
)

func approx(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

// TestHash3Deterministic verifies hash3 produces identical results for same inputs
func TestHash3Deterministic(t *testing.T) {
	first := hash3(10, 20, 30, 42)
	for i := 0; i < 100; i++ {
		if h := hash3(10, 20, 30, 42); h != first {
			t.Fatalf("hash3 not deterministic: %d != %d", h, first)
		}
	}
}

// TestHash3DifferentInputs verifies hash3 separates axes and seeds
func TestHash3DifferentInputs(t *testing.T) {
	seed := int64(42)
	pairs := [][2][4]int64{
		{{1, 0, 0, seed}, {2, 0, 0, seed}},
		{{0, 1, 0, seed}, {0, 2, 0, seed}},
		{{0, 0, 1, seed}, {0, 0, 2, seed}},
		{{1, 1, 1, 100}, {1, 1, 1, 200}},
		{{1, 2, 3, seed}, {3, 2, 1, seed}},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		if hash3(a[0], a[1], a[2], a[3]) == hash3(b[0], b[1], b[2], b[3]) {
			t.Errorf("hash3%v == hash3%v", a, b)
		}
	}
}

func TestValueNoiseRangeAndContinuity(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))
	n := ValueNoise{Seed: 42}
	for i := 0; i < 1000; i++ {
		x := rng.Float64()*200 - 100
		y := rng.Float64()*200 - 100
		z := rng.Float64()*200 - 100
		if v := n.Eval2(x, z); v < -1 || v > 1 {
			t.Fatalf("Eval2(%f, %f) = %f, outside [-1,1]", x, z, v)
		}
		if v := n.Eval3(x, y, z); v < -1 || v > 1 {
			t.Fatalf("Eval3(%f, %f, %f) = %f, outside [-1,1]", x, y, z, v)
		}
	}

	v1 := n.Eval3(1.0, 1.0, 1.0)
	v2 := n.Eval3(1.01, 1.0, 1.0)
	if d := math.Abs(v1 - v2); d >= 0.2 {
		t.Errorf("Eval3 not continuous: diff %f over 0.01", d)
	}
	// Lattice points hit the hashed value exactly.
	if got, want := n.Eval2(3, 4), unit(hash2(3, 4, 42))*2-1; got != want {
		t.Errorf("Eval2 at lattice = %f, want %f", got, want)
	}
}

func TestSphere(t *testing.T) {
	s := Sphere{Center: mgl32.Vec3{8, 8, 8}, Radius: 5}
	if v := s.ScalarAt(8, 8, 8); !approx(v, -5, 1e-6) {
		t.Errorf("center = %v, want -5", v)
	}
	if v := s.ScalarAt(13, 8, 8); !approx(v, 0, 1e-6) {
		t.Errorf("surface = %v, want 0", v)
	}
	if v := s.ScalarAt(8, 18, 8); !approx(v, 5, 1e-6) {
		t.Errorf("outside = %v, want 5", v)
	}

	sq := SquaredSphere{Center: mgl32.Vec3{0, 0, 0}, Radius: 2}
	if v := sq.ScalarAt(3, 0, 0); !approx(v, 5, 1e-6) {
		t.Errorf("squared sphere = %v, want 5", v)
	}
}

func TestTorus(t *testing.T) {
	tor := Torus{Center: mgl32.Vec3{0, 0, 0}, Major: 6, Minor: 2}
	if v := tor.ScalarAt(6, 0, 0); !approx(v, -2, 1e-6) {
		t.Errorf("tube center = %v, want -2", v)
	}
	if v := tor.ScalarAt(0, 0, 8); !approx(v, 0, 1e-6) {
		t.Errorf("outer rim = %v, want 0", v)
	}
	if v := tor.ScalarAt(0, 0, 0); !approx(v, 4, 1e-6) {
		t.Errorf("hole = %v, want 4", v)
	}
}

func TestDeathStar(t *testing.T) {
	ds := DeathStar{Ra: 20, Rb: 18, D: 10}
	if v := ds.ScalarAt(-15, 0, 0); v >= 0 {
		t.Errorf("point in the remaining shell should be inside, got %v", v)
	}
	if v := ds.ScalarAt(10, 0, 0); v <= 0 {
		t.Errorf("point in the carved sphere should be outside, got %v", v)
	}
	if v := ds.ScalarAt(-40, 0, 0); v <= 0 {
		t.Errorf("far point should be outside, got %v", v)
	}
}

func TestPlaneAndCombinators(t *testing.T) {
	ground := NewPlane(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, 5, 0})
	if v := ground.ScalarAt(3, 12, -7); !approx(v, 2, 1e-6) {
		t.Errorf("plane = %v, want 2", v)
	}

	ball := Sphere{Center: mgl32.Vec3{0, 10, 0}, Radius: 3}
	u := Union(ground, ball)
	if v := u.ScalarAt(0, 12, 0); v >= 0 {
		t.Errorf("union should contain the ball above ground, got %v", v)
	}
	carved := Subtract(ground, ball)
	if v := carved.ScalarAt(0, 9, 0); v <= 0 {
		t.Errorf("subtract should hollow the ball below ground, got %v", v)
	}
	i := Intersect(ground, ball)
	if v := i.ScalarAt(0, 12, 0); v <= 0 {
		t.Errorf("intersect should exclude the ball above ground, got %v", v)
	}

	moved := Translate(ball, mgl32.Vec3{100, 0, 0})
	if v := moved.ScalarAt(100, 10, 0); !approx(v, -3, 1e-6) {
		t.Errorf("translated center = %v, want -3", v)
	}
	if v := FieldFunc(func(x, y, z float32) float32 { return x + y + z }).ScalarAt(1, 2, 3); v != 6 {
		t.Errorf("FieldFunc.ScalarAt = %v, want 6", v)
	}
}

func TestLayeredNoiseSignConvention(t *testing.T) {
	f := NewLayeredNoise(ValueNoise{Seed: 7}, LayeredNoiseParams{
		Frequency: 0.05, Scale: 1, Octaves: 3, Persistence: 0.5, Lacunarity: 2, HeightWeight: 20,
	})
	top := f.MaxHeight()
	if !approx(top, 35, 1e-4) {
		t.Fatalf("MaxHeight() = %v, want 35", top)
	}
	for x := float32(-50); x <= 50; x += 7 {
		for z := float32(-50); z <= 50; z += 11 {
			if v := f.ScalarAt(x, -1, z); v >= 0 {
				t.Fatalf("below y=0 should be solid at (%v,%v), got %v", x, z, v)
			}
			if v := f.ScalarAt(x, top+1, z); v <= 0 {
				t.Fatalf("above max height should be air at (%v,%v), got %v", x, z, v)
			}
		}
	}
}

func TestLayeredNoiseSumsOctaves(t *testing.T) {
	flat := constNoise(0) // remaps to 0.5 per layer
	f := NewLayeredNoise(flat, LayeredNoiseParams{Octaves: 3, Persistence: 0.5, Lacunarity: 2, Scale: 1, HeightWeight: 10})
	// 0.5 * (1 + 0.5 + 0.25) * 10 = 8.75
	if v := f.ScalarAt(0, 8.75, 0); !approx(v, 0, 1e-5) {
		t.Errorf("surface should be at 8.75, density there = %v", v)
	}
}

func TestLayeredNoiseClampsScale(t *testing.T) {
	f := NewLayeredNoise(constNoise(0), LayeredNoiseParams{Scale: 0, Octaves: 1, HeightWeight: 1})
	if v := f.ScalarAt(1, 1, 1); math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		t.Errorf("zero scale produced %v", v)
	}
}

type constNoise float64

func (c constNoise) Eval2(x, y float64) float64 { return float64(c) }

func (c constNoise) Eval3(x, y, z float64) float64 { return float64(c) }

func TestOverhangGradient(t *testing.T) {
	f := NewOverhang(constNoise(0.5), OverhangParams{Octaves: 4, Persistence: 0.5, Lacunarity: 2, BaseHeight: 10, Gradient: 5})
	// normalised octaves stay 0.5, so the surface sits where (10-y)/5 = -0.5
	if v := f.ScalarAt(3, 12.5, -7); !approx(v, 0, 1e-5) {
		t.Errorf("surface should be at y=12.5, density there = %v", v)
	}
	if v := f.ScalarAt(0, 0, 0); v >= 0 {
		t.Errorf("deep point should be solid, got %v", v)
	}
	if v := f.ScalarAt(0, 20, 0); v <= 0 {
		t.Errorf("high point should be air, got %v", v)
	}

	zero := NewOverhang(constNoise(0), OverhangParams{BaseHeight: 4})
	if v := zero.ScalarAt(0, 5, 0); !approx(v, 1, 1e-6) {
		t.Errorf("zero gradient should clamp to 1, density = %v", v)
	}
}

func TestFieldsAreConcurrentSafe(t *testing.T) {
	fields := map[string]Field{
		"opensimplex": NewLayeredNoise(NewOpenSimplex(972483), LayeredNoiseParams{Frequency: 0.005, Scale: 3, Octaves: 3, Persistence: 0.5, Lacunarity: 2, HeightWeight: 24}),
		"cave":        NewCaveNoise(NewOpenSimplex(1), 0.2),
		"overhang":    NewOverhang(NewOpenSimplex(7), OverhangParams{Octaves: 4, Persistence: 0.5, Lacunarity: 2, BaseHeight: 8, Gradient: 16}),
		"torus":       Torus{Major: 6, Minor: 2},
	}
	for name, f := range fields {
		want := f.ScalarAt(1.5, 2.5, 3.5)
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 200; i++ {
					if got := f.ScalarAt(1.5, 2.5, 3.5); got != want {
						t.Errorf("%s: concurrent ScalarAt = %v, want %v", name, got, want)
						return
					}
				}
			}()
		}
		wg.Wait()
	}
}

func TestFromConfig(t *testing.T) {
	base := config.Defaults().Density
	for _, kind := range []string{"noise", "cave", "overhang", "sphere", "sphere_sq", "torus", "deathstar", "plane"} {
		c := base
		c.Kind = kind
		f, err := FromConfig(c)
		if err != nil {
			t.Errorf("FromConfig(%q) error = %v", kind, err)
			continue
		}
		if v := f.ScalarAt(0, 0, 0); math.IsNaN(float64(v)) {
			t.Errorf("FromConfig(%q) field returned NaN", kind)
		}
	}

	c := base
	c.Kind = "sphere"
	c.Radius = 5
	f, _ := FromConfig(c)
	if v := f.ScalarAt(13, 8, 8); !approx(v, 0, 1e-6) {
		t.Errorf("configured sphere surface = %v, want 0", v)
	}

	c.Kind = "lava"
	if _, err := FromConfig(c); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("FromConfig(lava) error = %v, want ErrUnknownKind", err)
	}

	c = base
	c.Noise = "perlin"
	if _, err := FromConfig(c); err == nil {
		t.Error("unknown noise source should fail")
	}
}
