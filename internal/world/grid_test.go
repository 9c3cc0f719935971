package world

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

type constSampler float32

func (c constSampler) ScalarAt(x, y, z float32) float32 { return float32(c) }

type funcSampler func(x, y, z float32) float32

func (f funcSampler) ScalarAt(x, y, z float32) float32 { return f(x, y, z) }

func TestIndexRoundTrip(t *testing.T) {
	for _, size := range []int{2, 16, 17} {
		seen := make(map[int]bool, size*size*size)
		for z := range size {
			for y := range size {
				for x := range size {
					i := Index(x, y, z, size)
					if seen[i] {
						t.Fatalf("size %d: index %d produced twice", size, i)
					}
					seen[i] = true
					gx, gy, gz := Coords(i, size)
					if gx != x || gy != y || gz != z {
						t.Fatalf("size %d: Coords(Index(%d,%d,%d)) = (%d,%d,%d)", size, x, y, z, gx, gy, gz)
					}
				}
			}
		}
	}
}

func TestPushFillOrderMatchesRead(t *testing.T) {
	const size = 5
	g := NewVoxelGrid(size, ChunkCoord{})
	for i := range size * size * size {
		g.Push(float32(i))
	}
	if !g.Complete() {
		t.Fatalf("grid not complete after %d pushes", g.Len())
	}
	for z := range size {
		for y := range size {
			for x := range size {
				want := float32(x + y*size + z*size*size)
				if got := g.Read(x, y, z); got != want {
					t.Fatalf("Read(%d,%d,%d) = %v, want %v", x, y, z, got, want)
				}
			}
		}
	}
}

func TestMinMaxTracking(t *testing.T) {
	g := NewVoxelGrid(2, ChunkCoord{})
	// A strictly decreasing sequence must still update max from the first value.
	for _, v := range []float32{3, 2, 1, -4, 0, 0, 0, 0} {
		g.Push(v)
	}
	lo, hi := g.Bounds()
	if lo != -4 || hi != 3 {
		t.Errorf("Bounds() = (%v, %v), want (-4, 3)", lo, hi)
	}
	if got := g.NormalizeValue(-4); got != 0 {
		t.Errorf("NormalizeValue(min) = %v, want 0", got)
	}
	if got := g.NormalizeValue(3); got != 1 {
		t.Errorf("NormalizeValue(max) = %v, want 1", got)
	}
	if got := g.NormalizeValue(-0.5); mgl32.Abs(got-0.5) > 1e-6 {
		t.Errorf("NormalizeValue(-0.5) = %v, want 0.5", got)
	}
	if got := g.NormalizeValue(100); got != 1 {
		t.Errorf("NormalizeValue clamps above: got %v", got)
	}
}

func TestNormalizeFlatGrid(t *testing.T) {
	g := NewVoxelGrid(2, ChunkCoord{})
	for range 8 {
		g.Push(7)
	}
	if got := g.NormalizeValue(7); got != 0 {
		t.Errorf("flat grid NormalizeValue = %v, want 0", got)
	}
	if !g.Uniform() {
		t.Error("flat positive grid should be uniform")
	}

	mixed := NewVoxelGrid(2, ChunkCoord{})
	for i := range 8 {
		if i == 7 {
			mixed.Push(float32(math.Copysign(0, -1)))
		} else {
			mixed.Push(0)
		}
	}
	if mixed.Uniform() {
		t.Error("+0 and -0 samples should not be uniform")
	}
}

func TestReadOutOfBoundsPanics(t *testing.T) {
	g := SampleGrid(constSampler(1), ChunkCoord{}, 4)
	cases := [][3]int{{-1, 0, 0}, {0, 5, 0}, {0, 0, 5}, {5, 5, 5}}
	for _, c := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("Read(%d,%d,%d) did not panic", c[0], c[1], c[2])
				}
			}()
			g.Read(c[0], c[1], c[2])
		}()
	}
}

func TestPushPastCapacityPanics(t *testing.T) {
	g := NewVoxelGrid(2, ChunkCoord{})
	for range 8 {
		g.Push(0)
	}
	defer func() {
		if recover() == nil {
			t.Error("ninth Push on a 2^3 grid did not panic")
		}
	}()
	g.Push(0)
}

func TestSampleGridUsesWorldOffset(t *testing.T) {
	const edge = 16
	coord := ChunkCoord{X: -1, Y: 2, Z: 3}
	g := SampleGrid(funcSampler(func(x, y, z float32) float32 { return x*10000 + y*100 + z }), coord, edge)

	if g.Size() != edge+1 {
		t.Fatalf("Size() = %d, want %d", g.Size(), edge+1)
	}
	if g.Coord() != coord {
		t.Fatalf("Coord() = %v, want %v", g.Coord(), coord)
	}
	// Local (0,0,0) sits at world (-16, 32, 48); local (16,16,16) at (0, 48, 64).
	if got, want := g.Read(0, 0, 0), float32(-16*10000+32*100+48); got != want {
		t.Errorf("Read(0,0,0) = %v, want %v", got, want)
	}
	if got, want := g.Read(edge, edge, edge), float32(0*10000+48*100+64); got != want {
		t.Errorf("Read(edge,edge,edge) = %v, want %v", got, want)
	}
}

func TestAdjacentChunksShareFace(t *testing.T) {
	const edge = 8
	s := funcSampler(func(x, y, z float32) float32 { return x - 2*y + 3*z })
	a := SampleGrid(s, ChunkCoord{X: 0}, edge)
	b := SampleGrid(s, ChunkCoord{X: 1}, edge)
	for z := 0; z <= edge; z++ {
		for y := 0; y <= edge; y++ {
			if a.Read(edge, y, z) != b.Read(0, y, z) {
				t.Fatalf("face sample (y=%d,z=%d) differs across chunk boundary", y, z)
			}
		}
	}
}
