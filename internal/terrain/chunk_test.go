package terrain

import (
	"testing"

	"marching-terrain/internal/meshing"
	"marching-terrain/internal/world"
)

func TestChunkMapCoordsSorted(t *testing.T) {
	m := NewChunkMap()
	for _, c := range []world.ChunkCoord{{X: 1, Y: 0, Z: 0}, {X: 0, Y: -1, Z: 5}, {X: 0, Y: 0, Z: -2}, {X: 0, Y: 0, Z: 1}} {
		m.insert(&Chunk{Coord: c})
	}
	want := []world.ChunkCoord{{X: 0, Y: -1, Z: 5}, {X: 0, Y: 0, Z: -2}, {X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 0}}
	got := m.Coords()
	if len(got) != len(want) {
		t.Fatalf("Coords len %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Coords[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	m.remove(world.ChunkCoord{X: 1})
	if m.Has(world.ChunkCoord{X: 1}) || m.Len() != 3 {
		t.Fatal("remove failed")
	}
	n := 0
	m.Each(func(*Chunk) { n++ })
	if n != 3 {
		t.Fatalf("Each visited %d", n)
	}
}

func TestStateString(t *testing.T) {
	if StatePending.String() != "pending" || StateReady.String() != "ready" || State(9).String() != "unknown" {
		t.Fatal("unexpected State strings")
	}
}

func TestGeneratorLocalCoordinates(t *testing.T) {
	g := NewGenerator(ground, edge, meshing.DefaultOptions())
	r := g.Generate(world.ChunkCoord{X: -3, Y: 0, Z: 2}, 7)
	if r.Err != nil || r.Seq != 7 || r.Mesh.Empty() {
		t.Fatalf("Generate = %+v", r)
	}
	lo, hi := r.Mesh.Bounds()
	if lo.X() < 0 || hi.X() > edge || lo.Z() < 0 || hi.Z() > edge {
		t.Fatalf("mesh bounds %v..%v not chunk-local", lo, hi)
	}
	if lo.Y() < 7.49 || hi.Y() > 7.51 {
		t.Fatalf("surface at y %v..%v, want 7.5", lo.Y(), hi.Y())
	}
	// 15x15 cubes, two triangles each.
	if n := r.Mesh.TriangleCount(); n != 450 {
		t.Fatalf("triangles %d, want 450", n)
	}
}
