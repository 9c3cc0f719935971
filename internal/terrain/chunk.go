package terrain

import (
	"sort"

	"marching-terrain/internal/bridge"
	"marching-terrain/internal/world"
)

// State is the generation state of a chunk.
type State int

const (
	// StatePending means a mesh has been requested but not yet displayed.
	StatePending State = iota
	// StateReady means generation finished. Ready chunks may still have no
	// handle when the mesh was empty or the sink refused it.
	StateReady
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Chunk is the manager's record of one chunk coordinate.
type Chunk struct {
	Coord     world.ChunkCoord
	Visible   bool
	State     State
	Handle    bridge.Handle
	Triangles int

	seq uint64 // dispatch that owns this record
}

// ChunkMap holds the resident chunks. It is not synchronised: only the
// goroutine calling Manager.Update touches it.
type ChunkMap struct {
	chunks map[world.ChunkCoord]*Chunk
}

func NewChunkMap() *ChunkMap {
	return &ChunkMap{chunks: make(map[world.ChunkCoord]*Chunk)}
}

func (m *ChunkMap) Get(c world.ChunkCoord) (*Chunk, bool) {
	ch, ok := m.chunks[c]
	return ch, ok
}

func (m *ChunkMap) Has(c world.ChunkCoord) bool {
	_, ok := m.chunks[c]
	return ok
}

func (m *ChunkMap) Len() int { return len(m.chunks) }

// Each calls fn for every chunk in unspecified order. fn must not insert or
// delete entries.
func (m *ChunkMap) Each(fn func(*Chunk)) {
	for _, c := range m.chunks {
		fn(c)
	}
}

// Coords returns all coordinates sorted by Y, then X, then Z.
func (m *ChunkMap) Coords() []world.ChunkCoord {
	out := make([]world.ChunkCoord, 0, len(m.chunks))
	for c := range m.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
	return out
}

func (m *ChunkMap) insert(c *Chunk) { m.chunks[c.Coord] = c }

func (m *ChunkMap) remove(c world.ChunkCoord) { delete(m.chunks, c) }
