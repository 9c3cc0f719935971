package bridge

import (
	"sort"
	"sync"

	"marching-terrain/internal/world"
)

// Entry is one mesh held by a MemorySink.
type Entry struct {
	Handle  Handle
	Chunk   ChunkMesh
	Visible bool
}

// MemorySink keeps displayed meshes in memory. It backs headless runs and
// tests, and is safe for concurrent use.
type MemorySink struct {
	mu      sync.RWMutex
	next    Handle
	entries map[Handle]*Entry

	// Fail, when set, is consulted before every Display.
	Fail func(ChunkMesh) error

	displayed int
	removed   int
}

func NewMemorySink() *MemorySink {
	return &MemorySink{entries: make(map[Handle]*Entry)}
}

func (s *MemorySink) Display(m ChunkMesh) (Handle, error) {
	if s.Fail != nil {
		if err := s.Fail(m); err != nil {
			return 0, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.entries[s.next] = &Entry{Handle: s.next, Chunk: m, Visible: true}
	s.displayed++
	return s.next, nil
}

func (s *MemorySink) Remove(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[h]; ok {
		delete(s.entries, h)
		s.removed++
	}
}

func (s *MemorySink) SetVisible(h Handle, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[h]; ok {
		e.Visible = visible
	}
}

// Len returns the number of meshes currently held.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Counts returns lifetime Display and Remove totals.
func (s *MemorySink) Counts() (displayed, removed int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayed, s.removed
}

// Lookup finds the entry for a chunk coordinate.
func (s *MemorySink) Lookup(c world.ChunkCoord) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.Chunk.Coord == c {
			return *e, true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of every entry ordered by handle.
func (s *MemorySink) Entries() []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}
