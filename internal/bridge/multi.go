package bridge

import (
	"errors"
	"sync"
)

// MultiSink fans every call out to several sinks. Display succeeds if at
// least one sink accepts the mesh; the errors of the others are joined.
type MultiSink struct {
	sinks []Sink

	mu     sync.Mutex
	next   Handle
	routes map[Handle][]Handle // per-sink handles, zero where the sink failed
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks, routes: make(map[Handle][]Handle)}
}

func (m *MultiSink) Display(cm ChunkMesh) (Handle, error) {
	hs := make([]Handle, len(m.sinks))
	var errs []error
	ok := false
	for i, s := range m.sinks {
		h, err := s.Display(cm)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		hs[i] = h
		ok = true
	}
	if !ok && len(m.sinks) > 0 {
		return 0, errors.Join(errs...)
	}

	m.mu.Lock()
	m.next++
	h := m.next
	m.routes[h] = hs
	m.mu.Unlock()
	return h, errors.Join(errs...)
}

func (m *MultiSink) Remove(h Handle) {
	m.mu.Lock()
	hs, ok := m.routes[h]
	delete(m.routes, h)
	m.mu.Unlock()
	if !ok {
		return
	}
	for i, s := range m.sinks {
		if hs[i] != 0 {
			s.Remove(hs[i])
		}
	}
}

func (m *MultiSink) SetVisible(h Handle, visible bool) {
	m.mu.Lock()
	hs := m.routes[h]
	m.mu.Unlock()
	for i, s := range m.sinks {
		if i < len(hs) {
			SetVisible(s, hs[i], visible)
		}
	}
}
