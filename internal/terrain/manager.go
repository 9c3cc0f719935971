// Package terrain streams chunk meshes around a moving viewer.
package terrain

import (
	"log"
	"runtime"

	"marching-terrain/internal/bridge"
	"marching-terrain/internal/config"
	"marching-terrain/internal/profiling"
	"marching-terrain/internal/world"
)

// Settings are the manager's tunables.
type Settings struct {
	ChunkSize int
	Render    config.RenderDistance
	// EvictMargin is the extra radius kept before chunks are dropped.
	// Negative disables eviction.
	EvictMargin int
	Async       bool
	Workers     int
}

// SettingsFromConfig extracts manager settings from the loaded configuration.
func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		ChunkSize:   cfg.ChunkSize,
		Render:      cfg.RenderDistance.Clamp(),
		EvictMargin: cfg.EvictMargin,
		Async:       cfg.Generation.Async,
		Workers:     cfg.Generation.Workers,
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger routes manager warnings to l.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// Report summarises one Update.
type Report struct {
	Skipped    bool // no viewer position this tick
	Viewer     world.ChunkCoord
	Discovered int // coordinates inserted by the sweep
	Shown      int // visibility flips forwarded to the sink
	Hidden     int
	Applied    int // generation results merged
	Dropped    int // stale results discarded
	Evicted    int
}

// Stats is a snapshot for debug overlays and logs.
type Stats struct {
	Resident  int
	Visible   int
	Pending   int
	InFlight  int
	Triangles int
	Viewer    world.ChunkCoord
	HasViewer bool
	Render    config.RenderDistance
}

// Manager owns the chunk map. Update, SetRenderDistance, SetGenerator, Stats
// and Close must all be called from the same goroutine.
type Manager struct {
	cfg    Settings
	gen    *Generator
	viewer bridge.ViewerSource
	sink   bridge.Sink
	logger *log.Logger

	chunks *ChunkMap
	pool   *Pool
	seq    uint64

	center    world.ChunkCoord
	hasCenter bool

	warnedViewer bool
	warnedField  bool
}

// NewManager builds a manager. gen may be nil or carry a nil field; the
// sweep then inserts nothing until SetGenerator supplies one.
func NewManager(cfg Settings, gen *Generator, viewer bridge.ViewerSource, sink bridge.Sink, opts ...Option) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	cfg.Render = cfg.Render.Clamp()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = gen.Edge()
	}
	m := &Manager{
		cfg:    cfg,
		viewer: viewer,
		sink:   sink,
		logger: log.Default(),
		chunks: NewChunkMap(),
	}
	for _, o := range opts {
		o(m)
	}
	m.SetGenerator(gen)
	return m
}

// SetGenerator swaps the generator. Jobs already dispatched keep the old one.
// A generator built for a different edge is resampled at the chunk size so
// meshes always line up with their chunk offsets.
func (m *Manager) SetGenerator(gen *Generator) {
	if gen != nil && gen.Edge() != m.cfg.ChunkSize {
		m.logger.Printf("[Terrain] Warning: generator edge %d does not match chunk size %d, using %d",
			gen.Edge(), m.cfg.ChunkSize, m.cfg.ChunkSize)
		gen = gen.WithEdge(m.cfg.ChunkSize)
	}
	m.gen = gen
	if m.cfg.Async && m.pool == nil {
		m.pool = NewPool(m.cfg.Workers)
	}
}

// SetRenderDistance changes the load radius. Negative values clamp to zero.
func (m *Manager) SetRenderDistance(xz, y int) {
	m.cfg.Render = config.RenderDistance{XZ: xz, Y: y}.Clamp()
}

// RenderDistance returns the current load radius.
func (m *Manager) RenderDistance() config.RenderDistance { return m.cfg.Render }

// Generator returns the generator in use, nil when none is set.
func (m *Manager) Generator() *Generator { return m.gen }

// Chunks exposes the chunk map for inspection.
func (m *Manager) Chunks() *ChunkMap { return m.chunks }

// Update runs one streaming tick: discovery, visibility, merge, eviction.
func (m *Manager) Update() Report {
	defer profiling.Track("terrain.Update")()

	pos, ok := m.viewer.Position()
	if !ok {
		if !m.warnedViewer {
			m.logger.Printf("[Terrain] Warning: no viewer position, skipping chunk update")
			m.warnedViewer = true
		}
		return Report{Skipped: true}
	}
	m.warnedViewer = false

	center := world.ChunkCoordFromWorld(pos, m.cfg.ChunkSize)
	m.center, m.hasCenter = center, true

	r := Report{Viewer: center}
	r.Discovered = m.discover(center, &r)
	r.Shown, r.Hidden = m.refreshVisibility(center)
	applied, dropped := m.merge()
	r.Applied += applied
	r.Dropped += dropped
	r.Evicted = m.evict(center)
	return r
}

func (m *Manager) discover(center world.ChunkCoord, r *Report) int {
	defer profiling.Track("terrain.discover")()

	rd := m.cfg.Render
	found := 0
	for y := -rd.Y; y <= rd.Y; y++ {
		for x := -rd.XZ; x <= rd.XZ; x++ {
			for z := -rd.XZ; z <= rd.XZ; z++ {
				coord := center.Add(world.ChunkCoord{X: x, Y: y, Z: z})
				if m.chunks.Has(coord) {
					continue
				}
				if m.gen.Field() == nil {
					if !m.warnedField {
						m.logger.Printf("[Terrain] Warning: no density field, chunk generation skipped")
						m.warnedField = true
					}
					return found
				}
				m.warnedField = false
				m.dispatch(coord, r)
				found++
			}
		}
	}
	return found
}

func (m *Manager) dispatch(coord world.ChunkCoord, r *Report) {
	m.seq++
	c := &Chunk{Coord: coord, Visible: true, State: StatePending, seq: m.seq}
	m.chunks.insert(c)

	if m.pool != nil && m.pool.Submit(m.gen, coord, c.seq) {
		return
	}
	m.apply(c, m.gen.Generate(coord, c.seq))
	r.Applied++
}

func (m *Manager) refreshVisibility(center world.ChunkCoord) (shown, hidden int) {
	rd := m.cfg.Render
	m.chunks.Each(func(c *Chunk) {
		vis := c.Coord.Within(center, rd.XZ, rd.Y)
		if vis == c.Visible {
			return
		}
		c.Visible = vis
		if vis {
			shown++
		} else {
			hidden++
		}
		bridge.SetVisible(m.sink, c.Handle, vis)
	})
	return shown, hidden
}

func (m *Manager) merge() (applied, dropped int) {
	if m.pool == nil {
		return 0, 0
	}
	for _, res := range m.pool.Drain() {
		c, ok := m.chunks.Get(res.Coord)
		if !ok || c.seq != res.Seq || c.State != StatePending {
			m.logger.Printf("[Terrain] dropped stale result for chunk %v", res.Coord)
			dropped++
			continue
		}
		m.apply(c, res)
		applied++
	}
	return applied, dropped
}

// apply marks c ready and hands a non-empty mesh to the sink.
func (m *Manager) apply(c *Chunk, res Result) {
	c.State = StateReady
	if res.Err != nil {
		m.logger.Printf("[Terrain] Warning: %v", res.Err)
		return
	}
	c.Triangles = res.Mesh.TriangleCount()
	if res.Mesh.Empty() {
		return
	}

	h, err := m.sink.Display(bridge.ChunkMesh{
		Coord:  c.Coord,
		Offset: c.Coord.Offset(m.cfg.ChunkSize),
		Mesh:   res.Mesh,
	})
	if err != nil {
		m.logger.Printf("[Terrain] Warning: display chunk %v: %v", c.Coord, err)
	}
	c.Handle = h
	if h != 0 && !c.Visible {
		bridge.SetVisible(m.sink, h, false)
	}
}

func (m *Manager) evict(center world.ChunkCoord) int {
	radius, ok := m.cfg.Render.EvictRadius(m.cfg.EvictMargin)
	if !ok {
		return 0
	}
	var far []*Chunk
	m.chunks.Each(func(c *Chunk) {
		if !c.Coord.Within(center, radius.XZ, radius.Y) {
			far = append(far, c)
		}
	})
	for _, c := range far {
		if c.Handle != 0 {
			m.sink.Remove(c.Handle)
		}
		m.chunks.remove(c.Coord)
	}
	return len(far)
}

// Wait blocks until background generation is idle. Results still need an
// Update to be merged.
func (m *Manager) Wait() {
	if m.pool != nil {
		m.pool.Wait()
	}
}

// Stats reports the current chunk counts.
func (m *Manager) Stats() Stats {
	s := Stats{
		Resident:  m.chunks.Len(),
		Viewer:    m.center,
		HasViewer: m.hasCenter,
		Render:    m.cfg.Render,
	}
	m.chunks.Each(func(c *Chunk) {
		if c.Visible {
			s.Visible++
		}
		if c.State == StatePending {
			s.Pending++
		}
		s.Triangles += c.Triangles
	})
	if m.pool != nil {
		s.InFlight = m.pool.InFlight()
	}
	return s
}

// Close stops background generation and waits for running jobs.
func (m *Manager) Close() {
	if m.pool != nil {
		m.pool.Close()
	}
}
