// Package game drives the terrain manager at a fixed tick rate.
package game

import (
	"context"
	"log"
	"time"

	"github.com/dustin/go-humanize"

	"marching-terrain/internal/config"
	"marching-terrain/internal/profiling"
	"marching-terrain/internal/terrain"
)

// updateTimer is the profiling name terrain.Manager.Update records under.
const updateTimer = "terrain.Update"

// Updater is the part of terrain.Manager the loop needs.
type Updater interface {
	Update() terrain.Report
	Stats() terrain.Stats
}

// Loop ticks an Updater until its context ends.
type Loop struct {
	world      Updater
	limiter    *FrameLimiter
	logger     *log.Logger
	statsEvery int
	maxTicks   uint64
	extra      func() string

	ticks uint64
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the logger for slow-frame and stats lines.
func WithLoopLogger(l *log.Logger) LoopOption {
	return func(lp *Loop) { lp.logger = l }
}

// WithMaxTicks makes Run return after n ticks. Zero means no limit.
func WithMaxTicks(n int) LoopOption {
	return func(lp *Loop) { lp.maxTicks = uint64(max(n, 0)) }
}

// WithStatsSuffix appends fn's output to every stats line.
func WithStatsSuffix(fn func() string) LoopOption {
	return func(lp *Loop) { lp.extra = fn }
}

func NewLoop(u Updater, cfg config.LoopConfig, opts ...LoopOption) *Loop {
	l := &Loop{
		world:      u,
		limiter:    NewFrameLimiter(cfg.TickRate),
		logger:     log.Default(),
		statsEvery: cfg.StatsEvery,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Run ticks until ctx is cancelled or the tick limit is reached and
// returns nil on a clean stop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if l.maxTicks > 0 && l.ticks >= l.maxTicks {
			return nil
		}
		l.Tick()
		l.limiter.Wait()
	}
}

// Tick runs one frame without waiting.
func (l *Loop) Tick() terrain.Report {
	profiling.ResetFrame()
	start := time.Now()

	r := l.world.Update()
	l.ticks++

	// Check if frame took longer than its budget
	if d := time.Since(start); l.limiter.Budget() > 0 && d > l.limiter.Budget() {
		l.logger.Printf("Slow frame: %v. Top tasks: %s", d, profiling.TopN(5))
	}
	if l.statsEvery > 0 && l.ticks%uint64(l.statsEvery) == 0 {
		l.logStats()
	}
	return r
}

// Ticks is the number of frames run so far.
func (l *Loop) Ticks() uint64 { return l.ticks }

func (l *Loop) logStats() {
	s := l.world.Stats()
	line := "[Terrain] tick " + humanize.Comma(int64(l.ticks)) +
		": viewer " + s.Viewer.String() +
		", " + humanize.Comma(int64(s.Resident)) + " resident" +
		", " + humanize.Comma(int64(s.Visible)) + " visible" +
		", " + humanize.Comma(int64(s.Pending)) + " pending" +
		", " + humanize.Comma(int64(s.Triangles)) + " triangles"
	if st, ok := profiling.Lifetime()[updateTimer]; ok {
		line += ", update avg " + st.Avg().String() + " max " + st.Max.String()
	}
	if l.extra != nil {
		line += ", " + l.extra()
	}
	l.logger.Print(line)
}
