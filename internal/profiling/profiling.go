// Package profiling keeps named CPU timings for the frame loop.
//
// Two views are kept: per-frame totals, which the loop clears at the start of
// every tick, and lifetime stats that keep growing for the whole run.
package profiling

import (
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stat summarises every call recorded under one name.
type Stat struct {
	Count int64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
}

// Avg returns the mean duration per call.
func (s Stat) Avg() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

func (s *Stat) add(d time.Duration) {
	if s.Count == 0 || d < s.Min {
		s.Min = d
	}
	s.Max = max(s.Max, d)
	s.Count++
	s.Total += d
}

type registry struct {
	mu    sync.Mutex
	frame map[string]time.Duration
	life  map[string]*Stat
}

var reg = registry{
	frame: make(map[string]time.Duration),
	life:  make(map[string]*Stat),
}

// Track starts a timer for name; calling the returned func records it.
//
//	defer profiling.Track("terrain.Update")()
func Track(name string) func() {
	start := time.Now()
	return func() { Record(name, time.Since(start)) }
}

// Record adds d under name.
func Record(name string, d time.Duration) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.frame[name] += d
	s := reg.life[name]
	if s == nil {
		s = &Stat{}
		reg.life[name] = s
	}
	s.add(d)
}

// ResetFrame starts a new frame. Lifetime stats are kept.
func ResetFrame() {
	reg.mu.Lock()
	clear(reg.frame)
	reg.mu.Unlock()
}

// Snapshot copies the totals of the current frame.
func Snapshot() map[string]time.Duration {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return maps.Clone(reg.frame)
}

// Lifetime copies the accumulated stats.
func Lifetime() map[string]Stat {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	out := make(map[string]Stat, len(reg.life))
	for k, v := range reg.life {
		out[k] = *v
	}
	return out
}

// TopN lists the n most expensive names of the current frame, slowest first,
// e.g. "terrain.Update:4.2ms, meshing.Extract:2.1ms".
func TopN(n int) string {
	frame := Snapshot()
	names := make([]string, 0, len(frame))
	for k := range frame {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := frame[names[i]], frame[names[j]]
		if a == b {
			return names[i] < names[j]
		}
		return a > b
	})
	if n < len(names) {
		names = names[:max(n, 0)]
	}
	var sb strings.Builder
	for i, name := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		sb.WriteByte(':')
		sb.WriteString(formatMs(frame[name]))
	}
	return sb.String()
}

func formatMs(d time.Duration) string {
	s := fmt.Sprintf("%.1f", float64(d.Microseconds())/1000)
	return strings.TrimSuffix(s, ".0") + "ms"
}
