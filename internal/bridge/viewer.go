package bridge

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// ViewerFunc adapts a function into a ViewerSource.
type ViewerFunc func() (mgl32.Vec3, bool)

func (f ViewerFunc) Position() (mgl32.Vec3, bool) { return f() }

// StaticViewer is a viewer that can be moved by hand. The zero value has
// no position until Set is called.
type StaticViewer struct {
	mu  sync.RWMutex
	pos mgl32.Vec3
	set bool
}

// NewStaticViewer returns a viewer already placed at pos.
func NewStaticViewer(pos mgl32.Vec3) *StaticViewer {
	return &StaticViewer{pos: pos, set: true}
}

func (v *StaticViewer) Set(pos mgl32.Vec3) {
	v.mu.Lock()
	v.pos, v.set = pos, true
	v.mu.Unlock()
}

// Clear removes the viewer.
func (v *StaticViewer) Clear() {
	v.mu.Lock()
	v.set = false
	v.mu.Unlock()
}

func (v *StaticViewer) Position() (mgl32.Vec3, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.pos, v.set
}

// PathViewer flies through waypoints at a fixed distance per call to
// Position, which the manager makes once per tick.
type PathViewer struct {
	mu     sync.Mutex
	points []mgl32.Vec3
	speed  float32
	loop   bool

	seg int
	pos mgl32.Vec3
}

// NewPathViewer starts at the first waypoint. With loop set the path wraps
// back to the start, otherwise the viewer parks on the last point.
func NewPathViewer(points []mgl32.Vec3, speed float32, loop bool) *PathViewer {
	p := &PathViewer{points: append([]mgl32.Vec3(nil), points...), speed: speed, loop: loop}
	if len(p.points) > 0 {
		p.pos = p.points[0]
	}
	return p
}

// Position returns the current point and then advances along the path.
func (p *PathViewer) Position() (mgl32.Vec3, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.points) == 0 {
		return mgl32.Vec3{}, false
	}
	cur := p.pos
	p.advance(p.speed)
	return cur, true
}

func (p *PathViewer) advance(dist float32) {
	for dist > 0 && len(p.points) > 1 {
		next := p.seg + 1
		if next >= len(p.points) {
			if !p.loop {
				return
			}
			next = 0
		}
		target := p.points[next]
		to := target.Sub(p.pos)
		l := to.Len()
		if l > dist {
			p.pos = p.pos.Add(to.Mul(dist / l))
			return
		}
		p.pos = target
		p.seg = next
		dist -= l
		if l == 0 && next == 0 {
			// Every waypoint is the same point.
			return
		}
	}
}
