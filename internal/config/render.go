package config

// RenderDistance holds the render radius in chunks. XZ is the horizontal
// Chebyshev radius, Y the vertical one.
type RenderDistance struct {
	XZ int `yaml:"xz" validate:"gte=0,lte=64"`
	Y  int `yaml:"y" validate:"gte=0,lte=64"`
}

const maxRenderDistance = 64

// Clamp returns d with both axes limited to [0, 64].
func (d RenderDistance) Clamp() RenderDistance {
	return RenderDistance{XZ: clampInt(d.XZ, 0, maxRenderDistance), Y: clampInt(d.Y, 0, maxRenderDistance)}
}

// EvictRadius returns the radius beyond which chunks are evicted
// (larger than the load radius by margin so chunks do not flicker at the edge).
// ok is false when eviction is disabled.
func (d RenderDistance) EvictRadius(margin int) (r RenderDistance, ok bool) {
	if margin < 0 {
		return RenderDistance{}, false
	}
	return RenderDistance{XZ: d.XZ + margin, Y: d.Y + margin}, true
}

// Volume returns the number of chunk coordinates inside the render box.
func (d RenderDistance) Volume() int {
	side := 2*d.XZ + 1
	return side * side * (2*d.Y + 1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
