package density

// LayeredNoise produces rolling terrain from fractal 2D noise.
// The surface sits where y equals the summed noise height, so values are
// negative below ground and positive above.
type LayeredNoise struct {
	noise        Noise2D
	frequency    float64
	scale        float64
	octaves      int
	persistence  float64
	lacunarity   float64
	heightWeight float64
}

// LayeredNoiseParams configures NewLayeredNoise.
type LayeredNoiseParams struct {
	Frequency    float32 // base frequency applied to world coordinates
	Scale        float32 // world coordinates are divided by Scale first
	Octaves      int
	Persistence  float32 // amplitude multiplier per octave
	Lacunarity   float32 // frequency multiplier per octave
	HeightWeight float32 // world units per unit of summed noise
}

// NewLayeredNoise builds a layered noise field over noise.
// A non-positive scale is clamped to 0.0001 to avoid division by zero.
func NewLayeredNoise(noise Noise2D, p LayeredNoiseParams) *LayeredNoise {
	scale := float64(p.Scale)
	if scale <= 0 {
		scale = 0.0001
	}
	freq := float64(p.Frequency)
	if freq <= 0 {
		freq = 1
	}
	return &LayeredNoise{
		noise:        noise,
		frequency:    freq,
		scale:        scale,
		octaves:      max(p.Octaves, 1),
		persistence:  float64(p.Persistence),
		lacunarity:   float64(p.Lacunarity),
		heightWeight: float64(p.HeightWeight),
	}
}

// Height returns the summed, remapped noise at (x, z) before weighting.
func (n *LayeredNoise) Height(x, z float32) float64 {
	amplitude := 1.0
	frequency := n.frequency
	sum := 0.0
	for range n.octaves {
		sx := float64(x) / n.scale * frequency
		sz := float64(z) / n.scale * frequency

		v := (n.noise.Eval2(sx, sz) + 1) / 2
		sum += v * amplitude

		amplitude *= n.persistence
		frequency *= n.lacunarity
	}
	return sum
}

// MaxHeight is the highest surface the field can produce.
func (n *LayeredNoise) MaxHeight() float32 {
	amplitude, sum := 1.0, 0.0
	for range n.octaves {
		sum += amplitude
		amplitude *= n.persistence
	}
	return float32(sum * n.heightWeight)
}

func (n *LayeredNoise) ScalarAt(x, y, z float32) float32 {
	return y - float32(n.Height(x, z)*n.heightWeight)
}

// CaveNoise samples raw 3D noise, giving a sponge of tunnels and pockets
// with no ground plane.
type CaveNoise struct {
	noise Noise3D
	scale float64
}

// NewCaveNoise wraps noise, dividing coordinates by scale.
func NewCaveNoise(noise Noise3D, scale float32) *CaveNoise {
	s := float64(scale)
	if s <= 0 {
		s = 0.0001
	}
	return &CaveNoise{noise: noise, scale: s}
}

func (c *CaveNoise) ScalarAt(x, y, z float32) float32 {
	return float32(c.noise.Eval3(float64(x)/c.scale, float64(y)/c.scale, float64(z)/c.scale))
}
