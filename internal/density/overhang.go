package density

// Overhang is fractal 3D noise biased by altitude. Unlike LayeredNoise the
// surface can fold over itself, giving cliffs, arches and floating rock.
// Above BaseHeight+Gradient the field is always air, below BaseHeight-Gradient
// always solid.
type Overhang struct {
	noise       Noise3D
	frequency   float64
	octaves     int
	persistence float64
	lacunarity  float64
	baseHeight  float64
	gradient    float64
}

// OverhangParams configures NewOverhang.
type OverhangParams struct {
	Frequency   float32
	Octaves     int
	Persistence float32
	Lacunarity  float32
	BaseHeight  float32 // altitude where noise and gradient balance
	Gradient    float32 // world units over which the bias goes from 0 to 1
}

func NewOverhang(noise Noise3D, p OverhangParams) *Overhang {
	grad := float64(p.Gradient)
	if grad <= 0 {
		grad = 1
	}
	freq := float64(p.Frequency)
	if freq <= 0 {
		freq = 1.0 / 64.0
	}
	return &Overhang{
		noise:       noise,
		frequency:   freq,
		octaves:     max(p.Octaves, 1),
		persistence: float64(p.Persistence),
		lacunarity:  float64(p.Lacunarity),
		baseHeight:  float64(p.BaseHeight),
		gradient:    grad,
	}
}

// octaveNoise sums the noise layers, normalised back to [-1,1].
func (o *Overhang) octaveNoise(x, y, z float64) float64 {
	total, amplitude, frequency, norm := 0.0, 1.0, o.frequency, 0.0
	for range o.octaves {
		total += o.noise.Eval3(x*frequency, y*frequency, z*frequency) * amplitude
		norm += amplitude
		amplitude *= o.persistence
		frequency *= o.lacunarity
	}
	if norm == 0 {
		return 0
	}
	return total / norm
}

func (o *Overhang) ScalarAt(x, y, z float32) float32 {
	n := o.octaveNoise(float64(x), float64(y), float64(z))
	// Higher altitude pushes toward air.
	bias := (o.baseHeight - float64(y)) / o.gradient
	return float32(-(n + bias))
}
