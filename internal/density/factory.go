package density

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"marching-terrain/internal/config"
)

// ErrUnknownKind is returned by FromConfig for an unrecognised field kind.
var ErrUnknownKind = errors.New("density: unknown field kind")

// FromConfig builds the field selected by c.Kind.
func FromConfig(c config.Density) (Field, error) {
	center := mgl32.Vec3(c.Center)
	switch c.Kind {
	case "noise":
		src, err := noise2D(c)
		if err != nil {
			return nil, err
		}
		return NewLayeredNoise(src, LayeredNoiseParams{
			Frequency:    c.Frequency,
			Scale:        c.Scale,
			Octaves:      c.Octaves,
			Persistence:  c.Persistence,
			Lacunarity:   c.Lacunarity,
			HeightWeight: c.HeightWeight,
		}), nil
	case "cave":
		return NewCaveNoise(noise3D(c), c.Scale), nil
	case "overhang":
		return NewOverhang(noise3D(c), OverhangParams{
			Frequency:   c.Frequency,
			Octaves:     c.Octaves,
			Persistence: c.Persistence,
			Lacunarity:  c.Lacunarity,
			BaseHeight:  c.HeightWeight,
			Gradient:    c.Gradient,
		}), nil
	case "sphere":
		return Sphere{Center: center, Radius: c.Radius}, nil
	case "sphere_sq":
		return SquaredSphere{Center: center, Radius: c.Radius}, nil
	case "torus":
		return Torus{Center: center, Major: c.Radius, Minor: c.MinorRadius}, nil
	case "deathstar":
		if c.Distance == 0 {
			return nil, fmt.Errorf("density: deathstar needs a non-zero distance")
		}
		return DeathStar{Center: center, Ra: c.Radius, Rb: c.MinorRadius, D: c.Distance}, nil
	case "plane":
		return NewPlane(center, mgl32.Vec3(c.Normal)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
}

func noise2D(c config.Density) (Noise2D, error) {
	switch c.Noise {
	case "", "opensimplex":
		return NewOpenSimplex(c.Seed), nil
	case "value":
		return ValueNoise{Seed: c.Seed}, nil
	default:
		return nil, fmt.Errorf("density: unknown noise source %q", c.Noise)
	}
}

func noise3D(c config.Density) Noise3D {
	if c.Noise == "value" {
		return ValueNoise{Seed: c.Seed}
	}
	return NewOpenSimplex(c.Seed)
}
