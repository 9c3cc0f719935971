package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the terrain pipeline reads at startup.
type Config struct {
	// ChunkSize is the edge length of one chunk in world units.
	ChunkSize      int            `yaml:"chunk_size" validate:"min=2,max=64"`
	RenderDistance RenderDistance `yaml:"render_distance"`
	// EvictMargin is how many chunks beyond the render distance a chunk may
	// drift before it is dropped. Negative disables eviction.
	EvictMargin int `yaml:"evict_margin" validate:"gte=-1"`

	Generation GenerationConfig `yaml:"generation"`
	Loop       LoopConfig       `yaml:"loop"`
	Server     ServerConfig     `yaml:"server"`
	Density    Density          `yaml:"density"`
}

// GenerationConfig controls where chunk meshes are built.
type GenerationConfig struct {
	Async   bool `yaml:"async"`
	Workers int  `yaml:"workers" validate:"gte=0,lte=256"` // 0 means NumCPU
	// Interpolate selects isovalue interpolation; false places vertices at edge midpoints.
	Interpolate bool `yaml:"interpolate"`
	Colorize    bool `yaml:"colorize"`
}

// LoopConfig controls the fixed-step frame loop.
type LoopConfig struct {
	TickRate   int `yaml:"tick_rate" validate:"min=1,max=240"`
	StatsEvery int `yaml:"stats_every" validate:"gte=0"` // ticks between stats log lines, 0 disables
}

// ServerConfig controls the remote viewer endpoint.
type ServerConfig struct {
	Listen string `yaml:"listen"` // empty disables the websocket server
	Path   string `yaml:"path"`
	// AllowedOrigins lists browser origins allowed to connect; "*" allows any.
	// Empty accepts same-origin requests only.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Density selects and parameterises the density field.
type Density struct {
	Kind string `yaml:"kind" validate:"oneof=noise cave overhang sphere sphere_sq torus deathstar plane"`

	// Noise parameters.
	Noise        string  `yaml:"noise" validate:"omitempty,oneof=opensimplex value"`
	Seed         int64   `yaml:"seed"`
	Frequency    float32 `yaml:"frequency" validate:"gte=0"`
	Scale        float32 `yaml:"scale"`
	Octaves      int     `yaml:"octaves" validate:"min=1,max=16"`
	Persistence  float32 `yaml:"persistence"`
	Lacunarity   float32 `yaml:"lacunarity"`
	HeightWeight float32 `yaml:"height_weight"`
	// Gradient is how sharply overhang terrain turns from rock to air around HeightWeight.
	Gradient float32 `yaml:"gradient" validate:"gte=0"`

	// Shape parameters.
	Center      [3]float32 `yaml:"center"`
	Radius      float32    `yaml:"radius" validate:"gte=0"`
	MinorRadius float32    `yaml:"minor_radius" validate:"gte=0"`
	Distance    float32    `yaml:"distance"`
	Normal      [3]float32 `yaml:"normal"`
}

// Defaults returns the configuration used when no file is given.
func Defaults() Config {
	return Config{
		ChunkSize:      15,
		RenderDistance: RenderDistance{XZ: 2, Y: 2},
		EvictMargin:    2,
		Generation: GenerationConfig{
			Async:       true,
			Workers:     runtime.NumCPU(),
			Interpolate: true,
		},
		Loop: LoopConfig{
			TickRate:   60,
			StatsEvery: 300,
		},
		Server: ServerConfig{
			Path: "/ws",
		},
		Density: Density{
			Kind:         "noise",
			Noise:        "opensimplex",
			Seed:         972483,
			Frequency:    0.005,
			Scale:        3,
			Octaves:      3,
			Persistence:  0.5,
			Lacunarity:   2,
			HeightWeight: 24,
			Gradient:     16,
			Center:       [3]float32{8, 8, 8},
			Radius:       8,
			MinorRadius:  3,
			Distance:     10,
			Normal:       [3]float32{0, 1, 0},
		},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides, and validates the result. A .env file in the working directory
// is picked up when present.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env: %v", err)
	}
	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	return nil
}

// ApplyEnv overrides fields from TERRAIN_* variables looked up through getenv.
// Unparseable values are logged and ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	intVar(getenv, "TERRAIN_CHUNK_SIZE", &c.ChunkSize)
	intVar(getenv, "TERRAIN_RENDER_XZ", &c.RenderDistance.XZ)
	intVar(getenv, "TERRAIN_RENDER_Y", &c.RenderDistance.Y)
	intVar(getenv, "TERRAIN_EVICT_MARGIN", &c.EvictMargin)
	intVar(getenv, "TERRAIN_WORKERS", &c.Generation.Workers)
	boolVar(getenv, "TERRAIN_ASYNC", &c.Generation.Async)
	intVar(getenv, "TERRAIN_TICK_RATE", &c.Loop.TickRate)
	if v := getenv("TERRAIN_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := getenv("TERRAIN_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}
	if v := getenv("TERRAIN_DENSITY_KIND"); v != "" {
		c.Density.Kind = v
	}
	if v := getenv("TERRAIN_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Printf("Warning: invalid integer value for TERRAIN_SEED: %s, keeping %d", v, c.Density.Seed)
		} else {
			c.Density.Seed = seed
		}
	}
}

func intVar(getenv func(string) string, key string, dst *int) {
	v := getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid integer value for %s: %s, keeping %d", key, v, *dst)
		return
	}
	*dst = n
}

func boolVar(getenv func(string) string, key string, dst *bool) {
	v := getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: invalid boolean value for %s: %s, keeping %t", key, v, *dst)
		return
	}
	*dst = b
}
