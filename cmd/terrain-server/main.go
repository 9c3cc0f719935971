package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl32"

	"marching-terrain/internal/bridge"
	"marching-terrain/internal/config"
	"marching-terrain/internal/density"
	"marching-terrain/internal/game"
	"marching-terrain/internal/meshing"
	"marching-terrain/internal/terrain"
	"marching-terrain/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file (optional)")
		listen     = flag.String("listen", "", "websocket listen address, overrides config (empty keeps config)")
		ticks      = flag.Int("ticks", 0, "stop after this many ticks (0 runs until interrupted)")
		flySpeed   = flag.Float64("fly_speed", 0.5, "speed of the scripted viewer in world units per tick")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[terrain] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if s := strings.TrimSpace(*listen); s != "" {
		cfg.Server.Listen = s
	}

	field, err := density.FromConfig(cfg.Density)
	if err != nil {
		logger.Fatalf("density field: %v", err)
	}

	opts := meshing.DefaultOptions()
	if !cfg.Generation.Interpolate {
		opts.Interpolation = meshing.InterpolateMidpoint
	}
	opts.Colorize = cfg.Generation.Colorize
	gen := terrain.NewGenerator(field, cfg.ChunkSize, opts)

	// Scripted fly path around the origin, used until a remote viewer reports in.
	path := flyPath(cfg, field)
	scripted := bridge.NewPathViewer(path, float32(*flySpeed), true)

	ctx, cancel := signalContext()
	defer cancel()

	memory := bridge.NewMemorySink()
	var (
		sink   bridge.Sink = memory
		viewer bridge.ViewerSource = scripted
		suffix func() string
		srv    *http.Server
		remote *ws.Server
	)
	if cfg.Server.Listen != "" {
		remote = ws.NewServer(cfg.ChunkSize, logger, ws.WithAllowedOrigins(cfg.Server.AllowedOrigins...))
		sink = bridge.NewMultiSink(memory, remote)
		viewer = bridge.ViewerFunc(func() (mgl32.Vec3, bool) {
			if p, ok := remote.Position(); ok {
				return p, true
			}
			return scripted.Position()
		})
		suffix = func() string { return remote.Stats().String() }

		mux := http.NewServeMux()
		mux.HandleFunc(cfg.Server.Path, remote.Handler())
		srv = &http.Server{
			Addr:              cfg.Server.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Printf("listening on %s%s", cfg.Server.Listen, cfg.Server.Path)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("ListenAndServe: %v", err)
				cancel()
			}
		}()
	}

	mgr := terrain.NewManager(terrain.SettingsFromConfig(cfg), gen, viewer, sink, terrain.WithLogger(logger))
	defer mgr.Close()

	loopOpts := []game.LoopOption{game.WithLoopLogger(logger), game.WithMaxTicks(*ticks)}
	if suffix != nil {
		loopOpts = append(loopOpts, game.WithStatsSuffix(suffix))
	}
	loop := game.NewLoop(mgr, cfg.Loop, loopOpts...)

	logger.Printf("density %q, chunk size %d, render distance %d/%d, async=%v workers=%d",
		cfg.Density.Kind, cfg.ChunkSize, cfg.RenderDistance.XZ, cfg.RenderDistance.Y,
		cfg.Generation.Async, cfg.Generation.Workers)

	if err := loop.Run(ctx); err != nil {
		logger.Printf("loop: %v", err)
	}

	if srv != nil {
		remote.Close()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("http shutdown: %v", err)
		}
		cancelShutdown()
	}

	st := mgr.Stats()
	displayed, removed := memory.Counts()
	logger.Printf("stopped after %s ticks: %s resident chunks, %s triangles, %d meshes displayed, %d removed",
		humanize.Comma(int64(loop.Ticks())), humanize.Comma(int64(st.Resident)),
		humanize.Comma(int64(st.Triangles)), displayed, removed)
}

// flyPath is a square loop around the origin at a height where the
// configured field has its surface.
func flyPath(cfg config.Config, field density.Field) []mgl32.Vec3 {
	r := float32(cfg.ChunkSize * (cfg.RenderDistance.XZ + 2))
	var y float32
	switch f := field.(type) {
	case *density.LayeredNoise:
		y = f.MaxHeight() / 2
	case *density.Overhang:
		y = cfg.Density.HeightWeight
	default:
		y = cfg.Density.Center[1]
	}
	return []mgl32.Vec3{{-r, y, -r}, {r, y, -r}, {r, y, r}, {-r, y, r}}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-ch:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
