package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hurricaneviz/config"
	"hurricaneviz/core"
	"hurricaneviz/simulation"
)

func main() {
	// Parse command line flags
	var (
		settingsPath = flag.String("settings", config.DefaultPath, "Path to settings.json")
		dataDir      = flag.String("data", "", "Directory holding the grid buffers (overrides settings)")
		port         = flag.Int("port", 0, "HTTP port (overrides settings)")
		mode         = flag.String("mode", "", "Integration dispatch: inline or worker (overrides settings)")
		seed         = flag.Int64("seed", 0, "Fixed seed-placement RNG seed; 0 draws a new one per pass")
		verbose      = flag.Bool("v", false, "Enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	settings, err := config.Load(*settingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *dataDir != "" {
		settings.Grid.Dir = *dataDir
	}
	if *port != 0 {
		settings.Server.Port = *port
	}
	if *mode != "" {
		settings.Compute.Mode = *mode
	}
	if *seed != 0 {
		settings.Params.RandomSeed = *seed
	}

	wind, temp, err := loadGrids(settings.Grid, logger)
	if err != nil {
		log.Fatalf("Failed to load grids: %v", err)
	}

	backend, err := simulation.NewBackend(settings.Compute.Mode, wind, logger)
	if err != nil {
		log.Fatalf("Failed to create backend: %v", err)
	}

	hub := NewHub(logger)
	opts := []simulation.Option{
		simulation.WithLogger(logger),
		simulation.WithBackend(backend),
		simulation.WithParams(settings.Params),
		simulation.WithChunkSize(settings.Compute.ChunkSize),
		simulation.WithCacheSize(settings.Compute.CacheSize),
		simulation.WithDelays(
			time.Duration(settings.Compute.StreamlineDelayMs)*time.Millisecond,
			time.Duration(settings.Compute.SliceDelayMs)*time.Millisecond),
	}
	if settings.Temperature.HasTemperatureRange() {
		opts = append(opts, simulation.WithTemperatureRange(settings.Temperature.Min, settings.Temperature.Max))
	}
	engine := simulation.NewEngine(wind, temp, hub, opts...)
	defer engine.Close()
	hub.Attach(engine)
	engine.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", settings.Server.Port)
	if err := serve(ctx, addr, newMux(hub, settings.Server.StaticDir), logger); err != nil {
		logger.Error("server stopped", "error", err)
	}
	logger.Info("shutting down")
}

func loadGrids(g config.GridSettings, logger *slog.Logger) (*core.VectorField, *core.ScalarField, error) {
	start := time.Now()
	u, v, w := g.WindPaths()
	wind, err := core.LoadVectorField(g.Wind, u, v, w)
	if err != nil {
		return nil, nil, fmt.Errorf("wind: %w", err)
	}
	temp, err := core.LoadScalarField(g.Temperature, g.TemperaturePath())
	if err != nil {
		return nil, nil, fmt.Errorf("temperature: %w", err)
	}
	logger.Info("grids loaded",
		"wind", wind.Dims.String(),
		"temperature", temp.Dims.String(),
		"elapsed", time.Since(start))
	return wind, temp, nil
}
