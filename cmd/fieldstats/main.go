// Command fieldstats prints summary statistics of the hurricane grids and a
// sample streamline/contour pass, and can write zstd copies of the buffers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"hurricaneviz/config"
	"hurricaneviz/core"
	"hurricaneviz/physics"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func main() {
	var (
		settingsPath = flag.String("settings", config.DefaultPath, "Path to settings.json")
		dataDir      = flag.String("data", "", "Directory holding the grid buffers (overrides settings)")
		compress     = flag.Bool("compress", false, "Write a .zst copy next to every raw buffer")
		seed         = flag.Int64("seed", 1, "Seed-placement RNG seed for the sample pass")
	)
	flag.Parse()

	settings, err := config.Load(*settingsPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *dataDir != "" {
		settings.Grid.Dir = *dataDir
	}
	g := settings.Grid

	fmt.Println("=== Hurricane Field Stats ===")

	u, v, w := g.WindPaths()
	wind, err := core.LoadVectorField(g.Wind, u, v, w)
	if err != nil {
		log.Fatalf("Failed to load wind: %v", err)
	}
	temp, err := core.LoadScalarField(g.Temperature, g.TemperaturePath())
	if err != nil {
		log.Fatalf("Failed to load temperature: %v", err)
	}

	fmt.Printf("\nWind grid %s (fingerprint %016x)\n", wind.Dims, core.Fingerprint(wind.U, wind.V, wind.W))
	printStats("U", wind.U)
	printStats("V", wind.V)
	printStats("W", wind.W)

	fmt.Printf("\nTemperature grid %s (fingerprint %016x)\n", temp.Dims, core.Fingerprint(temp.Values))
	printStats("T", temp.Values)

	// Sample pass with the configured parameters
	p := settings.Params.Clamp(temp.Dims)
	fmt.Printf("\nStreamlines: %d seeds, %d iterations, factor %.3f\n", p.Count, p.Iterations, p.StepScale)
	start := time.Now()
	seeds := physics.NewSeedGenerator(rand.New(rand.NewSource(*seed))).
		Generate(p.Count, p.SeedRatio, p.FeatureCenter, p.FeatureRadius, wind.Dims)
	batch, err := physics.NewIntegrator(wind, p.Iterations, p.StepScale).IntegrateAll(context.Background(), seeds, nil)
	if err != nil {
		log.Fatalf("Integration failed: %v", err)
	}
	points := 0
	for _, line := range batch.Lines {
		points += line.Len()
	}
	fmt.Printf("  %d lines kept, %d points, max magnitude %.3f (%v)\n",
		len(batch.Lines), points, batch.MaxMagnitude, time.Since(start))

	lo, hi := settings.Temperature.Min, settings.Temperature.Max
	if !settings.Temperature.HasTemperatureRange() {
		values := toFloat64(temp.Values)
		lo, hi = floats.Min(values), floats.Max(values)
	}
	levels := physics.ComputeLevels(lo, hi, p.ContourStep)
	fmt.Printf("\nContours: %d levels in [%.1f, %.1f) step %.0f\n", len(levels), lo, hi, p.ContourStep)
	for _, axis := range []core.Axis{core.AxisX, core.AxisY, core.AxisZ} {
		index := temp.Dims.Axis(axis) / 2
		segs := physics.ExtractSlice(temp, axis, index, levels)
		fmt.Printf("  %s=%d: %d segments\n", axis, index, len(segs))
	}

	if *compress {
		fmt.Println("\nCompressing buffers")
		files := map[string][]float32{
			g.WindFiles[0]:    wind.U,
			g.WindFiles[1]:    wind.V,
			g.WindFiles[2]:    wind.W,
			g.TemperatureFile: temp.Values,
		}
		for name, values := range files {
			if err := writeCompressed(g.Dir, name, values); err != nil {
				log.Fatalf("Failed to compress %s: %v", name, err)
			}
		}
	}
}

func printStats(name string, values []float32) {
	data := toFloat64(values)
	mean, std := stat.MeanStdDev(data, nil)
	fmt.Printf("  %s: min=%.3f max=%.3f mean=%.3f std=%.3f\n",
		name, floats.Min(data), floats.Max(data), mean, std)
}

func toFloat64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func writeCompressed(dir, name string, values []float32) error {
	data, err := core.EncodeFloats(values, true)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name+".zst")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("  %s (%d bytes)\n", path, len(data))
	return nil
}
