package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"hurricaneviz/core"
)

// DefaultPath is where Load looks when no path is given
const DefaultPath = "settings.json"

type Settings struct {
	Grid        GridSettings        `json:"grid"`
	Temperature TemperatureSettings `json:"temperature"`
	Params      core.Params         `json:"params"`
	Server      ServerSettings      `json:"server"`
	Compute     ComputeSettings     `json:"compute"`
}

// GridSettings locates the raw field buffers. File names are relative to
// Dir; a ".zst" variant is used when present.
type GridSettings struct {
	Dir             string    `json:"dir"`
	Wind            core.Dims `json:"wind"`
	WindFiles       [3]string `json:"windFiles"`
	Temperature     core.Dims `json:"temperature"`
	TemperatureFile string    `json:"temperatureFile"`
}

// TemperatureSettings fixes the range contour levels are stepped over. When
// Min equals Max the range of the loaded data is used.
type TemperatureSettings struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type ServerSettings struct {
	Port      int    `json:"port"`
	StaticDir string `json:"staticDir"`
}

type ComputeSettings struct {
	Mode              string `json:"mode"`
	ChunkSize         int    `json:"chunkSize"`
	CacheSize         int    `json:"cacheSize"`
	StreamlineDelayMs int    `json:"streamlineDelayMs"`
	SliceDelayMs      int    `json:"sliceDelayMs"`
}

// Default returns the settings for the bundled hurricane data set
func Default() Settings {
	return Settings{
		Grid: GridSettings{
			Dir:             "data",
			Wind:            core.Dims{X: 250, Y: 250, Z: 100},
			WindFiles:       [3]string{"Uf25_2_interp.bin", "Vf25_2_interp.bin", "Wf25_2_interp.bin"},
			Temperature:     core.Dims{X: 100, Y: 100, Z: 100},
			TemperatureFile: "TCf25.bin",
		},
		Temperature: TemperatureSettings{Min: -78, Max: 30},
		Params:      core.DefaultParams(),
		Server: ServerSettings{
			Port:      8080,
			StaticDir: "web",
		},
		Compute: ComputeSettings{
			Mode:              "worker",
			ChunkSize:         10,
			CacheSize:         8,
			StreamlineDelayMs: 200,
			SliceDelayMs:      100,
		},
	}
}

// Load reads settings from path on top of the defaults. A missing file is
// not an error.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		path = DefaultPath
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Info("no settings file found, using defaults", "path", path)
			return s, nil
		}
		return s, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&s); err != nil {
		return s, fmt.Errorf("error parsing %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}

	slog.Info("loaded settings",
		"path", path,
		"wind", s.Grid.Wind.String(),
		"temperature", s.Grid.Temperature.String(),
		"mode", s.Compute.Mode)
	return s, nil
}

// Validate rejects settings the engine cannot start with
func (s Settings) Validate() error {
	for name, d := range map[string]core.Dims{"wind": s.Grid.Wind, "temperature": s.Grid.Temperature} {
		if d.X < 2 || d.Y < 2 || d.Z < 2 {
			return fmt.Errorf("%s grid %s needs at least 2 samples per axis", name, d)
		}
	}
	if s.Temperature.Min > s.Temperature.Max {
		return fmt.Errorf("temperature range [%v, %v] is inverted", s.Temperature.Min, s.Temperature.Max)
	}
	switch s.Compute.Mode {
	case "", "inline", "worker":
	default:
		return fmt.Errorf("unknown compute mode %q", s.Compute.Mode)
	}
	if s.Server.Port < 0 || s.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Server.Port)
	}
	return nil
}

// WindPaths returns the U, V and W buffer paths
func (g GridSettings) WindPaths() (u, v, w string) {
	return resolve(g.Dir, g.WindFiles[0]), resolve(g.Dir, g.WindFiles[1]), resolve(g.Dir, g.WindFiles[2])
}

// TemperaturePath returns the scalar buffer path
func (g GridSettings) TemperaturePath() string {
	return resolve(g.Dir, g.TemperatureFile)
}

// resolve prefers a zstd compressed sibling of name when one exists
func resolve(dir, name string) string {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p + ".zst"); err == nil {
		return p + ".zst"
	}
	return p
}

// HasTemperatureRange reports whether a fixed contour range is configured
func (t TemperatureSettings) HasTemperatureRange() bool {
	return t.Min != t.Max
}
