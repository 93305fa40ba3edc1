package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Layout describes one port fabric: the engine driver to load, how
// input is chunked, where output is delivered, and the route table
// between input and output ports.
type Layout struct {
	Engine   EngineConfig   `toml:"engine"`
	Ingest   IngestConfig   `toml:"ingest"`
	Dispatch DispatchConfig `toml:"dispatch"`
	Routes   []RouteConfig  `toml:"routes"`
	Sinks    []SinkConfig   `toml:"sinks"`
}

type EngineConfig struct {
	Driver  string            `toml:"driver"`
	Options map[string]string `toml:"options"`
}

type IngestConfig struct {
	Port               int   `toml:"port"`
	ChunkSize          int   `toml:"chunk_size"`
	LargeFileThreshold int64 `toml:"large_file_threshold"`
}

type DispatchConfig struct {
	ReadCapacity int    `toml:"read_capacity"`
	PersistPath  string `toml:"persist_path"`
}

type RouteConfig struct {
	In  int `toml:"in"`
	Out int `toml:"out"`
}

// SinkConfig binds a destination id to a device. Kind is one of
// "stdout", "stderr", or "file"; Path applies to "file" only.
type SinkConfig struct {
	ID   int    `toml:"id"`
	Kind string `toml:"kind"`
	Path string `toml:"path"`
}

func DefaultLayout() Layout {
	return Layout{
		Engine:   EngineConfig{Driver: "loopback"},
		Ingest:   IngestConfig{Port: 1, ChunkSize: 1 << 20, LargeFileThreshold: 100 << 20},
		Dispatch: DispatchConfig{ReadCapacity: 8192, PersistPath: "output.txt"},
	}
}

func LoadLayout(path string) (Layout, error) {
	cfg := DefaultLayout()
	if err := loadToml(path, &cfg); err != nil {
		return Layout{}, err
	}
	applyLayoutDefaults(&cfg)
	if err := ValidateLayout(cfg); err != nil {
		return Layout{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// applyLayoutDefaults restores zero-valued scalars a layout file may
// have cleared by explicit zeroing or partial tables.
func applyLayoutDefaults(cfg *Layout) {
	def := DefaultLayout()
	if strings.TrimSpace(cfg.Engine.Driver) == "" {
		cfg.Engine.Driver = def.Engine.Driver
	}
	if cfg.Ingest.ChunkSize <= 0 {
		cfg.Ingest.ChunkSize = def.Ingest.ChunkSize
	}
	if cfg.Ingest.LargeFileThreshold <= 0 {
		cfg.Ingest.LargeFileThreshold = def.Ingest.LargeFileThreshold
	}
	if cfg.Dispatch.ReadCapacity <= 0 {
		cfg.Dispatch.ReadCapacity = def.Dispatch.ReadCapacity
	}
	if strings.TrimSpace(cfg.Dispatch.PersistPath) == "" {
		cfg.Dispatch.PersistPath = def.Dispatch.PersistPath
	}
}

func ValidateLayout(cfg Layout) error {
	if strings.TrimSpace(cfg.Engine.Driver) == "" {
		return fmt.Errorf("layout missing engine driver")
	}
	if cfg.Ingest.Port < 0 || cfg.Ingest.Port > 255 {
		return fmt.Errorf("ingest port %d outside 0-255", cfg.Ingest.Port)
	}
	for i, r := range cfg.Routes {
		if err := ValidateRoute(r); err != nil {
			return fmt.Errorf("route[%d] invalid: %w", i, err)
		}
	}
	for i, s := range cfg.Sinks {
		if err := ValidateSink(s); err != nil {
			return fmt.Errorf("sink[%d] invalid: %w", i, err)
		}
	}
	return nil
}

func ValidateRoute(r RouteConfig) error {
	if r.In < 0 || r.In > 255 {
		return fmt.Errorf("in port %d outside 0-255", r.In)
	}
	if r.Out < 0 || r.Out > 255 {
		return fmt.Errorf("out port %d outside 0-255", r.Out)
	}
	return nil
}

func ValidateSink(s SinkConfig) error {
	if s.ID < 0 || s.ID > 255 {
		return fmt.Errorf("id %d outside 0-255", s.ID)
	}
	switch strings.TrimSpace(s.Kind) {
	case "stdout", "stderr":
		return nil
	case "file":
		if strings.TrimSpace(s.Path) == "" {
			return fmt.Errorf("path is required for file sinks")
		}
		return nil
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
}
