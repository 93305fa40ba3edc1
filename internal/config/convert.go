package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Jak3Gil/melvinport/internal/route"
	"github.com/Jak3Gil/melvinport/internal/sink"
)

// RouteEntries converts configured routes into table entries.
func RouteEntries(entries []RouteConfig) []route.Entry {
	out := make([]route.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, route.Entry{In: uint8(e.In), Out: uint8(e.Out)})
	}
	return out
}

// SinkRegistry builds the device registry for a layout: the built-in
// stdout/stderr/persist map plus any explicitly configured bindings.
func SinkRegistry(cfg Layout) (*sink.Registry, error) {
	reg := sink.DefaultRegistry(cfg.Dispatch.PersistPath)
	for i, s := range cfg.Sinks {
		dev, err := buildSink(s)
		if err != nil {
			return nil, fmt.Errorf("sink[%d]: %w", i, err)
		}
		if err := reg.Bind(uint8(s.ID), dev); err != nil {
			return nil, fmt.Errorf("sink[%d]: %w", i, err)
		}
	}
	return reg, nil
}

func buildSink(s SinkConfig) (sink.Sink, error) {
	switch strings.TrimSpace(s.Kind) {
	case "stdout":
		return sink.Writer{Name: "stdout", W: os.Stdout}, nil
	case "stderr":
		return sink.Writer{Name: "stderr", W: os.Stderr}, nil
	case "file":
		if strings.TrimSpace(s.Path) == "" {
			return nil, fmt.Errorf("path is required for file sinks")
		}
		return sink.File{Path: s.Path}, nil
	default:
		return nil, fmt.Errorf("unknown sink kind %q", s.Kind)
	}
}
