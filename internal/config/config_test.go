package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLayout(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}
	return path
}

func TestLoadLayoutDefaults(t *testing.T) {
	path := writeLayout(t, "")
	cfg, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("load layout: %v", err)
	}
	if cfg.Engine.Driver != "loopback" {
		t.Fatalf("default driver: %q", cfg.Engine.Driver)
	}
	if cfg.Ingest.Port != 1 {
		t.Fatalf("default ingest port: %d", cfg.Ingest.Port)
	}
	if cfg.Ingest.ChunkSize != 1<<20 {
		t.Fatalf("default chunk size: %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.LargeFileThreshold != 100<<20 {
		t.Fatalf("default large file threshold: %d", cfg.Ingest.LargeFileThreshold)
	}
	if cfg.Dispatch.ReadCapacity != 8192 {
		t.Fatalf("default read capacity: %d", cfg.Dispatch.ReadCapacity)
	}
	if cfg.Dispatch.PersistPath != "output.txt" {
		t.Fatalf("default persist path: %q", cfg.Dispatch.PersistPath)
	}
}

func TestLoadLayoutOverrides(t *testing.T) {
	path := writeLayout(t, `
[engine]
driver = "loopback"
[engine.options]
seed = "42"

[ingest]
port = 3
chunk_size = 4096

[dispatch]
read_capacity = 512
persist_path = "custom.log"

[[routes]]
in = 3
out = 2

[[sinks]]
id = 2
kind = "file"
path = "custom.log"
`)
	cfg, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("load layout: %v", err)
	}
	if cfg.Ingest.Port != 3 || cfg.Ingest.ChunkSize != 4096 {
		t.Fatalf("ingest overrides: %+v", cfg.Ingest)
	}
	if cfg.Ingest.LargeFileThreshold != 100<<20 {
		t.Fatalf("unset threshold should keep default: %d", cfg.Ingest.LargeFileThreshold)
	}
	if cfg.Dispatch.ReadCapacity != 512 || cfg.Dispatch.PersistPath != "custom.log" {
		t.Fatalf("dispatch overrides: %+v", cfg.Dispatch)
	}
	if cfg.Engine.Options["seed"] != "42" {
		t.Fatalf("engine options: %+v", cfg.Engine.Options)
	}
	if len(cfg.Routes) != 1 || cfg.Routes[0].In != 3 || cfg.Routes[0].Out != 2 {
		t.Fatalf("routes: %+v", cfg.Routes)
	}
}

func TestLoadLayoutMissingFile(t *testing.T) {
	if _, err := LoadLayout(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateLayoutRejectsBadRoute(t *testing.T) {
	path := writeLayout(t, `
[[routes]]
in = 300
out = 0
`)
	if _, err := LoadLayout(path); err == nil {
		t.Fatalf("expected route validation error")
	}
}

func TestValidateLayoutRejectsBadSink(t *testing.T) {
	for name, body := range map[string]string{
		"unknown kind": `
[[sinks]]
id = 4
kind = "socket"
`,
		"file without path": `
[[sinks]]
id = 4
kind = "file"
`,
		"id out of range": `
[[sinks]]
id = 300
kind = "stdout"
`,
	} {
		path := writeLayout(t, body)
		if _, err := LoadLayout(path); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestRouteEntriesConversion(t *testing.T) {
	entries := RouteEntries([]RouteConfig{{In: 1, Out: 0}, {In: 255, Out: 2}})
	if len(entries) != 2 {
		t.Fatalf("entries: %+v", entries)
	}
	if entries[0].In != 1 || entries[0].Out != 0 || entries[1].In != 255 || entries[1].Out != 2 {
		t.Fatalf("entries converted wrong: %+v", entries)
	}
}

func TestSinkRegistryBindsConfiguredSinks(t *testing.T) {
	cfg := DefaultLayout()
	cfg.Sinks = []SinkConfig{
		{ID: 4, Kind: "stderr"},
		{ID: 5, Kind: "file", Path: "/tmp/extra.log"},
	}
	reg, err := SinkRegistry(cfg)
	if err != nil {
		t.Fatalf("sink registry: %v", err)
	}
	if got := reg.Resolve(4).Kind(); got != "stderr" {
		t.Fatalf("sink 4: %q", got)
	}
	if got := reg.Resolve(5).Kind(); got != "file:/tmp/extra.log" {
		t.Fatalf("sink 5: %q", got)
	}
	if got := reg.Resolve(2).Kind(); got != "file:output.txt" {
		t.Fatalf("default persist binding: %q", got)
	}
}

func TestSinkRegistryRejectsUnknownKind(t *testing.T) {
	cfg := DefaultLayout()
	cfg.Sinks = []SinkConfig{{ID: 4, Kind: "socket"}}
	if _, err := SinkRegistry(cfg); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestWriteTemplateRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.toml")
	if err := WriteTemplate(path, "layout", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, "layout", false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	cfg, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("load generated template: %v", err)
	}
	if cfg.Engine.Driver != "loopback" || len(cfg.Routes) != 2 {
		t.Fatalf("template layout: %+v", cfg)
	}
}

func TestTemplateUnknownKind(t *testing.T) {
	if _, err := Template("ini"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
