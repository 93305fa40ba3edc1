package port

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jak3Gil/melvinport/internal/config"
	"github.com/Jak3Gil/melvinport/internal/engine"
	"github.com/Jak3Gil/melvinport/internal/route"
	"github.com/Jak3Gil/melvinport/internal/sink"
	"github.com/Jak3Gil/melvinport/internal/testutil/testlog"
)

func TestBootstrapRejectsBadHeartbeat(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultServiceConfig()
	cfg.Heartbeat = 0
	if err := NewServiceWithConfig(cfg).bootstrap(); !errors.Is(err, ErrInvalidHeartbeat) {
		t.Fatalf("expected ErrInvalidHeartbeat, got %v", err)
	}
}

func TestBootstrapRejectsUnknownDriver(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultServiceConfig()
	cfg.Layout.Engine.Driver = "warp9"
	if err := NewServiceWithConfig(cfg).bootstrap(); !errors.Is(err, engine.ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}

func TestBootstrapRejectsInvalidLayout(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultServiceConfig()
	cfg.Layout.Routes = []config.RouteConfig{{In: 900, Out: 0}}
	if err := NewServiceWithConfig(cfg).bootstrap(); err == nil {
		t.Fatalf("expected layout validation failure")
	}
}

func TestBootstrapWiresDefaultFabric(t *testing.T) {
	testlog.Start(t)

	s := NewServiceWithConfig(DefaultServiceConfig())
	if err := s.bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if s.eng == nil || s.ingestor == nil || s.dispatch == nil {
		t.Fatalf("fabric incomplete: %+v", s)
	}
	if s.table.Len() != 0 {
		t.Fatalf("unexpected routes: %d", s.table.Len())
	}
}

func TestBootstrapTruncatesOversizedRouteSet(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultServiceConfig()
	for i := 0; i < route.MaxEntries+40; i++ {
		cfg.Layout.Routes = append(cfg.Layout.Routes, config.RouteConfig{In: i % 256, Out: 0})
	}
	s := NewServiceWithConfig(cfg)
	if err := s.bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if s.table.Len() != route.MaxEntries {
		t.Fatalf("table not truncated: %d", s.table.Len())
	}
}

func TestCycleMovesBytesEndToEnd(t *testing.T) {
	testlog.Start(t)

	eng, err := engine.Open(engine.Loopback, nil)
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}

	var buf bytes.Buffer
	s := NewServiceWithConfig(DefaultServiceConfig())
	s.eng = eng
	s.ingestor = NewIngestor(eng, IngestOptions{})
	s.table.Configure([]route.Entry{{In: 1, Out: 5}})
	s.dispatch = NewDispatcher(eng, s.table, captureRegistry(5, &buf), 0)

	if err := s.cycle(1, []byte("ping")); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if buf.String() != "ping" {
		t.Fatalf("sink saw %q", buf.String())
	}
	if s.cycles.Load() != 1 || s.ingested.Load() != 4 || s.delivered.Load() != 4 {
		t.Fatalf("counters wrong: cycles=%d in=%d out=%d", s.cycles.Load(), s.ingested.Load(), s.delivered.Load())
	}
	if s.discards.Load() != 0 {
		t.Fatalf("unexpected discards: %d", s.discards.Load())
	}
}

func TestCycleCountsDiscards(t *testing.T) {
	testlog.Start(t)

	eng, err := engine.Open(engine.Loopback, nil)
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}

	s := NewServiceWithConfig(DefaultServiceConfig())
	s.eng = eng
	s.ingestor = NewIngestor(eng, IngestOptions{})
	s.dispatch = NewDispatcher(eng, s.table, sink.NewRegistry(sink.Writer{Name: "primary", W: &bytes.Buffer{}}), 0)

	if err := s.cycle(1, []byte("ping")); err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if s.discards.Load() != 1 || s.delivered.Load() != 0 {
		t.Fatalf("discard not counted: discards=%d out=%d", s.discards.Load(), s.delivered.Load())
	}
}

func TestCycleWrapsEngineFailures(t *testing.T) {
	testlog.Start(t)

	fe := &failingEngine{failOn: 1}
	s := NewServiceWithConfig(DefaultServiceConfig())
	s.eng = fe
	s.ingestor = NewIngestor(fe, IngestOptions{})
	s.dispatch = NewDispatcher(fe, s.table, sink.NewRegistry(sink.Writer{Name: "primary", W: &bytes.Buffer{}}), 0)

	if err := s.cycle(1, []byte("ping")); !errors.Is(err, errBoom) {
		t.Fatalf("engine failure not surfaced: %v", err)
	}
}

func TestServeShutsDownOnContextCancel(t *testing.T) {
	testlog.Start(t)

	s := NewServiceWithConfig(DefaultServiceConfig())
	if err := s.bootstrap(); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.serve(ctx); err != nil {
		t.Fatalf("serve failed: %v", err)
	}
}
