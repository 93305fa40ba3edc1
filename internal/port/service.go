package port

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Jak3Gil/melvinport/internal/chunk"
	"github.com/Jak3Gil/melvinport/internal/config"
	"github.com/Jak3Gil/melvinport/internal/engine"
	"github.com/Jak3Gil/melvinport/internal/observability"
	"github.com/Jak3Gil/melvinport/internal/route"
)

var ErrInvalidHeartbeat = errors.New("port: invalid heartbeat interval")

// ServiceConfig configures the portd standalone runtime. A non-empty
// DiagToken puts the /status endpoint behind bearer-token auth.
type ServiceConfig struct {
	Layout          config.Layout
	Heartbeat       time.Duration
	DiagnosticsAddr string
	DiagToken       string
	CorsOrigins     []string
}

// Port service defaults for standalone runtime configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Layout:    config.DefaultLayout(),
		Heartbeat: 5 * time.Second,
	}
}

// Service runs the port fabric as a standalone process: stdin is
// chunked into the engine and engine output is dispatched to device
// sinks, one cycle per chunk.
type Service struct {
	cfg ServiceConfig

	eng      engine.Engine
	table    *route.Table
	ingestor *Ingestor
	dispatch *Dispatcher

	started   time.Time
	cycles    atomic.Uint64
	ingested  atomic.Int64
	delivered atomic.Int64
	discards  atomic.Uint64
}

// Port service constructor using default standalone config.
func NewService() *Service {
	return NewServiceWithConfig(DefaultServiceConfig())
}

// Port service constructor using explicit config.
func NewServiceWithConfig(cfg ServiceConfig) *Service {
	return &Service{cfg: cfg, table: new(route.Table)}
}

// Port runtime entrypoint that blocks until stdin drains or a process
// signal arrives.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.bootstrap(); err != nil {
		return err
	}
	return s.serve(ctx)
}

// Port bootstrap sequence: validate layout, open driver, wire routes
// and sinks.
func (s *Service) bootstrap() error {
	if s.cfg.Heartbeat <= 0 {
		return ErrInvalidHeartbeat
	}
	if err := config.ValidateLayout(s.cfg.Layout); err != nil {
		return err
	}

	eng, err := engine.Open(s.cfg.Layout.Engine.Driver, s.cfg.Layout.Engine.Options)
	if err != nil {
		return err
	}
	s.eng = eng

	entries := config.RouteEntries(s.cfg.Layout.Routes)
	kept := s.table.Configure(entries)
	if kept < len(entries) {
		log.Warn().
			Int("configured", len(entries)).
			Int("kept", kept).
			Msg("route table truncated")
	}

	sinks, err := config.SinkRegistry(s.cfg.Layout)
	if err != nil {
		return err
	}

	s.ingestor = NewIngestor(eng, IngestOptions{
		ChunkSize:          s.cfg.Layout.Ingest.ChunkSize,
		LargeFileThreshold: s.cfg.Layout.Ingest.LargeFileThreshold,
	})
	s.dispatch = NewDispatcher(eng, s.table, sinks, s.cfg.Layout.Dispatch.ReadCapacity)

	s.started = time.Now()
	log.Info().
		Str("driver", s.cfg.Layout.Engine.Driver).
		Int("routes", kept).
		Int("sinks", len(sinks.Bound())).
		Int("port", s.cfg.Layout.Ingest.Port).
		Msg("portd ready")
	return nil
}

// Port main loop for heartbeat logging, stdin ingestion, and optional
// diagnostics serving.
func (s *Service) serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Heartbeat)
	defer ticker.Stop()

	ingestErr := make(chan error, 1)
	diagErr := make(chan error, 1)
	go func() {
		ingestErr <- s.runStdin(ctx)
	}()
	if strings.TrimSpace(s.cfg.DiagnosticsAddr) != "" {
		go func() {
			diagErr <- s.serveDiagnostics(ctx)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("portd shutdown")
			return nil
		case err := <-ingestErr:
			if err != nil {
				return err
			}
			log.Info().
				Uint64("cycles", s.cycles.Load()).
				Int64("ingested", s.ingested.Load()).
				Int64("delivered", s.delivered.Load()).
				Msg("input drained")
			return nil
		case err := <-diagErr:
			if err != nil {
				return err
			}
		case <-ticker.C:
			log.Info().
				Uint64("cycles", s.cycles.Load()).
				Int64("ingested", s.ingested.Load()).
				Int64("delivered", s.delivered.Load()).
				Uint64("discards", s.discards.Load()).
				Msg("portd heartbeat")
		}
	}
}

// runStdin feeds stdin through the engine one window at a time until
// the stream closes or ctx is canceled.
func (s *Service) runStdin(ctx context.Context) error {
	r := chunk.NewReader(os.Stdin, chunk.Options{ChunkSize: s.cfg.Layout.Ingest.ChunkSize})
	port := uint8(s.cfg.Layout.Ingest.Port)
	for {
		if ctx.Err() != nil {
			return nil
		}
		win, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.cycle(port, win); err != nil {
			return err
		}
	}
}

// cycle runs one ingest-then-dispatch round and folds the result into
// the runtime counters.
func (s *Service) cycle(port uint8, win []byte) error {
	seq := s.cycles.Add(1)
	start := time.Now()
	if err := s.ingestor.IngestChunk(port, win); err != nil {
		observability.RecordCycle(time.Since(start), false)
		return fmt.Errorf("cycle %d: %w", seq, err)
	}
	s.ingested.Add(int64(len(win)))

	res, err := s.dispatch.Dispatch()
	if err != nil {
		observability.RecordCycle(time.Since(start), false)
		return fmt.Errorf("cycle %d: %w", seq, err)
	}
	observability.RecordCycle(time.Since(start), true)
	s.delivered.Add(int64(res.Delivered))
	if res.Discarded {
		s.discards.Add(1)
	}
	log.Debug().
		Uint64("cycle", seq).
		Int("in", len(win)).
		Int("out", res.Delivered).
		Bool("discarded", res.Discarded).
		Msg("cycle complete")
	return nil
}
