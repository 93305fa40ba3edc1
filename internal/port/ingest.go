package port

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Jak3Gil/melvinport/internal/chunk"
	"github.com/Jak3Gil/melvinport/internal/engine"
	"github.com/Jak3Gil/melvinport/internal/observability"
)

// DefaultLargeFileThreshold is the source size above which IngestFile
// switches from whole-buffer to chunked ingestion.
const DefaultLargeFileThreshold = 100 << 20

var (
	ErrEmptyChunk = errors.New("port: empty chunk")
	ErrNoSource   = errors.New("port: missing source")
)

// IngestOptions bound an Ingestor's memory use.
type IngestOptions struct {
	// ChunkSize is the window for chunked ingestion. Zero selects
	// chunk.DefaultChunkSize.
	ChunkSize int
	// LargeFileThreshold is the file size above which IngestFile
	// streams instead of loading whole. Zero selects
	// DefaultLargeFileThreshold.
	LargeFileThreshold int64
}

// IngestStats summarize one ingestion call.
type IngestStats struct {
	Chunks int
	Bytes  int64
}

// Ingestor pushes device bytes into one engine. Calls must not be
// interleaved; the engine's port tag only survives until the next
// ingestion.
type Ingestor struct {
	eng       engine.Engine
	chunkSize int
	threshold int64
}

func NewIngestor(eng engine.Engine, opts IngestOptions) *Ingestor {
	size := opts.ChunkSize
	if size <= 0 {
		size = chunk.DefaultChunkSize
	}
	threshold := opts.LargeFileThreshold
	if threshold <= 0 {
		threshold = DefaultLargeFileThreshold
	}
	return &Ingestor{eng: eng, chunkSize: size, threshold: threshold}
}

// IngestChunk runs one ingestion transaction: tag the engine with the
// originating port, write the chunk verbatim, and trigger a full
// processing pass. The engine's own failure propagates unchanged.
func (ing *Ingestor) IngestChunk(port uint8, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyChunk
	}
	start := time.Now()
	ing.eng.SetLastInputPort(port)
	if err := ing.eng.WriteInput(data); err != nil {
		observability.RecordIngestChunk(port, len(data), time.Since(start), false)
		return fmt.Errorf("port: write input: %w", err)
	}
	if err := ing.eng.Process(); err != nil {
		observability.RecordIngestChunk(port, len(data), time.Since(start), false)
		return fmt.Errorf("port: process: %w", err)
	}
	observability.RecordIngestChunk(port, len(data), time.Since(start), true)
	return nil
}

// IngestReader streams src through the chunk window, one transaction
// per window. The first failure aborts the remaining chunks; stats
// report what was committed before the failure. total, when known,
// enables percent-complete progress reporting.
func (ing *Ingestor) IngestReader(port uint8, src io.Reader, total int64) (IngestStats, error) {
	r := chunk.NewReader(src, chunk.Options{
		ChunkSize:  ing.chunkSize,
		TotalBytes: total,
		Observer:   logProgress,
	})
	var stats IngestStats
	for {
		win, err := r.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		if err := ing.IngestChunk(port, win); err != nil {
			return stats, err
		}
		stats.Chunks++
		stats.Bytes += int64(len(win))
	}
}

// IngestFile ingests one file. Sources at or below the large-file
// threshold are loaded whole and ingested in a single transaction;
// anything larger streams through the chunk window. A zero-length
// file is a success with no engine calls.
func (ing *Ingestor) IngestFile(port uint8, path string) (IngestStats, error) {
	if strings.TrimSpace(path) == "" {
		return IngestStats{}, ErrNoSource
	}
	f, err := os.Open(path)
	if err != nil {
		return IngestStats{}, fmt.Errorf("port: open source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return IngestStats{}, fmt.Errorf("port: stat source: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return IngestStats{}, nil
	}
	if size > ing.threshold {
		return ing.IngestReader(port, f, size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return IngestStats{}, fmt.Errorf("port: read source: %w", err)
	}
	if err := ing.IngestChunk(port, data); err != nil {
		return IngestStats{}, err
	}
	return IngestStats{Chunks: 1, Bytes: size}, nil
}

func logProgress(p chunk.Progress) {
	evt := log.Info().
		Int64("bytes", p.BytesRead).
		Int("chunks", p.Chunks)
	if p.TotalBytes > 0 {
		evt = evt.Int64("total", p.TotalBytes).Float64("percent", p.Percent)
	}
	evt.Msg("ingest progress")
}
