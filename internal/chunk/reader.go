// Package chunk streams byte sources through a fixed-size window so
// arbitrarily large inputs can be ingested with memory bounded by the
// window size rather than the source size.
package chunk

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultChunkSize is the window used when Options.ChunkSize is zero.
	DefaultChunkSize = 1 << 20

	progressChunkInterval = 100
	progressByteInterval  = 100 << 20
)

var ErrNilSource = errors.New("chunk: nil source")

// Progress is a point-in-time observation of an ingestion pass.
type Progress struct {
	BytesRead  int64
	TotalBytes int64 // <= 0 when the source size is unknown
	Chunks     int
	Percent    float64 // -1 when TotalBytes is unknown
}

// Observer receives progress observations. Observers run inline on the
// reading goroutine. A panicking observer is recovered and logged;
// progress reporting never aborts ingestion.
type Observer func(Progress)

// Options configure a Reader.
type Options struct {
	// ChunkSize bounds each window. Zero selects DefaultChunkSize.
	ChunkSize int
	// TotalBytes, when known, enables percent-complete reporting.
	TotalBytes int64
	// Observer is invoked every 100 chunks, whenever cumulative bytes
	// cross a 100 MiB boundary, and once more at source exhaustion.
	Observer Observer
}

// Reader walks a source one window at a time. The source is consumed
// exactly once; a Reader is not restartable.
type Reader struct {
	src      io.Reader
	buf      []byte
	observer Observer

	total     int64
	bytesRead int64
	chunks    int

	err  error
	done bool
}

func NewReader(src io.Reader, opts Options) *Reader {
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Reader{
		src:      src,
		buf:      make([]byte, size),
		observer: opts.Observer,
		total:    opts.TotalBytes,
	}
}

// Next returns the next window of the source. Every window is exactly
// ChunkSize bytes except the final one, which may be shorter. The
// returned slice aliases the Reader's buffer and is only valid until
// the following Next call. Next returns io.EOF once the source is
// exhausted; read failures are sticky.
func (r *Reader) Next() ([]byte, error) {
	if r.src == nil {
		return nil, ErrNilSource
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, io.EOF
	}

	n, err := io.ReadFull(r.src, r.buf)
	if n > 0 {
		r.account(n)
		if err != nil {
			r.settle(err)
		}
		return r.buf[:n], nil
	}
	r.settle(err)
	if r.err != nil {
		return nil, r.err
	}
	return nil, io.EOF
}

// Stats reports the totals accumulated so far.
func (r *Reader) Stats() Progress {
	p := Progress{
		BytesRead:  r.bytesRead,
		TotalBytes: r.total,
		Chunks:     r.chunks,
		Percent:    -1,
	}
	if r.total > 0 {
		p.Percent = float64(r.bytesRead) * 100 / float64(r.total)
	}
	return p
}

func (r *Reader) account(n int) {
	prev := r.bytesRead
	r.bytesRead += int64(n)
	r.chunks++
	if r.chunks%progressChunkInterval == 0 || prev/progressByteInterval != r.bytesRead/progressByteInterval {
		r.observe()
	}
}

// settle records the terminal condition of the source. A short final
// window arrives as io.ErrUnexpectedEOF and is normal exhaustion.
func (r *Reader) settle(err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		r.done = true
		if r.chunks > 0 {
			r.observe()
		}
		return
	}
	r.err = fmt.Errorf("chunk: read source: %w", err)
}

func (r *Reader) observe() {
	if r.observer == nil {
		return
	}
	defer func() {
		if v := recover(); v != nil {
			log.Warn().Interface("panic", v).Msg("progress observer panicked")
		}
	}()
	r.observer(r.Stats())
}
