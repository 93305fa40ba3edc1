package port

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Jak3Gil/melvinport/internal/engine/enginetest"
	"github.com/Jak3Gil/melvinport/internal/testutil/testlog"
)

var errBoom = errors.New("boom")

// failingEngine fails the nth Process call, counted from one.
type failingEngine struct {
	enginetest.Recorder
	failOn int
}

func (f *failingEngine) Process() error {
	if err := f.Recorder.Process(); err != nil {
		return err
	}
	if f.failOn > 0 && f.Recorder.Processes == f.failOn {
		return errBoom
	}
	return nil
}

func writeSource(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.bin")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestIngestChunkTagsPortBeforeWriting(t *testing.T) {
	testlog.Start(t)

	rec := &enginetest.Recorder{}
	ing := NewIngestor(rec, IngestOptions{})
	if err := ing.IngestChunk(7, []byte("abc")); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	want := []string{"set_port 7", "write 3", "process"}
	if !reflect.DeepEqual(rec.Trace, want) {
		t.Fatalf("unexpected call order: %v", rec.Trace)
	}
	if rec.LastInputPort() != 7 {
		t.Fatalf("port tag not retained: %d", rec.LastInputPort())
	}
}

func TestIngestChunkRejectsEmptyWithoutEngineCalls(t *testing.T) {
	testlog.Start(t)

	rec := &enginetest.Recorder{}
	ing := NewIngestor(rec, IngestOptions{})
	if err := ing.IngestChunk(1, nil); !errors.Is(err, ErrEmptyChunk) {
		t.Fatalf("expected ErrEmptyChunk, got %v", err)
	}
	if len(rec.Trace) != 0 {
		t.Fatalf("engine was touched: %v", rec.Trace)
	}
}

func TestIngestChunkPropagatesEngineFailures(t *testing.T) {
	testlog.Start(t)

	tests := []struct {
		name string
		rec  *enginetest.Recorder
	}{
		{name: "write failure", rec: &enginetest.Recorder{WriteErr: errBoom}},
		{name: "process failure", rec: &enginetest.Recorder{ProcessErr: errBoom}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ing := NewIngestor(tc.rec, IngestOptions{})
			if err := ing.IngestChunk(1, []byte("x")); !errors.Is(err, errBoom) {
				t.Fatalf("engine error not propagated: %v", err)
			}
		})
	}
}

func TestIngestReaderWindowsSource(t *testing.T) {
	testlog.Start(t)

	rec := &enginetest.Recorder{}
	ing := NewIngestor(rec, IngestOptions{ChunkSize: 4})
	src := []byte("0123456789")

	stats, err := ing.IngestReader(2, bytes.NewReader(src), int64(len(src)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if stats.Chunks != 3 || stats.Bytes != 10 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !bytes.Equal(rec.WrittenBytes(), src) {
		t.Fatalf("engine saw %q", rec.WrittenBytes())
	}
	if len(rec.Writes) != 3 || len(rec.Writes[2]) != 2 {
		t.Fatalf("unexpected windowing: %d writes", len(rec.Writes))
	}
}

func TestIngestReaderAbortsOnFirstFailure(t *testing.T) {
	testlog.Start(t)

	fe := &failingEngine{failOn: 2}
	ing := NewIngestor(fe, IngestOptions{ChunkSize: 4})

	stats, err := ing.IngestReader(1, strings.NewReader("0123456789"), 10)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected engine failure, got %v", err)
	}
	if stats.Chunks != 1 || stats.Bytes != 4 {
		t.Fatalf("committed stats wrong: %+v", stats)
	}
	if fe.Processes != 2 {
		t.Fatalf("remaining chunks were not abandoned: %d processes", fe.Processes)
	}
}

func TestIngestFileLoadsSmallSourceWhole(t *testing.T) {
	testlog.Start(t)

	content := []byte("whole file payload")
	path := writeSource(t, content)

	rec := &enginetest.Recorder{}
	ing := NewIngestor(rec, IngestOptions{})
	stats, err := ing.IngestFile(3, path)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if stats.Chunks != 1 || stats.Bytes != int64(len(content)) {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(rec.Writes) != 1 || !bytes.Equal(rec.Writes[0], content) {
		t.Fatalf("engine saw %q", rec.WrittenBytes())
	}
}

func TestIngestFileStreamsLargeSource(t *testing.T) {
	testlog.Start(t)

	content := []byte("this source crosses the large file line")
	path := writeSource(t, content)

	rec := &enginetest.Recorder{}
	ing := NewIngestor(rec, IngestOptions{ChunkSize: 16, LargeFileThreshold: 8})
	stats, err := ing.IngestFile(3, path)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if stats.Chunks != 3 || stats.Bytes != int64(len(content)) {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(rec.Writes) < 2 {
		t.Fatalf("expected streamed windows, got %d writes", len(rec.Writes))
	}
	if !bytes.Equal(rec.WrittenBytes(), content) {
		t.Fatalf("engine saw %q", rec.WrittenBytes())
	}
}

func TestIngestFileWholeAndChunkedFeedEngineIdentically(t *testing.T) {
	testlog.Start(t)

	content := bytes.Repeat([]byte("abcdefg"), 37)
	path := writeSource(t, content)

	whole := &enginetest.Recorder{}
	if _, err := NewIngestor(whole, IngestOptions{}).IngestFile(1, path); err != nil {
		t.Fatalf("whole ingest: %v", err)
	}
	chunked := &enginetest.Recorder{}
	if _, err := NewIngestor(chunked, IngestOptions{ChunkSize: 13, LargeFileThreshold: 1}).IngestFile(1, path); err != nil {
		t.Fatalf("chunked ingest: %v", err)
	}

	if !bytes.Equal(whole.WrittenBytes(), chunked.WrittenBytes()) {
		t.Fatalf("modes diverge: whole=%d chunked=%d bytes", len(whole.WrittenBytes()), len(chunked.WrittenBytes()))
	}
	if len(chunked.Writes) <= len(whole.Writes) {
		t.Fatalf("chunked mode did not window: %d vs %d writes", len(chunked.Writes), len(whole.Writes))
	}
}

func TestIngestFileEmptySourceSkipsEngine(t *testing.T) {
	testlog.Start(t)

	path := writeSource(t, nil)
	rec := &enginetest.Recorder{}
	stats, err := NewIngestor(rec, IngestOptions{}).IngestFile(1, path)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if stats != (IngestStats{}) {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(rec.Trace) != 0 {
		t.Fatalf("engine was touched: %v", rec.Trace)
	}
}

func TestIngestFileRejectsBlankPath(t *testing.T) {
	testlog.Start(t)

	rec := &enginetest.Recorder{}
	if _, err := NewIngestor(rec, IngestOptions{}).IngestFile(1, "  "); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestIngestFileMissingSource(t *testing.T) {
	testlog.Start(t)

	rec := &enginetest.Recorder{}
	path := filepath.Join(t.TempDir(), "nope.bin")
	if _, err := NewIngestor(rec, IngestOptions{}).IngestFile(1, path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}
