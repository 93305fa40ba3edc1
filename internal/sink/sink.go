package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Destination ids with built-in bindings.
const (
	Primary    uint8 = 0
	Diagnostic uint8 = 1
	Persist    uint8 = 2
)

// DefaultPersistPath is the append target for the Persist destination
// when no path is configured.
const DefaultPersistPath = "output.txt"

var (
	ErrSinkNil = errors.New("sink: nil sink")
	ErrNoPath  = errors.New("sink: empty file path")
)

// Sink is one output device. Deliver appends p and flushes before
// returning, and reports an error when fewer than len(p) bytes land.
type Sink interface {
	Kind() string
	Deliver(p []byte) error
}

// Writer adapts an io.Writer such as stdout or stderr.
type Writer struct {
	Name string
	W    io.Writer
}

func (w Writer) Kind() string { return w.Name }

func (w Writer) Deliver(p []byte) error {
	n, err := w.W.Write(p)
	if err != nil {
		return fmt.Errorf("sink %s: %w", w.Name, err)
	}
	if n != len(p) {
		return fmt.Errorf("sink %s: %w: %d of %d bytes", w.Name, io.ErrShortWrite, n, len(p))
	}
	return nil
}

// File appends to a named file. The file is opened and closed per
// delivery; no handle is held between cycles.
type File struct {
	Path string
}

func (f File) Kind() string { return "file:" + f.Path }

func (f File) Deliver(p []byte) error {
	if f.Path == "" {
		return ErrNoPath
	}
	out, err := os.OpenFile(f.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("sink file %s: %w", f.Path, err)
	}
	n, err := out.Write(p)
	if err != nil {
		out.Close()
		return fmt.Errorf("sink file %s: %w", f.Path, err)
	}
	if n != len(p) {
		out.Close()
		return fmt.Errorf("sink file %s: %w: %d of %d bytes", f.Path, io.ErrShortWrite, n, len(p))
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("sink file %s: %w", f.Path, err)
	}
	return nil
}
