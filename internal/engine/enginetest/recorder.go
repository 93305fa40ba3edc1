// Package enginetest provides a scripted engine for exercising the
// port layer without a real processor attached.
package enginetest

import (
	"fmt"

	"github.com/Jak3Gil/melvinport/internal/engine"
)

var _ engine.Engine = (*Recorder)(nil)

// Recorder is an engine.Engine that logs every call it receives and
// serves scripted responses. The zero value is ready to use.
type Recorder struct {
	// Observed calls, in order per kind.
	SetPorts  []uint8
	Writes    [][]byte
	Reads     []int
	Scores    []float32
	Processes int
	Clears    int

	// Trace records mutating calls in arrival order. OutputSize is a
	// pure query and is not traced.
	Trace []string

	// Scripted behavior.
	WriteErr   error  // returned by every WriteInput
	ProcessErr error  // returned by every Process
	Pending    []byte // bytes served by ReadOutput
	LieSize    int    // when nonzero, OutputSize reports this instead of len(Pending)

	port uint8
}

func (r *Recorder) SetLastInputPort(id uint8) {
	r.port = id
	r.SetPorts = append(r.SetPorts, id)
	r.Trace = append(r.Trace, fmt.Sprintf("set_port %d", id))
}

func (r *Recorder) LastInputPort() uint8 { return r.port }

func (r *Recorder) WriteInput(p []byte) error {
	if r.WriteErr != nil {
		return r.WriteErr
	}
	r.Writes = append(r.Writes, append([]byte(nil), p...))
	r.Trace = append(r.Trace, fmt.Sprintf("write %d", len(p)))
	return nil
}

func (r *Recorder) Process() error {
	r.Processes++
	r.Trace = append(r.Trace, "process")
	return r.ProcessErr
}

func (r *Recorder) OutputSize() int {
	if r.LieSize != 0 {
		return r.LieSize
	}
	return len(r.Pending)
}

func (r *Recorder) ReadOutput(capacity int) []byte {
	r.Reads = append(r.Reads, capacity)
	r.Trace = append(r.Trace, fmt.Sprintf("read %d", capacity))
	if capacity <= 0 {
		return nil
	}
	n := len(r.Pending)
	if n > capacity {
		n = capacity
	}
	return append([]byte(nil), r.Pending[:n]...)
}

func (r *Recorder) ClearOutput() {
	r.Clears++
	r.Trace = append(r.Trace, "clear")
	r.Pending = nil
	r.LieSize = 0
}

func (r *Recorder) FeedbackError(score float32) {
	r.Scores = append(r.Scores, score)
	r.Trace = append(r.Trace, fmt.Sprintf("feedback %.3f", score))
}

// WrittenBytes concatenates every WriteInput payload in order.
func (r *Recorder) WrittenBytes() []byte {
	var all []byte
	for _, w := range r.Writes {
		all = append(all, w...)
	}
	return all
}
