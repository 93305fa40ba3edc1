package engine

import "errors"

var ErrUnknownDriver = errors.New("engine: unknown driver")

// Engine is one loaded processor instance. Calls are synchronous and
// unserialized; callers run one ingest-process-dispatch cycle to
// completion before starting the next.
type Engine interface {
	// SetLastInputPort tags the provenance of subsequent input.
	// Only the latest value survives; there is no queue.
	SetLastInputPort(id uint8)
	// LastInputPort reports the current tag.
	LastInputPort() uint8

	// WriteInput appends p to the engine's input channel.
	WriteInput(p []byte) error
	// Process runs one full pass over buffered input and reports
	// the engine's own success or failure.
	Process() error

	// OutputSize reports pending output bytes.
	OutputSize() int
	// ReadOutput copies up to capacity pending bytes without
	// consuming them. It may return fewer, including none.
	ReadOutput(capacity int) []byte
	// ClearOutput drops all pending output.
	ClearOutput()

	// FeedbackError submits a correctness score in [0, 1] where 1
	// is a perfect match with the expected output.
	FeedbackError(score float32)
}
