package engine

// Loopback is the name of the builtin echo driver.
const Loopback = "loopback"

func init() {
	Register(Loopback, func(map[string]string) (Engine, error) {
		return &loopback{}, nil
	})
}

// loopback moves buffered input to the output buffer verbatim on
// every Process call. It exists so ports, routing, and sinks can be
// exercised end to end without a real processor attached.
type loopback struct {
	lastPort  uint8
	input     []byte
	output    []byte
	lastScore float32
}

func (l *loopback) SetLastInputPort(id uint8) { l.lastPort = id }

func (l *loopback) LastInputPort() uint8 { return l.lastPort }

func (l *loopback) WriteInput(p []byte) error {
	l.input = append(l.input, p...)
	return nil
}

func (l *loopback) Process() error {
	l.output = append(l.output, l.input...)
	l.input = l.input[:0]
	return nil
}

func (l *loopback) OutputSize() int { return len(l.output) }

func (l *loopback) ReadOutput(capacity int) []byte {
	if capacity <= 0 {
		return nil
	}
	n := len(l.output)
	if n > capacity {
		n = capacity
	}
	out := make([]byte, n)
	copy(out, l.output)
	return out
}

func (l *loopback) ClearOutput() { l.output = l.output[:0] }

// FeedbackError keeps the most recent score. An echo driver has
// nothing to adapt; the value is retained so tests and callers can
// observe that the signal arrived.
func (l *loopback) FeedbackError(score float32) { l.lastScore = score }
