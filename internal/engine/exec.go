package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Exec is the name of the subprocess driver.
const Exec = "exec"

const defaultExecTimeout = 30 * time.Second

func init() {
	Register(Exec, func(opts map[string]string) (Engine, error) {
		return newExecEngine(opts)
	})
}

// execEngine pipes buffered input through a local command on every
// Process call and buffers whatever the command writes to stdout.
// Options: "command" (required), "args" (whitespace separated), and
// "timeout" (Go duration string, default 30s).
type execEngine struct {
	command string
	args    []string
	timeout time.Duration

	lastPort uint8
	input    []byte
	output   []byte
}

func newExecEngine(opts map[string]string) (*execEngine, error) {
	command := strings.TrimSpace(opts["command"])
	if command == "" {
		return nil, errors.New("engine: exec driver requires a command option")
	}
	e := &execEngine{
		command: command,
		args:    strings.Fields(opts["args"]),
		timeout: defaultExecTimeout,
	}
	if raw := strings.TrimSpace(opts["timeout"]); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("engine: exec timeout: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("engine: exec timeout %s is not positive", d)
		}
		e.timeout = d
	}
	return e, nil
}

func (e *execEngine) SetLastInputPort(id uint8) { e.lastPort = id }

func (e *execEngine) LastInputPort() uint8 { return e.lastPort }

func (e *execEngine) WriteInput(p []byte) error {
	e.input = append(e.input, p...)
	return nil
}

// Process runs the command once with buffered input on stdin. Input
// survives a failed run.
func (e *execEngine) Process() error {
	if len(e.input) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = bytes.NewReader(e.input)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if stderr.Len() > 0 {
		log.Debug().
			Str("command", e.command).
			Str("stderr", strings.TrimSpace(stderr.String())).
			Msg("exec engine stderr")
	}
	if err != nil {
		return fmt.Errorf("engine: exec %s: %w", e.command, err)
	}

	e.output = append(e.output, stdout.Bytes()...)
	e.input = e.input[:0]
	return nil
}

func (e *execEngine) OutputSize() int { return len(e.output) }

func (e *execEngine) ReadOutput(capacity int) []byte {
	if capacity <= 0 {
		return nil
	}
	n := len(e.output)
	if n > capacity {
		n = capacity
	}
	out := make([]byte, n)
	copy(out, e.output)
	return out
}

func (e *execEngine) ClearOutput() { e.output = e.output[:0] }

// FeedbackError has no channel back into the subprocess, which only
// sees stdin per run. The score is logged for operators.
func (e *execEngine) FeedbackError(score float32) {
	log.Debug().
		Str("command", e.command).
		Float32("score", score).
		Msg("exec engine feedback")
}
