package port

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Jak3Gil/melvinport/internal/engine"
	"github.com/Jak3Gil/melvinport/internal/observability"
	"github.com/Jak3Gil/melvinport/internal/route"
	"github.com/Jak3Gil/melvinport/internal/sink"
)

// DefaultReadCapacity bounds one dispatch read of engine output.
const DefaultReadCapacity = 8192

// ErrOutputVanished reports an engine that claims pending output but
// returns no bytes from a bounded read.
var ErrOutputVanished = errors.New("port: output reported but read returned no bytes")

// DispatchResult summarizes one dispatch cycle.
type DispatchResult struct {
	Delivered   int
	Destination uint8
	Sink        string
	Discarded   bool
}

// Dispatcher delivers pending engine output to device sinks, one
// bounded read-and-clear cycle per call.
type Dispatcher struct {
	eng      engine.Engine
	table    *route.Table
	sinks    *sink.Registry
	capacity int
}

// NewDispatcher wires a dispatcher to one engine. A zero capacity
// selects DefaultReadCapacity; a nil sinks registry selects the
// built-in device map.
func NewDispatcher(eng engine.Engine, table *route.Table, sinks *sink.Registry, capacity int) *Dispatcher {
	if capacity <= 0 {
		capacity = DefaultReadCapacity
	}
	if sinks == nil {
		sinks = sink.DefaultRegistry("")
	}
	return &Dispatcher{eng: eng, table: table, sinks: sinks, capacity: capacity}
}

// Dispatch moves one round of pending output to its device. No
// pending output is a success with no side effect. Once output
// exists, the engine's output buffer is cleared on every exit path:
// after delivery, after a delivery failure, and when discarding
// unrouted output.
func (d *Dispatcher) Dispatch() (DispatchResult, error) {
	if d.eng.OutputSize() == 0 {
		return DispatchResult{}, nil
	}
	defer d.eng.ClearOutput()

	in := d.eng.LastInputPort()
	out, ok := d.table.Resolve(in)
	if !ok {
		observability.RecordDiscard()
		log.Debug().Uint8("in", in).Msg("no route, discarding output")
		return DispatchResult{Discarded: true}, nil
	}

	data := d.eng.ReadOutput(d.capacity)
	if len(data) == 0 {
		return DispatchResult{}, ErrOutputVanished
	}
	return d.deliver(out, data)
}

func (d *Dispatcher) deliver(out uint8, data []byte) (DispatchResult, error) {
	dev := d.sinks.Resolve(out)
	err := dev.Deliver(data)
	observability.RecordDispatch(dev.Kind(), len(data), err == nil)
	if err != nil {
		return DispatchResult{Destination: out, Sink: dev.Kind()},
			fmt.Errorf("port: deliver: %w", err)
	}
	log.Debug().
		Uint8("dst", out).
		Str("sink", dev.Kind()).
		Int("bytes", len(data)).
		Msg("output delivered")
	return DispatchResult{
		Delivered:   len(data),
		Destination: out,
		Sink:        dev.Kind(),
	}, nil
}
