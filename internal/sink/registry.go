package sink

import (
	"os"
	"sort"
)

// Registry binds destination ids to sinks. Ids without a binding
// resolve to the primary sink, so dispatch never has to special-case
// an unknown destination.
type Registry struct {
	primary Sink
	sinks   map[uint8]Sink
}

// NewRegistry creates a registry whose fallback is primary. A nil
// primary selects stdout.
func NewRegistry(primary Sink) *Registry {
	if primary == nil {
		primary = Writer{Name: "stdout", W: os.Stdout}
	}
	return &Registry{
		primary: primary,
		sinks:   make(map[uint8]Sink),
	}
}

// DefaultRegistry reproduces the built-in device map: destination 0
// writes stdout, 1 writes stderr, 2 appends to persistPath. An empty
// persistPath selects DefaultPersistPath.
func DefaultRegistry(persistPath string) *Registry {
	if persistPath == "" {
		persistPath = DefaultPersistPath
	}
	r := NewRegistry(Writer{Name: "stdout", W: os.Stdout})
	r.Bind(Diagnostic, Writer{Name: "stderr", W: os.Stderr})
	r.Bind(Persist, File{Path: persistPath})
	return r
}

// Bind maps id to s, replacing any previous binding.
func (r *Registry) Bind(id uint8, s Sink) error {
	if s == nil {
		return ErrSinkNil
	}
	r.sinks[id] = s
	return nil
}

// Resolve returns the sink bound to id, or the primary sink when id
// has no binding.
func (r *Registry) Resolve(id uint8) Sink {
	if s, ok := r.sinks[id]; ok {
		return s
	}
	return r.primary
}

// Primary returns the fallback sink.
func (r *Registry) Primary() Sink { return r.primary }

// Bound lists explicitly bound destination ids in ascending order.
func (r *Registry) Bound() []uint8 {
	ids := make([]uint8, 0, len(r.sinks))
	for id := range r.sinks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
