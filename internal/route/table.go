// Package route maps input ports to output destinations.
package route

const (
	// MaxEntries bounds a table. Configure keeps the first MaxEntries
	// entries and drops the rest.
	MaxEntries = 256

	// NoRoute is the sentinel Lookup returns when no entry matches.
	// Destination 0 is also a real sink id, so Lookup alone cannot
	// distinguish "no route" from "route to 0"; Resolve can.
	NoRoute = 0
)

// Entry maps one input port to one output destination.
type Entry struct {
	In  uint8
	Out uint8
}

// Table is an ordered first-match routing table. Configure replaces it
// wholesale; callers serialize Configure against lookups.
type Table struct {
	entries []Entry
}

// Configure replaces the table with the first MaxEntries of entries and
// reports how many were retained. A nil or empty slice clears the table.
func (t *Table) Configure(entries []Entry) int {
	n := len(entries)
	if n > MaxEntries {
		n = MaxEntries
	}
	t.entries = append(t.entries[:0:0], entries[:n]...)
	return n
}

// Resolve returns the destination routed for in and whether a route
// exists. Matching is first-entry-wins in Configure order.
func (t *Table) Resolve(in uint8) (uint8, bool) {
	for _, e := range t.entries {
		if e.In == in {
			return e.Out, true
		}
	}
	return 0, false
}

// Lookup returns the first matching destination or NoRoute. NoRoute
// aliases destination 0; use Resolve when the caller must tell them
// apart.
func (t *Table) Lookup(in uint8) uint8 {
	out, ok := t.Resolve(in)
	if !ok {
		return NoRoute
	}
	return out
}

// Len reports the number of configured entries.
func (t *Table) Len() int { return len(t.entries) }
