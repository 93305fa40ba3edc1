// Package sink delivers engine output bytes to devices.
//
// Ownership boundary:
//   - owns the Sink device abstraction and the built-in stdout,
//     stderr, and append-file devices
//   - owns the Registry mapping destination ids to sinks, including
//     the primary-sink fallback for unbound ids
//   - does not decide WHERE bytes go; routing belongs to route and
//     the dispatch cycle belongs to port
package sink
