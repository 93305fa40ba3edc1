// Package engine defines the contract for the black-box byte
// processor this layer drives, plus a named driver registry so
// binaries can select an implementation at startup.
//
// Ownership boundary:
//   - owns the Engine interface: input writes, processing trigger,
//     output buffer access, port tag, and the feedback entry point
//   - owns the driver registry and the builtin loopback and exec
//     drivers
//   - does not own ingestion, routing, or dispatch; those live in
//     internal/port
package engine
