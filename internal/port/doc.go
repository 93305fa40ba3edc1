// Package port drives byte traffic between devices and a loaded
// engine: chunked ingestion in, routed dispatch out, and the
// error-feedback scoring loop between them.
//
// Ownership boundary:
//   - owns the ingest-process-dispatch cycle and its serialization
//     convention: one cycle runs to completion before the next begins
//   - owns routing of produced output and the discard behavior when
//     no route exists
//   - owns score computation and feedback submission
//   - does not own the engine's processing or learning; the engine is
//     opaque behind internal/engine.Engine
package port
