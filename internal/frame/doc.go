// Package frame owns the port frame wire contract.
//
// Ownership boundary:
// - fixed 13-byte header primitives
// - zero-copy payload views over encoded buffers
// - stream read/write entry points with decode limits
//
// The primary ingestion path moves raw bytes without this framing; the
// codec exists for transports that carry port identity and capture time
// on the wire.
package frame
