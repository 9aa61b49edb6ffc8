// Package storage defines the backend contract the store core is written
// against.
//
// A Backend is a document store with three collections (chunks, sequences,
// operations) and per-document atomic primitives. The core never builds
// backend-specific queries; everything it needs is expressed through the
// seven operations on Backend. Backends only promise single-document
// atomicity: InsertIfAbsent and ReplaceIfMatch are the concurrency-control
// primitives the core's sequence counters and idempotency markers rely on.
//
// Two backends ship with stratum: pebblestore (durable, on Pebble) and
// memstore (in-memory, for tests and throwaway embedding).
package storage
