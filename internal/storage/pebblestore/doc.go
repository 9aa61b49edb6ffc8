// Package pebblestore is the durable storage backend, built on Pebble.
//
// Layout (lexicographically sortable):
//   - c/{key}                      chunk record (encoded document)
//   - p/{partition}\x00{index_be8} partition index -> chunk key
//   - g/{position_be8}             global index   -> chunk key
//   - s/{name}                     sequence counter body
//   - o/{key}                      operation marker body
//
// Chunk records are stored once and referenced from the partition and
// global orderings, so partition scans and global scans are both plain
// range iterations. Records carry a crc32c so a torn write is detected at
// read time.
//
// Usage:
//
//	b, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer b.Close()
package pebblestore
