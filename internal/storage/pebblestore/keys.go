package pebblestore

import (
	"encoding/binary"
)

// Keyspace helpers. Index and position components are big-endian so range
// scans iterate in numeric order.

var (
	// sep terminates the partition name inside ordering keys. NUL keeps a
	// partition named "a" from shadowing the range of one named "a/b".
	sep          = byte(0x00)
	chunkPrefix  = []byte("c/")
	partPrefix   = []byte("p/")
	globalPrefix = []byte("g/")
	seqPrefix    = []byte("s/")
	opPrefix     = []byte("o/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// keyChunk builds the primary record key for a chunk document key.
func keyChunk(key string) []byte {
	k := make([]byte, 0, len(chunkPrefix)+len(key))
	k = append(k, chunkPrefix...)
	k = append(k, key...)
	return k
}

// keyPartitionIndex builds the partition-ordering key for (partition, index).
func keyPartitionIndex(partition string, index int64) []byte {
	k := make([]byte, 0, len(partPrefix)+len(partition)+9)
	k = append(k, partPrefix...)
	k = append(k, partition...)
	k = append(k, sep)
	return appendBE8(k, uint64(index))
}

// keyGlobal builds the global-ordering key for a position.
func keyGlobal(position int64) []byte {
	k := make([]byte, 0, len(globalPrefix)+8)
	k = append(k, globalPrefix...)
	return appendBE8(k, uint64(position))
}

// keySequence builds the counter key for a sequence name.
func keySequence(name string) []byte {
	k := make([]byte, 0, len(seqPrefix)+len(name))
	k = append(k, seqPrefix...)
	k = append(k, name...)
	return k
}

// keyOperation builds the marker key for an operation document key.
func keyOperation(key string) []byte {
	k := make([]byte, 0, len(opPrefix)+len(key))
	k = append(k, opPrefix...)
	k = append(k, key...)
	return k
}

// upperBound returns the exclusive upper bound immediately after k.
func upperBound(k []byte) []byte {
	return append(append([]byte(nil), k...), 0x00)
}
