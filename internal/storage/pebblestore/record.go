package pebblestore

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/rzbill/stratum/internal/storage"
)

// Chunk record encoding:
//
//	uvarint keyLen | key | uvarint partitionLen | partition |
//	index_be8 | position_be8 | body | crc32c(everything before it)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeDocument(doc *storage.Document) []byte {
	out := make([]byte, 0, 20+len(doc.Key)+len(doc.Partition)+len(doc.Body)+4)
	var tmp [binary.MaxVarintLen64]byte

	n := binary.PutUvarint(tmp[:], uint64(len(doc.Key)))
	out = append(out, tmp[:n]...)
	out = append(out, doc.Key...)

	n = binary.PutUvarint(tmp[:], uint64(len(doc.Partition)))
	out = append(out, tmp[:n]...)
	out = append(out, doc.Partition...)

	out = appendBE8(out, uint64(doc.Index))
	out = appendBE8(out, uint64(doc.Position))
	out = append(out, doc.Body...)

	crc := crc32.Update(0, castagnoli, out)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...)
}

func decodeDocument(b []byte) (*storage.Document, bool) {
	if len(b) < 2+16+4 {
		return nil, false
	}
	payload := b[:len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Update(0, castagnoli, payload) != expect {
		return nil, false
	}

	klen, n := binary.Uvarint(payload)
	if n <= 0 || n+int(klen) > len(payload) {
		return nil, false
	}
	key := payload[n : n+int(klen)]
	rest := payload[n+int(klen):]

	plen, n := binary.Uvarint(rest)
	if n <= 0 || n+int(plen)+16 > len(rest) {
		return nil, false
	}
	partition := rest[n : n+int(plen)]
	rest = rest[n+int(plen):]

	index := binary.BigEndian.Uint64(rest[0:8])
	position := binary.BigEndian.Uint64(rest[8:16])
	body := append([]byte(nil), rest[16:]...)

	return &storage.Document{
		Key:       string(key),
		Partition: string(partition),
		Index:     int64(index),
		Position:  int64(position),
		Body:      body,
	}, true
}
