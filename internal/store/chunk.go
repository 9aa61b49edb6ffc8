package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/rzbill/stratum/internal/storage"
)

const (
	// IndexAuto requests the next partition-local index from the sequence
	// generator.
	IndexAuto int64 = -1

	// MaxIndex is the inclusive upper bound used for unbounded ranges.
	MaxIndex int64 = math.MaxInt64

	// FillerType is the payload type of filler chunks written to keep a
	// partition sequence contiguous after a lost index race.
	FillerType = "$filler"

	// BytesType is the payload type of chunks appended with a raw []byte
	// payload, stored without codec involvement.
	BytesType = "$bytes"
)

// Chunk is one immutable stored event record.
type Chunk struct {
	// PartitionID names the stream the chunk belongs to.
	PartitionID string
	// Index is unique within the partition, monotonic but possibly gappy.
	Index int64
	// Position is the global, strictly increasing ordering key.
	Position int64
	// PayloadType names the payload's registered type.
	PayloadType string
	// Payload is the codec-encoded payload body.
	Payload []byte
	// OperationID is the idempotency key, unique per partition.
	OperationID string

	// Value is the decoded payload when PayloadType is registered, set by
	// the read engine and by Append. Nil otherwise; Payload always holds
	// the raw bytes.
	Value any
}

// Key is the chunk's storage identity within its partition.
func (c *Chunk) Key() string { return chunkKey(c.PartitionID, c.Index) }

// IsFiller reports whether the chunk is a compensating filler write.
func (c *Chunk) IsFiller() bool { return c.PayloadType == FillerType }

func chunkKey(partition string, index int64) string {
	return partition + "_" + strconv.FormatInt(index, 10)
}

func operationKey(partition, operationID string) string {
	return partition + "_" + operationID
}

// chunkBody is the stored representation of the chunk fields that are not
// indexing attributes. Partition, index, and position live on the
// storage.Document.
type chunkBody struct {
	PayloadType string `json:"payloadType"`
	Payload     []byte `json:"payload,omitempty"`
	OperationID string `json:"operationId"`
}

func encodeChunk(c *Chunk) (*storage.Document, error) {
	body, err := json.Marshal(chunkBody{
		PayloadType: c.PayloadType,
		Payload:     c.Payload,
		OperationID: c.OperationID,
	})
	if err != nil {
		return nil, fmt.Errorf("store: encode chunk %s: %w", c.Key(), err)
	}
	return &storage.Document{
		Key:       c.Key(),
		Partition: c.PartitionID,
		Index:     c.Index,
		Position:  c.Position,
		Body:      body,
	}, nil
}

// decodeChunk rebuilds a chunk from its stored document and resolves the
// payload through the type registry when possible.
func (s *Store) decodeChunk(doc *storage.Document) (*Chunk, error) {
	var body chunkBody
	if err := json.Unmarshal(doc.Body, &body); err != nil {
		return nil, fmt.Errorf("store: decode chunk %s: %w", doc.Key, err)
	}
	c := &Chunk{
		PartitionID: doc.Partition,
		Index:       doc.Index,
		Position:    doc.Position,
		PayloadType: body.PayloadType,
		Payload:     body.Payload,
		OperationID: body.OperationID,
	}
	switch {
	case c.PayloadType == FillerType:
	case c.PayloadType == BytesType:
		c.Value = c.Payload
	case s.types.Known(c.PayloadType):
		v, err := s.types.Decode(s.codec, c.PayloadType, c.Payload)
		if err != nil {
			return nil, err
		}
		c.Value = v
	}
	return c, nil
}
