package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/rzbill/stratum/internal/storage"
	logpkg "github.com/rzbill/stratum/pkg/log"
)

// Append writes one chunk to the partition.
//
// index may be a non-negative caller-chosen value or IndexAuto to have the
// next partition-local index assigned. An empty operationID means no
// idempotency protection: a fresh id is generated. A repeated
// (partition, operationID) pair is a no-op returning the chunk that would
// have been written; the same operationID on a different partition is
// unrelated and is accepted.
//
// The global position is consumed before anything is written and is never
// refunded, so a failed append leaves a permanent gap in the position
// sequence. A lost (partition, index) race returns *DuplicateIndexError.
func (s *Store) Append(ctx context.Context, partitionID string, index int64, payload any, operationID string) (*Chunk, error) {
	if partitionID == "" {
		return nil, fmt.Errorf("%w: partition id is required", ErrInvalidConfig)
	}

	position, err := s.nextSequence(ctx, s.seqName)
	if err != nil {
		return nil, err
	}
	if index < 0 {
		index, err = s.nextSequence(ctx, partitionID)
		if err != nil {
			return nil, err
		}
	}
	if operationID == "" {
		operationID = uuid.NewString()
	}

	chunk := &Chunk{
		PartitionID: partitionID,
		Index:       index,
		Position:    position,
		OperationID: operationID,
		Value:       payload,
	}
	if err := s.encodePayload(chunk, payload); err != nil {
		return nil, err
	}

	accepted, err := s.recordOperation(ctx, partitionID, operationID)
	if err != nil {
		return nil, err
	}
	if !accepted {
		// Idempotent replay: the operation was already effective. The
		// position consumed above stays burned.
		s.logger.Debug("append deduplicated",
			logpkg.Str("partition", partitionID),
			logpkg.Str("operation", operationID))
		return chunk, nil
	}

	doc, err := encodeChunk(chunk)
	if err != nil {
		return nil, err
	}
	if err := s.backend.InsertIfAbsent(ctx, storage.Chunks, doc); err != nil {
		if errors.Is(err, storage.ErrKeyConflict) {
			return nil, &DuplicateIndexError{PartitionID: partitionID, Index: index}
		}
		return nil, err
	}

	s.logger.Debug("chunk appended",
		logpkg.Str("partition", partitionID),
		logpkg.Int64("index", index),
		logpkg.Int64("position", position))
	return chunk, nil
}

// AppendFiller writes an empty filler chunk into an index slot. It is the
// compensating write an application makes after losing an index race, so
// partition-local sequences used for ordering proofs stay contiguous.
func (s *Store) AppendFiller(ctx context.Context, partitionID string, index int64) (*Chunk, error) {
	if index < 0 {
		return nil, fmt.Errorf("%w: filler index must be explicit", ErrInvalidConfig)
	}
	return s.Append(ctx, partitionID, index, filler{}, "")
}

// filler marks a chunk as a compensating write; its payload is empty.
type filler struct{}

// encodePayload fills PayloadType and Payload. Raw []byte payloads bypass
// the codec; fillers store no body at all.
func (s *Store) encodePayload(c *Chunk, payload any) error {
	switch v := payload.(type) {
	case nil:
		c.PayloadType = BytesType
		return nil
	case filler:
		c.PayloadType = FillerType
		c.Value = nil
		return nil
	case []byte:
		c.PayloadType = BytesType
		c.Payload = v
		return nil
	default:
		body, err := s.codec.Marshal(payload)
		if err != nil {
			return fmt.Errorf("store: encode payload for %s: %w", c.Key(), err)
		}
		c.PayloadType = s.types.NameFor(payload)
		c.Payload = body
		return nil
	}
}
