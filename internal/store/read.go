package store

import (
	"context"

	"github.com/rzbill/stratum/internal/storage"
)

// ReadPartitionForward pushes the partition's chunks with index >= from to
// the subscription in ascending index order. limit <= 0 means unbounded.
func (s *Store) ReadPartitionForward(ctx context.Context, partitionID string, from int64, limit int, sub Subscription) error {
	docs, err := s.backend.QueryPartition(ctx, storage.Chunks, partitionID, from, MaxIndex, storage.Ascending, limit)
	if err != nil {
		return err
	}
	return s.push(ctx, from, docs, sub)
}

// ReadPartitionBackward pushes the partition's chunks with index in
// [to, from] to the subscription in descending index order. limit <= 0
// means unbounded.
func (s *Store) ReadPartitionBackward(ctx context.Context, partitionID string, from, to int64, limit int, sub Subscription) error {
	docs, err := s.backend.QueryPartition(ctx, storage.Chunks, partitionID, to, from, storage.Descending, limit)
	if err != nil {
		return err
	}
	return s.push(ctx, from, docs, sub)
}

// ReadAllForward pushes chunks of every partition with position >= from in
// ascending position order. Gaps between positions are normal: failed
// appends burn positions, and in-flight writers may not have committed
// theirs yet.
func (s *Store) ReadAllForward(ctx context.Context, from int64, limit int, sub Subscription) error {
	docs, err := s.backend.QueryGlobal(ctx, storage.Chunks, from, limit)
	if err != nil {
		return err
	}
	return s.push(ctx, from, docs, sub)
}

// ReadLast returns the highest-index surviving chunk of the partition at
// or below upTo, or nil when the range is empty.
func (s *Store) ReadLast(ctx context.Context, partitionID string, upTo int64) (*Chunk, error) {
	docs, err := s.backend.QueryPartition(ctx, storage.Chunks, partitionID, 0, upTo, storage.Descending, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return s.decodeChunk(docs[0])
}

// ReadLastPosition returns the highest position among surviving chunks, or
// 0 when the store is empty.
func (s *Store) ReadLastPosition(ctx context.Context) (int64, error) {
	// The backend contract only scans the global order ascending, so walk
	// to the end. Backends with a reverse global scan could shortcut this.
	docs, err := s.backend.QueryGlobal(ctx, storage.Chunks, 0, 0)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	return docs[len(docs)-1].Position, nil
}

// push drives one scan's subscription lifecycle over the query result.
func (s *Store) push(ctx context.Context, start int64, docs []*storage.Document, sub Subscription) error {
	if err := sub.OnStart(start); err != nil {
		sub.OnError(start, err)
		return err
	}
	var position int64
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			sub.OnError(position, err)
			return err
		}
		chunk, err := s.decodeChunk(doc)
		if err != nil {
			sub.OnError(position, err)
			return err
		}
		position = chunk.Position
		ok, err := sub.OnNext(chunk)
		if err != nil {
			sub.OnError(position, err)
			return err
		}
		if !ok {
			sub.Stopped(position)
			return nil
		}
	}
	sub.Completed(position)
	return nil
}
