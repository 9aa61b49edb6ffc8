package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rzbill/stratum/internal/storage"
)

// counterBody is the stored form of one sequence counter.
type counterBody struct {
	ID    string `json:"id"`
	Value int64  `json:"value"`
}

// nextSequence returns a fresh value strictly greater than any previously
// returned value for name. The create/replace step is atomic against
// concurrent callers; a lost race re-reads and retries up to the bounded
// count, then surfaces ErrTransientConflict.
func (s *Store) nextSequence(ctx context.Context, name string) (int64, error) {
	for attempt := 0; attempt <= s.seqRetries; attempt++ {
		doc, err := s.backend.Get(ctx, storage.Sequences, name)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			current, err := s.seedValue(ctx, name)
			if err != nil {
				return 0, err
			}
			value := current + 1
			body, err := json.Marshal(counterBody{ID: name, Value: value})
			if err != nil {
				return 0, err
			}
			err = s.backend.InsertIfAbsent(ctx, storage.Sequences, &storage.Document{Key: name, Body: body})
			if errors.Is(err, storage.ErrKeyConflict) {
				continue // another caller created the counter first
			}
			if err != nil {
				return 0, err
			}
			return value, nil

		case err != nil:
			return 0, err

		default:
			var cur counterBody
			if err := json.Unmarshal(doc.Body, &cur); err != nil {
				return 0, fmt.Errorf("store: decode sequence %q: %w", name, err)
			}
			value := cur.Value + 1
			body, err := json.Marshal(counterBody{ID: name, Value: value})
			if err != nil {
				return 0, err
			}
			err = s.backend.ReplaceIfMatch(ctx, storage.Sequences, &storage.Document{Key: name, Body: body}, doc.Body)
			if errors.Is(err, storage.ErrVersionMismatch) || errors.Is(err, storage.ErrNotFound) {
				continue // lost the replace race; re-read
			}
			if err != nil {
				return 0, err
			}
			return value, nil
		}
	}
	return 0, fmt.Errorf("%w: sequence %q", ErrTransientConflict, name)
}

// seedValue computes the starting value for a counter that does not exist
// yet. Partition sequences seed from the highest index already present in
// the partition, so auto-increment never collides with manually assigned
// indices; the global sequence starts at zero.
func (s *Store) seedValue(ctx context.Context, name string) (int64, error) {
	if name == s.seqName {
		return 0, nil
	}
	docs, err := s.backend.QueryPartition(ctx, storage.Chunks, name, 0, MaxIndex, storage.Descending, 1)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	return docs[0].Index, nil
}
