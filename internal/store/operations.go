package store

import (
	"context"
	"errors"

	"github.com/rzbill/stratum/internal/storage"
)

// recordOperation inserts the (partition, operation) marker and reports
// whether this operation is new. It runs strictly before the chunk write:
// the marker's existence, not the chunk's, is the authoritative duplicate
// suppression gate. Markers are never updated or deleted here.
func (s *Store) recordOperation(ctx context.Context, partition, operationID string) (bool, error) {
	doc := &storage.Document{
		Key:  operationKey(partition, operationID),
		Body: []byte("{}"),
	}
	err := s.backend.InsertIfAbsent(ctx, storage.Operations, doc)
	if errors.Is(err, storage.ErrKeyConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
