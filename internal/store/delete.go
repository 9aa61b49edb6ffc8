package store

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"

	"github.com/rzbill/stratum/internal/storage"
)

// Delete hard-removes every chunk of the partition whose index lies in the
// inclusive range [from, to]. Use DeletePartition for the whole partition.
//
// Surviving chunks keep their indices; nothing is renumbered and removed
// chunks never reappear in any scan started after Delete returns. A
// sub-range matching nothing is not an error; a whole-partition delete
// matching nothing returns *PartitionDeleteError.
func (s *Store) Delete(ctx context.Context, partitionID string, from, to int64) error {
	if from < 0 {
		from = 0
	}
	docs, err := s.backend.QueryPartition(ctx, storage.Chunks, partitionID, from, to, storage.Ascending, 0)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		if from == 0 && to == MaxIndex {
			return &PartitionDeleteError{PartitionID: partitionID}
		}
		return nil
	}

	var merr *multierror.Error
	for _, doc := range docs {
		err := s.backend.DeleteByKey(ctx, storage.Chunks, doc.Key)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			// ErrNotFound means a concurrent delete got there first,
			// which is the outcome we wanted anyway.
			merr = multierror.Append(merr, err)
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return &PartitionDeleteError{PartitionID: partitionID, Err: err}
	}
	return nil
}

// DeletePartition hard-removes every chunk of the partition.
func (s *Store) DeletePartition(ctx context.Context, partitionID string) error {
	return s.Delete(ctx, partitionID, 0, MaxIndex)
}
