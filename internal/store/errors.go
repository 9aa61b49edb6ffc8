package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig reports unusable store options. Fatal at startup.
	ErrInvalidConfig = errors.New("store: invalid configuration")

	// ErrTransientConflict reports a sequence-counter race that outlasted
	// the bounded internal retries. Callers may retry the operation.
	ErrTransientConflict = errors.New("store: transient backend conflict")
)

// DuplicateIndexError reports an append that lost the slot (partition,
// index) to another writer. Expected under contention; callers retry with
// a new index or accept that the slot is taken.
type DuplicateIndexError struct {
	PartitionID string
	Index       int64
}

func (e *DuplicateIndexError) Error() string {
	return fmt.Sprintf("store: duplicate index %d in partition %q", e.Index, e.PartitionID)
}

// IsDuplicateIndex reports whether err is a DuplicateIndexError.
func IsDuplicateIndex(err error) bool {
	var d *DuplicateIndexError
	return errors.As(err, &d)
}

// PartitionDeleteError reports a whole-partition delete that found no
// chunks, or a delete whose backend removals partially failed (Err holds
// the aggregated failures in that case).
type PartitionDeleteError struct {
	PartitionID string
	Err         error
}

func (e *PartitionDeleteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: delete partition %q: %v", e.PartitionID, e.Err)
	}
	return fmt.Sprintf("store: partition %q not found or empty", e.PartitionID)
}

func (e *PartitionDeleteError) Unwrap() error { return e.Err }
