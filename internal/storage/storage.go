package storage

import (
	"context"
	"errors"
)

// Collection names used by the store core.
const (
	Chunks     = "chunks"
	Sequences  = "sequences"
	Operations = "operations"
)

// Order is the scan direction for partition queries.
type Order int

const (
	// Ascending scans by increasing index.
	Ascending Order = iota
	// Descending scans by decreasing index.
	Descending
)

// Sentinel outcomes of backend operations. Backends must return these
// exact values (possibly wrapped) so the core can branch without string
// matching; transport failures propagate as-is.
var (
	// ErrKeyConflict is returned by InsertIfAbsent when the key already
	// holds a document.
	ErrKeyConflict = errors.New("storage: key already exists")

	// ErrNotFound is returned by Get and DeleteByKey when no document
	// exists for the key.
	ErrNotFound = errors.New("storage: document not found")

	// ErrVersionMismatch is returned by ReplaceIfMatch when the stored
	// body no longer matches the expected body.
	ErrVersionMismatch = errors.New("storage: document changed concurrently")
)

// Document is one stored record. Partition, Index, and Position are
// indexing attributes maintained by the backend; Body is opaque to it.
// Sequence counters and operation markers use only Key and Body.
type Document struct {
	Key       string
	Partition string
	Index     int64
	Position  int64
	Body      []byte
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Body = append([]byte(nil), d.Body...)
	return &c
}

// Backend is the physical document store contract. Implementations must be
// safe for concurrent use.
type Backend interface {
	// InsertIfAbsent atomically creates the document unless its key is
	// already present, in which case it returns ErrKeyConflict.
	InsertIfAbsent(ctx context.Context, collection string, doc *Document) error

	// ReplaceIfMatch atomically replaces the document stored under
	// doc.Key, but only while its body still equals expected. A lost race
	// returns ErrVersionMismatch; a missing document returns ErrNotFound.
	ReplaceIfMatch(ctx context.Context, collection string, doc *Document, expected []byte) error

	// Get returns the document stored under key, or ErrNotFound.
	Get(ctx context.Context, collection, key string) (*Document, error)

	// QueryPartition returns the documents of one partition whose index
	// lies in [from, to], ordered by index per order. limit <= 0 means
	// unbounded.
	QueryPartition(ctx context.Context, collection, partition string, from, to int64, order Order, limit int) ([]*Document, error)

	// QueryGlobal returns documents with Position >= fromPosition in
	// ascending position order across all partitions. limit <= 0 means
	// unbounded.
	QueryGlobal(ctx context.Context, collection string, fromPosition int64, limit int) ([]*Document, error)

	// DeleteByKey removes the document stored under key, returning
	// ErrNotFound if absent. The removal is immediately visible to
	// queries issued after it returns.
	DeleteByKey(ctx context.Context, collection, key string) error

	// DropAll deletes every document in every collection. Test and
	// bootstrap tooling only.
	DropAll(ctx context.Context) error
}
