package pebblestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/rzbill/stratum/internal/storage"
)

// Backend is the Pebble-backed storage.Backend.
//
// Pebble gives atomic batches but no compare-and-swap, so the
// read-modify-write operations (insert-if-absent, replace-if-match,
// delete) serialize on one mutex. Range scans run outside the mutex on
// Pebble iterators.
type Backend struct {
	mu        sync.Mutex
	inner     *pebble.DB
	writeSync bool
}

var _ storage.Backend = (*Backend)(nil)

// Open creates or opens a Pebble-backed backend at opts.DataDir.
func Open(opts Options) (*Backend, error) {
	inner, writeSync, err := openPebble(opts)
	if err != nil {
		return nil, err
	}
	return &Backend{inner: inner, writeSync: writeSync}, nil
}

// Close closes the underlying Pebble database.
func (b *Backend) Close() error {
	if b == nil || b.inner == nil {
		return nil
	}
	return b.inner.Close()
}

func (b *Backend) commit(batch *pebble.Batch) error {
	mode := pebble.NoSync
	if b.writeSync {
		mode = pebble.Sync
	}
	return batch.Commit(mode)
}

// rawKey maps raw-body collections (sequences, operations) to their keys.
func rawKey(collection, key string) ([]byte, error) {
	switch collection {
	case storage.Sequences:
		return keySequence(key), nil
	case storage.Operations:
		return keyOperation(key), nil
	default:
		return nil, fmt.Errorf("pebblestore: unknown collection %q", collection)
	}
}

func (b *Backend) get(key []byte) ([]byte, bool, error) {
	val, closer, err := b.inner.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), true, nil
}

// InsertIfAbsent implements storage.Backend.
func (b *Backend) InsertIfAbsent(ctx context.Context, collection string, doc *storage.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if collection == storage.Chunks {
		primary := keyChunk(doc.Key)
		if _, ok, err := b.get(primary); err != nil {
			return err
		} else if ok {
			return storage.ErrKeyConflict
		}
		batch := b.inner.NewBatch()
		defer batch.Close()
		ref := []byte(doc.Key)
		if err := batch.Set(primary, encodeDocument(doc), nil); err != nil {
			return err
		}
		if err := batch.Set(keyPartitionIndex(doc.Partition, doc.Index), ref, nil); err != nil {
			return err
		}
		if err := batch.Set(keyGlobal(doc.Position), ref, nil); err != nil {
			return err
		}
		return b.commit(batch)
	}

	key, err := rawKey(collection, doc.Key)
	if err != nil {
		return err
	}
	if _, ok, err := b.get(key); err != nil {
		return err
	} else if ok {
		return storage.ErrKeyConflict
	}
	batch := b.inner.NewBatch()
	defer batch.Close()
	if err := batch.Set(key, doc.Body, nil); err != nil {
		return err
	}
	return b.commit(batch)
}

// ReplaceIfMatch implements storage.Backend. Chunk records are immutable
// and cannot be replaced.
func (b *Backend) ReplaceIfMatch(ctx context.Context, collection string, doc *storage.Document, expected []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if collection == storage.Chunks {
		return fmt.Errorf("pebblestore: chunk records are immutable")
	}
	key, err := rawKey(collection, doc.Key)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cur, ok, err := b.get(key)
	if err != nil {
		return err
	}
	if !ok {
		return storage.ErrNotFound
	}
	if !bytes.Equal(cur, expected) {
		return storage.ErrVersionMismatch
	}
	batch := b.inner.NewBatch()
	defer batch.Close()
	if err := batch.Set(key, doc.Body, nil); err != nil {
		return err
	}
	return b.commit(batch)
}

// Get implements storage.Backend.
func (b *Backend) Get(ctx context.Context, collection, key string) (*storage.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if collection == storage.Chunks {
		val, ok, err := b.get(keyChunk(key))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, storage.ErrNotFound
		}
		doc, ok := decodeDocument(val)
		if !ok {
			return nil, fmt.Errorf("pebblestore: corrupt chunk record for key %q", key)
		}
		return doc, nil
	}

	k, err := rawKey(collection, key)
	if err != nil {
		return nil, err
	}
	val, ok, err := b.get(k)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Document{Key: key, Body: val}, nil
}

// resolveRef loads the chunk record referenced from an ordering key value.
func (b *Backend) resolveRef(ref []byte) (*storage.Document, error) {
	val, ok, err := b.get(keyChunk(string(ref)))
	if err != nil {
		return nil, err
	}
	if !ok {
		// The ordering entry outlived the record; treat as already deleted.
		return nil, nil
	}
	doc, ok := decodeDocument(val)
	if !ok {
		return nil, fmt.Errorf("pebblestore: corrupt chunk record for key %q", ref)
	}
	return doc, nil
}

// QueryPartition implements storage.Backend.
func (b *Backend) QueryPartition(ctx context.Context, collection, partition string, from, to int64, order storage.Order, limit int) ([]*storage.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if collection != storage.Chunks {
		return nil, fmt.Errorf("pebblestore: partition queries are for chunks, got %q", collection)
	}
	if from < 0 {
		from = 0
	}
	if to < from {
		return nil, nil
	}

	low := keyPartitionIndex(partition, from)
	hi := upperBound(keyPartitionIndex(partition, to))
	iter, err := b.inner.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*storage.Document
	advance := iter.Next
	ok := iter.First()
	if order == storage.Descending {
		advance = iter.Prev
		ok = iter.Last()
	}
	for ; ok && (limit <= 0 || len(out) < limit); ok = advance() {
		doc, err := b.resolveRef(iter.Value())
		if err != nil {
			return nil, err
		}
		if doc != nil {
			out = append(out, doc)
		}
	}
	return out, nil
}

// QueryGlobal implements storage.Backend.
func (b *Backend) QueryGlobal(ctx context.Context, collection string, fromPosition int64, limit int) ([]*storage.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if collection != storage.Chunks {
		return nil, fmt.Errorf("pebblestore: global queries are for chunks, got %q", collection)
	}
	if fromPosition < 0 {
		fromPosition = 0
	}

	low := keyGlobal(fromPosition)
	hi := upperBound(keyGlobal(math.MaxInt64))
	iter, err := b.inner.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []*storage.Document
	for ok := iter.First(); ok && (limit <= 0 || len(out) < limit); ok = iter.Next() {
		doc, err := b.resolveRef(iter.Value())
		if err != nil {
			return nil, err
		}
		if doc != nil {
			out = append(out, doc)
		}
	}
	return out, nil
}

// DeleteByKey implements storage.Backend.
func (b *Backend) DeleteByKey(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if collection == storage.Chunks {
		val, ok, err := b.get(keyChunk(key))
		if err != nil {
			return err
		}
		if !ok {
			return storage.ErrNotFound
		}
		doc, ok := decodeDocument(val)
		if !ok {
			return fmt.Errorf("pebblestore: corrupt chunk record for key %q", key)
		}
		batch := b.inner.NewBatch()
		defer batch.Close()
		if err := batch.Delete(keyChunk(key), nil); err != nil {
			return err
		}
		if err := batch.Delete(keyPartitionIndex(doc.Partition, doc.Index), nil); err != nil {
			return err
		}
		if err := batch.Delete(keyGlobal(doc.Position), nil); err != nil {
			return err
		}
		return b.commit(batch)
	}

	k, err := rawKey(collection, key)
	if err != nil {
		return err
	}
	if _, ok, err := b.get(k); err != nil {
		return err
	} else if !ok {
		return storage.ErrNotFound
	}
	batch := b.inner.NewBatch()
	defer batch.Close()
	if err := batch.Delete(k, nil); err != nil {
		return err
	}
	return b.commit(batch)
}

// DropAll implements storage.Backend. It removes every record of every
// collection in one range delete.
func (b *Backend) DropAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.inner.NewBatch()
	defer batch.Close()
	// All prefixes live in ["c/", "t"): c, g, o, p, s.
	if err := batch.DeleteRange([]byte("c"), []byte("t"), nil); err != nil {
		return err
	}
	return b.commit(batch)
}
