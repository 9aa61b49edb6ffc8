package memstore

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/rzbill/stratum/internal/storage"
)

// Backend is an in-memory storage.Backend.
type Backend struct {
	mu          sync.Mutex
	collections map[string]map[string]*storage.Document
}

var _ storage.Backend = (*Backend)(nil)

// Open returns an empty in-memory backend.
func Open() *Backend {
	return &Backend{collections: map[string]map[string]*storage.Document{}}
}

func (b *Backend) collection(name string) map[string]*storage.Document {
	c, ok := b.collections[name]
	if !ok {
		c = map[string]*storage.Document{}
		b.collections[name] = c
	}
	return c
}

// InsertIfAbsent implements storage.Backend.
func (b *Backend) InsertIfAbsent(ctx context.Context, collection string, doc *storage.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.collection(collection)
	if _, ok := c[doc.Key]; ok {
		return storage.ErrKeyConflict
	}
	c[doc.Key] = doc.Clone()
	return nil
}

// ReplaceIfMatch implements storage.Backend.
func (b *Backend) ReplaceIfMatch(ctx context.Context, collection string, doc *storage.Document, expected []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.collection(collection)
	cur, ok := c[doc.Key]
	if !ok {
		return storage.ErrNotFound
	}
	if !bytes.Equal(cur.Body, expected) {
		return storage.ErrVersionMismatch
	}
	c[doc.Key] = doc.Clone()
	return nil
}

// Get implements storage.Backend.
func (b *Backend) Get(ctx context.Context, collection, key string) (*storage.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	doc, ok := b.collection(collection)[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return doc.Clone(), nil
}

// QueryPartition implements storage.Backend.
func (b *Backend) QueryPartition(ctx context.Context, collection, partition string, from, to int64, order storage.Order, limit int) ([]*storage.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	var out []*storage.Document
	for _, doc := range b.collection(collection) {
		if doc.Partition == partition && doc.Index >= from && doc.Index <= to {
			out = append(out, doc.Clone())
		}
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if order == storage.Descending {
			return out[i].Index > out[j].Index
		}
		return out[i].Index < out[j].Index
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// QueryGlobal implements storage.Backend.
func (b *Backend) QueryGlobal(ctx context.Context, collection string, fromPosition int64, limit int) ([]*storage.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	var out []*storage.Document
	for _, doc := range b.collection(collection) {
		if doc.Position >= fromPosition {
			out = append(out, doc.Clone())
		}
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
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
	c := b.collection(collection)
	if _, ok := c[key]; !ok {
		return storage.ErrNotFound
	}
	delete(c, key)
	return nil
}

// DropAll implements storage.Backend.
func (b *Backend) DropAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collections = map[string]map[string]*storage.Document{}
	return nil
}
