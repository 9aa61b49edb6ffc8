package pebblestore

import (
	"context"
	"errors"
	"testing"

	"github.com/rzbill/stratum/internal/storage"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(Options{DataDir: t.TempDir(), Fsync: FsyncModeAlways})
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func chunkDoc(partition string, index, position int64, body string) *storage.Document {
	return &storage.Document{
		Key:       partition + "_" + string(rune('0'+index)),
		Partition: partition,
		Index:     index,
		Position:  position,
		Body:      []byte(body),
	}
}

func TestInsertIfAbsentConflict(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	doc := chunkDoc("s", 1, 1, "a")
	if err := b.InsertIfAbsent(ctx, storage.Chunks, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := b.InsertIfAbsent(ctx, storage.Chunks, chunkDoc("s", 1, 2, "b"))
	if !errors.Is(err, storage.ErrKeyConflict) {
		t.Fatalf("want ErrKeyConflict, got %v", err)
	}
	got, err := b.Get(ctx, storage.Chunks, doc.Key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Body) != "a" {
		t.Fatalf("first writer must win, got %q", got.Body)
	}
}

func TestReplaceIfMatch(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	doc := &storage.Document{Key: "ctr", Body: []byte("1")}
	if err := b.InsertIfAbsent(ctx, storage.Sequences, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}

	next := &storage.Document{Key: "ctr", Body: []byte("2")}
	if err := b.ReplaceIfMatch(ctx, storage.Sequences, next, []byte("1")); err != nil {
		t.Fatalf("replace: %v", err)
	}

	stale := &storage.Document{Key: "ctr", Body: []byte("3")}
	if err := b.ReplaceIfMatch(ctx, storage.Sequences, stale, []byte("1")); !errors.Is(err, storage.ErrVersionMismatch) {
		t.Fatalf("want ErrVersionMismatch, got %v", err)
	}
	if err := b.ReplaceIfMatch(ctx, storage.Sequences, &storage.Document{Key: "nope", Body: []byte("1")}, nil); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestQueryPartitionOrderAndBounds(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		if err := b.InsertIfAbsent(ctx, storage.Chunks, chunkDoc("s", i, i, string(rune('a'+i-1)))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	// Another partition must not leak into the scan.
	if err := b.InsertIfAbsent(ctx, storage.Chunks, chunkDoc("other", 3, 6, "x")); err != nil {
		t.Fatalf("insert other: %v", err)
	}

	docs, err := b.QueryPartition(ctx, storage.Chunks, "s", 2, 4, storage.Ascending, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 3 || docs[0].Index != 2 || docs[2].Index != 4 {
		t.Fatalf("unexpected ascending range: %+v", docs)
	}

	docs, err = b.QueryPartition(ctx, storage.Chunks, "s", 0, 1<<40, storage.Descending, 2)
	if err != nil {
		t.Fatalf("query desc: %v", err)
	}
	if len(docs) != 2 || docs[0].Index != 5 || docs[1].Index != 4 {
		t.Fatalf("unexpected descending scan: %+v", docs)
	}
}

func TestQueryGlobalOrdersAcrossPartitions(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	if err := b.InsertIfAbsent(ctx, storage.Chunks, chunkDoc("a", 1, 3, "third")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := b.InsertIfAbsent(ctx, storage.Chunks, chunkDoc("b", 1, 1, "first")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := b.InsertIfAbsent(ctx, storage.Chunks, chunkDoc("a", 2, 2, "second")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	docs, err := b.QueryGlobal(ctx, storage.Chunks, 2, 0)
	if err != nil {
		t.Fatalf("query global: %v", err)
	}
	if len(docs) != 2 || docs[0].Position != 2 || docs[1].Position != 3 {
		t.Fatalf("unexpected global order: %+v", docs)
	}
}

func TestDeleteByKeyRemovesOrderings(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	doc := chunkDoc("s", 1, 1, "a")
	if err := b.InsertIfAbsent(ctx, storage.Chunks, doc); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := b.DeleteByKey(ctx, storage.Chunks, doc.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := b.DeleteByKey(ctx, storage.Chunks, doc.Key); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound on second delete, got %v", err)
	}

	if docs, _ := b.QueryPartition(ctx, storage.Chunks, "s", 0, 10, storage.Ascending, 0); len(docs) != 0 {
		t.Fatalf("partition scan still sees deleted doc")
	}
	if docs, _ := b.QueryGlobal(ctx, storage.Chunks, 0, 0); len(docs) != 0 {
		t.Fatalf("global scan still sees deleted doc")
	}
	// The slot is reusable after deletion.
	if err := b.InsertIfAbsent(ctx, storage.Chunks, chunkDoc("s", 1, 2, "b")); err != nil {
		t.Fatalf("reinsert: %v", err)
	}
}

func TestOperationsAndSequencesAreSeparate(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	if err := b.InsertIfAbsent(ctx, storage.Sequences, &storage.Document{Key: "k", Body: []byte("s")}); err != nil {
		t.Fatalf("insert sequence: %v", err)
	}
	// The same key in another collection must not conflict.
	if err := b.InsertIfAbsent(ctx, storage.Operations, &storage.Document{Key: "k", Body: []byte("o")}); err != nil {
		t.Fatalf("insert operation: %v", err)
	}
	got, err := b.Get(ctx, storage.Operations, "k")
	if err != nil || string(got.Body) != "o" {
		t.Fatalf("operation body mangled: %v %q", err, got.Body)
	}
}

func TestDurableAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	b, err := Open(Options{DataDir: dir, Fsync: FsyncModeAlways})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := b.InsertIfAbsent(ctx, storage.Chunks, chunkDoc("s", 1, 1, "a")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b2, err := Open(Options{DataDir: dir, Fsync: FsyncModeAlways})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = b2.Close() })
	docs, err := b2.QueryGlobal(ctx, storage.Chunks, 0, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(docs) != 1 || string(docs[0].Body) != "a" {
		t.Fatalf("data lost across reopen: %+v", docs)
	}
}

func TestDropAll(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	if err := b.InsertIfAbsent(ctx, storage.Chunks, chunkDoc("s", 1, 1, "a")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := b.InsertIfAbsent(ctx, storage.Sequences, &storage.Document{Key: "g", Body: []byte("9")}); err != nil {
		t.Fatalf("insert sequence: %v", err)
	}
	if err := b.DropAll(ctx); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, err := b.Get(ctx, storage.Sequences, "g"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("sequence survived drop: %v", err)
	}
	if docs, _ := b.QueryGlobal(ctx, storage.Chunks, 0, 0); len(docs) != 0 {
		t.Fatalf("chunks survived drop")
	}
}
