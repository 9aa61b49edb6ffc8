package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rzbill/stratum/internal/storage/memstore"
)

// faultyDeleteBackend fails removals for selected chunk keys.
type faultyDeleteBackend struct {
	*memstore.Backend
	failKeys map[string]error
}

func (b *faultyDeleteBackend) DeleteByKey(ctx context.Context, collection, key string) error {
	if err, ok := b.failKeys[key]; ok {
		return err
	}
	return b.Backend.DeleteByKey(ctx, collection, key)
}

func TestDeleteSubRange(t *testing.T) {
	st := newTestStore(t)
	for i := int64(1); i <= 5; i++ {
		mustAppend(t, st, "s", i, []byte{byte('a' + i - 1)}, "")
	}

	if err := st.Delete(context.Background(), "s", 2, 4); err != nil {
		t.Fatalf("delete range: %v", err)
	}

	col := collectForward(t, st, "s", 0, 0)
	if len(col.Chunks) != 2 {
		t.Fatalf("want 2 survivors, got %d", len(col.Chunks))
	}
	if col.Chunks[0].Index != 1 || col.Chunks[1].Index != 5 {
		t.Fatalf("survivors renumbered: %d, %d", col.Chunks[0].Index, col.Chunks[1].Index)
	}

	var back Collector
	if err := st.ReadPartitionBackward(context.Background(), "s", MaxIndex, 0, 0, &back); err != nil {
		t.Fatalf("read backward: %v", err)
	}
	if len(back.Chunks) != 2 {
		t.Fatalf("backward scan sees deleted chunks: %d", len(back.Chunks))
	}

	last, err := st.ReadLast(context.Background(), "s", 4)
	if err != nil {
		t.Fatalf("read last: %v", err)
	}
	if last == nil || last.Index != 1 {
		t.Fatalf("readLast must skip deleted indices, got %+v", last)
	}
}

func TestDeleteRemovesFromGlobalScan(t *testing.T) {
	st := newTestStore(t)
	mustAppend(t, st, "a", 1, []byte("a"), "")
	doomed := mustAppend(t, st, "b", 1, []byte("b"), "")
	mustAppend(t, st, "a", 2, []byte("c"), "")

	if err := st.DeletePartition(context.Background(), "b"); err != nil {
		t.Fatalf("delete partition: %v", err)
	}

	var col Collector
	if err := st.ReadAllForward(context.Background(), 0, 0, &col); err != nil {
		t.Fatalf("read all: %v", err)
	}
	for _, c := range col.Chunks {
		if c.Position == doomed.Position {
			t.Fatalf("deleted chunk still visible at position %d", c.Position)
		}
	}
	if len(col.Chunks) != 2 {
		t.Fatalf("want 2 chunks after delete, got %d", len(col.Chunks))
	}
}

func TestDeleteWholeUnknownPartition(t *testing.T) {
	st := newTestStore(t)
	err := st.DeletePartition(context.Background(), "ghost")
	var pde *PartitionDeleteError
	if !errors.As(err, &pde) {
		t.Fatalf("want PartitionDeleteError, got %v", err)
	}
	if pde.PartitionID != "ghost" {
		t.Fatalf("unexpected partition in error: %q", pde.PartitionID)
	}
}

func TestDeleteEmptySubRangeIsNoError(t *testing.T) {
	st := newTestStore(t)
	mustAppend(t, st, "s", 1, []byte("a"), "")
	if err := st.Delete(context.Background(), "s", 10, 20); err != nil {
		t.Fatalf("empty sub-range delete must succeed, got %v", err)
	}
}

func TestDeleteAggregatesBackendFailures(t *testing.T) {
	backend := &faultyDeleteBackend{Backend: memstore.Open(), failKeys: map[string]error{}}
	st, err := Open(Options{Backend: backend})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		mustAppend(t, st, "s", i, []byte("x"), "")
	}
	boom := errors.New("boom")
	backend.failKeys[chunkKey("s", 2)] = boom

	err = st.Delete(ctx, "s", 1, 3)
	var pde *PartitionDeleteError
	if !errors.As(err, &pde) {
		t.Fatalf("want PartitionDeleteError, got %v", err)
	}
	if pde.PartitionID != "s" || pde.Err == nil {
		t.Fatalf("aggregated failures missing: %+v", pde)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("backend failure not reachable via Unwrap: %v", err)
	}

	// Removals that succeeded stick; the failed chunk survives.
	col := collectForward(t, st, "s", 0, 0)
	if len(col.Chunks) != 1 || col.Chunks[0].Index != 2 {
		t.Fatalf("unexpected survivors: %+v", col.Chunks)
	}
}

func TestDeletedIndexCanBeRewritten(t *testing.T) {
	st := newTestStore(t)
	mustAppend(t, st, "s", 1, []byte("old"), "")
	if err := st.Delete(context.Background(), "s", 1, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// The slot is free again; a new writer may claim it.
	mustAppend(t, st, "s", 1, []byte("new"), "")
	col := collectForward(t, st, "s", 0, 0)
	if len(col.Chunks) != 1 || string(col.Chunks[0].Payload) != "new" {
		t.Fatalf("rewrite after delete failed: %+v", col.Chunks)
	}
}
