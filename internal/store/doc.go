// Package store implements the storage-semantics core of stratum.
//
// A Store turns any storage.Backend into a partitioned, append-only chunk
// log with the guarantees that matter: globally monotonic positions,
// per-partition unique indices enforced by insert-if-absent, idempotent
// appends keyed by operation id, hard range deletes, and push-based scans
// over partitions and over the global position order.
//
//	st, _ := store.Open(store.Options{Backend: memstore.Open()})
//	chunk, _ := st.Append(ctx, "room-1", store.IndexAuto, booked, "")
//
//	var got []*store.Chunk
//	_ = st.ReadPartitionForward(ctx, "room-1", 0, 0, store.SubscribeFunc(
//	    func(c *store.Chunk) (bool, error) { got = append(got, c); return true, nil },
//	))
//
// Positions are assigned before anything is written, so a failed append
// burns its position permanently. Readers of the global order must
// tolerate those gaps; the tailer package does exactly that.
package store
