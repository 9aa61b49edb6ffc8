// Package tailer turns the store's raw global-position scan into a
// reliable, gap-tolerant change feed.
//
// Positions are assigned before chunks are committed, so the global order
// can contain holes: a position consumed by an append that failed, or one
// whose writer has not committed yet. The tailer delivers chunks to its
// subscription in strictly increasing position order with no duplicates,
// pausing at each hole. A hole that persists beyond the configured timeout
// is declared permanently empty and skipped, bounding tail latency.
//
//	t, _ := tailer.New(tailer.Options{Store: st, Subscription: sub})
//	t.Start()          // continuous background polling
//	defer t.Stop()     // cooperative: the running cycle finishes first
//
// Poll runs cycles synchronously until no further progress is made, which
// suits tests and catch-up reads. Concurrent Poll calls on one tailer are
// not supported.
package tailer
