package store

// Subscription receives chunks pushed by the read engine. One scan calls
// OnStart once, OnNext per chunk, and exactly one of Stopped (the
// subscriber returned false), Completed (the scan ran out of chunks), or
// OnError (the scan or the subscriber failed). A subscriber that stops on
// the first chunk still gets Stopped, not Completed.
type Subscription interface {
	// OnStart is called once with the scan's starting key (index for
	// partition scans, position for global scans) before any delivery.
	OnStart(position int64) error

	// OnNext delivers one chunk. Returning false ends the scan early.
	OnNext(chunk *Chunk) (bool, error)

	// Stopped is called after OnNext returned false; position is the last
	// delivered chunk's global position, for partition scans too.
	Stopped(position int64)

	// Completed is called when the scan exhausted its range; position is
	// the last delivered chunk's global position, or 0 if nothing matched.
	Completed(position int64)

	// OnError is called when the scan aborts: a subscriber failure, a
	// decode failure, or cancellation. Chunks already delivered stay
	// delivered.
	OnError(position int64, err error)
}

// SubscribeFunc adapts a plain function to a Subscription with no-op
// lifecycle callbacks.
func SubscribeFunc(fn func(chunk *Chunk) (bool, error)) Subscription {
	return &funcSubscription{fn: fn}
}

type funcSubscription struct {
	fn func(chunk *Chunk) (bool, error)
}

func (f *funcSubscription) OnStart(int64) error { return nil }
func (f *funcSubscription) OnNext(c *Chunk) (bool, error) { return f.fn(c) }
func (f *funcSubscription) Stopped(int64) {}
func (f *funcSubscription) Completed(int64) {}
func (f *funcSubscription) OnError(int64, error) {}

// Collector is a Subscription that buffers everything it is given.
// Intended for tests and small bounded reads.
type Collector struct {
	Chunks []*Chunk

	// LastPosition is the global position reported by Stopped or
	// Completed.
	LastPosition int64
	// WasStopped records whether the scan ended early.
	WasStopped bool
	// Err records an OnError report.
	Err error
}

func (c *Collector) OnStart(int64) error { return nil }

func (c *Collector) OnNext(chunk *Chunk) (bool, error) {
	c.Chunks = append(c.Chunks, chunk)
	return true, nil
}

func (c *Collector) Stopped(position int64) {
	c.WasStopped = true
	c.LastPosition = position
}

func (c *Collector) Completed(position int64) { c.LastPosition = position }

func (c *Collector) OnError(_ int64, err error) { c.Err = err }
