package tailer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rzbill/stratum/internal/store"
	logpkg "github.com/rzbill/stratum/pkg/log"
)

const (
	// DefaultPollInterval paces the continuous polling loop.
	DefaultPollInterval = 200 * time.Millisecond

	// DefaultHoleTimeout is how long a missing position stays suspect
	// before the tailer declares it permanently empty and skips it.
	DefaultHoleTimeout = 2 * time.Second
)

// Options configures a Tailer.
type Options struct {
	// Store is the chunk store to tail. Required.
	Store *store.Store
	// Subscription receives the ordered feed. Required.
	Subscription store.Subscription
	// FromPosition is the starting checkpoint: delivery begins at
	// FromPosition+1.
	FromPosition int64
	// PollInterval paces continuous mode. Defaults to DefaultPollInterval.
	PollInterval time.Duration
	// HoleTimeout bounds how long the feed stalls on a missing position.
	// Defaults to DefaultHoleTimeout.
	HoleTimeout time.Duration
	// Clock defaults to the wall clock. Tests install a mock.
	Clock clock.Clock
	// Logger defaults to a no-op logger.
	Logger logpkg.Logger
}

// Tailer walks the global log from a checkpoint and pushes chunks to one
// subscription in strictly increasing position order.
type Tailer struct {
	st       *store.Store
	sub      store.Subscription
	interval time.Duration
	timeout  time.Duration
	clk      clock.Clock
	logger   logpkg.Logger

	// mu serializes cycles and guards the hole state. The cursor is
	// atomic so Position stays callable from inside a delivery.
	mu        sync.Mutex
	last      atomic.Int64
	holePos   int64
	holeSince time.Time

	runMu  sync.Mutex
	cancel chan struct{}
	done   chan struct{}
}

// New validates the options and returns a Tailer positioned at the
// caller's checkpoint.
func New(opts Options) (*Tailer, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("tailer: Store is required")
	}
	if opts.Subscription == nil {
		return nil, fmt.Errorf("tailer: Subscription is required")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.HoleTimeout <= 0 {
		opts.HoleTimeout = DefaultHoleTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNop()
	}
	tl := &Tailer{
		st:       opts.Store,
		sub:      opts.Subscription,
		interval: opts.PollInterval,
		timeout:  opts.HoleTimeout,
		clk:      opts.Clock,
		logger:   opts.Logger.WithComponent("tailer"),
	}
	tl.last.Store(opts.FromPosition)
	return tl, nil
}

// Position returns the last delivered (or skipped-past) position. Safe to
// call from any goroutine, including from a subscription callback.
func (t *Tailer) Position() int64 {
	return t.last.Load()
}

// Poll runs scan cycles until a cycle makes no progress, the subscriber
// stops, or ctx is done. Callers must serialize Poll calls themselves.
func (t *Tailer) Poll(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		progressed, stopped, err := t.cycle(ctx)
		if err != nil {
			return err
		}
		if stopped || !progressed {
			return nil
		}
	}
}

// Start launches the continuous polling loop. Starting a started tailer is
// a no-op.
func (t *Tailer) Start() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.cancel != nil {
		return
	}
	t.cancel = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.cancel, t.done)
}

// Stop cancels the loop's next iteration and waits for the current cycle
// to finish. Stopping a stopped tailer is a no-op.
func (t *Tailer) Stop() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.cancel == nil {
		return
	}
	close(t.cancel)
	<-t.done
	t.cancel = nil
	t.done = nil
}

func (t *Tailer) run(cancel <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := t.clk.Ticker(t.interval)
	defer ticker.Stop()
	for {
		// Cancellation is observed at cycle boundaries only; a cycle in
		// progress completes its deliveries.
		select {
		case <-cancel:
			return
		default:
		}
		if _, _, err := t.cycle(context.Background()); err != nil {
			t.logger.Error("poll cycle failed", logpkg.Err(err))
		}
		select {
		case <-cancel:
			return
		case <-ticker.C:
		}
	}
}

// cycle scans forward from the checkpoint once. It reports whether any
// position was delivered or skipped past, and whether the subscriber ended
// the feed.
func (t *Tailer) cycle(ctx context.Context) (progressed, stopped bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cs := &cycleSubscription{t: t, before: t.last.Load()}
	if err := t.st.ReadAllForward(ctx, cs.before+1, 0, cs); err != nil {
		return false, false, err
	}
	progressed = t.last.Load() > cs.before

	switch {
	case cs.holeAt == 0:
		// No gap observed; clear any tracked hole.
		t.holePos = 0
	case cs.holeAt != t.holePos:
		// New hole (or the previous one moved because chunks landed).
		t.holePos = cs.holeAt
		t.holeSince = t.clk.Now()
		t.logger.Debug("hole detected",
			logpkg.Int64("position", cs.holeAt),
			logpkg.Int64("next_present", cs.nextPresent))
	case t.clk.Now().Sub(t.holeSince) >= t.timeout:
		// The writer that consumed this position never committed it.
		// Declare the slot permanently empty and resume after it.
		t.logger.Info("skipping hole",
			logpkg.Int64("from", t.holePos),
			logpkg.Int64("resume_at", cs.nextPresent))
		t.last.Store(cs.nextPresent - 1)
		t.holePos = 0
		progressed = true
	}
	return progressed, cs.consumerStopped, nil
}

// cycleSubscription wraps the consumer subscription for one cycle. It
// enforces in-order delivery: the first chunk whose position is not
// exactly last+1 reveals a hole and ends the cycle without reaching the
// consumer.
type cycleSubscription struct {
	t      *Tailer
	before int64

	holeAt          int64 // first missing position, 0 if none
	nextPresent     int64 // position of the chunk that revealed the hole
	consumerStopped bool
}

func (c *cycleSubscription) OnStart(position int64) error {
	return c.t.sub.OnStart(position)
}

func (c *cycleSubscription) OnNext(chunk *store.Chunk) (bool, error) {
	expected := c.t.last.Load() + 1
	if chunk.Position != expected {
		c.holeAt = expected
		c.nextPresent = chunk.Position
		return false, nil
	}
	ok, err := c.t.sub.OnNext(chunk)
	if err != nil {
		return false, err
	}
	c.t.last.Store(chunk.Position)
	if !ok {
		c.consumerStopped = true
		return false, nil
	}
	return true, nil
}

func (c *cycleSubscription) Stopped(position int64) {
	// Only consumer-requested stops surface; a hole stop is internal.
	if c.consumerStopped {
		c.t.sub.Stopped(position)
	}
}

func (c *cycleSubscription) Completed(position int64) {
	c.t.sub.Completed(position)
}

func (c *cycleSubscription) OnError(position int64, err error) {
	c.t.sub.OnError(position, err)
}
