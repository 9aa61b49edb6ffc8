package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/rzbill/stratum/internal/codec"
	cfgpkg "github.com/rzbill/stratum/internal/config"
	"github.com/rzbill/stratum/internal/storage/pebblestore"
	"github.com/rzbill/stratum/internal/store"
	"github.com/rzbill/stratum/internal/tailer"
	logpkg "github.com/rzbill/stratum/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// Logger defaults to a no-op logger.
	Logger logpkg.Logger
}

// Runtime owns the backend and the store for one instance.
type Runtime struct {
	backend *pebblestore.Backend
	store   *store.Store
	config  cfgpkg.Config
	logger  logpkg.Logger
}

// Open initializes storage under Config.DataDir and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNop()
	}

	backend, err := pebblestore.Open(pebblestore.Options{
		DataDir: opts.Config.DataDir,
		Fsync:   pebblestore.ParseFsyncMode(opts.Config.Fsync),
	})
	if err != nil {
		return nil, err
	}

	st, err := store.Open(store.Options{
		Backend:         backend,
		Codec:           codec.ByName(opts.Config.Codec),
		Logger:          opts.Logger,
		GlobalSequence:  opts.Config.GlobalSequence,
		SequenceRetries: opts.Config.SequenceRetries,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	return &Runtime{backend: backend, store: st, config: opts.Config, logger: opts.Logger}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.backend == nil {
		return nil
	}
	return r.backend.Close()
}

// CheckHealth performs a simple storage probe.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.store == nil {
		return errors.New("runtime: store not open")
	}
	_, err := r.store.ReadLastPosition(ctx)
	return err
}

// Store returns the chunk store.
func (r *Runtime) Store() *store.Store { return r.store }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// NewTailer builds a tailer over this runtime's store with the configured
// defaults, starting after fromPosition.
func (r *Runtime) NewTailer(sub store.Subscription, fromPosition int64) (*tailer.Tailer, error) {
	return tailer.New(tailer.Options{
		Store:        r.store,
		Subscription: sub,
		FromPosition: fromPosition,
		PollInterval: time.Duration(r.config.Tailer.PollIntervalMs) * time.Millisecond,
		HoleTimeout:  time.Duration(r.config.Tailer.HoleTimeoutMs) * time.Millisecond,
		Logger:       r.logger,
	})
}
