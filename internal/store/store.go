package store

import (
	"context"
	"fmt"

	"github.com/rzbill/stratum/internal/codec"
	"github.com/rzbill/stratum/internal/storage"
	logpkg "github.com/rzbill/stratum/pkg/log"
)

const (
	// defaultGlobalSequence is the reserved name of the global position
	// sequence. Partition ids use their own name.
	defaultGlobalSequence = "_global"

	defaultSequenceRetries = 8
)

// Options configures a Store.
type Options struct {
	// Backend is the physical document store. Required.
	Backend storage.Backend
	// Codec serializes payloads. Defaults to JSON.
	Codec codec.Codec
	// Types resolves payload type names on reads. Defaults to an empty
	// registry; unregistered payloads stay raw.
	Types *codec.Registry
	// Logger defaults to a no-op logger.
	Logger logpkg.Logger
	// GlobalSequence overrides the reserved global sequence name.
	GlobalSequence string
	// SequenceRetries bounds the optimistic-concurrency retries of the
	// sequence generator. Defaults to 8.
	SequenceRetries int
}

// Store is the storage-semantics core: append, delete, and read engines
// plus the sequence generator and idempotency ledger they rely on.
// Safe for concurrent use; all coordination happens through the backend's
// atomic single-document operations.
type Store struct {
	backend    storage.Backend
	codec      codec.Codec
	types      *codec.Registry
	logger     logpkg.Logger
	seqName    string
	seqRetries int
}

// Open validates the options and returns a Store.
func Open(opts Options) (*Store, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("%w: Backend is required", ErrInvalidConfig)
	}
	if opts.Codec == nil {
		opts.Codec = codec.JSON{}
	}
	if opts.Types == nil {
		opts.Types = codec.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNop()
	}
	if opts.GlobalSequence == "" {
		opts.GlobalSequence = defaultGlobalSequence
	}
	if opts.SequenceRetries == 0 {
		opts.SequenceRetries = defaultSequenceRetries
	}
	if opts.SequenceRetries < 0 {
		return nil, fmt.Errorf("%w: SequenceRetries must be positive", ErrInvalidConfig)
	}
	return &Store{
		backend:    opts.Backend,
		codec:      opts.Codec,
		types:      opts.Types,
		logger:     opts.Logger.WithComponent("store"),
		seqName:    opts.GlobalSequence,
		seqRetries: opts.SequenceRetries,
	}, nil
}

// Types returns the payload type registry, for registration at startup.
func (s *Store) Types() *codec.Registry { return s.types }

// SupportsFillers reports whether filler chunks can be written to keep
// partition sequences contiguous after lost index races. Always true for
// this store.
func (s *Store) SupportsFillers() bool { return true }

// Drop removes every stored record. Test and bootstrap tooling only.
func (s *Store) Drop(ctx context.Context) error {
	return s.backend.DropAll(ctx)
}
