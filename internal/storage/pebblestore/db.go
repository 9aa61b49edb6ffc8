package pebblestore

import (
	"errors"
	"time"

	"github.com/cockroachdb/pebble"
)

// FsyncMode defines durability behavior for write operations.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways requests a WAL fsync on each committed batch.
	FsyncModeAlways
	// FsyncModeInterval enables group-commit by allowing Pebble to coalesce
	// WAL syncs for operations within the configured interval.
	FsyncModeInterval
	// FsyncModeNever avoids forcing WAL syncs from the application. Pebble
	// may still sync based on its own policies.
	FsyncModeNever
)

// ParseFsyncMode maps a config string to an FsyncMode. Unknown values map
// to FsyncModeUnspecified.
func ParseFsyncMode(s string) FsyncMode {
	switch s {
	case "always":
		return FsyncModeAlways
	case "interval":
		return FsyncModeInterval
	case "never":
		return FsyncModeNever
	default:
		return FsyncModeUnspecified
	}
}

// Options configures the Pebble backend.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// Fsync determines when to sync the WAL.
	Fsync FsyncMode
	// FsyncInterval controls group-commit when Fsync=FsyncModeInterval.
	FsyncInterval time.Duration
	// Pebble allows advanced tuning. If nil, sensible defaults are used.
	Pebble *pebble.Options
}

func openPebble(opts Options) (*pebble.DB, bool, error) {
	if opts.DataDir == "" {
		return nil, false, errors.New("pebblestore: Options.DataDir is required")
	}

	po := opts.Pebble
	if po == nil {
		po = &pebble.Options{}
	}

	switch opts.Fsync {
	case FsyncModeAlways:
		// Sync passed per commit; no WALMinSyncInterval.
	case FsyncModeInterval:
		if opts.FsyncInterval <= 0 {
			opts.FsyncInterval = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return opts.FsyncInterval }
	case FsyncModeNever:
	default:
		// Small group-commit window as the latency/throughput default.
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, false, err
	}
	return inner, opts.Fsync == FsyncModeAlways, nil
}
