package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalid reports an unusable configuration. Fatal at startup.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// DataDir is the Pebble data directory.
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Fsync is the WAL sync policy: always, interval, or never.
	Fsync string `json:"fsync" yaml:"fsync"`
	// Codec selects the payload codec: json or cbor.
	Codec string `json:"codec" yaml:"codec"`
	// GlobalSequence overrides the reserved global sequence name.
	GlobalSequence string `json:"globalSequence" yaml:"globalSequence"`
	// SequenceRetries bounds the sequence generator's optimistic retries.
	SequenceRetries int `json:"sequenceRetries" yaml:"sequenceRetries"`
	// LogLevel is debug, info, warn, or error.
	LogLevel string `json:"logLevel" yaml:"logLevel"`

	Tailer TailerDefaults `json:"tailer" yaml:"tailer"`
}

// TailerDefaults captures polling-tailer baselines.
type TailerDefaults struct {
	PollIntervalMs int `json:"pollIntervalMs" yaml:"pollIntervalMs"`
	HoleTimeoutMs  int `json:"holeTimeoutMs" yaml:"holeTimeoutMs"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		DataDir:         "./data",
		Fsync:           "interval",
		Codec:           "json",
		SequenceRetries: 8,
		LogLevel:        "info",
		Tailer: TailerDefaults{
			PollIntervalMs: 200,
			HoleTimeoutMs:  2000,
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension),
// falling back to defaults when path is empty, then applies environment
// overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
			}
		default:
			if err := json.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values without touching the filesystem.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: dataDir is required", ErrInvalid)
	}
	switch c.Fsync {
	case "", "always", "interval", "never":
	default:
		return fmt.Errorf("%w: unknown fsync mode %q", ErrInvalid, c.Fsync)
	}
	switch c.Codec {
	case "", "json", "cbor":
	default:
		return fmt.Errorf("%w: unknown codec %q", ErrInvalid, c.Codec)
	}
	if c.SequenceRetries < 0 {
		return fmt.Errorf("%w: sequenceRetries must not be negative", ErrInvalid)
	}
	if c.Tailer.PollIntervalMs < 0 || c.Tailer.HoleTimeoutMs < 0 {
		return fmt.Errorf("%w: tailer intervals must not be negative", ErrInvalid)
	}
	return nil
}
