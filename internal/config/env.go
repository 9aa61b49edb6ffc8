package config

import (
	"os"
	"strconv"
)

// Environment overrides, applied after file loading:
//
//	STRATUM_DATA_DIR, STRATUM_FSYNC, STRATUM_CODEC, STRATUM_LOG_LEVEL,
//	STRATUM_SEQUENCE_RETRIES
func applyEnv(cfg *Config) {
	if v := os.Getenv("STRATUM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("STRATUM_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("STRATUM_CODEC"); v != "" {
		cfg.Codec = v
	}
	if v := os.Getenv("STRATUM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("STRATUM_SEQUENCE_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SequenceRetries = n
		}
	}
}
