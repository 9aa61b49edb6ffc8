// Package log provides structured logging for stratum components.
//
// It is a thin layer over log/slog with a Field-based API:
//
//	logger := log.NewLogger(log.WithLevel(log.DebugLevel))
//	logger = logger.WithComponent("store")
//	logger.Info("chunk appended", log.Str("partition", p), log.Int64("index", idx))
//
// Loggers are constructed once and passed explicitly; there is no global
// default logger.
package log
