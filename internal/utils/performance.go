package utils

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	slowOperationThreshold = 30 * time.Second
	slowQueryThreshold     = 2 * time.Second
)

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	func SyncAll() {
//	    defer utils.OperationTimer("sync_all", log)()
//	}
func OperationTimer(operation string, log zerolog.Logger) func() {
	start := time.Now()

	return func() {
		duration := time.Since(start)

		event := log.Debug()
		if duration > slowOperationThreshold {
			event = log.Warn()
		}
		event.
			Str("operation", operation).
			Dur("duration", duration).
			Msg("Operation completed")
	}
}

// MeasureDBQuery measures database query performance. The returned func takes
// the number of rows read or written.
func MeasureDBQuery(queryName string, log zerolog.Logger) func(rows int64) {
	start := time.Now()

	return func(rows int64) {
		duration := time.Since(start)

		event := log.Debug()
		if duration > slowQueryThreshold {
			event = log.Warn()
		}
		event.
			Str("query", queryName).
			Dur("duration", duration).
			Int64("rows", rows).
			Msg("Database query completed")
	}
}
