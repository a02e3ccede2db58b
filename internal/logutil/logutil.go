// Package logutil centralizes the log.Printf-style diagnostics used across
// the engine (spec.md ambient stack), matching the teacher's own bare
// log.Printf usage in internal/storage/scheduler.go and concurrency.go.
// It exists only so call sites read `logutil.Warnf(...)` instead of
// `log.Printf(...)`, without introducing a structured-logging dependency
// the teacher never carries for its embedded core.
package logutil

import "log"

// Warnf logs a warning-level diagnostic, e.g. a catalog cache miss falling
// through to storage (spec.md §4.F).
func Warnf(format string, args ...any) {
	log.Printf("warn: "+format, args...)
}

// Errorf logs an error-level diagnostic for a failure that does not abort
// the calling operation (e.g. a CDC consumer retry).
func Errorf(format string, args ...any) {
	log.Printf("error: "+format, args...)
}

// Infof logs a routine informational diagnostic.
func Infof(format string, args ...any) {
	log.Printf("info: "+format, args...)
}
