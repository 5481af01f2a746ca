// Package logging assembles structured slog loggers and formatting helpers used
// across murmur.
//
// It owns the console/JSON handlers, picks a format for the attached terminal,
// tees every record into a per-run JSON log file, and exposes context-aware
// helpers so pipeline code automatically tags log lines with run IDs, source
// paths, stages, and segment indexes. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
