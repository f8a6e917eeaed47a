// Package logging assembles the slog loggers used across tstomkv.
//
// It owns the console and JSON handlers, routes output to stdout and the
// persistent log file, and exposes context helpers so pipeline code tags every
// line with the run ID, item position, stage, and source path. A no-op logger
// is provided for tests and wiring code that cannot fail.
package logging
