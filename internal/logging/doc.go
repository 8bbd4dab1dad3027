// Package logging constructs the slog loggers used across taggerd.
//
// Loggers are built from config (format, level, log directory) and write to
// stdout plus an append-only log file. Attr helpers mirror the slog
// constructors so call sites stay terse.
package logging
