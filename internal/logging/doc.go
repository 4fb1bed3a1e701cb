// Package logging builds the slog loggers used by the daemon and CLI.
//
// It provides a console handler that renders compact component-prefixed
// key=value lines, a JSON handler for machine consumption, multi-destination
// output (stdout plus a log file under the configured log directory), and
// small attr helpers so call sites stay terse.
package logging
