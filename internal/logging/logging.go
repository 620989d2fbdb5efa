// Package logging builds the CLI's diagnostic logger.
package logging

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// Prefix is prepended to every log line.
const Prefix = "aitask"

// New returns a logger writing to w. Only warnings and errors are shown
// unless debug is set.
func New(w io.Writer, debug bool) *log.Logger {
	level := log.WarnLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       log.TextFormatter,
		Prefix:          Prefix,
		ReportTimestamp: debug,
	})
}

// WithLogger attaches logger to ctx for retrieval with log.FromContext.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return log.WithContext(ctx, logger)
}
