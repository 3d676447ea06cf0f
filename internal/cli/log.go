// Package cli implements the morph-mcp command-line interface.
//
// The CLI serves the MCP tools (stdio or HTTP) and runs the morphology
// operations directly on image files. It is built on cobra and logs through
// charmbracelet/log.
//
// # Commands
//
//   - serve: Run the MCP server on stdio, or the HTTP API with --http
//   - erode: One geodesic erosion pass (or a reconstruction with --mode converge)
//   - reconstruct: Reconstruction by erosion to a fixed point
//   - fill-holes: Fill dark regions not connected to the image border
//
// # Logging
//
// Logs go to stderr; stdout carries the MCP protocol under serve. The level
// comes from the config file or MORPH_MCP_LOG_LEVEL, and --verbose (-v)
// forces debug. Loggers are passed to commands through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level, with timestamps
// formatted as "HH:MM:SS.ms".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg followed by the elapsed time rounded to the millisecond,
// e.g. "Reconstructed in 12 iterations (41ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a copy of ctx carrying l.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger stored in ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
