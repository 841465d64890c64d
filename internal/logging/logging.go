// Package logging builds charmbracelet/log loggers and the failure sink the
// list view reports to.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Options holds logger configuration.
type Options struct {
	Level     string
	Format    string
	Prefix    string
	Timestamp bool
}

// ParseLevel maps a config string to a log level. Empty means info.
func ParseLevel(s string) (log.Level, error) {
	if strings.TrimSpace(s) == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
}

// ParseFormatter maps a config string to a formatter. Empty means text.
func ParseFormatter(s string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", s)
	}
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) (*log.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	formatter, err := ParseFormatter(opts.Format)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: opts.Timestamp,
		Prefix:          opts.Prefix,
	}), nil
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Reporter logs failed and discarded service calls.
type Reporter struct {
	logger *log.Logger
}

// NewReporter wraps logger as a failure sink.
func NewReporter(logger *log.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// ReportFailure logs a failed service call at error level.
func (r *Reporter) ReportFailure(op string, err error) {
	r.logger.Error("service call failed", "op", op, "err", err)
}

// ReportDiscard logs a stale response at debug level.
func (r *Reporter) ReportDiscard(op, taskID string) {
	r.logger.Debug("stale response discarded", "op", op, "task", taskID)
}
