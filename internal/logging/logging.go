// Package logging builds the suite and plugin log channels.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
)

// SuiteName is the name of the root logger.
const SuiteName = "toolsuite"

// Options configures the suite logger.
type Options struct {
	Level  string
	Output io.Writer
	JSON   bool
	// Dir receives one log file per session from NewSession. Empty disables it.
	Dir string
}

// SessionFilePrefix starts the name of every session log file.
const SessionFilePrefix = "toolsuite_"

// New creates the suite-level logger. An unknown level falls back to info.
func New(opts Options) hclog.Logger {
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       SuiteName,
		Level:      level,
		Output:     output,
		JSONFormat: opts.JSON,
	})
}

// ForPlugin derives the plugin-level channel for one plugin from the suite logger.
func ForPlugin(suite hclog.Logger, plugin string) hclog.Logger {
	if suite == nil {
		return hclog.NewNullLogger()
	}
	return suite.Named("plugin").Named(plugin)
}

// OrNull returns l, or a logger that discards everything when l is nil.
func OrNull(l hclog.Logger) hclog.Logger {
	if l == nil {
		return hclog.NewNullLogger()
	}
	return l
}

// SessionFileName names the log file of a session started at t.
func SessionFileName(t time.Time) string {
	return SessionFilePrefix + t.Format("20060102_150405") + ".log"
}

// NewSession creates the suite logger and, when opts.Dir is set, a log file for this
// session that receives everything written to the suite and plugin channels. The
// caller closes the returned file, which is nil when no directory is configured.
func NewSession(opts Options) (hclog.Logger, *os.File, error) {
	if opts.Dir == "" {
		return New(opts), nil, nil
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(opts.Dir, SessionFileName(time.Now())), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open session log: %w", err)
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	opts.Output = io.MultiWriter(output, f)
	return New(opts), f, nil
}
