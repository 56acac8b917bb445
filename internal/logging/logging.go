// Package logging builds the slog logger used across the pipeline.
//
// Runs log to a rotating file so history survives the process; verbose mode
// mirrors logs to stderr and lowers the level to debug.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation policy for the log file.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// Options configures logger construction.
type Options struct {
	// LogFile is the rotating log file path. Empty disables file logging.
	LogFile string

	// Verbose mirrors logs to stderr and enables debug level.
	Verbose bool
}

// New creates a logger per the options. The returned close function flushes
// and closes the file sink; it is safe to call even when no file is in use.
func New(opts Options) (*slog.Logger, func() error, error) {
	closeFn := func() error { return nil }

	var writers []io.Writer
	if opts.LogFile != "" {
		dir := filepath.Dir(opts.LogFile)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		sink := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		writers = append(writers, sink)
		closeFn = sink.Close
	}
	if opts.Verbose {
		writers = append(writers, os.Stderr)
	}

	if len(writers) == 0 {
		return slog.New(slog.DiscardHandler), closeFn, nil
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: level})
	return slog.New(handler), closeFn, nil
}
