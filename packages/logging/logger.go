// Package logging builds the slog logger shared by the hitdraft packages.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// maxLogSize is the log file size that triggers rotation (5 MB).
	maxLogSize = 5 * 1024 * 1024
	// maxLogBackups is the number of rotated log files kept.
	maxLogBackups = 3
)

// Options configures New.
type Options struct {
	// Verbose lowers the level to debug and adds source locations.
	Verbose bool
	// File, when set, receives JSON logs instead of Stderr.
	File string
	// Stderr receives text logs when File is empty. Defaults to os.Stderr.
	Stderr io.Writer
}

// New returns a logger plus a close function for the underlying file.
// Without a file, only warnings and errors reach Stderr unless Verbose.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: opts.Verbose}

	if opts.File == "" {
		w := opts.Stderr
		if w == nil {
			w = os.Stderr
		}
		return slog.New(slog.NewTextHandler(w, handlerOpts)), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := rotateIfNeeded(opts.File); err != nil {
		return nil, nil, fmt.Errorf("failed to rotate log file: %w", err)
	}

	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
	}

	// The file always gets info and above
	if !opts.Verbose {
		handlerOpts.Level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(f, handlerOpts)), f.Close, nil
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rotateIfNeeded renames path to path.1 (shifting older backups) once it
// reaches maxLogSize.
func rotateIfNeeded(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() < maxLogSize {
		return nil
	}

	for i := maxLogBackups; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", path, i)
		if i == maxLogBackups {
			os.Remove(src)
			continue
		}
		os.Rename(src, fmt.Sprintf("%s.%d", path, i+1))
	}

	if err := os.Rename(path, path+".1"); err != nil {
		return fmt.Errorf("rotate log file: %w", err)
	}
	return nil
}
