package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
)

// ErrNotFound is returned for an index outside the stored list.
var ErrNotFound = errors.New("saved request not found")

// Store is the saved-request contract shared by all backends.
type Store interface {
	// Save appends s. A blank name is rejected and nothing changes.
	Save(s draft.Saved) error
	// List returns every saved request in save order.
	List() ([]draft.Saved, error)
	// Get returns the saved request at index.
	Get(index int) (draft.Saved, error)
	// Load returns a copy of the draft saved at index.
	Load(index int) (draft.Draft, error)
	// Delete removes the request at index; later entries shift down.
	Delete(index int) error
	Close() error
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Open returns the store for driver at path. An empty driver is inferred
// from path: "sqlite:" prefixes and .db/.sqlite files use SQLite, .yaml and
// .yml files use FileStore, and an empty path keeps requests in memory.
func Open(driver, path string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	driver, path = resolveDriver(driver, path)
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(path, logger)
	case DriverFile:
		return NewFileStore(path, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q (use memory, sqlite or file)", driver)
	}
}

func resolveDriver(driver, path string) (string, string) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	path = strings.TrimSpace(path)

	if p, ok := strings.CutPrefix(path, "sqlite://"); ok {
		return DriverSQLite, p
	}
	if p, ok := strings.CutPrefix(path, "sqlite:"); ok {
		return DriverSQLite, p
	}

	switch driver {
	case "yaml", "yml":
		return DriverFile, path
	case "sqlite3":
		return DriverSQLite, path
	case "":
	default:
		return driver, path
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return DriverSQLite, path
	case ".yaml", ".yml":
		return DriverFile, path
	}
	if path == "" {
		return DriverMemory, path
	}
	return DriverFile, path
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("%w: index %d (have %d)", ErrNotFound, index, n)
	}
	return nil
}
