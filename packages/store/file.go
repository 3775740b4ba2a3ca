package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
	"gopkg.in/yaml.v3"
)

const (
	filePermission = 0644
	dirPermission  = 0755
)

type fileDocument struct {
	Requests []draft.Saved `yaml:"requests"`
}

// FileStore implements Store on a YAML file. The file is re-read on every
// call so several processes can share it; writes replace it atomically.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store needs a path")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPermission); err != nil {
		return nil, fmt.Errorf("ensure store directory: %w", err)
	}
	return &FileStore{path: path, logger: logger}, nil
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Save(s draft.Saved) error {
	if err := s.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.Requests = append(doc.Requests, s.Clone())
	if err := f.write(doc); err != nil {
		return err
	}

	f.logger.Debug("saved request",
		slog.String("name", s.Name),
		slog.String("path", f.path))
	return nil
}

func (f *FileStore) List() ([]draft.Saved, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	if doc.Requests == nil {
		return []draft.Saved{}, nil
	}
	return doc.Requests, nil
}

func (f *FileStore) Get(index int) (draft.Saved, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return draft.Saved{}, err
	}
	if err := checkIndex(index, len(doc.Requests)); err != nil {
		return draft.Saved{}, err
	}
	return doc.Requests[index], nil
}

func (f *FileStore) Load(index int) (draft.Draft, error) {
	s, err := f.Get(index)
	if err != nil {
		return draft.Draft{}, err
	}
	return s.Draft, nil
}

func (f *FileStore) Delete(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if err := checkIndex(index, len(doc.Requests)); err != nil {
		return err
	}
	doc.Requests = append(doc.Requests[:index], doc.Requests[index+1:]...)
	return f.write(doc)
}

func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) read() (fileDocument, error) {
	var doc fileDocument
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("read store file: %w", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse store file %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileStore) write(doc fileDocument) error {
	if doc.Requests == nil {
		doc.Requests = []draft.Saved{}
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal store file: %w", err)
	}
	if err := atomicWriteFile(f.path, data, filePermission); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}

// atomicWriteFile writes data to a temp file in the same directory, syncs
// it, then renames it over path.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
