// Package watch re-runs a callback whenever a draft file changes on disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses bursts of events from a single save.
const DefaultDebounce = 300 * time.Millisecond

// Watcher calls OnChange after the watched file is written, created or
// replaced, at most once per debounce window.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	onChange func(path string)
}

type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func New(path string, onChange func(path string), opts ...Option) *Watcher {
	w := &Watcher{
		path:     path,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		onChange: onChange,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is done. The file's directory is watched rather
// than the file so editors that save by rename keep triggering events.
func (w *Watcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", w.path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
		wg    sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		if timer != nil && timer.Stop() {
			wg.Done()
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(abs, event) {
				continue
			}
			w.logger.Debug("file event", slog.String("path", event.Name), slog.String("op", event.Op.String()))

			mu.Lock()
			if timer != nil && timer.Stop() {
				wg.Done()
			}
			wg.Add(1)
			timer = time.AfterFunc(w.debounce, func() {
				defer wg.Done()
				if ctx.Err() != nil {
					return
				}
				w.onChange(w.path)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) relevant(abs string, event fsnotify.Event) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != abs {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
