// Package watch reloads local files (model, lookup table) when they change on disk.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"airbnb_eda/internal/adapters/observability"
)

// ReloadFunc re-reads one file. An error keeps whatever was loaded before.
type ReloadFunc func(path string) error

// Watcher watches the parent directories of registered files, so atomic
// replace (write temp + rename) is seen as well as in-place writes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu       sync.Mutex
	handlers map[string]ReloadFunc
	timers   map[string]*time.Timer
}

func New(debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  w,
		debounce: debounce,
		handlers: map[string]ReloadFunc{},
		timers:   map[string]*time.Timer{},
	}, nil
}

// Add registers fn for path. The file itself does not need to exist yet.
func (w *Watcher) Add(path string, fn ReloadFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	w.mu.Lock()
	w.handlers[abs] = fn
	w.mu.Unlock()
	return nil
}

func (w *Watcher) Close() error { return w.watcher.Close() }

// Run dispatches events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.schedule(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("file watcher error")
		}
	}
}

func (w *Watcher) schedule(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	fn, ok := w.handlers[abs]
	if !ok {
		return
	}
	if t, ok := w.timers[abs]; ok {
		t.Stop()
	}
	w.timers[abs] = time.AfterFunc(w.debounce, func() {
		err := fn(abs)
		observability.ObserveReload(filepath.Base(abs), err)
		if err != nil {
			log.Error().Err(err).Str("file", abs).Msg("reload failed, keeping previous version")
			return
		}
		log.Info().Str("file", abs).Msg("file reloaded")
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, t := range w.timers {
		t.Stop()
	}
}
