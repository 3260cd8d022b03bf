package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"atsoptimizer/internal/errors"
)

const defaultPromptDebounce = 500 * time.Millisecond

// PromptWatcher reloads prompt files into a PromptStore when they change on
// disk. Editors that save by rename are handled by watching the parent
// directories too.
type PromptWatcher struct {
	store    *PromptStore
	files    []PromptFile
	debounce time.Duration
	logger   *errors.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	reloads chan PromptFile
}

// NewPromptWatcher creates a watcher over every file the store was loaded
// from.
func NewPromptWatcher(store *PromptStore, debounce time.Duration, logger *errors.Logger) *PromptWatcher {
	if debounce <= 0 {
		debounce = defaultPromptDebounce
	}
	return &PromptWatcher{
		store:    store,
		files:    store.Files(),
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
		reloads:  make(chan PromptFile, 8),
	}
}

// Run watches until ctx is done. It returns immediately when there is
// nothing to watch.
func (w *PromptWatcher) Run(ctx context.Context) error {
	if len(w.files) == 0 {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create prompt file watcher: %w", err)
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			w.logger.LogError(err, "Failed to close prompt file watcher")
		}
	}()

	dirs := make(map[string]bool)
	for _, f := range w.files {
		dirs[filepath.Dir(f.Path)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch prompt directory %s: %w", dir, err)
		}
	}
	w.logger.Info("Prompt file watcher started",
		"files", len(w.files),
		"debounce", w.debounce)

	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			for _, f := range w.matching(event.Name) {
				w.schedule(f)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.LogError(err, "Prompt file watcher error")

		case f := <-w.reloads:
			if err := w.store.Reload(f); err != nil {
				w.logger.LogError(err, "Prompt reload failed, keeping previous content",
					"file", f.Path,
					"operation", f.Operation)
				continue
			}
			w.logger.Info("Prompt reloaded",
				"file", f.Path,
				"operation", f.Operation,
				"kind", f.Kind)

		case <-ctx.Done():
			w.stopTimers()
			return nil
		}
	}
}

func (w *PromptWatcher) matching(name string) []PromptFile {
	clean := filepath.Clean(name)
	var out []PromptFile
	for _, f := range w.files {
		if f.Path == clean {
			out = append(out, f)
		}
	}
	return out
}

// schedule coalesces bursts of events for one file into a single reload.
func (w *PromptWatcher) schedule(f PromptFile) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := f.Path + "|" + string(f.Kind) + "|" + string(f.Operation)
	if t, ok := w.pending[key]; ok {
		t.Stop()
	}
	w.pending[key] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, key)
		w.mu.Unlock()
		select {
		case w.reloads <- f:
		default:
		}
	})
}

func (w *PromptWatcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key, t := range w.pending {
		t.Stop()
		delete(w.pending, key)
	}
}
