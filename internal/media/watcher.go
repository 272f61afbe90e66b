package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/airwavetv/airwave/internal/logger"
	"github.com/fsnotify/fsnotify"
)

const watchDebounceWindow = 2 * time.Second

// LibraryWatcher watches the library root and its channel subfolders for
// changes and triggers a rescan once the filesystem settles. Events are
// debounced so a batch copy of files produces one rescan, not dozens.
type LibraryWatcher struct {
	root     string
	onChange func()

	fsWatcher *fsnotify.Watcher
	stopChan  chan struct{}
	watchDone chan struct{}

	mu      sync.Mutex
	dirty   bool
	stopped bool
}

// NewLibraryWatcher creates a watcher for the given library root.
// onChange is invoked from the watcher goroutine after changes settle.
func NewLibraryWatcher(root string, onChange func()) (*LibraryWatcher, error) {
	if root == "" {
		return nil, fmt.Errorf("library root cannot be empty")
	}
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback cannot be nil")
	}

	return &LibraryWatcher{
		root:      root,
		onChange:  onChange,
		stopChan:  make(chan struct{}),
		watchDone: make(chan struct{}),
	}, nil
}

// Start begins watching the library root and its channel subfolders
func (w *LibraryWatcher) Start() error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w.fsWatcher = fsWatcher

	if err := w.fsWatcher.Add(w.root); err != nil {
		_ = w.fsWatcher.Close()
		return fmt.Errorf("failed to watch library root: %w", err)
	}
	w.watchChannelDirs()

	go w.run()

	logger.Log.Info().
		Str("library", w.root).
		Msg("Library watcher started")

	return nil
}

// Stop gracefully stops the watcher
func (w *LibraryWatcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.mu.Unlock()

	close(w.stopChan)
	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logger.Log.Warn().
				Err(err).
				Msg("Error closing fsnotify watcher")
		}
	}
	<-w.watchDone

	logger.Log.Debug().
		Str("library", w.root).
		Msg("Library watcher stopped")

	return nil
}

// run is the event loop: collect events, flush on the debounce tick
func (w *LibraryWatcher) run() {
	defer close(w.watchDone)

	ticker := time.NewTicker(watchDebounceWindow)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Log.Warn().
				Err(err).
				Msg("fsnotify error, continuing")
		case <-ticker.C:
			w.flush()
		}
	}
}

// handleEvent marks the library dirty and tracks new channel folders
func (w *LibraryWatcher) handleEvent(event fsnotify.Event) {
	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	if event.Op&relevant == 0 {
		return
	}

	// A newly created channel folder must itself be watched
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() && filepath.Dir(event.Name) == w.root {
			if err := w.fsWatcher.Add(event.Name); err != nil {
				logger.Log.Warn().
					Err(err).
					Str("dir", event.Name).
					Msg("Failed to watch new channel folder")
			}
		}
	}

	w.mu.Lock()
	w.dirty = true
	w.mu.Unlock()
}

// flush fires the rescan callback if any events arrived since the last tick
func (w *LibraryWatcher) flush() {
	w.mu.Lock()
	dirty := w.dirty
	w.dirty = false
	w.mu.Unlock()

	if !dirty {
		return
	}

	logger.Log.Debug().
		Str("library", w.root).
		Msg("Library changed, triggering rescan")
	w.onChange()
}

// watchChannelDirs adds the existing channel subfolders to the watcher
func (w *LibraryWatcher) watchChannelDirs() {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("library", w.root).
			Msg("Failed to list channel folders for watching")
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(w.root, entry.Name())
		if err := w.fsWatcher.Add(dir); err != nil {
			logger.Log.Warn().
				Err(err).
				Str("dir", dir).
				Msg("Failed to watch channel folder")
		}
	}
}
