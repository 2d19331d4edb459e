package session

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"area/pkg/logging"
)

// DefaultDebounceInterval is how long the watcher waits after the last
// file-system event before reloading, so that a write followed by a rename
// triggers a single reload.
const DefaultDebounceInterval = 500 * time.Millisecond

// Watcher monitors the persisted session file for changes made by other
// processes and reloads the store when they happen.
type Watcher struct {
	mu sync.Mutex

	store    *Store
	onChange func()

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher creates a watcher for the given store. onChange, when non-nil,
// is invoked after each reload (after debouncing).
func NewWatcher(store *Store, onChange func()) *Watcher {
	return &Watcher{
		store:    store,
		onChange: onChange,
	}
}

// Start begins watching the session file's directory. A store without file
// persistence has nothing to watch; Start is then a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running || w.store.FilePath() == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory rather than the file: editors and atomic writes
	// replace the file, which would drop a direct file watch.
	dir := filepath.Dir(w.store.FilePath())
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	w.fsWatcher = watcher
	w.stopCh = make(chan struct{})
	w.running = true

	go w.processEvents(watcher.Events, watcher.Errors)

	logging.Debug("Session", "Watching %s for external session changes", dir)
	return nil
}

// Stop stops the watcher. Safe to call when not running.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	close(w.stopCh)
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.running = false

	// a debounced reload must not fire after Stop returns
	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()
}

// processEvents handles fsnotify events. The channels are passed in so a
// concurrent Stop cannot race the watcher field.
func (w *Watcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Warn("Session", "Session watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.store.FilePath()) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(DefaultDebounceInterval, func() {
		logging.Debug("Session", "Session file changed externally, reloading")
		w.store.Reload()
		if w.onChange != nil {
			w.onChange()
		}
	})
}
