package acl

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vyrodovalexey/avmqacl/internal/observability"
)

// Watcher watches the rule file for changes and triggers an immediate
// reload, complementing the freshness-window poll so operator edits
// take effect without waiting out the window.
type Watcher struct {
	path          string
	watcher       *fsnotify.Watcher
	authorizer    *Authorizer
	logger        observability.Logger
	debounceDelay time.Duration
	mu            sync.Mutex
	stopCh        chan struct{}
	stoppedCh     chan struct{}
	running       bool
}

// WatcherOption is a functional option for configuring the watcher.
type WatcherOption func(*Watcher)

// WithWatcherDebounce sets the debounce delay for file changes.
func WithWatcherDebounce(delay time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = delay
	}
}

// WithWatcherLogger sets the logger for the watcher.
func WithWatcherLogger(logger observability.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a watcher that forces a reload of the given
// authorizer whenever the rule file at path is written.
func NewWatcher(path string, authorizer *Authorizer, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:          absPath,
		watcher:       fsWatcher,
		authorizer:    authorizer,
		debounceDelay: 100 * time.Millisecond,
		logger:        observability.NopLogger(),
		stopCh:        make(chan struct{}),
		stoppedCh:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Start begins watching the rule file. The directory is watched, not
// the file itself, so atomic rename-into-place updates are seen.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	w.logger.Info("started watching rule file",
		observability.String("path", w.path),
	)

	go w.watch(ctx)

	return nil
}

// Stop stops watching the rule file.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh

	return w.watcher.Close()
}

// watch is the main watch loop.
func (w *Watcher) watch(ctx context.Context) {
	defer close(w.stoppedCh)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("rule watcher stopped due to context cancellation")
			return

		case <-w.stopCh:
			w.logger.Info("rule watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			debounceTimer, debounceCh = w.handleFileEvent(event, debounceTimer, debounceCh)

		case <-debounceCh:
			debounceCh = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("rule watcher error", observability.Error(err))
		}
	}
}

// handleFileEvent processes a file system event and returns the updated
// debounce timer.
func (w *Watcher) handleFileEvent(
	event fsnotify.Event,
	debounceTimer *time.Timer,
	debounceCh <-chan time.Time,
) (timer *time.Timer, ch <-chan time.Time) {
	// Only process events for our rule file
	if filepath.Clean(event.Name) != w.path {
		return debounceTimer, debounceCh
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return debounceTimer, debounceCh
	}

	w.logger.Debug("rule file changed",
		observability.String("path", event.Name),
		observability.String("op", event.Op.String()),
	)

	// Reset debounce timer
	if debounceTimer != nil {
		debounceTimer.Stop()
	}
	debounceTimer = time.NewTimer(w.debounceDelay)
	return debounceTimer, debounceTimer.C
}

// reload forces a reload on the authorizer. A failed reload keeps the
// last-known-good rules; the authorizer logs the failure itself.
func (w *Watcher) reload() {
	w.logger.Info("reloading rules after file change",
		observability.String("path", w.path),
	)
	w.authorizer.ForceReload()
}
