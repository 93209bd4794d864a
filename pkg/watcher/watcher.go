package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"

	"github.com/0xmhha/flightops/pkg/logger"
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	changes chan Change
	errors  chan error

	mu       sync.Mutex
	started  bool
	running  bool
	closed   bool
	stopChan chan struct{}
	done     chan struct{}

	// Owned by the processing goroutine.
	pending      map[string]Op
	failureCount int
}

// New creates a new record directory watcher.
//
// Parameters:
//   - cfg: Watcher configuration
//   - log: Logger instance
//
// Returns:
//   - Configured Watcher
//   - Error if the fsnotify watcher cannot be created
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = 250 * time.Millisecond
	}
	if cfg.Extension == "" {
		cfg.Extension = ".jsonl"
	}
	if cfg.CircuitBreakerThreshold == 0 {
		cfg.CircuitBreakerThreshold = 5
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	log = log.Component("watcher")
	log.Debug("file watcher created",
		"debounce_interval", cfg.DebounceInterval,
		"extension", cfg.Extension)

	return &watcher{
		fsw:      fsw,
		logger:   log,
		config:   cfg,
		changes:  make(chan Change, 16),
		errors:   make(chan error, 10),
		stopChan: make(chan struct{}),
		pending:  make(map[string]Op),
	}, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, dirs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.started {
		return ErrAlreadyStarted
	}

	watched := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				w.logger.Warn("watch path does not exist, skipping", "path", dir)
				continue
			}
			return fmt.Errorf("failed to stat path %s: %w", dir, err)
		}
		if !info.IsDir() {
			w.logger.Warn("watch path is not a directory, skipping", "path", dir)
			continue
		}
		if _, err := w.addTree(dir); err != nil {
			return fmt.Errorf("failed to add path %s: %w", dir, err)
		}
		watched = append(watched, dir)
	}

	if len(watched) == 0 {
		return ErrInvalidPath
	}

	w.started = true
	w.running = true
	w.done = make(chan struct{})

	w.logger.Info("watcher started", "paths", watched)

	go w.processEvents(ctx)

	return nil
}

// Stop implements Watcher.Stop.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.running {
		return ErrNotStarted
	}

	close(w.stopChan)
	w.running = false

	w.logger.Info("watcher stopped")
	return nil
}

// Changes implements Watcher.Changes.
func (w *watcher) Changes() <-chan Change {
	return w.changes
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.running {
		close(w.stopChan)
		w.running = false
	}
	done := w.done
	w.mu.Unlock()

	// The processing goroutine is the only sender on both channels.
	if done != nil {
		<-done
	}
	close(w.changes)
	close(w.errors)

	if err := w.fsw.Close(); err != nil {
		w.logger.Error("failed to close fsnotify watcher", "error", err)
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.logger.Debug("watcher closed")
	return nil
}

// processEvents collects fsnotify events into batches and emits one
// Change after each quiet period.
func (w *watcher) processEvents(ctx context.Context) {
	defer close(w.done)

	var (
		timer  *time.Timer
		flushC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("event processing stopped", "reason", "context cancelled")
			return

		case <-w.stopChan:
			w.logger.Debug("event processing stopped", "reason", "stop signal")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				w.logger.Warn("fsnotify events channel closed")
				return
			}
			if !w.handleEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.config.DebounceInterval)
			} else {
				timer.Reset(w.config.DebounceInterval)
			}
			flushC = timer.C

		case <-flushC:
			flushC = nil
			if !w.flush(ctx) {
				return
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.logger.Warn("fsnotify errors channel closed")
				return
			}
			if !w.handleError(err) {
				return
			}
		}
	}
}

// handleEvent records a relevant event as pending. It reports whether the
// batch grew.
func (w *watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			files, err := w.addTree(event.Name)
			if err != nil {
				w.logger.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
			// Files written before the watch was added would otherwise be missed.
			for _, f := range files {
				w.pending[f] |= OpCreate
			}
			return len(files) > 0
		}
	}

	if !strings.HasSuffix(event.Name, w.config.Extension) {
		return false
	}

	var op Op
	if event.Op&fsnotify.Create != 0 {
		op |= OpCreate
	}
	if event.Op&fsnotify.Write != 0 {
		op |= OpWrite
	}
	if event.Op&fsnotify.Remove != 0 {
		op |= OpRemove
	}
	if event.Op&fsnotify.Rename != 0 {
		op |= OpRename
	}
	if op == 0 {
		// chmod only
		return false
	}

	w.failureCount = 0
	w.pending[event.Name] |= op
	return true
}

// flush emits the pending batch. It returns false when the watcher is
// shutting down.
func (w *watcher) flush(ctx context.Context) bool {
	if len(w.pending) == 0 {
		return true
	}

	paths := lo.Keys(w.pending)
	slices.Sort(paths)
	change := Change{
		Paths: paths,
		Ops:   lo.Reduce(paths, func(acc Op, p string, _ int) Op { return acc | w.pending[p] }, 0),
		At:    time.Now(),
	}
	clear(w.pending)

	w.logger.Debug("record files changed", "files", len(change.Paths), "ops", change.Ops.String())

	select {
	case w.changes <- change:
		return true
	case <-ctx.Done():
		return false
	case <-w.stopChan:
		return false
	}
}

// handleError forwards an fsnotify error. It returns false once the
// circuit breaker opens.
func (w *watcher) handleError(err error) bool {
	w.failureCount++

	w.logger.Error("fsnotify error",
		"error", err,
		"failure_count", w.failureCount)

	if w.failureCount >= w.config.CircuitBreakerThreshold {
		w.logger.Error("circuit breaker opened",
			"threshold", w.config.CircuitBreakerThreshold)
		err = ErrCircuitBreakerOpen
	}

	select {
	case w.errors <- err:
	default:
		w.logger.Warn("error channel full, dropping error")
	}

	return err != ErrCircuitBreakerOpen
}

// addTree watches root and every directory below it. It returns the
// matching files already present.
func (w *watcher) addTree(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.logger.Warn("error walking path", "path", path, "error", err)
			return nil
		}

		if !d.IsDir() {
			if strings.HasSuffix(path, w.config.Extension) {
				files = append(files, path)
			}
			return nil
		}

		if addErr := w.fsw.Add(path); addErr != nil {
			if path == root {
				return addErr
			}
			w.logger.Warn("failed to add subdirectory", "path", path, "error", addErr)
			return nil
		}

		w.logger.Debug("added watch path", "path", path)
		return nil
	})

	return files, err
}
