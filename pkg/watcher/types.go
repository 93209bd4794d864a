// Package watcher reports changes to flight record files.
//
// It uses fsnotify to watch record directories (recursively, including
// directories created later) and coalesces bursts of file events into one
// Change per quiet period, so a bulk import triggers a single refresh.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    DebounceInterval: 500 * time.Millisecond,
//	}, log)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{"/srv/flightops/data"}); err != nil {
//	    return err
//	}
//
//	for change := range w.Changes() {
//	    fmt.Printf("%d record files changed (%s)\n", len(change.Paths), change.Ops)
//	}
package watcher

import (
	"context"
	"strings"
	"time"
)

// Op is a set of file operations.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota // File created
	OpWrite                 // File modified
	OpRemove                // File deleted
	OpRename                // File renamed/moved
)

// String returns the operations joined with "|", e.g. "CREATE|WRITE".
func (op Op) String() string {
	if op == 0 {
		return "NONE"
	}

	names := make([]string, 0, 4)
	for _, o := range []struct {
		op   Op
		name string
	}{
		{OpCreate, "CREATE"},
		{OpWrite, "WRITE"},
		{OpRemove, "REMOVE"},
		{OpRename, "RENAME"},
	} {
		if op&o.op != 0 {
			names = append(names, o.name)
		}
	}
	return strings.Join(names, "|")
}

// Change is one debounced batch of record file events.
type Change struct {
	// Paths lists the affected files, sorted.
	Paths []string

	// Ops is the union of operations seen in the batch.
	Ops Op

	// At is when the batch was emitted.
	At time.Time
}

// Watcher watches record directories.
type Watcher interface {
	// Start begins watching dirs and their subdirectories.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - dirs: Directories to watch; missing ones are skipped
	//
	// Returns ErrInvalidPath if no directory exists.
	//
	// Note: Start returns once watches are in place; events are processed
	// on a background goroutine until ctx is done or Stop is called.
	Start(ctx context.Context, dirs []string) error

	// Stop ends event processing.
	Stop() error

	// Changes returns the channel of debounced changes.
	// The channel is closed by Close.
	Changes() <-chan Change

	// Errors returns the channel of non-fatal watcher errors.
	// The channel is closed by Close.
	Errors() <-chan error

	// Close stops the watcher and releases resources.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval is the quiet period that ends a batch.
	// Default: 250ms.
	DebounceInterval time.Duration

	// Extension selects the watched files.
	// Default: ".jsonl".
	Extension string

	// CircuitBreakerThreshold is the number of consecutive fsnotify errors
	// after which the watcher gives up.
	// Default: 5.
	CircuitBreakerThreshold int
}
