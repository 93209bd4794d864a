package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/0xmhha/flightops/pkg/flight"
	"github.com/0xmhha/flightops/pkg/logger"
	"github.com/0xmhha/flightops/pkg/period"
)

// FileConfig contains JSONL file store configuration.
type FileConfig struct {
	// DataDir is scanned recursively for *.jsonl record files.
	DataDir string

	// MaxRetries is the number of retries for a failed file read.
	// Default: 3.
	MaxRetries int

	// RetryDelay is the first retry delay; it doubles on each retry.
	// Default: 100ms.
	RetryDelay time.Duration
}

// headSize is how many leading bytes identify a file's content.
const headSize = 256

// fileState is what the store remembers about one record file.
type fileState struct {
	offset  int64
	modTime time.Time
	info    os.FileInfo
	head    []byte
	records []flight.Record
}

// FileStore serves records from a directory of JSONL files.
//
// Files are treated as append-only: on each Fetch only bytes past the last
// read offset are parsed. A file that was replaced, shrank, or whose
// leading bytes changed is parsed again from the start.
type FileStore struct {
	config FileConfig
	parser flight.Parser
	logger logger.Logger

	mu     sync.Mutex
	files  map[string]*fileState
	closed bool
}

// NewFileStore creates a JSONL directory store.
//
// Returns ErrDataDirNotFound if DataDir does not exist.
func NewFileStore(cfg FileConfig, log logger.Logger) (*FileStore, error) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 100 * time.Millisecond
	}

	info, err := os.Stat(cfg.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDataDirNotFound, cfg.DataDir)
		}
		return nil, fmt.Errorf("failed to stat data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDataDirNotFound, cfg.DataDir)
	}

	log = log.Component("store")
	log.Info("file store created",
		"data_dir", cfg.DataDir,
		"max_retries", cfg.MaxRetries,
		"retry_delay", cfg.RetryDelay)

	return &FileStore{
		config: cfg,
		parser: flight.NewParser(),
		logger: log,
		files:  make(map[string]*fileState),
	}, nil
}

// Fetch implements RecordStore.Fetch.
func (s *FileStore) Fetch(ctx context.Context, p period.Period, f flight.Filter) ([]flight.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	paths, err := s.discover()
	if err != nil {
		return nil, err
	}

	var all []flight.Record
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		records, err := s.load(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		seen[path] = true
		all = append(all, selectRecords(records, p, f)...)
	}

	for path := range s.files {
		if !seen[path] {
			delete(s.files, path)
		}
	}

	s.logger.Debug("fetch complete",
		"period", p.String(),
		"files", len(paths),
		"records", len(all))

	return all, nil
}

// Reset forgets every read offset so the next Fetch re-reads all files.
func (s *FileStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string]*fileState)
}

// Close releases cached records.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.files = nil
	s.logger.Info("file store closed")
	return nil
}

// discover lists record files under the data directory in lexical order.
func (s *FileStore) discover() ([]string, error) {
	var paths []string

	err := filepath.WalkDir(s.config.DataDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.config.DataDir {
				return err
			}
			s.logger.Warn("failed to scan path, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".jsonl") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDataDirNotFound, s.config.DataDir)
		}
		return nil, fmt.Errorf("failed to scan data directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// load returns every record of path, reading only what was appended since
// the last call.
func (s *FileStore) load(ctx context.Context, path string) ([]flight.Record, error) {
	state, ok := s.files[path]
	if !ok {
		state = &fileState{}
		s.files[path] = state
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Removed between discovery and read.
			delete(s.files, path)
			return nil, nil
		}
		if os.IsPermission(err) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	size := info.Size()
	if state.offset > 0 && s.rewritten(path, info, state) {
		s.logger.Warn("file was rewritten, re-reading", "path", path, "old_offset", state.offset, "file_size", size)
		state.offset = 0
		state.head = nil
		state.records = nil
	}

	if size == state.offset {
		state.info = info
		return state.records, nil
	}

	records, offset, err := s.readWithRetry(ctx, path, state.offset)
	if err != nil {
		return nil, err
	}

	state.records = append(state.records, records...)
	state.offset = offset
	state.modTime = info.ModTime()
	state.info = info
	if len(state.head) < headSize && int64(len(state.head)) < offset {
		if state.head, err = readHead(path, min(offset, headSize)); err != nil {
			s.logger.Debug("failed to read file head", "path", path, "error", err)
			state.head = nil
		}
	}
	return state.records, nil
}

// rewritten reports whether path no longer continues the content read so far.
func (s *FileStore) rewritten(path string, info os.FileInfo, state *fileState) bool {
	switch {
	case state.info != nil && !os.SameFile(state.info, info):
		return true
	case info.Size() < state.offset:
		return true
	case info.Size() == state.offset && !info.ModTime().Equal(state.modTime):
		return true
	}

	head, err := readHead(path, int64(len(state.head)))
	return err != nil || !bytes.Equal(head, state.head)
}

// readHead returns the first n bytes of path.
func readHead(path string, n int64) ([]byte, error) {
	// #nosec G304: path comes from the configured data directory
	f, err := os.Open(path) // nolint:gosec
	if err != nil {
		return nil, err
	}
	defer f.Close() // nolint:errcheck // read-only handle

	head := make([]byte, n)
	if _, err := io.ReadFull(f, head); err != nil {
		return nil, err
	}
	return head, nil
}

// readWithRetry parses path from offset with exponential backoff.
func (s *FileStore) readWithRetry(ctx context.Context, path string, offset int64) ([]flight.Record, int64, error) {
	var lastErr error

	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoffMultiplier := 1 << (attempt - 1) // nolint:gosec // attempt is bounded by MaxRetries
			delay := s.config.RetryDelay * time.Duration(backoffMultiplier)
			s.logger.Debug("retrying read", "path", path, "attempt", attempt, "delay", delay)

			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		records, newOffset, skipped, err := s.parser.ParseFile(path, offset)
		if err == nil {
			if unknown := lo.CountBy(records, func(r flight.Record) bool { return r.UnknownStatus() }); unknown > 0 {
				s.logger.Warn("unknown leg statuses read as SCHEDULED", "path", path, "records", unknown)
			}
			if len(skipped) > 0 {
				s.logger.Warn("skipped malformed lines",
					"path", path,
					"count", len(skipped),
					"first_line", skipped[0].Line,
					"first_error", skipped[0].Err)
			}
			return records, newOffset, nil
		}

		lastErr = err
		if !isRetryable(err) {
			s.logger.Debug("non-retryable error", "path", path, "error", err)
			return nil, 0, err
		}

		s.logger.Warn("read attempt failed", "path", path, "attempt", attempt, "error", err)
	}

	return nil, 0, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	switch {
	case errors.Is(err, flight.ErrFileTooLarge),
		errors.Is(err, fs.ErrPermission),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}
