package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/0xmhha/flightops/pkg/logger"
)

// Bucket names.
var (
	bucketReports = []byte("reports") // cache key -> envelope
)

// envelope is the stored form of one entry.
type envelope struct {
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   json.RawMessage `json:"payload"`
}

// BoltConfig contains bbolt cache configuration.
type BoltConfig struct {
	// DBPath is the database file. A leading ~ expands to the home directory.
	DBPath string

	// Timeout is how long to wait for the file lock.
	// Default: 1s.
	Timeout time.Duration

	// Clock overrides time.Now.
	Clock Clock
}

// Bolt is a Cache persisted in a bbolt database file.
//
// Payloads must be valid JSON. Expired entries are deleted when read and
// when the database is opened.
type Bolt struct {
	db     *bolt.DB
	now    Clock
	logger logger.Logger
}

// NewBolt opens (or creates) the cache database.
//
// Parameters:
//   - cfg: Cache configuration
//   - log: Logger instance
//
// Returns:
//   - Opened cache
//   - Error if the database cannot be opened
func NewBolt(cfg BoltConfig, log logger.Logger) (*Bolt, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	log = log.Component("cache")

	dbPath := expandHome(cfg.DBPath)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bucketReports)
		return createErr
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close cache after initialization error", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to create reports bucket: %w", err)
	}

	c := &Bolt{db: db, now: cfg.Clock, logger: log}

	removed, err := c.Prune()
	if err != nil {
		log.Warn("failed to prune expired entries", "error", err)
	}

	log.Info("report cache opened", "db_path", dbPath, "pruned", removed)
	return c, nil
}

// Get implements Cache.Get.
func (c *Bolt) Get(key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	var env envelope
	found := false

	err := c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketReports).Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("failed to unmarshal cache entry: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, false, c.wrapClosed(err)
	}
	if !found {
		return nil, false, nil
	}

	if !c.now().Before(env.ExpiresAt) {
		if delErr := c.delete(key); delErr != nil {
			c.logger.Warn("failed to delete expired entry", "key", key, "error", delErr)
		}
		return nil, false, nil
	}

	return []byte(env.Payload), true, nil
}

// Set implements Cache.Set.
func (c *Bolt) Set(key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		return nil
	}
	if !json.Valid(value) {
		return fmt.Errorf("cache payload for %q is not valid JSON", key)
	}

	data, err := json.Marshal(envelope{
		ExpiresAt: c.now().Add(ttl).UTC(),
		Payload:   json.RawMessage(value),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		if putErr := tx.Bucket(bucketReports).Put([]byte(key), data); putErr != nil {
			return fmt.Errorf("failed to store cache entry: %w", putErr)
		}
		return nil
	})
	return c.wrapClosed(err)
}

// Purge implements Cache.Purge.
func (c *Bolt) Purge() error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketReports); err != nil && err != bolt.ErrBucketNotFound {
			return fmt.Errorf("failed to drop reports bucket: %w", err)
		}
		_, err := tx.CreateBucket(bucketReports)
		return err
	})
	if err != nil {
		return c.wrapClosed(err)
	}

	c.logger.Debug("report cache purged")
	return nil
}

// Prune deletes every expired entry and returns how many were removed.
func (c *Bolt) Prune() (int, error) {
	now := c.now()
	removed := 0

	err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketReports)
		var expired [][]byte

		if err := b.ForEach(func(k, v []byte) error {
			var env envelope
			if err := json.Unmarshal(v, &env); err != nil || !now.Before(env.ExpiresAt) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}

		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})

	return removed, c.wrapClosed(err)
}

// Close implements Cache.Close.
func (c *Bolt) Close() error {
	return c.db.Close()
}

func (c *Bolt) delete(key string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketReports).Delete([]byte(key))
	})
}

func (c *Bolt) wrapClosed(err error) error {
	if err == bolt.ErrDatabaseNotOpen {
		return ErrCacheClosed
	}
	return err
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
