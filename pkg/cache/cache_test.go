package cache

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/flightops/pkg/flight"
	"github.com/0xmhha/flightops/pkg/logger"
	"github.com/0xmhha/flightops/pkg/period"
)

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func TestKeyNormalizesFilter(t *testing.T) {
	t.Parallel()

	p, err := period.Parse("2024-01-01", "2024-01-31")
	require.NoError(t, err)

	a := Key("report", []period.Period{p}, flight.Filter{AirlineCodes: []string{"w6", "JU"}, OperationTypeID: ""}, "")
	b := Key("report", []period.Period{p}, flight.Filter{AirlineCodes: []string{"JU", "W6", "ju"}, OperationTypeID: "all"}, " ")
	assert.Equal(t, a, b)
	assert.Equal(t, "report|2024-01-01..2024-01-31|airlines=JU,W6|routes=|op=ALL|group=", a)

	c := Key("custom", []period.Period{p}, flight.Filter{}, "Route")
	assert.Equal(t, "custom|2024-01-01..2024-01-31|airlines=|routes=|op=ALL|group=route", c)
}

// caches runs the shared contract against both implementations.
func caches(t *testing.T, clock *fakeClock) map[string]Cache {
	t.Helper()

	b, err := NewBolt(BoltConfig{
		DBPath: filepath.Join(t.TempDir(), "cache", "reports.db"),
		Clock:  clock.Now,
	}, logger.Noop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	return map[string]Cache{
		"memory": NewMemory(clock.Now),
		"bolt":   b,
	}
}

func TestCacheContract(t *testing.T) {
	clock := newClock()

	for name, c := range caches(t, clock) {
		t.Run(name, func(t *testing.T) {
			payload := []byte(`{"flights":3}`)

			_, ok, err := c.Get("k")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Set("k", payload, time.Minute))
			got, ok, err := c.Get("k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, payload, got)

			// Zero TTL stores nothing.
			require.NoError(t, c.Set("zero", payload, 0))
			_, ok, err = c.Get("zero")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, c.Purge())
			_, ok, err = c.Get("k")
			require.NoError(t, err)
			assert.False(t, ok)

			_, _, err = c.Get("")
			assert.ErrorIs(t, err, ErrEmptyKey)
			assert.ErrorIs(t, c.Set("", payload, time.Minute), ErrEmptyKey)
		})
	}
}

func TestMemoryExpiry(t *testing.T) {
	clock := newClock()
	m := NewMemory(clock.Now)

	require.NoError(t, m.Set("live", []byte("x"), 5*time.Minute))
	require.NoError(t, m.Set("historical", []byte("y"), time.Hour))

	clock.Advance(5 * time.Minute)

	_, ok, err := m.Get("live")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())

	_, ok, err = m.Get("historical")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Close())
	_, _, err = m.Get("historical")
	assert.ErrorIs(t, err, ErrCacheClosed)
}

func TestBoltExpiryAndReopen(t *testing.T) {
	clock := newClock()
	path := filepath.Join(t.TempDir(), "reports.db")

	b, err := NewBolt(BoltConfig{DBPath: path, Clock: clock.Now}, logger.Noop())
	require.NoError(t, err)

	require.NoError(t, b.Set("live", []byte(`{"a":1}`), 5*time.Minute))
	require.NoError(t, b.Set("historical", []byte(`{"b":2}`), time.Hour))
	assert.Error(t, b.Set("bad", []byte("not json"), time.Hour))
	require.NoError(t, b.Close())

	clock.Advance(10 * time.Minute)

	b, err = NewBolt(BoltConfig{DBPath: path, Clock: clock.Now}, logger.Noop())
	require.NoError(t, err)
	defer b.Close() // nolint:errcheck

	_, ok, err := b.Get("live")
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := b.Get("historical")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"b":2}`, string(got))

	clock.Advance(time.Hour)
	removed, err := b.Prune()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestBoltClosed(t *testing.T) {
	b, err := NewBolt(BoltConfig{DBPath: filepath.Join(t.TempDir(), "reports.db")}, logger.Noop())
	require.NoError(t, err)
	require.NoError(t, b.Close())

	_, _, err = b.Get("k")
	assert.ErrorIs(t, err, ErrCacheClosed)
}
