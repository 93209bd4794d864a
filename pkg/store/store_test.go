package store

import (
	"context"
	"database/sql"
	"os"
	"reflect"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/flightops/pkg/flight"
	"github.com/0xmhha/flightops/pkg/logger"
	"github.com/0xmhha/flightops/pkg/period"
)

func mustPeriod(t *testing.T, from, to string) period.Period {
	t.Helper()
	p, err := period.Parse(from, to)
	require.NoError(t, err)
	return p
}

func TestMemoryFetch(t *testing.T) {
	t.Parallel()

	records := []flight.Record{
		{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Airline: flight.Airline{Code: "JU"}, Route: lo.ToPtr("BEG-CDG")},
		{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Airline: flight.Airline{Code: "W6"}, Route: lo.ToPtr("BEG-CDG")},
		{Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Airline: flight.Airline{Code: "JU"}, Route: lo.ToPtr("BEG-CDG")},
	}
	m := NewMemory(records)
	records[0].Airline.Code = "XX"

	got, err := m.Fetch(context.Background(), mustPeriod(t, "2024-03-01", "2024-03-31"), flight.Filter{AirlineCodes: []string{"ju"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "JU", got[0].Airline.Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Fetch(ctx, mustPeriod(t, "2024-03-01", "2024-03-31"), flight.Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}

const (
	lineMarch1 = `{"date":"2024-03-01","airline":{"code":"JU"},"arrivalFlightNumber":"JU1","arrivalPassengers":10}` + "\n"
	lineMarch2 = `{"date":"2024-03-02","airline":{"code":"W6"},"arrivalFlightNumber":"W61","arrivalPassengers":20}` + "\n"
	lineApril  = `{"date":"2024-04-02","airline":{"code":"JU"},"arrivalFlightNumber":"JU3","arrivalPassengers":30}` + "\n"
)

func TestFileStoreFetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2024"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024", "march.jsonl"), []byte(lineMarch1+"garbage\n"+lineMarch2), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "april.jsonl"), []byte(lineApril), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(lineApril), 0o600))

	s, err := NewFileStore(FileConfig{DataDir: dir}, logger.Noop())
	require.NoError(t, err)
	defer s.Close() // nolint:errcheck

	ctx := context.Background()

	got, err := s.Fetch(ctx, mustPeriod(t, "2024-03-01", "2024-04-30"), flight.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = s.Fetch(ctx, mustPeriod(t, "2024-03-01", "2024-03-31"), flight.Filter{AirlineCodes: []string{"W6"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 20, *got[0].ArrivalPassengers)
}

func TestFileStoreIncrementalAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lineMarch1), 0o600))

	s, err := NewFileStore(FileConfig{DataDir: dir}, logger.Noop())
	require.NoError(t, err)

	ctx := context.Background()
	march := mustPeriod(t, "2024-03-01", "2024-03-31")

	got, err := s.Fetch(ctx, march, flight.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(lineMarch2)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err = s.Fetch(ctx, march, flight.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Truncating the file starts over.
	require.NoError(t, os.WriteFile(path, []byte(lineApril), 0o600))
	got, err = s.Fetch(ctx, march, flight.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	// Removed files drop out.
	require.NoError(t, os.Remove(path))
	got, err = s.Fetch(ctx, mustPeriod(t, "2024-01-01", "2024-12-31"), flight.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStoreCompletesPartialLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lineMarch1[:40]), 0o600))

	s, err := NewFileStore(FileConfig{DataDir: dir}, logger.Noop())
	require.NoError(t, err)

	ctx := context.Background()
	march := mustPeriod(t, "2024-03-01", "2024-03-31")

	got, err := s.Fetch(ctx, march, flight.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(lineMarch1[40:] + lineMarch2[:10])
	require.NoError(t, err)

	got, err = s.Fetch(ctx, march, flight.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 10, *got[0].ArrivalPassengers)

	_, err = f.WriteString(lineMarch2[10:])
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err = s.Fetch(ctx, march, flight.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFileStoreKeepsUnknownStatus(t *testing.T) {
	dir := t.TempDir()
	line := `{"date":"2024-03-05","airline":{"code":"JU"},"arrivalFlightNumber":"JU7","arrivalPassengers":100,"arrivalStatus":"DELAYED"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legs.jsonl"), []byte(line+lineMarch1), 0o600))

	s, err := NewFileStore(FileConfig{DataDir: dir}, logger.Noop())
	require.NoError(t, err)

	got, err := s.Fetch(context.Background(), mustPeriod(t, "2024-03-01", "2024-03-31"), flight.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	delayed, ok := lo.Find(got, func(r flight.Record) bool { return r.UnknownStatus() })
	require.True(t, ok)
	assert.Equal(t, flight.StatusScheduled, delayed.ArrivalStatus)
	assert.Equal(t, 100, *delayed.ArrivalPassengers)
}

func TestFileStoreDetectsRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lineMarch1), 0o600))

	s, err := NewFileStore(FileConfig{DataDir: dir}, logger.Noop())
	require.NoError(t, err)

	ctx := context.Background()
	all := mustPeriod(t, "2024-01-01", "2024-12-31")

	got, err := s.Fetch(ctx, all, flight.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	t.Run("rewritten in place and larger", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte(lineApril+lineMarch2), 0o600))

		got, err := s.Fetch(ctx, all, flight.Filter{})
		require.NoError(t, err)
		codes := lo.Map(got, func(r flight.Record, _ int) string { return r.Airline.Code })
		assert.Equal(t, []string{"JU", "W6"}, codes)
		assert.Equal(t, 30, *got[0].ArrivalPassengers)
	})

	t.Run("replaced by rename", func(t *testing.T) {
		tmp := filepath.Join(t.TempDir(), "legs.jsonl")
		require.NoError(t, os.WriteFile(tmp, []byte(lineApril+lineMarch2+lineMarch1), 0o600))
		require.NoError(t, os.Rename(tmp, path))

		got, err := s.Fetch(ctx, all, flight.Filter{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}

func TestFileStoreErrors(t *testing.T) {
	_, err := NewFileStore(FileConfig{DataDir: filepath.Join(t.TempDir(), "missing")}, logger.Noop())
	assert.ErrorIs(t, err, ErrDataDirNotFound)

	s, err := NewFileStore(FileConfig{DataDir: t.TempDir()}, logger.Noop())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Fetch(context.Background(), mustPeriod(t, "2024-01-01", "2024-01-01"), flight.Filter{})
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(flight.ErrFileTooLarge))
	assert.False(t, isRetryable(os.ErrNotExist))
	assert.False(t, isRetryable(context.Canceled))
	assert.True(t, isRetryable(assert.AnError))
}

func TestBuildQuery(t *testing.T) {
	p := mustPeriod(t, "2024-01-01", "2024-01-31")

	t.Run("period only", func(t *testing.T) {
		query, args := buildQuery("flight_legs", p, flight.Filter{}.Normalize())
		assert.Contains(t, query, `FROM "flight_legs" WHERE flight_date BETWEEN $1 AND $2 ORDER BY flight_date`)
		assert.Equal(t, []any{"2024-01-01", "2024-01-31"}, args)
	})

	t.Run("all filters", func(t *testing.T) {
		f := flight.Filter{
			AirlineCodes:    []string{"w6", "JU"},
			Routes:          []string{"beg-cdg"},
			OperationTypeID: "sch",
		}.Normalize()

		query, args := buildQuery("ops.flight_legs", p, f)
		assert.Contains(t, query, `FROM "ops"."flight_legs"`)
		assert.Contains(t, query, airlineKeyExpr+" = ANY($3)")
		assert.Contains(t, query, routeKeyExpr+" = ANY($4)")
		assert.Contains(t, query, opTypeKeyExpr+" = $5")
		assert.Equal(t, []any{"2024-01-01", "2024-01-31", []string{"JU", "W6"}, []string{"BEG-CDG"}, "SCH"}, args)
	})
}

func TestBuildQueryMatchesNoKey(t *testing.T) {
	p := mustPeriod(t, "2024-01-01", "2024-01-31")
	f := flight.Filter{AirlineCodes: []string{"n/a"}, Routes: []string{"N/A"}}.Normalize()

	query, args := buildQuery("flight_legs", p, f)
	assert.Contains(t, query, `upper(coalesce(nullif(trim(route), ''), 'N/A')) = ANY($4)`)
	assert.Contains(t, query, `upper(coalesce(nullif(trim(airline_code), ''), nullif(trim(airline_name), ''), 'N/A')) = ANY($3)`)
	assert.Equal(t, []string{flight.NoKey}, args[2])
	assert.Equal(t, []string{flight.NoKey}, args[3])
}

// fakeRow scans values positionally; nil leaves the destination untouched.
type fakeRow []any

func (r fakeRow) Scan(dest ...any) error {
	for i, v := range r {
		if v != nil {
			reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
		}
	}
	return nil
}

func TestScanRecordUnknownStatus(t *testing.T) {
	row := make(fakeRow, len(recordColumns))
	row[0] = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	row[4] = sql.NullString{String: "JU", Valid: true}
	row[6] = lo.ToPtr("JU7")
	row[8] = lo.ToPtr(100)
	row[14] = sql.NullString{String: "DELAYED", Valid: true}
	row[15] = sql.NullString{String: "operated", Valid: true}

	rec, err := scanRecord(row)
	require.NoError(t, err)
	assert.Equal(t, flight.StatusScheduled, rec.ArrivalStatus)
	assert.Equal(t, flight.StatusOperated, rec.DepartureStatus)
	assert.True(t, rec.UnknownStatus())
	assert.Equal(t, 100, *rec.ArrivalPassengers)
	assert.Equal(t, "JU", rec.AirlineKey())
}

func TestNewPostgresRejectsBadTable(t *testing.T) {
	_, err := NewPostgres(nil, "legs; DROP TABLE x", logger.Noop())
	assert.ErrorIs(t, err, ErrInvalidTable)

	s, err := NewPostgres(nil, "", logger.Noop())
	require.NoError(t, err)
	assert.Equal(t, DefaultTable, s.table)
}
