// Package store provides the record stores the reporting engine reads
// flight records from.
//
// A RecordStore returns every record dated inside a period that passes a
// filter. Implementations either return the complete set or an error; they
// never return a partial set.
package store

import (
	"context"
	"errors"

	"github.com/0xmhha/flightops/pkg/flight"
	"github.com/0xmhha/flightops/pkg/period"
)

// RecordStore supplies flight records for a period.
type RecordStore interface {
	// Fetch returns the records dated inside p that match f.
	Fetch(ctx context.Context, p period.Period, f flight.Filter) ([]flight.Record, error)
}

// Common errors returned by stores.
var (
	// ErrDataDirNotFound is returned when the JSONL data directory is missing.
	ErrDataDirNotFound = errors.New("data directory not found")

	// ErrPermissionDenied is returned when a data file cannot be read.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidTable is returned for an unusable table identifier.
	ErrInvalidTable = errors.New("invalid table name")

	// ErrStoreClosed is returned when using a closed store.
	ErrStoreClosed = errors.New("store is closed")
)

// Memory is a RecordStore over a fixed slice.
type Memory struct {
	records []flight.Record
}

// NewMemory creates a store serving a copy of records.
func NewMemory(records []flight.Record) *Memory {
	cp := make([]flight.Record, len(records))
	copy(cp, records)
	return &Memory{records: cp}
}

// Fetch implements RecordStore.Fetch.
func (m *Memory) Fetch(ctx context.Context, p period.Period, f flight.Filter) ([]flight.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return selectRecords(m.records, p, f), nil
}

// selectRecords returns records dated inside p that match f, in input order.
func selectRecords(records []flight.Record, p period.Period, f flight.Filter) []flight.Record {
	f = f.Normalize()
	out := make([]flight.Record, 0, len(records))
	for i := range records {
		if p.Contains(records[i].Date) && f.Match(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}
