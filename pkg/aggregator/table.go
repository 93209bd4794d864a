package aggregator

import (
	"github.com/0xmhha/flightops/pkg/flight"
	"github.com/0xmhha/flightops/pkg/period"
)

// Table maps grouping keys to accumulators and remembers the order in which
// keys were first seen.
type Table[K comparable] struct {
	keys  []K
	index map[K]*Accumulator
}

// NewTable creates an empty table.
func NewTable[K comparable]() *Table[K] {
	return &Table[K]{index: make(map[K]*Accumulator)}
}

// At returns the accumulator for key, creating it on first use.
func (t *Table[K]) At(key K) *Accumulator {
	if acc, ok := t.index[key]; ok {
		return acc
	}
	acc := &Accumulator{}
	t.index[key] = acc
	t.keys = append(t.keys, key)
	return acc
}

// Get returns a copy of the accumulator for key, zero if absent.
func (t *Table[K]) Get(key K) Accumulator {
	if acc, ok := t.index[key]; ok {
		return *acc
	}
	return Accumulator{}
}

// Has reports whether key has been seen.
func (t *Table[K]) Has(key K) bool {
	_, ok := t.index[key]
	return ok
}

// Keys returns keys in first-seen order.
func (t *Table[K]) Keys() []K {
	out := make([]K, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of keys.
func (t *Table[K]) Len() int {
	return len(t.keys)
}

// Each calls fn for every key in first-seen order.
func (t *Table[K]) Each(fn func(key K, acc Accumulator)) {
	for _, k := range t.keys {
		fn(k, *t.index[k])
	}
}

// Sum returns the sum of all accumulators.
func (t *Table[K]) Sum() Accumulator {
	var total Accumulator
	for _, k := range t.keys {
		acc := t.index[k]
		total.Flights += acc.Flights
		total.Passengers += acc.Passengers
		total.Seats += acc.Seats
		total.PassengersForLoad += acc.PassengersForLoad
		total.DelayMinutesTotal += acc.DelayMinutesTotal
		total.DelaySamples += acc.DelaySamples
		total.OnTime += acc.OnTime
	}
	return total
}

// DimensionName names a built-in grouping dimension.
type DimensionName string

// Built-in dimensions.
const (
	DimRoute         DimensionName = "route"
	DimAirline       DimensionName = "airline"
	DimOperationType DimensionName = "operationType"
	DimDay           DimensionName = "day"
	DimMonth         DimensionName = "month"
	DimQuarter       DimensionName = "quarter"
	DimYear          DimensionName = "year"
)

// Dimension derives a grouping key from a record.
type Dimension[K comparable] struct {
	Name DimensionName
	Key  func(rec *flight.Record) K
}

// Built-in record dimensions.
var (
	ByRoute = Dimension[string]{Name: DimRoute, Key: func(r *flight.Record) string { return r.RouteKey() }}

	ByAirline = Dimension[string]{Name: DimAirline, Key: func(r *flight.Record) string { return r.AirlineKey() }}

	ByOperationType = Dimension[string]{
		Name: DimOperationType,
		Key:  func(r *flight.Record) string { return r.OperationTypeKey() },
	}

	ByDay     = Dimension[string]{Name: DimDay, Key: func(r *flight.Record) string { return period.DayKey(r.Date) }}
	ByMonth   = Dimension[string]{Name: DimMonth, Key: func(r *flight.Record) string { return period.MonthKey(r.Date) }}
	ByQuarter = Dimension[string]{Name: DimQuarter, Key: func(r *flight.Record) string { return period.QuarterKey(r.Date) }}
	ByYear    = Dimension[string]{Name: DimYear, Key: func(r *flight.Record) string { return period.YearKey(r.Date) }}
)

// binding pairs a dimension with the table it feeds.
type binding interface {
	add(rec *flight.Record, c *Contribution)
}

type bound[K comparable] struct {
	dim   Dimension[K]
	table *Table[K]
}

func (b bound[K]) add(rec *flight.Record, c *Contribution) {
	b.table.At(b.dim.Key(rec)).Add(c)
}

func bind[K comparable](dim Dimension[K], table *Table[K]) binding {
	return bound[K]{dim: dim, table: table}
}
