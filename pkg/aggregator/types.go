// Package aggregator turns a materialized set of flight records into
// running totals, in a single pass.
//
// The pass updates whole-period Totals plus one insertion-ordered Table of
// Accumulators per grouping dimension (route, airline, day, month, quarter,
// year, operation type) and a per-leg hour-of-day table. Every dimension
// shares the same update path through the generic Dimension type, so the
// daily, monthly and yearly views of one record set always reconcile.
//
// Example usage:
//
//	agg := aggregator.New(aggregator.Config{
//	    Period:   p,
//	    Location: loc,
//	})
//	res := agg.Run(records)
//	fmt.Printf("flights: %d\n", res.Totals.Flights)
//	for _, route := range res.Routes.Keys() {
//	    acc := res.Routes.Get(route)
//	    fmt.Println(route, acc.Passengers, acc.LoadFactor())
//	}
package aggregator

import (
	"time"

	"github.com/0xmhha/flightops/pkg/flight"
	"github.com/0xmhha/flightops/pkg/metrics"
	"github.com/0xmhha/flightops/pkg/period"
)

// Accumulator holds running sums for one grouping key.
//
// Seats and PassengersForLoad only move together, so LoadFactor compares
// passengers and seats from the same records.
type Accumulator struct {
	Flights           int `json:"flights"`
	Passengers        int `json:"passengers"`
	Seats             int `json:"seats"`
	PassengersForLoad int `json:"passengersForLoad"`
	DelayMinutesTotal int `json:"delayMinutesTotal"`
	DelaySamples      int `json:"delaySamples"`
	OnTime            int `json:"onTime"`
}

// Contribution is what one record (or one leg) adds to an Accumulator.
type Contribution struct {
	Flights           int
	Passengers        int
	Seats             int
	PassengersForLoad int

	// Delays holds up to two delay samples, one per leg.
	Delays  [2]int
	Samples int
}

// AddDelay appends a delay sample if d is non-nil.
func (c *Contribution) AddDelay(d *int) {
	if d == nil || c.Samples == len(c.Delays) {
		return
	}
	c.Delays[c.Samples] = *d
	c.Samples++
}

// Add folds a contribution into the accumulator.
func (a *Accumulator) Add(c *Contribution) {
	a.Flights += c.Flights
	a.Passengers += c.Passengers
	a.Seats += c.Seats
	a.PassengersForLoad += c.PassengersForLoad

	for i := 0; i < c.Samples; i++ {
		d := c.Delays[i]
		a.DelayMinutesTotal += d
		a.DelaySamples++
		if metrics.IsOnTime(&d) {
			a.OnTime++
		}
	}
}

// LoadFactor returns passengers per offered seat as a percentage, nil without seats.
func (a Accumulator) LoadFactor() *float64 {
	return metrics.Rate(float64(a.PassengersForLoad), float64(a.Seats))
}

// OnTimeRate returns the on-time share of delay samples, nil without samples.
func (a Accumulator) OnTimeRate() *float64 {
	return metrics.Rate(float64(a.OnTime), float64(a.DelaySamples))
}

// AvgDelayMinutes returns the mean delay, nil without samples.
func (a Accumulator) AvgDelayMinutes() *float64 {
	return metrics.Average(float64(a.DelayMinutesTotal), a.DelaySamples)
}

// AvgPassengers returns passengers per flight, nil without flights.
func (a Accumulator) AvgPassengers() *float64 {
	return metrics.Average(float64(a.Passengers), a.Flights)
}

// StatusCounts counts legs per status.
type StatusCounts struct {
	Operated  int `json:"operated"`
	Cancelled int `json:"cancelled"`
	Diverted  int `json:"diverted"`
	Scheduled int `json:"scheduled"`
}

// Total returns the number of counted legs.
func (s StatusCounts) Total() int {
	return s.Operated + s.Cancelled + s.Diverted + s.Scheduled
}

// Count returns the count for one status.
func (s StatusCounts) Count(status flight.Status) int {
	switch status.OrScheduled() {
	case flight.StatusOperated:
		return s.Operated
	case flight.StatusCancelled:
		return s.Cancelled
	case flight.StatusDiverted:
		return s.Diverted
	default:
		return s.Scheduled
	}
}

func (s *StatusCounts) inc(status flight.Status) {
	switch status.OrScheduled() {
	case flight.StatusOperated:
		s.Operated++
	case flight.StatusCancelled:
		s.Cancelled++
	case flight.StatusDiverted:
		s.Diverted++
	default:
		s.Scheduled++
	}
}

// Totals are the whole-period sums of one pass.
type Totals struct {
	Records             int          `json:"records"`
	Flights             int          `json:"flights"`
	ArrivalFlights      int          `json:"arrivalFlights"`
	DepartureFlights    int          `json:"departureFlights"`
	Passengers          int          `json:"totalPassengers"`
	ArrivalPassengers   int          `json:"arrivalPassengers"`
	DeparturePassengers int          `json:"departurePassengers"`
	Seats               int          `json:"totalSeats"`
	PassengersForLoad   int          `json:"passengersForLoad"`
	DelayMinutesTotal   int          `json:"delayMinutesTotal"`
	DelaySamples        int          `json:"delaySamples"`
	OnTime              int          `json:"onTime"`
	BaggageKg           float64      `json:"totalBaggage"`
	CargoKg             float64      `json:"totalCargo"`
	MailKg              float64      `json:"totalMail"`
	Legs                StatusCounts `json:"legs"`
	FerryLegs           int          `json:"ferryLegs"`
}

// Accumulator returns the totals viewed as a single accumulator.
func (t Totals) Accumulator() Accumulator {
	return Accumulator{
		Flights:           t.Flights,
		Passengers:        t.Passengers,
		Seats:             t.Seats,
		PassengersForLoad: t.PassengersForLoad,
		DelayMinutesTotal: t.DelayMinutesTotal,
		DelaySamples:      t.DelaySamples,
		OnTime:            t.OnTime,
	}
}

// Config contains aggregator configuration.
type Config struct {
	// Period bounds the pass. Records dated outside it are counted in
	// Result.OutOfRange and otherwise ignored. A zero Period accepts all.
	Period period.Period

	// Location is the airport time zone used for hour-of-day buckets.
	// Default: UTC.
	Location *time.Location

	// TrackDelayPercentiles keeps every delay sample so the report can
	// compute percentiles. Costs one int per delay-eligible leg.
	// Default: false.
	TrackDelayPercentiles bool
}

// Result is the bundle produced by one pass.
type Result struct {
	Totals Totals

	Routes         *Table[string]
	Airlines       *Table[string]
	OperationTypes *Table[string]
	Days           *Table[string]
	Months         *Table[string]
	Quarters       *Table[string]
	Years          *Table[string]

	// Hours is keyed by local hour of day (0-23) and updated per leg.
	Hours *Table[int]

	// AirlineInfo maps an airline key to the first airline seen under it.
	AirlineInfo map[string]flight.Airline

	// DelaySamples holds every delay sample in ascending order when
	// Config.TrackDelayPercentiles is set.
	DelaySamples []int

	// OutOfRange counts records dated outside Config.Period.
	OutOfRange int

	// UntimedLegs counts legs with no scheduled or actual time; they are
	// missing from Hours but present everywhere else.
	UntimedLegs int
}

// Group returns the table for a named dimension, or nil.
func (r *Result) Group(name DimensionName) *Table[string] {
	switch name {
	case DimRoute:
		return r.Routes
	case DimAirline:
		return r.Airlines
	case DimOperationType:
		return r.OperationTypes
	case DimDay:
		return r.Days
	case DimMonth:
		return r.Months
	case DimQuarter:
		return r.Quarters
	case DimYear:
		return r.Years
	default:
		return nil
	}
}
