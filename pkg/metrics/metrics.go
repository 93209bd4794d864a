// Package metrics holds the per-record derivations the aggregation engine
// is built on: passenger counts with ferry zeroing, leg count, seats per
// leg, delay minutes and the on-time test, plus the null-safe rate helpers
// every report uses.
//
// All functions are pure. The same record always yields the same values.
package metrics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/0xmhha/flightops/pkg/flight"
)

// OnTimeThresholdMinutes is the largest delay still counted as on time.
const OnTimeThresholdMinutes = 15

// ArrivalPassengers returns arrival passengers, zero for a ferry-in leg.
func ArrivalPassengers(rec *flight.Record) int {
	if rec.ArrivalFerryIn {
		return 0
	}
	return deref(rec.ArrivalPassengers)
}

// DeparturePassengers returns departure passengers, zero for a ferry-out leg.
func DeparturePassengers(rec *flight.Record) int {
	if rec.DepartureFerryOut {
		return 0
	}
	return deref(rec.DeparturePassengers)
}

// Passengers returns the record's revenue passengers over both legs.
func Passengers(rec *flight.Record) int {
	return ArrivalPassengers(rec) + DeparturePassengers(rec)
}

// LegCount returns 0, 1 or 2 depending on which flight numbers are present.
func LegCount(rec *flight.Record) int {
	n := 0
	if rec.HasArrival() {
		n++
	}
	if rec.HasDeparture() {
		n++
	}
	return n
}

// SeatsPerLeg returns AvailableSeats, else AircraftTypeSeats, else 0.
func SeatsPerLeg(rec *flight.Record) int {
	if rec.AvailableSeats != nil {
		return *rec.AvailableSeats
	}
	return deref(rec.AircraftTypeSeats)
}

// ArrivalSeats returns the seats offered on the arrival leg; ferry and
// missing legs offer none.
func ArrivalSeats(rec *flight.Record) int {
	if !rec.HasArrival() || rec.ArrivalFerryIn {
		return 0
	}
	return SeatsPerLeg(rec)
}

// DepartureSeats returns the seats offered on the departure leg.
func DepartureSeats(rec *flight.Record) int {
	if !rec.HasDeparture() || rec.DepartureFerryOut {
		return 0
	}
	return SeatsPerLeg(rec)
}

// DelayMinutes returns the delay between scheduled and actual, in whole
// minutes rounded half up and floored at zero. Nil if either time is missing.
func DelayMinutes(scheduled, actual *time.Time) *int {
	if scheduled == nil || actual == nil {
		return nil
	}

	minutes := actual.Sub(*scheduled).Minutes()
	d := int(math.Floor(minutes + 0.5))
	if d < 0 {
		d = 0
	}
	return &d
}

// ArrivalDelay returns the arrival leg delay, nil for a cancelled leg.
func ArrivalDelay(rec *flight.Record) *int {
	if rec.ArrivalStatus == flight.StatusCancelled {
		return nil
	}
	return DelayMinutes(rec.ArrivalScheduledTime, rec.ArrivalActualTime)
}

// DepartureDelay returns the departure leg delay, nil for a cancelled leg.
func DepartureDelay(rec *flight.Record) *int {
	if rec.DepartureStatus == flight.StatusCancelled {
		return nil
	}
	return DelayMinutes(rec.DepartureScheduledTime, rec.DepartureActualTime)
}

// IsOnTime reports whether a delay sample exists and is within the threshold.
func IsOnTime(delay *int) bool {
	return delay != nil && *delay <= OnTimeThresholdMinutes
}

// Rate returns num/den as a percentage rounded to 2 dp, or nil when den is
// not positive.
func Rate(num, den float64) *float64 {
	if den <= 0 {
		return nil
	}
	return Round2(num / den * 100)
}

// Average returns total/count rounded to 2 dp, or nil when count is zero.
func Average(total float64, count int) *float64 {
	if count <= 0 {
		return nil
	}
	return Round2(total / float64(count))
}

// Round2 rounds v to two decimal places, half away from zero.
// Non-finite input yields nil.
func Round2(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := decimal.NewFromFloat(v).Round(2).InexactFloat64()
	return &r
}

// Round2Value is Round2 for values known to be finite.
func Round2Value(v float64) float64 {
	if r := Round2(v); r != nil {
		return *r
	}
	return 0
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
