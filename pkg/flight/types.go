// Package flight defines the flight-leg record consumed by the reporting
// engine, the filter applied to record sets, and a JSONL codec for record
// files.
//
// A Record describes one scheduled rotation at the airport: it may carry an
// arrival leg, a departure leg, both, or neither. Leg presence is decided by
// the flight numbers, never by passenger or status fields.
//
// Units: passengers and seats are head counts, weights are kilograms,
// timestamps are absolute instants (time.Time carries the zone).
package flight

import (
	"encoding/json"
	"strings"
	"time"
)

// NoKey is the grouping key used when a record has no usable route or
// airline identifier.
const NoKey = "N/A"

// Status is the operational status of a single leg.
type Status string

// Leg statuses.
const (
	StatusOperated  Status = "OPERATED"
	StatusCancelled Status = "CANCELLED"
	StatusDiverted  Status = "DIVERTED"
	StatusScheduled Status = "SCHEDULED"
)

// Statuses lists every status in reporting order.
var Statuses = []Status{StatusOperated, StatusCancelled, StatusDiverted, StatusScheduled}

// ParseStatus converts free text to a Status. Empty text is SCHEDULED.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OPERATED":
		return StatusOperated, nil
	case "CANCELLED", "CANCELED":
		return StatusCancelled, nil
	case "DIVERTED":
		return StatusDiverted, nil
	case "SCHEDULED", "":
		return StatusScheduled, nil
	default:
		return StatusScheduled, ErrUnknownStatus
	}
}

// OrScheduled maps the zero Status to StatusScheduled.
func (s Status) OrScheduled() Status {
	if s == "" {
		return StatusScheduled
	}
	return s
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized text
// decodes as StatusScheduled.
func (s *Status) UnmarshalText(text []byte) error {
	*s, _ = ParseStatus(string(text))
	return nil
}

// Airline identifies the operating carrier.
type Airline struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// Record is one flight-leg record as supplied by a record store.
//
// Nil pointers mean "not recorded". The engine treats missing numeric
// values as zero and never mutates a Record.
type Record struct {
	// Date is the operating day of the rotation.
	Date time.Time `json:"date"`

	// Route is the route label, e.g. "BEG-CDG". Nil or blank groups as NoKey.
	Route *string `json:"route,omitempty"`

	Airline Airline `json:"airline"`

	// OperationTypeID classifies the rotation (scheduled, charter, ...).
	OperationTypeID string `json:"operationTypeId,omitempty"`

	// A non-nil flight number means the corresponding leg exists.
	ArrivalFlightNumber   *string `json:"arrivalFlightNumber,omitempty"`
	DepartureFlightNumber *string `json:"departureFlightNumber,omitempty"`

	ArrivalPassengers   *int `json:"arrivalPassengers,omitempty"`
	DeparturePassengers *int `json:"departurePassengers,omitempty"`

	// Ferry legs carry no revenue passengers or seats.
	ArrivalFerryIn    bool `json:"arrivalFerryIn"`
	DepartureFerryOut bool `json:"departureFerryOut"`

	// AvailableSeats overrides AircraftTypeSeats when present.
	AvailableSeats    *int `json:"availableSeats,omitempty"`
	AircraftTypeSeats *int `json:"aircraftTypeSeats,omitempty"`

	ArrivalStatus   Status `json:"arrivalStatus"`
	DepartureStatus Status `json:"departureStatus"`

	ArrivalScheduledTime   *time.Time `json:"arrivalScheduledTime,omitempty"`
	ArrivalActualTime      *time.Time `json:"arrivalActualTime,omitempty"`
	DepartureScheduledTime *time.Time `json:"departureScheduledTime,omitempty"`
	DepartureActualTime    *time.Time `json:"departureActualTime,omitempty"`

	ArrivalBaggageKg   *float64 `json:"arrivalBaggageKg,omitempty"`
	ArrivalCargoKg     *float64 `json:"arrivalCargoKg,omitempty"`
	ArrivalMailKg      *float64 `json:"arrivalMailKg,omitempty"`
	DepartureBaggageKg *float64 `json:"departureBaggageKg,omitempty"`
	DepartureCargoKg   *float64 `json:"departureCargoKg,omitempty"`
	DepartureMailKg    *float64 `json:"departureMailKg,omitempty"`

	// unknownStatus is set when decoding fell back to SCHEDULED.
	unknownStatus bool
}

// UnknownStatus reports whether a leg status in the source was not
// recognized and was read as SCHEDULED.
func (r *Record) UnknownStatus() bool {
	return r.unknownStatus
}

// SetStatuses parses both leg statuses from source text. Unrecognized
// text becomes SCHEDULED and marks the record for UnknownStatus.
func (r *Record) SetStatuses(arrival, departure string) {
	var arrErr, depErr error
	r.ArrivalStatus, arrErr = ParseStatus(arrival)
	r.DepartureStatus, depErr = ParseStatus(departure)
	r.unknownStatus = arrErr != nil || depErr != nil
}

// HasArrival reports whether the record carries an arrival leg.
func (r *Record) HasArrival() bool {
	return r.ArrivalFlightNumber != nil && strings.TrimSpace(*r.ArrivalFlightNumber) != ""
}

// HasDeparture reports whether the record carries a departure leg.
func (r *Record) HasDeparture() bool {
	return r.DepartureFlightNumber != nil && strings.TrimSpace(*r.DepartureFlightNumber) != ""
}

// RouteKey returns the trimmed route or NoKey.
func (r *Record) RouteKey() string {
	if r.Route == nil {
		return NoKey
	}
	if route := strings.TrimSpace(*r.Route); route != "" {
		return route
	}
	return NoKey
}

// AirlineKey returns the airline short code, falling back to its name, then NoKey.
func (r *Record) AirlineKey() string {
	if code := strings.TrimSpace(r.Airline.Code); code != "" {
		return code
	}
	if name := strings.TrimSpace(r.Airline.Name); name != "" {
		return name
	}
	return NoKey
}

// OperationTypeKey returns the operation type id or NoKey.
func (r *Record) OperationTypeKey() string {
	if id := strings.TrimSpace(r.OperationTypeID); id != "" {
		return id
	}
	return NoKey
}

// Validate checks the invariants a stored record must satisfy.
//
// Returns an error if:
//   - Date is zero
//   - any passenger, seat or weight value is negative
func (r *Record) Validate() error {
	if r.Date.IsZero() {
		return ErrInvalidDate
	}

	for _, v := range []*int{r.ArrivalPassengers, r.DeparturePassengers, r.AvailableSeats, r.AircraftTypeSeats} {
		if v != nil && *v < 0 {
			return ErrNegativeValue
		}
	}

	for _, v := range []*float64{
		r.ArrivalBaggageKg, r.ArrivalCargoKg, r.ArrivalMailKg,
		r.DepartureBaggageKg, r.DepartureCargoKg, r.DepartureMailKg,
	} {
		if v != nil && *v < 0 {
			return ErrNegativeValue
		}
	}

	return nil
}

// UnmarshalJSON accepts the date either as RFC 3339 or as a plain
// YYYY-MM-DD calendar date (interpreted as UTC midnight). Unknown leg
// statuses decode as SCHEDULED and are flagged by UnknownStatus.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain
		Date            string `json:"date"`
		ArrivalStatus   string `json:"arrivalStatus"`
		DepartureStatus string `json:"departureStatus"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.SetStatuses(aux.ArrivalStatus, aux.DepartureStatus)

	if aux.Date == "" {
		r.Date = time.Time{}
		return nil
	}

	if t, err := time.Parse(time.RFC3339, aux.Date); err == nil {
		r.Date = t
		return nil
	}

	t, err := time.Parse(time.DateOnly, aux.Date)
	if err != nil {
		return ErrInvalidDate
	}
	r.Date = t
	return nil
}
