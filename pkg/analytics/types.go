// Package analytics is the calling layer of the reporting engine. It
// validates requests, fetches records for each requested period, runs one
// aggregation pass per period, and shapes reports and comparisons.
//
// Example usage:
//
//	svc := analytics.NewService(st, analytics.Config{Location: loc}, log)
//	r, err := svc.Report(ctx, analytics.Request{From: "2024-06-01", To: "2024-06-30"})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(r.Totals.TotalPassengers, r.LoadFactor.Overall)
package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/0xmhha/flightops/pkg/comparison"
	"github.com/0xmhha/flightops/pkg/flight"
	"github.com/0xmhha/flightops/pkg/period"
	"github.com/0xmhha/flightops/pkg/report"
)

// Request selects the records of one report.
type Request struct {
	// From and To are inclusive ISO calendar dates (YYYY-MM-DD).
	From string `json:"from"`
	To   string `json:"to"`

	Filter flight.Filter `json:"filter"`

	// GroupBy is the dimension of a custom report: day, airline, route
	// or operationType. Ignored by the other operations.
	GroupBy string `json:"groupBy,omitempty"`
}

// Period parses and validates the request's date range.
func (r Request) Period() (period.Period, error) {
	p, err := period.Parse(r.From, r.To)
	if err == nil {
		return p, nil
	}

	field, value := "from", r.From
	if errors.Is(err, period.ErrInvertedRange) {
		field, value = "range", r.From+".."+r.To
	} else if _, fromErr := period.Parse(r.From, r.From); fromErr == nil {
		field, value = "to", r.To
	}
	return period.Period{}, &ValidationError{Field: field, Value: value, Err: err}
}

// CustomReport is a single-dimension report.
type CustomReport struct {
	Period  period.Period     `json:"period"`
	Filter  flight.Filter     `json:"filter"`
	GroupBy string            `json:"groupBy"`
	Rows    []report.GroupRow `json:"rows"`
}

// Reporter produces reports and comparisons.
type Reporter interface {
	// Report builds the report of one period.
	Report(ctx context.Context, req Request) (*report.PeriodReport, error)

	// Compare compares current against previous.
	Compare(ctx context.Context, current, previous Request) (*comparison.Comparison, error)

	// CompareMany compares two or more periods given in chronological order.
	CompareMany(ctx context.Context, reqs ...Request) (*comparison.MultiComparison, error)

	// Custom builds a single-dimension report grouped by req.GroupBy.
	Custom(ctx context.Context, req Request) (*CustomReport, error)
}

// Config contains service configuration.
type Config struct {
	// Report configures the report builder.
	Report report.Config

	// Location is the airport time zone for hour-of-day peaks.
	// Default: UTC.
	Location *time.Location

	// TrackDelayPercentiles enables delay P50/P95.
	TrackDelayPercentiles bool

	// MeterProvider receives the service's counters.
	// Default: the global otel provider.
	MeterProvider metric.MeterProvider
}

// Fingerprint identifies the settings that shape a result: builder
// configuration, time zone and percentile tracking. Equal settings give
// equal fingerprints.
func (c Config) Fingerprint() string {
	loc := time.UTC
	if c.Location != nil {
		loc = c.Location
	}

	data, err := json.Marshal(struct {
		Report                report.Config
		Location              string
		TrackDelayPercentiles bool
	}{c.Report, loc.String(), c.TrackDelayPercentiles})
	if err != nil {
		return ""
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, data).String()[:8]
}

// Common errors returned by the service.
var (
	// ErrFetch wraps record store failures. No report is built when a
	// fetch fails.
	ErrFetch = errors.New("failed to fetch records")

	// ErrMissingGroupBy is returned by Custom without a dimension.
	ErrMissingGroupBy = errors.New("group-by dimension is required")
)

// ValidationError reports an invalid request field.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
