// Package report shapes one aggregation pass into a PeriodReport: calendar
// breakdowns, load factor and punctuality series, route rankings, status
// distribution, peak days and hours, and airline and operation-type tables.
//
// The builder only reads the aggregator.Result it is given and keeps no
// reference to it or to the returned report.
package report

import (
	"github.com/0xmhha/flightops/pkg/period"
)

// Granularity selects the bucket size of the load factor and punctuality series.
type Granularity string

// Supported granularities.
const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
	GranularityAuto  Granularity = "auto"
)

// Default builder settings.
const (
	DefaultTopN             = 10
	DefaultMinRouteFlights  = 3
	DefaultAutoDailyMaxDays = 62
)

// RouteDirectory maps a route key to a destination label.
type RouteDirectory map[string]string

// Label returns the destination label for route, or "".
func (d RouteDirectory) Label(route string) string {
	if d == nil {
		return ""
	}
	return d[route]
}

// Config contains builder configuration.
type Config struct {
	// TopN caps every ranking and peak list.
	// Default: 10.
	TopN int

	// MinRouteFlights is the minimum flight count for a route to be ranked.
	// Default: 3.
	MinRouteFlights int

	// Granularity of LoadFactor.ByBucket and Punctuality.ByBucket.
	// Default: auto.
	Granularity Granularity

	// AutoDailyMaxDays is the longest period reported daily under auto.
	// Default: 62.
	AutoDailyMaxDays int

	// Routes resolves destination labels for route rows.
	Routes RouteDirectory
}

// PeriodReport is the finished analytics for one period.
type PeriodReport struct {
	Period period.Period `json:"period"`
	Totals Totals        `json:"totals"`

	Daily     []Bucket `json:"dailyData"`
	Monthly   []Bucket `json:"monthlyBreakdown"`
	Quarterly []Bucket `json:"quarterlyBreakdown"`
	Yearly    []Bucket `json:"yearlyBreakdown"`

	LoadFactor      LoadFactor      `json:"loadFactor"`
	Punctuality     Punctuality     `json:"punctuality"`
	Routes          Rankings        `json:"routes"`
	ByRoute         []GroupRow      `json:"byRoute"`
	StatusBreakdown StatusBreakdown `json:"statusBreakdown"`
	PeakDays        []PeakDay       `json:"peakDays"`
	PeakHours       []PeakHour      `json:"peakHours"`
	ByAirline       []GroupRow      `json:"byAirline"`
	ByOperationType []GroupRow      `json:"byOperationType"`
}

// Totals are whole-period sums.
type Totals struct {
	Records             int     `json:"records"`
	Flights             int     `json:"flights"`
	ArrivalFlights      int     `json:"arrivalFlights"`
	DepartureFlights    int     `json:"departureFlights"`
	TotalPassengers     int     `json:"totalPassengers"`
	ArrivalPassengers   int     `json:"arrivalPassengers"`
	DeparturePassengers int     `json:"departurePassengers"`
	TotalSeats          int     `json:"totalSeats"`
	TotalBaggage        float64 `json:"totalBaggage"`
	TotalCargo          float64 `json:"totalCargo"`
	TotalMail           float64 `json:"totalMail"`
	FerryLegs           int     `json:"ferryLegs"`
	OutOfRange          int     `json:"outOfRange"`
}

// Bucket is one calendar bucket of a breakdown.
type Bucket struct {
	Key             string   `json:"key"`
	Flights         int      `json:"flights"`
	Passengers      int      `json:"passengers"`
	Seats           int      `json:"seats"`
	LoadFactor      *float64 `json:"loadFactor"`
	OnTimeRate      *float64 `json:"onTimeRate"`
	AvgDelayMinutes *float64 `json:"avgDelayMinutes"`
}

// LoadFactor is the seat utilisation summary.
type LoadFactor struct {
	Overall         *float64         `json:"overall"`
	TotalPassengers int              `json:"totalPassengers"`
	TotalSeats      int              `json:"totalSeats"`
	Granularity     Granularity      `json:"granularity"`
	ByBucket        []LoadFactorItem `json:"byBucket"`
}

// LoadFactorItem is the load factor of one bucket.
type LoadFactorItem struct {
	Key        string   `json:"key"`
	Passengers int      `json:"passengers"`
	Seats      int      `json:"seats"`
	LoadFactor *float64 `json:"loadFactor"`
}

// Punctuality is the on-time performance summary.
type Punctuality struct {
	OverallOnTimeRate      *float64          `json:"overallOnTimeRate"`
	OverallAvgDelayMinutes *float64          `json:"overallAvgDelayMinutes"`
	TotalDelaySamples      int               `json:"totalDelaySamples"`
	OnTimeSamples          int               `json:"onTimeSamples"`
	P50DelayMinutes        *float64          `json:"p50DelayMinutes"`
	P95DelayMinutes        *float64          `json:"p95DelayMinutes"`
	Granularity            Granularity       `json:"granularity"`
	ByBucket               []PunctualityItem `json:"byBucket"`
}

// PunctualityItem is the punctuality of one bucket.
type PunctualityItem struct {
	Key             string   `json:"key"`
	DelaySamples    int      `json:"delaySamples"`
	OnTimeRate      *float64 `json:"onTimeRate"`
	AvgDelayMinutes *float64 `json:"avgDelayMinutes"`
}

// GroupRow is one row of a route, airline, operation-type or custom table.
type GroupRow struct {
	Key             string   `json:"key"`
	Label           string   `json:"label,omitempty"`
	Flights         int      `json:"flights"`
	Passengers      int      `json:"passengers"`
	Seats           int      `json:"seats"`
	LoadFactor      *float64 `json:"loadFactor"`
	AvgPassengers   *float64 `json:"avgPassengers"`
	DelaySamples    int      `json:"delaySamples"`
	AvgDelayMinutes *float64 `json:"avgDelayMinutes"`
	OnTimeRate      *float64 `json:"onTimeRate"`
}

// Rankings are the five route rankings.
type Rankings struct {
	TopByPassengers     []GroupRow `json:"topByPassengers"`
	TopByLoadFactor     []GroupRow `json:"topByLoadFactor"`
	MostDelayed         []GroupRow `json:"mostDelayed"`
	LeastDelayed        []GroupRow `json:"leastDelayed"`
	LowestAvgPassengers []GroupRow `json:"lowestAvgPassengers"`
}

// StatusBreakdown counts legs per status.
type StatusBreakdown struct {
	TotalLegs     int      `json:"totalLegs"`
	OperatedLegs  int      `json:"operatedLegs"`
	CancelledLegs int      `json:"cancelledLegs"`
	DivertedLegs  int      `json:"divertedLegs"`
	ScheduledLegs int      `json:"scheduledLegs"`
	OperatedRate  *float64 `json:"operatedRate"`
	CancelledRate *float64 `json:"cancelledRate"`
	DivertedRate  *float64 `json:"divertedRate"`
	ScheduledRate *float64 `json:"scheduledRate"`
}

// PeakDay is one day ranked by passenger volume.
type PeakDay struct {
	Date       string `json:"date"`
	Passengers int    `json:"passengers"`
	Flights    int    `json:"flights"`
}

// PeakHour is one local hour of day ranked by passenger volume.
type PeakHour struct {
	Hour       int `json:"hour"`
	Passengers int `json:"passengers"`
	Flights    int `json:"flights"`
}
