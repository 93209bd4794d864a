// Package comparison compares finished period reports: scalar growth
// between two periods, and like-for-like route and airline tables across
// two or more periods.
package comparison

import (
	"errors"
	"sort"

	"github.com/samber/lo"

	"github.com/0xmhha/flightops/pkg/metrics"
	"github.com/0xmhha/flightops/pkg/period"
	"github.com/0xmhha/flightops/pkg/report"
)

var (
	// ErrTooFewPeriods is returned when fewer than two reports are compared.
	ErrTooFewPeriods = errors.New("at least two periods are required")

	// ErrNilReport is returned when a compared report is nil.
	ErrNilReport = errors.New("nil report")
)

// Metric names a compared scalar.
type Metric string

// Compared metrics.
const (
	MetricFlights         Metric = "flights"
	MetricPassengers      Metric = "passengers"
	MetricCargo           Metric = "cargo"
	MetricLoadFactor      Metric = "loadFactor"
	MetricOnTimeRate      Metric = "onTimeRate"
	MetricAvgDelayMinutes Metric = "avgDelayMinutes"
	MetricCancelledRate   Metric = "cancelledRate"
)

// Metrics lists every compared metric in display order.
var Metrics = []Metric{
	MetricFlights,
	MetricPassengers,
	MetricCargo,
	MetricLoadFactor,
	MetricOnTimeRate,
	MetricAvgDelayMinutes,
	MetricCancelledRate,
}

// Change is one metric in both periods plus its growth.
type Change struct {
	Current       *float64 `json:"current"`
	Previous      *float64 `json:"previous"`
	GrowthPercent float64  `json:"growthPercent"`
}

// Comparison is a two-period comparison.
type Comparison struct {
	Current  period.Period     `json:"currentPeriod"`
	Previous period.Period     `json:"previousPeriod"`
	Metrics  map[Metric]Change `json:"metrics"`
}

// Growth returns (current-previous)/previous*100 rounded to 2 dp.
//
// It returns 0 whenever previous is nil, zero or negative, and when current
// is nil. Growth over a non-positive baseline is reported as no growth
// rather than as a signed or infinite value.
func Growth(current, previous *float64) float64 {
	if previous == nil || *previous <= 0 || current == nil {
		return 0
	}
	return metrics.Round2Value((*current - *previous) / *previous * 100)
}

// Compare compares current against previous.
func Compare(current, previous *report.PeriodReport) (*Comparison, error) {
	if current == nil || previous == nil {
		return nil, ErrNilReport
	}

	cur, prev := values(current), values(previous)
	c := &Comparison{
		Current:  current.Period,
		Previous: previous.Period,
		Metrics:  make(map[Metric]Change, len(Metrics)),
	}
	for _, m := range Metrics {
		c.Metrics[m] = Change{
			Current:       cur[m],
			Previous:      prev[m],
			GrowthPercent: Growth(cur[m], prev[m]),
		}
	}
	return c, nil
}

func values(r *report.PeriodReport) map[Metric]*float64 {
	return map[Metric]*float64{
		MetricFlights:         lo.ToPtr(float64(r.Totals.Flights)),
		MetricPassengers:      lo.ToPtr(float64(r.Totals.TotalPassengers)),
		MetricCargo:           lo.ToPtr(r.Totals.TotalCargo),
		MetricLoadFactor:      r.LoadFactor.Overall,
		MetricOnTimeRate:      r.Punctuality.OverallOnTimeRate,
		MetricAvgDelayMinutes: r.Punctuality.OverallAvgDelayMinutes,
		MetricCancelledRate:   r.StatusBreakdown.CancelledRate,
	}
}

// PeriodStats are one entity's figures in one period.
type PeriodStats struct {
	Flights         int      `json:"flights"`
	Passengers      int      `json:"passengers"`
	LoadFactor      *float64 `json:"loadFactor"`
	AvgDelayMinutes *float64 `json:"avgDelayMinutes"`
	OnTimeRate      *float64 `json:"onTimeRate"`
}

// EntityRow is one route or airline present in every compared period.
type EntityRow struct {
	Key             string        `json:"key"`
	Label           string        `json:"label,omitempty"`
	TotalPassengers int           `json:"totalPassengers"`
	Periods         []PeriodStats `json:"periods"`
}

// MultiComparison compares N periods.
type MultiComparison struct {
	Periods        []period.Period `json:"periods"`
	CommonRoutes   []EntityRow     `json:"commonRoutes"`
	CommonAirlines []EntityRow     `json:"commonAirlines"`

	// Trend compares each period with the one before it.
	Trend []*Comparison `json:"trend"`
}

// CompareMany compares two or more reports, given in chronological order.
//
// Common tables hold only keys present in every period, sorted by
// passengers summed across periods, descending, then by key.
func CompareMany(reports ...*report.PeriodReport) (*MultiComparison, error) {
	if len(reports) < 2 {
		return nil, ErrTooFewPeriods
	}
	if lo.Contains(reports, nil) {
		return nil, ErrNilReport
	}

	mc := &MultiComparison{
		Periods: lo.Map(reports, func(r *report.PeriodReport, _ int) period.Period { return r.Period }),
		CommonRoutes: common(lo.Map(reports, func(r *report.PeriodReport, _ int) []report.GroupRow {
			return r.ByRoute
		})),
		CommonAirlines: common(lo.Map(reports, func(r *report.PeriodReport, _ int) []report.GroupRow {
			return r.ByAirline
		})),
	}

	for i := 1; i < len(reports); i++ {
		c, err := Compare(reports[i], reports[i-1])
		if err != nil {
			return nil, err
		}
		mc.Trend = append(mc.Trend, c)
	}

	return mc, nil
}

// common intersects the keys of every table and builds one row per key.
func common(tables [][]report.GroupRow) []EntityRow {
	indexed := lo.Map(tables, func(rows []report.GroupRow, _ int) map[string]report.GroupRow {
		return lo.KeyBy(rows, func(r report.GroupRow) string { return r.Key })
	})

	keys := lo.Map(tables[0], func(r report.GroupRow, _ int) string { return r.Key })
	for _, rows := range tables[1:] {
		keys = lo.Intersect(keys, lo.Map(rows, func(r report.GroupRow, _ int) string { return r.Key }))
	}

	out := make([]EntityRow, 0, len(keys))
	for _, key := range keys {
		row := EntityRow{Key: key, Periods: make([]PeriodStats, 0, len(indexed))}
		for _, idx := range indexed {
			g := idx[key]
			if row.Label == "" {
				row.Label = g.Label
			}
			row.TotalPassengers += g.Passengers
			row.Periods = append(row.Periods, PeriodStats{
				Flights:         g.Flights,
				Passengers:      g.Passengers,
				LoadFactor:      g.LoadFactor,
				AvgDelayMinutes: g.AvgDelayMinutes,
				OnTimeRate:      g.OnTimeRate,
			})
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalPassengers != out[j].TotalPassengers {
			return out[i].TotalPassengers > out[j].TotalPassengers
		}
		return out[i].Key < out[j].Key
	})
	return out
}
