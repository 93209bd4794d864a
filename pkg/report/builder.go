package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/0xmhha/flightops/pkg/aggregator"
	"github.com/0xmhha/flightops/pkg/metrics"
	"github.com/0xmhha/flightops/pkg/period"
)

// Builder turns aggregation results into PeriodReports.
type Builder struct {
	config Config
}

// NewBuilder creates a builder, filling unset fields with defaults.
func NewBuilder(cfg Config) *Builder {
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.MinRouteFlights <= 0 {
		cfg.MinRouteFlights = DefaultMinRouteFlights
	}
	if cfg.Granularity == "" {
		cfg.Granularity = GranularityAuto
	}
	if cfg.AutoDailyMaxDays <= 0 {
		cfg.AutoDailyMaxDays = DefaultAutoDailyMaxDays
	}
	return &Builder{config: cfg}
}

// ParseGranularity validates a granularity name.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case GranularityDay, GranularityMonth, GranularityAuto:
		return g, nil
	case "":
		return GranularityAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
	}
}

// Build produces the report for period p from one aggregation pass over it.
//
// Calendar breakdowns cover every bucket of p, zero-filled where no record
// fell. With no records every rate is nil and every count zero.
func (b *Builder) Build(p period.Period, res *aggregator.Result) *PeriodReport {
	totals := res.Totals.Accumulator()
	gran := b.resolve(p)

	r := &PeriodReport{
		Period:    p,
		Totals:    buildTotals(res),
		Daily:     buckets(p.Days(), res.Days),
		Monthly:   buckets(p.Months(), res.Months),
		Quarterly: buckets(p.Quarters(), res.Quarters),
		Yearly:    buckets(p.Years(), res.Years),
	}

	series := r.Daily
	if gran == GranularityMonth {
		series = r.Monthly
	}

	r.LoadFactor = LoadFactor{
		Overall:         totals.LoadFactor(),
		TotalPassengers: totals.PassengersForLoad,
		TotalSeats:      totals.Seats,
		Granularity:     gran,
		ByBucket:        loadFactorSeries(series, gran, res),
	}

	r.Punctuality = Punctuality{
		OverallOnTimeRate:      totals.OnTimeRate(),
		OverallAvgDelayMinutes: totals.AvgDelayMinutes(),
		TotalDelaySamples:      totals.DelaySamples,
		OnTimeSamples:          totals.OnTime,
		P50DelayMinutes:        quantile(0.50, res.DelaySamples),
		P95DelayMinutes:        quantile(0.95, res.DelaySamples),
		Granularity:            gran,
		ByBucket:               punctualitySeries(series, gran, res),
	}

	r.ByRoute = rows(res.Routes, b.config.Routes.Label)
	r.Routes = b.rank(r.ByRoute)
	r.StatusBreakdown = statusBreakdown(res.Totals.Legs)
	r.PeakDays = b.peakDays(res.Days)
	r.PeakHours = b.peakHours(res.Hours)
	r.ByAirline = rows(res.Airlines, func(key string) string {
		return res.AirlineInfo[key].Name
	})
	r.ByOperationType = rows(res.OperationTypes, nil)

	return r
}

// GroupBy builds the single-dimension table for a custom report.
//
// Day rows cover every day of p. Other dimensions list keys in the order
// they were first seen.
func (b *Builder) GroupBy(p period.Period, res *aggregator.Result, dim aggregator.DimensionName) ([]GroupRow, error) {
	switch dim {
	case aggregator.DimDay:
		return lo.Map(p.Days(), func(key string, _ int) GroupRow {
			return row(key, "", res.Days.Get(key))
		}), nil
	case aggregator.DimRoute:
		return rows(res.Routes, b.config.Routes.Label), nil
	case aggregator.DimAirline:
		return rows(res.Airlines, func(key string) string {
			return res.AirlineInfo[key].Name
		}), nil
	case aggregator.DimOperationType:
		return rows(res.OperationTypes, nil), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDimension, dim)
	}
}

// ParseDimension validates a custom report dimension.
func ParseDimension(s string) (aggregator.DimensionName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day":
		return aggregator.DimDay, nil
	case "airline":
		return aggregator.DimAirline, nil
	case "route":
		return aggregator.DimRoute, nil
	case "operationtype", "operation_type", "operation-type":
		return aggregator.DimOperationType, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
	}
}

func (b *Builder) resolve(p period.Period) Granularity {
	switch b.config.Granularity {
	case GranularityDay, GranularityMonth:
		return b.config.Granularity
	default:
		if p.Len() <= b.config.AutoDailyMaxDays {
			return GranularityDay
		}
		return GranularityMonth
	}
}

func buildTotals(res *aggregator.Result) Totals {
	t := res.Totals
	return Totals{
		Records:             t.Records,
		Flights:             t.Flights,
		ArrivalFlights:      t.ArrivalFlights,
		DepartureFlights:    t.DepartureFlights,
		TotalPassengers:     t.Passengers,
		ArrivalPassengers:   t.ArrivalPassengers,
		DeparturePassengers: t.DeparturePassengers,
		TotalSeats:          t.Seats,
		TotalBaggage:        metrics.Round2Value(t.BaggageKg),
		TotalCargo:          metrics.Round2Value(t.CargoKg),
		TotalMail:           metrics.Round2Value(t.MailKg),
		FerryLegs:           t.FerryLegs,
		OutOfRange:          res.OutOfRange,
	}
}

func buckets(keys []string, table *aggregator.Table[string]) []Bucket {
	out := make([]Bucket, 0, len(keys))
	for _, key := range keys {
		acc := table.Get(key)
		out = append(out, Bucket{
			Key:             key,
			Flights:         acc.Flights,
			Passengers:      acc.Passengers,
			Seats:           acc.Seats,
			LoadFactor:      acc.LoadFactor(),
			OnTimeRate:      acc.OnTimeRate(),
			AvgDelayMinutes: acc.AvgDelayMinutes(),
		})
	}
	return out
}

func seriesTable(gran Granularity, res *aggregator.Result) *aggregator.Table[string] {
	if gran == GranularityMonth {
		return res.Months
	}
	return res.Days
}

func loadFactorSeries(series []Bucket, gran Granularity, res *aggregator.Result) []LoadFactorItem {
	table := seriesTable(gran, res)
	return lo.Map(series, func(bkt Bucket, _ int) LoadFactorItem {
		acc := table.Get(bkt.Key)
		return LoadFactorItem{
			Key:        bkt.Key,
			Passengers: acc.PassengersForLoad,
			Seats:      acc.Seats,
			LoadFactor: bkt.LoadFactor,
		}
	})
}

func punctualitySeries(series []Bucket, gran Granularity, res *aggregator.Result) []PunctualityItem {
	table := seriesTable(gran, res)
	return lo.Map(series, func(bkt Bucket, _ int) PunctualityItem {
		return PunctualityItem{
			Key:             bkt.Key,
			DelaySamples:    table.Get(bkt.Key).DelaySamples,
			OnTimeRate:      bkt.OnTimeRate,
			AvgDelayMinutes: bkt.AvgDelayMinutes,
		}
	})
}

func row(key, label string, acc aggregator.Accumulator) GroupRow {
	return GroupRow{
		Key:             key,
		Label:           label,
		Flights:         acc.Flights,
		Passengers:      acc.Passengers,
		Seats:           acc.Seats,
		LoadFactor:      acc.LoadFactor(),
		AvgPassengers:   acc.AvgPassengers(),
		DelaySamples:    acc.DelaySamples,
		AvgDelayMinutes: acc.AvgDelayMinutes(),
		OnTimeRate:      acc.OnTimeRate(),
	}
}

func rows(table *aggregator.Table[string], label func(string) string) []GroupRow {
	out := make([]GroupRow, 0, table.Len())
	table.Each(func(key string, acc aggregator.Accumulator) {
		l := ""
		if label != nil {
			l = label(key)
		}
		out = append(out, row(key, l, acc))
	})
	return out
}

func statusBreakdown(legs aggregator.StatusCounts) StatusBreakdown {
	total := float64(legs.Total())
	return StatusBreakdown{
		TotalLegs:     legs.Total(),
		OperatedLegs:  legs.Operated,
		CancelledLegs: legs.Cancelled,
		DivertedLegs:  legs.Diverted,
		ScheduledLegs: legs.Scheduled,
		OperatedRate:  metrics.Rate(float64(legs.Operated), total),
		CancelledRate: metrics.Rate(float64(legs.Cancelled), total),
		DivertedRate:  metrics.Rate(float64(legs.Diverted), total),
		ScheduledRate: metrics.Rate(float64(legs.Scheduled), total),
	}
}

func (b *Builder) peakDays(days *aggregator.Table[string]) []PeakDay {
	out := make([]PeakDay, 0, days.Len())
	days.Each(func(key string, acc aggregator.Accumulator) {
		out = append(out, PeakDay{Date: key, Passengers: acc.Passengers, Flights: acc.Flights})
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Passengers > out[j].Passengers
	})
	return top(out, b.config.TopN)
}

func (b *Builder) peakHours(hours *aggregator.Table[int]) []PeakHour {
	out := make([]PeakHour, 0, hours.Len())
	hours.Each(func(hour int, acc aggregator.Accumulator) {
		out = append(out, PeakHour{Hour: hour, Passengers: acc.Passengers, Flights: acc.Flights})
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Passengers > out[j].Passengers
	})
	return top(out, b.config.TopN)
}

// quantile returns the p-quantile of ascending samples, nil when empty.
func quantile(p float64, samples []int) *float64 {
	if len(samples) == 0 {
		return nil
	}
	x := lo.Map(samples, func(v int, _ int) float64 { return float64(v) })
	return metrics.Round2(stat.Quantile(p, stat.Empirical, x, nil))
}

func top[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
