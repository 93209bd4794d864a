package display

import (
	"fmt"
	"io"

	"github.com/0xmhha/flightops/pkg/analytics"
	"github.com/0xmhha/flightops/pkg/comparison"
	"github.com/0xmhha/flightops/pkg/report"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatReport implements Formatter.FormatReport.
func (f *simpleFormatter) FormatReport(w io.Writer, r *report.PeriodReport) error {
	_, err := fmt.Fprintf(w, "%s | Flights: %s | Passengers: %s | LF: %s | On-time: %s | Avg delay: %s\n",
		r.Period,
		formatNumber(r.Totals.Flights),
		formatNumber(r.Totals.TotalPassengers),
		formatOptional(r.LoadFactor.Overall, "%"),
		formatOptional(r.Punctuality.OverallOnTimeRate, "%"),
		formatOptional(r.Punctuality.OverallAvgDelayMinutes, "m"))
	return err
}

// FormatComparison implements Formatter.FormatComparison.
func (f *simpleFormatter) FormatComparison(w io.Writer, c *comparison.Comparison) error {
	_, err := fmt.Fprintf(w, "%s vs %s | Flights: %s | Passengers: %s | LF: %s\n",
		c.Current,
		c.Previous,
		formatGrowth(c.Metrics[comparison.MetricFlights].GrowthPercent),
		formatGrowth(c.Metrics[comparison.MetricPassengers].GrowthPercent),
		formatGrowth(c.Metrics[comparison.MetricLoadFactor].GrowthPercent))
	return err
}

// FormatMultiComparison implements Formatter.FormatMultiComparison.
func (f *simpleFormatter) FormatMultiComparison(w io.Writer, mc *comparison.MultiComparison) error {
	for _, c := range mc.Trend {
		if err := f.FormatComparison(w, c); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Common routes: %d | Common airlines: %d\n",
		len(mc.CommonRoutes), len(mc.CommonAirlines))
	return err
}

// FormatCustom implements Formatter.FormatCustom.
func (f *simpleFormatter) FormatCustom(w io.Writer, cr *analytics.CustomReport) error {
	for _, row := range cr.Rows {
		if _, err := fmt.Fprintf(w, "%s: %s flights, %s passengers (LF: %s)\n",
			row.Key,
			formatNumber(row.Flights),
			formatNumber(row.Passengers),
			formatOptional(row.LoadFactor, "%")); err != nil {
			return err
		}
	}
	return nil
}
