package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/flightops/pkg/analytics"
	"github.com/0xmhha/flightops/pkg/comparison"
	"github.com/0xmhha/flightops/pkg/report"
)

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

var groupHeader = []string{"Key", "Label", "Flights", "Passengers", "Seats", "LF", "Avg Pax", "On-time", "Avg Delay"}

// FormatReport implements Formatter.FormatReport.
func (f *tableFormatter) FormatReport(w io.Writer, r *report.PeriodReport) error {
	if err := writeHeader(w, "Airport Report "+r.Period.String(), f.config.Compact); err != nil {
		return err
	}

	t := r.Totals
	summary := [][]string{
		{"Records", formatNumber(t.Records)},
		{"Flights", fmt.Sprintf("%s (%s arr / %s dep)", formatNumber(t.Flights), formatNumber(t.ArrivalFlights), formatNumber(t.DepartureFlights))},
		{"Passengers", fmt.Sprintf("%s (%s arr / %s dep)", formatNumber(t.TotalPassengers), formatNumber(t.ArrivalPassengers), formatNumber(t.DeparturePassengers))},
		{"Seats", formatNumber(t.TotalSeats)},
		{"Load Factor", formatOptional(r.LoadFactor.Overall, "%")},
		{"On-time Rate", formatOptional(r.Punctuality.OverallOnTimeRate, "%")},
		{"Avg Delay", formatOptional(r.Punctuality.OverallAvgDelayMinutes, " min")},
		{"P50 / P95 Delay", formatOptional(r.Punctuality.P50DelayMinutes, " min") + " / " + formatOptional(r.Punctuality.P95DelayMinutes, " min")},
		{"Baggage / Cargo / Mail", fmt.Sprintf("%s / %s / %s kg", formatFloat(t.TotalBaggage, 1), formatFloat(t.TotalCargo, 1), formatFloat(t.TotalMail, 1))},
		{"Ferry Legs", formatNumber(t.FerryLegs)},
		{"Out-of-range Records", formatNumber(t.OutOfRange)},
	}
	if err := f.writeTable(w, []string{"Metric", "Value"}, summary); err != nil {
		return err
	}

	series := r.Daily
	title := "Daily"
	if r.LoadFactor.Granularity == report.GranularityMonth {
		series, title = r.Monthly, "Monthly"
	}
	if err := f.section(w, title+" Breakdown", []string{"Bucket", "Flights", "Passengers", "Seats", "LF", "On-time", "Avg Delay"}, bucketRows(series)); err != nil {
		return err
	}

	s := r.StatusBreakdown
	status := [][]string{
		{"Operated", formatNumber(s.OperatedLegs), formatOptional(s.OperatedRate, "%")},
		{"Cancelled", formatNumber(s.CancelledLegs), formatOptional(s.CancelledRate, "%")},
		{"Diverted", formatNumber(s.DivertedLegs), formatOptional(s.DivertedRate, "%")},
		{"Scheduled", formatNumber(s.ScheduledLegs), formatOptional(s.ScheduledRate, "%")},
	}
	if err := f.section(w, "Leg Status", []string{"Status", "Legs", "Share"}, status); err != nil {
		return err
	}

	rankings := []struct {
		title string
		rows  []report.GroupRow
	}{
		{"Top Routes by Passengers", r.Routes.TopByPassengers},
		{"Top Routes by Load Factor", r.Routes.TopByLoadFactor},
		{"Most Delayed Routes", r.Routes.MostDelayed},
		{"Least Delayed Routes", r.Routes.LeastDelayed},
		{"Lowest Average Passengers", r.Routes.LowestAvgPassengers},
	}
	for _, rk := range rankings {
		if err := f.section(w, rk.title, groupHeader, f.groupRows(rk.rows)); err != nil {
			return err
		}
	}

	if err := f.section(w, "Airlines", groupHeader, f.groupRows(r.ByAirline)); err != nil {
		return err
	}
	if err := f.section(w, "Operation Types", groupHeader, f.groupRows(r.ByOperationType)); err != nil {
		return err
	}

	peakDays := make([][]string, len(r.PeakDays))
	for i, d := range r.PeakDays {
		peakDays[i] = []string{d.Date, formatNumber(d.Passengers), formatNumber(d.Flights)}
	}
	if err := f.section(w, "Peak Days", []string{"Date", "Passengers", "Flights"}, peakDays); err != nil {
		return err
	}

	peakHours := make([][]string, len(r.PeakHours))
	for i, h := range r.PeakHours {
		peakHours[i] = []string{fmt.Sprintf("%02d:00", h.Hour), formatNumber(h.Passengers), formatNumber(h.Flights)}
	}
	return f.section(w, "Peak Hours", []string{"Hour", "Passengers", "Flights"}, peakHours)
}

// FormatComparison implements Formatter.FormatComparison.
func (f *tableFormatter) FormatComparison(w io.Writer, c *comparison.Comparison) error {
	title := fmt.Sprintf("Comparison %s vs %s", c.Current, c.Previous)
	if err := writeHeader(w, title, f.config.Compact); err != nil {
		return err
	}

	rows := make([][]string, 0, len(comparison.Metrics))
	for _, m := range comparison.Metrics {
		ch, ok := c.Metrics[m]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			string(m),
			formatOptional(ch.Current, ""),
			formatOptional(ch.Previous, ""),
			formatGrowth(ch.GrowthPercent),
		})
	}

	return f.writeTable(w, []string{"Metric", "Current", "Previous", "Growth"}, rows)
}

// FormatMultiComparison implements Formatter.FormatMultiComparison.
func (f *tableFormatter) FormatMultiComparison(w io.Writer, mc *comparison.MultiComparison) error {
	for _, c := range mc.Trend {
		if err := f.FormatComparison(w, c); err != nil {
			return err
		}
	}

	header := []string{"Key", "Label", "Total Pax"}
	for _, p := range mc.Periods {
		header = append(header, p.String())
	}

	if err := f.section(w, "Routes in Every Period", header, f.entityRows(mc.CommonRoutes)); err != nil {
		return err
	}
	return f.section(w, "Airlines in Every Period", header, f.entityRows(mc.CommonAirlines))
}

// FormatCustom implements Formatter.FormatCustom.
func (f *tableFormatter) FormatCustom(w io.Writer, cr *analytics.CustomReport) error {
	title := fmt.Sprintf("Custom Report %s by %s", cr.Period, cr.GroupBy)
	if err := writeHeader(w, title, f.config.Compact); err != nil {
		return err
	}
	return f.writeTable(w, groupHeader, f.groupRows(cr.Rows))
}

// section writes a titled table.
func (f *tableFormatter) section(w io.Writer, title string, header []string, rows [][]string) error {
	if err := writeHeader(w, title, f.config.Compact); err != nil {
		return err
	}
	return f.writeTable(w, header, rows)
}

func (f *tableFormatter) limit(n int) int {
	if f.config.MaxRows > 0 && n > f.config.MaxRows {
		return f.config.MaxRows
	}
	return n
}

func (f *tableFormatter) groupRows(rows []report.GroupRow) [][]string {
	out := make([][]string, f.limit(len(rows)))
	for i := range out {
		g := rows[i]
		out[i] = []string{
			g.Key,
			g.Label,
			formatNumber(g.Flights),
			formatNumber(g.Passengers),
			formatNumber(g.Seats),
			formatOptional(g.LoadFactor, "%"),
			formatOptional(g.AvgPassengers, ""),
			formatOptional(g.OnTimeRate, "%"),
			formatOptional(g.AvgDelayMinutes, " min"),
		}
	}
	return out
}

// entityRows renders one passengers cell per period.
func (f *tableFormatter) entityRows(rows []comparison.EntityRow) [][]string {
	out := make([][]string, f.limit(len(rows)))
	for i := range out {
		e := rows[i]
		row := []string{e.Key, e.Label, formatNumber(e.TotalPassengers)}
		for _, p := range e.Periods {
			row = append(row, formatNumber(p.Passengers)+" / LF "+formatOptional(p.LoadFactor, "%"))
		}
		out[i] = row
	}
	return out
}

func bucketRows(buckets []report.Bucket) [][]string {
	out := make([][]string, len(buckets))
	for i, b := range buckets {
		out[i] = []string{
			b.Key,
			formatNumber(b.Flights),
			formatNumber(b.Passengers),
			formatNumber(b.Seats),
			formatOptional(b.LoadFactor, "%"),
			formatOptional(b.OnTimeRate, "%"),
			formatOptional(b.AvgDelayMinutes, " min"),
		}
	}
	return out
}

// writeTable writes a formatted table.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		separator := make([]string, len(header))
		for i, width := range widths {
			separator[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, separator, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	return nil
}

// writeRow writes a single table row.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(gap)
		}
		if i == len(cells)-1 {
			b.WriteString(cell)
			break
		}
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
	}

	_, err := fmt.Fprintln(w, b.String())
	return err
}
