package display

import (
	"encoding/json"
	"io"

	"github.com/0xmhha/flightops/pkg/analytics"
	"github.com/0xmhha/flightops/pkg/comparison"
	"github.com/0xmhha/flightops/pkg/report"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

func (f *jsonFormatter) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if !f.config.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(v)
}

// FormatReport implements Formatter.FormatReport.
func (f *jsonFormatter) FormatReport(w io.Writer, r *report.PeriodReport) error {
	return f.encode(w, r)
}

// FormatComparison implements Formatter.FormatComparison.
func (f *jsonFormatter) FormatComparison(w io.Writer, c *comparison.Comparison) error {
	return f.encode(w, c)
}

// FormatMultiComparison implements Formatter.FormatMultiComparison.
func (f *jsonFormatter) FormatMultiComparison(w io.Writer, mc *comparison.MultiComparison) error {
	return f.encode(w, mc)
}

// FormatCustom implements Formatter.FormatCustom.
func (f *jsonFormatter) FormatCustom(w io.Writer, cr *analytics.CustomReport) error {
	return f.encode(w, cr)
}
