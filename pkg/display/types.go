// Package display renders reports and comparisons.
//
// It supports multiple output formats (table, JSON, simple text). Rates and
// averages that are undefined render as "-" in text formats and as null in
// JSON.
package display

import (
	"errors"
	"io"

	"github.com/0xmhha/flightops/pkg/analytics"
	"github.com/0xmhha/flightops/pkg/comparison"
	"github.com/0xmhha/flightops/pkg/report"
)

// Format represents an output format.
type Format string

const (
	// FormatTable renders aligned text tables.
	FormatTable Format = "table"

	// FormatJSON renders the report structures as JSON.
	FormatJSON Format = "json"

	// FormatSimple renders one summary line per result.
	FormatSimple Format = "simple"

	// FormatAuto picks table on a terminal and JSON otherwise.
	FormatAuto Format = "auto"
)

// ErrUnknownFormat is returned for an unrecognized format name.
var ErrUnknownFormat = errors.New("unknown output format: must be table, json, simple, or auto")

// Formatter renders analytics results.
type Formatter interface {
	// FormatReport renders a single-period report.
	//
	// Parameters:
	//   - w: Output writer
	//   - r: Report to render
	//
	// Returns error if writing fails.
	FormatReport(w io.Writer, r *report.PeriodReport) error

	// FormatComparison renders a two-period comparison.
	FormatComparison(w io.Writer, c *comparison.Comparison) error

	// FormatMultiComparison renders an N-period comparison.
	FormatMultiComparison(w io.Writer, mc *comparison.MultiComparison) error

	// FormatCustom renders a single-dimension report.
	FormatCustom(w io.Writer, cr *analytics.CustomReport) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// Compact enables compact output (less whitespace, no indentation).
	// Default: false.
	Compact bool

	// MaxRows caps table sections such as per-route rows; 0 shows all.
	MaxRows int
}
