package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/0xmhha/flightops/pkg/analytics"
	"github.com/0xmhha/flightops/pkg/display"
	"github.com/0xmhha/flightops/pkg/flight"
)

// app holds state shared by every command.
type app struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "flightops",
		Short: "Airport operations reporting",
		Long: `flightops aggregates flight-leg records into airport operations reports:
traffic totals, load factor, punctuality, route rankings, leg status and
peak days and hours, plus comparisons between periods.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to configuration file")

	root.AddCommand(
		a.reportCmd(),
		a.compareCmd(),
		a.customCmd(),
		a.watchCmd(),
		a.configCmd(),
	)

	return root
}

// queryFlags are the request and output flags shared by report commands.
type queryFlags struct {
	from          string
	to            string
	airlines      []string
	routes        []string
	operationType string

	format  string
	compact bool
	maxRows int
}

func (q *queryFlags) registerRange(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.from, "from", "", "first day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.to, "to", "", "last day of the period (YYYY-MM-DD)")
}

func (q *queryFlags) registerFilter(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&q.airlines, "airline", nil, "airline code to include (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&q.routes, "route", nil, "route to include, e.g. BEG-CDG (repeatable or comma-separated)")
	cmd.Flags().StringVar(&q.operationType, "operation-type", "", "operation type id, or ALL")
}

func (q *queryFlags) registerOutput(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&q.format, "format", "f", "auto", "output format: table, json, simple, auto")
	cmd.Flags().BoolVar(&q.compact, "compact", false, "compact output")
	cmd.Flags().IntVar(&q.maxRows, "max-rows", 0, "limit rows per table section (0 = all)")
}

func (q *queryFlags) filter() flight.Filter {
	return flight.Filter{
		AirlineCodes:    q.airlines,
		Routes:          q.routes,
		OperationTypeID: q.operationType,
	}
}

func (q *queryFlags) request(groupBy string) analytics.Request {
	return analytics.Request{
		From:    q.from,
		To:      q.to,
		Filter:  q.filter(),
		GroupBy: groupBy,
	}
}

// formatter resolves --format against the command's output.
func (q *queryFlags) formatter(out io.Writer) (display.Formatter, error) {
	file, _ := out.(*os.File)
	format, err := display.ResolveFormat(q.format, file)
	if err != nil {
		return nil, err
	}
	return display.New(display.Config{
		Format:  format,
		Compact: q.compact,
		MaxRows: q.maxRows,
	}), nil
}

var errBadPeriodFlag = errors.New("period must be FROM:TO, e.g. 2024-01-01:2024-01-31")

// parsePeriodFlag splits "from:to" or "from..to".
func parsePeriodFlag(s string) (analytics.Request, error) {
	from, to, ok := strings.Cut(s, "..")
	if !ok {
		from, to, ok = strings.Cut(s, ":")
	}
	if !ok {
		return analytics.Request{}, fmt.Errorf("%w: %q", errBadPeriodFlag, s)
	}
	return analytics.Request{From: strings.TrimSpace(from), To: strings.TrimSpace(to)}, nil
}
