package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xmhha/flightops/pkg/analytics"
	"github.com/0xmhha/flightops/pkg/period"
)

func (a *app) reportCmd() *cobra.Command {
	q := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the report of one period",
		Long: `Build the full operations report of one period: totals, daily or monthly
breakdown, load factor, punctuality, route rankings, leg status, airlines,
operation types and peaks.

Examples:
  flightops report --from 2024-06-01 --to 2024-06-30
  flightops report --from 2024-01-01 --to 2024-12-31 --airline JU --format json
  flightops report --from 2024-06-01 --to 2024-06-30 --route BEG-CDG,BEG-ZRH`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := q.formatter(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			rt, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close() // nolint:errcheck

			r, err := rt.reporter.Report(cmd.Context(), q.request(""))
			if err != nil {
				return err
			}
			return f.FormatReport(cmd.OutOrStdout(), r)
		},
	}

	q.registerRange(cmd)
	q.registerFilter(cmd)
	q.registerOutput(cmd)
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// Baselines for compare without --period.
const (
	againstPrevious = "previous"
	againstYearAgo  = "year-ago"
)

var errUnknownBaseline = errors.New("--against must be previous or year-ago")

func (a *app) compareCmd() *cobra.Command {
	q := &queryFlags{}
	var (
		periods []string
		against string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two or more periods",
		Long: `Compare periods. Give --from/--to to compare one period with a baseline
(the preceding window of equal length, or the same dates a year earlier),
or give --period two or more times, oldest first.

Examples:
  flightops compare --from 2024-06-01 --to 2024-06-30
  flightops compare --from 2024-06-01 --to 2024-06-30 --against year-ago
  flightops compare --period 2024-04-01:2024-04-30 --period 2024-05-01:2024-05-31 --period 2024-06-01:2024-06-30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs, err := compareRequests(q, periods, against)
			if err != nil {
				return err
			}

			f, err := q.formatter(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			rt, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close() // nolint:errcheck

			if len(reqs) == 2 {
				c, err := rt.reporter.Compare(cmd.Context(), reqs[1], reqs[0])
				if err != nil {
					return err
				}
				return f.FormatComparison(cmd.OutOrStdout(), c)
			}

			mc, err := rt.reporter.CompareMany(cmd.Context(), reqs...)
			if err != nil {
				return err
			}
			return f.FormatMultiComparison(cmd.OutOrStdout(), mc)
		},
	}

	q.registerRange(cmd)
	q.registerFilter(cmd)
	q.registerOutput(cmd)
	cmd.Flags().StringArrayVar(&periods, "period", nil, "period FROM:TO, repeat for each period (oldest first)")
	cmd.Flags().StringVar(&against, "against", againstPrevious, "baseline without --period: previous or year-ago")
	cmd.MarkFlagsMutuallyExclusive("period", "from")
	cmd.MarkFlagsMutuallyExclusive("period", "to")

	return cmd
}

// compareRequests returns the compared requests in chronological order.
func compareRequests(q *queryFlags, periods []string, against string) ([]analytics.Request, error) {
	filter := q.filter()

	if len(periods) > 0 {
		reqs := make([]analytics.Request, 0, len(periods))
		for _, s := range periods {
			req, err := parsePeriodFlag(s)
			if err != nil {
				return nil, err
			}
			req.Filter = filter
			reqs = append(reqs, req)
		}
		if len(reqs) < 2 {
			return nil, fmt.Errorf("--period given once: at least two periods are needed")
		}
		return reqs, nil
	}

	current := q.request("")
	p, err := current.Period()
	if err != nil {
		return nil, err
	}

	var base period.Period
	switch against {
	case againstPrevious:
		base = period.Previous(p)
	case againstYearAgo:
		base = period.YearAgo(p)
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownBaseline, against)
	}

	previous := analytics.Request{
		From:   period.DayKey(base.From),
		To:     period.DayKey(base.To),
		Filter: filter,
	}
	return []analytics.Request{previous, current}, nil
}

func (a *app) customCmd() *cobra.Command {
	q := &queryFlags{}
	var groupBy string

	cmd := &cobra.Command{
		Use:   "custom",
		Short: "Build a single-dimension report",
		Long: `Group one period by a single dimension: day, airline, route or operationType.

Examples:
  flightops custom --from 2024-06-01 --to 2024-06-30 --group-by airline
  flightops custom --from 2024-06-01 --to 2024-06-07 --group-by day --route BEG-CDG`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := q.formatter(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			rt, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close() // nolint:errcheck

			cr, err := rt.reporter.Custom(cmd.Context(), q.request(groupBy))
			if err != nil {
				return err
			}
			return f.FormatCustom(cmd.OutOrStdout(), cr)
		},
	}

	q.registerRange(cmd)
	q.registerFilter(cmd)
	q.registerOutput(cmd)
	cmd.Flags().StringVarP(&groupBy, "group-by", "g", "", "dimension: day, airline, route, operationType")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("group-by")

	return cmd
}
