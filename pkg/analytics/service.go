package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/0xmhha/flightops/pkg/aggregator"
	"github.com/0xmhha/flightops/pkg/comparison"
	"github.com/0xmhha/flightops/pkg/logger"
	"github.com/0xmhha/flightops/pkg/period"
	"github.com/0xmhha/flightops/pkg/report"
	"github.com/0xmhha/flightops/pkg/store"
)

const meterName = "github.com/0xmhha/flightops/pkg/analytics"

// Service is the Reporter backed by a RecordStore.
type Service struct {
	store   store.RecordStore
	builder *report.Builder
	config  Config
	logger  logger.Logger

	reportsTotal      metric.Int64Counter
	recordsAggregated metric.Int64Counter
}

// NewService creates a service reading from st.
func NewService(st store.RecordStore, cfg Config, log logger.Logger) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}
	log = log.Component("analytics")

	s := &Service{
		store:   st,
		builder: report.NewBuilder(cfg.Report),
		config:  cfg,
		logger:  log,
	}

	meter := cfg.MeterProvider.Meter(meterName)

	var err error
	s.reportsTotal, err = meter.Int64Counter(
		"flightops_reports_total",
		metric.WithDescription("Reports and comparisons produced"),
		metric.WithUnit("{report}"),
	)
	if err != nil {
		log.Warn("failed to create reports counter", "error", err)
	}

	s.recordsAggregated, err = meter.Int64Counter(
		"flightops_records_aggregated",
		metric.WithDescription("Flight records passed through aggregation"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		log.Warn("failed to create records counter", "error", err)
	}

	return s
}

// Report implements Reporter.Report.
func (s *Service) Report(ctx context.Context, req Request) (*report.PeriodReport, error) {
	out, err := s.run(ctx, "report", []Request{req})
	if err != nil {
		return nil, err
	}
	return out[0].report, nil
}

// Compare implements Reporter.Compare.
func (s *Service) Compare(ctx context.Context, current, previous Request) (*comparison.Comparison, error) {
	out, err := s.run(ctx, "compare", []Request{current, previous})
	if err != nil {
		return nil, err
	}
	return comparison.Compare(out[0].report, out[1].report)
}

// CompareMany implements Reporter.CompareMany.
func (s *Service) CompareMany(ctx context.Context, reqs ...Request) (*comparison.MultiComparison, error) {
	if len(reqs) < 2 {
		return nil, comparison.ErrTooFewPeriods
	}

	out, err := s.run(ctx, "compare_many", reqs)
	if err != nil {
		return nil, err
	}

	reports := make([]*report.PeriodReport, len(out))
	for i, o := range out {
		reports[i] = o.report
	}
	return comparison.CompareMany(reports...)
}

// Custom implements Reporter.Custom.
func (s *Service) Custom(ctx context.Context, req Request) (*CustomReport, error) {
	if req.GroupBy == "" {
		return nil, &ValidationError{Field: "groupBy", Err: ErrMissingGroupBy}
	}
	dim, err := report.ParseDimension(req.GroupBy)
	if err != nil {
		return nil, &ValidationError{Field: "groupBy", Value: req.GroupBy, Err: err}
	}

	out, err := s.run(ctx, "custom", []Request{req})
	if err != nil {
		return nil, err
	}

	rows, err := s.builder.GroupBy(out[0].period, out[0].result, dim)
	if err != nil {
		return nil, err
	}

	return &CustomReport{
		Period:  out[0].period,
		Filter:  req.Filter.Normalize(),
		GroupBy: string(dim),
		Rows:    rows,
	}, nil
}

// periodOutput is everything one period produced.
type periodOutput struct {
	period period.Period
	result *aggregator.Result
	report *report.PeriodReport
}

// run validates every request, then fetches and aggregates each period on
// its own goroutine. The first failure cancels the rest.
func (s *Service) run(ctx context.Context, kind string, reqs []Request) ([]periodOutput, error) {
	runID := uuid.NewString()
	log := s.logger.With("run_id", runID, "kind", kind)
	start := time.Now()

	periods := make([]period.Period, len(reqs))
	for i, req := range reqs {
		p, err := req.Period()
		if err != nil {
			s.count(ctx, kind, "invalid", 0)
			log.Debug("request rejected", "index", i, "error", err)
			return nil, err
		}
		periods[i] = p
	}

	out := make([]periodOutput, len(reqs))
	g, gctx := errgroup.WithContext(ctx)

	for i := range reqs {
		i := i
		g.Go(func() error {
			p := periods[i]

			records, err := s.store.Fetch(gctx, p, reqs[i].Filter)
			if err != nil {
				return fmt.Errorf("%w for %s: %w", ErrFetch, p, err)
			}

			agg := aggregator.New(aggregator.Config{
				Period:                p,
				Location:              s.config.Location,
				TrackDelayPercentiles: s.config.TrackDelayPercentiles,
			})
			res := agg.Run(records)

			out[i] = periodOutput{
				period: p,
				result: res,
				report: s.builder.Build(p, res),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.count(ctx, kind, "error", 0)
		log.Error("report failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	records := 0
	for _, o := range out {
		records += o.result.Totals.Records
	}
	s.count(ctx, kind, "ok", records)

	log.Info("report built",
		"periods", len(out),
		"records", records,
		"duration", time.Since(start))

	return out, nil
}

func (s *Service) count(ctx context.Context, kind, outcome string, records int) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	)
	if s.reportsTotal != nil {
		s.reportsTotal.Add(ctx, 1, attrs)
	}
	if s.recordsAggregated != nil && records > 0 {
		s.recordsAggregated.Add(ctx, int64(records), metric.WithAttributes(attribute.String("kind", kind)))
	}
}
