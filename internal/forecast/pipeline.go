package forecast

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/metrics"
)

type Result struct {
	Series []demand.MonthlyPoint
	Report demand.Report
	Stats  AggregateStats
}

type Pipeline struct {
	forecaster *Forecaster
	strategy   FillStrategy
	metrics    *metrics.Collector
	log        *zap.Logger
	tracer     trace.Tracer
}

func NewPipeline(forecaster *Forecaster, m *metrics.Collector, log *zap.Logger) *Pipeline {
	return &Pipeline{
		forecaster: forecaster,
		strategy:   FillRow,
		metrics:    m,
		log:        log,
		tracer:     otel.Tracer(tracerName),
	}
}

// WithChartDir returns a copy of p that writes its charts under dir.
func (p *Pipeline) WithChartDir(dir string) *Pipeline {
	f := *p.forecaster
	f.cfg.ChartDir = dir
	cp := *p
	cp.forecaster = &f
	return &cp
}

// Run normalizes, aggregates and forecasts raw. Only normalization errors
// are returned; per-medication failures are listed in the report.
func (p *Pipeline) Run(ctx context.Context, raw []demand.RawRecord) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "forecast.pipeline", trace.WithAttributes(
		attribute.Int("records", len(raw)),
	))
	defer span.End()

	if p.metrics != nil {
		p.metrics.ForecastRunsTotal.Inc()
	}

	records, err := Normalize(raw, p.strategy)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("normalizing records: %w", err)
	}

	series, stats := Aggregate(records)
	if stats.SkippedRecords > 0 {
		p.log.Warn("records with missing demand excluded from aggregation",
			zap.Int("skipped", stats.SkippedRecords),
		)
		if p.metrics != nil {
			p.metrics.SkippedRecordsTotal.Add(float64(stats.SkippedRecords))
		}
	}

	report := BuildReport(p.forecaster.Forecast(ctx, series))

	p.log.Info("forecast completed",
		zap.Int("records", len(raw)),
		zap.Int("monthly_points", len(series)),
		zap.Int("forecasts", len(report.Rows)),
		zap.Int("failures", len(report.Failures)),
	)

	return &Result{Series: series, Report: report, Stats: stats}, nil
}
