package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/metrics"
)

const DefaultSteps = 6

var ErrModelPanic = errors.New("model panicked")

const tracerName = "github.com/dmehra2102/prod-golang-projects/medforecast/internal/forecast"

type ForecasterConfig struct {
	ChartDir string
	Steps    int
	Order    Order
}

// Outcome is the result for one medication: exactly one of Row or Failure is set.
type Outcome struct {
	Row     *demand.ForecastRow
	Failure *demand.ForecastFailure
}

// Forecaster fits one model per medication, sequentially. A failure for one
// medication never stops the others.
type Forecaster struct {
	cfg      ForecasterConfig
	fitter   ModelFitter
	renderer ChartRenderer
	metrics  *metrics.Collector
	log      *zap.Logger
	tracer   trace.Tracer
}

// NewForecaster builds a Forecaster. m may be nil.
func NewForecaster(cfg ForecasterConfig, fitter ModelFitter, renderer ChartRenderer, m *metrics.Collector, log *zap.Logger) *Forecaster {
	if cfg.Steps <= 0 {
		cfg.Steps = DefaultSteps
	}
	if cfg.Order == (Order{}) {
		cfg.Order = DefaultOrder
	}
	return &Forecaster{
		cfg:      cfg,
		fitter:   fitter,
		renderer: renderer,
		metrics:  m,
		log:      log,
		tracer:   otel.Tracer(tracerName),
	}
}

// Forecast processes every medication of series in order of first appearance.
func (f *Forecaster) Forecast(ctx context.Context, series []demand.MonthlyPoint) []Outcome {
	names, byName := medicationSeries(series)
	outcomes := make([]Outcome, 0, len(names))

	for _, name := range names {
		row, err := f.forecastMedication(ctx, name, byName[name])
		if err != nil {
			f.log.Warn("ARIMA model could not be fitted",
				zap.String("medication", name),
				zap.Int("points", len(byName[name])),
				zap.Error(err),
			)
			f.observeOutcome("failed")
			outcomes = append(outcomes, Outcome{Failure: &demand.ForecastFailure{
				MedicationName: name,
				Reason:         err.Error(),
			}})
			continue
		}

		f.observeOutcome("succeeded")
		outcomes = append(outcomes, Outcome{Row: row})
	}

	return outcomes
}

func (f *Forecaster) forecastMedication(ctx context.Context, name string, points []demand.MonthlyPoint) (*demand.ForecastRow, error) {
	_, span := f.tracer.Start(ctx, "forecast.medication", trace.WithAttributes(
		attribute.String("medication", name),
		attribute.Int("points", len(points)),
	))
	defer span.End()

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = float64(p.TotalDemand)
	}

	start := time.Now()
	predicted, err := f.fitAndPredict(values)
	if f.metrics != nil {
		f.metrics.ModelFitDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model fit failed")
		return nil, err
	}

	last := points[len(points)-1].YearMonth
	rounded := make([]int64, len(predicted))
	months := make([]demand.YearMonth, len(predicted))
	for i, v := range predicted {
		rounded[i] = int64(math.Round(v))
		months[i] = last.AddMonths(i + 1)
	}

	row := &demand.ForecastRow{
		MedicationName: name,
		Months:         months,
	}
	for i := range row.Forecasts {
		if i < len(rounded) {
			v := rounded[i]
			row.Forecasts[i] = &v
		}
	}

	path := ChartPath(f.cfg.ChartDir, name)
	if err := f.renderer.Render(path, buildChart(name, points, months, rounded)); err != nil {
		f.log.Error("failed to render forecast chart",
			zap.String("medication", name),
			zap.String("path", path),
			zap.Error(err),
		)
		if f.metrics != nil {
			f.metrics.ChartFailuresTotal.Inc()
		}
	} else {
		row.ChartPath = path
	}

	return row, nil
}

// fitAndPredict converts a panic inside the model library into an error so
// it stays scoped to one medication.
func (f *Forecaster) fitAndPredict(values []float64) (predicted []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			predicted, err = nil, fmt.Errorf("%w: %v", ErrModelPanic, r)
		}
	}()

	model, err := f.fitter.Fit(values, f.cfg.Order)
	if err != nil {
		return nil, err
	}
	return model.Forecast(f.cfg.Steps)
}

func (f *Forecaster) observeOutcome(outcome string) {
	if f.metrics != nil {
		f.metrics.ForecastOutcomesTotal.WithLabelValues(outcome).Inc()
	}
}

func buildChart(name string, history []demand.MonthlyPoint, months []demand.YearMonth, forecast []int64) Chart {
	c := Chart{
		Title:    "Medication Demand Forecast for " + name,
		History:  make([]ChartPoint, len(history)),
		Forecast: make([]ChartPoint, len(forecast)),
	}
	for i, p := range history {
		c.History[i] = ChartPoint{Month: p.YearMonth, Value: float64(p.TotalDemand)}
	}
	for i, v := range forecast {
		c.Forecast[i] = ChartPoint{Month: months[i], Value: float64(v)}
	}
	return c
}
