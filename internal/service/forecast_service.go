package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/forecast"
)

var ErrChartNotFound = errors.New("chart not found")

// NoticeNoData is shown when a clinic has no medication data table yet.
const NoticeNoData = "No medication data available for this clinic."

type Prediction struct {
	Report         demand.Report `json:"report"`
	Notice         string        `json:"notice,omitempty"`
	SkippedRecords int           `json:"skipped_records"`
}

// ForecastService runs the forecasting pipeline over a clinic's stored records.
// Charts of each clinic are kept in their own directory under chartDir.
type ForecastService struct {
	repo     demand.Repository
	pipeline *forecast.Pipeline
	chartDir string
	auditSvc *AuditService
	log      *zap.Logger
}

func NewForecastService(repo demand.Repository, pipeline *forecast.Pipeline, chartDir string, auditSvc *AuditService, log *zap.Logger) *ForecastService {
	return &ForecastService{
		repo:     repo,
		pipeline: pipeline,
		chartDir: chartDir,
		auditSvc: auditSvc,
		log:      log,
	}
}

func (s *ForecastService) Predict(ctx context.Context, caller Caller) (*Prediction, error) {
	dir, err := s.clinicChartDir(caller.ClinicID)
	if err != nil {
		return nil, err
	}

	raw, err := s.repo.ListDemand(ctx, caller.ClinicID)
	if errors.Is(err, demand.ErrClinicTableMissing) {
		s.log.Warn("forecast requested for clinic without data table",
			zap.String("clinic_id", caller.ClinicID),
		)
		return &Prediction{
			Report: demand.Report{Rows: []demand.ForecastRow{}, Failures: []demand.ForecastFailure{}},
			Notice: NoticeNoData,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading demand: %w", err)
	}

	result, err := s.pipeline.WithChartDir(dir).Run(ctx, raw)
	if err != nil {
		s.log.Error("forecast pipeline failed",
			zap.String("clinic_id", caller.ClinicID),
			zap.Error(err),
		)
		return nil, err
	}

	s.auditSvc.LogAsync(AuditEntry{
		Caller:       caller,
		Action:       string(domain.ActionForecast),
		ResourceType: "forecast_report",
		Changes: fmt.Sprintf(`{"forecasts":%d,"failures":%d}`,
			len(result.Report.Rows), len(result.Report.Failures)),
	})

	p := &Prediction{Report: result.Report, SkippedRecords: result.Stats.SkippedRecords}
	if len(raw) == 0 {
		p.Notice = NoticeNoData
	}
	return p, nil
}

// ChartFile resolves a chart file name to its path inside the caller's chart directory.
func (s *ForecastService) ChartFile(caller Caller, name string) (string, error) {
	dir, err := s.clinicChartDir(caller.ClinicID)
	if err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".png" {
		return "", ErrChartNotFound
	}
	return filepath.Join(dir, name), nil
}

func (s *ForecastService) clinicChartDir(clinicID string) (string, error) {
	if err := demand.ValidateClinicID(clinicID); err != nil {
		return "", err
	}
	return filepath.Join(s.chartDir, clinicID), nil
}
