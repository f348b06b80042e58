package v1

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/service"
)

type ForecastService interface {
	Predict(ctx context.Context, caller service.Caller) (*service.Prediction, error)
	ChartFile(caller service.Caller, name string) (string, error)
}

type ForecastHandler struct {
	svc       ForecastService
	chartBase string
}

// NewForecastHandler builds the handler; chartBase is the URL prefix the
// Chart route is mounted on.
func NewForecastHandler(svc ForecastService, chartBase string) *ForecastHandler {
	return &ForecastHandler{svc: svc, chartBase: chartBase}
}

type forecastRowView struct {
	MedicationName string                     `json:"medication_name"`
	Forecasts      [demand.ReportSlots]*int64 `json:"forecasts"`
	Months         []demand.YearMonth         `json:"months"`
	ChartURL       string                     `json:"chart_url,omitempty"`
}

type forecastView struct {
	Forecasts      []forecastRowView        `json:"forecasts"`
	Failures       []demand.ForecastFailure `json:"failures"`
	SkippedRecords int                      `json:"skipped_records"`
}

func (h *ForecastHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	p, err := h.svc.Predict(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	view := forecastView{
		Forecasts:      make([]forecastRowView, len(p.Report.Rows)),
		Failures:       p.Report.Failures,
		SkippedRecords: p.SkippedRecords,
	}
	for i, row := range p.Report.Rows {
		view.Forecasts[i] = forecastRowView{
			MedicationName: row.MedicationName,
			Forecasts:      row.Forecasts,
			Months:         row.Months,
		}
		if row.ChartPath != "" {
			view.Forecasts[i].ChartURL = h.chartBase + url.PathEscape(filepath.Base(row.ChartPath))
		}
	}

	c.JSON(http.StatusOK, APIResponse[forecastView]{Data: view, Message: p.Notice})
}

// Chart serves a chart generated for the caller's clinic.
func (h *ForecastHandler) Chart(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	path, err := h.svc.ChartFile(caller, c.Param("file"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		respondServiceError(c, service.ErrChartNotFound)
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Cache-Control", "private, no-cache")
	c.File(path)
}
