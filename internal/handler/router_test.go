package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type rejectingAuth struct{}

func (rejectingAuth) Login(context.Context, string, string, string) (*domain.TokenPair, error) {
	return nil, service.ErrInvalidCredentials
}
func (rejectingAuth) Logout(context.Context, *domain.Claims, string) error { return nil }
func (rejectingAuth) RefreshToken(context.Context, string) (*domain.TokenPair, error) {
	return nil, service.ErrInvalidCredentials
}
func (rejectingAuth) Authenticate(context.Context, string) (*domain.Claims, error) {
	return nil, errors.New("no sessions")
}

type noRecords struct{}

func (noRecords) AddRecord(context.Context, service.Caller, *demand.AddEntryCommand) (*demand.Entry, error) {
	return nil, errors.New("unreachable")
}
func (noRecords) ListRecords(context.Context, service.Caller, string) ([]*demand.Entry, error) {
	return nil, errors.New("unreachable")
}

type noForecasts struct{}

func (noForecasts) Predict(context.Context, service.Caller) (*service.Prediction, error) {
	return nil, errors.New("unreachable")
}
func (noForecasts) ChartFile(service.Caller, string) (string, error) { return "", service.ErrChartNotFound }

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "medforecast", Environment: "test", Version: "1.2.3"},
		Session: config.SessionConfig{CookieName: "session"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			AllowedMethods: []string{"GET", "POST"},
			MaxAge:         time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond:     100,
			BurstSize:             100,
			AuthRequestsPerMinute: 2,
			TrackedClients:        10,
		},
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	r, err := NewRouter(testConfig(), Services{
		Auth:     rejectingAuth{},
		Records:  noRecords{},
		Forecast: noForecasts{},
	}, metrics.NewCollector("test", prometheus.NewRegistry()), zap.NewNop())
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r
}

func TestRouter_Healthz(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"1.2.3"`)) {
		t.Errorf("status = %d, body %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
}

func TestRouter_ProtectedRoutesNeedSession(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/api/v1/records", "/api/v1/forecasts", "/api/v1/forecasts/charts/a.png"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", path, w.Code)
		}
	}
}

func TestRouter_LoginIsRateLimited(t *testing.T) {
	r := newTestRouter(t)

	login := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			bytes.NewBufferString(`{"clinic_id":"clinic1","password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := login(); code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, code)
		}
	}
	if code := login(); code != http.StatusTooManyRequests {
		t.Errorf("third attempt: status = %d, want 429", code)
	}
}
