package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator map[string]string

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.Claims, error) {
	clinicID, ok := s[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &domain.Claims{TokenID: uuid.New(), ClinicID: clinicID, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(w.Body.String()); err != nil {
		t.Errorf("generated request id %q is not a UUID", w.Body.String())
	}
	if w.Header().Get(RequestIDHeader) != w.Body.String() {
		t.Error("request id not echoed in response header")
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	if w := serve(r, req); w.Body.String() != id {
		t.Errorf("request id = %q, want caller's %q", w.Body.String(), id)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	if w := serve(r, req); w.Body.String() == "<script>" {
		t.Error("malformed request id must be replaced")
	}
}

func TestRequireSession(t *testing.T) {
	r := gin.New()
	r.Use(RequireSession(stubAuthenticator{"good": "clinic1"}, "session"))
	r.GET("/", func(c *gin.Context) {
		claims, _ := ClaimsFrom(c)
		c.String(http.StatusOK, claims.ClinicID)
	})

	tests := []struct {
		name   string
		header string
		cookie string
		status int
	}{
		{"bearer", "Bearer good", "", http.StatusOK},
		{"lowercase scheme", "bearer good", "", http.StatusOK},
		{"cookie", "", "good", http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"invalid bearer", "Bearer bad", "", http.StatusUnauthorized},
		{"basic scheme", "Basic good", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}
			w := serve(r, req)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status == http.StatusOK && w.Body.String() != "clinic1" {
				t.Errorf("clinic = %q, want clinic1", w.Body.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter, err := NewClientLimiter(rate.Every(time.Hour), 2, 10)
	if err != nil {
		t.Fatalf("NewClientLimiter: %v", err)
	}
	r := gin.New()
	r.Use(RateLimit(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":5000"
		return serve(r, req).Code
	}

	for i := 0; i < 2; i++ {
		if code := request("10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, code)
		}
	}
	if code := request("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", code)
	}
	if code := request("10.0.0.2"); code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", code)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
		MaxAge:         time.Hour,
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(r, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("allowed origin not echoed")
	}
	if w.Header().Get("Access-Control-Max-Age") != "3600" {
		t.Errorf("max age = %q", w.Header().Get("Access-Control-Max-Age"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	if w := serve(r, req); w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}
}

func TestRecoveryAndMetrics(t *testing.T) {
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	r := gin.New()
	r.Use(RequestID(), Metrics(m), Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/boom", "500")); got != 1 {
		t.Errorf("requests_total{/boom,500} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.InFlightGauge); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}
