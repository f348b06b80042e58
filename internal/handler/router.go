// Package handler assembles the HTTP surface of the service.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/config"
	v1 "github.com/dmehra2102/prod-golang-projects/medforecast/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/metrics"
)

const apiPrefix = "/api/v1"

type AuthService interface {
	v1.AuthService
	middleware.Authenticator
}

type Services struct {
	Auth     AuthService
	Records  v1.RecordService
	Forecast v1.ForecastService
}

func NewRouter(cfg *config.Config, svc Services, m *metrics.Collector, log *zap.Logger) (*gin.Engine, error) {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	apiLimiter, err := middleware.NewClientLimiter(
		rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize, cfg.RateLimit.TrackedClients)
	if err != nil {
		return nil, err
	}
	authPerMinute := cfg.RateLimit.AuthRequestsPerMinute
	loginLimiter, err := middleware.NewClientLimiter(
		rate.Limit(float64(authPerMinute)/60), authPerMinute, cfg.RateLimit.TrackedClients)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Metrics(m),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.CORS),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group(apiPrefix, middleware.RateLimit(apiLimiter))
	v1.RegisterRoutes(api, v1.Handlers{
		Auth:     v1.NewAuthHandler(svc.Auth, cfg.Session),
		Records:  v1.NewRecordHandler(svc.Records),
		Forecast: v1.NewForecastHandler(svc.Forecast, v1.ChartBase(apiPrefix)),
	},
		middleware.RequireSession(svc.Auth, cfg.Session.CookieName),
		middleware.RateLimit(loginLimiter),
	)

	return r, nil
}
