package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/forecast"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/handler"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/session"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App.Version)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db, log); err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	revocations, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}
	if pinger, ok := revocations.(interface{ Ping(context.Context) error }); ok {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := pinger.Ping(pingCtx)
		cancel()
		if err != nil {
			return err
		}
	}
	if closer, ok := revocations.(io.Closer); ok {
		defer closer.Close()
	}

	m := metrics.NewCollector(cfg.App.Name, nil)

	auditSvc := service.NewAuditService(postgres.NewAuditRepository(db), m, log)
	defer auditSvc.Shutdown()

	demandRepo := postgres.NewDemandRepository(db, log)
	forecaster := forecast.NewForecaster(
		forecast.ForecasterConfig{Steps: cfg.Forecast.Steps, Order: forecast.DefaultOrder},
		forecast.NewARIMAFitter(),
		forecast.NewPNGRenderer(),
		m,
		log,
	)
	pipeline := forecast.NewPipeline(forecaster, m, log)

	router, err := handler.NewRouter(cfg, handler.Services{
		Auth: service.NewAuthService(
			postgres.NewClinicRepository(db),
			auth.NewJWTManager(cfg.JWT),
			revocations,
			auditSvc,
			m,
			log,
		),
		Records:  service.NewRecordService(demandRepo, auditSvc, m, log),
		Forecast: service.NewForecastService(demandRepo, pipeline, cfg.Forecast.ChartDir, auditSvc, log),
	}, m, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
