package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/session"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/metrics"
)

// connect loads the service configuration and opens the database.
func connect() (*config.Config, *gorm.DB, *zap.Logger, error) {
	log, err := newLogger()
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, log, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schemas, the clinics table and the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, log, err := connect()
			if err != nil {
				return err
			}
			return database.Migrate(db, log)
		},
	}
}

func createTablesCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "create-tables",
		Short: "Create the medication data tables clinic1 through clinicN",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be positive")
			}
			_, db, log, err := connect()
			if err != nil {
				return err
			}

			repo := postgres.NewDemandRepository(db, log)
			for i := 1; i <= count; i++ {
				clinicID := fmt.Sprintf("clinic%d", i)
				if err := repo.CreateTable(cmd.Context(), clinicID); err != nil {
					return err
				}
				log.Info("medication data table ready", zap.String("clinic_id", clinicID))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 30, "Number of clinic tables to create")
	return cmd
}

func createClinicCmd() *cobra.Command {
	var clinicID, name, password string

	cmd := &cobra.Command{
		Use:   "create-clinic",
		Short: "Register a clinic account and provision its data table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, log, err := connect()
			if err != nil {
				return err
			}

			revocations, err := session.NewMemoryStore(1)
			if err != nil {
				return err
			}
			m := metrics.NewCollector(cfg.App.Name, prometheus.NewRegistry())
			auditSvc := service.NewAuditService(postgres.NewAuditRepository(db), m, log)
			defer auditSvc.Shutdown()

			authSvc := service.NewAuthService(
				postgres.NewClinicRepository(db),
				auth.NewJWTManager(cfg.JWT),
				revocations,
				auditSvc,
				m,
				log,
			)
			clinic, err := authSvc.RegisterClinic(cmd.Context(), clinicID, name, password)
			if err != nil {
				return err
			}

			if err := postgres.NewDemandRepository(db, log).CreateTable(cmd.Context(), clinic.ClinicID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "clinic %s (%s) created\n", clinic.ClinicID, clinic.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&clinicID, "id", "", "Clinic ID, e.g. clinic31")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
