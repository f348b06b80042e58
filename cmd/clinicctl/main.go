// Command clinicctl provisions the database and runs forecasts offline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medforecast/pkg/logger"
)

var logLevel string

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinicctl",
		Short:         "Provisioning and offline forecasting for the medication demand service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createTablesCmd())
	rootCmd.AddCommand(createClinicCmd())
	rootCmd.AddCommand(forecastCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	return logger.New(
		config.LogConfig{Level: logLevel, Format: "console", OutputPath: "stderr"},
		config.AppConfig{Name: "clinicctl"},
	)
}
