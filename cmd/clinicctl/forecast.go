package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/forecast"
)

func forecastCmd() *cobra.Command {
	var (
		csvPath  string
		chartDir string
		steps    int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast monthly demand from a CSV export of a clinic table",
		Long: `Reads a CSV with a header row containing date, medication_name and
medication_demand columns, runs the forecasting pipeline and prints the
six-month forecast per medication. Empty cells count as missing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}

			f, err := os.Open(csvPath)
			if err != nil {
				return err
			}
			defer f.Close()

			raw, err := readDemandCSV(f)
			if err != nil {
				return fmt.Errorf("reading %s: %w", csvPath, err)
			}

			forecaster := forecast.NewForecaster(
				forecast.ForecasterConfig{ChartDir: chartDir, Steps: steps},
				forecast.NewARIMAFitter(),
				forecast.NewPNGRenderer(),
				nil,
				log,
			)
			result, err := forecast.NewPipeline(forecaster, nil, log).Run(cmd.Context(), raw)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result.Report)
			}
			return printReport(cmd.OutOrStdout(), result.Report)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV export to forecast")
	cmd.Flags().StringVar(&chartDir, "chart-dir", "static/forecast_plots", "Directory for forecast charts")
	cmd.Flags().IntVar(&steps, "steps", forecast.DefaultSteps, "Months to forecast")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

var errMissingColumn = errors.New("missing required column")

// readDemandCSV maps the date, medication and demand columns of a CSV export
// to raw records. Column names are matched case-insensitively.
func readDemandCSV(r io.Reader) ([]demand.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	dateCol, okDate := cols["date"]
	medCol, okMed := cols["medication_name"]
	qtyCol, okQty := cols["medication_demand"]
	if !okQty {
		qtyCol, okQty = cols["quantity"]
	}
	if !okDate || !okMed || !okQty {
		return nil, fmt.Errorf("%w: need date, medication_name and medication_demand", errMissingColumn)
	}
	patientCol, hasPatient := cols["patient_name"]

	var records []demand.RawRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := demand.RawRecord{
			Date:           cell(row, dateCol),
			MedicationName: cell(row, medCol),
			Quantity:       cell(row, qtyCol),
		}
		if hasPatient {
			rec.PatientName = cell(row, patientCol)
		}
		records = append(records, rec)
	}
	return records, nil
}

// cell returns nil for absent or blank cells.
func cell(row []string, i int) *string {
	if i >= len(row) {
		return nil
	}
	v := strings.TrimSpace(row[i])
	if v == "" {
		return nil
	}
	return &v
}

func printReport(w io.Writer, report demand.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	header := []string{"MEDICATION"}
	for i := 1; i <= demand.ReportSlots; i++ {
		header = append(header, fmt.Sprintf("MONTH %d", i))
	}
	header = append(header, "CHART")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range report.Rows {
		cells := []string{row.MedicationName}
		for i, v := range row.Forecasts {
			switch {
			case v == nil:
				cells = append(cells, "-")
			case i < len(row.Months):
				cells = append(cells, fmt.Sprintf("%d (%s)", *v, row.Months[i]))
			default:
				cells = append(cells, fmt.Sprint(*v))
			}
		}
		chart := row.ChartPath
		if chart == "" {
			chart = "-"
		}
		cells = append(cells, chart)
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, f := range report.Failures {
		if _, err := fmt.Fprintf(w, "skipped %s: %s\n", f.MedicationName, f.Reason); err != nil {
			return err
		}
	}
	return nil
}
