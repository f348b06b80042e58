package forecast

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
)

func clinicExport() []demand.RawRecord {
	var records []demand.RawRecord
	for i, total := range aspirinTotals {
		month := i + 1
		// Split each monthly total over two visits.
		records = append(records,
			raw(fmt.Sprintf("2023-%02d-03", month), "Aspirin", fmt.Sprint(total/2)),
			raw(fmt.Sprintf("2023-%02d-21 09:15:00", month), "Aspirin", fmt.Sprint(total-total/2)),
		)
		records = append(records, raw(fmt.Sprintf("2023-%02d-11", month), "Metformin", fmt.Sprint(30+i%4)))
	}
	records = append(records,
		raw("2023-05-05", "Insulin", Sentinel),
		demand.RawRecord{Date: strPtr("2023-06-05"), MedicationName: strPtr("Insulin")},
		raw("2023-07-05", "Oseltamivir", "8"),
	)
	return records
}

func TestPipeline_Run(t *testing.T) {
	p := NewPipeline(newTestForecaster(&driftFitter{}, &recordingRenderer{}), nil, zap.NewNop())

	result, err := p.Run(context.Background(), clinicExport())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	inSeries := map[string]bool{}
	for _, pt := range result.Series {
		inSeries[pt.MedicationName] = true
	}
	if inSeries["Insulin"] {
		t.Error("Insulin has no numeric demand and must not be aggregated")
	}
	if result.Stats.SkippedRecords != 2 {
		t.Errorf("SkippedRecords = %d, want 2", result.Stats.SkippedRecords)
	}

	for _, row := range result.Report.Rows {
		if !inSeries[row.MedicationName] {
			t.Errorf("forecast for %q has no aggregated series", row.MedicationName)
		}
	}

	var names []string
	for _, row := range result.Report.Rows {
		names = append(names, row.MedicationName)
	}
	if !reflect.DeepEqual(names, []string{"Aspirin", "Metformin"}) {
		t.Errorf("rows = %v, want [Aspirin Metformin]", names)
	}
	if len(result.Report.Failures) != 1 || result.Report.Failures[0].MedicationName != "Oseltamivir" {
		t.Errorf("failures = %+v, want Oseltamivir", result.Report.Failures)
	}

	var aspirin []int64
	for _, pt := range result.Series {
		if pt.MedicationName == "Aspirin" {
			aspirin = append(aspirin, pt.TotalDemand)
		}
	}
	if !reflect.DeepEqual(aspirin, aspirinTotals) {
		t.Errorf("Aspirin monthly totals = %v, want %v", aspirin, aspirinTotals)
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	p := NewPipeline(newTestForecaster(NewARIMAFitter(), &recordingRenderer{}), nil, zap.NewNop())

	first, err := p.Run(context.Background(), clinicExport())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := p.Run(context.Background(), clinicExport())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(first.Report.Rows) == 0 {
		t.Fatalf("no forecast rows (failures: %+v)", first.Report.Failures)
	}
	var aspirin *demand.ForecastRow
	for i := range first.Report.Rows {
		if first.Report.Rows[i].MedicationName == "Aspirin" {
			aspirin = &first.Report.Rows[i]
		}
	}
	if aspirin == nil {
		t.Fatalf("no Aspirin row in %+v", first.Report.Rows)
	}
	for i, v := range aspirin.Forecasts {
		if v == nil {
			t.Errorf("Aspirin forecast slot %d is nil", i+1)
		}
	}

	if !reflect.DeepEqual(first.Series, second.Series) {
		t.Error("aggregated series differ between runs")
	}
	if !reflect.DeepEqual(first.Report, second.Report) {
		t.Errorf("reports differ between runs:\n%+v\n%+v", first.Report, second.Report)
	}
}

func TestPipeline_NormalizationErrorPropagates(t *testing.T) {
	p := NewPipeline(newTestForecaster(&driftFitter{}, &recordingRenderer{}), nil, zap.NewNop())

	_, err := p.Run(context.Background(), []demand.RawRecord{raw(Sentinel, "Aspirin", "1")})
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("error = %v, want ErrInvalidDate", err)
	}
}

func TestPipeline_EmptyInput(t *testing.T) {
	p := NewPipeline(newTestForecaster(&driftFitter{}, &recordingRenderer{}), nil, zap.NewNop())

	result, err := p.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Report.Rows == nil || len(result.Report.Rows) != 0 {
		t.Errorf("Rows = %#v, want empty non-nil slice", result.Report.Rows)
	}
}

func TestPipeline_WithChartDir(t *testing.T) {
	renderer := &recordingRenderer{}
	base := NewPipeline(newTestForecaster(&driftFitter{}, renderer), nil, zap.NewNop())
	scoped := base.WithChartDir(filepath.Join("charts", "clinic7"))

	if _, err := scoped.Run(context.Background(), clinicExport()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, path := range renderer.paths {
		if filepath.Dir(path) != filepath.Join("charts", "clinic7") {
			t.Errorf("chart written to %q, want under charts/clinic7", path)
		}
	}

	renderer.paths = nil
	if _, err := base.Run(context.Background(), clinicExport()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, path := range renderer.paths {
		if filepath.Dir(path) != "charts" {
			t.Errorf("base pipeline chart written to %q, want under charts", path)
		}
	}
}
