package forecast

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
)

func TestPNGRenderer_WritesImage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "forecast_plots")
	path := ChartPath(dir, "Aspirin")
	jan := demand.YearMonth{Year: 2023, Month: time.January}

	chart := buildChart("Aspirin", monthly("Aspirin", jan, aspirinTotals...),
		[]demand.YearMonth{jan.AddMonths(12), jan.AddMonths(13)}, []int64{19, 21})

	if err := NewPNGRenderer().Render(path, chart); err != nil {
		t.Fatalf("Render: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading chart: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Errorf("chart is not a PNG image")
	}
}
