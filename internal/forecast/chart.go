package forecast

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
)

type ChartPoint struct {
	Month demand.YearMonth
	Value float64
}

// Chart is a historical series and its forecast continuation.
type Chart struct {
	Title    string
	History  []ChartPoint
	Forecast []ChartPoint
}

// ChartRenderer writes a chart image to path.
type ChartRenderer interface {
	Render(path string, c Chart) error
}

// ChartPath returns the image path of a medication's chart inside dir.
func ChartPath(dir, medication string) string {
	return filepath.Join(dir, ChartFileName(medication))
}

// ChartFileName maps a medication name to a file name that cannot escape
// the chart directory. Names that need sanitizing get a "~" and a digest of
// the original name appended, so distinct medications never share a file.
func ChartFileName(medication string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return r
		case r == ' ' || r == '.':
			return '_'
		}
		return -1
	}, medication)
	if name == medication && name != "" {
		return name + ".png"
	}
	if name == "" {
		name = "medication"
	}
	sum := sha256.Sum256([]byte(medication))
	return name + "~" + hex.EncodeToString(sum[:6]) + ".png"
}

// PNGRenderer draws line charts with gonum/plot.
type PNGRenderer struct {
	Width  vg.Length
	Height vg.Length
}

func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Width: 10 * vg.Inch, Height: 6 * vg.Inch}
}

func (r *PNGRenderer) Render(path string, c Chart) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating chart dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "Medication Demand"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	history, err := plotter.NewLine(chartXYs(c.History))
	if err != nil {
		return fmt.Errorf("history line: %w", err)
	}
	history.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(history)
	p.Legend.Add("Historical Data", history)

	if len(c.Forecast) > 0 {
		forecast, err := plotter.NewLine(chartXYs(c.Forecast))
		if err != nil {
			return fmt.Errorf("forecast line: %w", err)
		}
		forecast.Color = color.RGBA{R: 255, A: 255}
		p.Add(forecast)
		p.Legend.Add("Forecast", forecast)
	}

	if err := p.Save(r.Width, r.Height, path); err != nil {
		return fmt.Errorf("saving chart %s: %w", path, err)
	}
	return nil
}

func chartXYs(points []ChartPoint) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Month.Time().Unix())
		xys[i].Y = pt.Value
	}
	return xys
}
