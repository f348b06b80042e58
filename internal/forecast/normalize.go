// Package forecast turns clinic demand records into per-medication ARIMA
// forecasts. The pipeline is sequential: Normalize, Aggregate, Forecast,
// BuildReport.
package forecast

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
)

// Sentinel replaces missing values during normalization.
const Sentinel = "not"

type FillStrategy string

// FillRow fills every missing field of a row with Sentinel.
const FillRow FillStrategy = "row"

var (
	ErrInvalidStrategy = errors.New("invalid fill strategy")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidQuantity = errors.New("medication demand is not an integer")
)

// Normalize fills missing values, projects rows down to (date, medication,
// quantity) and truncates dates to the calendar day. Quantities equal to
// Sentinel are kept as invalid values so aggregation can exclude them.
func Normalize(raw []demand.RawRecord, strategy FillStrategy) ([]demand.Record, error) {
	if strategy != FillRow {
		return nil, fmt.Errorf("%w: %q (only %q is supported)", ErrInvalidStrategy, strategy, FillRow)
	}

	records := make([]demand.Record, 0, len(raw))
	for i, r := range raw {
		date, err := parseDate(fill(r.Date))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidDate, i, err)
		}

		qty, err := parseQuantity(fill(r.Quantity))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrInvalidQuantity, i, err)
		}

		records = append(records, demand.Record{
			Date:           date,
			MedicationName: fill(r.MedicationName),
			Quantity:       qty,
		})
	}

	return records, nil
}

func fill(v *string) string {
	if v == nil {
		return Sentinel
	}
	return *v
}

func parseDate(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// Keep the calendar day as written, drop time of day and zone.
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func parseQuantity(s string) (decimal.NullDecimal, error) {
	if s == Sentinel {
		return decimal.NullDecimal{}, nil
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if !d.Equal(d.Truncate(0)) {
		return decimal.NullDecimal{}, fmt.Errorf("%s has a fractional part", d)
	}

	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}
