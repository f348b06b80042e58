package forecast

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"
)

type AggregateStats struct {
	// SkippedRecords counts records whose quantity was missing.
	SkippedRecords int
}

type seriesKey struct {
	medication string
	month      demand.YearMonth
}

// Aggregate sums demand per (medication, month). The result is ordered by
// month, then medication name. Months without records are absent.
func Aggregate(records []demand.Record) ([]demand.MonthlyPoint, AggregateStats) {
	var stats AggregateStats
	totals := make(map[seriesKey]decimal.Decimal)

	for _, r := range records {
		if !r.Quantity.Valid {
			stats.SkippedRecords++
			continue
		}
		k := seriesKey{medication: r.MedicationName, month: demand.YearMonthOf(r.Date)}
		totals[k] = totals[k].Add(r.Quantity.Decimal)
	}

	points := make([]demand.MonthlyPoint, 0, len(totals))
	for k, total := range totals {
		points = append(points, demand.MonthlyPoint{
			MedicationName: k.medication,
			YearMonth:      k.month,
			TotalDemand:    total.IntPart(),
		})
	}

	slices.SortFunc(points, func(a, b demand.MonthlyPoint) int {
		if c := cmp.Compare(a.YearMonth.Index(), b.YearMonth.Index()); c != 0 {
			return c
		}
		return cmp.Compare(a.MedicationName, b.MedicationName)
	})

	return points, stats
}

// medicationSeries splits the aggregated series per medication, preserving
// the order in which medications first appear.
func medicationSeries(points []demand.MonthlyPoint) ([]string, map[string][]demand.MonthlyPoint) {
	var order []string
	byName := make(map[string][]demand.MonthlyPoint)

	for _, p := range points {
		if _, seen := byName[p.MedicationName]; !seen {
			order = append(order, p.MedicationName)
		}
		byName[p.MedicationName] = append(byName[p.MedicationName], p)
	}

	for _, name := range order {
		slices.SortStableFunc(byName[name], func(a, b demand.MonthlyPoint) int {
			return cmp.Compare(a.YearMonth.Index(), b.YearMonth.Index())
		})
	}

	return order, byName
}
