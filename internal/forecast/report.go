package forecast

import "github.com/dmehra2102/prod-golang-projects/medforecast/internal/domain/demand"

// BuildReport flattens outcomes into a report, keeping processing order.
func BuildReport(outcomes []Outcome) demand.Report {
	report := demand.Report{
		Rows:     make([]demand.ForecastRow, 0, len(outcomes)),
		Failures: make([]demand.ForecastFailure, 0),
	}
	for _, o := range outcomes {
		switch {
		case o.Row != nil:
			report.Rows = append(report.Rows, *o.Row)
		case o.Failure != nil:
			report.Failures = append(report.Failures, *o.Failure)
		}
	}
	return report
}
