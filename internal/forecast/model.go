package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/goarima/stats"
	"github.com/sartorproj/goarima/timeseries"
	"gonum.org/v1/gonum/optimize"
)

// Order is an ARIMA (p, d, q) order triple.
type Order struct {
	P, D, Q int
}

func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// minObservations is the shortest series a model of this order is fitted on:
// after differencing, the conditional residuals must outnumber the
// coefficients by at least two.
func (o Order) minObservations() int {
	return o.D + o.P + o.Q + 3
}

var DefaultOrder = Order{P: 1, D: 1, Q: 1}

var (
	ErrInsufficientData   = errors.New("insufficient data points")
	ErrDegenerateSeries   = errors.New("series is constant")
	ErrFitFailed          = errors.New("model fit failed")
	ErrDegenerateForecast = errors.New("forecast contains non-finite values")
)

// ModelFitter fits a univariate time-series model of the given order.
// Values are treated as evenly spaced.
type ModelFitter interface {
	Fit(values []float64, order Order) (FittedModel, error)
}

type FittedModel interface {
	Forecast(steps int) ([]float64, error)
}

// maxFitIterations bounds the Nelder-Mead search of one model.
const maxFitIterations = 2000

// ARIMAFitter estimates ARIMA models by conditional sum of squares. The series
// is differenced d times with goarima and the ARMA coefficients are found
// with gonum's Nelder-Mead. Each coefficient is kept inside (-1, 1) through
// a tanh transform. A constant term is estimated only when d is zero.
type ARIMAFitter struct{}

func NewARIMAFitter() *ARIMAFitter {
	return &ARIMAFitter{}
}

func (f *ARIMAFitter) Fit(values []float64, order Order) (FittedModel, error) {
	if need := order.minObservations(); len(values) < need {
		return nil, fmt.Errorf("%w: have %d, ARIMA%s needs at least %d", ErrInsufficientData, len(values), order, need)
	}
	if isConstant(values) {
		return nil, ErrDegenerateSeries
	}

	// levels[k] is the series differenced k times.
	levels := make([]*timeseries.Series, order.D+1)
	levels[0] = timeseries.New(values)
	for k := 1; k <= order.D; k++ {
		levels[k] = levels[k-1].Diff()
	}
	w := levels[order.D]

	m := &arimaModel{order: order, w: w.Values}
	if order.D == 0 {
		m.mean = w.Mean()
	}
	for _, level := range levels[:order.D] {
		m.lastLevels = append(m.lastLevels, level.Values[level.Len()-1])
	}

	if order.P+order.Q > 0 {
		if err := m.estimate(stats.ACF(w, order.P)); err != nil {
			return nil, fmt.Errorf("%w: ARIMA%s: %v", ErrFitFailed, order, err)
		}
	}
	m.residuals = m.conditionalResiduals(m.ar, m.ma)

	return m, nil
}

type arimaModel struct {
	order      Order
	w          []float64
	mean       float64
	ar, ma     []float64
	residuals  []float64
	lastLevels []float64
}

// estimate minimises the conditional sum of squares. acf seeds the AR
// coefficients and may be nil.
func (m *arimaModel) estimate(acf []float64) error {
	p, q := m.order.P, m.order.Q
	start := make([]float64, p+q)
	for i := 0; i < p; i++ {
		if i+1 < len(acf) {
			start[i] = math.Atanh(clampCoeff(acf[i+1]))
		}
	}
	for j := 0; j < q; j++ {
		start[p+j] = math.Atanh(0.1)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			ar, ma := splitCoeffs(x, p)
			var css float64
			for _, e := range m.conditionalResiduals(ar, ma)[p:] {
				css += e * e
			}
			return css
		},
	}
	settings := &optimize.Settings{
		MajorIterations: maxFitIterations,
		Converger:       &optimize.FunctionConverge{Absolute: 1e-10, Iterations: 200},
	}

	result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if err != nil {
		return err
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return errors.New("solver did not converge")
	}
	m.ar, m.ma = splitCoeffs(result.X, p)
	return nil
}

// conditionalResiduals runs the ARMA recursion over the differenced series
// with the first p residuals fixed at zero.
func (m *arimaModel) conditionalResiduals(ar, ma []float64) []float64 {
	p := len(ar)
	e := make([]float64, len(m.w))
	for t := p; t < len(m.w); t++ {
		e[t] = m.w[t] - m.mean - m.armaTerm(m.w, e, t, ar, ma)
	}
	return e
}

func (m *arimaModel) armaTerm(w, e []float64, t int, ar, ma []float64) float64 {
	var v float64
	for i, phi := range ar {
		if t-i-1 >= 0 {
			v += phi * (w[t-i-1] - m.mean)
		}
	}
	for j, theta := range ma {
		if t-j-1 >= 0 {
			v += theta * e[t-j-1]
		}
	}
	return v
}

func (m *arimaModel) Forecast(steps int) ([]float64, error) {
	if steps < 1 {
		return nil, fmt.Errorf("steps must be at least 1, got %d", steps)
	}

	n := len(m.w)
	w := make([]float64, n+steps)
	copy(w, m.w)
	e := make([]float64, n+steps)
	copy(e, m.residuals)
	for t := n; t < n+steps; t++ {
		w[t] = m.mean + m.armaTerm(w, e, t, m.ar, m.ma)
	}

	values := w[n:]
	for k := len(m.lastLevels) - 1; k >= 0; k-- {
		prev := m.lastLevels[k]
		for i := range values {
			values[i] += prev
			prev = values[i]
		}
	}

	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrDegenerateForecast
		}
	}
	return values, nil
}

func splitCoeffs(x []float64, p int) (ar, ma []float64) {
	coeffs := make([]float64, len(x))
	for i, v := range x {
		coeffs[i] = math.Tanh(v)
	}
	return coeffs[:p], coeffs[p:]
}

func clampCoeff(v float64) float64 {
	const bound = 0.95
	return math.Max(-bound, math.Min(bound, v))
}

func isConstant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
