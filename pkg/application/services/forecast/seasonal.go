package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

const (
	hoursPerDay   = 24
	daysPerYear   = 365
	daysPerWeek   = 7
	monthsPerYear = 12
)

// Seasonal is an additive decomposition model: a linear trend plus day-of-week and, when
// at least a year of history exists, month-of-year components. Points are aggregated to
// daily totals first, so any intra-day pattern is folded into each day's value.
type Seasonal struct {
	MinPoints int
}

// NewSeasonal creates a seasonal/trend forecaster
func NewSeasonal(minPoints int) *Seasonal {
	return &Seasonal{MinPoints: minPoints}
}

// Name implements Forecaster
func (s *Seasonal) Name() string {
	return SeasonalStrategy.String()
}

// seasonalModel holds the fitted components
type seasonalModel struct {
	origin    time.Time
	intercept float64
	slope     float64
	weekly    [daysPerWeek]float64
	yearly    [monthsPerYear]float64
}

// Forecast implements Forecaster. It sums the daily predictions strictly after the last
// observed day across the horizon and clamps the total at zero.
func (s *Seasonal) Forecast(series entities.Series, horizonDays int) (float64, error) {
	daily, err := prepare(series, horizonDays)
	if err != nil {
		return 0, err
	}

	model, err := s.fit(daily)
	if err != nil {
		return 0, err
	}

	last, _ := daily.Last()
	var total float64
	for d := 1; d <= horizonDays; d++ {
		total += model.predict(last.Time.AddDate(0, 0, d))
	}

	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0, fmt.Errorf("%w: non-finite forecast", entities.ErrModelFit)
	}

	return clampNonNegative(total), nil
}

// fit estimates trend and seasonal components from daily totals
func (s *Seasonal) fit(daily entities.Series) (*seasonalModel, error) {
	n := len(daily)
	if n < s.MinPoints {
		return nil, fmt.Errorf("%w: need at least %d daily points, got %d", entities.ErrModelFit, s.MinPoints, n)
	}

	first := daily[0].Time
	xs := make([]float64, n)
	ys := make([]float64, n)
	constant := true
	for i, p := range daily {
		xs[i] = dayOffset(first, p.Time)
		ys[i] = p.Value
		if p.Value != daily[0].Value {
			constant = false
		}
	}
	if constant {
		return nil, fmt.Errorf("%w: constant series", entities.ErrModelFit)
	}

	// Step 1: linear trend by ordinary least squares
	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var sxy, sxx float64
	for i := range xs {
		sxy += (xs[i] - meanX) * (ys[i] - meanY)
		sxx += (xs[i] - meanX) * (xs[i] - meanX)
	}
	if sxx == 0 {
		return nil, fmt.Errorf("%w: degenerate time axis", entities.ErrModelFit)
	}

	model := &seasonalModel{origin: first}
	model.slope = sxy / sxx
	model.intercept = meanY - model.slope*meanX

	residuals := make([]float64, n)
	for i := range xs {
		residuals[i] = ys[i] - (model.intercept + model.slope*xs[i])
	}

	// Step 2: month-of-year component, only with a full year of history
	span := xs[n-1] - xs[0]
	if span >= daysPerYear {
		keys := make([]int, n)
		for i, p := range daily {
			keys[i] = int(p.Time.Month()) - 1
		}
		effects := seasonalEffects(residuals, keys, monthsPerYear)
		copy(model.yearly[:], effects)
		for i := range residuals {
			residuals[i] -= model.yearly[keys[i]]
		}
	}

	// Step 3: day-of-week component
	keys := make([]int, n)
	for i, p := range daily {
		keys[i] = int(p.Time.Weekday())
	}
	effects := seasonalEffects(residuals, keys, daysPerWeek)
	copy(model.weekly[:], effects)

	return model, nil
}

// predict returns the model value for one day
func (m *seasonalModel) predict(day time.Time) float64 {
	x := dayOffset(m.origin, day)
	return m.intercept + m.slope*x + m.weekly[int(day.Weekday())] + m.yearly[int(day.Month())-1]
}

// seasonalEffects averages residuals per season key and centres the observed effects on zero
func seasonalEffects(residuals []float64, keys []int, period int) []float64 {
	sums := make([]float64, period)
	counts := make([]int, period)
	for i, r := range residuals {
		sums[keys[i]] += r
		counts[keys[i]]++
	}

	effects := make([]float64, period)
	var total float64
	observed := 0
	for k := 0; k < period; k++ {
		if counts[k] == 0 {
			continue
		}
		effects[k] = sums[k] / float64(counts[k])
		total += effects[k]
		observed++
	}
	if observed == 0 {
		return effects
	}

	centre := total / float64(observed)
	for k := 0; k < period; k++ {
		if counts[k] > 0 {
			effects[k] -= centre
		}
	}
	return effects
}

func dayOffset(origin, t time.Time) float64 {
	return math.Round(t.Sub(origin).Hours() / hoursPerDay)
}
