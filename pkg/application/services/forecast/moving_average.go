package forecast

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// MovingAverage forecasts the mean of the last Window days times the horizon
type MovingAverage struct {
	Window int
}

// NewMovingAverage creates a moving-average forecaster
func NewMovingAverage(window int) *MovingAverage {
	return &MovingAverage{Window: window}
}

// Name implements Forecaster
func (m *MovingAverage) Name() string {
	return MovingAverageStrategy.String()
}

// Forecast implements Forecaster. A single observation forecasts that value every day.
func (m *MovingAverage) Forecast(series entities.Series, horizonDays int) (float64, error) {
	daily, err := prepare(series, horizonDays)
	if err != nil {
		return 0, err
	}

	window := daily.Tail(m.Window)
	mean, err := stats.Mean(stats.Float64Data(window.Values()))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", entities.ErrInsufficientHistory, err)
	}

	return clampNonNegative(mean * float64(horizonDays)), nil
}
