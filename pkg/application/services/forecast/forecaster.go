package forecast

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// Forecaster predicts the cumulative demand of a series over the next horizonDays days.
// Implementations are pure functions of their input and never return a negative value.
type Forecaster interface {
	Name() string
	Forecast(series entities.Series, horizonDays int) (float64, error)
}

// EntityForecaster is implemented by forecasters that report degradation per entity
type EntityForecaster interface {
	ForecastEntity(key entities.EntityKey, series entities.Series, horizonDays int) (*entities.ForecastResult, error)
}

// Strategy selects a forecasting model
type Strategy int

const (
	SeasonalStrategy Strategy = iota
	MovingAverageStrategy
)

// String method for Strategy enum
func (s Strategy) String() string {
	switch s {
	case SeasonalStrategy:
		return "seasonal"
	case MovingAverageStrategy:
		return "moving-average"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "seasonal":
		return SeasonalStrategy, nil
	case "moving-average", "moving_average", "sma":
		return MovingAverageStrategy, nil
	default:
		return SeasonalStrategy, fmt.Errorf("%w: unknown forecast strategy %q (expected: seasonal or moving-average)", entities.ErrInvalidConfiguration, s)
	}
}

// Config holds forecaster construction parameters
type Config struct {
	Strategy            Strategy
	MovingAverageWindow int
	MinSeasonalPoints   int
}

// DefaultConfig returns the default forecaster configuration
func DefaultConfig() Config {
	return Config{
		Strategy:            SeasonalStrategy,
		MovingAverageWindow: 30,
		MinSeasonalPoints:   14,
	}
}

// Validate checks the forecaster configuration
func (c Config) Validate() error {
	if c.MovingAverageWindow <= 0 {
		return fmt.Errorf("%w: moving average window must be positive, got %d", entities.ErrInvalidConfiguration, c.MovingAverageWindow)
	}
	if c.MinSeasonalPoints < 2 {
		return fmt.Errorf("%w: seasonal model needs at least 2 points, got %d", entities.ErrInvalidConfiguration, c.MinSeasonalPoints)
	}
	return nil
}

// New creates the forecaster selected by the configuration. The seasonal model is always
// wrapped so that fit failures degrade to the moving average.
func New(config Config, logger zerolog.Logger) (Forecaster, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	movingAverage := NewMovingAverage(config.MovingAverageWindow)

	switch config.Strategy {
	case MovingAverageStrategy:
		return movingAverage, nil
	case SeasonalStrategy:
		return WithFallback(NewSeasonal(config.MinSeasonalPoints), movingAverage, logger), nil
	default:
		return nil, fmt.Errorf("%w: unsupported strategy %d", entities.ErrInvalidConfiguration, config.Strategy)
	}
}

// Predict runs a forecaster for one entity and wraps the value in a ForecastResult
func Predict(
	f Forecaster,
	key entities.EntityKey,
	series entities.Series,
	horizonDays int,
) (*entities.ForecastResult, error) {
	if ef, ok := f.(EntityForecaster); ok {
		return ef.ForecastEntity(key, series, horizonDays)
	}

	value, err := f.Forecast(series, horizonDays)
	if err != nil {
		return nil, err
	}

	return &entities.ForecastResult{
		Key:             key,
		HorizonDays:     horizonDays,
		PredictedDemand: value,
		Strategy:        f.Name(),
	}, nil
}

// prepare validates the common preconditions and returns chronologically sorted daily totals
func prepare(series entities.Series, horizonDays int) (entities.Series, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", entities.ErrInvalidConfiguration, horizonDays)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty series", entities.ErrInsufficientHistory)
	}

	if !series.IsSorted() {
		sorted := make(entities.Series, len(series))
		copy(sorted, series)
		sorted.Sort()
		series = sorted
	}

	return series.DailyTotals(), nil
}

func clampNonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
