package forecast

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// FallbackForecaster runs a primary model and degrades to a simpler one when the primary
// cannot be fitted. Fit failures are logged, never returned.
type FallbackForecaster struct {
	primary  Forecaster
	fallback Forecaster
	logger   zerolog.Logger
}

// WithFallback wraps primary so that its failures are served by fallback
func WithFallback(primary, fallback Forecaster, logger zerolog.Logger) *FallbackForecaster {
	return &FallbackForecaster{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With().Str("component", "forecaster").Logger(),
	}
}

// Name implements Forecaster
func (f *FallbackForecaster) Name() string {
	return f.primary.Name()
}

// Forecast implements Forecaster
func (f *FallbackForecaster) Forecast(series entities.Series, horizonDays int) (float64, error) {
	result, err := f.ForecastEntity(entities.EntityKey{}, series, horizonDays)
	if err != nil {
		return 0, err
	}
	return result.PredictedDemand, nil
}

// ForecastEntity implements EntityForecaster
func (f *FallbackForecaster) ForecastEntity(
	key entities.EntityKey,
	series entities.Series,
	horizonDays int,
) (*entities.ForecastResult, error) {
	value, err := f.runPrimary(series, horizonDays)
	if err == nil {
		return &entities.ForecastResult{
			Key:             key,
			HorizonDays:     horizonDays,
			PredictedDemand: value,
			Strategy:        f.primary.Name(),
		}, nil
	}

	// The fallback cannot help with missing history or a bad horizon
	if errors.Is(err, entities.ErrInsufficientHistory) || errors.Is(err, entities.ErrInvalidConfiguration) {
		return nil, err
	}

	f.logger.Warn().
		Err(err).
		Str("entity", key.String()).
		Str("primary", f.primary.Name()).
		Str("fallback", f.fallback.Name()).
		Int("points", len(series)).
		Msg("forecast model degraded")

	value, fallbackErr := f.fallback.Forecast(series, horizonDays)
	if fallbackErr != nil {
		return nil, fmt.Errorf("fallback %s failed after %v: %w", f.fallback.Name(), err, fallbackErr)
	}

	return &entities.ForecastResult{
		Key:             key,
		HorizonDays:     horizonDays,
		PredictedDemand: value,
		Strategy:        f.fallback.Name(),
		Degraded:        true,
	}, nil
}

// runPrimary converts a panicking model into a fit failure
func (f *FallbackForecaster) runPrimary(series entities.Series, horizonDays int) (value float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", entities.ErrModelFit, r)
		}
	}()
	return f.primary.Forecast(series, horizonDays)
}
