package planning

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/replenish/pkg/application/services/forecast"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/repositories"
	"github.com/vsinha/replenish/pkg/infrastructure/events"
)

// Service runs the restock and transfer planning pipelines
type Service struct {
	config             Config
	forecaster         forecast.Forecaster
	transferForecaster forecast.Forecaster
	eventStore         events.EventStore
	logger             zerolog.Logger
	newRunID           func() string
}

// Option customises a Service
type Option func(*Service)

// WithEventStore publishes planning events to store
func WithEventStore(store events.EventStore) Option {
	return func(s *Service) {
		s.eventStore = store
	}
}

// WithRunIDs replaces the uuid run id generator
func WithRunIDs(next func() string) Option {
	return func(s *Service) {
		s.newRunID = next
	}
}

// WithForecaster replaces the restock forecaster built from the configuration
func WithForecaster(f forecast.Forecaster) Option {
	return func(s *Service) {
		s.forecaster = f
	}
}

// NewService creates a planning service. The configuration is validated before anything
// else so that a bad parameter fails the run before any entity is processed.
func NewService(config Config, logger zerolog.Logger, opts ...Option) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	forecaster, err := forecast.New(config.Forecast, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create forecaster: %w", err)
	}

	s := &Service{
		config:             config,
		forecaster:         forecaster,
		transferForecaster: forecast.NewMovingAverage(config.Forecast.MovingAverageWindow),
		logger:             logger.With().Str("component", "planning").Logger(),
		newRunID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the service configuration
func (s *Service) Config() Config {
	return s.config
}

// entityInput is one entity queued for forecasting. A non-nil err excludes it up front.
type entityInput struct {
	entity *entities.Entity
	series entities.Series
	err    *entities.EntityError
}

// forecastOutcome is the forecast of one entity, or the reason it has none
type forecastOutcome struct {
	result *entities.ForecastResult
	usage  []float64
	err    *entities.EntityError
}

// forecastAll forecasts every input concurrently, bounded by the configured worker count.
// Each worker writes only its own slot, so the outcome order matches the input order.
func (s *Service) forecastAll(
	ctx context.Context,
	inputs []entityInput,
	f forecast.Forecaster,
	horizonDays int,
) ([]forecastOutcome, error) {
	outcomes := make([]forecastOutcome, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i := range inputs {
		if inputs[i].err != nil {
			outcomes[i] = forecastOutcome{err: inputs[i].err}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.forecastEntity(inputs[i], f, horizonDays)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forecasting interrupted: %w", err)
	}
	return outcomes, nil
}

func (s *Service) forecastEntity(input entityInput, f forecast.Forecaster, horizonDays int) forecastOutcome {
	key := input.entity.Key
	daily := input.series.DailyTotals()
	if len(daily) < s.config.MinHistoryPoints {
		return forecastOutcome{err: entities.NewEntityError(key, entities.ReasonInsufficientHistory,
			fmt.Errorf("%w: %d daily points, need %d", entities.ErrInsufficientHistory, len(daily), s.config.MinHistoryPoints))}
	}

	result, err := forecast.Predict(f, key, input.series, horizonDays)
	if err != nil {
		return forecastOutcome{err: entities.NewEntityError(key, reasonFor(err), err)}
	}

	return forecastOutcome{result: result, usage: daily.Values()}
}

// loadSeries fetches the history of each entity sequentially before forecasting starts
func loadSeries(repo repositories.HistoryRepository, inputs []entityInput) error {
	for i := range inputs {
		if inputs[i].err != nil {
			continue
		}
		series, err := repo.GetSeries(inputs[i].entity.Key)
		if err != nil {
			return fmt.Errorf("failed to load series for %s: %w", inputs[i].entity.Key, err)
		}
		inputs[i].series = series
	}
	return nil
}

func reasonFor(err error) entities.ReasonCode {
	switch {
	case errors.Is(err, entities.ErrInsufficientHistory):
		return entities.ReasonInsufficientHistory
	case errors.Is(err, entities.ErrInvalidEntity):
		return entities.ReasonInvalidLeadTime
	default:
		return entities.ReasonForecastFailed
	}
}

// publish appends an event to the run stream when an event store is configured
func (s *Service) publish(runID string, event events.Event) {
	if s.eventStore == nil {
		return
	}
	if err := s.eventStore.AppendEvent(runID, event); err != nil {
		s.logger.Warn().Err(err).Str("run_id", runID).Str("event", event.Type()).Msg("failed to publish event")
	}
}

// exclude logs and publishes an excluded entity
func (s *Service) exclude(runID string, logger zerolog.Logger, err *entities.EntityError) {
	logger.Warn().
		Str("entity", err.Key.String()).
		Str("reason", string(err.Reason)).
		AnErr("cause", err.Err).
		Msg("entity excluded from plan")
	s.publish(runID, events.NewEntityExcludedEvent(runID, err))
}
