package planning

import (
	"context"
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/vsinha/replenish/pkg/application/dto"
	"github.com/vsinha/replenish/pkg/application/services/forecast"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/repositories"
)

// Evaluate backtests the restock forecaster on the last holdoutDays days of every entity
func (s *Service) Evaluate(ctx context.Context, repo repositories.HistoryRepository, holdoutDays int) (*dto.EvaluationResult, error) {
	if holdoutDays <= 0 {
		return nil, fmt.Errorf("%w: holdout days must be positive, got %d", entities.ErrInvalidConfiguration, holdoutDays)
	}

	all, err := repo.GetEntities()
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}

	result := &dto.EvaluationResult{
		HoldoutDays: holdoutDays,
		Entities:    make([]dto.ForecastAccuracy, 0, len(all)),
	}
	var maes, rmses stats.Float64Data
	for _, entity := range all {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		series, err := repo.GetSeries(entity.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to load series for %s: %w", entity.Key, err)
		}

		accuracy, err := forecast.Backtest(s.forecaster, series, holdoutDays)
		if errors.Is(err, entities.ErrInsufficientHistory) {
			result.Skipped++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to backtest %s: %w", entity.Key, err)
		}

		result.Entities = append(result.Entities, dto.ForecastAccuracy{
			Key:      entity.Key,
			Strategy: accuracy.Strategy,
			Points:   accuracy.Points,
			MAE:      accuracy.MAE,
			RMSE:     accuracy.RMSE,
		})
		maes = append(maes, accuracy.MAE)
		rmses = append(rmses, accuracy.RMSE)
	}

	if len(maes) > 0 {
		result.MeanMAE, _ = stats.Mean(maes)
		result.MeanRMSE, _ = stats.Mean(rmses)
	}

	s.logger.Info().
		Int("entities", len(result.Entities)).
		Int("skipped", result.Skipped).
		Float64("mean_mae", result.MeanMAE).
		Msg("forecast evaluation completed")

	return result, nil
}
