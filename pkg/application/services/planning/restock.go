package planning

import (
	"context"
	"fmt"

	"github.com/vsinha/replenish/pkg/application/dto"
	"github.com/vsinha/replenish/pkg/application/services/report"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/repositories"
	"github.com/vsinha/replenish/pkg/domain/services"
	"github.com/vsinha/replenish/pkg/infrastructure/events"
)

const restockPlan = "restock"

// PlanRestock forecasts every entity over the restock horizon, derives its reorder point
// and shortage status, and assembles the restock report. Entities that cannot be planned
// appear as flagged rows instead of failing the run.
func (s *Service) PlanRestock(ctx context.Context, repo repositories.HistoryRepository) (*dto.RestockResult, error) {
	runID := s.newRunID()
	logger := s.logger.With().Str("run_id", runID).Str("plan", restockPlan).Logger()

	all, err := repo.GetEntities()
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}

	inputs := make([]entityInput, len(all))
	for i, entity := range all {
		inputs[i] = entityInput{entity: entity, err: s.restockPreflight(entity)}
	}
	if err := loadSeries(repo, inputs); err != nil {
		return nil, err
	}

	s.publish(runID, events.NewPlanStartedEvent(runID, restockPlan, len(all), s.config.HorizonDays))
	logger.Debug().Int("entities", len(all)).Int("horizon_days", s.config.HorizonDays).Msg("forecasting entities")

	outcomes, err := s.forecastAll(ctx, inputs, s.forecaster, s.config.HorizonDays)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.RestockRow, 0, len(inputs))
	excluded := make([]dto.ExcludedEntity, 0)
	for i, input := range inputs {
		row, entityErr := s.restockRow(input.entity, outcomes[i])
		if entityErr != nil {
			rows = append(rows, excludedRow(input.entity, entityErr.Reason))
			excluded = append(excluded, dto.NewExcludedEntity(entityErr))
			s.exclude(runID, logger, entityErr)
			continue
		}

		if outcomes[i].result.Degraded {
			s.publish(runID, events.NewForecastDegradedEvent(runID, *outcomes[i].result))
		}
		if row.Severity != entities.OK {
			status := entities.ShortageStatus{
				Key:              row.Key,
				Severity:         row.Severity,
				RequiredQuantity: row.RequiredQuantity,
			}
			s.publish(runID, events.NewShortageIdentifiedEvent(runID, status, row.QuantityToOrder))
		}
		rows = append(rows, row)
	}

	summary := report.Summarize(rows, s.config.Policy.CriticalFraction, s.config.CostRatio)

	if !s.config.IncludeHealthy {
		visible := rows[:0]
		for _, row := range rows {
			if row.Excluded() || row.Severity != entities.OK {
				visible = append(visible, row)
			}
		}
		rows = visible
	}

	result := &dto.RestockResult{
		RunID:       runID,
		HorizonDays: s.config.HorizonDays,
		Rows:        report.AssembleRestock(rows),
		Excluded:    excluded,
		Summary:     summary,
	}

	s.publish(runID, events.NewPlanCompletedEvent(runID, restockPlan, len(result.Rows), len(excluded)))
	logger.Info().
		Int("entities", summary.Entities).
		Int("critical", summary.Critical).
		Int("normal_shortage", summary.NormalShortage).
		Int("excluded", summary.Excluded).
		Str("replenishment_cost", summary.ReplenishmentCost.StringFixed(2)).
		Msg("restock plan completed")

	return result, nil
}

// restockPreflight rejects entities whose attributes cannot be planned
func (s *Service) restockPreflight(entity *entities.Entity) *entities.EntityError {
	if entity.LeadTimeDays <= 0 {
		return entities.NewEntityError(entity.Key, entities.ReasonInvalidLeadTime,
			fmt.Errorf("%w: lead time must be positive, got %d", entities.ErrInvalidEntity, entity.LeadTimeDays))
	}
	if !entity.HasTarget() && (entity.Kind == entities.Store || s.config.Policy.Mode == services.StockMode) {
		return entities.NewEntityError(entity.Key, entities.ReasonMissingTarget,
			fmt.Errorf("%w: %s has no target stock", entities.ErrInvalidEntity, entity.Kind))
	}
	return nil
}

func (s *Service) restockRow(entity *entities.Entity, outcome forecastOutcome) (dto.RestockRow, *entities.EntityError) {
	if outcome.err != nil {
		return dto.RestockRow{}, outcome.err
	}

	threshold, err := services.ComputeReorderPoint(entity.Key, outcome.usage, entity.LeadTimeDays)
	if err != nil {
		return dto.RestockRow{}, entities.NewEntityError(entity.Key, reasonFor(err), err)
	}

	demand := outcome.result.PredictedDemand
	status := s.config.Policy.Classify(entity, demand, threshold)

	return dto.RestockRow{
		Key:              entity.Key,
		Kind:             entity.Kind,
		ForecastedDemand: demand,
		Strategy:         outcome.result.Strategy,
		Degraded:         outcome.result.Degraded,
		CurrentStock:     entity.CurrentStock,
		TargetStock:      entity.TargetStock,
		ReorderPoint:     threshold.ReorderPoint,
		SafetyStock:      threshold.SafetyStock,
		Severity:         status.Severity,
		RequiredQuantity: status.RequiredQuantity,
		QuantityToOrder:  s.config.Policy.OrderQuantity(status, demand, threshold.ReorderPoint),
		Price:            entity.Price,
	}, nil
}

func excludedRow(entity *entities.Entity, reason entities.ReasonCode) dto.RestockRow {
	return dto.RestockRow{
		Key:          entity.Key,
		Kind:         entity.Kind,
		CurrentStock: entity.CurrentStock,
		TargetStock:  entity.TargetStock,
		Severity:     entities.OK,
		Price:        entity.Price,
		Reason:       reason,
	}
}
