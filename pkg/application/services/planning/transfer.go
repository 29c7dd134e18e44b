package planning

import (
	"context"
	"fmt"
	"sort"

	"github.com/vsinha/replenish/pkg/application/dto"
	"github.com/vsinha/replenish/pkg/application/services/report"
	"github.com/vsinha/replenish/pkg/application/services/shared"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/repositories"
	"github.com/vsinha/replenish/pkg/domain/services"
	"github.com/vsinha/replenish/pkg/infrastructure/events"
)

const transferPlan = "transfer"

// storeDemand is one store's claim on its product's hub
type storeDemand struct {
	entity *entities.Entity
	status entities.ShortageStatus
	need   entities.Quantity
}

// PlanTransfers forecasts store demand over the transfer horizon and distributes each
// product's hub stock across the stores that need it. Hubs are processed one product at a
// time against a ledger that refuses to approve more than the hub holds.
func (s *Service) PlanTransfers(ctx context.Context, repo repositories.HistoryRepository) (*dto.TransferResult, error) {
	runID := s.newRunID()
	logger := s.logger.With().Str("run_id", runID).Str("plan", transferPlan).Logger()

	all, err := repo.GetEntities()
	if err != nil {
		return nil, fmt.Errorf("failed to load entities: %w", err)
	}

	upstream := make(map[entities.ProductID][]*entities.Entity)
	var inputs []entityInput
	for _, entity := range all {
		if entity.Kind.IsUpstream() {
			upstream[entity.Key.Product] = append(upstream[entity.Key.Product], entity)
			continue
		}
		inputs = append(inputs, entityInput{entity: entity})
	}
	for i := range inputs {
		inputs[i].err = transferPreflight(inputs[i].entity, upstream[inputs[i].entity.Key.Product])
	}
	if err := loadSeries(repo, inputs); err != nil {
		return nil, err
	}

	s.publish(runID, events.NewPlanStartedEvent(runID, transferPlan, len(inputs), s.config.TransferHorizonDays))

	outcomes, err := s.forecastAll(ctx, inputs, s.transferForecaster, s.config.TransferHorizonDays)
	if err != nil {
		return nil, err
	}

	excluded := make([]dto.ExcludedEntity, 0)
	demands := make(map[entities.ProductID][]storeDemand)
	for i, input := range inputs {
		if outcomes[i].err != nil {
			excluded = append(excluded, dto.NewExcludedEntity(outcomes[i].err))
			s.exclude(runID, logger, outcomes[i].err)
			continue
		}

		entity := input.entity
		demands[entity.Key.Product] = append(demands[entity.Key.Product], storeDemand{
			entity: entity,
			status: s.config.Policy.ClassifyStock(entity.Key, entity.CurrentStock, entity.TargetStock),
			need:   services.NetNeed(outcomes[i].result.PredictedDemand, entity.CurrentStock),
		})
	}

	products := make([]entities.ProductID, 0, len(demands))
	for product := range demands {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i] < products[j] })

	ledger := shared.NewHubLedger()
	result := &dto.TransferResult{
		RunID:       runID,
		HorizonDays: s.config.TransferHorizonDays,
		Lines:       make([]entities.TransferPlanLine, 0),
		Hubs:        make([]dto.HubSummary, 0, len(products)),
		Excluded:    excluded,
	}

	for _, product := range products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hub := upstream[product][0]
		lines, err := s.allocateProduct(ledger, hub, demands[product])
		if err != nil {
			return nil, fmt.Errorf("failed to allocate %s from %s: %w", product, hub.Key.Location, err)
		}
		result.Lines = append(result.Lines, lines...)
	}

	for _, position := range ledger.Positions() {
		result.Hubs = append(result.Hubs, dto.HubSummary{
			Product:       position.Product,
			Hub:           position.Hub,
			HubStock:      position.Stock,
			TotalDemand:   position.Requested,
			TotalApproved: position.Reserved,
			Status:        position.Status(),
		})
	}
	logger.Debug().Str("ledger", ledger.String()).Msg("hub positions after allocation")

	result.Lines = report.AssembleManifest(result.Lines)
	for _, line := range result.Lines {
		s.publish(runID, events.NewTransferPlannedEvent(runID, line))
	}

	s.publish(runID, events.NewPlanCompletedEvent(runID, transferPlan, len(result.Lines), len(excluded)))
	logger.Info().
		Int("products", len(products)).
		Int("lines", len(result.Lines)).
		Int64("approved_units", int64(result.TotalApproved())).
		Float64("coverage", ledger.CoverageRatio()).
		Int("excluded", len(excluded)).
		Msg("transfer plan completed")

	return result, nil
}

// allocateProduct runs the allocation for one product and books it in the ledger
func (s *Service) allocateProduct(
	ledger *shared.HubLedger,
	hub *entities.Entity,
	stores []storeDemand,
) ([]entities.TransferPlanLine, error) {
	product := hub.Key.Product
	if err := ledger.Open(hub.Key.Location, product, hub.CurrentStock); err != nil {
		return nil, err
	}

	claims := make([]services.Demand, len(stores))
	byKey := make(map[entities.EntityKey]storeDemand, len(stores))
	for i, store := range stores {
		claims[i] = services.Demand{Key: store.entity.Key, NetNeed: store.need, Severity: store.status.Severity}
		byKey[store.entity.Key] = store
	}

	outcome, err := services.Allocate(hub.CurrentStock, claims, s.config.Rounding)
	if err != nil {
		return nil, err
	}

	for _, allocation := range outcome.Lines {
		if err := ledger.Reserve(product, allocation.Requested, allocation.Approved); err != nil {
			return nil, err
		}
	}

	visible := outcome.VisibleLines()
	lines := make([]entities.TransferPlanLine, 0, len(visible))
	for _, allocation := range visible {
		store := byKey[allocation.Key]
		priority := services.Priority(store.status, store.entity.CurrentStock, store.entity.TargetStock, s.config.DispatchHighFraction)
		lines = append(lines, entities.TransferPlanLine{
			Product:           product,
			Source:            hub.Key.Location,
			Destination:       allocation.Key.Location,
			RequestedQuantity: allocation.Requested,
			ApprovedQuantity:  allocation.Approved,
			HubStatus:         outcome.HubStatus,
			HubStock:          hub.CurrentStock,
			Severity:          allocation.Severity,
			Priority:          priority,
		})
	}

	return lines, nil
}

// transferPreflight rejects stores that cannot receive transfers
func transferPreflight(store *entities.Entity, hubs []*entities.Entity) *entities.EntityError {
	switch len(hubs) {
	case 0:
		return entities.NewEntityError(store.Key, entities.ReasonMissingHub,
			fmt.Errorf("no hub or warehouse stocks %s", store.Key.Product))
	case 1:
	default:
		locations := make([]entities.LocationID, len(hubs))
		for i, hub := range hubs {
			locations[i] = hub.Key.Location
		}
		return entities.NewEntityError(store.Key, entities.ReasonMissingHub,
			fmt.Errorf("%s is stocked by %d upstream locations %v", store.Key.Product, len(hubs), locations))
	}
	if !store.HasTarget() {
		return entities.NewEntityError(store.Key, entities.ReasonMissingTarget,
			fmt.Errorf("%w: store has no target stock", entities.ErrInvalidEntity))
	}
	return nil
}
