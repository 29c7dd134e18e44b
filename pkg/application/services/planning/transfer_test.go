package planning

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/services"
	"github.com/vsinha/replenish/pkg/infrastructure/events"
	fixtures "github.com/vsinha/replenish/pkg/infrastructure/testing"
)

func TestPlanTransfers_ProRatesScarceHubStock(t *testing.T) {
	config := DefaultConfig()
	// 10 units a day over 8 days: each store needs 80 against a hub of 100
	config.TransferHorizonDays = 8
	service := newTestService(t, config)

	result, err := service.PlanTransfers(context.Background(), fixtures.BuildRepository(fixtures.HubAndSpokeNetwork()...))
	require.NoError(t, err)

	require.Len(t, result.Lines, 2)
	for i, destination := range []entities.LocationID{"S1", "S2"} {
		line := result.Lines[i]
		assert.Equal(t, destination, line.Destination)
		assert.Equal(t, entities.LocationID("H1"), line.Source)
		assert.Equal(t, entities.Quantity(80), line.RequestedQuantity)
		assert.Equal(t, entities.Quantity(50), line.ApprovedQuantity)
		assert.Equal(t, entities.HubShortage, line.HubStatus)
		assert.Equal(t, entities.Quantity(100), line.HubStock)
		assert.Equal(t, entities.Critical, line.Severity)
		assert.Equal(t, entities.PriorityHigh, line.Priority)
	}
	assert.Equal(t, entities.Quantity(100), result.TotalApproved())

	require.Len(t, result.Hubs, 2)
	assert.Equal(t, entities.ProductID("P1"), result.Hubs[0].Product)
	assert.Equal(t, entities.Quantity(160), result.Hubs[0].TotalDemand)
	assert.Equal(t, entities.Quantity(100), result.Hubs[0].TotalApproved)
	assert.Equal(t, entities.HubShortage, result.Hubs[0].Status)

	// S3 has enough stock for the week, so P2 ships nothing
	assert.Equal(t, entities.ProductID("P2"), result.Hubs[1].Product)
	assert.Equal(t, entities.Quantity(0), result.Hubs[1].TotalDemand)
	assert.Equal(t, entities.Sufficient, result.Hubs[1].Status)
}

func TestPlanTransfers_SufficientHub(t *testing.T) {
	service := newTestService(t, DefaultConfig())
	specs := fixtures.HubAndSpokeNetwork()
	specs[0].CurrentStock = 1000

	result, err := service.PlanTransfers(context.Background(), fixtures.BuildRepository(specs...))
	require.NoError(t, err)

	require.Len(t, result.Lines, 2)
	for _, line := range result.Lines {
		assert.Equal(t, entities.Quantity(70), line.RequestedQuantity)
		assert.Equal(t, line.RequestedQuantity, line.ApprovedQuantity)
		assert.Equal(t, entities.Sufficient, line.HubStatus)
	}
}

func TestPlanTransfers_LargestRemainder(t *testing.T) {
	config := DefaultConfig()
	config.Rounding = services.LargestRemainder
	service := newTestService(t, config)
	specs := fixtures.HubAndSpokeNetwork()
	// 101 units over two needs of 70
	specs[0].CurrentStock = 101

	result, err := service.PlanTransfers(context.Background(), fixtures.BuildRepository(specs...))
	require.NoError(t, err)

	assert.Equal(t, entities.Quantity(101), result.TotalApproved())
}

func TestPlanTransfers_ExcludesUnplannableStores(t *testing.T) {
	specs := append(fixtures.HubAndSpokeNetwork(),
		fixtures.EntitySpec{Location: "S4", Kind: entities.Store, Product: "P3", Sales: fixtures.ConstantSales(5, 3), CurrentStock: 0, TargetStock: 10, LeadTimeDays: 1},
		fixtures.EntitySpec{Location: "S5", Kind: entities.Store, Product: "P1", Sales: fixtures.ConstantSales(5, 3), CurrentStock: 0, LeadTimeDays: 1},
		fixtures.EntitySpec{Location: "W1", Kind: entities.Warehouse, Product: "P4", Sales: fixtures.ConstantSales(5, 0), CurrentStock: 10, LeadTimeDays: 1},
		fixtures.EntitySpec{Location: "W2", Kind: entities.Warehouse, Product: "P4", Sales: fixtures.ConstantSales(5, 0), CurrentStock: 10, LeadTimeDays: 1},
		fixtures.EntitySpec{Location: "S6", Kind: entities.Store, Product: "P4", Sales: fixtures.ConstantSales(5, 3), CurrentStock: 0, TargetStock: 10, LeadTimeDays: 1},
	)
	store := events.NewInMemoryEventStore(zerolog.Nop())
	service := newTestService(t, DefaultConfig(), WithEventStore(store), WithRunIDs(func() string { return "t" }))

	result, err := service.PlanTransfers(context.Background(), fixtures.BuildRepository(specs...))
	require.NoError(t, err)

	require.Len(t, result.Excluded, 3)
	assert.Equal(t, "S4/P3", result.Excluded[0].Key.String())
	assert.Equal(t, entities.ReasonMissingHub, result.Excluded[0].Reason)
	assert.Equal(t, "S5/P1", result.Excluded[1].Key.String())
	assert.Equal(t, entities.ReasonMissingTarget, result.Excluded[1].Reason)
	assert.Equal(t, "S6/P4", result.Excluded[2].Key.String())
	assert.Contains(t, result.Excluded[2].Detail, "2 upstream locations [W1 W2]")

	// The remaining stores are still planned
	assert.Len(t, result.Lines, 2)
	assert.Equal(t, 3, store.CountByType("t", events.EntityExcludedEvent))
	assert.Equal(t, 2, store.CountByType("t", events.TransferPlannedEvent))
}

func TestPlanTransfers_ApprovedNeverExceedsHub(t *testing.T) {
	service := newTestService(t, DefaultConfig())

	result, err := service.PlanTransfers(context.Background(), fixtures.BuildRepository(noisyNetwork(40)...))
	require.NoError(t, err)

	var approved entities.Quantity
	for _, line := range result.Lines {
		assert.LessOrEqual(t, line.ApprovedQuantity, line.RequestedQuantity)
		assert.Greater(t, line.ApprovedQuantity, entities.Quantity(0))
		approved += line.ApprovedQuantity
	}
	assert.LessOrEqual(t, approved, entities.Quantity(250))
}

func TestPlanTransfers_DemandBeyondQuantityRange(t *testing.T) {
	// 2e18 a day over a week is past the Quantity range for both stores
	specs := []fixtures.EntitySpec{
		{Location: "H1", Kind: entities.Hub, Product: "P1", Sales: fixtures.ConstantSales(30, 0), CurrentStock: 100, LeadTimeDays: 5},
		{Location: "S1", Kind: entities.Store, Product: "P1", Sales: fixtures.ConstantSales(30, 2e18), CurrentStock: 0, TargetStock: 50, LeadTimeDays: 2},
		{Location: "S2", Kind: entities.Store, Product: "P1", Sales: fixtures.ConstantSales(30, 2e18), CurrentStock: 0, TargetStock: 50, LeadTimeDays: 2},
	}
	service := newTestService(t, DefaultConfig())

	result, err := service.PlanTransfers(context.Background(), fixtures.BuildRepository(specs...))
	require.NoError(t, err)

	assert.Empty(t, result.Excluded)
	require.Len(t, result.Lines, 2)
	for _, line := range result.Lines {
		assert.Equal(t, entities.Quantity(math.MaxInt64), line.RequestedQuantity)
		assert.Equal(t, entities.Quantity(50), line.ApprovedQuantity)
		assert.Equal(t, entities.HubShortage, line.HubStatus)
	}
	assert.Equal(t, entities.Quantity(100), result.TotalApproved())

	require.Len(t, result.Hubs, 1)
	assert.Equal(t, entities.Quantity(math.MaxInt64), result.Hubs[0].TotalDemand)
	assert.Equal(t, entities.Quantity(100), result.Hubs[0].TotalApproved)
	assert.Equal(t, entities.HubShortage, result.Hubs[0].Status)
}
