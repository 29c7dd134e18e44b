package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/replenish/pkg/domain/entities"
	fixtures "github.com/vsinha/replenish/pkg/infrastructure/testing"
)

func TestEvaluate(t *testing.T) {
	specs := append(fixtures.HubAndSpokeNetwork(),
		fixtures.EntitySpec{Location: "S9", Kind: entities.Store, Product: "P1", Sales: fixtures.ConstantSales(5, 2), TargetStock: 10, LeadTimeDays: 1},
	)
	service := newTestService(t, DefaultConfig())

	result, err := service.Evaluate(context.Background(), fixtures.BuildRepository(specs...), 7)
	require.NoError(t, err)

	assert.Equal(t, 7, result.HoldoutDays)
	assert.Len(t, result.Entities, 5)
	assert.Equal(t, 1, result.Skipped)
	// Constant histories are forecast exactly
	for _, accuracy := range result.Entities {
		assert.Equal(t, 7, accuracy.Points)
		assert.InDelta(t, 0.0, accuracy.MAE, 1e-9, accuracy.Key.String())
	}
	assert.InDelta(t, 0.0, result.MeanRMSE, 1e-9)
}

func TestEvaluate_InvalidHoldout(t *testing.T) {
	service := newTestService(t, DefaultConfig())

	_, err := service.Evaluate(context.Background(), fixtures.BuildRepository(fixtures.HubAndSpokeNetwork()...), 0)
	assert.ErrorIs(t, err, entities.ErrInvalidConfiguration)
}
