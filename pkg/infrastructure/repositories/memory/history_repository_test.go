package memory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/memory"
	fixtures "github.com/vsinha/replenish/pkg/infrastructure/testing"
)

func TestHistoryRepository_EntitiesOrderedByKey(t *testing.T) {
	repo := fixtures.BuildRepository(fixtures.HubAndSpokeNetwork()...)

	all, err := repo.GetEntities()
	require.NoError(t, err)

	var keys []string
	for _, entity := range all {
		keys = append(keys, entity.Key.String())
	}
	assert.Equal(t, []string{"H1/P1", "H1/P2", "S1/P1", "S2/P1", "S3/P2"}, keys)

	products, err := repo.GetProducts()
	require.NoError(t, err)
	assert.Equal(t, []entities.ProductID{"P1", "P2"}, products)
}

func TestHistoryRepository_LatestRowDefinesEntity(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }
	key := entities.EntityKey{Location: "S1", Product: "P1"}
	records := []*entities.HistoryRecord{
		{Date: day(3), Location: "S1", LocationKind: entities.Store, Product: "P1", SalesQuantity: 3, CurrentStock: 12, LeadTimeDays: 4, TargetStock: 50, Price: decimal.NewFromInt(2)},
		{Date: day(1), Location: "S1", LocationKind: entities.Store, Product: "P1", SalesQuantity: 1, CurrentStock: 40, LeadTimeDays: 2, TargetStock: 50, Price: decimal.NewFromInt(2)},
		{Date: day(2), Location: "S1", LocationKind: entities.Store, Product: "P1", SalesQuantity: 2, CurrentStock: 20, LeadTimeDays: 2, TargetStock: 50, Price: decimal.NewFromInt(2)},
	}

	repo := memory.NewHistoryRepository()
	require.NoError(t, repo.LoadRecords(records))

	entity, err := repo.GetEntity(key)
	require.NoError(t, err)
	assert.Equal(t, entities.Quantity(12), entity.CurrentStock)
	assert.Equal(t, 4, entity.LeadTimeDays)

	series, err := repo.GetSeries(key)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, series.Values())

	// Returned series is a copy
	series[0].Value = 99
	again, _ := repo.GetSeries(key)
	assert.Equal(t, 1.0, again[0].Value)
}

func TestHistoryRepository_Errors(t *testing.T) {
	repo := memory.NewHistoryRepository()

	_, err := repo.GetEntity(entities.EntityKey{Location: "X", Product: "Y"})
	assert.Error(t, err)
	_, err = repo.GetSeries(entities.EntityKey{Location: "X", Product: "Y"})
	assert.Error(t, err)

	err = repo.LoadRecords([]*entities.HistoryRecord{
		{Date: fixtures.BaseDate, Location: "S1", Product: "P1", CurrentStock: -1},
	})
	assert.ErrorIs(t, err, entities.ErrInvalidEntity)

	err = memory.NewHistoryRepository().LoadRecords([]*entities.HistoryRecord{
		{Date: fixtures.BaseDate, Location: "S1", Product: "P1", SalesQuantity: -5},
	})
	assert.Error(t, err)
}
