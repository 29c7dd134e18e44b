package memory

import (
	"fmt"
	"sort"

	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/repositories"
)

// entityHistory is the stored state of one (location, product) pair
type entityHistory struct {
	entity *entities.Entity
	latest *entities.HistoryRecord
	series entities.Series
}

// HistoryRepository provides in-memory history storage
type HistoryRepository struct {
	histories map[entities.EntityKey]*entityHistory
	keys      []entities.EntityKey
}

// NewHistoryRepository creates a new in-memory history repository
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{
		histories: make(map[entities.EntityKey]*entityHistory),
	}
}

// Verify interface compliance
var _ repositories.HistoryRepository = (*HistoryRepository)(nil)

// LoadRecords loads history rows into the repository. The latest row of each entity
// defines its stock position and attributes; every row contributes a sales point.
func (r *HistoryRepository) LoadRecords(records []*entities.HistoryRecord) error {
	for i, record := range records {
		if err := r.AddRecord(record); err != nil {
			return fmt.Errorf("record %d: %w", i+1, err)
		}
	}

	for _, key := range r.keys {
		history := r.histories[key]
		history.series.Sort()

		latest := history.latest
		entity, err := entities.NewEntity(
			key,
			latest.LocationKind,
			latest.LeadTimeDays,
			latest.TargetStock,
			latest.CurrentStock,
			latest.Price,
		)
		if err != nil {
			return fmt.Errorf("entity %s: %w", key, err)
		}
		history.entity = entity
	}

	sort.Slice(r.keys, func(i, j int) bool {
		return r.keys[i].Less(r.keys[j])
	})
	return nil
}

// AddRecord adds a single row; LoadRecords must run afterwards to rebuild entities
func (r *HistoryRepository) AddRecord(record *entities.HistoryRecord) error {
	if record == nil {
		return fmt.Errorf("nil record")
	}
	if record.SalesQuantity < 0 {
		return fmt.Errorf("sales quantity cannot be negative, got %d", record.SalesQuantity)
	}

	key := record.Key()
	history, exists := r.histories[key]
	if !exists {
		history = &entityHistory{}
		r.histories[key] = history
		r.keys = append(r.keys, key)
	}

	history.series = append(history.series, entities.TimeSeriesPoint{
		Time:  record.Date,
		Value: float64(record.SalesQuantity),
	})
	if history.latest == nil || !record.Date.Before(history.latest.Date) {
		history.latest = record
	}
	return nil
}

// GetEntities returns all entities ordered by key
func (r *HistoryRepository) GetEntities() ([]*entities.Entity, error) {
	result := make([]*entities.Entity, 0, len(r.keys))
	for _, key := range r.keys {
		history := r.histories[key]
		if history.entity == nil {
			return nil, fmt.Errorf("entity %s not built: call LoadRecords", key)
		}
		result = append(result, history.entity)
	}
	return result, nil
}

// GetEntity returns the entity for a key
func (r *HistoryRepository) GetEntity(key entities.EntityKey) (*entities.Entity, error) {
	history, exists := r.histories[key]
	if !exists || history.entity == nil {
		return nil, fmt.Errorf("entity not found: %s", key)
	}
	return history.entity, nil
}

// GetSeries returns a copy of the sales history of an entity, oldest first
func (r *HistoryRepository) GetSeries(key entities.EntityKey) (entities.Series, error) {
	history, exists := r.histories[key]
	if !exists {
		return nil, fmt.Errorf("entity not found: %s", key)
	}
	series := make(entities.Series, len(history.series))
	copy(series, history.series)
	return series, nil
}

// GetProducts returns every product ordered by id
func (r *HistoryRepository) GetProducts() ([]entities.ProductID, error) {
	seen := make(map[entities.ProductID]bool)
	var products []entities.ProductID
	for _, key := range r.keys {
		if !seen[key.Product] {
			seen[key.Product] = true
			products = append(products, key.Product)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i] < products[j]
	})
	return products, nil
}
