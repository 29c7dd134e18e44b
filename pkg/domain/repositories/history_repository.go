package repositories

import (
	"context"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// HistoryRepository provides access to per-entity demand history and latest stock positions
type HistoryRepository interface {
	LoadRecords(records []*entities.HistoryRecord) error
	// GetEntities returns every entity ordered by key
	GetEntities() ([]*entities.Entity, error)
	GetEntity(key entities.EntityKey) (*entities.Entity, error)
	// GetSeries returns the chronologically sorted sales history of an entity
	GetSeries(key entities.EntityKey) (entities.Series, error)
	// GetProducts returns every product ordered by id
	GetProducts() ([]entities.ProductID, error)
}

// HistorySource loads raw history rows from an external store
type HistorySource interface {
	LoadHistory(ctx context.Context) ([]*entities.HistoryRecord, error)
}
