package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/repositories"
)

// DefaultTable is the table read when none is configured
const DefaultTable = "inventory_history"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// historyRow mirrors one row of the history table
type historyRow struct {
	Date          time.Time           `db:"date"`
	LocationID    string              `db:"location_id"`
	LocationType  string              `db:"location_type"`
	ProductID     string              `db:"product_id"`
	SalesQuantity sql.NullInt64       `db:"sales_quantity"`
	CurrentStock  int64               `db:"current_stock"`
	LeadTimeDays  int                 `db:"lead_time_days"`
	TargetStock   sql.NullInt64       `db:"target_stock"`
	Price         decimal.NullDecimal `db:"price"`
}

// HistorySource reads history rows from PostgreSQL
type HistorySource struct {
	db    *sqlx.DB
	query string
}

var _ repositories.HistorySource = (*HistorySource)(nil)

// Connect opens and pings a PostgreSQL connection
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// NewHistorySource creates a source reading the given table
func NewHistorySource(db *sqlx.DB, table string) (*HistorySource, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identifier.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", entities.ErrInvalidConfiguration, table)
	}
	return &HistorySource{db: db, query: historyQuery(table)}, nil
}

func historyQuery(table string) string {
	return fmt.Sprintf(`
		SELECT
			date,
			location_id,
			location_type,
			product_id,
			sales_quantity,
			current_stock,
			lead_time_days,
			target_stock,
			price
		FROM %s
		ORDER BY date, location_id, product_id`, table)
}

// LoadHistory implements HistorySource
func (s *HistorySource) LoadHistory(ctx context.Context) ([]*entities.HistoryRecord, error) {
	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, s.query); err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	records := make([]*entities.HistoryRecord, 0, len(rows))
	for i, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, fmt.Errorf("history row %d (%s/%s): %w", i+1, row.LocationID, row.ProductID, err)
		}
		records = append(records, record)
	}

	entities.FillMissingSales(records)
	return records, nil
}

func (r historyRow) toRecord() (*entities.HistoryRecord, error) {
	kind, err := entities.ParseLocationKind(r.LocationType)
	if err != nil {
		return nil, err
	}
	if r.LocationID == "" || r.ProductID == "" {
		return nil, fmt.Errorf("location_id and product_id are required")
	}
	if r.CurrentStock < 0 {
		return nil, fmt.Errorf("current_stock cannot be negative, got %d", r.CurrentStock)
	}
	if r.LeadTimeDays < 0 {
		return nil, fmt.Errorf("lead_time_days cannot be negative, got %d", r.LeadTimeDays)
	}

	record := &entities.HistoryRecord{
		Date:         r.Date.UTC(),
		Location:     entities.LocationID(r.LocationID),
		LocationKind: kind,
		Product:      entities.ProductID(r.ProductID),
		SalesMissing: !r.SalesQuantity.Valid,
		CurrentStock: entities.Quantity(r.CurrentStock),
		LeadTimeDays: r.LeadTimeDays,
		Price:        decimal.Zero,
	}

	if r.SalesQuantity.Valid {
		if r.SalesQuantity.Int64 < 0 {
			return nil, fmt.Errorf("sales_quantity cannot be negative, got %d", r.SalesQuantity.Int64)
		}
		record.SalesQuantity = entities.Quantity(r.SalesQuantity.Int64)
	}
	if r.TargetStock.Valid {
		if r.TargetStock.Int64 < 0 {
			return nil, fmt.Errorf("target_stock cannot be negative, got %d", r.TargetStock.Int64)
		}
		record.TargetStock = entities.Quantity(r.TargetStock.Int64)
	}
	if r.Price.Valid {
		if r.Price.Decimal.IsNegative() {
			return nil, fmt.Errorf("price cannot be negative, got %s", r.Price.Decimal)
		}
		record.Price = r.Price.Decimal
	}

	return record, nil
}
