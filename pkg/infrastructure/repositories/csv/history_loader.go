package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/repositories"
)

// ErrMalformedHistory is returned when the history table cannot be parsed
var ErrMalformedHistory = errors.New("malformed history table")

// Column names of the history table
const (
	ColDate          = "date"
	ColLocationID    = "location_id"
	ColLocationType  = "location_type"
	ColProductID     = "product_id"
	ColSalesQuantity = "sales_quantity"
	ColCurrentStock  = "current_stock"
	ColLeadTimeDays  = "lead_time_days"
	ColTargetStock   = "target_stock"
	ColPrice         = "price"
)

var requiredColumns = []string{
	ColDate,
	ColLocationID,
	ColLocationType,
	ColProductID,
	ColSalesQuantity,
	ColCurrentStock,
	ColLeadTimeDays,
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// Loader handles loading history tables from CSV
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadHistory loads history rows from a CSV file
func (l *Loader) LoadHistory(filename string) ([]*entities.HistoryRecord, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file %s: %w", filename, err)
	}
	defer file.Close()

	return l.ReadHistory(file)
}

// ReadHistory parses a history table. Columns are matched by header name; target_stock
// and price are optional. Empty sales cells are forward-filled from the previous day of
// the same entity, or zero when no earlier value exists.
func (l *Loader) ReadHistory(r io.Reader) ([]*entities.HistoryRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read history CSV: %v", ErrMalformedHistory, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%w: history CSV must have header and at least one data row", ErrMalformedHistory)
	}

	columns, err := indexHeader(records[0])
	if err != nil {
		return nil, err
	}

	history := make([]*entities.HistoryRecord, 0, len(records)-1)
	for i, record := range records[1:] {
		parsed, err := parseHistoryRecord(record, columns)
		if err != nil {
			return nil, fmt.Errorf("%w: history CSV row %d: %v", ErrMalformedHistory, i+2, err)
		}
		history = append(history, parsed)
	}

	entities.FillMissingSales(history)
	return history, nil
}

// FileSource adapts a CSV file to the HistorySource interface
type FileSource struct {
	loader *Loader
	path   string
}

// NewFileSource creates a HistorySource reading the given file
func NewFileSource(path string) *FileSource {
	return &FileSource{loader: NewLoader(), path: path}
}

var _ repositories.HistorySource = (*FileSource)(nil)

// LoadHistory implements HistorySource
func (s *FileSource) LoadHistory(ctx context.Context) ([]*entities.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.loader.LoadHistory(s.path)
}

// Helper functions for parsing CSV records

func indexHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if _, dup := columns[name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformedHistory, name)
		}
		columns[name] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: history CSV header missing columns %v. Expected at least: %v, Got: %v",
			ErrMalformedHistory, missing, requiredColumns, header)
	}
	return columns, nil
}

func parseHistoryRecord(record []string, columns map[string]int) (*entities.HistoryRecord, error) {
	field := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := parseDate(field(ColDate))
	if err != nil {
		return nil, err
	}

	location := field(ColLocationID)
	if location == "" {
		return nil, fmt.Errorf("%s cannot be empty", ColLocationID)
	}
	product := field(ColProductID)
	if product == "" {
		return nil, fmt.Errorf("%s cannot be empty", ColProductID)
	}

	kind, err := entities.ParseLocationKind(field(ColLocationType))
	if err != nil {
		return nil, err
	}

	result := &entities.HistoryRecord{
		Date:         date,
		Location:     entities.LocationID(location),
		LocationKind: kind,
		Product:      entities.ProductID(product),
		Price:        decimal.Zero,
	}

	if raw := field(ColSalesQuantity); raw == "" {
		result.SalesMissing = true
	} else if result.SalesQuantity, err = parseQuantity(ColSalesQuantity, raw); err != nil {
		return nil, err
	}

	if result.CurrentStock, err = parseQuantity(ColCurrentStock, field(ColCurrentStock)); err != nil {
		return nil, err
	}

	leadTime, err := parseQuantity(ColLeadTimeDays, field(ColLeadTimeDays))
	if err != nil {
		return nil, err
	}
	result.LeadTimeDays = int(leadTime)

	if raw := field(ColTargetStock); raw != "" {
		if result.TargetStock, err = parseQuantity(ColTargetStock, raw); err != nil {
			return nil, err
		}
	}

	if raw := field(ColPrice); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %s", ColPrice, raw)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("%s cannot be negative: %s", ColPrice, raw)
		}
		result.Price = price
	}

	return result, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %q (expected YYYY-MM-DD)", s)
}

// parseQuantity accepts non-negative integers, including integral decimals such as "12.0"
func parseQuantity(column, s string) (entities.Quantity, error) {
	if s == "" {
		return 0, fmt.Errorf("%s cannot be empty", column)
	}

	value, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("invalid %s: %s", column, s)
		}
		value = int64(f)
	}

	if value < 0 {
		return 0, fmt.Errorf("%s cannot be negative: %s", column, s)
	}
	return entities.Quantity(value), nil
}
