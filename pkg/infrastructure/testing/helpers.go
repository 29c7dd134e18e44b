package testing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/memory"
)

// BaseDate is the first day of every generated history
var BaseDate = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// EntitySpec describes one entity and its daily sales starting at BaseDate. The stock
// attributes are repeated on every row.
type EntitySpec struct {
	Location     entities.LocationID
	Kind         entities.LocationKind
	Product      entities.ProductID
	Sales        []int64
	CurrentStock entities.Quantity
	TargetStock  entities.Quantity
	LeadTimeDays int
	Price        string
}

// ConstantSales returns days copies of value
func ConstantSales(days int, value int64) []int64 {
	sales := make([]int64, days)
	for i := range sales {
		sales[i] = value
	}
	return sales
}

// Records expands specs into history rows, one per entity per day
func Records(specs ...EntitySpec) []*entities.HistoryRecord {
	var records []*entities.HistoryRecord
	for _, entry := range specs {
		price := decimal.Zero
		if entry.Price != "" {
			price = decimal.RequireFromString(entry.Price)
		}
		for day, sales := range entry.Sales {
			records = append(records, &entities.HistoryRecord{
				Date:          BaseDate.AddDate(0, 0, day),
				Location:      entry.Location,
				LocationKind:  entry.Kind,
				Product:       entry.Product,
				SalesQuantity: entities.Quantity(sales),
				CurrentStock:  entry.CurrentStock,
				LeadTimeDays:  entry.LeadTimeDays,
				TargetStock:   entry.TargetStock,
				Price:         price,
			})
		}
	}
	return records
}

// BuildRepository loads specs into an in-memory repository
func BuildRepository(specs ...EntitySpec) *memory.HistoryRepository {
	repo := memory.NewHistoryRepository()
	if err := repo.LoadRecords(Records(specs...)); err != nil {
		panic(err)
	}
	return repo
}

// HistoryCSV renders specs as a history table
func HistoryCSV(specs ...EntitySpec) string {
	var b strings.Builder
	b.WriteString("date,location_id,location_type,product_id,sales_quantity,current_stock,lead_time_days,target_stock,price\n")
	for _, record := range Records(specs...) {
		target := ""
		if record.TargetStock > 0 {
			target = fmt.Sprint(record.TargetStock)
		}
		fmt.Fprintf(&b, "%s,%s,%s,%s,%d,%d,%d,%s,%s\n",
			record.Date.Format("2006-01-02"),
			record.Location,
			record.LocationKind,
			record.Product,
			record.SalesQuantity,
			record.CurrentStock,
			record.LeadTimeDays,
			target,
			record.Price.String(),
		)
	}
	return b.String()
}

// HubAndSpokeNetwork is a small network with one hub and three stores:
//
//	P1: hub H1 holds 100, stores S1 and S2 each sell 10/day from empty shelves
//	P2: hub H1 holds 500, store S3 is comfortably stocked
func HubAndSpokeNetwork() []EntitySpec {
	return []EntitySpec{
		{Location: "H1", Kind: entities.Hub, Product: "P1", Sales: ConstantSales(30, 0), CurrentStock: 100, LeadTimeDays: 5, Price: "10"},
		{Location: "S1", Kind: entities.Store, Product: "P1", Sales: ConstantSales(30, 10), CurrentStock: 0, TargetStock: 100, LeadTimeDays: 2, Price: "10"},
		{Location: "S2", Kind: entities.Store, Product: "P1", Sales: ConstantSales(30, 10), CurrentStock: 0, TargetStock: 100, LeadTimeDays: 2, Price: "10"},
		{Location: "H1", Kind: entities.Hub, Product: "P2", Sales: ConstantSales(30, 0), CurrentStock: 500, LeadTimeDays: 5, Price: "4.50"},
		{Location: "S3", Kind: entities.Store, Product: "P2", Sales: ConstantSales(30, 1), CurrentStock: 60, TargetStock: 80, LeadTimeDays: 3, Price: "4.50"},
	}
}
