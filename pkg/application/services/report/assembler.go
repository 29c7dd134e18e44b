package report

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/vsinha/replenish/pkg/application/dto"
	"github.com/vsinha/replenish/pkg/domain/entities"
)

// RestockColumns is the column order of the restock report
var RestockColumns = []string{
	"location_id",
	"product_id",
	"forecasted_demand",
	"current_stock",
	"reorder_point",
	"status",
	"quantity_to_order",
	"severity_rank",
	"reason",
}

// ManifestColumns is the column order of the transfer manifest
var ManifestColumns = []string{
	"product_id",
	"source",
	"destination",
	"requested_quantity",
	"approved_quantity",
	"hub_status",
	"severity",
	"priority",
	"hub_stock",
}

// AccuracyColumns is the column order of the forecast accuracy report
var AccuracyColumns = []string{
	"location_id",
	"product_id",
	"strategy",
	"points",
	"mae",
	"rmse",
}

// excludedRank places excluded entities after every planned row
const excludedRank = 3

// AssembleRestock orders restock rows: by severity (CRITICAL, NORMAL_SHORTAGE, OK), then
// required quantity (largest first), then quantity to order, then entity key. Excluded
// entities follow, ordered by key.
func AssembleRestock(rows []dto.RestockRow) []dto.RestockRow {
	ordered := make([]dto.RestockRow, len(rows))
	copy(ordered, rows)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := &ordered[i], &ordered[j]
		if ra, rb := restockRank(a), restockRank(b); ra != rb {
			return ra < rb
		}
		if a.Excluded() {
			return a.Key.Less(b.Key)
		}
		if a.RequiredQuantity != b.RequiredQuantity {
			return a.RequiredQuantity > b.RequiredQuantity
		}
		if a.QuantityToOrder != b.QuantityToOrder {
			return a.QuantityToOrder > b.QuantityToOrder
		}
		return a.Key.Less(b.Key)
	})
	return ordered
}

// AssembleManifest orders transfer lines: by severity, then dispatch priority, then requested
// quantity (largest first), then destination and product
func AssembleManifest(lines []entities.TransferPlanLine) []entities.TransferPlanLine {
	ordered := make([]entities.TransferPlanLine, len(lines))
	copy(ordered, lines)

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := &ordered[i], &ordered[j]
		if a.Severity != b.Severity {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.RequestedQuantity != b.RequestedQuantity {
			return a.RequestedQuantity > b.RequestedQuantity
		}
		if a.Destination != b.Destination {
			return a.Destination < b.Destination
		}
		return a.Product < b.Product
	})
	return ordered
}

// RestockTable renders restock rows in report order
func RestockTable(rows []dto.RestockRow) dto.Table {
	table := dto.Table{Header: RestockColumns, Rows: make([][]string, 0, len(rows))}
	for i := range rows {
		row := &rows[i]
		table.Rows = append(table.Rows, []string{
			string(row.Key.Location),
			string(row.Key.Product),
			formatFloat(row.ForecastedDemand),
			formatQuantity(row.CurrentStock),
			formatFloat(row.ReorderPoint),
			row.Status(),
			formatQuantity(row.QuantityToOrder),
			strconv.Itoa(restockRank(row)),
			string(row.Reason),
		})
	}
	return table
}

// ManifestTable renders transfer lines in manifest order
func ManifestTable(lines []entities.TransferPlanLine) dto.Table {
	table := dto.Table{Header: ManifestColumns, Rows: make([][]string, 0, len(lines))}
	for _, line := range lines {
		table.Rows = append(table.Rows, []string{
			string(line.Product),
			string(line.Source),
			string(line.Destination),
			formatQuantity(line.RequestedQuantity),
			formatQuantity(line.ApprovedQuantity),
			line.HubStatus.String(),
			line.Severity.String(),
			line.Priority.String(),
			formatQuantity(line.HubStock),
		})
	}
	return table
}

// AccuracyTable renders backtest scores in entity order
func AccuracyTable(result *dto.EvaluationResult) dto.Table {
	table := dto.Table{Header: AccuracyColumns, Rows: make([][]string, 0, len(result.Entities))}
	for _, accuracy := range result.Entities {
		table.Rows = append(table.Rows, []string{
			string(accuracy.Key.Location),
			string(accuracy.Key.Product),
			accuracy.Strategy,
			strconv.Itoa(accuracy.Points),
			formatFloat(accuracy.MAE),
			formatFloat(accuracy.RMSE),
		})
	}
	return table
}

func restockRank(row *dto.RestockRow) int {
	if row.Excluded() {
		return excludedRank
	}
	return row.Severity.Rank()
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatQuantity(q entities.Quantity) string {
	return strconv.FormatInt(int64(q), 10)
}
