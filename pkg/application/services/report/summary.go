package report

import (
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"

	"github.com/vsinha/replenish/pkg/application/dto"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/services"
)

// DefaultCostRatio is the replenishment cost as a share of the unit price
var DefaultCostRatio = decimal.NewFromFloat(0.7)

// Summarize computes the network KPIs of a restock run over every row, excluded ones
// included: stock-based critical store count, the cost of refilling those stores to
// target, the value of stock on hand and the mean store fill rate.
func Summarize(rows []dto.RestockRow, criticalFraction float64, costRatio decimal.Decimal) dto.NetworkSummary {
	policy := services.ShortagePolicy{CriticalFraction: criticalFraction}
	summary := dto.NetworkSummary{
		Entities:          len(rows),
		ReplenishmentCost: decimal.Zero,
		InventoryValue:    decimal.Zero,
	}

	var fillRates stats.Float64Data
	for i := range rows {
		row := &rows[i]

		switch {
		case row.Excluded():
			summary.Excluded++
		case row.Severity == entities.Critical:
			summary.Critical++
		case row.Severity == entities.NormalShortage:
			summary.NormalShortage++
		default:
			summary.Healthy++
		}

		summary.InventoryValue = summary.InventoryValue.Add(row.Price.Mul(decimal.NewFromInt(int64(row.CurrentStock))))

		if row.Kind != entities.Store || row.TargetStock <= 0 {
			continue
		}

		fillRates = append(fillRates, entities.FillRate(row.CurrentStock, row.TargetStock))

		status := policy.ClassifyStock(row.Key, row.CurrentStock, row.TargetStock)
		if status.Severity == entities.Critical {
			summary.CriticalStores++
			cost := row.Price.Mul(decimal.NewFromInt(int64(status.RequiredQuantity))).Mul(costRatio)
			summary.ReplenishmentCost = summary.ReplenishmentCost.Add(cost)
		}
	}

	if len(fillRates) > 0 {
		if mean, err := stats.Mean(fillRates); err == nil {
			summary.MeanFillRate = mean
		}
	}

	summary.ReplenishmentCost = summary.ReplenishmentCost.Round(2)
	summary.InventoryValue = summary.InventoryValue.Round(2)
	return summary
}
