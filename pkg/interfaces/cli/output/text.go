package output

import (
	"fmt"
	"io"

	"github.com/vsinha/replenish/pkg/application/dto"
)

func writeText(w io.Writer, result *Report, config Config) {
	if result.Restock != nil {
		writeRestock(w, result.Restock)
	}
	if result.Transfers != nil {
		writeTransfers(w, result.Transfers)
	}
	if result.Evaluation != nil {
		writeEvaluation(w, result.Evaluation)
	}
	if config.Verbose && config.PlanTime > 0 {
		fmt.Fprintf(w, "⏱️  Planning Time: %v\n", config.PlanTime)
	}
}

func writeRestock(w io.Writer, result *dto.RestockResult) {
	summary := result.Summary

	fmt.Fprintf(w, "📊 Restock Report (%d day horizon)\n", result.HorizonDays)
	fmt.Fprintf(w, "==================================\n\n")
	fmt.Fprintf(w, "Entities: %d\n", summary.Entities)
	fmt.Fprintf(w, "Critical: %d\n", summary.Critical)
	fmt.Fprintf(w, "Normal Shortage: %d\n", summary.NormalShortage)
	fmt.Fprintf(w, "OK: %d\n", summary.Healthy)
	fmt.Fprintf(w, "Excluded: %d\n", summary.Excluded)
	fmt.Fprintf(w, "Critical Stores: %d\n", summary.CriticalStores)
	fmt.Fprintf(w, "Replenishment Cost: %s\n", summary.ReplenishmentCost.StringFixed(2))
	fmt.Fprintf(w, "Inventory Value: %s\n", summary.InventoryValue.StringFixed(2))
	fmt.Fprintf(w, "Mean Fill Rate: %.1f%%\n\n", summary.MeanFillRate*100)

	if len(result.Rows) > 0 {
		fmt.Fprintf(w, "%-12s %-12s %10s %8s %10s %-22s %8s\n",
			"Location", "Product", "Forecast", "Stock", "ROP", "Status", "Order")
		fmt.Fprintf(w, "%-12s %-12s %10s %8s %10s %-22s %8s\n",
			"------------", "------------", "----------", "--------", "----------", "----------------------", "--------")

		for i := range result.Rows {
			row := &result.Rows[i]
			fmt.Fprintf(w, "%-12s %-12s %10.2f %8d %10.2f %-22s %8d\n",
				row.Key.Location,
				row.Key.Product,
				row.ForecastedDemand,
				row.CurrentStock,
				row.ReorderPoint,
				row.Status(),
				row.QuantityToOrder)
		}
		fmt.Fprintln(w)
	}

	writeExcluded(w, result.Excluded)
}

func writeTransfers(w io.Writer, result *dto.TransferResult) {
	fmt.Fprintf(w, "🚚 Transfer Manifest (%d day horizon)\n", result.HorizonDays)
	fmt.Fprintf(w, "=====================================\n\n")
	fmt.Fprintf(w, "Lines: %d\n", len(result.Lines))
	fmt.Fprintf(w, "Approved Units: %d\n\n", result.TotalApproved())

	if len(result.Lines) > 0 {
		fmt.Fprintf(w, "%-12s %-10s %-12s %10s %10s %-10s %-16s %-8s\n",
			"Product", "Source", "Destination", "Requested", "Approved", "Hub", "Severity", "Priority")
		fmt.Fprintf(w, "%-12s %-10s %-12s %10s %10s %-10s %-16s %-8s\n",
			"------------", "----------", "------------", "----------", "----------", "----------", "----------------", "--------")

		for _, line := range result.Lines {
			fmt.Fprintf(w, "%-12s %-10s %-12s %10d %10d %-10s %-16s %-8s\n",
				line.Product,
				line.Source,
				line.Destination,
				line.RequestedQuantity,
				line.ApprovedQuantity,
				line.HubStatus,
				line.Severity,
				line.Priority)
		}
		fmt.Fprintln(w)
	}

	if len(result.Hubs) > 0 {
		fmt.Fprintf(w, "🏭 Hub Positions:\n")
		for _, hub := range result.Hubs {
			fmt.Fprintf(w, "  %s@%s: stock=%d, demand=%d, approved=%d, status=%s\n",
				hub.Product, hub.Hub, hub.HubStock, hub.TotalDemand, hub.TotalApproved, hub.Status)
		}
		fmt.Fprintln(w)
	}

	writeExcluded(w, result.Excluded)
}

func writeExcluded(w io.Writer, excluded []dto.ExcludedEntity) {
	if len(excluded) == 0 {
		return
	}
	fmt.Fprintf(w, "⚠️  Excluded Entities:\n")
	for _, entity := range excluded {
		fmt.Fprintf(w, "  %s: %s (%s)\n", entity.Key, entity.Reason, entity.Detail)
	}
	fmt.Fprintln(w)
}

func writeEvaluation(w io.Writer, result *dto.EvaluationResult) {
	fmt.Fprintf(w, "🎯 Forecast Accuracy (%d day holdout)\n", result.HoldoutDays)
	fmt.Fprintf(w, "=====================================\n\n")

	if len(result.Entities) > 0 {
		fmt.Fprintf(w, "%-12s %-12s %-16s %10s %10s\n", "Location", "Product", "Strategy", "MAE", "RMSE")
		for _, accuracy := range result.Entities {
			fmt.Fprintf(w, "%-12s %-12s %-16s %10.2f %10.2f\n",
				accuracy.Key.Location,
				accuracy.Key.Product,
				accuracy.Strategy,
				accuracy.MAE,
				accuracy.RMSE)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Mean MAE: %.2f\n", result.MeanMAE)
	fmt.Fprintf(w, "Mean RMSE: %.2f\n", result.MeanRMSE)
	fmt.Fprintf(w, "Skipped (short history): %d\n\n", result.Skipped)
}
