package services

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// ComputeReorderPoint derives the reorder threshold of an entity from its daily usage.
//
//	safety_stock  = (max_daily_usage - avg_daily_usage) * lead_time_days
//	reorder_point = avg_daily_usage * lead_time_days + safety_stock
//
// A usage history without variance yields exactly avg * lead_time_days.
func ComputeReorderPoint(
	key entities.EntityKey,
	dailyUsage []float64,
	leadTimeDays int,
) (*entities.ReorderThreshold, error) {
	if len(dailyUsage) == 0 {
		return nil, fmt.Errorf("%w: no daily usage for %s", entities.ErrInsufficientHistory, key)
	}
	if leadTimeDays <= 0 {
		return nil, fmt.Errorf("%w: lead time must be positive for %s, got %d", entities.ErrInvalidEntity, key, leadTimeDays)
	}
	for i, u := range dailyUsage {
		if u < 0 {
			return nil, fmt.Errorf("%w: negative usage %v at index %d for %s", entities.ErrInvalidEntity, u, i, key)
		}
	}

	data := stats.Float64Data(dailyUsage)
	maxUsage, err := stats.Max(data)
	if err != nil {
		return nil, fmt.Errorf("failed to compute max usage for %s: %w", key, err)
	}
	minUsage, err := stats.Min(data)
	if err != nil {
		return nil, fmt.Errorf("failed to compute min usage for %s: %w", key, err)
	}

	// A summed mean can drift from v when every value is v; use the value itself
	avgUsage := maxUsage
	if minUsage != maxUsage {
		avgUsage, err = stats.Mean(data)
		if err != nil {
			return nil, fmt.Errorf("failed to compute average usage for %s: %w", key, err)
		}
	}

	leadTime := float64(leadTimeDays)
	safetyStock := (maxUsage - avgUsage) * leadTime
	if safetyStock < 0 {
		safetyStock = 0
	}

	reorderPoint := avgUsage*leadTime + safetyStock
	if reorderPoint < 0 {
		reorderPoint = 0
	}

	return &entities.ReorderThreshold{
		Key:               key,
		AverageDailyUsage: avgUsage,
		MaxDailyUsage:     maxUsage,
		LeadTimeDays:      leadTimeDays,
		SafetyStock:       safetyStock,
		ReorderPoint:      reorderPoint,
	}, nil
}
