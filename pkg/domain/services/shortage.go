package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// ShortageMode selects what the shortage detector compares against its thresholds
type ShortageMode int

const (
	// ProjectedMode compares current stock minus forecasted demand against the reorder point
	ProjectedMode ShortageMode = iota
	// StockMode compares raw current stock against the target stock
	StockMode
)

// String method for ShortageMode enum
func (m ShortageMode) String() string {
	switch m {
	case ProjectedMode:
		return "projected"
	case StockMode:
		return "stock"
	default:
		return "unknown"
	}
}

// ParseShortageMode parses a shortage mode name
func ParseShortageMode(s string) (ShortageMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "projected":
		return ProjectedMode, nil
	case "stock":
		return StockMode, nil
	default:
		return ProjectedMode, fmt.Errorf("%w: unknown shortage mode %q (expected: projected or stock)", entities.ErrInvalidConfiguration, s)
	}
}

// ShortagePolicy holds the tunable parameters of shortage classification
type ShortagePolicy struct {
	// CriticalFraction is the share of the threshold below which a shortage is critical
	CriticalFraction float64
	// ReplenishBuffer is the share of forecasted demand added on top of a replenishment order
	ReplenishBuffer float64
	Mode            ShortageMode
}

// DefaultShortagePolicy returns the default classification parameters
func DefaultShortagePolicy() ShortagePolicy {
	return ShortagePolicy{
		CriticalFraction: 0.2,
		ReplenishBuffer:  0.1,
		Mode:             ProjectedMode,
	}
}

// Validate checks the policy parameters
func (p ShortagePolicy) Validate() error {
	if math.IsNaN(p.CriticalFraction) || p.CriticalFraction <= 0 || p.CriticalFraction > 1 {
		return fmt.Errorf("%w: critical fraction must be in (0,1], got %v", entities.ErrInvalidConfiguration, p.CriticalFraction)
	}
	if math.IsNaN(p.ReplenishBuffer) || p.ReplenishBuffer < 0 {
		return fmt.Errorf("%w: replenish buffer cannot be negative, got %v", entities.ErrInvalidConfiguration, p.ReplenishBuffer)
	}
	return nil
}

// ClassifyStock classifies an entity by raw current stock against its target.
// The critical comparison is strict: stock equal to target*fraction is not critical.
func (p ShortagePolicy) ClassifyStock(key entities.EntityKey, current, target entities.Quantity) entities.ShortageStatus {
	status := entities.ShortageStatus{
		Key:              key,
		Severity:         entities.OK,
		RequiredQuantity: requiredQuantity(current, target),
		ProjectedStock:   float64(current),
	}

	if current >= target {
		return status
	}

	threshold := decimal.NewFromInt(int64(target)).Mul(decimal.NewFromFloat(p.CriticalFraction))
	if decimal.NewFromInt(int64(current)).LessThan(threshold) {
		status.Severity = entities.Critical
	} else {
		status.Severity = entities.NormalShortage
	}
	return status
}

// ClassifyProjected classifies an entity by projected stock (current stock minus the
// forecasted demand over the horizon) against its reorder point.
func (p ShortagePolicy) ClassifyProjected(
	key entities.EntityKey,
	current entities.Quantity,
	forecast float64,
	reorderPoint float64,
	target entities.Quantity,
) entities.ShortageStatus {
	projected := float64(current) - forecast
	status := entities.ShortageStatus{
		Key:              key,
		Severity:         entities.OK,
		RequiredQuantity: requiredQuantity(current, target),
		ProjectedStock:   projected,
	}

	if projected >= reorderPoint {
		return status
	}

	if projected < reorderPoint*p.CriticalFraction {
		status.Severity = entities.Critical
	} else {
		status.Severity = entities.NormalShortage
	}
	return status
}

// Classify dispatches to the comparison selected by the policy mode
func (p ShortagePolicy) Classify(
	entity *entities.Entity,
	forecast float64,
	threshold *entities.ReorderThreshold,
) entities.ShortageStatus {
	if p.Mode == StockMode {
		return p.ClassifyStock(entity.Key, entity.CurrentStock, entity.TargetStock)
	}
	var reorderPoint float64
	if threshold != nil {
		reorderPoint = threshold.ReorderPoint
	}
	return p.ClassifyProjected(entity.Key, entity.CurrentStock, forecast, reorderPoint, entity.TargetStock)
}

// OrderQuantity returns the replenishment quantity for a classified entity.
// Projected mode orders back up to the reorder point plus a buffer share of the forecast;
// stock mode orders the quantity required to reach the target.
func (p ShortagePolicy) OrderQuantity(status entities.ShortageStatus, forecast, reorderPoint float64) entities.Quantity {
	if status.Severity == entities.OK {
		return 0
	}
	if p.Mode == StockMode {
		return status.RequiredQuantity
	}

	return wholeUnits(reorderPoint - status.ProjectedStock + forecast*p.ReplenishBuffer)
}

// Priority ranks a dispatch. With a known target the stock fraction decides; otherwise
// critical shortages are handled first.
func Priority(status entities.ShortageStatus, current, target entities.Quantity, highFraction float64) entities.DispatchPriority {
	if target > 0 {
		threshold := decimal.NewFromInt(int64(target)).Mul(decimal.NewFromFloat(highFraction))
		if decimal.NewFromInt(int64(current)).LessThan(threshold) {
			return entities.PriorityHigh
		}
		return entities.PriorityMedium
	}
	if status.Severity == entities.Critical {
		return entities.PriorityHigh
	}
	return entities.PriorityMedium
}

func requiredQuantity(current, target entities.Quantity) entities.Quantity {
	if target > current {
		return target - current
	}
	return 0
}
