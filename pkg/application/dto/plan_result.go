package dto

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// RestockRow is one line of the restock report
type RestockRow struct {
	Key              entities.EntityKey    `json:"entity"`
	Kind             entities.LocationKind `json:"-"`
	ForecastedDemand float64               `json:"forecasted_demand"`
	Strategy         string                `json:"strategy,omitempty"`
	Degraded         bool                  `json:"degraded,omitempty"`
	CurrentStock     entities.Quantity     `json:"current_stock"`
	TargetStock      entities.Quantity     `json:"target_stock"`
	ReorderPoint     float64               `json:"reorder_point"`
	SafetyStock      float64               `json:"safety_stock"`
	Severity         entities.Severity     `json:"severity"`
	RequiredQuantity entities.Quantity     `json:"required_quantity"`
	QuantityToOrder  entities.Quantity     `json:"quantity_to_order"`
	Price            decimal.Decimal       `json:"price"`
	// Reason is set on entities excluded from planning; their computed columns are zero
	Reason entities.ReasonCode `json:"reason,omitempty"`
}

// Excluded reports whether the entity could not be planned
func (r *RestockRow) Excluded() bool {
	return r.Reason != ""
}

// Status returns the report status column: the severity, or the reason code for excluded rows
func (r *RestockRow) Status() string {
	if r.Excluded() {
		return string(r.Reason)
	}
	return r.Severity.String()
}

// ExcludedEntity records an entity left out of a plan and why
type ExcludedEntity struct {
	Key    entities.EntityKey  `json:"entity"`
	Reason entities.ReasonCode `json:"reason"`
	Detail string              `json:"detail"`
}

// NewExcludedEntity converts a per-entity failure into an ExcludedEntity
func NewExcludedEntity(err *entities.EntityError) ExcludedEntity {
	detail := ""
	if err.Err != nil {
		detail = err.Err.Error()
	}
	return ExcludedEntity{Key: err.Key, Reason: err.Reason, Detail: detail}
}

// NetworkSummary holds the network-level KPIs of a restock run
type NetworkSummary struct {
	Entities       int `json:"entities"`
	Critical       int `json:"critical"`
	NormalShortage int `json:"normal_shortage"`
	Healthy        int `json:"ok"`
	Excluded       int `json:"excluded"`
	// CriticalStores counts stores below the critical fraction of their target
	CriticalStores    int             `json:"critical_stores"`
	ReplenishmentCost decimal.Decimal `json:"replenishment_cost"`
	InventoryValue    decimal.Decimal `json:"inventory_value"`
	MeanFillRate      float64         `json:"mean_fill_rate"`
}

// RestockResult contains the complete output of a restock run
type RestockResult struct {
	RunID       string           `json:"run_id"`
	HorizonDays int              `json:"horizon_days"`
	Rows        []RestockRow     `json:"rows"`
	Excluded    []ExcludedEntity `json:"excluded"`
	Summary     NetworkSummary   `json:"summary"`
}

// HubSummary describes how one product's upstream stock was distributed
type HubSummary struct {
	Product       entities.ProductID  `json:"product_id"`
	Hub           entities.LocationID `json:"hub"`
	HubStock      entities.Quantity   `json:"hub_stock"`
	TotalDemand   entities.Quantity   `json:"total_demand"`
	TotalApproved entities.Quantity   `json:"total_approved"`
	Status        entities.HubStatus  `json:"hub_status"`
}

// TransferResult contains the complete output of a transfer planning run
type TransferResult struct {
	RunID       string                      `json:"run_id"`
	HorizonDays int                         `json:"horizon_days"`
	Lines       []entities.TransferPlanLine `json:"lines"`
	Hubs        []HubSummary                `json:"hubs"`
	Excluded    []ExcludedEntity            `json:"excluded"`
}

// TotalApproved returns the number of units approved across all lines
func (r *TransferResult) TotalApproved() entities.Quantity {
	var total entities.Quantity
	for _, line := range r.Lines {
		total = total.Plus(line.ApprovedQuantity)
	}
	return total
}

// Table is a report rendered to formatted cells with a fixed column order
type Table struct {
	Header []string
	Rows   [][]string
}

// ForecastAccuracy is the walk-forward backtest score of one entity's forecaster
type ForecastAccuracy struct {
	Key      entities.EntityKey `json:"entity"`
	Strategy string             `json:"strategy"`
	Points   int                `json:"points"`
	MAE      float64            `json:"mae"`
	RMSE     float64            `json:"rmse"`
}

// EvaluationResult holds the accuracy of every entity with enough history to backtest
type EvaluationResult struct {
	HoldoutDays int                `json:"holdout_days"`
	Entities    []ForecastAccuracy `json:"entities"`
	// Skipped counts entities whose history is shorter than the holdout
	Skipped  int     `json:"skipped"`
	MeanMAE  float64 `json:"mean_mae"`
	MeanRMSE float64 `json:"mean_rmse"`
}
