package entities

// ForecastResult is the predicted cumulative demand of an entity over a horizon
type ForecastResult struct {
	Key             EntityKey `json:"entity"`
	HorizonDays     int       `json:"horizon_days"`
	PredictedDemand float64   `json:"predicted_demand"`
	Strategy        string    `json:"strategy"`
	// Degraded is set when the configured model could not be fitted and the fallback was used
	Degraded bool `json:"degraded"`
}

// ReorderThreshold is the trigger point at which replenishment should be ordered
type ReorderThreshold struct {
	Key               EntityKey `json:"entity"`
	AverageDailyUsage float64   `json:"average_daily_usage"`
	MaxDailyUsage     float64   `json:"max_daily_usage"`
	LeadTimeDays      int       `json:"lead_time_days"`
	SafetyStock       float64   `json:"safety_stock"`
	ReorderPoint      float64   `json:"reorder_point"`
}

// Severity classifies how urgently an entity needs stock
type Severity int

const (
	Critical Severity = iota
	NormalShortage
	OK
)

// String method for Severity enum
func (s Severity) String() string {
	switch s {
	case Critical:
		return "CRITICAL"
	case NormalShortage:
		return "NORMAL_SHORTAGE"
	case OK:
		return "OK"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the severity by name in JSON output
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Rank returns the sort rank of the severity; lower is more urgent
func (s Severity) Rank() int {
	return int(s)
}

// ShortageStatus is the classification of one entity's stock position
type ShortageStatus struct {
	Key              EntityKey `json:"entity"`
	Severity         Severity  `json:"severity"`
	RequiredQuantity Quantity  `json:"required_quantity"`
	// ProjectedStock is current stock minus forecasted demand; only set in projected mode
	ProjectedStock float64 `json:"projected_stock"`
}

// HubStatus reports whether the upstream location could cover every demand for a product
type HubStatus int

const (
	Sufficient HubStatus = iota
	HubShortage
)

// String method for HubStatus enum
func (h HubStatus) String() string {
	switch h {
	case Sufficient:
		return "Sufficient"
	case HubShortage:
		return "Shortage"
	default:
		return "Unknown"
	}
}

// MarshalText renders the hub status by name in JSON output
func (h HubStatus) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// DispatchPriority is the handling priority of a transfer
type DispatchPriority int

const (
	PriorityHigh DispatchPriority = iota
	PriorityMedium
)

// String method for DispatchPriority enum
func (p DispatchPriority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the priority by name in JSON output
func (p DispatchPriority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// TransferPlanLine is one hub-to-store transfer
type TransferPlanLine struct {
	Product           ProductID        `json:"product_id"`
	Source            LocationID       `json:"source"`
	Destination       LocationID       `json:"destination"`
	RequestedQuantity Quantity         `json:"requested_quantity"`
	ApprovedQuantity  Quantity         `json:"approved_quantity"`
	HubStatus         HubStatus        `json:"hub_status"`
	HubStock          Quantity         `json:"hub_stock"`
	Severity          Severity         `json:"severity"`
	Priority          DispatchPriority `json:"priority"`
}
