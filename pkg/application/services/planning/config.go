package planning

import (
	"fmt"
	"math"
	"runtime"

	"github.com/shopspring/decimal"

	"github.com/vsinha/replenish/pkg/application/services/forecast"
	"github.com/vsinha/replenish/pkg/application/services/report"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/services"
)

// Config holds planning parameters
type Config struct {
	// HorizonDays is the restock forecast horizon
	HorizonDays int
	// TransferHorizonDays is the horizon of store demand covered by hub transfers
	TransferHorizonDays int
	// Workers bounds concurrent per-entity forecasts
	Workers int
	// IncludeHealthy keeps OK rows in the restock report
	IncludeHealthy bool
	// MinHistoryPoints is the number of daily observations an entity needs to be planned
	MinHistoryPoints int

	Forecast             forecast.Config
	Policy               services.ShortagePolicy
	Rounding             services.RoundingRule
	DispatchHighFraction float64
	CostRatio            decimal.Decimal
}

// DefaultConfig returns the default planning configuration
func DefaultConfig() Config {
	return Config{
		HorizonDays:          30,
		TransferHorizonDays:  7,
		Workers:              runtime.NumCPU(),
		IncludeHealthy:       true,
		MinHistoryPoints:     1,
		Forecast:             forecast.DefaultConfig(),
		Policy:               services.DefaultShortagePolicy(),
		Rounding:             services.Floor,
		DispatchHighFraction: 0.1,
		CostRatio:            report.DefaultCostRatio,
	}
}

// Validate rejects configurations that cannot be planned with
func (c Config) Validate() error {
	if c.HorizonDays <= 0 {
		return fmt.Errorf("%w: horizon days must be positive, got %d", entities.ErrInvalidConfiguration, c.HorizonDays)
	}
	if c.TransferHorizonDays <= 0 {
		return fmt.Errorf("%w: transfer horizon days must be positive, got %d", entities.ErrInvalidConfiguration, c.TransferHorizonDays)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", entities.ErrInvalidConfiguration, c.Workers)
	}
	if c.MinHistoryPoints <= 0 {
		return fmt.Errorf("%w: minimum history points must be positive, got %d", entities.ErrInvalidConfiguration, c.MinHistoryPoints)
	}
	if err := c.Forecast.Validate(); err != nil {
		return err
	}
	if err := c.Policy.Validate(); err != nil {
		return err
	}
	if c.Rounding != services.Floor && c.Rounding != services.LargestRemainder {
		return fmt.Errorf("%w: unknown rounding rule %d", entities.ErrInvalidConfiguration, c.Rounding)
	}
	if math.IsNaN(c.DispatchHighFraction) || c.DispatchHighFraction < 0 || c.DispatchHighFraction > 1 {
		return fmt.Errorf("%w: dispatch high fraction must be in [0,1], got %v", entities.ErrInvalidConfiguration, c.DispatchHighFraction)
	}
	if c.CostRatio.IsNegative() {
		return fmt.Errorf("%w: cost ratio cannot be negative, got %s", entities.ErrInvalidConfiguration, c.CostRatio)
	}
	return nil
}
