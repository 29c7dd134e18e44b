package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// RoundingRule converts pro-rated shares into whole units
type RoundingRule int

const (
	// Floor truncates every share; leftover units stay at the hub
	Floor RoundingRule = iota
	// LargestRemainder floors every share, then hands leftover units one at a time to the
	// lines with the largest fractional parts
	LargestRemainder
)

// String method for RoundingRule enum
func (r RoundingRule) String() string {
	switch r {
	case Floor:
		return "floor"
	case LargestRemainder:
		return "largest-remainder"
	default:
		return "unknown"
	}
}

// ParseRoundingRule parses a rounding rule name
func ParseRoundingRule(s string) (RoundingRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "floor":
		return Floor, nil
	case "largest-remainder", "largest_remainder":
		return LargestRemainder, nil
	default:
		return Floor, fmt.Errorf("%w: unknown rounding rule %q (expected: floor or largest-remainder)", entities.ErrInvalidConfiguration, s)
	}
}

// Demand is one downstream claim on hub stock
type Demand struct {
	Key      entities.EntityKey
	NetNeed  entities.Quantity
	Severity entities.Severity
}

// Allocation is the approved share of hub stock for one demand
type Allocation struct {
	Key       entities.EntityKey
	Requested entities.Quantity
	Approved  entities.Quantity
	HubStatus entities.HubStatus
	Severity  entities.Severity
}

// AllocationOutcome is the full distribution of one product's hub stock
type AllocationOutcome struct {
	HubStock entities.Quantity
	// TotalDemand saturates at math.MaxInt64
	TotalDemand   entities.Quantity
	TotalApproved entities.Quantity
	HubStatus     entities.HubStatus
	// Lines holds one allocation per demand, in input order
	Lines []Allocation
}

// Allocate distributes hub stock across demands. When the hub covers the total demand
// every need is met exactly; otherwise every line gets need*hub/total rounded down to
// whole units (plus leftover units under LargestRemainder). Totals are summed without
// overflow, so the approved total never exceeds the hub stock.
func Allocate(hubStock entities.Quantity, demands []Demand, rule RoundingRule) (*AllocationOutcome, error) {
	if hubStock < 0 {
		return nil, fmt.Errorf("hub stock cannot be negative, got %d", hubStock)
	}

	total := decimal.Zero
	for _, d := range demands {
		if d.NetNeed < 0 {
			return nil, fmt.Errorf("net need for %s cannot be negative, got %d", d.Key, d.NetNeed)
		}
		total = total.Add(decimal.NewFromInt(int64(d.NetNeed)))
	}

	outcome := &AllocationOutcome{
		HubStock:    hubStock,
		TotalDemand: saturate(total),
		HubStatus:   entities.Sufficient,
		Lines:       make([]Allocation, len(demands)),
	}

	hub := decimal.NewFromInt(int64(hubStock))

	// Hub covers everything (including the zero-demand case)
	if hub.GreaterThanOrEqual(total) {
		for i, d := range demands {
			outcome.Lines[i] = Allocation{
				Key:       d.Key,
				Requested: d.NetNeed,
				Approved:  d.NetNeed,
				HubStatus: entities.Sufficient,
				Severity:  d.Severity,
			}
			outcome.TotalApproved += d.NetNeed
		}
		return outcome, nil
	}

	// Pro-rate exactly: need*hub/total, total > hub >= 0
	outcome.HubStatus = entities.HubShortage
	remainders := make([]decimal.Decimal, len(demands))
	for i, d := range demands {
		quotient, remainder := decimal.NewFromInt(int64(d.NetNeed)).Mul(hub).QuoRem(total, 0)
		remainders[i] = remainder

		// quotient <= need, so it fits a Quantity
		approved := entities.Quantity(quotient.IntPart())
		outcome.Lines[i] = Allocation{
			Key:       d.Key,
			Requested: d.NetNeed,
			Approved:  approved,
			HubStatus: entities.HubShortage,
			Severity:  d.Severity,
		}
		outcome.TotalApproved += approved
	}

	if rule == LargestRemainder {
		distributeLeftover(outcome, remainders)
	}

	return outcome, nil
}

func saturate(total decimal.Decimal) entities.Quantity {
	if total.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return math.MaxInt64
	}
	return entities.Quantity(total.IntPart())
}

// distributeLeftover hands the units lost to flooring back to the lines with the largest
// remainders; ties go to the more urgent line, then to the lower key
func distributeLeftover(outcome *AllocationOutcome, remainders []decimal.Decimal) {
	leftover := outcome.HubStock - outcome.TotalApproved
	if leftover <= 0 {
		return
	}

	order := make([]int, 0, len(remainders))
	for i, r := range remainders {
		if r.IsPositive() {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		la, lb := outcome.Lines[order[a]], outcome.Lines[order[b]]
		if c := remainders[order[a]].Cmp(remainders[order[b]]); c != 0 {
			return c > 0
		}
		if la.Severity != lb.Severity {
			return la.Severity.Rank() < lb.Severity.Rank()
		}
		return la.Key.Less(lb.Key)
	})

	for _, i := range order {
		if leftover == 0 {
			break
		}
		outcome.Lines[i].Approved++
		outcome.TotalApproved++
		leftover--
	}
}

// VisibleLines returns the lines with both a positive need and a positive approval
func (o *AllocationOutcome) VisibleLines() []Allocation {
	visible := make([]Allocation, 0, len(o.Lines))
	for _, line := range o.Lines {
		if line.Requested > 0 && line.Approved > 0 {
			visible = append(visible, line)
		}
	}
	return visible
}

// NetNeed is the whole-unit shortfall of forecasted demand over current stock
func NetNeed(forecast float64, current entities.Quantity) entities.Quantity {
	return wholeUnits(forecast - float64(current))
}

// wholeUnits floors a non-negative quantity, saturating at math.MaxInt64. Negative and NaN
// values are 0.
func wholeUnits(v float64) entities.Quantity {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	// float64(math.MaxInt64) rounds up to 2^63, which no Quantity can hold
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return entities.Quantity(math.Floor(v))
}
