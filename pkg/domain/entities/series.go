package entities

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TimeSeriesPoint is one observed demand value
type TimeSeriesPoint struct {
	Time  time.Time
	Value float64
}

// Series is a demand history for one entity
type Series []TimeSeriesPoint

// NewSeries copies the points into a chronologically sorted Series
func NewSeries(points []TimeSeriesPoint) (Series, error) {
	series := make(Series, len(points))
	for i, p := range points {
		if p.Value < 0 {
			return nil, fmt.Errorf("point %d at %s has negative value %v", i, p.Time.Format("2006-01-02"), p.Value)
		}
		series[i] = p
	}
	series.Sort()
	return series, nil
}

// Sort orders points chronologically, keeping the input order of equal timestamps
func (s Series) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Time.Before(s[j].Time)
	})
}

// IsSorted reports whether the points are in chronological order
func (s Series) IsSorted() bool {
	return sort.SliceIsSorted(s, func(i, j int) bool {
		return s[i].Time.Before(s[j].Time)
	})
}

// Values returns the point values in order
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// Last returns the most recent point
func (s Series) Last() (TimeSeriesPoint, bool) {
	if len(s) == 0 {
		return TimeSeriesPoint{}, false
	}
	return s[len(s)-1], true
}

// Tail returns the last n points (or all of them when n exceeds the length)
func (s Series) Tail(n int) Series {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// DailyTotals sums points that fall on the same calendar day (UTC).
// The receiver must be sorted.
func (s Series) DailyTotals() Series {
	var totals Series
	for _, p := range s {
		day := truncateToDay(p.Time)
		if n := len(totals); n > 0 && totals[n-1].Time.Equal(day) {
			totals[n-1].Value += p.Value
			continue
		}
		totals = append(totals, TimeSeriesPoint{Time: day, Value: p.Value})
	}
	return totals
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// HistoryRecord is one row of the historical input table
type HistoryRecord struct {
	Date          time.Time
	Location      LocationID
	LocationKind  LocationKind
	Product       ProductID
	SalesQuantity Quantity
	// SalesMissing marks a row whose sales cell was empty; the value is forward-filled on load
	SalesMissing bool
	CurrentStock Quantity
	LeadTimeDays int
	TargetStock  Quantity
	Price        decimal.Decimal
}

// Key returns the entity key of the record
func (r *HistoryRecord) Key() EntityKey {
	return EntityKey{Location: r.Location, Product: r.Product}
}

// FillMissingSales forward-fills rows flagged SalesMissing with the previous observed sales
// of the same entity in date order. Leading gaps become zero.
func FillMissingSales(records []*HistoryRecord) {
	byKey := make(map[EntityKey][]*HistoryRecord)
	for _, record := range records {
		byKey[record.Key()] = append(byKey[record.Key()], record)
	}

	for _, rows := range byKey {
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Date.Before(rows[j].Date)
		})

		var last Quantity
		for _, row := range rows {
			if row.SalesMissing {
				row.SalesQuantity = last
				continue
			}
			last = row.SalesQuantity
		}
	}
}
