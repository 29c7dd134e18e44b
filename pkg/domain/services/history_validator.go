package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// ValidationResult contains the results of history table validation
type ValidationResult struct {
	DuplicateRows      []*entities.HistoryRecord
	ProductsWithoutHub []entities.ProductID
	// ConflictingHubs maps a product to the upstream locations that stock it
	ConflictingHubs     map[entities.ProductID][]entities.LocationID
	StoresWithoutTarget []entities.EntityKey
	Errors              []string
	Warnings            []string
}

// HasErrors reports whether the table cannot be planned
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ValidateHistory checks a history table for structural problems before planning.
// More than one upstream location per product is an error (the allocation model has a
// single source per product); duplicates and missing hubs or targets are warnings.
func ValidateHistory(records []*entities.HistoryRecord) *ValidationResult {
	result := &ValidationResult{
		DuplicateRows:       make([]*entities.HistoryRecord, 0),
		ProductsWithoutHub:  make([]entities.ProductID, 0),
		ConflictingHubs:     make(map[entities.ProductID][]entities.LocationID),
		StoresWithoutTarget: make([]entities.EntityKey, 0),
		Errors:              make([]string, 0),
		Warnings:            make([]string, 0),
	}

	result.DuplicateRows = detectDuplicateRows(records)

	hubs := buildHubMap(records)
	products := make(map[entities.ProductID]bool)
	latest := make(map[entities.EntityKey]*entities.HistoryRecord)
	for _, record := range records {
		products[record.Product] = true
		if prev, exists := latest[record.Key()]; !exists || !record.Date.Before(prev.Date) {
			latest[record.Key()] = record
		}
	}

	for _, product := range sortedProducts(products) {
		locations := hubs[product]
		switch {
		case len(locations) == 0:
			result.ProductsWithoutHub = append(result.ProductsWithoutHub, product)
		case len(locations) > 1:
			result.ConflictingHubs[product] = locations
			result.Errors = append(result.Errors, fmt.Sprintf("Product %s has %d upstream locations: %v", product, len(locations), locations))
		}
	}

	for key, record := range latest {
		if record.LocationKind == entities.Store && record.TargetStock <= 0 {
			result.StoresWithoutTarget = append(result.StoresWithoutTarget, key)
		}
	}
	sort.Slice(result.StoresWithoutTarget, func(i, j int) bool {
		return result.StoresWithoutTarget[i].Less(result.StoresWithoutTarget[j])
	})

	if len(result.DuplicateRows) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Found %d duplicate history rows", len(result.DuplicateRows)))
	}
	if len(result.ProductsWithoutHub) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Products without an upstream location: %v", result.ProductsWithoutHub))
	}
	if len(result.StoresWithoutTarget) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Found %d store entities without target stock", len(result.StoresWithoutTarget)))
	}

	return result
}

// buildHubMap creates a map of product -> upstream locations stocking it
func buildHubMap(records []*entities.HistoryRecord) map[entities.ProductID][]entities.LocationID {
	hubs := make(map[entities.ProductID][]entities.LocationID)

	for _, record := range records {
		if !record.LocationKind.IsUpstream() {
			continue
		}

		// Avoid duplicate locations in the list
		found := false
		for _, location := range hubs[record.Product] {
			if location == record.Location {
				found = true
				break
			}
		}

		if !found {
			hubs[record.Product] = append(hubs[record.Product], record.Location)
		}
	}

	for product := range hubs {
		sort.Slice(hubs[product], func(i, j int) bool {
			return hubs[product][i] < hubs[product][j]
		})
	}

	return hubs
}

// detectDuplicateRows finds rows observed more than once for the same entity and date
func detectDuplicateRows(records []*entities.HistoryRecord) []*entities.HistoryRecord {
	seen := make(map[string]bool)
	duplicates := make([]*entities.HistoryRecord, 0)

	for _, record := range records {
		key := fmt.Sprintf("%s|%s|%s", record.Location, record.Product, record.Date.Format("2006-01-02"))
		if seen[key] {
			duplicates = append(duplicates, record)
		} else {
			seen[key] = true
		}
	}

	return duplicates
}

func sortedProducts(products map[entities.ProductID]bool) []entities.ProductID {
	sorted := make([]entities.ProductID, 0, len(products))
	for product := range products {
		sorted = append(sorted, product)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	return sorted
}
