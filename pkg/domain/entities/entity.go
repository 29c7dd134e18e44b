package entities

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// LocationID identifies a store, hub or warehouse in the network
type LocationID string

// ProductID identifies a product (SKU)
type ProductID string

// Quantity represents an integer quantity value for discrete stock units
type Quantity int64

// Plus adds two non-negative quantities, saturating at math.MaxInt64
func (q Quantity) Plus(n Quantity) Quantity {
	if q > math.MaxInt64-n {
		return math.MaxInt64
	}
	return q + n
}

// LocationKind represents the role a location plays in the network
type LocationKind int

const (
	Store LocationKind = iota
	Hub
	Warehouse
)

// String method for LocationKind enum
func (k LocationKind) String() string {
	switch k {
	case Store:
		return "Store"
	case Hub:
		return "Hub"
	case Warehouse:
		return "Warehouse"
	default:
		return "Unknown"
	}
}

// IsUpstream reports whether the location supplies other locations
func (k LocationKind) IsUpstream() bool {
	return k == Hub || k == Warehouse
}

// ParseLocationKind parses a location type column value. "Spoke" is accepted as a Store.
func ParseLocationKind(s string) (LocationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "store", "spoke":
		return Store, nil
	case "hub":
		return Hub, nil
	case "warehouse":
		return Warehouse, nil
	default:
		return Store, fmt.Errorf("invalid location_type: %s (expected: Hub, Warehouse, Store or Spoke)", s)
	}
}

// EntityKey is the (location, product) pair that identifies a tracked series
type EntityKey struct {
	Location LocationID `json:"location_id"`
	Product  ProductID  `json:"product_id"`
}

// String returns the key as LOCATION/PRODUCT
func (k EntityKey) String() string {
	return fmt.Sprintf("%s/%s", k.Location, k.Product)
}

// Less orders keys by location then product
func (k EntityKey) Less(other EntityKey) bool {
	if k.Location != other.Location {
		return k.Location < other.Location
	}
	return k.Product < other.Product
}

// Entity represents a product stocked at one location, as of the latest observation
type Entity struct {
	Key          EntityKey
	Kind         LocationKind
	LeadTimeDays int
	TargetStock  Quantity
	CurrentStock Quantity
	Price        decimal.Decimal
}

// NewEntity creates a validated Entity
func NewEntity(
	key EntityKey,
	kind LocationKind,
	leadTimeDays int,
	targetStock, currentStock Quantity,
	price decimal.Decimal,
) (*Entity, error) {
	if key.Location == "" {
		return nil, fmt.Errorf("%w: location cannot be empty", ErrInvalidEntity)
	}
	if key.Product == "" {
		return nil, fmt.Errorf("%w: product cannot be empty", ErrInvalidEntity)
	}
	if currentStock < 0 {
		return nil, fmt.Errorf("%w: current stock cannot be negative, got %d", ErrInvalidEntity, currentStock)
	}
	if targetStock < 0 {
		return nil, fmt.Errorf("%w: target stock cannot be negative, got %d", ErrInvalidEntity, targetStock)
	}
	if leadTimeDays < 0 {
		return nil, fmt.Errorf("%w: lead time cannot be negative, got %d", ErrInvalidEntity, leadTimeDays)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative, got %s", ErrInvalidEntity, price.String())
	}

	return &Entity{
		Key:          key,
		Kind:         kind,
		LeadTimeDays: leadTimeDays,
		TargetStock:  targetStock,
		CurrentStock: currentStock,
		Price:        price,
	}, nil
}

// HasTarget reports whether a nominal full level is known for the entity
func (e *Entity) HasTarget() bool {
	return e.TargetStock > 0
}

// FillRate returns current/target capped at 1. Without a target the rate is 0.
func FillRate(current, target Quantity) float64 {
	if target <= 0 {
		return 0
	}
	rate := float64(current) / float64(target)
	if rate > 1 {
		return 1
	}
	return rate
}
