package shared

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// HubPosition holds the upstream stock position of one product
type HubPosition struct {
	Hub       entities.LocationID
	Product   entities.ProductID
	Stock     entities.Quantity
	Reserved  entities.Quantity
	Requested entities.Quantity
}

// Available returns the stock not yet reserved
func (p HubPosition) Available() entities.Quantity {
	return p.Stock - p.Reserved
}

// Status reports whether the hub could cover everything requested of it
func (p HubPosition) Status() entities.HubStatus {
	if p.Requested > p.Stock {
		return entities.HubShortage
	}
	return entities.Sufficient
}

// HubLedger tracks hub stock per product while transfers are approved. Every product has a
// single upstream location and reservations against it are serialised.
type HubLedger struct {
	mu        sync.Mutex
	positions map[entities.ProductID]*HubPosition
}

// NewHubLedger creates an empty ledger
func NewHubLedger() *HubLedger {
	return &HubLedger{positions: make(map[entities.ProductID]*HubPosition)}
}

// Open registers the hub stock of a product. A product cannot be supplied by two hubs.
func (l *HubLedger) Open(hub entities.LocationID, product entities.ProductID, stock entities.Quantity) error {
	if stock < 0 {
		return fmt.Errorf("hub %s stock for %s cannot be negative, got %d", hub, product, stock)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.positions[product]; ok {
		if existing.Hub != hub {
			return fmt.Errorf("product %s is already supplied by %s, cannot open %s", product, existing.Hub, hub)
		}
		return nil
	}
	l.positions[product] = &HubPosition{Hub: hub, Product: product, Stock: stock}
	return nil
}

// Reserve records a request of requested units of which approved are taken from the hub.
// It fails without changing the ledger when approved exceeds the available stock.
func (l *HubLedger) Reserve(product entities.ProductID, requested, approved entities.Quantity) error {
	if approved < 0 || requested < 0 {
		return fmt.Errorf("reservation for %s cannot be negative (requested %d, approved %d)", product, requested, approved)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	position, ok := l.positions[product]
	if !ok {
		return fmt.Errorf("no hub opened for product %s", product)
	}
	if approved > position.Available() {
		return fmt.Errorf("cannot reserve %d of %s from %s: only %d available", approved, product, position.Hub, position.Available())
	}

	position.Reserved += approved
	position.Requested = position.Requested.Plus(requested)
	return nil
}

// Positions returns copies of all positions ordered by product
func (l *HubLedger) Positions() []HubPosition {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make([]HubPosition, 0, len(l.positions))
	for _, position := range l.positions {
		positions = append(positions, *position)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Product < positions[j].Product
	})
	return positions
}

// TotalReserved returns the reserved quantity across all products
func (l *HubLedger) TotalReserved() entities.Quantity {
	var total entities.Quantity
	for _, position := range l.Positions() {
		total = total.Plus(position.Reserved)
	}
	return total
}

// TotalRequested returns the requested quantity across all products
func (l *HubLedger) TotalRequested() entities.Quantity {
	var total entities.Quantity
	for _, position := range l.Positions() {
		total = total.Plus(position.Requested)
	}
	return total
}

// CoverageRatio returns the share of requested units that were approved (0.0 to 1.0)
func (l *HubLedger) CoverageRatio() float64 {
	requested := l.TotalRequested()
	if requested == 0 {
		return 0.0
	}
	return float64(l.TotalReserved()) / float64(requested)
}

// String returns a string representation of the ledger for debugging
func (l *HubLedger) String() string {
	positions := l.Positions()
	if len(positions) == 0 {
		return "HubLedger{empty}"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "HubLedger{%d products:\n", len(positions))
	for _, p := range positions {
		fmt.Fprintf(&b, "  %s@%s: stock=%d, reserved=%d, requested=%d, status=%s\n",
			p.Product, p.Hub, p.Stock, p.Reserved, p.Requested, p.Status())
	}
	b.WriteString("}")
	return b.String()
}
