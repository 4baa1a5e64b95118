package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInactiveItem      = errors.New("inventory item is inactive")
)

type AdjustMode string

const (
	// ModeAuto is the booking-completion path: going below zero clamps at
	// zero and raises a backorder instead of failing.
	ModeAuto AdjustMode = "auto"
	// ModeManual is an operator adjustment: going below zero fails unless
	// explicitly overridden, and overrides are flagged.
	ModeManual AdjustMode = "manual"
)

type Signal string

const (
	SignalLowStock  Signal = "low_stock"
	SignalBackorder Signal = "backorder"
)

type Item struct {
	id            uuid.UUID
	name          string
	currentStock  int32
	threshold     int32
	autoDeduct    bool
	supplierEmail string
	active        bool
}

func ReconstructItem(id uuid.UUID, name string, currentStock, threshold int32, autoDeduct bool, supplierEmail string, active bool) *Item {
	return &Item{
		id:            id,
		name:          name,
		currentStock:  currentStock,
		threshold:     threshold,
		autoDeduct:    autoDeduct,
		supplierEmail: supplierEmail,
		active:        active,
	}
}

type Adjustment struct {
	ItemID    uuid.UUID
	Delta     int32
	NewStock  int32
	Reason    string
	Flagged   bool
	Signals   []Signal
	AppliedAt time.Time
}

// Adjust applies a stock delta and returns the resulting ledger entry.
// The entry's Delta may differ from the requested delta when an
// auto-deduct clamps at zero.
func (i *Item) Adjust(delta int32, mode AdjustMode, reason string, allowNegative bool, at time.Time) (Adjustment, error) {
	if !i.active {
		return Adjustment{}, ErrInactiveItem
	}

	adj := Adjustment{ItemID: i.id, Delta: delta, Reason: reason, AppliedAt: at}
	next := i.currentStock + delta

	if next < 0 && delta < 0 {
		switch mode {
		case ModeAuto:
			// Stock never goes negative on the auto path; booking
			// completion is not blocked, the shortfall becomes a backorder.
			adj.Delta = -i.currentStock
			adj.Flagged = true
			adj.Signals = append(adj.Signals, SignalBackorder)
			next = 0
		case ModeManual:
			if !allowNegative {
				return Adjustment{}, ErrInsufficientStock
			}
			adj.Flagged = true
		}
	}

	i.currentStock = next
	adj.NewStock = next

	if delta < 0 && next <= i.threshold {
		adj.Signals = append(adj.Signals, SignalLowStock)
	}
	return adj, nil
}

func (i *Item) ID() uuid.UUID         { return i.id }
func (i *Item) Name() string          { return i.name }
func (i *Item) CurrentStock() int32   { return i.currentStock }
func (i *Item) Threshold() int32      { return i.threshold }
func (i *Item) AutoDeduct() bool      { return i.autoDeduct }
func (i *Item) SupplierEmail() string { return i.supplierEmail }
func (i *Item) Active() bool          { return i.active }
