// Package receiving matches cumulative warehouse receipts against ordered
// quantities. It is a pure computation: callers supply a snapshot of receipts
// and get completion state back, nothing is persisted here.
package receiving

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt is one arrival event. LineItemID is nil for quantity that has been
// received but not yet matched to a catalog item.
type Receipt struct {
	ID         uuid.UUID
	LineItemID *uuid.UUID
	Qty        int64
}

// ItemStatus is the receiving state of a single line item.
type ItemStatus struct {
	ReceivedQty  int64
	Complete     bool
	OverReceived bool
}

// OrderStatus aggregates receiving across an order.
type OrderStatus struct {
	OrderedQty      int64
	ReceivedQty     int64
	UnlinkedQty     int64
	Complete        bool
	CompletionRatio decimal.Decimal
}

// ReconcileItem sums the receipts linked to the given item. Over-receipt is a
// warning condition, never an error: physical over-shipment happens and must
// not block cost computation.
func ReconcileItem(itemID uuid.UUID, orderedQty int64, receipts []Receipt) ItemStatus {
	var received int64
	for _, r := range receipts {
		if r.LineItemID != nil && *r.LineItemID == itemID {
			received += r.Qty
		}
	}
	return ItemStatus{
		ReceivedQty:  received,
		Complete:     received >= orderedQty && orderedQty > 0,
		OverReceived: received > orderedQty,
	}
}

// ReconcileOrder rolls receipts up to the order level. Unlinked receipts count
// toward the order's received quantity (the goods are physically here) but are
// reported separately so they can be matched later.
func ReconcileOrder(orderedQty int64, receipts []Receipt) OrderStatus {
	var received, unlinked int64
	for _, r := range receipts {
		received += r.Qty
		if r.LineItemID == nil {
			unlinked += r.Qty
		}
	}
	status := OrderStatus{
		OrderedQty:  orderedQty,
		ReceivedQty: received,
		UnlinkedQty: unlinked,
		Complete:    orderedQty > 0 && received >= orderedQty,
	}
	if orderedQty > 0 {
		ratio := decimal.NewFromInt(received).Div(decimal.NewFromInt(orderedQty))
		if ratio.GreaterThan(decimal.NewFromInt(1)) {
			ratio = decimal.NewFromInt(1)
		}
		status.CompletionRatio = ratio
	}
	return status
}
