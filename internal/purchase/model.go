// Package purchase owns the source-of-truth entities for imported orders:
// the order itself, its line items, and the payments, logistics expenses and
// warehouse receipts that accumulate against it. Orders are created once and
// only amended for clerical fields; money-bearing rows are append-only.
package purchase

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/money"
)

// ErrNotFound is returned by stores when a requested order does not exist.
var ErrNotFound = errors.New("purchase: not found")

// PurchaseOrder is the order header. FOB figures are minor units in the order
// currency (USD per supplier convention).
type PurchaseOrder struct {
	ID         uuid.UUID      `json:"id"`
	Code       string         `json:"code"`
	Supplier   string         `json:"supplier"`
	Category   string         `json:"category"`
	OrderDate  time.Time      `json:"order_date"`
	Currency   money.Currency `json:"currency"`
	FOBTotal   int64          `json:"fob_total"`
	OrderedQty int64          `json:"ordered_qty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Items      []LineItem     `json:"items,omitempty"`
}

// LineItem is one purchased SKU on an order.
type LineItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Qty         int64           `json:"qty"`
	Boxes       int64           `json:"boxes"`
	UnitWeight  decimal.Decimal `json:"unit_weight"`
	UnitVolume  decimal.Decimal `json:"unit_volume"`
	UnitPrice   int64           `json:"unit_price"`
	FOBSubtotal int64           `json:"fob_subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Payment is a disbursement against an order. Amount and Fee are minor units
// in Currency; GrossHome and NetHome are the home-currency figures computed at
// write time with the exchange rate in force, mirroring how the bank books the
// transfer. Corrections recompute both.
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	PaidAt    time.Time       `json:"paid_at"`
	Category  string          `json:"category"`
	Method    string          `json:"method"`
	Currency  money.Currency  `json:"currency"`
	Amount    int64           `json:"amount"`
	Fee       int64           `json:"fee"`
	Rate      decimal.Decimal `json:"rate"`
	GrossHome int64           `json:"gross_home"`
	NetHome   int64           `json:"net_home"`
	CreatedAt time.Time       `json:"created_at"`
}

// Expense is a logistics cost for the order, already in home currency.
// AllocationMethod snapshots the distribution method in force when the
// expense was recorded so later config changes never rewrite history.
type Expense struct {
	ID               uuid.UUID         `json:"id"`
	OrderID          uuid.UUID         `json:"order_id"`
	IncurredAt       time.Time         `json:"incurred_at"`
	Type             string            `json:"type"`
	Provider         string            `json:"provider"`
	Amount           int64             `json:"amount"`
	AllocationMethod allocation.Method `json:"allocation_method"`
	Notes            string            `json:"notes,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Receipt records goods arriving at a warehouse. LineItemID is nil while the
// received quantity has not been matched to a catalog item yet.
type Receipt struct {
	ID         uuid.UUID  `json:"id"`
	OrderID    uuid.UUID  `json:"order_id"`
	LineItemID *uuid.UUID `json:"line_item_id,omitempty"`
	ArrivedAt  time.Time  `json:"arrived_at"`
	Warehouse  string     `json:"warehouse"`
	Qty        int64      `json:"qty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DistributionRule maps one expense type to its distribution method.
type DistributionRule struct {
	ExpenseType string            `json:"expense_type"`
	Method      allocation.Method `json:"method"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Transaction is one row of the merged payments+expenses feed shown on the
// dashboard, always in home-currency minor units.
type Transaction struct {
	Kind       string    `json:"kind"` // "payment" or "expense"
	RecordID   uuid.UUID `json:"record_id"`
	OrderID    uuid.UUID `json:"order_id"`
	OrderCode  string    `json:"order_code"`
	OccurredAt time.Time `json:"occurred_at"`
	Label      string    `json:"label"`
	AmountHome int64     `json:"amount_home"`
}
