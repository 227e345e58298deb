package landedcost

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/money"
)

// WarningKind classifies non-blocking data-quality conditions found while
// computing a report.
type WarningKind string

const (
	// WarnOverReceived marks a line item whose receipts exceed the ordered quantity.
	WarnOverReceived WarningKind = "over_received"
	// WarnUnallocatedExpense marks an expense that no item could absorb.
	WarnUnallocatedExpense WarningKind = "unallocated_expense"
	// WarnFOBMismatch marks line-item FOB subtotals that do not add up to the order header.
	WarnFOBMismatch WarningKind = "fob_mismatch"
	// WarnUnlinkedReceipts marks received quantity not matched to any line item.
	WarnUnlinkedReceipts WarningKind = "unlinked_receipts"
	// WarnMissingFXRate marks an order with no foreign payment to derive an FOB conversion rate from.
	WarnMissingFXRate WarningKind = "missing_fx_rate"
)

// Warning is a non-blocking condition surfaced on the report.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	RefID   string      `json:"ref_id,omitempty"`
	Message string      `json:"message"`
}

// RecordIssue flags a single payment or expense that could not be computed
// over. The offending record is excluded from totals; the rest of the order
// still computes, so one corrupt row does not blank out a dashboard.
type RecordIssue struct {
	RecordType string    `json:"record_type"`
	RecordID   uuid.UUID `json:"record_id"`
	Reason     string    `json:"reason"`
}

// ExpenseAllocation is the per-item breakdown of one expense.
type ExpenseAllocation struct {
	ExpenseID   uuid.UUID                  `json:"expense_id"`
	Type        string                     `json:"type"`
	Method      allocation.Method          `json:"method"`
	Amount      money.Amount               `json:"amount"`
	Shares      map[uuid.UUID]money.Amount `json:"shares,omitempty"`
	Unallocated bool                       `json:"unallocated,omitempty"`
}

// ItemCost is one line item's landed-cost figures.
type ItemCost struct {
	LineItemID        uuid.UUID     `json:"line_item_id"`
	SKU               string        `json:"sku"`
	Name              string        `json:"name"`
	OrderedQty        int64         `json:"ordered_qty"`
	ReceivedQty       int64         `json:"received_qty"`
	Complete          bool          `json:"complete"`
	OverReceived      bool          `json:"over_received"`
	FOBSubtotal       money.Amount  `json:"fob_subtotal"`
	FOBSubtotalHome   money.Amount  `json:"fob_subtotal_home"`
	AllocatedExpenses money.Amount  `json:"allocated_expenses"`
	LandedUnitCost    *money.Amount `json:"landed_unit_cost"`
}

// OrderCostReport is the engine's output for a single purchase order. It is a
// pure function of the input snapshot: identical inputs yield an identical
// report.
type OrderCostReport struct {
	OrderID             uuid.UUID           `json:"order_id"`
	Code                string              `json:"code"`
	Supplier            string              `json:"supplier"`
	Home                money.Currency      `json:"home_currency"`
	EffectiveRate       decimal.Decimal     `json:"effective_rate"`
	TotalPaymentsGross  money.Amount        `json:"total_payments_gross"`
	TotalPaymentsNet    money.Amount        `json:"total_payments_net"`
	TotalExpenses       money.Amount        `json:"total_expenses"`
	TotalInvestment     money.Amount        `json:"total_investment"`
	OrderedQty          int64               `json:"ordered_qty"`
	ReceivedQty         int64               `json:"received_qty"`
	UnlinkedReceivedQty int64               `json:"unlinked_received_qty"`
	Complete            bool                `json:"complete"`
	CompletionRatio     decimal.Decimal     `json:"completion_ratio"`
	OrderUnitCost       *money.Amount       `json:"order_unit_cost"`
	Items               []ItemCost          `json:"items"`
	Expenses            []ExpenseAllocation `json:"expenses"`
	Warnings            []Warning           `json:"warnings,omitempty"`
	Issues              []RecordIssue       `json:"issues,omitempty"`
}
