// Package landedcost turns a purchase order's payments, shipment expenses and
// warehouse receipts into per-unit landed costs in the home currency. The
// engine is a pure function over an input snapshot: it performs no I/O, owns
// no state, and recomputes everything on every call.
package landedcost

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/money"
	"github.com/noah-isme/backend-importa/internal/receiving"
)

// Order is the purchase-order header as the engine needs it. FOB figures are
// minor units in the order currency (USD).
type Order struct {
	ID         uuid.UUID
	Code       string
	Supplier   string
	Category   string
	OrderDate  time.Time
	FOBTotal   int64
	OrderedQty int64
}

// Item is one purchased line. Monetary fields are USD minor units; physical
// measures are decimals as declared on the order.
type Item struct {
	ID          uuid.UUID
	SKU         string
	Name        string
	Qty         int64
	Boxes       int64
	UnitWeight  decimal.Decimal
	UnitVolume  decimal.Decimal
	UnitPrice   int64
	FOBSubtotal int64
}

// Payment is one disbursement against the order, in its original currency.
// Fee is stated in the payment currency; Rate converts foreign to home and is
// ignored for home-currency payments.
type Payment struct {
	ID       uuid.UUID
	Date     time.Time
	Category string
	Method   string
	Currency money.Currency
	Amount   int64
	Fee      int64
	Rate     decimal.Decimal
}

// Expense is a logistics cost already stated in the home currency. Method is
// the distribution method snapshotted when the expense was recorded; empty
// means the live config decides.
type Expense struct {
	ID       uuid.UUID
	Date     time.Time
	Type     string
	Provider string
	Amount   int64
	Method   allocation.Method
}

// Config maps expense types to distribution methods. Unmapped types use
// Default; an empty Default means by_units.
type Config struct {
	Default allocation.Method
	ByType  map[string]allocation.Method
}

// MethodFor resolves the distribution method for an expense.
func (c Config) MethodFor(e Expense) allocation.Method {
	if e.Method != "" {
		return e.Method
	}
	if m, ok := c.ByType[e.Type]; ok && m != "" {
		return m
	}
	if c.Default != "" {
		return c.Default
	}
	return allocation.MethodByUnits
}

// Input is a consistent snapshot of one order and everything booked against it.
type Input struct {
	Home     money.Currency
	Order    Order
	Items    []Item
	Payments []Payment
	Expenses []Expense
	Receipts []receiving.Receipt
	Config   Config
}

// fobHeaderTolerance is how far, in minor units, the order header FOB total may
// drift from the sum of line subtotals before a warning is raised.
const fobHeaderTolerance = 100

// Compute builds the landed-cost report for one order. Corrupt payments or
// expenses are isolated as RecordIssues and excluded from totals; everything
// else computes. Identical inputs always produce identical reports.
func Compute(in Input) OrderCostReport {
	report := OrderCostReport{
		OrderID:  in.Order.ID,
		Code:     in.Order.Code,
		Supplier: in.Order.Supplier,
		Home:     in.Home,
	}

	orderedQty := in.Order.OrderedQty
	if orderedQty <= 0 {
		for _, it := range in.Items {
			orderedQty += it.Qty
		}
	}

	convertPayments(in, &report)
	allocateExpenses(in, &report)

	orderStatus := receiving.ReconcileOrder(orderedQty, in.Receipts)
	report.OrderedQty = orderStatus.OrderedQty
	report.ReceivedQty = orderStatus.ReceivedQty
	report.UnlinkedReceivedQty = orderStatus.UnlinkedQty
	report.Complete = orderStatus.Complete
	report.CompletionRatio = orderStatus.CompletionRatio
	if orderStatus.UnlinkedQty > 0 {
		report.Warnings = append(report.Warnings, Warning{
			Kind:    WarnUnlinkedReceipts,
			Message: fmt.Sprintf("%d received units are not linked to any line item", orderStatus.UnlinkedQty),
		})
	}

	report.TotalInvestment = money.FromUnits(report.TotalPaymentsNet.Units+report.TotalExpenses.Units, in.Home)
	if report.ReceivedQty > 0 {
		unit, err := report.TotalInvestment.DivInt(report.ReceivedQty)
		if err == nil {
			report.OrderUnitCost = &unit
		}
	}

	buildItemCosts(in, &report)
	checkFOBTotals(in, &report)
	return report
}

// convertPayments converts every payment to home currency and accumulates the
// gross and net totals. Foreign payments also feed the order's effective
// exchange rate, a weighted average used to express FOB values in home
// currency.
func convertPayments(in Input, report *OrderCostReport) {
	report.TotalPaymentsGross = money.Zero(in.Home)
	report.TotalPaymentsNet = money.Zero(in.Home)

	foreignOriginal := decimal.Zero
	foreignGross := decimal.Zero

	for _, p := range in.Payments {
		if p.Amount < 0 || p.Fee < 0 {
			report.Issues = append(report.Issues, RecordIssue{
				RecordType: "payment",
				RecordID:   p.ID,
				Reason:     fmt.Sprintf("%v: negative amount or fee", money.ErrInvalidAmount),
			})
			continue
		}
		conv, err := money.ToHome(
			money.FromUnits(p.Amount, p.Currency),
			money.FromUnits(p.Fee, p.Currency),
			p.Rate,
			in.Home,
		)
		if err != nil {
			report.Issues = append(report.Issues, RecordIssue{
				RecordType: "payment",
				RecordID:   p.ID,
				Reason:     err.Error(),
			})
			continue
		}
		report.TotalPaymentsGross.Units += conv.Gross.Units
		report.TotalPaymentsNet.Units += conv.Net.Units
		if p.Currency != in.Home {
			foreignOriginal = foreignOriginal.Add(decimal.New(p.Amount, -2))
			foreignGross = foreignGross.Add(decimal.New(conv.Gross.Units, -2))
		}
	}

	switch {
	case in.Home == money.USD:
		report.EffectiveRate = decimal.NewFromInt(1)
	case foreignOriginal.Sign() > 0:
		report.EffectiveRate = foreignGross.Div(foreignOriginal)
	default:
		// No foreign payment to observe a rate from. Unit costs fall back to
		// rate 1 for the FOB component; the warning tells the operator the
		// per-item figures are incomplete until a payment is booked.
		report.EffectiveRate = decimal.NewFromInt(1)
		report.Warnings = append(report.Warnings, Warning{
			Kind:    WarnMissingFXRate,
			Message: "no foreign-currency payment recorded; FOB values converted at rate 1",
		})
	}
}

// allocateExpenses splits every expense across line items. The order total is
// always the literal sum of expense amounts; allocation only shapes the
// per-item breakdown.
func allocateExpenses(in Input, report *OrderCostReport) {
	report.TotalExpenses = money.Zero(in.Home)

	allocItems := make([]allocation.Item, 0, len(in.Items))
	for _, it := range in.Items {
		allocItems = append(allocItems, allocation.Item{
			ID:          it.ID,
			Qty:         it.Qty,
			Boxes:       it.Boxes,
			UnitWeight:  it.UnitWeight,
			UnitVolume:  it.UnitVolume,
			UnitPrice:   it.UnitPrice,
			FOBSubtotal: it.FOBSubtotal,
		})
	}

	for _, e := range in.Expenses {
		if e.Amount < 0 {
			report.Issues = append(report.Issues, RecordIssue{
				RecordType: "expense",
				RecordID:   e.ID,
				Reason:     fmt.Sprintf("%v: negative amount", money.ErrInvalidAmount),
			})
			continue
		}
		amount := money.FromUnits(e.Amount, in.Home)
		report.TotalExpenses.Units += amount.Units

		method := in.Config.MethodFor(e)
		entry := ExpenseAllocation{
			ExpenseID: e.ID,
			Type:      e.Type,
			Method:    method,
			Amount:    amount,
		}
		weights := allocation.ResolveWeights(method, allocItems)
		shares := allocation.Allocate(amount, weights)
		if shares == nil {
			entry.Unallocated = true
			report.Warnings = append(report.Warnings, Warning{
				Kind:    WarnUnallocatedExpense,
				RefID:   e.ID.String(),
				Message: fmt.Sprintf("expense %s (%s) has no allocatable line items", e.ID, amount),
			})
		} else {
			entry.Shares = shares
		}
		report.Expenses = append(report.Expenses, entry)
	}
}

// buildItemCosts reconciles receipts per item and derives each item's landed
// unit cost from its home-currency FOB subtotal plus its share of every
// allocated expense.
func buildItemCosts(in Input, report *OrderCostReport) {
	report.Items = make([]ItemCost, 0, len(in.Items))
	for _, it := range in.Items {
		status := receiving.ReconcileItem(it.ID, it.Qty, in.Receipts)

		allocated := money.Zero(in.Home)
		for _, ea := range report.Expenses {
			if share, ok := ea.Shares[it.ID]; ok {
				allocated.Units += share.Units
			}
		}

		fob := money.FromUnits(it.FOBSubtotal, money.USD)
		fobHome := money.Amount{Units: fob.MulDecimal(report.EffectiveRate).Units, Currency: in.Home}

		cost := ItemCost{
			LineItemID:        it.ID,
			SKU:               it.SKU,
			Name:              it.Name,
			OrderedQty:        it.Qty,
			ReceivedQty:       status.ReceivedQty,
			Complete:          status.Complete,
			OverReceived:      status.OverReceived,
			FOBSubtotal:       fob,
			FOBSubtotalHome:   fobHome,
			AllocatedExpenses: allocated,
		}
		if status.ReceivedQty > 0 {
			total := money.FromUnits(fobHome.Units+allocated.Units, in.Home)
			if unit, err := total.DivInt(status.ReceivedQty); err == nil {
				cost.LandedUnitCost = &unit
			}
		}
		if status.OverReceived {
			report.Warnings = append(report.Warnings, Warning{
				Kind:    WarnOverReceived,
				RefID:   it.ID.String(),
				Message: fmt.Sprintf("item %s received %d of %d ordered", it.SKU, status.ReceivedQty, it.Qty),
			})
		}
		report.Items = append(report.Items, cost)
	}
}

// checkFOBTotals compares the order header's FOB total against the sum of line
// subtotals. A mismatch is a data-quality warning; the engine keeps working
// from the computed sum.
func checkFOBTotals(in Input, report *OrderCostReport) {
	if in.Order.FOBTotal <= 0 || len(in.Items) == 0 {
		return
	}
	var sum int64
	for _, it := range in.Items {
		sum += it.FOBSubtotal
	}
	diff := in.Order.FOBTotal - sum
	if diff < 0 {
		diff = -diff
	}
	if diff > fobHeaderTolerance {
		report.Warnings = append(report.Warnings, Warning{
			Kind:  WarnFOBMismatch,
			RefID: in.Order.ID.String(),
			Message: fmt.Sprintf("line subtotals sum to %s but the order declares %s",
				money.FromUnits(sum, money.USD), money.FromUnits(in.Order.FOBTotal, money.USD)),
		})
	}
}
