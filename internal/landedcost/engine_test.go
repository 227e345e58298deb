package landedcost

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/money"
	"github.com/noah-isme/backend-importa/internal/receiving"
)

// fixtureInput builds the canonical two-item order: 100 units at $2.00 and 300
// units at $1.00, one $500 payment at 58 RD$/USD with a $10 fee, and RD$5,000
// of freight split by FOB value.
func fixtureInput() Input {
	itemA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	itemB := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	orderID := uuid.MustParse("33333333-3333-3333-3333-333333333333")

	receiptsFor := func(id uuid.UUID, qty int64) receiving.Receipt {
		linked := id
		return receiving.Receipt{ID: uuid.New(), LineItemID: &linked, Qty: qty}
	}

	return Input{
		Home: money.DOP,
		Order: Order{
			ID:       orderID,
			Code:     "PO-2024-001",
			Supplier: "Guangzhou Trading Co",
			FOBTotal: 50_000, // $500.00
		},
		Items: []Item{
			{ID: itemA, SKU: "SKU-A", Name: "Widget A", Qty: 100, UnitPrice: 200, FOBSubtotal: 20_000},
			{ID: itemB, SKU: "SKU-B", Name: "Widget B", Qty: 300, UnitPrice: 100, FOBSubtotal: 30_000},
		},
		Payments: []Payment{
			{
				ID:       uuid.MustParse("44444444-4444-4444-4444-444444444444"),
				Category: "final",
				Currency: money.USD,
				Amount:   50_000, // $500.00
				Fee:      1_000,  // $10.00
				Rate:     decimal.NewFromInt(58),
			},
		},
		Expenses: []Expense{
			{
				ID:     uuid.MustParse("55555555-5555-5555-5555-555555555555"),
				Type:   "freight",
				Amount: 500_000, // RD$5,000.00
				Method: allocation.MethodByFOBValue,
			},
		},
		Receipts: []receiving.Receipt{
			receiptsFor(itemA, 100),
			receiptsFor(itemB, 300),
		},
	}
}

func TestComputeCanonicalOrder(t *testing.T) {
	report := Compute(fixtureInput())

	if len(report.Issues) != 0 {
		t.Fatalf("unexpected issues: %+v", report.Issues)
	}
	// Payment: (500 x 58) - (10 x 58) = RD$28,420.00 net.
	if report.TotalPaymentsGross.Units != 2_900_000 {
		t.Fatalf("gross payments: expected 2900000, got %d", report.TotalPaymentsGross.Units)
	}
	if report.TotalPaymentsNet.Units != 2_842_000 {
		t.Fatalf("net payments: expected 2842000, got %d", report.TotalPaymentsNet.Units)
	}
	if report.TotalExpenses.Units != 500_000 {
		t.Fatalf("expenses: expected 500000, got %d", report.TotalExpenses.Units)
	}
	// Total investment 28,420 + 5,000 = RD$33,420.00.
	if report.TotalInvestment.Units != 3_342_000 {
		t.Fatalf("investment: expected 3342000, got %d", report.TotalInvestment.Units)
	}
	// 33,420 / 400 units = RD$83.55.
	if report.OrderUnitCost == nil {
		t.Fatal("expected order unit cost")
	}
	if report.OrderUnitCost.Units != 8_355 {
		t.Fatalf("order unit cost: expected 8355, got %d", report.OrderUnitCost.Units)
	}
	if !report.Complete {
		t.Fatal("fully received order should be complete")
	}

	// Freight splits 40/60 by FOB value.
	if len(report.Expenses) != 1 {
		t.Fatalf("expected 1 expense allocation, got %d", len(report.Expenses))
	}
	shares := report.Expenses[0].Shares
	itemA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	itemB := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	if shares[itemA].Units != 200_000 {
		t.Fatalf("item A freight: expected 200000, got %d", shares[itemA].Units)
	}
	if shares[itemB].Units != 300_000 {
		t.Fatalf("item B freight: expected 300000, got %d", shares[itemB].Units)
	}

	// Effective rate is 58, so item A lands at (20000x58 + 2000)/100 units.
	if !report.EffectiveRate.Equal(decimal.NewFromInt(58)) {
		t.Fatalf("expected effective rate 58, got %s", report.EffectiveRate)
	}
	for _, item := range report.Items {
		if item.LandedUnitCost == nil {
			t.Fatalf("item %s: expected landed unit cost", item.SKU)
		}
	}
	// Item A: FOB home 200x58 = RD$11,600 + RD$2,000 freight over 100 units = RD$136.00/unit.
	if got := report.Items[0].LandedUnitCost.Units; got != 13_600 {
		t.Fatalf("item A unit cost: expected 13600, got %d", got)
	}
	// Item B: FOB home 300x58 = RD$17,400 + RD$3,000 freight over 300 units = RD$68.00/unit.
	if got := report.Items[1].LandedUnitCost.Units; got != 6_800 {
		t.Fatalf("item B unit cost: expected 6800, got %d", got)
	}
}

func TestComputeIdempotent(t *testing.T) {
	in := fixtureInput()
	first, err := json.Marshal(Compute(in))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(Compute(in))
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(first) != string(again) {
			t.Fatalf("run %d: report changed between identical computations", i)
		}
	}
}

func TestComputeZeroReceipts(t *testing.T) {
	in := fixtureInput()
	in.Receipts = nil
	report := Compute(in)
	if report.TotalInvestment.Units != 3_342_000 {
		t.Fatalf("investment should still compute: got %d", report.TotalInvestment.Units)
	}
	if report.OrderUnitCost != nil {
		t.Fatalf("zero-receipt order must have no unit cost, got %v", report.OrderUnitCost)
	}
	for _, item := range report.Items {
		if item.LandedUnitCost != nil {
			t.Fatalf("item %s: expected nil unit cost, got %v", item.SKU, item.LandedUnitCost)
		}
	}
	if report.Complete {
		t.Fatal("zero-receipt order cannot be complete")
	}
}

func TestComputeIsolatesBadPayment(t *testing.T) {
	in := fixtureInput()
	in.Payments = append(in.Payments, Payment{
		ID:       uuid.New(),
		Currency: money.USD,
		Amount:   10_000,
		Rate:     decimal.Zero, // corrupt: foreign payment without a rate
	})
	report := Compute(in)
	if len(report.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %+v", report.Issues)
	}
	if report.Issues[0].RecordType != "payment" {
		t.Fatalf("unexpected issue %+v", report.Issues[0])
	}
	// The good payment still counts.
	if report.TotalPaymentsNet.Units != 2_842_000 {
		t.Fatalf("net payments: expected 2842000, got %d", report.TotalPaymentsNet.Units)
	}
}

func TestComputeUnallocatableExpense(t *testing.T) {
	in := fixtureInput()
	in.Items = nil
	in.Receipts = nil
	report := Compute(in)
	if len(report.Expenses) != 1 || !report.Expenses[0].Unallocated {
		t.Fatalf("expected unallocated expense, got %+v", report.Expenses)
	}
	// The order total still carries the full expense amount.
	if report.TotalExpenses.Units != 500_000 {
		t.Fatalf("expenses: expected 500000, got %d", report.TotalExpenses.Units)
	}
	found := false
	for _, w := range report.Warnings {
		if w.Kind == WarnUnallocatedExpense {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected unallocated-expense warning, got %+v", report.Warnings)
	}
}

func TestComputeOverReceiptWarns(t *testing.T) {
	in := fixtureInput()
	itemA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	in.Receipts = append(in.Receipts, receiving.Receipt{ID: uuid.New(), LineItemID: &itemA, Qty: 25})
	report := Compute(in)
	var warned bool
	for _, w := range report.Warnings {
		if w.Kind == WarnOverReceived && w.RefID == itemA.String() {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected over-received warning, got %+v", report.Warnings)
	}
	if report.Items[0].ReceivedQty != 125 {
		t.Fatalf("expected 125 received, got %d", report.Items[0].ReceivedQty)
	}
	if report.OrderUnitCost == nil {
		t.Fatal("over-receipt must not block cost computation")
	}
}

func TestComputeFOBMismatchWarns(t *testing.T) {
	in := fixtureInput()
	in.Order.FOBTotal = 60_000 // header drifted from the 50,000 line sum
	report := Compute(in)
	var warned bool
	for _, w := range report.Warnings {
		if w.Kind == WarnFOBMismatch {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected FOB mismatch warning, got %+v", report.Warnings)
	}
	// Engine proceeds; totals are unaffected by the header field.
	if report.TotalInvestment.Units != 3_342_000 {
		t.Fatalf("investment: expected 3342000, got %d", report.TotalInvestment.Units)
	}
}

func TestComputeUnlinkedReceipts(t *testing.T) {
	in := fixtureInput()
	in.Receipts = append(in.Receipts, receiving.Receipt{ID: uuid.New(), Qty: 10})
	report := Compute(in)
	if report.UnlinkedReceivedQty != 10 {
		t.Fatalf("expected 10 unlinked, got %d", report.UnlinkedReceivedQty)
	}
	var warned bool
	for _, w := range report.Warnings {
		if w.Kind == WarnUnlinkedReceipts {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected unlinked-receipts warning, got %+v", report.Warnings)
	}
	// Unlinked quantity raises order-level received qty but no item's.
	if report.ReceivedQty != 410 {
		t.Fatalf("expected 410 received, got %d", report.ReceivedQty)
	}
}

func TestConfigMethodPrecedence(t *testing.T) {
	cfg := Config{
		Default: allocation.MethodByUnits,
		ByType:  map[string]allocation.Method{"freight": allocation.MethodByWeight},
	}
	snapshotted := Expense{Type: "freight", Method: allocation.MethodByVolume}
	if got := cfg.MethodFor(snapshotted); got != allocation.MethodByVolume {
		t.Fatalf("snapshot should win, got %s", got)
	}
	live := Expense{Type: "freight"}
	if got := cfg.MethodFor(live); got != allocation.MethodByWeight {
		t.Fatalf("config mapping should apply, got %s", got)
	}
	unmapped := Expense{Type: "warehousing"}
	if got := cfg.MethodFor(unmapped); got != allocation.MethodByUnits {
		t.Fatalf("default should apply, got %s", got)
	}
	empty := Config{}
	if got := empty.MethodFor(unmapped); got != allocation.MethodByUnits {
		t.Fatalf("by_units is the final fallback, got %s", got)
	}
}
