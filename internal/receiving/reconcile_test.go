package receiving

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestReconcileItemPartial(t *testing.T) {
	itemID := uuid.New()
	otherID := uuid.New()
	receipts := []Receipt{
		{ID: uuid.New(), LineItemID: &itemID, Qty: 40},
		{ID: uuid.New(), LineItemID: &itemID, Qty: 30},
		{ID: uuid.New(), LineItemID: &otherID, Qty: 99},
		{ID: uuid.New(), Qty: 5},
	}
	status := ReconcileItem(itemID, 100, receipts)
	if status.ReceivedQty != 70 {
		t.Fatalf("expected 70 received, got %d", status.ReceivedQty)
	}
	if status.Complete || status.OverReceived {
		t.Fatalf("partial receipt should be neither complete nor over-received: %+v", status)
	}
}

func TestReconcileItemOverReceived(t *testing.T) {
	itemID := uuid.New()
	receipts := []Receipt{{ID: uuid.New(), LineItemID: &itemID, Qty: 120}}
	status := ReconcileItem(itemID, 100, receipts)
	if !status.Complete {
		t.Fatal("over-received item should be complete")
	}
	if !status.OverReceived {
		t.Fatal("expected over-received flag")
	}
}

func TestReconcileOrderCountsUnlinked(t *testing.T) {
	itemID := uuid.New()
	receipts := []Receipt{
		{ID: uuid.New(), LineItemID: &itemID, Qty: 60},
		{ID: uuid.New(), Qty: 40},
	}
	status := ReconcileOrder(200, receipts)
	if status.ReceivedQty != 100 {
		t.Fatalf("expected 100 received, got %d", status.ReceivedQty)
	}
	if status.UnlinkedQty != 40 {
		t.Fatalf("expected 40 unlinked, got %d", status.UnlinkedQty)
	}
	if !status.CompletionRatio.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("expected ratio 0.5, got %s", status.CompletionRatio)
	}
	if status.Complete {
		t.Fatal("half-received order should not be complete")
	}
}

func TestReconcileOrderRatioCapped(t *testing.T) {
	status := ReconcileOrder(100, []Receipt{{ID: uuid.New(), Qty: 150}})
	if !status.CompletionRatio.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("ratio should cap at 1, got %s", status.CompletionRatio)
	}
	if !status.Complete {
		t.Fatal("fully received order should be complete")
	}
}

func TestReconcileOrderNoReceipts(t *testing.T) {
	status := ReconcileOrder(100, nil)
	if status.ReceivedQty != 0 || status.Complete {
		t.Fatalf("unexpected status %+v", status)
	}
	if !status.CompletionRatio.IsZero() {
		t.Fatalf("expected zero ratio, got %s", status.CompletionRatio)
	}
}
