package landedcost_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/events"
	"github.com/noah-isme/backend-importa/internal/landedcost"
	"github.com/noah-isme/backend-importa/internal/money"
	"github.com/noah-isme/backend-importa/internal/purchase"
)

type stubSource struct {
	order    purchase.PurchaseOrder
	payments []purchase.Payment
	expenses []purchase.Expense
	receipts []purchase.Receipt
	rules    []purchase.DistributionRule

	orderCalls int
}

func (s *stubSource) GetOrder(_ context.Context, id uuid.UUID) (purchase.PurchaseOrder, error) {
	s.orderCalls++
	if id != s.order.ID {
		return purchase.PurchaseOrder{}, purchase.ErrNotFound
	}
	return s.order, nil
}

func (s *stubSource) ListPaymentsByOrder(_ context.Context, _ uuid.UUID) ([]purchase.Payment, error) {
	return s.payments, nil
}

func (s *stubSource) ListExpensesByOrder(_ context.Context, _ uuid.UUID) ([]purchase.Expense, error) {
	return s.expenses, nil
}

func (s *stubSource) ListReceiptsByOrder(_ context.Context, _ uuid.UUID) ([]purchase.Receipt, error) {
	return s.receipts, nil
}

func (s *stubSource) ListDistributionRules(_ context.Context) ([]purchase.DistributionRule, error) {
	return s.rules, nil
}

func fixtureSource() *stubSource {
	orderID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	itemA := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	itemB := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	return &stubSource{
		order: purchase.PurchaseOrder{
			ID:         orderID,
			Code:       "PO-2024-001",
			Supplier:   "Shenzhen Trading Co",
			OrderDate:  time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
			Currency:   money.USD,
			FOBTotal:   50000,
			OrderedQty: 400,
			Items: []purchase.LineItem{
				{ID: itemA, OrderID: orderID, SKU: "WID-A", Qty: 100, UnitPrice: 200, FOBSubtotal: 20000},
				{ID: itemB, OrderID: orderID, SKU: "WID-B", Qty: 300, UnitPrice: 100, FOBSubtotal: 30000},
			},
		},
		payments: []purchase.Payment{{
			ID: uuid.New(), OrderID: orderID, PaidAt: time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC),
			Category: "deposit", Currency: money.USD, Amount: 50000, Fee: 1000,
			Rate: decimal.NewFromInt(58), GrossHome: 2900000, NetHome: 2842000,
		}},
		expenses: []purchase.Expense{{
			ID: uuid.New(), OrderID: orderID, IncurredAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			Type: "freight", Amount: 500000, AllocationMethod: allocation.MethodByFOBValue,
		}},
		receipts: []purchase.Receipt{
			{ID: uuid.New(), OrderID: orderID, LineItemID: &itemA, Qty: 100},
			{ID: uuid.New(), OrderID: orderID, LineItemID: &itemB, Qty: 300},
		},
	}
}

func newTestService(t *testing.T, src *stubSource) (*landedcost.Service, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &landedcost.Service{
		Source:        src,
		R:             rdb,
		TTL:           time.Minute,
		Home:          money.DOP,
		DefaultMethod: allocation.MethodByUnits,
	}, mr
}

func TestReportComputesAndCaches(t *testing.T) {
	src := fixtureSource()
	svc, _ := newTestService(t, src)
	ctx := context.Background()

	report, err := svc.Report(ctx, src.order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2842000), report.TotalPaymentsNet.Units)
	assert.Equal(t, int64(500000), report.TotalExpenses.Units)
	assert.Equal(t, int64(3342000), report.TotalInvestment.Units)
	require.NotNil(t, report.OrderUnitCost)
	assert.Equal(t, int64(8355), report.OrderUnitCost.Units)

	cached, err := svc.Report(ctx, src.order.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, src.orderCalls, "second read must hit the cache")
	assert.Equal(t, report.TotalInvestment, cached.TotalInvestment)
	assert.Equal(t, report.Items, cached.Items)
}

func TestReportUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t, fixtureSource())
	_, err := svc.Report(context.Background(), uuid.New())
	require.ErrorIs(t, err, purchase.ErrNotFound)
}

func TestRulesFeedConfigForLegacyExpenses(t *testing.T) {
	src := fixtureSource()
	// Legacy row without a snapshotted method: the live rule decides.
	src.expenses[0].AllocationMethod = ""
	src.rules = []purchase.DistributionRule{{ExpenseType: "freight", Method: allocation.MethodByFOBValue}}
	svc, _ := newTestService(t, src)

	report, err := svc.Report(context.Background(), src.order.ID)
	require.NoError(t, err)
	require.Len(t, report.Expenses, 1)
	assert.Equal(t, allocation.MethodByFOBValue, report.Expenses[0].Method)
}

func TestInvalidatorEvictsPerOrder(t *testing.T) {
	src := fixtureSource()
	svc, _ := newTestService(t, src)
	ctx := context.Background()

	_, err := svc.Report(ctx, src.order.ID)
	require.NoError(t, err)

	inv := &landedcost.Invalidator{Svc: svc}
	require.NoError(t, inv.Notify(ctx, events.Event{
		Topic:       events.TopicPaymentRecorded,
		AggregateID: src.order.ID,
	}))

	_, err = svc.Report(ctx, src.order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, src.orderCalls, "eviction forces a recompute")
}

func TestInvalidatorConfigChangeClearsAll(t *testing.T) {
	src := fixtureSource()
	svc, mr := newTestService(t, src)
	ctx := context.Background()

	_, err := svc.Report(ctx, src.order.ID)
	require.NoError(t, err)
	require.NotEmpty(t, mr.Keys())

	inv := &landedcost.Invalidator{Svc: svc}
	require.NoError(t, inv.Notify(ctx, events.Event{
		Topic:       events.TopicConfigChanged,
		AggregateID: uuid.New(),
	}))
	assert.Empty(t, mr.Keys())
}
