package portfolio_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-importa/internal/events"
	"github.com/noah-isme/backend-importa/internal/landedcost"
	"github.com/noah-isme/backend-importa/internal/money"
	"github.com/noah-isme/backend-importa/internal/portfolio"
	"github.com/noah-isme/backend-importa/internal/purchase"
)

type stubSource struct {
	ids       []uuid.UUID
	feed      []purchase.Transaction
	listCalls int
}

func (s *stubSource) ListOrderIDs(_ context.Context) ([]uuid.UUID, error) {
	s.listCalls++
	return s.ids, nil
}

func (s *stubSource) RecentTransactions(_ context.Context, limit int32) ([]purchase.Transaction, error) {
	if int(limit) < len(s.feed) {
		return s.feed[:limit], nil
	}
	return s.feed, nil
}

type stubReporter struct {
	reports map[uuid.UUID]landedcost.OrderCostReport
}

func (s *stubReporter) Report(_ context.Context, orderID uuid.UUID) (landedcost.OrderCostReport, error) {
	return s.reports[orderID], nil
}

func newTestService(t *testing.T) (*portfolio.Service, *stubSource, *miniredis.Miniredis) {
	t.Helper()
	idA, idB := uuid.New(), uuid.New()
	source := &stubSource{
		ids: []uuid.UUID{idA, idB},
		feed: []purchase.Transaction{
			{Kind: "payment", RecordID: uuid.New(), OrderCode: "PO-1", AmountHome: 2842000},
			{Kind: "expense", RecordID: uuid.New(), OrderCode: "PO-1", AmountHome: 500000},
		},
	}
	reporter := &stubReporter{reports: map[uuid.UUID]landedcost.OrderCostReport{
		idA: {
			OrderID: idA, Code: "PO-1", Supplier: "Shenzhen Trading Co", Home: money.DOP,
			OrderedQty: 400, ReceivedQty: 400, Complete: true,
			TotalInvestment: money.FromUnits(3342000, money.DOP),
		},
		idB: {
			OrderID: idB, Code: "PO-2", Supplier: "Guangzhou Exports", Home: money.DOP,
			OrderedQty: 200, ReceivedQty: 50,
			TotalInvestment: money.FromUnits(800000, money.DOP),
		},
	}}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	return &portfolio.Service{
		Source:   source,
		Reporter: reporter,
		R:        rdb,
		TTL:      time.Minute,
		Home:     money.DOP,
		TopN:     5,
	}, source, mr
}

func TestOverviewFoldsAndCaches(t *testing.T) {
	svc, source, _ := newTestService(t)
	ctx := context.Background()

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.Orders)
	assert.Equal(t, 1, overview.CompletedOrders)
	assert.Equal(t, int64(4142000), overview.TotalInvestment.Units)
	assert.Equal(t, int64(150), overview.UnitsVariance)

	cached, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, source.listCalls, "second read must hit the cache")
	assert.Equal(t, overview.TotalInvestment, cached.TotalInvestment)
}

func TestRefreshReplacesCache(t *testing.T) {
	svc, source, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Overview(ctx)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.listCalls, "refresh always recomputes")
}

func TestInvalidatorEvictsOnOrderEvents(t *testing.T) {
	svc, source, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Overview(ctx)
	require.NoError(t, err)

	inv := &portfolio.Invalidator{Svc: svc}
	require.NoError(t, inv.Notify(ctx, events.Event{Topic: events.TopicReceiptRecorded, AggregateID: uuid.New()}))

	_, err = svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.listCalls)

	// Unrelated topics leave the cache alone.
	require.NoError(t, inv.Notify(ctx, events.Event{Topic: "billing.closed", AggregateID: uuid.New()}))
	_, err = svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.listCalls)
}

func TestTransactionsLimit(t *testing.T) {
	svc, _, _ := newTestService(t)

	feed, err := svc.Transactions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "payment", feed[0].Kind)
}
