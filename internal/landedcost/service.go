package landedcost

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/money"
	"github.com/noah-isme/backend-importa/internal/obs"
	"github.com/noah-isme/backend-importa/internal/purchase"
	"github.com/noah-isme/backend-importa/internal/receiving"
)

// Source defines the reads needed to assemble an order's cost snapshot.
type Source interface {
	GetOrder(ctx context.Context, id uuid.UUID) (purchase.PurchaseOrder, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]purchase.Payment, error)
	ListExpensesByOrder(ctx context.Context, orderID uuid.UUID) ([]purchase.Expense, error)
	ListReceiptsByOrder(ctx context.Context, orderID uuid.UUID) ([]purchase.Receipt, error)
	ListDistributionRules(ctx context.Context) ([]purchase.DistributionRule, error)
}

// Service assembles snapshots, runs the engine and caches the resulting
// reports. The cache holds derived data only; a miss is always recomputable.
type Service struct {
	Source        Source
	R             *redis.Client
	TTL           time.Duration
	Home          money.Currency
	DefaultMethod allocation.Method
}

func reportKey(orderID uuid.UUID) string {
	return "lc:report:" + orderID.String()
}

// Report returns the landed-cost report for one order, from cache when warm.
func (s *Service) Report(ctx context.Context, orderID uuid.UUID) (OrderCostReport, error) {
	if s == nil || s.Source == nil {
		return OrderCostReport{}, fmt.Errorf("landedcost service not configured")
	}
	key := reportKey(orderID)
	if report, ok := s.fromCache(ctx, key); ok {
		if obs.ReportCacheTotal != nil {
			obs.ReportCacheTotal.WithLabelValues("hit").Inc()
		}
		return report, nil
	}
	if obs.ReportCacheTotal != nil {
		obs.ReportCacheTotal.WithLabelValues("miss").Inc()
	}
	start := time.Now()
	report, err := s.compute(ctx, orderID)
	if err != nil {
		if obs.ReportComputeTotal != nil {
			obs.ReportComputeTotal.WithLabelValues("error").Inc()
		}
		return OrderCostReport{}, err
	}
	if obs.ReportComputeTotal != nil {
		obs.ReportComputeTotal.WithLabelValues("ok").Inc()
	}
	if obs.ReportComputeDuration != nil {
		obs.ReportComputeDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	if obs.ReportWarningsTotal != nil {
		for _, warning := range report.Warnings {
			obs.ReportWarningsTotal.WithLabelValues(string(warning.Kind)).Inc()
		}
	}
	s.store(ctx, key, report)
	return report, nil
}

// Invalidate drops the cached report for one order.
func (s *Service) Invalidate(ctx context.Context, orderID uuid.UUID) {
	if s == nil || s.R == nil {
		return
	}
	_ = s.R.Del(ctx, reportKey(orderID)).Err()
}

// InvalidateAll drops every cached report.
func (s *Service) InvalidateAll(ctx context.Context) {
	if s == nil || s.R == nil {
		return
	}
	iter := s.R.Scan(ctx, 0, "lc:report:*", 100).Iterator()
	for iter.Next(ctx) {
		_ = s.R.Del(ctx, iter.Val()).Err()
	}
}

func (s *Service) compute(ctx context.Context, orderID uuid.UUID) (OrderCostReport, error) {
	order, err := s.Source.GetOrder(ctx, orderID)
	if err != nil {
		return OrderCostReport{}, err
	}
	payments, err := s.Source.ListPaymentsByOrder(ctx, orderID)
	if err != nil {
		return OrderCostReport{}, err
	}
	expenses, err := s.Source.ListExpensesByOrder(ctx, orderID)
	if err != nil {
		return OrderCostReport{}, err
	}
	receipts, err := s.Source.ListReceiptsByOrder(ctx, orderID)
	if err != nil {
		return OrderCostReport{}, err
	}
	rules, err := s.Source.ListDistributionRules(ctx)
	if err != nil {
		return OrderCostReport{}, err
	}
	return Compute(s.buildInput(order, payments, expenses, receipts, rules)), nil
}

// buildInput maps stored rows into the engine's snapshot types.
func (s *Service) buildInput(
	order purchase.PurchaseOrder,
	payments []purchase.Payment,
	expenses []purchase.Expense,
	receipts []purchase.Receipt,
	rules []purchase.DistributionRule,
) Input {
	in := Input{
		Home: s.Home,
		Order: Order{
			ID:         order.ID,
			Code:       order.Code,
			Supplier:   order.Supplier,
			Category:   order.Category,
			OrderDate:  order.OrderDate,
			FOBTotal:   order.FOBTotal,
			OrderedQty: order.OrderedQty,
		},
		Config: Config{
			Default: s.DefaultMethod,
			ByType:  make(map[string]allocation.Method, len(rules)),
		},
	}
	for _, rule := range rules {
		in.Config.ByType[rule.ExpenseType] = rule.Method
	}
	for _, it := range order.Items {
		in.Items = append(in.Items, Item{
			ID:          it.ID,
			SKU:         it.SKU,
			Name:        it.Name,
			Qty:         it.Qty,
			Boxes:       it.Boxes,
			UnitWeight:  it.UnitWeight,
			UnitVolume:  it.UnitVolume,
			UnitPrice:   it.UnitPrice,
			FOBSubtotal: it.FOBSubtotal,
		})
	}
	for _, p := range payments {
		in.Payments = append(in.Payments, Payment{
			ID:       p.ID,
			Date:     p.PaidAt,
			Category: p.Category,
			Method:   p.Method,
			Currency: p.Currency,
			Amount:   p.Amount,
			Fee:      p.Fee,
			Rate:     p.Rate,
		})
	}
	for _, e := range expenses {
		in.Expenses = append(in.Expenses, Expense{
			ID:       e.ID,
			Date:     e.IncurredAt,
			Type:     e.Type,
			Provider: e.Provider,
			Amount:   e.Amount,
			Method:   e.AllocationMethod,
		})
	}
	for _, r := range receipts {
		in.Receipts = append(in.Receipts, receiving.Receipt{
			ID:         r.ID,
			LineItemID: r.LineItemID,
			Qty:        r.Qty,
		})
	}
	return in
}

func (s *Service) fromCache(ctx context.Context, key string) (OrderCostReport, bool) {
	if s.R == nil || s.TTL <= 0 {
		return OrderCostReport{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return OrderCostReport{}, false
	}
	var report OrderCostReport
	if err := json.Unmarshal(data, &report); err != nil {
		return OrderCostReport{}, false
	}
	return report, true
}

func (s *Service) store(ctx context.Context, key string, report OrderCostReport) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
