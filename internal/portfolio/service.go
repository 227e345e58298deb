package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-importa/internal/landedcost"
	"github.com/noah-isme/backend-importa/internal/money"
	"github.com/noah-isme/backend-importa/internal/obs"
	"github.com/noah-isme/backend-importa/internal/purchase"
)

const overviewKey = "pf:overview"

// Reporter produces one order's landed-cost report.
type Reporter interface {
	Report(ctx context.Context, orderID uuid.UUID) (landedcost.OrderCostReport, error)
}

// Source lists the orders and the merged transaction feed.
type Source interface {
	ListOrderIDs(ctx context.Context) ([]uuid.UUID, error)
	RecentTransactions(ctx context.Context, limit int32) ([]purchase.Transaction, error)
}

// Service folds every order's report into the portfolio overview and caches
// the result. Individual reports come through the landed-cost service, so
// warm per-order caches make the fold cheap.
type Service struct {
	Source   Source
	Reporter Reporter
	R        *redis.Client
	TTL      time.Duration
	Home     money.Currency
	TopN     int
}

// Overview returns the cached or freshly folded portfolio KPIs.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	if s == nil || s.Source == nil || s.Reporter == nil {
		return Overview{}, fmt.Errorf("portfolio service not configured")
	}
	if overview, ok := s.fromCache(ctx); ok {
		return overview, nil
	}
	overview, err := s.fold(ctx)
	if err != nil {
		return Overview{}, err
	}
	s.store(ctx, overview)
	return overview, nil
}

// Refresh recomputes the overview and replaces the cached copy. The worker
// calls this on a schedule so dashboard reads stay warm.
func (s *Service) Refresh(ctx context.Context) (Overview, error) {
	if s == nil || s.Source == nil || s.Reporter == nil {
		return Overview{}, fmt.Errorf("portfolio service not configured")
	}
	overview, err := s.fold(ctx)
	if err != nil {
		if obs.PortfolioRefreshTotal != nil {
			obs.PortfolioRefreshTotal.WithLabelValues("error").Inc()
		}
		return Overview{}, err
	}
	if obs.PortfolioRefreshTotal != nil {
		obs.PortfolioRefreshTotal.WithLabelValues("ok").Inc()
	}
	s.store(ctx, overview)
	return overview, nil
}

// Invalidate drops the cached overview.
func (s *Service) Invalidate(ctx context.Context) {
	if s == nil || s.R == nil {
		return
	}
	_ = s.R.Del(ctx, overviewKey).Err()
}

// Transactions returns the merged payment and expense feed, newest first.
func (s *Service) Transactions(ctx context.Context, limit int32) ([]purchase.Transaction, error) {
	if s == nil || s.Source == nil {
		return nil, fmt.Errorf("portfolio service not configured")
	}
	return s.Source.RecentTransactions(ctx, limit)
}

func (s *Service) fold(ctx context.Context) (Overview, error) {
	ids, err := s.Source.ListOrderIDs(ctx)
	if err != nil {
		return Overview{}, err
	}
	reports := make([]landedcost.OrderCostReport, 0, len(ids))
	for _, id := range ids {
		report, err := s.Reporter.Report(ctx, id)
		if err != nil {
			return Overview{}, fmt.Errorf("portfolio: report for %s: %w", id, err)
		}
		reports = append(reports, report)
	}
	return Fold(s.Home, reports, s.TopN), nil
}

func (s *Service) fromCache(ctx context.Context) (Overview, bool) {
	if s.R == nil || s.TTL <= 0 {
		return Overview{}, false
	}
	data, err := s.R.Get(ctx, overviewKey).Bytes()
	if err != nil {
		return Overview{}, false
	}
	var overview Overview
	if err := json.Unmarshal(data, &overview); err != nil {
		return Overview{}, false
	}
	return overview, true
}

func (s *Service) store(ctx context.Context, overview Overview) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(overview)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, overviewKey, data, s.TTL).Err()
}
