package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ReportComputeTotal counts landed-cost report computations by outcome.
	ReportComputeTotal *prometheus.CounterVec
	// ReportComputeDuration records report computation latency in milliseconds.
	ReportComputeDuration prometheus.Histogram
	// ReportCacheTotal counts report cache lookups by result (hit or miss).
	ReportCacheTotal *prometheus.CounterVec
	// ReportWarningsTotal counts data-quality warnings raised by the engine.
	ReportWarningsTotal *prometheus.CounterVec
	// PortfolioRefreshTotal counts portfolio overview refreshes by outcome.
	PortfolioRefreshTotal *prometheus.CounterVec
	// TransactionsRecordedTotal counts booked payments, expenses and receipts.
	TransactionsRecordedTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ReportComputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_compute_total",
			Help:      "Count of landed-cost report computations by outcome.",
		}, []string{"result"})
		ReportComputeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_compute_duration_ms",
			Help:      "Latency of landed-cost report computations in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		})
		ReportCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Count of report cache lookups by result.",
		}, []string{"result"})
		ReportWarningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_warnings_total",
			Help:      "Count of data-quality warnings raised while computing reports.",
		}, []string{"kind"})
		PortfolioRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portfolio_refresh_total",
			Help:      "Count of portfolio overview refreshes by outcome.",
		}, []string{"result"})
		TransactionsRecordedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_recorded_total",
			Help:      "Count of recorded payments, expenses and receipts.",
		}, []string{"kind"})

		mustRegisterCollector(reg, ReportComputeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReportComputeTotal = v
			}
		})
		mustRegisterCollector(reg, ReportComputeDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				ReportComputeDuration = v
			}
		})
		mustRegisterCollector(reg, ReportCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReportCacheTotal = v
			}
		})
		mustRegisterCollector(reg, ReportWarningsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReportWarningsTotal = v
			}
		})
		mustRegisterCollector(reg, PortfolioRefreshTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PortfolioRefreshTotal = v
			}
		})
		mustRegisterCollector(reg, TransactionsRecordedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TransactionsRecordedTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
