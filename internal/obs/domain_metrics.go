package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartQuotesTotal counts cart total computations.
	CartQuotesTotal prometheus.Counter
	// CouponSelectionsTotal counts coupon selection outcomes.
	CouponSelectionsTotal *prometheus.CounterVec
	// OrdersCompletedTotal counts completed orders.
	OrdersCompletedTotal prometheus.Counter
	// StockRejectionsTotal counts quantity changes rejected for insufficient stock.
	StockRejectionsTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartQuotesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_quotes_total",
			Help:      "Number of cart total computations served.",
		})
		CouponSelectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_selections_total",
			Help:      "Count of coupon selection attempts by outcome.",
		}, []string{"result"})
		OrdersCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_completed_total",
			Help:      "Number of completed orders.",
		})
		StockRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_rejections_total",
			Help:      "Quantity updates rejected because stock was exceeded.",
		})

		mustRegisterCollector(reg, CartQuotesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartQuotesTotal = v
			}
		})
		mustRegisterCollector(reg, CouponSelectionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponSelectionsTotal = v
			}
		})
		mustRegisterCollector(reg, OrdersCompletedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrdersCompletedTotal = v
			}
		})
		mustRegisterCollector(reg, StockRejectionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				StockRejectionsTotal = v
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
