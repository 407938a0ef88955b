package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts successfully committed checkouts.
	OrdersCreatedTotal prometheus.Counter
	// OrderPaymentAmount records the final payment per order in yen.
	OrderPaymentAmount prometheus.Histogram
	// PointsRedeemedTotal accumulates points spent at checkout.
	PointsRedeemedTotal prometheus.Counter
	// PointsEarnedTotal accumulates points granted at checkout.
	PointsEarnedTotal prometheus.Counter
	// PointsSweptAccounts counts balances zeroed by the expiry sweep.
	PointsSweptAccounts prometheus.Counter
	// QuoteRequestsTotal counts pricing quote evaluations by shape and outcome.
	QuoteRequestsTotal *prometheus.CounterVec
	// OrderStatusChanges counts admin lifecycle transitions.
	OrderStatusChanges *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Number of orders committed through checkout.",
		})
		OrderPaymentAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_payment_amount_yen",
			Help:      "Final payment amount per order after point redemption.",
			Buckets:   []float64{1100, 2500, 5000, 10000, 25000, 50000, 100000},
		})
		PointsRedeemedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_redeemed_total",
			Help:      "Points spent against orders.",
		})
		PointsEarnedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_earned_total",
			Help:      "Points granted on completed checkouts.",
		})
		PointsSweptAccounts = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_swept_accounts_total",
			Help:      "Point balances zeroed by the expiry sweep job.",
		})
		QuoteRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_requests_total",
			Help:      "Pricing quote evaluations by shape and result.",
		}, []string{"shape", "result"})
		OrderStatusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_changes_total",
			Help:      "Order lifecycle transitions applied from the admin console.",
		}, []string{"from", "to"})

		mustRegisterCollector(reg, OrdersCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				OrdersCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, OrderPaymentAmount, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				OrderPaymentAmount = v
			}
		})
		mustRegisterCollector(reg, PointsRedeemedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PointsRedeemedTotal = v
			}
		})
		mustRegisterCollector(reg, PointsEarnedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PointsEarnedTotal = v
			}
		})
		mustRegisterCollector(reg, PointsSweptAccounts, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				PointsSweptAccounts = v
			}
		})
		mustRegisterCollector(reg, QuoteRequestsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteRequestsTotal = v
			}
		})
		mustRegisterCollector(reg, OrderStatusChanges, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderStatusChanges = v
			}
		})
	})
}

// RecordOrderCreated updates the checkout counters after a committed order.
// Safe to call before MustRegisterDomainMetrics: it no-ops while the
// collectors are unset, which keeps tests registry-free.
func RecordOrderCreated(finalPayment, pointsUsed, pointsEarned int64) {
	if OrdersCreatedTotal == nil {
		return
	}
	OrdersCreatedTotal.Inc()
	OrderPaymentAmount.Observe(float64(finalPayment))
	if pointsUsed > 0 {
		PointsRedeemedTotal.Add(float64(pointsUsed))
	}
	if pointsEarned > 0 {
		PointsEarnedTotal.Add(float64(pointsEarned))
	}
}

// RecordPointsSwept adds the number of balances cleared by a sweep run.
func RecordPointsSwept(accounts int64) {
	if PointsSweptAccounts == nil || accounts <= 0 {
		return
	}
	PointsSweptAccounts.Add(float64(accounts))
}

// RecordStatusChange counts one admin lifecycle transition.
func RecordStatusChange(from, to string) {
	if OrderStatusChanges == nil {
		return
	}
	OrderStatusChanges.WithLabelValues(from, to).Inc()
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
