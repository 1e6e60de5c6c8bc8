// Package metrics exposes Prometheus instruments for ledger operations.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type LedgerMetrics struct {
	redemptions      *prometheus.CounterVec
	redeemLatency    *prometheus.HistogramVec
	claimRetries     prometheus.Counter
	verifications    *prometheus.CounterVec
	referrals        *prometheus.CounterVec
	inventoryChanges *prometheus.CounterVec
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the process-wide instruments, registering them on first use.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "pointshop_redemptions_total",
				Help: "Redemption attempts by coupon class and outcome.",
			}, []string{"class", "outcome"}),
			redeemLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "pointshop_redemption_duration_seconds",
				Help:    "Wall time of a redemption unit of work.",
				Buckets: prometheus.DefBuckets,
			}, []string{"outcome"}),
			claimRetries: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "pointshop_inventory_claim_retries_total",
				Help: "Inventory claims lost to a concurrent consumer and retried.",
			}),
			verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "pointshop_verifications_total",
				Help: "Device verification attempts by outcome.",
			}, []string{"outcome"}),
			referrals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "pointshop_referrals_total",
				Help: "Referral events by outcome.",
			}, []string{"outcome"}),
			inventoryChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "pointshop_inventory_changes_total",
				Help: "Coupon codes added or removed by admins.",
			}, []string{"class", "op"}),
		}
		prometheus.MustRegister(
			ledgerRegistry.redemptions,
			ledgerRegistry.redeemLatency,
			ledgerRegistry.claimRetries,
			ledgerRegistry.verifications,
			ledgerRegistry.referrals,
			ledgerRegistry.inventoryChanges,
		)
	})
	return ledgerRegistry
}

func outcomeLabel(outcome string) string {
	if outcome == "" {
		return "ok"
	}
	return outcome
}

func (m *LedgerMetrics) ObserveRedemption(class, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome = outcomeLabel(outcome)
	m.redemptions.WithLabelValues(class, outcome).Inc()
	m.redeemLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *LedgerMetrics) ObserveClaimRetry() {
	if m == nil {
		return
	}
	m.claimRetries.Inc()
}

func (m *LedgerMetrics) ObserveVerification(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcomeLabel(outcome)).Inc()
}

func (m *LedgerMetrics) ObserveReferral(outcome string) {
	if m == nil {
		return
	}
	m.referrals.WithLabelValues(outcomeLabel(outcome)).Inc()
}

func (m *LedgerMetrics) ObserveInventory(class, op string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.inventoryChanges.WithLabelValues(class, op).Add(float64(n))
}
