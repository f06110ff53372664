package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	logPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "credit_service",
		Subsystem: "persistence",
		Name:      "last_log_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent activity log persisted to Postgres.",
	})
	payoutDecisionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "credit_service",
		Subsystem: "payouts",
		Name:      "decisions_total",
		Help:      "Number of payout requests recorded, labeled by screening decision.",
	}, []string{"status"})
	riskScoreHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "credit_service",
		Subsystem: "payouts",
		Name:      "risk_score",
		Help:      "Distribution of risk scores assigned to payout requests.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})
)

func init() {
	prometheus.MustRegister(logPersistGauge, payoutDecisionCounter, riskScoreHistogram)
}

// RecordLogPersisted updates the persistence watermark gauge.
func RecordLogPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	logPersistGauge.Set(float64(ts.Unix()))
}

// RecordPayoutDecision counts a recorded payout and observes its risk score.
func RecordPayoutDecision(status string, riskScore float64) {
	payoutDecisionCounter.WithLabelValues(status).Inc()
	riskScoreHistogram.Observe(riskScore)
}
