package fraud

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fraudEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_evaluations_total",
			Help: "Total number of fraud evaluations by submission kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	fraudRuleHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_rule_hits_total",
			Help: "Total number of fraud rule flags raised",
		},
		[]string{"kind", "flag"},
	)

	fraudRiskScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fraud_risk_score",
			Help:    "Distribution of computed risk scores",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 80, 100, 150},
		},
		[]string{"kind"},
	)
)

// recordVerdict exports counters for a completed evaluation
func recordVerdict(kind string, verdict *FraudVerdict) {
	outcome := "manual_review"
	switch {
	case verdict.AutoApprove:
		outcome = "auto_approved"
	case verdict.ShouldBlock:
		outcome = "blocked"
	case !verdict.Passed:
		outcome = "rejected"
	case verdict.Passed && !verdict.NeedsManualReview:
		outcome = "passed"
	}

	fraudEvaluationsTotal.WithLabelValues(kind, outcome).Inc()
	fraudRiskScore.WithLabelValues(kind).Observe(float64(verdict.RiskScore))

	for _, flag := range verdict.Flags {
		fraudRuleHitsTotal.WithLabelValues(kind, flag).Inc()
	}
}
