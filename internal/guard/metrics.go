package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// decisionsTotal counts guard evaluations by outcome (allow, reject, error).
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "beetle_movies",
		Subsystem: "guard",
		Name:      "decisions_total",
		Help:      "Total mutation guard decisions by guard and outcome",
	}, []string{"guard", "outcome"})

	observedNotFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "beetle_movies",
		Subsystem: "guard",
		Name:      "observed_not_found_total",
		Help:      "Total 404 responses seen by the not-found observer",
	}, []string{"route"})
)

func observeDecision(guard, outcome string) {
	decisionsTotal.WithLabelValues(guard, outcome).Inc()
}
