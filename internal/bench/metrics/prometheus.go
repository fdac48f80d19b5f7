package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	startTime = time.Now()

	// UptimeSeconds tracks harness uptime in seconds
	UptimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cloudsla",
		Subsystem: "bench",
		Name:      "uptime_seconds",
		Help:      "Time passed since the harness started in seconds",
	})

	// Transaction submission metrics
	TransactionsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cloudsla",
		Subsystem: "bench",
		Name:      "transactions_sent_total",
		Help:      "Transactions submitted to the node",
	}, []string{"account"})

	TransactionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cloudsla",
		Subsystem: "bench",
		Name:      "transaction_failures_total",
		Help:      "Transactions mapped to failure status (reason=rejected/timeout/reverted)",
	}, []string{"reason"})

	// Receipt latency metrics
	ReceiptWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cloudsla",
		Subsystem: "bench",
		Name:      "receipt_wait_seconds",
		Help:      "Time between transaction submission and receipt availability",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// Scenario outcome metrics
	ScenarioResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cloudsla",
		Subsystem: "bench",
		Name:      "scenario_results_total",
		Help:      "Scenario outcomes (result=ok/failed)",
	}, []string{"scenario", "result"})

	// Nonce manager metrics
	NoncesAllocatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cloudsla",
		Subsystem: "bench",
		Name:      "nonces_allocated_total",
		Help:      "Nonces handed out by the nonce manager",
	}, []string{"account"})
)

// StartCollection updates the uptime gauge in the background.
func StartCollection() {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			UptimeSeconds.Set(time.Since(startTime).Seconds())
		}
	}()
}

// RecordScenario records a scenario outcome.
func RecordScenario(name string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	ScenarioResultsTotal.WithLabelValues(name, result).Inc()
}
