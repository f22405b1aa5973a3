package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "blobbench_"

var operationsCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "operations",
		Help: "Number of client calls made during a run, by operation and result",
	},
	[]string{"operation", "result"},
)

var operationDurationHist = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    prefix + "operation_duration_seconds",
		Help:    "Time taken by successful client calls",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	},
	[]string{"operation"},
)

var bytesCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: prefix + "bytes",
		Help: "Payload bytes moved by successful client calls",
	},
	[]string{"operation"},
)

// RecordOperation records the outcome of one timed client call. Durations and
// byte counts are only recorded for successful calls.
func RecordOperation(operation string, failed bool, numBytes int64, duration time.Duration) {
	result := "success"
	if failed {
		result = "failure"
	}
	operationsCounter.With(map[string]string{"operation": operation, "result": result}).Inc()
	if failed {
		return
	}
	operationDurationHist.With(map[string]string{"operation": operation}).Observe(duration.Seconds())
	if numBytes > 0 {
		bytesCounter.With(map[string]string{"operation": operation}).Add(float64(numBytes))
	}
}
