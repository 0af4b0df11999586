package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bulksms",
		Name:      "dispatch_attempts_total",
		Help:      "Outbound send calls by outcome.",
	}, []string{"outcome"})

	batchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "bulksms",
		Name:      "dispatch_batches_total",
		Help:      "Batches dispatched.",
	})

	callDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "bulksms",
		Name:      "dispatch_call_duration_seconds",
		Help:      "Duration of outbound send calls.",
		Buckets:   prometheus.DefBuckets,
	})
)
