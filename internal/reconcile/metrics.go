package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bulksms",
	Name:      "reconcile_queries_total",
	Help:      "Gateway status queries by source and outcome.",
}, []string{"source", "outcome"})

func observe(source string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	queriesTotal.WithLabelValues(source, outcome).Inc()
}
