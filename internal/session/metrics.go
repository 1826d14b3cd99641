package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Subsystem: "session",
			Name:      "dispatches_total",
			Help:      "Searches dispatched by query sessions.",
		},
	)

	staleResultsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Subsystem: "session",
			Name:      "stale_results_total",
			Help:      "Responses discarded because a newer query was dispatched.",
		},
	)

	failedDispatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Subsystem: "session",
			Name:      "failed_dispatches_total",
			Help:      "Dispatches that ended in an error.",
		},
	)
)
