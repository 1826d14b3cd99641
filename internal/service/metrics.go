package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "searches_total",
			Help:      "Searches served, by mode (query or browse).",
		},
		[]string{"mode"},
	)

	zeroResultSearchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "zero_result_searches_total",
			Help:      "Searches that matched no product.",
		},
	)

	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "discovery",
			Name:      "search_duration_seconds",
			Help:      "Engine time spent per search.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"mode"},
	)
)
