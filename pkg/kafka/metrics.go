package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	consumerMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "kafka_messages_received_total",
			Help:      "Messages fetched from the broker.",
		},
		[]string{"topic"},
	)

	consumerMessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "kafka_messages_processed_total",
			Help:      "Messages handled successfully.",
		},
		[]string{"topic"},
	)

	consumerMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "kafka_messages_failed_total",
			Help:      "Messages that were undecodable or exhausted their retries.",
		},
		[]string{"topic", "reason"},
	)

	consumerProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "discovery",
			Name:      "kafka_processing_duration_seconds",
			Help:      "Handler latency including retries.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"topic"},
	)

	dlqPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "kafka_dlq_published_total",
			Help:      "Messages forwarded to a dead-letter topic.",
		},
		[]string{"topic"},
	)

	producerPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "kafka_published_total",
			Help:      "Events published, by outcome.",
		},
		[]string{"topic", "outcome"},
	)
)
