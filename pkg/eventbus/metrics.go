package eventbus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_published_total",
			Help: "Messages handed to the broker, by outcome (ok|error)",
		},
		[]string{"driver", "exchange", "outcome"},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventbus_publish_duration_seconds",
			Help:    "Duration of publish calls including broker confirmation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"driver", "exchange"},
	)

	consumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_consumed_total",
			Help: "Deliveries settled by consumers, by action (ack|drop|park|requeue)",
		},
		[]string{"queue", "action"},
	)

	handleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventbus_handle_duration_seconds",
			Help:    "Duration of message handlers",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"queue"},
	)

	duplicatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventbus_duplicates_total",
			Help: "Deliveries acknowledged as duplicates by the seen-set fast path",
		},
		[]string{"queue"},
	)
)
