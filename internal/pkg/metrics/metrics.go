package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// StoredObjects tracks the number of objects currently held by the LDM,
	// labelled by message type.
	StoredObjects = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "openv2x_ldm_stored_objects",
			Help: "Number of data objects currently stored in the LDM.",
		},
		[]string{"type"},
	)

	// PublishTotal counts publish calls.
	PublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openv2x_ldm_publish_total",
			Help: "Total number of publish calls handled by the LDM.",
		},
		[]string{"type", "result"}, // result: success/failed
	)

	// EvictionsTotal counts objects removed by the maintenance engine.
	EvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openv2x_ldm_evictions_total",
			Help: "Total number of data objects evicted from the LDM.",
		},
		[]string{"reason"}, // reason: expired/out_of_area
	)

	// ActiveSubscriptions tracks live consumer subscriptions.
	ActiveSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "openv2x_ldm_active_subscriptions",
			Help: "Number of live consumer subscriptions.",
		},
	)

	// DispatchesTotal counts subscription notifications handed to callbacks.
	DispatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "openv2x_ldm_dispatches_total",
			Help: "Total number of subscription notifications dispatched.",
		},
	)

	// QueryDuration observes one-shot query latency.
	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "openv2x_ldm_query_duration_seconds",
			Help:    "Latency of one-shot LDM queries.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(StoredObjects)
	prometheus.MustRegister(PublishTotal)
	prometheus.MustRegister(EvictionsTotal)
	prometheus.MustRegister(ActiveSubscriptions)
	prometheus.MustRegister(DispatchesTotal)
	prometheus.MustRegister(QueryDuration)
}
