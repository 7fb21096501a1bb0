// Package services – engine metrics
//
// Prometheus collectors for the aggregation engine. Label cardinality is
// bounded: event types and tiers are closed enumerations, and barcodes are
// deliberately never used as labels.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// demandEventsTotal counts applied demand signals by event type.
	demandEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demand_events_total",
			Help: "Total number of demand signals applied, by event type.",
		},
		[]string{"type"},
	)

	// demandEventConflicts counts optimistic-write collisions, including
	// those resolved by an internal retry.
	demandEventConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "demand_event_conflicts_total",
			Help: "Total number of optimistic concurrency conflicts during event application.",
		},
	)

	// demandThresholdCrossings counts records advancing to threshold_reached.
	demandThresholdCrossings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "demand_threshold_crossings_total",
			Help: "Total number of records crossing their funding threshold.",
		},
	)

	// demandUrgencyEscalations counts upward tier changes by new tier.
	demandUrgencyEscalations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "demand_urgency_escalations_total",
			Help: "Total number of upward urgency tier escalations, by new tier.",
		},
		[]string{"tier"},
	)

	// demandQueueJumps counts emitted queue-position-jump notifications.
	demandQueueJumps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "demand_queue_jumps_total",
			Help: "Total number of queue position jump notifications emitted.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		demandEventsTotal,
		demandEventConflicts,
		demandThresholdCrossings,
		demandUrgencyEscalations,
		demandQueueJumps,
	)
}
