// Package notify defines the transition events produced by the aggregation
// engine and a best-effort asynchronous dispatcher that hands them to a
// delivery collaborator. Delivery is decoupled from the write path: a failed
// or slow consumer must never block or fail a counter update.
package notify

import "time"

// Event kinds emitted by the engine.
const (
	KindThresholdReached   = "threshold_reached"
	KindUrgencyEscalated   = "urgency_escalated"
	KindQueuePositionJump  = "queue_position_jumped"
)

// Event is a single engine transition handed to the notification
// collaborator. Only the fields relevant to the kind are populated.
type Event struct {
	Kind    string    `json:"kind"`
	Barcode string    `json:"barcode"`
	At      time.Time `json:"at"`

	// ThresholdReached
	WeightedTotal    float64 `json:"weighted_total,omitempty"`
	FundingThreshold float64 `json:"funding_threshold,omitempty"`

	// UrgencyEscalated
	Tier string `json:"tier,omitempty"`

	// QueuePositionJumped
	FromPosition int `json:"from_position,omitempty"`
	ToPosition   int `json:"to_position,omitempty"`
}

// Publisher is the producer-side contract. Publish must be non-blocking and
// must never return an error to the write path; undeliverable events are a
// delivery concern, not an aggregation concern.
type Publisher interface {
	Publish(ev Event)
}
