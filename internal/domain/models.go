// Package domain defines the persistence models for demand records, scan
// events, contributor ledgers, and category boosts. These types are mapped
// with GORM and form the core data layer of the demand aggregation engine.
package domain

import (
	"time"
)

// Demand record lifecycle statuses. Status only moves forward through this
// ordered list; an administrative override is the only sanctioned regression
// and is always audited via StatusOverride.
const (
	StatusCollectingVotes  = "collecting_votes"
	StatusThresholdReached = "threshold_reached"
	StatusQueued           = "queued"
	StatusTesting          = "testing"
	StatusComplete         = "complete"
)

// Demand signal event types.
const (
	EventSearch            = "search"
	EventScan              = "scan"
	EventMemberScan        = "member_scan"
	EventPhotoContribution = "photo_contribution"
)

// Urgency tiers derived from short-window scan counts.
const (
	TierNormal   = "normal"
	TierTrending = "trending"
	TierUrgent   = "urgent"
)

// StatusOrder maps each lifecycle status to its position in the forward-only
// progression. Higher values are later stages.
var StatusOrder = map[string]int{
	StatusCollectingVotes:  0,
	StatusThresholdReached: 1,
	StatusQueued:           2,
	StatusTesting:          3,
	StatusComplete:         4,
}

// DemandRecord aggregates all demand signals for a single product barcode.
// One row exists per barcode; it is created on the first event and mutated
// by every subsequent one inside a version-guarded read-modify-write.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Barcode: unique product barcode, immutable once created.
//   - ProductName / Brand / Category / ImageURL: optional catalog metadata;
//     used for boost matching and display, never required for correctness.
//   - WeightedTotal: accumulated weighted score; non-negative and only ever
//     lowered by an audited administrative correction.
//   - SearchCount / ScanCount / MemberScanCount: informational breakdown of
//     WeightedTotal's composition by event type.
//   - FundingThreshold: score at which Status advances to threshold_reached.
//   - FundingProgressPercent: materialized min(100, round(total/threshold*100));
//     recomputed on every weight change, never independently mutated.
//   - Status: lifecycle state, see Status* constants.
//   - ScansLast24h / ScansLast7d: materialized window counts over ScanEvent.
//   - VelocityScore: materialized composite used for queue ordering.
//   - UrgencyTier: materialized tier, see Tier* constants.
//   - UniqueVoters: count of distinct voter keys ever credited.
//   - FirstVoterKey / FirstContributedAt: the "first scout"; written once on
//     the first contributor and never overwritten.
//   - LinkedProductID: set only when Status is complete.
//   - LastEscalationAt: last time an urgency escalation was emitted; used to
//     suppress noisy repeat notifications.
//   - PreviousQueuePosition / Rank: display bookkeeping written back by the
//     queue ranker; not inputs to ranking.
//   - Version: optimistic-concurrency counter; every committed mutation
//     increments it.
type DemandRecord struct {
	ID      string `json:"id"      gorm:"type:char(36);primaryKey"`
	Barcode string `json:"barcode" gorm:"type:varchar(64);not null;uniqueIndex:ux_demand_barcode"`

	ProductName string `json:"product_name,omitempty" gorm:"type:varchar(255)"`
	Brand       string `json:"brand,omitempty"        gorm:"type:varchar(255)"`
	Category    string `json:"category,omitempty"     gorm:"type:varchar(255)"`
	ImageURL    string `json:"image_url,omitempty"    gorm:"type:varchar(1024)"`

	WeightedTotal   float64 `json:"weighted_total"    gorm:"not null;default:0"`
	SearchCount     int64   `json:"search_count"      gorm:"not null;default:0"`
	ScanCount       int64   `json:"scan_count"        gorm:"not null;default:0"`
	MemberScanCount int64   `json:"member_scan_count" gorm:"not null;default:0"`

	FundingThreshold       float64 `json:"funding_threshold"        gorm:"not null"`
	FundingProgressPercent int     `json:"funding_progress_percent" gorm:"not null;default:0"`

	Status string `json:"status" gorm:"type:varchar(32);not null;default:'collecting_votes';index;check:status IN ('collecting_votes','threshold_reached','queued','testing','complete')"`

	ScansLast24h  int     `json:"scans_last_24h" gorm:"column:scans_last_24h;not null;default:0"`
	ScansLast7d   int     `json:"scans_last_7d"  gorm:"column:scans_last_7d;not null;default:0"`
	VelocityScore float64 `json:"velocity_score" gorm:"not null;default:0;index"`
	UrgencyTier   string  `json:"urgency_tier"   gorm:"type:varchar(16);not null;default:'normal';check:urgency_tier IN ('normal','trending','urgent')"`

	UniqueVoters       int64      `json:"unique_voters" gorm:"not null;default:0"`
	FirstVoterKey      string     `json:"first_voter_key,omitempty" gorm:"type:varchar(128)"`
	FirstContributedAt *time.Time `json:"first_contributed_at,omitempty"`

	LinkedProductID *string `json:"linked_product_id,omitempty" gorm:"type:char(36)"`

	LastEscalationAt      *time.Time `json:"-"`
	PreviousQueuePosition *int       `json:"-"`
	Rank                  *int       `json:"rank,omitempty"`

	Version   int64     `json:"-" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for DemandRecord.
func (DemandRecord) TableName() string { return "demand_records" }

// Terminal reports whether the record has finished its lifecycle and must be
// excluded from the testing queue.
func (r *DemandRecord) Terminal() bool { return r.Status == StatusComplete }

// ScanEvent is one row of the append-only velocity log. Rows older than the
// retention window are pruned after each velocity computation; pruning never
// affects WeightedTotal, which is independent of this log.
type ScanEvent struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	RecordID   string    `gorm:"type:char(36);not null;index:idx_scan_events_record,priority:1"`
	EventType  string    `gorm:"type:varchar(32);not null"`
	OccurredAt time.Time `gorm:"not null;index:idx_scan_events_record,priority:2"`
}

// TableName returns the database table name for ScanEvent.
func (ScanEvent) TableName() string { return "scan_events" }

// Contributor is one entry of the arrival-ordered contributor ledger. A voter
// key appears at most once per record (enforced by unique index); the entry
// with Seq 1 is the record's first scout. The ledger is attribution data and
// is never pruned.
type Contributor struct {
	ID            string    `json:"-"         gorm:"type:char(36);primaryKey"`
	RecordID      string    `json:"-"         gorm:"type:char(36);not null;uniqueIndex:ux_contrib_record_voter,priority:1"`
	VoterKey      string    `json:"voter_key" gorm:"type:varchar(128);not null;uniqueIndex:ux_contrib_record_voter,priority:2"`
	Seq           int       `json:"sequence_number" gorm:"not null"`
	ContributedAt time.Time `json:"contributed_at"  gorm:"not null"`
}

// TableName returns the database table name for Contributor.
func (Contributor) TableName() string { return "contributors" }

// PhotoContribution records an enrichment submission. It is kept separate
// from Contributor because a photo is not a demand signal, though it still
// earns a flat bonus weight. Rows are unique per (record, submission id) so
// client retries are idempotent.
type PhotoContribution struct {
	ID            string    `json:"-"             gorm:"type:char(36);primaryKey"`
	RecordID      string    `json:"-"             gorm:"type:char(36);not null;uniqueIndex:ux_photo_record_submission,priority:1"`
	SubmissionID  string    `json:"submission_id" gorm:"type:varchar(128);not null;uniqueIndex:ux_photo_record_submission,priority:2"`
	VoterKey      string    `json:"voter_key"     gorm:"type:varchar(128);not null"`
	BonusWeight   float64   `json:"bonus_weight"  gorm:"not null"`
	ContributedAt time.Time `json:"contributed_at" gorm:"not null"`
}

// TableName returns the database table name for PhotoContribution.
func (PhotoContribution) TableName() string { return "photo_contributions" }

// StatusOverride is the audit row written whenever an administrator forces a
// lifecycle transition or a weight correction outside the normal flow.
type StatusOverride struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	RecordID   string    `json:"record_id"   gorm:"type:char(36);not null;index"`
	FromStatus string    `json:"from_status" gorm:"type:varchar(32);not null"`
	ToStatus   string    `json:"to_status"   gorm:"type:varchar(32);not null"`
	Actor      string    `json:"actor"       gorm:"type:varchar(128);not null"`
	Reason     string    `json:"reason"      gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for StatusOverride.
func (StatusOverride) TableName() string { return "status_overrides" }
