// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency represents a recorded result of a previously processed event
// submission, keyed by (voter_key, barcode, key). It enables safe retries of
// POST /events by acknowledging the original submission without re-applying
// its weight.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	VoterKey  string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_voter_barcode_key,priority:1"`
	Barcode   string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_voter_barcode_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_voter_barcode_key,priority:3"`
	RecordID  string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
