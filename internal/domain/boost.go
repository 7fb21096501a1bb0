// Package domain defines the core persistence models for the application.
// This file holds the category boost model used to temporarily multiply the
// weight of matching demand signals.
package domain

import (
	"strings"
	"time"
)

// CategoryBoost is an admin-configured temporary multiplier. A boost applies
// to an event only while IsActive is set and the event time falls inside
// [StartsAt, EndsAt] (nil bounds are open-ended). Matching is performed
// against the product's name/brand/category text; when several boosts match,
// the highest multiplier wins and boosts are never cumulative.
type CategoryBoost struct {
	ID            string     `json:"id"             gorm:"type:char(36);primaryKey"`
	CategoryLabel string     `json:"category_label" gorm:"type:varchar(128);not null;index"`
	Keywords      string     `json:"keywords"       gorm:"type:text;not null"` // comma-separated
	Multiplier    float64    `json:"multiplier"     gorm:"not null;check:multiplier >= 1 AND multiplier <= 10"`
	IsActive      bool       `json:"is_active"      gorm:"not null;index"`
	StartsAt      *time.Time `json:"starts_at,omitempty"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for CategoryBoost.
func (CategoryBoost) TableName() string { return "category_boosts" }

// KeywordList splits the stored comma-separated keywords into trimmed,
// non-empty entries.
func (b *CategoryBoost) KeywordList() []string {
	parts := strings.Split(b.Keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// InWindow reports whether the boost's time window contains now. Nil bounds
// are treated as open-ended.
func (b *CategoryBoost) InWindow(now time.Time) bool {
	if b.StartsAt != nil && now.Before(*b.StartsAt) {
		return false
	}
	if b.EndsAt != nil && now.After(*b.EndsAt) {
		return false
	}
	return true
}
