// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/provelab/go-demand-backend/internal/domain"
)

// QueueStats returns aggregate metadata for the testing queue: the number of
// non-terminal demand records and the maximum UpdatedAt timestamp among them.
//
// It executes two lightweight queries against the demand_records table. When
// the queue is empty, the returned count is 0 and maxUpdatedAt is nil.
//
// Return values:
//   - count:        non-terminal records
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func QueueStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	// Session() clones the statement so Count's accumulated clauses do not
	// leak into the follow-up Select.
	q := db.WithContext(ctx).Model(&domain.DemandRecord{}).Where("status <> ?", domain.StatusComplete)

	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// ContributorStats returns aggregate metadata for a record's contributor
// ledger: the ledger size and the latest contribution time.
//
// When the record has no contributors, the returned count is 0 and
// maxContributedAt is nil.
func ContributorStats(ctx context.Context, db *gorm.DB, recordID string) (count int64, maxContributedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Contributor{}).Where("record_id = ?", recordID)

	if err = q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest contributed_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		ContributedAt time.Time
	}
	if err = q.Session(&gorm.Session{}).Select("contributed_at").Order("contributed_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.ContributedAt, nil
}
