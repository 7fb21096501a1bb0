// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// scan log backing velocity computation.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/provelab/go-demand-backend/internal/domain"
)

// AppendScanEvent inserts one velocity log row for the record. Only demand
// signal events (search/scan/member_scan) are logged; photo contributions do
// not feed velocity.
func AppendScanEvent(ctx context.Context, db *gorm.DB, recordID, eventType string, occurredAt time.Time) error {
	row := &domain.ScanEvent{
		RecordID:   recordID,
		EventType:  eventType,
		OccurredAt: occurredAt.UTC(),
	}
	return db.WithContext(ctx).Create(row).Error
}

// ScanTimestampsSince returns the timestamps of all log rows for the record
// at or after cutoff, oldest first. Callers feed these into the velocity
// computation.
func ScanTimestampsSince(ctx context.Context, db *gorm.DB, recordID string, cutoff time.Time) ([]time.Time, error) {
	var rows []domain.ScanEvent
	err := db.WithContext(ctx).
		Where("record_id = ? AND occurred_at >= ?", recordID, cutoff.UTC()).
		Order("occurred_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(rows))
	for i := range rows {
		out[i] = rows[i].OccurredAt
	}
	return out, nil
}

// PruneScanEvents deletes log rows strictly older than cutoff. It must run
// only after the 7d count has been computed from them; pruning never touches
// the weighted total, which is independent of this log.
func PruneScanEvents(ctx context.Context, db *gorm.DB, recordID string, cutoff time.Time) error {
	return db.WithContext(ctx).
		Where("record_id = ? AND occurred_at < ?", recordID, cutoff.UTC()).
		Delete(&domain.ScanEvent{}).Error
}

// CountScanEvents returns the total number of retained log rows for a record.
// Used by tests and storage diagnostics.
func CountScanEvents(ctx context.Context, db *gorm.DB, recordID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.ScanEvent{}).
		Where("record_id = ?", recordID).
		Count(&n).Error
	return n, err
}
