// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// DemandRecord model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - SaveVersioned returns ErrVersionConflict when the guarded update
//     touched zero rows; the caller re-reads and retries.
//   - CreateDemand returns IsDuplicate-matching errors when two first events
//     race on an unseen barcode; exactly one creation wins and the loser
//     falls through to an update of the winner's row.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/provelab/go-demand-backend/internal/domain"
)

// GetDemandByBarcode fetches a single demand record by barcode. If the record
// does not exist, it returns ErrNotFound. On other DB errors, the raw error
// is returned.
func GetDemandByBarcode(ctx context.Context, db *gorm.DB, barcode string) (*domain.DemandRecord, error) {
	var rec domain.DemandRecord
	err := db.WithContext(ctx).
		Where("barcode = ?", barcode).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateDemand inserts a fresh record for a previously-unseen barcode with
// all counters zeroed, status collecting_votes, and version 1. The unique
// barcode index arbitrates creation races; losers receive a duplicate error
// (check with IsDuplicate) and must re-read the winner's row.
func CreateDemand(ctx context.Context, db *gorm.DB, barcode, name, brand, category, imageURL string, threshold float64, now time.Time) (*domain.DemandRecord, error) {
	rec := &domain.DemandRecord{
		ID:               uuid.NewString(),
		Barcode:          barcode,
		ProductName:      name,
		Brand:            brand,
		Category:         category,
		ImageURL:         imageURL,
		FundingThreshold: threshold,
		Status:           domain.StatusCollectingVotes,
		UrgencyTier:      domain.TierNormal,
		Version:          1,
		CreatedAt:        now.UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// SaveVersioned persists every mutable field of rec guarded by its current
// version, incrementing the version on success. When zero rows match (a
// concurrent writer already committed), it returns ErrVersionConflict and
// leaves rec untouched.
//
// Select(...) lists columns explicitly so zero values (e.g. a counter reset
// by an admin correction) are written rather than skipped.
func SaveVersioned(ctx context.Context, db *gorm.DB, rec *domain.DemandRecord) error {
	prev := rec.Version
	res := db.WithContext(ctx).
		Model(&domain.DemandRecord{}).
		Where("id = ? AND version = ?", rec.ID, prev).
		Select(
			"product_name", "brand", "category", "image_url",
			"weighted_total", "search_count", "scan_count", "member_scan_count",
			"funding_threshold", "funding_progress_percent", "status",
			"scans_last_24h", "scans_last_7d", "velocity_score", "urgency_tier",
			"unique_voters", "first_voter_key", "first_contributed_at",
			"linked_product_id", "last_escalation_at", "version",
		).
		Updates(map[string]any{
			"product_name":             rec.ProductName,
			"brand":                    rec.Brand,
			"category":                 rec.Category,
			"image_url":                rec.ImageURL,
			"weighted_total":           rec.WeightedTotal,
			"search_count":             rec.SearchCount,
			"scan_count":               rec.ScanCount,
			"member_scan_count":        rec.MemberScanCount,
			"funding_threshold":        rec.FundingThreshold,
			"funding_progress_percent": rec.FundingProgressPercent,
			"status":                   rec.Status,
			"scans_last_24h":           rec.ScansLast24h,
			"scans_last_7d":            rec.ScansLast7d,
			"velocity_score":           rec.VelocityScore,
			"urgency_tier":             rec.UrgencyTier,
			"unique_voters":            rec.UniqueVoters,
			"first_voter_key":          rec.FirstVoterKey,
			"first_contributed_at":     rec.FirstContributedAt,
			"linked_product_id":        rec.LinkedProductID,
			"last_escalation_at":       rec.LastEscalationAt,
			"version":                  prev + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	rec.Version = prev + 1
	return nil
}

// ListNonTerminal returns every record still eligible for the testing queue
// (anything not complete). Ordering is left to the ranker.
func ListNonTerminal(ctx context.Context, db *gorm.DB) ([]domain.DemandRecord, error) {
	var out []domain.DemandRecord
	err := db.WithContext(ctx).
		Where("status <> ?", domain.StatusComplete).
		Find(&out).Error
	return out, err
}

// ProductDoc is the projection used to build the product search index.
type ProductDoc struct {
	Barcode     string
	ProductName string
	Brand       string
	Category    string
}

// ListProductDocs returns the searchable fields of every record, terminal
// ones included (finding a completed product is still useful to clients).
func ListProductDocs(ctx context.Context, db *gorm.DB) ([]ProductDoc, error) {
	var out []ProductDoc
	err := db.WithContext(ctx).
		Model(&domain.DemandRecord{}).
		Select("barcode", "product_name", "brand", "category").
		Find(&out).Error
	return out, err
}

// UpdateQueuePosition writes back the display rank and remembers the previous
// position for jump detection. These are presentation fields, not ranking
// inputs, so the write is deliberately not version-guarded.
func UpdateQueuePosition(ctx context.Context, db *gorm.DB, recordID string, rank int) error {
	return db.WithContext(ctx).
		Model(&domain.DemandRecord{}).
		Where("id = ?", recordID).
		Updates(map[string]any{
			"rank":                    rank,
			"previous_queue_position": rank,
		}).Error
}

// CreateStatusOverride appends an audit row for an administrative override.
func CreateStatusOverride(ctx context.Context, db *gorm.DB, recordID, from, to, actor, reason string, now time.Time) error {
	row := &domain.StatusOverride{
		ID:         uuid.NewString(),
		RecordID:   recordID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Reason:     reason,
		CreatedAt:  now.UTC(),
	}
	return db.WithContext(ctx).Create(row).Error
}

// ListStatusOverrides returns the audit trail for a record, oldest first.
func ListStatusOverrides(ctx context.Context, db *gorm.DB, recordID string) ([]domain.StatusOverride, error) {
	var out []domain.StatusOverride
	err := db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
