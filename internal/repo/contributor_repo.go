// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the contributor
// and photo-contribution ledgers.
//
// Both ledgers are attribution records: append-only, never pruned, and
// protected by unique indexes so repeat writes cannot mint duplicate entries
// or sequence numbers.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/provelab/go-demand-backend/internal/domain"
)

// GetContributor fetches the ledger entry for (recordID, voterKey), or
// ErrNotFound when the voter has not been credited yet.
func GetContributor(ctx context.Context, db *gorm.DB, recordID, voterKey string) (*domain.Contributor, error) {
	var c domain.Contributor
	err := db.WithContext(ctx).
		Where("record_id = ? AND voter_key = ?", recordID, voterKey).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateContributor appends a ledger entry with the given sequence number.
// The (record_id, voter_key) unique index guarantees a voter occupies exactly
// one slot; racing writers receive a duplicate error (check with IsDuplicate)
// and must treat the existing entry as authoritative.
func CreateContributor(ctx context.Context, db *gorm.DB, recordID, voterKey string, seq int, at time.Time) (*domain.Contributor, error) {
	c := &domain.Contributor{
		ID:            uuid.NewString(),
		RecordID:      recordID,
		VoterKey:      voterKey,
		Seq:           seq,
		ContributedAt: at.UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// CountContributors returns the ledger size for a record (equals the record's
// unique voter count at the moment it was last materialized).
func CountContributors(ctx context.Context, db *gorm.DB, recordID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Contributor{}).
		Where("record_id = ?", recordID).
		Count(&n).Error
	return n, err
}

// ListContributorsPage returns a page of ledger entries in arrival order
// (sequence ascending). The first entry of the first page is the record's
// first scout.
func ListContributorsPage(ctx context.Context, db *gorm.DB, recordID string, offset, limit int) ([]domain.Contributor, error) {
	var out []domain.Contributor
	err := db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("seq asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetPhotoContribution fetches a photo submission by its idempotency key, or
// ErrNotFound. Used to make replayed submissions a no-op.
func GetPhotoContribution(ctx context.Context, db *gorm.DB, recordID, submissionID string) (*domain.PhotoContribution, error) {
	var p domain.PhotoContribution
	err := db.WithContext(ctx).
		Where("record_id = ? AND submission_id = ?", recordID, submissionID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePhotoContribution appends a photo ledger entry. The unique
// (record_id, submission_id) index makes client retries idempotent; racing
// duplicates surface as IsDuplicate-matching errors.
func CreatePhotoContribution(ctx context.Context, db *gorm.DB, recordID, submissionID, voterKey string, bonus float64, at time.Time) (*domain.PhotoContribution, error) {
	p := &domain.PhotoContribution{
		ID:            uuid.NewString(),
		RecordID:      recordID,
		SubmissionID:  submissionID,
		VoterKey:      voterKey,
		BonusWeight:   bonus,
		ContributedAt: at.UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// CountPhotoContributions returns the number of distinct photo submissions
// recorded for a record.
func CountPhotoContributions(ctx context.Context, db *gorm.DB, recordID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.PhotoContribution{}).
		Where("record_id = ?", recordID).
		Count(&n).Error
	return n, err
}

// FirstContributor returns the scout entry (seq 1) for a record, or
// ErrNotFound when the ledger is empty.
func FirstContributor(ctx context.Context, db *gorm.DB, recordID string) (*domain.Contributor, error) {
	var c domain.Contributor
	err := db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("seq asc").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
