// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Idempotency
// model used to implement safe-retry semantics for POST /events.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/provelab/go-demand-backend/internal/domain"
)

// ErrDuplicate indicates that an idempotency record already exists for the
// given (voter_key, barcode, key) tuple.
var ErrDuplicate = errors.New("duplicate")

// GetIdempotency returns a non-expired record or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, voterKey, barcode, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("voter_key = ? AND barcode = ? AND key = ? AND expires_at > ?", voterKey, barcode, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// FindIdempotencyByKey returns a non-expired record for (voter_key, key)
// regardless of barcode, or ErrNotFound. The HTTP middleware uses it to flag
// replays before the request body (which carries the barcode) is read.
func FindIdempotencyByKey(ctx context.Context, db *gorm.DB, voterKey, key string, now time.Time) (*domain.Idempotency, error) {
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("voter_key = ? AND key = ? AND expires_at > ?", voterKey, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateIdempotency inserts a record and returns ErrDuplicate on unique violation.
func CreateIdempotency(ctx context.Context, db *gorm.DB, voterKey, barcode, key, recordID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	rec := &domain.Idempotency{
		ID:        uuid.NewString(),
		VoterKey:  voterKey,
		Barcode:   barcode,
		Key:       key,
		RecordID:  recordID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if IsDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
