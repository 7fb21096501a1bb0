// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// CategoryBoost model consumed by the boost registry cache and the admin
// endpoints.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/provelab/go-demand-backend/internal/domain"
)

// ListActiveBoosts returns boosts that are flagged active and whose time
// window contains now (nil bounds are open-ended). The registry cache calls
// this on its refresh interval, not per event.
func ListActiveBoosts(ctx context.Context, db *gorm.DB, now time.Time) ([]domain.CategoryBoost, error) {
	var out []domain.CategoryBoost
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("starts_at IS NULL OR starts_at <= ?", now.UTC()).
		Where("ends_at IS NULL OR ends_at >= ?", now.UTC()).
		Order("multiplier desc").
		Find(&out).Error
	return out, err
}

// ListBoosts returns every boost row for the admin view, newest first.
func ListBoosts(ctx context.Context, db *gorm.DB) ([]domain.CategoryBoost, error) {
	var out []domain.CategoryBoost
	err := db.WithContext(ctx).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// GetBoost fetches a boost by ID, or ErrNotFound.
func GetBoost(ctx context.Context, db *gorm.DB, id string) (*domain.CategoryBoost, error) {
	var b domain.CategoryBoost
	if err := db.WithContext(ctx).Where("id = ?", id).First(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBoost inserts a new boost row with a generated UUID. IsActive is
// written as given, so a campaign can be created paused.
func CreateBoost(ctx context.Context, db *gorm.DB, b *domain.CategoryBoost) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC()
	return db.WithContext(ctx).Create(b).Error
}

// UpdateBoost persists the mutable boost fields. Returns ErrNotFound when the
// row is missing.
func UpdateBoost(ctx context.Context, db *gorm.DB, b *domain.CategoryBoost) error {
	res := db.WithContext(ctx).
		Model(&domain.CategoryBoost{}).
		Where("id = ?", b.ID).
		Select("category_label", "keywords", "multiplier", "is_active", "starts_at", "ends_at").
		Updates(map[string]any{
			"category_label": b.CategoryLabel,
			"keywords":       b.Keywords,
			"multiplier":     b.Multiplier,
			"is_active":      b.IsActive,
			"starts_at":      b.StartsAt,
			"ends_at":        b.EndsAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeactivateBoost clears the active flag without deleting the row, keeping
// the boost history visible to admins.
func DeactivateBoost(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.CategoryBoost{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
