package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/provelab/go-demand-backend/internal/domain"
	"github.com/provelab/go-demand-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultBoostRefresh is how long a cached boost snapshot is served before
// the next read goes back to the database.
const defaultBoostRefresh = 30 * time.Second

const (
	minBoostMultiplier = 1.0
	maxBoostMultiplier = 10.0
)

// BoostService manages category boost campaigns and serves the active set
// to the event path through a read-mostly snapshot cache. Event application
// must never pay a per-event boost query, so reads hit the cache and only
// refresh it after RefreshInterval elapses; admin mutations invalidate the
// snapshot immediately.
type BoostService struct {
	DB *gorm.DB

	// RefreshInterval controls snapshot staleness; <=0 uses the default.
	RefreshInterval time.Duration

	mu        sync.RWMutex
	snapshot  []domain.CategoryBoost
	fetchedAt time.Time
}

// Active returns the boosts currently in effect. The result is a cached
// snapshot and may lag admin mutations by up to RefreshInterval on other
// instances; on this instance mutations invalidate it immediately. Boosts
// are time-window filtered at read time, so a snapshot never serves an
// expired campaign.
func (s *BoostService) Active(ctx context.Context) []domain.CategoryBoost {
	now := time.Now()
	interval := s.RefreshInterval
	if interval <= 0 {
		interval = defaultBoostRefresh
	}

	s.mu.RLock()
	if !s.fetchedAt.IsZero() && now.Sub(s.fetchedAt) < interval {
		snap := s.snapshot
		s.mu.RUnlock()
		return snap
	}
	s.mu.RUnlock()

	boosts, err := repo.ListActiveBoosts(ctx, s.DB, now)
	if err != nil {
		// Serve the stale snapshot rather than failing event application.
		s.mu.RLock()
		snap := s.snapshot
		s.mu.RUnlock()
		return snap
	}

	s.mu.Lock()
	s.snapshot = boosts
	s.fetchedAt = now
	s.mu.Unlock()
	return boosts
}

// Invalidate drops the cached snapshot so the next Active call refetches.
func (s *BoostService) Invalidate() {
	s.mu.Lock()
	s.fetchedAt = time.Time{}
	s.snapshot = nil
	s.mu.Unlock()
}

// List returns every boost campaign, active or not.
func (s *BoostService) List(ctx context.Context) ([]domain.CategoryBoost, error) {
	return repo.ListBoosts(ctx, s.DB)
}

// Get returns one boost by id, or ErrBoostNotFound.
func (s *BoostService) Get(ctx context.Context, id string) (*domain.CategoryBoost, error) {
	b, err := repo.GetBoost(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBoostNotFound
		}
		return nil, err
	}
	return b, nil
}

// Create validates and persists a new boost campaign.
func (s *BoostService) Create(ctx context.Context, b *domain.CategoryBoost) error {
	tr := otel.Tracer("services/BoostService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("boost.label", b.CategoryLabel)),
	)
	defer span.End()

	if err := validateBoost(b); err != nil {
		return err
	}
	if err := repo.CreateBoost(ctx, s.DB, b); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

// Update validates and persists changes to an existing boost campaign.
func (s *BoostService) Update(ctx context.Context, b *domain.CategoryBoost) error {
	tr := otel.Tracer("services/BoostService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.String("boost.id", b.ID)),
	)
	defer span.End()

	if err := validateBoost(b); err != nil {
		return err
	}
	if err := repo.UpdateBoost(ctx, s.DB, b); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBoostNotFound
		}
		return err
	}
	s.Invalidate()
	return nil
}

// Deactivate retires a boost campaign without deleting its history.
func (s *BoostService) Deactivate(ctx context.Context, id string) error {
	tr := otel.Tracer("services/BoostService")
	ctx, span := tr.Start(ctx, "Deactivate",
		trace.WithAttributes(attribute.String("boost.id", id)),
	)
	defer span.End()

	if err := repo.DeactivateBoost(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBoostNotFound
		}
		return err
	}
	s.Invalidate()
	return nil
}

func validateBoost(b *domain.CategoryBoost) error {
	if strings.TrimSpace(b.CategoryLabel) == "" {
		return ErrMissingBoostLabel
	}
	if b.Multiplier < minBoostMultiplier || b.Multiplier > maxBoostMultiplier {
		return ErrInvalidMultiplier
	}
	if b.StartsAt != nil && b.EndsAt != nil && !b.EndsAt.After(*b.StartsAt) {
		return ErrInvalidBoostWindow
	}
	return nil
}
