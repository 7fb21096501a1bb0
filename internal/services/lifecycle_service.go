package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/provelab/go-demand-backend/internal/domain"
	"github.com/provelab/go-demand-backend/internal/engine"
	"github.com/provelab/go-demand-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LifecycleService moves records through the testing intake pipeline and
// hosts the administrative escape hatches (status override and weight
// correction). Every mutation here is version-guarded like event
// application, so lifecycle changes never clobber a concurrent event and
// vice versa.
type LifecycleService struct {
	DB *gorm.DB

	// MaxRetries bounds the optimistic retry loop; <=0 uses the default.
	MaxRetries int
}

// Advance moves a record exactly one step forward in the lifecycle:
// threshold_reached to queued, queued to testing, testing to complete.
// target must name that next step; anything else is ErrInvalidTransition.
// When the target is complete, linkedProductID records the published test
// result the demand resolved into.
func (s *LifecycleService) Advance(ctx context.Context, barcode, target, linkedProductID string) (*Summary, error) {
	tr := otel.Tracer("services/LifecycleService")
	ctx, span := tr.Start(ctx, "Advance",
		trace.WithAttributes(
			attribute.String("demand.barcode", barcode),
			attribute.String("demand.target_status", target),
		),
	)
	defer span.End()

	targetOrder, ok := domain.StatusOrder[target]
	if !ok {
		return nil, ErrUnknownStatus
	}

	return s.mutate(ctx, barcode, func(rec *domain.DemandRecord) error {
		cur, ok := domain.StatusOrder[rec.Status]
		if !ok || targetOrder != cur+1 {
			return ErrInvalidTransition
		}
		rec.Status = target
		if target == domain.StatusComplete && linkedProductID != "" {
			linked := linkedProductID
			rec.LinkedProductID = &linked
		}
		return nil
	})
}

// Override forces a record into an arbitrary lifecycle status, recording an
// audit row with the acting operator and reason. Unlike Advance it may move
// backward or skip steps; that is its purpose.
func (s *LifecycleService) Override(ctx context.Context, barcode, target, actor, reason string) (*Summary, error) {
	tr := otel.Tracer("services/LifecycleService")
	ctx, span := tr.Start(ctx, "Override",
		trace.WithAttributes(
			attribute.String("demand.barcode", barcode),
			attribute.String("demand.target_status", target),
		),
	)
	defer span.End()

	if _, ok := domain.StatusOrder[target]; !ok {
		return nil, ErrUnknownStatus
	}

	now := time.Now().UTC()
	return s.mutateTx(ctx, barcode, func(tx *gorm.DB, rec *domain.DemandRecord) error {
		from := rec.Status
		rec.Status = target
		// A record pulled back into collecting_votes competes on its
		// existing total again; refresh the derived progress view.
		rec.FundingProgressPercent = engine.Progress(rec.WeightedTotal, rec.FundingThreshold)
		return repo.CreateStatusOverride(ctx, tx, rec.ID, from, target, actor, reason, now)
	})
}

// Overrides returns the audit trail of administrative overrides for a
// barcode, oldest first.
func (s *LifecycleService) Overrides(ctx context.Context, barcode string) ([]domain.StatusOverride, error) {
	rec, err := repo.GetDemandByBarcode(ctx, s.DB, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownBarcode
		}
		return nil, err
	}
	return repo.ListStatusOverrides(ctx, s.DB, rec.ID)
}

// CorrectWeight replaces a record's weighted total, recomputing every view
// derived from it. The correction is audited alongside status overrides so
// abuse cleanups leave a trail. Negative totals are rejected; a correction
// that pushes a collecting record over its threshold triggers the normal
// crossing.
func (s *LifecycleService) CorrectWeight(ctx context.Context, barcode string, newTotal float64, actor, reason string) (*Summary, error) {
	tr := otel.Tracer("services/LifecycleService")
	ctx, span := tr.Start(ctx, "CorrectWeight",
		trace.WithAttributes(
			attribute.String("demand.barcode", barcode),
			attribute.Float64("demand.corrected_total", newTotal),
		),
	)
	defer span.End()

	if newTotal < 0 {
		return nil, ErrInvalidWeightCorrection
	}

	now := time.Now().UTC()
	return s.mutateTx(ctx, barcode, func(tx *gorm.DB, rec *domain.DemandRecord) error {
		from := rec.Status

		rec.WeightedTotal = newTotal
		stamps, err := repo.ScanTimestampsSince(ctx, tx, rec.ID, engine.PruneCutoff(now))
		if err != nil {
			return err
		}
		v := engine.ComputeVelocity(stamps, rec.WeightedTotal, now)
		rec.ScansLast24h = v.Last24h
		rec.ScansLast7d = v.Last7d
		rec.VelocityScore = v.Score
		rec.UrgencyTier = engine.ClassifyUrgency(v.Last24h, v.Last7d)
		rec.FundingProgressPercent = engine.Progress(rec.WeightedTotal, rec.FundingThreshold)
		if engine.CrossedThreshold(rec.Status, rec.WeightedTotal, rec.FundingThreshold) {
			rec.Status = domain.StatusThresholdReached
		}

		return repo.CreateStatusOverride(ctx, tx, rec.ID, from, rec.Status, actor, reason, now)
	})
}

// mutate runs fn against the record under the optimistic retry loop.
func (s *LifecycleService) mutate(ctx context.Context, barcode string, fn func(*domain.DemandRecord) error) (*Summary, error) {
	return s.mutateTx(ctx, barcode, func(_ *gorm.DB, rec *domain.DemandRecord) error {
		return fn(rec)
	})
}

// mutateTx is mutate with transaction access for audit writes.
func (s *LifecycleService) mutateTx(ctx context.Context, barcode string, fn func(tx *gorm.DB, rec *domain.DemandRecord) error) (*Summary, error) {
	retries := s.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	for attempt := 0; attempt < retries; attempt++ {
		var summary *Summary
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			rec, err := repo.GetDemandByBarcode(ctx, tx, barcode)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrUnknownBarcode
				}
				return err
			}
			if err := fn(tx, rec); err != nil {
				return err
			}
			if err := repo.SaveVersioned(ctx, tx, rec); err != nil {
				return err
			}
			summary = summarize(rec)
			return nil
		})
		if errors.Is(err, repo.ErrVersionConflict) {
			demandEventConflicts.Inc()
			continue
		}
		if err != nil {
			return nil, err
		}
		return summary, nil
	}
	return nil, ErrConcurrencyConflict
}
