// Package services – DemandService
//
// This file implements DemandService, the application-level component that
// owns event application: it validates inbound demand signals, resolves their
// weight against the cached boost registry, and applies them to the per-
// barcode DemandRecord as one atomic unit (counters, scan log, contributor
// ledger, and every materialized view together). Concurrent events for the
// same barcode serialize through a bounded optimistic retry loop on the
// record's version column; events for different barcodes proceed in
// parallel.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the barcode and event type. Transition events (threshold crossings,
// urgency escalations) are handed to a non-blocking Publisher after the
// transaction commits, so notification delivery can never fail a write.
package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/provelab/go-demand-backend/internal/domain"
	"github.com/provelab/go-demand-backend/internal/engine"
	"github.com/provelab/go-demand-backend/internal/notify"
	"github.com/provelab/go-demand-backend/internal/repo"
	"github.com/provelab/go-demand-backend/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultMaxRetries bounds the optimistic retry loop. Conflicts on a single
// barcode resolve in one or two attempts in practice; exhausting the bound
// is surfaced as a transient, retryable failure.
const defaultMaxRetries = 5

// defaultIdempotencyTTL is how long a recorded Idempotency-Key shields its
// event from being applied again.
const defaultIdempotencyTTL = 24 * time.Hour

// BoostSource supplies the currently active category boosts. The production
// implementation is BoostService's interval-refreshed snapshot cache; tests
// substitute a fixed slice.
type BoostSource interface {
	Active(ctx context.Context) []domain.CategoryBoost
}

// Event is one inbound demand signal.
type Event struct {
	Barcode      string
	Type         string
	VoterKey     string
	SubmissionID string // required for photo contributions

	// IdempotencyKey, when set, makes the whole application retryable: a
	// second event carrying the same (voter, barcode, key) tuple inside the
	// TTL window is acknowledged with the current summary and applies nothing.
	IdempotencyKey string

	// Optional catalog metadata; backfilled onto the record when absent.
	ProductName string
	Brand       string
	Category    string
	ImageURL    string

	// Timestamp of the event; the zero value means "now".
	Timestamp time.Time
}

// Summary is the public-facing projection of a record returned to callers.
// It exposes only derived fields; internal bookkeeping (scan log, version,
// notification state) stays private.
type Summary struct {
	Barcode                string  `json:"barcode"`
	ProductName            string  `json:"product_name,omitempty"`
	Brand                  string  `json:"brand,omitempty"`
	ImageURL               string  `json:"image_url,omitempty"`
	WeightedTotal          float64 `json:"weighted_total"`
	FundingThreshold       float64 `json:"funding_threshold"`
	FundingProgressPercent int     `json:"funding_progress_percent"`
	Status                 string  `json:"status"`
	UrgencyTier            string  `json:"urgency_tier"`
	VelocityScore          float64 `json:"velocity_score"`
	ScansLast24h           int     `json:"scans_last_24h"`
	ScansLast7d            int     `json:"scans_last_7d"`
	UniqueVoters           int64   `json:"unique_voters"`
	FirstVoterKey          string  `json:"first_voter_key,omitempty"`
}

// DemandService coordinates atomic event application and read queries over
// demand records.
type DemandService struct {
	DB     *gorm.DB
	Boosts BoostSource
	Events notify.Publisher

	// DefaultThreshold seeds FundingThreshold on record creation.
	DefaultThreshold float64

	// EscalationCooldown suppresses repeat urgency notifications for a
	// record inside the window. Zero disables the cooldown.
	EscalationCooldown time.Duration

	// IdempotencyTTL bounds how long a client Idempotency-Key stays valid;
	// <=0 uses the default.
	IdempotencyTTL time.Duration

	// MaxRetries bounds the optimistic retry loop; <=0 uses the default.
	MaxRetries int
}

// ApplyEvent validates and applies one demand signal, returning the updated
// public summary. The whole mutation is atomic per barcode: either every
// counter, ledger entry, and materialized view reflects the event, or none
// do. On exhausted retries it returns ErrConcurrencyConflict, which is safe
// for the caller to retry.
func (s *DemandService) ApplyEvent(ctx context.Context, ev Event) (*Summary, error) {
	tr := otel.Tracer("services/DemandService")
	ctx, span := tr.Start(ctx, "ApplyEvent",
		trace.WithAttributes(
			attribute.String("demand.barcode", ev.Barcode),
			attribute.String("demand.event_type", ev.Type),
		),
	)
	defer span.End()

	if err := s.validate(&ev); err != nil {
		return nil, err
	}

	boosts := s.activeBoosts(ctx)

	retries := s.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	for attempt := 0; attempt < retries; attempt++ {
		summary, emits, err := s.applyOnce(ctx, ev, boosts)
		if errors.Is(err, repo.ErrVersionConflict) {
			demandEventConflicts.Inc()
			continue
		}
		if err != nil {
			return nil, err
		}
		demandEventsTotal.WithLabelValues(ev.Type).Inc()
		for _, e := range emits {
			switch e.Kind {
			case notify.KindThresholdReached:
				demandThresholdCrossings.Inc()
			case notify.KindUrgencyEscalated:
				demandUrgencyEscalations.WithLabelValues(e.Tier).Inc()
			}
			if s.Events != nil {
				s.Events.Publish(e)
			}
		}
		return summary, nil
	}
	return nil, ErrConcurrencyConflict
}

// Get returns the public summary for a barcode, or ErrUnknownBarcode.
func (s *DemandService) Get(ctx context.Context, barcode string) (*Summary, error) {
	tr := otel.Tracer("services/DemandService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(attribute.String("demand.barcode", barcode)),
	)
	defer span.End()

	rec, err := repo.GetDemandByBarcode(ctx, s.DB, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownBarcode
		}
		return nil, err
	}
	return summarize(rec), nil
}

// Contributors returns a page of the record's contributor ledger in arrival
// order together with the ledger size, or ErrUnknownBarcode.
func (s *DemandService) Contributors(ctx context.Context, barcode string, page, pageSize int) ([]domain.Contributor, int64, error) {
	tr := otel.Tracer("services/DemandService")
	ctx, span := tr.Start(ctx, "Contributors",
		trace.WithAttributes(
			attribute.String("demand.barcode", barcode),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	rec, err := repo.GetDemandByBarcode(ctx, s.DB, barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrUnknownBarcode
		}
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountContributors(ctx, s.DB, rec.ID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Contributor{}, 0, nil
	}
	items, err := repo.ListContributorsPage(ctx, s.DB, rec.ID, utils.Offset(page, pageSize), pageSize)
	return items, total, err
}

// validate normalizes the event and rejects malformed input before any
// persistence work.
func (s *DemandService) validate(ev *Event) error {
	switch ev.Type {
	case domain.EventSearch, domain.EventScan, domain.EventMemberScan:
	case domain.EventPhotoContribution:
		if strings.TrimSpace(ev.SubmissionID) == "" {
			return ErrMissingSubmissionID
		}
	default:
		return ErrInvalidEventType
	}
	if strings.TrimSpace(ev.Barcode) == "" {
		return ErrMissingBarcode
	}
	if strings.TrimSpace(ev.VoterKey) == "" {
		return ErrMissingVoterKey
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ev.Timestamp = ev.Timestamp.UTC()
	return nil
}

func (s *DemandService) activeBoosts(ctx context.Context) []domain.CategoryBoost {
	if s.Boosts == nil {
		return nil
	}
	return s.Boosts.Active(ctx)
}

// applyOnce runs one attempt of the atomic read-modify-write. It returns
// repo.ErrVersionConflict when another writer committed first (including a
// lost creation race), in which case the transaction has been rolled back
// and the caller retries against fresh state.
func (s *DemandService) applyOnce(ctx context.Context, ev Event, boosts []domain.CategoryBoost) (*Summary, []notify.Event, error) {
	var (
		summary *Summary
		emits   []notify.Event
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := repo.GetDemandByBarcode(ctx, tx, ev.Barcode)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rec, err = repo.CreateDemand(ctx, tx, ev.Barcode, ev.ProductName, ev.Brand, ev.Category, ev.ImageURL, s.DefaultThreshold, ev.Timestamp)
			if err != nil {
				if repo.IsDuplicate(err) {
					// Lost the creation race; retry falls through to the
					// winner's row.
					return repo.ErrVersionConflict
				}
				return err
			}
		} else if err != nil {
			return err
		}

		// A key the voter already spent on this barcode means the event was
		// applied by an earlier request; acknowledge with the current state.
		if ev.IdempotencyKey != "" {
			if _, ierr := repo.GetIdempotency(ctx, tx, ev.VoterKey, ev.Barcode, ev.IdempotencyKey, ev.Timestamp); ierr == nil {
				summary = summarize(rec)
				return nil
			} else if !errors.Is(ierr, repo.ErrNotFound) {
				return ierr
			}
		}

		// Terminal records are frozen for ranking purposes; acknowledge the
		// event without mutating.
		if rec.Terminal() {
			summary = summarize(rec)
			return nil
		}

		weight, err := engine.ResolveWeight(ev.Type, productText(rec, ev), boosts, ev.Timestamp)
		if err != nil {
			return ErrInvalidEventType
		}

		if ev.Type == domain.EventPhotoContribution {
			applied, perr := s.applyPhoto(ctx, tx, rec, ev, weight)
			if perr != nil {
				return perr
			}
			if !applied {
				// Replayed submission id: idempotent no-op success.
				summary = summarize(rec)
				return nil
			}
		} else {
			if err := s.applySignal(ctx, tx, rec, ev, weight); err != nil {
				return err
			}
		}

		backfillMetadata(rec, ev)

		// Recompute every materialized view inside the same atomic unit as
		// the counters it derives from.
		cutoff := engine.PruneCutoff(ev.Timestamp)
		stamps, err := repo.ScanTimestampsSince(ctx, tx, rec.ID, cutoff)
		if err != nil {
			return err
		}
		v := engine.ComputeVelocity(stamps, rec.WeightedTotal, ev.Timestamp)
		rec.ScansLast24h = v.Last24h
		rec.ScansLast7d = v.Last7d
		rec.VelocityScore = v.Score
		rec.FundingProgressPercent = engine.Progress(rec.WeightedTotal, rec.FundingThreshold)

		if engine.CrossedThreshold(rec.Status, rec.WeightedTotal, rec.FundingThreshold) {
			rec.Status = domain.StatusThresholdReached
			emits = append(emits, notify.Event{
				Kind:             notify.KindThresholdReached,
				Barcode:          rec.Barcode,
				At:               ev.Timestamp,
				WeightedTotal:    rec.WeightedTotal,
				FundingThreshold: rec.FundingThreshold,
			})
		}

		newTier := engine.ClassifyUrgency(v.Last24h, v.Last7d)
		if engine.TierRank(newTier) > engine.TierRank(rec.UrgencyTier) && s.escalationAllowed(rec, ev.Timestamp) {
			at := ev.Timestamp
			rec.LastEscalationAt = &at
			emits = append(emits, notify.Event{
				Kind:    notify.KindUrgencyEscalated,
				Barcode: rec.Barcode,
				At:      ev.Timestamp,
				Tier:    newTier,
			})
		}
		rec.UrgencyTier = newTier

		if err := repo.SaveVersioned(ctx, tx, rec); err != nil {
			return err
		}

		// Prune only after the 7d count has been computed from the log.
		if err := repo.PruneScanEvents(ctx, tx, rec.ID, cutoff); err != nil {
			return err
		}

		// Spend the client key in the same transaction as the write it
		// shields, so a retry can never observe the write without the key.
		if ev.IdempotencyKey != "" {
			ttl := s.IdempotencyTTL
			if ttl <= 0 {
				ttl = defaultIdempotencyTTL
			}
			if _, ierr := repo.CreateIdempotency(ctx, tx, ev.VoterKey, ev.Barcode, ev.IdempotencyKey, rec.ID, http.StatusOK, ttl); ierr != nil {
				if errors.Is(ierr, repo.ErrDuplicate) {
					// A concurrent retry spent the key first; retry and take
					// the replay path against its committed state.
					return repo.ErrVersionConflict
				}
				return ierr
			}
		}

		summary = summarize(rec)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return summary, emits, nil
}

// applySignal applies a search/scan/member_scan: weight, per-type counter,
// scan log row, and contributor ledger credit for first-time voters.
func (s *DemandService) applySignal(ctx context.Context, tx *gorm.DB, rec *domain.DemandRecord, ev Event, weight float64) error {
	rec.WeightedTotal += weight
	switch ev.Type {
	case domain.EventSearch:
		rec.SearchCount++
	case domain.EventScan:
		rec.ScanCount++
	case domain.EventMemberScan:
		rec.MemberScanCount++
	}

	if err := repo.AppendScanEvent(ctx, tx, rec.ID, ev.Type, ev.Timestamp); err != nil {
		return err
	}

	_, err := repo.GetContributor(ctx, tx, rec.ID, ev.VoterKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		seq := int(rec.UniqueVoters) + 1
		if _, cerr := repo.CreateContributor(ctx, tx, rec.ID, ev.VoterKey, seq, ev.Timestamp); cerr != nil {
			if repo.IsDuplicate(cerr) {
				// A concurrent transaction credited this voter first; the
				// version guard on save arbitrates which attempt commits.
				return repo.ErrVersionConflict
			}
			return cerr
		}
		rec.UniqueVoters++
		if rec.FirstVoterKey == "" {
			at := ev.Timestamp
			rec.FirstVoterKey = ev.VoterKey
			rec.FirstContributedAt = &at
		}
		return nil
	}
	return err
}

// applyPhoto applies a photo contribution. Returns applied=false when the
// submission id was already recorded (idempotent replay).
func (s *DemandService) applyPhoto(ctx context.Context, tx *gorm.DB, rec *domain.DemandRecord, ev Event, weight float64) (applied bool, err error) {
	_, err = repo.GetPhotoContribution(ctx, tx, rec.ID, ev.SubmissionID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if _, err := repo.CreatePhotoContribution(ctx, tx, rec.ID, ev.SubmissionID, ev.VoterKey, weight, ev.Timestamp); err != nil {
		if repo.IsDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	rec.WeightedTotal += weight
	return true, nil
}

// escalationAllowed applies the notification cooldown.
func (s *DemandService) escalationAllowed(rec *domain.DemandRecord, now time.Time) bool {
	if s.EscalationCooldown <= 0 || rec.LastEscalationAt == nil {
		return true
	}
	return now.Sub(*rec.LastEscalationAt) >= s.EscalationCooldown
}

// backfillMetadata fills catalog metadata the record is still missing.
// Existing values are never overwritten.
func backfillMetadata(rec *domain.DemandRecord, ev Event) {
	if rec.ProductName == "" && ev.ProductName != "" {
		rec.ProductName = ev.ProductName
	}
	if rec.Brand == "" && ev.Brand != "" {
		rec.Brand = ev.Brand
	}
	if rec.Category == "" && ev.Category != "" {
		rec.Category = ev.Category
	}
	if rec.ImageURL == "" && ev.ImageURL != "" {
		rec.ImageURL = ev.ImageURL
	}
}

// productText concatenates the text the boost matcher sees: stored metadata
// first, falling back to whatever the event carried.
func productText(rec *domain.DemandRecord, ev Event) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{rec.ProductName, rec.Brand, rec.Category, ev.ProductName, ev.Brand, ev.Category} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// summarize projects a record onto its public summary.
func summarize(rec *domain.DemandRecord) *Summary {
	return &Summary{
		Barcode:                rec.Barcode,
		ProductName:            rec.ProductName,
		Brand:                  rec.Brand,
		ImageURL:               rec.ImageURL,
		WeightedTotal:          rec.WeightedTotal,
		FundingThreshold:       rec.FundingThreshold,
		FundingProgressPercent: rec.FundingProgressPercent,
		Status:                 rec.Status,
		UrgencyTier:            rec.UrgencyTier,
		VelocityScore:          rec.VelocityScore,
		ScansLast24h:           rec.ScansLast24h,
		ScansLast7d:            rec.ScansLast7d,
		UniqueVoters:           rec.UniqueVoters,
		FirstVoterKey:          rec.FirstVoterKey,
	}
}
