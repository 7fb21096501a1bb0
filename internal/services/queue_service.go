package services

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/provelab/go-demand-backend/internal/engine"
	"github.com/provelab/go-demand-backend/internal/notify"
	"github.com/provelab/go-demand-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultJumpThreshold is the minimum upward move, in positions, that
// triggers a queue jump notification.
const defaultJumpThreshold = 3

// QueueEntry is one row of the ranked testing queue.
type QueueEntry struct {
	Position               int     `json:"position"`
	Barcode                string  `json:"barcode"`
	ProductName            string  `json:"product_name,omitempty"`
	Brand                  string  `json:"brand,omitempty"`
	WeightedTotal          float64 `json:"weighted_total"`
	FundingProgressPercent int     `json:"funding_progress_percent"`
	VelocityScore          float64 `json:"velocity_score"`
	UrgencyTier            string  `json:"urgency_tier"`
	Status                 string  `json:"status"`
}

// QueueService produces the ranked testing queue. Ranking reads every
// non-terminal record, so concurrent requests for the queue are collapsed
// into a single computation with singleflight; each caller gets the same
// freshly ranked slice.
type QueueService struct {
	DB     *gorm.DB
	Events notify.Publisher

	// JumpThreshold is the minimum upward move that emits a notification;
	// <=0 uses the default.
	JumpThreshold int

	sf singleflight.Group
}

// List returns one page of the ranked queue plus the total queue length.
// page is 1-based; pageSize <=0 falls back to 20.
func (s *QueueService) List(ctx context.Context, page, pageSize int) ([]QueueEntry, int, error) {
	tr := otel.Tracer("services/QueueService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	entries, err := s.ranked(ctx)
	if err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(entries) {
		return []QueueEntry{}, len(entries), nil
	}
	end := start + pageSize
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end], len(entries), nil
}

// Version returns a cheap fingerprint of the queue for HTTP caching: the
// non-terminal record count and the latest record update time.
func (s *QueueService) Version(ctx context.Context) (int64, string, error) {
	count, maxUpdated, err := repo.QueueStats(ctx, s.DB)
	if err != nil {
		return 0, "", err
	}
	stamp := ""
	if maxUpdated != nil {
		stamp = maxUpdated.UTC().Format("20060102150405.000000")
	}
	return count, stamp, nil
}

// ranked computes the full ranked queue once per concurrent burst and
// writes display positions back to the records.
func (s *QueueService) ranked(ctx context.Context) ([]QueueEntry, error) {
	v, err, _ := s.sf.Do("queue", func() (any, error) {
		return s.computeRanked(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]QueueEntry), nil
}

func (s *QueueService) computeRanked(ctx context.Context) ([]QueueEntry, error) {
	records, err := repo.ListNonTerminal(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	ranked := engine.Rank(records)

	jump := s.JumpThreshold
	if jump <= 0 {
		jump = defaultJumpThreshold
	}

	entries := make([]QueueEntry, 0, len(ranked))
	for i := range ranked {
		rec := &ranked[i]
		pos := i + 1

		if rec.PreviousQueuePosition != nil && *rec.PreviousQueuePosition-pos >= jump {
			demandQueueJumps.Inc()
			if s.Events != nil {
				s.Events.Publish(notify.Event{
					Kind:          notify.KindQueuePositionJump,
					Barcode:       rec.Barcode,
					At:            time.Now().UTC(),
					WeightedTotal: rec.WeightedTotal,
					Tier:          rec.UrgencyTier,
					FromPosition:  *rec.PreviousQueuePosition,
					ToPosition:    pos,
				})
			}
		}

		// Position write-back is display bookkeeping; a failure here must
		// not break the read path.
		if rec.Rank == nil || *rec.Rank != pos {
			_ = repo.UpdateQueuePosition(ctx, s.DB, rec.ID, pos)
		}

		entries = append(entries, QueueEntry{
			Position:               pos,
			Barcode:                rec.Barcode,
			ProductName:            rec.ProductName,
			Brand:                  rec.Brand,
			WeightedTotal:          rec.WeightedTotal,
			FundingProgressPercent: rec.FundingProgressPercent,
			VelocityScore:          rec.VelocityScore,
			UrgencyTier:            rec.UrgencyTier,
			Status:                 rec.Status,
		})
	}
	return entries, nil
}
