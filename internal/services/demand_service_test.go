package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/provelab/go-demand-backend/internal/domain"
	"github.com/provelab/go-demand-backend/internal/notify"
	"github.com/provelab/go-demand-backend/internal/repo"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique DB per test; busy_timeout keeps concurrent writers from
	// surfacing spurious lock errors instead of version conflicts.
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared&_pragma=busy_timeout(10000)", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fixedBoosts satisfies BoostSource with a static slice.
type fixedBoosts []domain.CategoryBoost

func (f fixedBoosts) Active(context.Context) []domain.CategoryBoost { return f }

// capturePublisher records published events synchronously.
type capturePublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *capturePublisher) Publish(ev notify.Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *capturePublisher) byKind(kind string) []notify.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []notify.Event
	for _, ev := range c.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func newDemandService(t *testing.T, threshold float64, boosts fixedBoosts) (*DemandService, *capturePublisher) {
	t.Helper()
	pub := &capturePublisher{}
	svc := &DemandService{
		DB:               newServiceDB(t),
		Boosts:           boosts,
		Events:           pub,
		DefaultThreshold: threshold,
	}
	return svc, pub
}

func TestApplyEvent_Validation(t *testing.T) {
	svc, _ := newDemandService(t, 1000, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		ev   Event
		want error
	}{
		{"unknown type", Event{Barcode: "b", VoterKey: "v", Type: "like"}, ErrInvalidEventType},
		{"no barcode", Event{VoterKey: "v", Type: domain.EventScan}, ErrMissingBarcode},
		{"no voter", Event{Barcode: "b", Type: domain.EventScan}, ErrMissingVoterKey},
		{"photo without submission", Event{Barcode: "b", VoterKey: "v", Type: domain.EventPhotoContribution}, ErrMissingSubmissionID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ApplyEvent(ctx, tc.ev); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestApplyEvent_AccumulationAndBoost(t *testing.T) {
	boost := domain.CategoryBoost{
		ID:            "boost-1",
		CategoryLabel: "sunscreen",
		Keywords:      "sunscreen,spf",
		Multiplier:    4,
		IsActive:      true,
	}
	svc, _ := newDemandService(t, 1000, fixedBoosts{boost})
	ctx := context.Background()

	// Ten plain scans of an unboosted product.
	for i := 0; i < 10; i++ {
		sum, err := svc.ApplyEvent(ctx, Event{
			Barcode:  "4006381333931",
			Type:     domain.EventScan,
			VoterKey: fmt.Sprintf("voter-%d", i),
			Category: "hair care",
		})
		if err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
		if i == 9 && sum.WeightedTotal != 50 {
			t.Fatalf("weighted total = %v, want 50", sum.WeightedTotal)
		}
	}

	// A member scan of a boosted product adds 20*4.
	sum, err := svc.ApplyEvent(ctx, Event{
		Barcode:     "4006381333931",
		Type:        domain.EventMemberScan,
		VoterKey:    "member-1",
		ProductName: "Daily Sunscreen SPF50",
		Category:    "sunscreen",
	})
	if err != nil {
		t.Fatalf("member scan: %v", err)
	}
	if sum.WeightedTotal != 130 {
		t.Fatalf("weighted total = %v, want 130", sum.WeightedTotal)
	}
	if sum.FundingProgressPercent != 13 {
		t.Fatalf("progress = %d, want 13", sum.FundingProgressPercent)
	}
	if sum.Status != domain.StatusCollectingVotes {
		t.Fatalf("status = %q, want collecting_votes", sum.Status)
	}
	if sum.UniqueVoters != 11 {
		t.Fatalf("unique voters = %d, want 11", sum.UniqueVoters)
	}
}

func TestApplyEvent_ThresholdCrossesExactlyOnce(t *testing.T) {
	svc, pub := newDemandService(t, 100, nil)
	ctx := context.Background()

	// Five member scans reach the threshold exactly.
	for i := 0; i < 5; i++ {
		if _, err := svc.ApplyEvent(ctx, Event{
			Barcode:  "cross-1",
			Type:     domain.EventMemberScan,
			VoterKey: fmt.Sprintf("v-%d", i),
		}); err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
	}
	sum, err := svc.Get(ctx, "cross-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sum.Status != domain.StatusThresholdReached {
		t.Fatalf("status = %q, want threshold_reached", sum.Status)
	}
	if sum.FundingProgressPercent != 100 {
		t.Fatalf("progress = %d, want 100", sum.FundingProgressPercent)
	}

	// More demand keeps accumulating but never re-crosses.
	if _, err := svc.ApplyEvent(ctx, Event{Barcode: "cross-1", Type: domain.EventScan, VoterKey: "late"}); err != nil {
		t.Fatalf("post-cross event: %v", err)
	}
	crossings := pub.byKind(notify.KindThresholdReached)
	if len(crossings) != 1 {
		t.Fatalf("threshold crossings = %d, want 1", len(crossings))
	}
	if crossings[0].WeightedTotal != 100 || crossings[0].FundingThreshold != 100 {
		t.Fatalf("crossing payload: %+v", crossings[0])
	}

	sum, _ = svc.Get(ctx, "cross-1")
	if sum.WeightedTotal != 105 || sum.FundingProgressPercent != 100 {
		t.Fatalf("post-cross summary: %+v", sum)
	}
}

func TestApplyEvent_RepeatVoterCountsOnce(t *testing.T) {
	svc, _ := newDemandService(t, 1000, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.ApplyEvent(ctx, Event{Barcode: "rep-1", Type: domain.EventScan, VoterKey: "same"}); err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
	}
	sum, err := svc.Get(ctx, "rep-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	// Weight accumulates on every scan; the ledger credits the voter once.
	if sum.WeightedTotal != 25 {
		t.Fatalf("weighted total = %v, want 25", sum.WeightedTotal)
	}
	if sum.UniqueVoters != 1 {
		t.Fatalf("unique voters = %d, want 1", sum.UniqueVoters)
	}
	if sum.FirstVoterKey != "same" {
		t.Fatalf("first voter = %q, want same", sum.FirstVoterKey)
	}
}

func TestApplyEvent_FirstScoutIsPermanent(t *testing.T) {
	svc, _ := newDemandService(t, 1000, nil)
	ctx := context.Background()

	if _, err := svc.ApplyEvent(ctx, Event{Barcode: "scout-1", Type: domain.EventSearch, VoterKey: "pioneer"}); err != nil {
		t.Fatalf("first event: %v", err)
	}
	if _, err := svc.ApplyEvent(ctx, Event{Barcode: "scout-1", Type: domain.EventMemberScan, VoterKey: "heavy"}); err != nil {
		t.Fatalf("second event: %v", err)
	}
	sum, _ := svc.Get(ctx, "scout-1")
	if sum.FirstVoterKey != "pioneer" {
		t.Fatalf("first voter = %q, want pioneer", sum.FirstVoterKey)
	}

	items, total, err := svc.Contributors(ctx, "scout-1", 1, 10)
	if err != nil {
		t.Fatalf("Contributors: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("ledger size = %d/%d, want 2", total, len(items))
	}
	if items[0].VoterKey != "pioneer" || items[0].Seq != 1 {
		t.Fatalf("ledger head: %+v", items[0])
	}
	if items[1].VoterKey != "heavy" || items[1].Seq != 2 {
		t.Fatalf("ledger second: %+v", items[1])
	}
}

func TestApplyEvent_PhotoContributionIdempotent(t *testing.T) {
	svc, _ := newDemandService(t, 1000, nil)
	ctx := context.Background()

	ev := Event{
		Barcode:      "photo-1",
		Type:         domain.EventPhotoContribution,
		VoterKey:     "ph",
		SubmissionID: "sub-123",
	}
	sum, err := svc.ApplyEvent(ctx, ev)
	if err != nil {
		t.Fatalf("first photo: %v", err)
	}
	if sum.WeightedTotal != 10 {
		t.Fatalf("weighted total = %v, want 10", sum.WeightedTotal)
	}

	// Retrying the same submission id is a no-op success.
	sum, err = svc.ApplyEvent(ctx, ev)
	if err != nil {
		t.Fatalf("replayed photo: %v", err)
	}
	if sum.WeightedTotal != 10 {
		t.Fatalf("replay changed total: %v", sum.WeightedTotal)
	}

	// A different submission id is new demand.
	ev.SubmissionID = "sub-456"
	sum, err = svc.ApplyEvent(ctx, ev)
	if err != nil {
		t.Fatalf("second photo: %v", err)
	}
	if sum.WeightedTotal != 20 {
		t.Fatalf("weighted total = %v, want 20", sum.WeightedTotal)
	}
}

func TestApplyEvent_IdempotencyKeyShieldsRetries(t *testing.T) {
	svc, _ := newDemandService(t, 1000, nil)
	ctx := context.Background()

	ev := Event{
		Barcode:        "retry-1",
		Type:           domain.EventMemberScan,
		VoterKey:       "dev-a",
		IdempotencyKey: "req-001",
	}
	sum, err := svc.ApplyEvent(ctx, ev)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if sum.WeightedTotal != 20 {
		t.Fatalf("weighted total = %v, want 20", sum.WeightedTotal)
	}

	// The client retransmits after a lost response; nothing is applied twice.
	sum, err = svc.ApplyEvent(ctx, ev)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if sum.WeightedTotal != 20 {
		t.Fatalf("retry double-applied: %v", sum.WeightedTotal)
	}
	if sum.ScansLast24h != 1 {
		t.Fatalf("retry grew the scan log: %d", sum.ScansLast24h)
	}

	// The key was spent against the record and is discoverable by voter+key.
	rec, err := repo.FindIdempotencyByKey(ctx, svc.DB, "dev-a", "req-001", time.Now().UTC())
	if err != nil || rec.Barcode != "retry-1" {
		t.Fatalf("key not recorded: %v %+v", err, rec)
	}

	// A fresh key from the same voter is a real second event.
	ev.IdempotencyKey = "req-002"
	sum, err = svc.ApplyEvent(ctx, ev)
	if err != nil {
		t.Fatalf("second event: %v", err)
	}
	if sum.WeightedTotal != 40 {
		t.Fatalf("weighted total = %v, want 40", sum.WeightedTotal)
	}

	// Another voter may reuse the same key string independently.
	other := Event{Barcode: "retry-1", Type: domain.EventScan, VoterKey: "dev-b", IdempotencyKey: "req-001"}
	sum, err = svc.ApplyEvent(ctx, other)
	if err != nil {
		t.Fatalf("other voter: %v", err)
	}
	if sum.WeightedTotal != 45 {
		t.Fatalf("weighted total = %v, want 45", sum.WeightedTotal)
	}
}

func TestApplyEvent_MetadataBackfillNeverOverwrites(t *testing.T) {
	svc, _ := newDemandService(t, 1000, nil)
	ctx := context.Background()

	if _, err := svc.ApplyEvent(ctx, Event{Barcode: "meta-1", Type: domain.EventScan, VoterKey: "a"}); err != nil {
		t.Fatalf("bare event: %v", err)
	}
	sum, err := svc.ApplyEvent(ctx, Event{
		Barcode: "meta-1", Type: domain.EventScan, VoterKey: "b",
		ProductName: "Night Cream", Brand: "Calma",
	})
	if err != nil {
		t.Fatalf("backfill event: %v", err)
	}
	if sum.ProductName != "Night Cream" || sum.Brand != "Calma" {
		t.Fatalf("backfill missing: %+v", sum)
	}

	sum, err = svc.ApplyEvent(ctx, Event{
		Barcode: "meta-1", Type: domain.EventScan, VoterKey: "c",
		ProductName: "Renamed", Brand: "Other",
	})
	if err != nil {
		t.Fatalf("overwrite event: %v", err)
	}
	if sum.ProductName != "Night Cream" || sum.Brand != "Calma" {
		t.Fatalf("existing metadata overwritten: %+v", sum)
	}
}

func TestApplyEvent_TerminalRecordsAreFrozen(t *testing.T) {
	svc, _ := newDemandService(t, 1000, nil)
	ctx := context.Background()

	if _, err := svc.ApplyEvent(ctx, Event{Barcode: "done-1", Type: domain.EventScan, VoterKey: "a"}); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	rec, err := repo.GetDemandByBarcode(ctx, svc.DB, "done-1")
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	rec.Status = domain.StatusComplete
	if err := repo.SaveVersioned(ctx, svc.DB, rec); err != nil {
		t.Fatalf("complete record: %v", err)
	}

	sum, err := svc.ApplyEvent(ctx, Event{Barcode: "done-1", Type: domain.EventMemberScan, VoterKey: "late"})
	if err != nil {
		t.Fatalf("event on complete record: %v", err)
	}
	if sum.WeightedTotal != 5 || sum.Status != domain.StatusComplete {
		t.Fatalf("complete record mutated: %+v", sum)
	}
}

func TestApplyEvent_UrgencyEscalationWithCooldown(t *testing.T) {
	svc, pub := newDemandService(t, 100000, nil)
	svc.EscalationCooldown = 6 * time.Hour
	ctx := context.Background()
	base := time.Now().UTC()

	// 20 scans inside 24h lifts the record to trending.
	for i := 0; i < 20; i++ {
		if _, err := svc.ApplyEvent(ctx, Event{
			Barcode:   "hot-1",
			Type:      domain.EventScan,
			VoterKey:  fmt.Sprintf("v-%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
	}
	sum, _ := svc.Get(ctx, "hot-1")
	if sum.UrgencyTier != domain.TierTrending {
		t.Fatalf("tier = %q, want trending", sum.UrgencyTier)
	}
	if got := pub.byKind(notify.KindUrgencyEscalated); len(got) != 1 || got[0].Tier != domain.TierTrending {
		t.Fatalf("escalation events: %+v", got)
	}
}

func TestApplyEvent_ConcurrentWritersLoseNothing(t *testing.T) {
	svc, _ := newDemandService(t, 100000, nil)
	svc.MaxRetries = 50
	ctx := context.Background()

	const workers = 4
	const perWorker = 5
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ev := Event{
					Barcode:  "busy-1",
					Type:     domain.EventScan,
					VoterKey: fmt.Sprintf("w%d-v%d", w, i),
				}
				for {
					_, err := svc.ApplyEvent(ctx, ev)
					if errors.Is(err, ErrConcurrencyConflict) {
						continue
					}
					if err != nil {
						errs <- err
					}
					break
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent apply: %v", err)
	}

	sum, err := svc.Get(ctx, "busy-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if want := float64(workers * perWorker * 5); sum.WeightedTotal != want {
		t.Fatalf("weighted total = %v, want %v", sum.WeightedTotal, want)
	}
	if sum.UniqueVoters != workers*perWorker {
		t.Fatalf("unique voters = %d, want %d", sum.UniqueVoters, workers*perWorker)
	}
}

func TestGet_UnknownBarcode(t *testing.T) {
	svc, _ := newDemandService(t, 1000, nil)
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, ErrUnknownBarcode) {
		t.Fatalf("got %v, want ErrUnknownBarcode", err)
	}
	if _, _, err := svc.Contributors(context.Background(), "nope", 1, 10); !errors.Is(err, ErrUnknownBarcode) {
		t.Fatalf("got %v, want ErrUnknownBarcode", err)
	}
}
