package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/provelab/go-demand-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestQueueStats_CountError_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, _, err := QueueStats(context.Background(), db)
	if err == nil {
		t.Fatalf("expected error due to missing demand_records table")
	}
}

func TestQueueStats_ZeroRows(t *testing.T) {
	db := newTestDB(t, &domain.DemandRecord{})
	count, maxAt, err := QueueStats(context.Background(), db)
	if err != nil {
		t.Fatalf("QueueStats error: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}
}

func TestQueueStats_FilterAndMax(t *testing.T) {
	db := newTestDB(t, &domain.DemandRecord{})

	t1 := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC) // max among non-terminal
	t3 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)   // terminal, excluded

	seed := []domain.DemandRecord{
		{ID: "a", Barcode: "a", Status: domain.StatusCollectingVotes, FundingThreshold: 1000, UrgencyTier: domain.TierNormal, Version: 1, UpdatedAt: t1},
		{ID: "b", Barcode: "b", Status: domain.StatusThresholdReached, FundingThreshold: 1000, UrgencyTier: domain.TierNormal, Version: 1, UpdatedAt: t2},
		{ID: "c", Barcode: "c", Status: domain.StatusComplete, FundingThreshold: 1000, UrgencyTier: domain.TierNormal, Version: 1, UpdatedAt: t3},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed %s: %v", seed[i].ID, err)
		}
		// GORM autotouches UpdatedAt on create; force the seeded value back.
		if err := db.Model(&domain.DemandRecord{}).Where("id = ?", seed[i].ID).Update("updated_at", seed[i].UpdatedAt).Error; err != nil {
			t.Fatalf("fix updated_at %s: %v", seed[i].ID, err)
		}
	}

	count, maxAt, err := QueueStats(context.Background(), db)
	if err != nil {
		t.Fatalf("QueueStats error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected max %v, got %v", t2, maxAt)
	}
}

func TestQueueStats_CountDoesNotPolluteMaxQuery(t *testing.T) {
	db := newTestDB(t, &domain.DemandRecord{})

	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"x", "y", "z"} {
		rec := domain.DemandRecord{
			ID: id, Barcode: id, Status: domain.StatusCollectingVotes,
			FundingThreshold: 1000, UrgencyTier: domain.TierNormal, Version: 1,
		}
		if err := db.Create(&rec).Error; err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
		at := base.Add(time.Duration(i) * time.Hour)
		if err := db.Model(&domain.DemandRecord{}).Where("id = ?", id).Update("updated_at", at).Error; err != nil {
			t.Fatalf("fix updated_at %s: %v", id, err)
		}
	}
	want := base.Add(2 * time.Hour)

	// Both queries run off one base chain; repeated calls must not see
	// clauses accumulated by a prior Count or Select.
	for i := 0; i < 3; i++ {
		count, maxAt, err := QueueStats(context.Background(), db)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if count != 3 {
			t.Fatalf("call %d: expected count 3, got %d", i, count)
		}
		if maxAt == nil || !maxAt.Equal(want) {
			t.Fatalf("call %d: expected max %v, got %v", i, want, maxAt)
		}
	}
}

func TestContributorStats(t *testing.T) {
	db := newTestDB(t, &domain.Contributor{})

	count, maxAt, err := ContributorStats(context.Background(), db, "r1")
	if err != nil {
		t.Fatalf("empty ledger: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, maxAt)
	}

	t1 := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
	rows := []domain.Contributor{
		{ID: "c1", RecordID: "r1", VoterKey: "a", Seq: 1, ContributedAt: t1},
		{ID: "c2", RecordID: "r1", VoterKey: "b", Seq: 2, ContributedAt: t2},
		{ID: "c3", RecordID: "other", VoterKey: "a", Seq: 1, ContributedAt: t2.Add(time.Hour)},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	count, maxAt, err = ContributorStats(context.Background(), db, "r1")
	if err != nil {
		t.Fatalf("ContributorStats: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2, got %d", count)
	}
	if maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected max %v, got %v", t2, maxAt)
	}
}
