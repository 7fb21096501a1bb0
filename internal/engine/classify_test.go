package engine

import (
	"testing"

	"github.com/provelab/go-demand-backend/internal/domain"
)

func TestClassifyUrgency_Table(t *testing.T) {
	cases := []struct {
		name    string
		last24h int
		last7d  int
		want    string
	}{
		{"urgent by 24h alone", 100, 400, domain.TierUrgent},
		{"urgent by 7d alone", 0, 500, domain.TierUrgent},
		{"trending by 7d", 10, 150, domain.TierTrending},
		{"trending by 24h", 20, 0, domain.TierTrending},
		{"normal", 5, 50, domain.TierNormal},
		{"zero", 0, 0, domain.TierNormal},
		{"just below trending", 19, 99, domain.TierNormal},
		{"urgent beats trending", 150, 150, domain.TierUrgent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyUrgency(tc.last24h, tc.last7d); got != tc.want {
				t.Fatalf("ClassifyUrgency(%d, %d) = %q, want %q", tc.last24h, tc.last7d, got, tc.want)
			}
		})
	}
}

func TestTierRank_Ordering(t *testing.T) {
	if !(TierRank(domain.TierUrgent) > TierRank(domain.TierTrending) &&
		TierRank(domain.TierTrending) > TierRank(domain.TierNormal)) {
		t.Fatal("tier ranks out of order")
	}
	if TierRank("bogus") >= TierRank(domain.TierNormal) {
		t.Fatal("unknown tier must rank lowest")
	}
}

func TestProgress(t *testing.T) {
	cases := []struct {
		total, threshold float64
		want             int
	}{
		{50, 1000, 5},
		{130, 1000, 13},
		{1000, 1000, 100},
		{2500, 1000, 100}, // capped
		{0, 1000, 0},
		{5, 1000, 1},  // round(0.5) -> 1
		{4, 1000, 0},  // round(0.4) -> 0
		{100, 0, 0},   // degenerate threshold
		{100, -10, 0}, // degenerate threshold
	}
	for _, tc := range cases {
		if got := Progress(tc.total, tc.threshold); got != tc.want {
			t.Fatalf("Progress(%v, %v) = %d, want %d", tc.total, tc.threshold, got, tc.want)
		}
	}
}

func TestCrossedThreshold(t *testing.T) {
	if !CrossedThreshold(domain.StatusCollectingVotes, 1000, 1000) {
		t.Fatal("exact threshold must cross")
	}
	if CrossedThreshold(domain.StatusCollectingVotes, 999, 1000) {
		t.Fatal("below threshold must not cross")
	}
	// Only the collecting_votes state can cross; later states never re-fire.
	if CrossedThreshold(domain.StatusThresholdReached, 5000, 1000) {
		t.Fatal("threshold_reached must not cross again")
	}
	if CrossedThreshold(domain.StatusQueued, 5000, 1000) {
		t.Fatal("queued must not cross")
	}
}
