package engine

import (
	"testing"
	"time"
)

func stamps(now time.Time, offsets ...time.Duration) []time.Time {
	out := make([]time.Time, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, now.Add(-off))
	}
	return out
}

func TestComputeVelocity_Windows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	log := stamps(now,
		time.Hour,        // inside 24h
		23*time.Hour,     // inside 24h
		36*time.Hour,     // inside 7d only
		6*24*time.Hour,   // inside 7d only
		8*24*time.Hour,   // outside both
		30*24*time.Hour,  // outside both
	)

	v := ComputeVelocity(log, 0, now)
	if v.Last24h != 2 {
		t.Fatalf("last24h: want 2, got %d", v.Last24h)
	}
	if v.Last7d != 4 {
		t.Fatalf("last7d: want 4, got %d", v.Last7d)
	}
	if v.Score != 2*5+4 {
		t.Fatalf("score: want 14, got %v", v.Score)
	}
}

func TestComputeVelocity_Formula(t *testing.T) {
	now := time.Now().UTC()
	// 100 in 24h window, 100 more inside 7d only, weighted total 100:
	// score = 100*5 + 200 + 100 = 800.
	var log []time.Time
	for i := 0; i < 100; i++ {
		log = append(log, now.Add(-time.Duration(i)*time.Minute))
	}
	for i := 0; i < 100; i++ {
		log = append(log, now.Add(-48*time.Hour))
	}
	v := ComputeVelocity(log, 100, now)
	if v.Last24h != 100 || v.Last7d != 200 {
		t.Fatalf("windows: got %d/%d", v.Last24h, v.Last7d)
	}
	if v.Score != 800 {
		t.Fatalf("score: want 800, got %v", v.Score)
	}
}

func TestComputeVelocity_FutureStampsIgnored(t *testing.T) {
	now := time.Now().UTC()
	log := []time.Time{now.Add(time.Hour), now.Add(-time.Hour)}
	v := ComputeVelocity(log, 0, now)
	if v.Last24h != 1 || v.Last7d != 1 {
		t.Fatalf("future stamps must not count, got %d/%d", v.Last24h, v.Last7d)
	}
}

func TestComputeVelocity_EmptyLog(t *testing.T) {
	v := ComputeVelocity(nil, 42, time.Now())
	if v.Last24h != 0 || v.Last7d != 0 {
		t.Fatalf("empty log: got %d/%d", v.Last24h, v.Last7d)
	}
	if v.Score != 42 {
		t.Fatalf("empty log score must equal weighted total, got %v", v.Score)
	}
}

func TestPruneCutoff(t *testing.T) {
	now := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	cut := PruneCutoff(now)
	if !cut.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Fatalf("cutoff must be 7 days back, got %v", cut)
	}
	// An entry exactly on the 7d boundary still counts for last7d, so the
	// cutoff must not discard it before computation does.
	boundary := now.Add(-7 * 24 * time.Hour)
	v := ComputeVelocity([]time.Time{boundary}, 0, now)
	if v.Last7d != 1 {
		t.Fatalf("boundary entry should count in last7d, got %d", v.Last7d)
	}
}
