package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/provelab/go-demand-backend/internal/domain"
)

// ---------- helpers ----------

func tPtr(t time.Time) *time.Time { return &t }

func activeBoost(label, keywords string, mult float64) domain.CategoryBoost {
	return domain.CategoryBoost{
		ID:            "b-" + label,
		CategoryLabel: label,
		Keywords:      keywords,
		Multiplier:    mult,
		IsActive:      true,
	}
}

// ---------- ResolveWeight ----------

func TestResolveWeight_BaseWeights(t *testing.T) {
	now := time.Now().UTC()
	cases := []struct {
		eventType string
		want      float64
	}{
		{domain.EventSearch, 1},
		{domain.EventScan, 5},
		{domain.EventMemberScan, 20},
		{domain.EventPhotoContribution, 10},
	}
	for _, tc := range cases {
		got, err := ResolveWeight(tc.eventType, "", nil, now)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.eventType, err)
		}
		if got != tc.want {
			t.Fatalf("%s: want %v, got %v", tc.eventType, tc.want, got)
		}
	}
}

func TestResolveWeight_UnknownType(t *testing.T) {
	_, err := ResolveWeight("download", "Some Shampoo", nil, time.Now())
	if !errors.Is(err, ErrInvalidEventType) {
		t.Fatalf("expected ErrInvalidEventType, got %v", err)
	}
}

func TestResolveWeight_BoostMultipliesBase(t *testing.T) {
	now := time.Now().UTC()
	boosts := []domain.CategoryBoost{activeBoost("Hair Care", "shampoo, conditioner", 4)}

	got, err := ResolveWeight(domain.EventMemberScan, "Glossy Shampoo 300ml", boosts, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 80 { // 20 * 4
		t.Fatalf("want 80, got %v", got)
	}
}

func TestResolveWeight_PhotoBonusIgnoresBoosts(t *testing.T) {
	now := time.Now().UTC()
	boosts := []domain.CategoryBoost{activeBoost("Hair Care", "shampoo", 10)}

	got, err := ResolveWeight(domain.EventPhotoContribution, "Glossy Shampoo", boosts, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != PhotoBonusWeight {
		t.Fatalf("photo bonus must stay flat; want %v, got %v", PhotoBonusWeight, got)
	}
}

// ---------- BoostMultiplier ----------

func TestBoostMultiplier_HighestWins_NonCumulative(t *testing.T) {
	now := time.Now().UTC()
	boosts := []domain.CategoryBoost{
		activeBoost("Hair Care", "shampoo", 2),
		activeBoost("Promo", "glossy", 6),
		activeBoost("Mega", "soap", 9), // does not match
	}
	got := BoostMultiplier("Glossy Shampoo", boosts, now)
	if got != 6 {
		t.Fatalf("want highest matching multiplier 6, got %v", got)
	}
}

func TestBoostMultiplier_CaseInsensitiveKeyword(t *testing.T) {
	now := time.Now().UTC()
	boosts := []domain.CategoryBoost{activeBoost("Hair Care", "SHAMPOO", 3)}
	if got := BoostMultiplier("ultra shampoo deluxe", boosts, now); got != 3 {
		t.Fatalf("case-insensitive match failed, got %v", got)
	}
}

func TestBoostMultiplier_ExactLabelMatch(t *testing.T) {
	now := time.Now().UTC()
	boosts := []domain.CategoryBoost{activeBoost("Hair Care", "nomatch", 3)}
	if got := BoostMultiplier("hair care", boosts, now); got != 3 {
		t.Fatalf("exact label match failed, got %v", got)
	}
	// Label match is exact, not substring.
	if got := BoostMultiplier("hair care products", boosts, now); got != 1 {
		t.Fatalf("label must not match as substring, got %v", got)
	}
}

func TestBoostMultiplier_InactiveAndWindowed(t *testing.T) {
	now := time.Now().UTC()

	inactive := activeBoost("Hair Care", "shampoo", 4)
	inactive.IsActive = false
	if got := BoostMultiplier("shampoo", []domain.CategoryBoost{inactive}, now); got != 1 {
		t.Fatalf("inactive boost applied, got %v", got)
	}

	expired := activeBoost("Hair Care", "shampoo", 4)
	expired.EndsAt = tPtr(now.Add(-time.Hour))
	if got := BoostMultiplier("shampoo", []domain.CategoryBoost{expired}, now); got != 1 {
		t.Fatalf("expired boost applied, got %v", got)
	}

	future := activeBoost("Hair Care", "shampoo", 4)
	future.StartsAt = tPtr(now.Add(time.Hour))
	if got := BoostMultiplier("shampoo", []domain.CategoryBoost{future}, now); got != 1 {
		t.Fatalf("not-yet-started boost applied, got %v", got)
	}

	open := activeBoost("Hair Care", "shampoo", 4)
	open.StartsAt = tPtr(now.Add(-time.Hour))
	if got := BoostMultiplier("shampoo", []domain.CategoryBoost{open}, now); got != 4 {
		t.Fatalf("open-ended boost not applied, got %v", got)
	}
}

func TestBoostMultiplier_EmptyProductText(t *testing.T) {
	boosts := []domain.CategoryBoost{activeBoost("Hair Care", "shampoo", 4)}
	if got := BoostMultiplier("   ", boosts, time.Now()); got != 1 {
		t.Fatalf("empty product text must never match, got %v", got)
	}
}
