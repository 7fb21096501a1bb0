// Package engine implements the pure computational core of the demand
// aggregation engine: weight resolution, sliding-window velocity statistics,
// urgency/threshold classification, and queue ranking. It is deliberately
// free of I/O and logging:
//
//   - All functions are deterministic over their inputs (a caller-supplied
//     "now" stands in for wall-clock time)
//   - No persistence concerns leak in; callers pass plain domain values
//   - Safe for concurrent use (no package state beyond constants)
//
// The service layer composes these functions inside a per-record atomic
// update; getting a value wrong here is a programming bug and is treated as
// fatal in tests rather than a recoverable runtime condition.
package engine

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/provelab/go-demand-backend/internal/domain"
)

// Base weights per event type. These are fixed policy constants, not
// configuration: changing them silently re-scales every historical total.
const (
	WeightSearch     = 1.0
	WeightScan       = 5.0
	WeightMemberScan = 20.0

	// PhotoBonusWeight is the flat contributor-recognition bonus for a photo
	// submission. It is never multiplied by category boosts.
	PhotoBonusWeight = 10.0
)

// ErrInvalidEventType is returned when an event kind is not one of the known
// demand signal types. Callers must not apply any mutation when they see it.
var ErrInvalidEventType = errors.New("invalid event type")

// foldCaser performs Unicode case folding for boost keyword matching.
var foldCaser = cases.Fold()

// ResolveWeight computes the weighted score a single event contributes.
//
// Base weights are search=1, scan=5, member_scan=20; the winning category
// boost multiplies them. A photo contribution earns the flat bonus weight
// and deliberately ignores boosts. productText is the concatenated catalog
// text (name/brand/category) used for keyword matching; it may be empty, in
// which case no boost ever matches.
func ResolveWeight(eventType, productText string, boosts []domain.CategoryBoost, now time.Time) (float64, error) {
	switch eventType {
	case domain.EventSearch:
		return WeightSearch * BoostMultiplier(productText, boosts, now), nil
	case domain.EventScan:
		return WeightScan * BoostMultiplier(productText, boosts, now), nil
	case domain.EventMemberScan:
		return WeightMemberScan * BoostMultiplier(productText, boosts, now), nil
	case domain.EventPhotoContribution:
		return PhotoBonusWeight, nil
	default:
		return 0, ErrInvalidEventType
	}
}

// BoostMultiplier returns the multiplier of the best matching active boost,
// or 1 when none match. When several boosts match, the highest multiplier
// wins; boosts never stack.
func BoostMultiplier(productText string, boosts []domain.CategoryBoost, now time.Time) float64 {
	best := 1.0
	if strings.TrimSpace(productText) == "" {
		return best
	}
	folded := foldCaser.String(productText)
	for i := range boosts {
		b := &boosts[i]
		if !b.IsActive || !b.InWindow(now) {
			continue
		}
		if b.Multiplier > best && boostMatches(folded, b) {
			best = b.Multiplier
		}
	}
	return best
}

// boostMatches reports whether the folded product text matches the boost:
// either an exact (case-folded) category label match or a substring match on
// any keyword.
func boostMatches(foldedText string, b *domain.CategoryBoost) bool {
	if label := strings.TrimSpace(b.CategoryLabel); label != "" {
		if foldedText == foldCaser.String(label) {
			return true
		}
	}
	for _, kw := range b.KeywordList() {
		if strings.Contains(foldedText, foldCaser.String(kw)) {
			return true
		}
	}
	return false
}
