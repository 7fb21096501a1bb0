package engine

import (
	"math"

	"github.com/provelab/go-demand-backend/internal/domain"
)

// Urgency tier thresholds over the short scan windows. The most severe tier
// wins: urgent is evaluated before trending.
const (
	Urgent24h   = 100
	Urgent7d    = 500
	Trending24h = 20
	Trending7d  = 100
)

// ClassifyUrgency maps window counts to an urgency tier. Tiers are computed
// continuously until a record is terminal and are independent of lifecycle
// status.
func ClassifyUrgency(last24h, last7d int) string {
	switch {
	case last24h >= Urgent24h || last7d >= Urgent7d:
		return domain.TierUrgent
	case last24h >= Trending24h || last7d >= Trending7d:
		return domain.TierTrending
	default:
		return domain.TierNormal
	}
}

// TierRank orders urgency tiers for escalation checks; higher is more severe.
// Unknown tiers rank lowest.
func TierRank(tier string) int {
	switch tier {
	case domain.TierUrgent:
		return 2
	case domain.TierTrending:
		return 1
	case domain.TierNormal:
		return 0
	default:
		return -1
	}
}

// Progress computes the funding-progress percentage,
// min(100, round(weightedTotal/threshold*100)). It is the single source of
// truth for the materialized FundingProgressPercent field; a non-positive
// threshold yields 0 rather than a division blow-up.
func Progress(weightedTotal, threshold float64) int {
	if threshold <= 0 {
		return 0
	}
	pct := int(math.Round(weightedTotal / threshold * 100))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

// CrossedThreshold reports whether a record in collecting_votes has reached
// its funding threshold. It is checked on every event; the transition fires
// exactly once because status advances in the same atomic update.
func CrossedThreshold(status string, weightedTotal, threshold float64) bool {
	return status == domain.StatusCollectingVotes && weightedTotal >= threshold
}
