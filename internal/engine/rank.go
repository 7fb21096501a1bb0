package engine

import (
	"sort"

	"github.com/provelab/go-demand-backend/internal/domain"
)

// Rank orders demand records for the testing queue: descending velocity
// score, ties broken by descending weighted total, remaining ties by earliest
// creation time so old requests are not starved. Terminal records are
// excluded. The input slice is not modified; the result is a new slice of the
// surviving records in rank order.
func Rank(records []domain.DemandRecord) []domain.DemandRecord {
	out := make([]domain.DemandRecord, 0, len(records))
	for i := range records {
		if records[i].Terminal() {
			continue
		}
		out = append(out, records[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.VelocityScore != b.VelocityScore {
			return a.VelocityScore > b.VelocityScore
		}
		if a.WeightedTotal != b.WeightedTotal {
			return a.WeightedTotal > b.WeightedTotal
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}
