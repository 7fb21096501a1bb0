package engine

import "time"

// Window sizes for velocity statistics. RetentionWindow doubles as the scan
// log pruning horizon: entries older than it carry no statistical weight and
// may be dropped once the 7d count has been computed from them.
const (
	Window24h       = 24 * time.Hour
	Window7d        = 7 * 24 * time.Hour
	RetentionWindow = Window7d

	// burstFactor is how much a same-day scan counts toward velocity,
	// relative to a same-week one. The formula mixes raw counts with the
	// weighted total on purpose: a sudden burst should outrank a slowly
	// accumulated total, without cumulative demand disappearing entirely.
	// Changing this constant invalidates the urgency thresholds, which were
	// tuned against it.
	burstFactor = 5
)

// Velocity is the materialized view derived from a record's scan log.
type Velocity struct {
	Last24h int
	Last7d  int
	Score   float64
}

// ComputeVelocity counts scan log entries inside the 24h and 7d windows
// ending at now and combines them with the record's weighted total:
//
//	score = last24h*5 + last7d + weightedTotal
//
// Entries with timestamps after now are ignored rather than counted, so a
// clock-skewed producer cannot inflate the burst windows.
func ComputeVelocity(stamps []time.Time, weightedTotal float64, now time.Time) Velocity {
	var v Velocity
	cut24 := now.Add(-Window24h)
	cut7d := now.Add(-Window7d)
	for _, ts := range stamps {
		if ts.After(now) {
			continue
		}
		if !ts.Before(cut7d) {
			v.Last7d++
			if !ts.Before(cut24) {
				v.Last24h++
			}
		}
	}
	v.Score = float64(v.Last24h*burstFactor) + float64(v.Last7d) + weightedTotal
	return v
}

// PruneCutoff returns the timestamp before which scan log entries may be
// discarded. Pruning must happen only after ComputeVelocity has consumed the
// log, and never touches the weighted total.
func PruneCutoff(now time.Time) time.Time {
	return now.Add(-RetentionWindow)
}
