package blocks

import (
	"math"
	"time"
)

// Project derives the burn rate of an active block at now. Elapsed time is
// floored to one minute so a block that just opened does not divide by zero.
func Project(b Block, usage AggregatedUsage, now time.Time, s Settings) Projection {
	elapsed := math.Max(1, now.Sub(b.StartTime).Minutes())

	p := Projection{
		ElapsedMinutes:     elapsed,
		TokensPerMinute:    float64(usage.TotalTokens) / elapsed,
		CostPerHour:        usage.TotalCost / elapsed * 60,
		PercentOfLimitUsed: float64(usage.TotalTokens) / float64(s.TokenLimit) * 100,
	}
	p.ProjectedTotalTokens = p.TokensPerMinute * s.blockMinutes()
	p.ProjectedCost = p.CostPerHour * s.BlockDuration.Hours()
	p.TimeToLimit = timeToLimit(usage.TotalTokens, p.TokensPerMinute, s.TokenLimit)
	p.Band = Classify(p.TimeToLimit, s)
	return p
}

func timeToLimit(total int64, tokensPerMinute float64, limit int64) *time.Duration {
	if tokensPerMinute <= 0 {
		return nil
	}
	minutes := math.Max(0, float64(limit-total)/tokensPerMinute)
	d := maxDuration
	if minutes < maxDuration.Minutes() {
		d = time.Duration(minutes * float64(time.Minute))
	}
	return &d
}

// maxDuration caps a time-to-limit that does not fit in a Duration.
const maxDuration = time.Duration(math.MaxInt64)

// Classify maps a time-to-limit onto a headroom band. The warning band
// includes both of its thresholds.
func Classify(ttl *time.Duration, s Settings) Band {
	switch {
	case ttl == nil:
		return BandUnknown
	case *ttl > s.WarningThreshold:
		return BandAmple
	case *ttl >= s.CriticalThreshold:
		return BandWarning
	default:
		return BandCritical
	}
}
