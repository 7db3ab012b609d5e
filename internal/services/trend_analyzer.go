package services

// ===== TREND ANALYSIS =====

// TrendDirection classifies a period-over-period movement.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

const (
	// halvesThreshold is the absolute scale-point gap between half means
	// needed before a halves comparison reports movement.
	halvesThreshold = 0.3

	// minHalvesPoints is the minimum series length for a halves comparison.
	minHalvesPoints = 6

	// recentWindowSize is the window length for the recent-vs-previous
	// comparison and the moving average.
	recentWindowSize = 7

	// windowPercentThreshold is the percentage change needed before a
	// window comparison reports movement.
	windowPercentThreshold = 2.0
)

// HalvesComparison is the result of splitting a date-ordered series at its
// midpoint and comparing the half means.
type HalvesComparison struct {
	FirstHalfAverage  float64        `json:"first_half_average"`
	SecondHalfAverage float64        `json:"second_half_average"`
	Change            float64        `json:"change"`
	Direction         TrendDirection `json:"direction"`
}

// CompareHalves splits scores at the midpoint and classifies the movement
// between the half means. Series shorter than six points emit no trend; the
// second return is false and callers simply omit the result.
func CompareHalves(scores []float64) (HalvesComparison, bool) {
	if len(scores) < minHalvesPoints {
		return HalvesComparison{}, false
	}

	mid := len(scores) / 2
	first := mean(scores[:mid])
	second := mean(scores[mid:])
	change := second - first

	direction := TrendStable
	if change > halvesThreshold {
		direction = TrendUp
	} else if change < -halvesThreshold {
		direction = TrendDown
	}

	return HalvesComparison{
		FirstHalfAverage:  round2(first),
		SecondHalfAverage: round2(second),
		Change:            round2(change),
		Direction:         direction,
	}, true
}

// WindowComparison compares the most recent window against the one before it.
type WindowComparison struct {
	RecentAverage   float64        `json:"recent_average"`
	PreviousAverage float64        `json:"previous_average"`
	PercentChange   float64        `json:"percent_change"`
	Direction       TrendDirection `json:"direction"`
}

// CompareRecentWindow compares the mean of the last seven entries with the
// mean of the preceding seven. When fewer than fourteen points exist the
// previous window is empty and the result is stable with zero change, a
// defined fallback, not a missing-data error.
func CompareRecentWindow(scores []float64) WindowComparison {
	if len(scores) < 2*recentWindowSize {
		recent := 0.0
		if len(scores) > 0 {
			start := 0
			if len(scores) > recentWindowSize {
				start = len(scores) - recentWindowSize
			}
			recent = round2(mean(scores[start:]))
		}
		return WindowComparison{
			RecentAverage: recent,
			Direction:     TrendStable,
		}
	}

	recent := mean(scores[len(scores)-recentWindowSize:])
	previous := mean(scores[len(scores)-2*recentWindowSize : len(scores)-recentWindowSize])

	var percent float64
	if previous != 0 {
		percent = (recent - previous) / previous * 100
	}

	direction := TrendStable
	if percent > windowPercentThreshold {
		direction = TrendUp
	} else if percent < -windowPercentThreshold {
		direction = TrendDown
	}

	return WindowComparison{
		RecentAverage:   round2(recent),
		PreviousAverage: round2(previous),
		PercentChange:   round2(percent),
		Direction:       direction,
	}
}

// MovingAverage computes the trailing simple moving average over a
// date-ordered series. Entries before a full window have no defined value
// and are returned as nil, never extrapolated or zero-filled.
func MovingAverage(scores []float64, window int) []*float64 {
	out := make([]*float64, len(scores))
	if window <= 0 {
		return out
	}

	var sum float64
	for i, score := range scores {
		sum += score
		if i >= window {
			sum -= scores[i-window]
		}
		if i >= window-1 {
			avg := round2(sum / float64(window))
			out[i] = &avg
		}
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
