// Package assessment implements the MDQ scoring, profiling, classification,
// trend analysis and recommendation pipeline. Every component is a pure
// computation over immutable inputs; degenerate inputs produce documented
// fallback values instead of errors.
package assessment

import (
	"math"
	"sort"
)

// mean returns the arithmetic mean, 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median returns the middle value, 0 for an empty slice.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// stdDev returns the population standard deviation, 0 for fewer than two values.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// percentile returns the p-th percentile using linear interpolation between
// closest ranks, matching the numpy default.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// minMax returns the smallest and largest value, (0, 0) for an empty slice.
func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// olsFit fits an ordinary least-squares line over index vs. value and
// returns slope, intercept and ok=false when the fit is degenerate.
func olsFit(values []float64) (slope, intercept float64, ok bool) {
	n := float64(len(values))
	if n < 2 {
		return 0, 0, false
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0, false
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept, true
}

// pearson returns the Pearson correlation coefficient between index and
// value, and ok=false when the series is constant.
func pearson(values []float64) (float64, bool) {
	n := len(values)
	if n < 2 {
		return 0, false
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	mx, my := mean(xs), mean(values)
	var cov, varX, varY float64
	for i := range values {
		dx := xs[i] - mx
		dy := values[i] - my
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	return cov / math.Sqrt(varX*varY), true
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round3 rounds to three decimal places.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
