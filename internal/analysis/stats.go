package analysis

import "math"

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation (divide by n).
// Returns 0 for fewer than two values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := Mean(xs)
	var variance float64
	for _, x := range xs {
		diff := x - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(xs)))
}

// MinMax returns the smallest and largest value; both are 0 for an empty slice.
func MinMax(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// Slope returns the ordinary least squares slope of ys against xs.
// ok is false with fewer than two points or when every x is equal.
func Slope(xs, ys []float64) (slope float64, ok bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, false
	}
	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - mx
		sxy += dx * (ys[i] - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return 0, false
	}
	return sxy / sxx, true
}

// ConsistencyScore maps a mean and standard deviation onto [0, 1] as 1 − σ/μ.
// ok is false when μ ≤ 0, where the ratio is undefined.
func ConsistencyScore(mean, sigma float64) (score float64, ok bool) {
	if mean <= 0 {
		return 0, false
	}
	return math.Max(0, math.Min(1, 1-sigma/mean)), true
}

// ImprovementPct compares a second-half mean to a first-half mean.
// A positive second half over a non-positive first half is reported as
// infinite instead of dividing by zero. A negative first half is normalized
// by its magnitude.
func ImprovementPct(first, second float64) (pct float64, infinite bool) {
	diff := second - first
	switch {
	case first > 0:
		return diff / first * 100, false
	case second > 0:
		return 0, true
	case first < 0:
		return diff / -first * 100, false
	default:
		// both halves at zero, or a decline from zero
		return math.Min(0, diff), false
	}
}

// EffectiveRosterPct applies the roster percentage floor used by the value metric.
func EffectiveRosterPct(rosterPct, floor float64) (effective float64, floored bool) {
	if rosterPct < floor {
		return floor, true
	}
	return rosterPct, false
}
