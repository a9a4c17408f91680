// Package stats holds the numeric helpers shared by the aggregation code.
package stats

import "math"

// Percentile computes the p-th percentile (0..100) of an ascending sequence
// by linear interpolation between the closest ranks. Empty input yields 0.
// The input is not sorted here.
func Percentile(sorted []int, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	pos := p / 100 * float64(n-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower < 0 {
		lower, upper = 0, 0
	}
	if upper > n-1 {
		lower, upper = n-1, n-1
	}
	if lower == upper {
		return float64(sorted[lower])
	}
	frac := pos - float64(lower)
	return float64(sorted[lower])*(1-frac) + float64(sorted[upper])*frac
}

// Round2 rounds half away from zero to two decimals.
func Round2(x float64) float64 {
	return RoundTo(x, 2)
}

// RoundTo rounds half away from zero to the given number of decimals.
func RoundTo(x float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(x*scale) / scale
}

// Rate is converted*100/total rounded to two decimals, or 0 for an empty group.
func Rate(converted, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(converted) * 100 / float64(total))
}

// Mean is the rounded average of values, 0 when empty.
func Mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return Round2(sum / float64(n))
}
