// Package mathutil holds small numeric helpers shared by the analyzers.
package mathutil

import "math"

// NormalCDF calculates the cumulative distribution function of the standard normal distribution.
// P(Z <= z) where Z ~ N(0,1)
func NormalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

// ProfitProbabilityBucket maps a z-score to a coarse probability of profit in percent.
// Used where a proper normal CDF is not meaningful (zero spread).
func ProfitProbabilityBucket(z float64) float64 {
	switch {
	case z >= 1.0:
		return 84
	case z >= 0.5:
		return 69
	case z >= 0:
		return 50
	case z >= -0.5:
		return 31
	default:
		return 16
	}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
