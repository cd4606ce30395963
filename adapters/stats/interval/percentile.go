package interval

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"epifig/domain/core"
)

// Method selects how a percentile is read off a sorted sample.
type Method string

const (
	// MethodLinear interpolates between the two closest ranks: with n sorted
	// values the p-quantile sits at fractional index (n-1)*p. This matches
	// the default percentile of most array libraries.
	MethodLinear Method = "linear"
	// MethodEmpirical returns the smallest sample whose empirical CDF reaches p.
	MethodEmpirical Method = "empirical"
)

// ParseMethod accepts "linear" or "empirical" (case-insensitive); empty means linear.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodLinear:
		return MethodLinear, nil
	case MethodEmpirical:
		return MethodEmpirical, nil
	default:
		return "", fmt.Errorf("%w: unknown percentile method %q", core.ErrInvalidInput, s)
	}
}

// Percentile returns the p-quantile (p in [0,1]) of an ascending slice.
// The caller guarantees sorted is non-empty and sorted.
func Percentile(sorted []float64, p float64, method Method) float64 {
	n := len(sorted)
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	if method == MethodEmpirical {
		return stat.Quantile(p, stat.Empirical, sorted, nil)
	}

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	a, b := sorted[lo], sorted[lo+1]
	v := a + (h-float64(lo))*(b-a)
	// keep rounding from stepping outside the bracketing ranks
	return math.Min(math.Max(v, a), b)
}

// PercentileOf sorts a copy of values and reads the p-quantile.
func PercentileOf(values []float64, p float64, method Method) (float64, error) {
	if len(values) == 0 {
		return 0, core.NewEmptyInputError("percentile of zero values")
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, fmt.Errorf("%w: quantile %v outside [0, 1]", core.ErrInvalidInput, p)
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Percentile(sorted, p, method), nil
}

// Tails returns the lower and upper quantiles of a central interval.
func Tails(coverage float64) (lower, upper float64, err error) {
	if !(coverage > 0 && coverage < 1) {
		return 0, 0, fmt.Errorf("%w: got %v", core.ErrInvalidCoverage, coverage)
	}
	alpha := 1 - coverage
	return alpha / 2, 1 - alpha/2, nil
}
