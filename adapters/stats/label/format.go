// Package label renders posterior summaries as annotation text for figures.
package label

import (
	"fmt"
	"math"
	"strconv"

	"github.com/montanaflynn/stats"

	"epifig/adapters/stats/interval"
	"epifig/domain/core"
	"epifig/domain/posterior"
)

// LabelCoverage is the credible level quoted in median/CI labels.
const LabelCoverage = 0.95

// MaxPrecision is the most decimals a float64 can carry without printing
// representation noise.
const MaxPrecision = 15

// integral is the magnitude above which every float64 is a whole number.
const integral = 1 << 53

func checkPrecision(precision int) error {
	if precision < 0 || precision > MaxPrecision {
		return fmt.Errorf("%w: precision must be in [0, %d], got %d", core.ErrInvalidInput, MaxPrecision, precision)
	}
	return nil
}

// FormatNumber rounds half away from zero to precision decimals and prints
// exactly that many digits after the point.
func FormatNumber(v float64, precision int) (string, error) {
	if err := checkPrecision(precision); err != nil {
		return "", err
	}
	if math.IsInf(v, 0) || math.Abs(v) >= integral {
		return strconv.FormatFloat(v, 'f', precision, 64), nil
	}

	rounded, err := stats.Round(v, precision)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	if math.IsNaN(rounded) || math.IsInf(rounded, 0) {
		return "", fmt.Errorf("%w: rounding %g to %d decimals overflowed", core.ErrInvalidInput, v, precision)
	}
	if rounded == 0 {
		rounded = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(rounded, 'f', precision, 64), nil
}

// FormatMedianCI summarises values as
//
//	Median: {m}
//	CI: [{lo}, {hi}]
//
// using the 2.5th and 97.5th percentiles.
func FormatMedianCI(values []float64, precision int) (string, error) {
	return FormatMedianCIWith(values, precision, interval.MethodLinear)
}

// FormatMedianCIWith is FormatMedianCI with an explicit percentile method.
func FormatMedianCIWith(values []float64, precision int, method interval.Method) (string, error) {
	if len(values) == 0 {
		return "", core.NewEmptyInputError("median/CI label needs at least one value")
	}
	if err := checkPrecision(precision); err != nil {
		return "", err
	}

	// a flat sample is a single-day matrix; labels share the summarizer's percentiles
	m, err := posterior.NewScalarColumn(values)
	if err != nil {
		return "", err
	}
	iv, err := interval.NewSummarizer(m, interval.WithMethod(method)).Summarize(LabelCoverage)
	if err != nil {
		return "", err
	}

	med, err := FormatNumber(iv[0].Median, precision)
	if err != nil {
		return "", err
	}
	lo, err := FormatNumber(iv[0].Lower, precision)
	if err != nil {
		return "", err
	}
	hi, err := FormatNumber(iv[0].Upper, precision)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Median: %s\nCI: [%s, %s]", med, lo, hi), nil
}
