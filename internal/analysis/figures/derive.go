package figures

import (
	"epifig/domain/core"
	"epifig/domain/posterior"
)

// DeriveDifference returns the sample-wise difference a - b of two scalar
// variables, e.g. lambda_1 - mu.
func DeriveDifference(trace *posterior.Trace, a, b string) ([]float64, error) {
	x, err := trace.Scalar(a)
	if err != nil {
		return nil, err
	}
	y, err := trace.Scalar(b)
	if err != nil {
		return nil, err
	}
	if len(x) != len(y) {
		return nil, core.NewLengthMismatchError(b, len(y), len(x))
	}
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] - y[i]
	}
	return out, nil
}

// DeriveSeriesDifference subtracts the scalar b from every day of the series
// a, sample by sample, e.g. lambda_t - mu.
func DeriveSeriesDifference(trace *posterior.Trace, a, b string) (*posterior.SampleMatrix, error) {
	m, err := trace.Matrix(a)
	if err != nil {
		return nil, err
	}
	offsets, err := trace.Scalar(b)
	if err != nil {
		return nil, err
	}
	return m.SubtractPerSample(offsets)
}
