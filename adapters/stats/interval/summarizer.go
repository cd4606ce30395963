// Package interval reduces [sample, day] posterior draws to per-day medians
// and central credible intervals.
package interval

import (
	"fmt"
	"math"
	"sort"

	"epifig/domain/core"
	"epifig/domain/posterior"
)

// Summarizer holds the per-day sorted columns of one sample matrix so any
// number of coverage levels can be read without sorting again.
type Summarizer struct {
	method Method
	sorted [][]float64 // one ascending column per day
}

// Option configures a Summarizer
type Option func(*Summarizer)

// WithMethod selects the percentile method (default MethodLinear).
func WithMethod(m Method) Option {
	return func(s *Summarizer) {
		if m != "" {
			s.method = m
		}
	}
}

// NewSummarizer sorts every day column of m once.
func NewSummarizer(m *posterior.SampleMatrix, opts ...Option) *Summarizer {
	s := &Summarizer{method: MethodLinear}
	for _, opt := range opts {
		opt(s)
	}

	s.sorted = make([][]float64, m.Days())
	for j := range s.sorted {
		col := m.Col(j)
		sort.Float64s(col)
		s.sorted[j] = col
	}
	return s
}

// Days returns the number of summarised days.
func (s *Summarizer) Days() int { return len(s.sorted) }

// Method returns the percentile method in use.
func (s *Summarizer) Method() Method { return s.method }

// Quantile returns the per-day p-quantile.
func (s *Summarizer) Quantile(p float64) ([]float64, error) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return nil, fmt.Errorf("%w: quantile %v outside [0, 1]", core.ErrInvalidInput, p)
	}
	out := make([]float64, len(s.sorted))
	for j, col := range s.sorted {
		out[j] = Percentile(col, p, s.method)
	}
	return out, nil
}

// Median returns the per-day 50th percentile.
func (s *Summarizer) Median() []float64 {
	out := make([]float64, len(s.sorted))
	for j, col := range s.sorted {
		out[j] = Percentile(col, 0.5, s.method)
	}
	return out
}

// Summarize returns one interval per day at the given coverage.
func (s *Summarizer) Summarize(coverage float64) ([]posterior.SummaryInterval, error) {
	lo, hi, err := Tails(coverage)
	if err != nil {
		return nil, err
	}

	out := make([]posterior.SummaryInterval, len(s.sorted))
	for j, col := range s.sorted {
		out[j] = posterior.SummaryInterval{
			Day:      j,
			Coverage: coverage,
			Median:   Percentile(col, 0.5, s.method),
			Lower:    Percentile(col, lo, s.method),
			Upper:    Percentile(col, hi, s.method),
		}
	}
	return out, nil
}

// Band wraps Summarize.
func (s *Summarizer) Band(coverage float64) (posterior.Band, error) {
	intervals, err := s.Summarize(coverage)
	if err != nil {
		return posterior.Band{}, err
	}
	return posterior.Band{Coverage: coverage, Intervals: intervals}, nil
}

// Bands evaluates several coverage levels in the given order.
func (s *Summarizer) Bands(coverages ...float64) ([]posterior.Band, error) {
	out := make([]posterior.Band, 0, len(coverages))
	for _, c := range coverages {
		b, err := s.Band(c)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Summarize is a one-shot helper for a single coverage level.
func Summarize(m *posterior.SampleMatrix, coverage float64, opts ...Option) ([]posterior.SummaryInterval, error) {
	return NewSummarizer(m, opts...).Summarize(coverage)
}
