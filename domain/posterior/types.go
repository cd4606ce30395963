package posterior

import (
	"sort"

	"epifig/domain/core"
)

// ============================================================================
// SUMMARIES
// ============================================================================

// SummaryInterval is the central estimate and symmetric credible interval for one day.
// INVARIANT: Lower <= Median <= Upper (all three come from the same sorted column).
type SummaryInterval struct {
	Day      int     `json:"day"`      // Column index within the summarised matrix
	Coverage float64 `json:"coverage"` // e.g. 0.95 for a 95% interval
	Median   float64 `json:"median"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// Width returns Upper - Lower.
func (s SummaryInterval) Width() float64 { return s.Upper - s.Lower }

// Band is one coverage level evaluated over consecutive days.
type Band struct {
	Coverage  float64           `json:"coverage"`
	Intervals []SummaryInterval `json:"intervals"`
}

// Medians extracts the per-day medians.
func (b Band) Medians() []float64 {
	out := make([]float64, len(b.Intervals))
	for i, iv := range b.Intervals {
		out[i] = iv.Median
	}
	return out
}

// Bounds extracts the per-day lower and upper bounds.
func (b Band) Bounds() (lower, upper []float64) {
	lower = make([]float64, len(b.Intervals))
	upper = make([]float64, len(b.Intervals))
	for i, iv := range b.Intervals {
		lower[i] = iv.Lower
		upper[i] = iv.Upper
	}
	return lower, upper
}

// ============================================================================
// TRACE
// ============================================================================

// Well-known variable names produced by the SIR-with-change-points model.
const (
	VarNewCases       = "new_cases"
	VarLambdaT        = "lambda_t"
	VarMu             = "mu"
	VarDelay          = "delay"
	VarTransientBegin = "transient_begin_%d"
	VarLambda         = "lambda_%d"
)

// Trace is the named collection of posterior draws for one fitted model.
// Day-indexed variables live in Series, per-sample scalars in Scalars.
type Trace struct {
	Series  map[string]*SampleMatrix `json:"-"`
	Scalars map[string][]float64     `json:"-"`
	Hash    core.TraceHash           `json:"hash,omitempty"`
}

// NewTrace creates an empty trace
func NewTrace() *Trace {
	return &Trace{
		Series:  make(map[string]*SampleMatrix),
		Scalars: make(map[string][]float64),
	}
}

// Matrix looks up a day-indexed variable.
func (t *Trace) Matrix(name string) (*SampleMatrix, error) {
	m, ok := t.Series[name]
	if !ok {
		return nil, core.NewVariableNotFoundError(name)
	}
	return m, nil
}

// Scalar looks up a per-sample scalar variable.
func (t *Trace) Scalar(name string) ([]float64, error) {
	v, ok := t.Scalars[name]
	if !ok {
		return nil, core.NewVariableNotFoundError(name)
	}
	return v, nil
}

// HasScalar reports whether a scalar variable is present.
func (t *Trace) HasScalar(name string) bool {
	_, ok := t.Scalars[name]
	return ok
}

// Names lists every variable in sorted order.
func (t *Trace) Names() []string {
	names := make([]string, 0, len(t.Series)+len(t.Scalars))
	for k := range t.Series {
		names = append(names, k)
	}
	for k := range t.Scalars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
