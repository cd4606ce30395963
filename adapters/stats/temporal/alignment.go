package temporal

import (
	"epifig/adapters/stats/calendar"
	"epifig/adapters/stats/interval"
	"epifig/domain/core"
	"epifig/domain/posterior"
)

// ============================================================================
// SERIES ALIGNMENT LAYER
// ============================================================================
// This package turns raw per-day arrays (cumulative observations and posterior
// draws of daily new cases) into calendar-aligned, summarised series that a
// renderer can draw directly: a fit segment over the observed range and a
// forecast segment that starts the day after the last observation.
// ============================================================================

// DefaultCoverage is used when a request names no coverage levels.
const DefaultCoverage = 0.95

// SegmentKind distinguishes the fit window from the forecast window
type SegmentKind string

const (
	SegmentPast       SegmentKind = "past"
	SegmentFuture     SegmentKind = "future"
	SegmentSimulation SegmentKind = "simulation" // Whole simulated period, lead-in included
)

// Quantity is what a series counts
type Quantity string

const (
	QuantityNew        Quantity = "new"        // Daily incremental counts
	QuantityCumulative Quantity = "cumulative" // Running totals
)

// Segment is one contiguous run of summarised days.
type Segment struct {
	Kind    SegmentKind        `json:"kind"`
	Offsets []int              `json:"offsets"` // Simulation-day offsets
	Dates   []calendar.DateNum `json:"dates"`   // Same length as Offsets
	Bands   []posterior.Band   `json:"bands"`   // One per requested coverage, request order
}

// Len returns the number of days in the segment.
func (s Segment) Len() int { return len(s.Offsets) }

// Band returns the band with the given coverage.
func (s Segment) Band(coverage float64) (posterior.Band, bool) {
	for _, b := range s.Bands {
		if b.Coverage == coverage {
			return b, true
		}
	}
	return posterior.Band{}, false
}

// Primary returns the first requested band.
func (s Segment) Primary() posterior.Band {
	if len(s.Bands) == 0 {
		return posterior.Band{}
	}
	return s.Bands[0]
}

// AlignedSeries is one quantity split into its fit and forecast segments.
// INVARIANT: Future.Offsets[0] == Past.Offsets[len-1] + 1 whenever both are non-empty.
type AlignedSeries struct {
	Quantity Quantity `json:"quantity"`
	Past     Segment  `json:"past"`
	Future   Segment  `json:"future"`
}

// ObservedSeries is a data series with its calendar positions.
type ObservedSeries struct {
	Offsets []int              `json:"offsets"`
	Dates   []calendar.DateNum `json:"dates"`
	Values  []float64          `json:"values"`
}

// ============================================================================
// FUNCTION 1: Align
// ============================================================================

// AlignRequest carries the inputs of Align
type AlignRequest struct {
	Observed  []float64               // Cumulative counts, length DataDays+1
	Past      *posterior.SampleMatrix // New-case draws over the data range, DataDays columns
	Future    *posterior.SampleMatrix // New-case draws over the forecast, HorizonDays columns
	Window    calendar.Window
	Coverages []float64       // Default: [DefaultCoverage]
	Method    interval.Method // Default: interval.MethodLinear
}

// Alignment is the output of Align
type Alignment struct {
	Window             calendar.Window `json:"window"`
	ObservedNew        ObservedSeries  `json:"observed_new"`
	ObservedCumulative ObservedSeries  `json:"observed_cumulative"`
	New                AlignedSeries   `json:"new"`
	Cumulative         AlignedSeries   `json:"cumulative"`

	// Row-wise running totals behind Cumulative
	CumulativePastDraws   *posterior.SampleMatrix `json:"-"`
	CumulativeFutureDraws *posterior.SampleMatrix `json:"-"`
}

// Align summarises posterior new-case draws next to the observations they were fit to.
//
// Offsets: observation i sits at LeadInDays+i; fit column j (the new cases
// between observations j and j+1) at LeadInDays+j+1; forecast column k at
// LeadInDays+DataDays+1+k.
//
// Cumulative draws are anchored on observations, never on fitted values: the
// fit segment starts from Observed[0] and the forecast from Observed[DataDays],
// so the forecast continues from the last reported total.
func Align(req AlignRequest) (*Alignment, error) {
	w := req.Window

	// Validate inputs
	if len(req.Observed) != w.DataDays+1 {
		return nil, core.NewLengthMismatchError("observed cumulative counts", len(req.Observed), w.DataDays+1)
	}
	if req.Past == nil || req.Future == nil {
		return nil, core.NewEmptyInputError("past and future draws are required")
	}
	if req.Past.Days() != w.DataDays {
		return nil, core.NewLengthMismatchError("past draws", req.Past.Days(), w.DataDays)
	}
	if req.Future.Days() != w.HorizonDays {
		return nil, core.NewLengthMismatchError("future draws", req.Future.Days(), w.HorizonDays)
	}
	if req.Past.Samples() != req.Future.Samples() {
		return nil, core.NewShapeError("past draws have %d samples, future draws %d",
			req.Past.Samples(), req.Future.Samples())
	}

	coverages := req.Coverages
	if len(coverages) == 0 {
		coverages = []float64{DefaultCoverage}
	}
	method := req.Method
	if method == "" {
		method = interval.MethodLinear
	}

	// Step 1: observed series
	observedNew := Diff(req.Observed)
	fitOffsets := w.FitOffsets()
	futureOffsets := w.ForecastOffsets()

	aligned := &Alignment{
		Window: w,
		ObservedNew: ObservedSeries{
			Offsets: fitOffsets,
			Dates:   w.Clock.ToDates(fitOffsets),
			Values:  observedNew,
		},
		ObservedCumulative: ObservedSeries{
			Offsets: w.ObservedOffsets(),
			Dates:   w.Clock.ToDates(w.ObservedOffsets()),
			Values:  append([]float64(nil), req.Observed...),
		},
	}

	// Step 2: cumulative views of the draws
	aligned.CumulativePastDraws = req.Past.CumulativeFrom(req.Observed[0])
	aligned.CumulativeFutureDraws = req.Future.CumulativeFrom(req.Observed[w.DataDays])

	// Step 3: summarise all four segments
	var err error
	if aligned.New.Past, err = summarizeSegment(SegmentPast, req.Past, fitOffsets, w.Clock, coverages, method); err != nil {
		return nil, err
	}
	if aligned.New.Future, err = summarizeSegment(SegmentFuture, req.Future, futureOffsets, w.Clock, coverages, method); err != nil {
		return nil, err
	}
	if aligned.Cumulative.Past, err = summarizeSegment(SegmentPast, aligned.CumulativePastDraws, fitOffsets, w.Clock, coverages, method); err != nil {
		return nil, err
	}
	if aligned.Cumulative.Future, err = summarizeSegment(SegmentFuture, aligned.CumulativeFutureDraws, futureOffsets, w.Clock, coverages, method); err != nil {
		return nil, err
	}
	aligned.New.Quantity = QuantityNew
	aligned.Cumulative.Quantity = QuantityCumulative

	return aligned, nil
}

func summarizeSegment(
	kind SegmentKind,
	draws *posterior.SampleMatrix,
	offsets []int,
	clock calendar.SimulationClock,
	coverages []float64,
	method interval.Method,
) (Segment, error) {
	bands, err := interval.NewSummarizer(draws, interval.WithMethod(method)).Bands(coverages...)
	if err != nil {
		return Segment{}, err
	}
	return Segment{
		Kind:    kind,
		Offsets: offsets,
		Dates:   clock.ToDates(offsets),
		Bands:   bands,
	}, nil
}

// ============================================================================
// FUNCTION 2: SummarizeOverSimulation
// ============================================================================
// Day-indexed variables that cover the whole simulation (e.g. the effective
// growth rate) are summarised on their own grid: column k is dated offset k+1,
// the end of simulated day k.

// SummarizeOverSimulation summarises every column of draws on the simulation grid.
func SummarizeOverSimulation(draws *posterior.SampleMatrix, w calendar.Window, coverages []float64, method interval.Method) (Segment, error) {
	if draws.Days() != w.SimDays() {
		return Segment{}, core.NewLengthMismatchError("simulation-wide draws", draws.Days(), w.SimDays())
	}
	if len(coverages) == 0 {
		coverages = []float64{DefaultCoverage}
	}
	return summarizeSegment(SegmentSimulation, draws, calendar.Range(1, draws.Days()), w.Clock, coverages, method)
}

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

// Diff returns first differences: out[i] = cum[i+1] - cum[i].
func Diff(cum []float64) []float64 {
	if len(cum) < 2 {
		return []float64{}
	}
	out := make([]float64, len(cum)-1)
	for i := range out {
		out[i] = cum[i+1] - cum[i]
	}
	return out
}

// CumSum returns running totals of incr starting from start:
// out[i] = start + incr[0] + ... + incr[i]. CumSum(cum[0], Diff(cum)) == cum[1:].
func CumSum(start float64, incr []float64) []float64 {
	out := make([]float64, len(incr))
	total := start
	for i, v := range incr {
		total += v
		out[i] = total
	}
	return out
}
