package figures

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"epifig/adapters/stats/calendar"
	"epifig/adapters/stats/label"
	"epifig/domain/core"
	"epifig/domain/posterior"
)

// PanelKind tells value panels from calendar-date panels.
type PanelKind string

const (
	PanelValue PanelKind = "value"
	PanelDate  PanelKind = "date"
)

// priorGridPoints is the resolution of drawn prior curves.
const priorGridPoints = 100

// Density is any distribution with a probability density, e.g. distuv.Normal.
type Density interface {
	Prob(x float64) float64
}

// Prior is a density drawn over a panel, evaluated at x+Shift.
type Prior struct {
	Density Density
	Shift   float64
}

// PanelSpec describes one histogram panel.
type PanelSpec struct {
	Name      string
	Variable  string    // Scalar variable
	Minus     string    // Optional scalar subtracted sample-wise, e.g. mu
	Kind      PanelKind // Date panels read Variable as simulation-day offsets
	Lower     float64   // Histogram range; Lower == Upper derives it from the samples
	Upper     float64
	Bins      int // Value panels only; date panels use one bin per day
	Precision int
	Prior     *Prior
}

// Histogram is a density-normalised histogram: Density integrates to one over Edges.
type Histogram struct {
	Edges   []float64 `json:"edges"`
	Density []float64 `json:"density"`
}

// Curve is a sampled function
type Curve struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Moments summarises a scalar posterior
type Moments struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
}

// Panel is the data behind one distribution plot.
type Panel struct {
	Name      string    `json:"name"`
	Variable  string    `json:"variable"`
	Kind      PanelKind `json:"kind"`
	Label     string    `json:"label"`
	Histogram Histogram `json:"histogram"`
	Prior     *Curve    `json:"prior,omitempty"`
	Stats     Moments   `json:"stats"`
}

// Distributions builds one panel per spec.
func (b *Builder) Distributions(trace *posterior.Trace, specs []PanelSpec) ([]Panel, error) {
	panels := make([]Panel, 0, len(specs))
	for _, spec := range specs {
		p, err := b.panel(trace, spec)
		if err != nil {
			return nil, fmt.Errorf("panel %s: %w", spec.Name, err)
		}
		panels = append(panels, p)
	}
	return panels, nil
}

func (b *Builder) panel(trace *posterior.Trace, spec PanelSpec) (Panel, error) {
	var (
		values []float64
		err    error
	)
	if spec.Minus != "" {
		values, err = DeriveDifference(trace, spec.Variable, spec.Minus)
	} else {
		values, err = trace.Scalar(spec.Variable)
	}
	if err != nil {
		return Panel{}, err
	}
	if len(values) == 0 {
		return Panel{}, core.NewEmptyInputError(spec.Variable)
	}

	// plotted values; labels of date panels count days from the first data day
	plotted, labelled := values, values
	if spec.Kind == PanelDate {
		dates := b.window.Clock.ToDatesFrac(values)
		plotted = make([]float64, len(dates))
		labelled = make([]float64, len(dates))
		first := float64(calendar.DateNumOf(b.window.DataBegin()))
		for i, d := range dates {
			plotted[i] = float64(d)
			labelled[i] = float64(d) - first + 1
		}
	}

	text, err := label.FormatMedianCIWith(labelled, spec.Precision, b.opts.Method)
	if err != nil {
		return Panel{}, err
	}

	lower, upper := spec.Lower, spec.Upper
	if lower == upper {
		lower, upper = sampleRange(plotted, spec.Kind)
	}
	var edges []float64
	if spec.Kind == PanelDate {
		edges = unitEdges(lower, upper)
	} else {
		bins := spec.Bins
		if bins < 1 {
			bins = 30
		}
		edges = floats.Span(make([]float64, bins+1), lower, upper)
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return Panel{}, err
	}
	sd, err := stats.StandardDeviation(values)
	if err != nil {
		return Panel{}, err
	}

	p := Panel{
		Name:      spec.Name,
		Variable:  spec.Variable,
		Kind:      spec.Kind,
		Label:     text,
		Histogram: densityHistogram(plotted, edges),
		Stats:     Moments{Samples: len(values), Mean: mean, StdDev: sd},
	}
	if spec.Prior != nil && spec.Prior.Density != nil {
		p.Prior = priorCurve(*spec.Prior, edges[0], edges[len(edges)-1])
	}
	return p, nil
}

// densityHistogram bins x into [edges[0], edges[last]) and normalises so the
// bars integrate to one. Samples outside the range are ignored.
func densityHistogram(x, edges []float64) Histogram {
	lo, hi := edges[0], edges[len(edges)-1]
	inside := make([]float64, 0, len(x))
	for _, v := range x {
		if v >= lo && v < hi {
			inside = append(inside, v)
		}
	}
	density := make([]float64, len(edges)-1)
	if len(inside) == 0 {
		return Histogram{Edges: edges, Density: density}
	}
	sort.Float64s(inside)
	stat.Histogram(density, edges, inside, nil)

	total := float64(len(inside))
	for i := range density {
		density[i] /= total * (edges[i+1] - edges[i])
	}
	return Histogram{Edges: edges, Density: density}
}

func priorCurve(p Prior, lo, hi float64) *Curve {
	xs := floats.Span(make([]float64, priorGridPoints), lo, hi)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		y := p.Density.Prob(x + p.Shift)
		if math.IsNaN(y) {
			y = 0
		}
		ys[i] = y
	}
	return &Curve{X: xs, Y: ys}
}

// sampleRange spans the samples; date ranges snap outwards to whole days.
func sampleRange(x []float64, kind PanelKind) (float64, float64) {
	lo, hi := floats.Min(x), floats.Max(x)
	if kind == PanelDate {
		return math.Floor(lo), math.Floor(hi) + 1
	}
	if lo == hi {
		return lo - 0.5, hi + 0.5
	}
	// keep the maximum inside the half-open last bin
	return lo, math.Nextafter(hi, math.Inf(1))
}

func unitEdges(lo, hi float64) []float64 {
	lo, hi = math.Floor(lo), math.Ceil(hi)
	if hi <= lo {
		hi = lo + 1
	}
	edges := make([]float64, 0, int(hi-lo)+1)
	for e := lo; e <= hi; e++ {
		edges = append(edges, e)
	}
	return edges
}

// ============================================================================
// PRIORS
// ============================================================================

// ChangePointPrior holds the prior of one change point: when the transient
// begins and the spreading rate afterwards.
type ChangePointPrior struct {
	Begin        calendar.DateNum
	BeginSigma   float64 // days
	MedianLambda float64
	SigmaLambda  float64
}

// Priors are the model priors drawn on distribution panels.
type Priors struct {
	InitialLambda float64 // median of lambda_0
	SigmaLambda   float64
	MedianMu      float64
	ChangePoints  []ChangePointPrior
}

// DefaultPriors returns the priors of the three-change-point model fitted to
// the German data of March 2020.
func DefaultPriors() Priors {
	day := func(d int) calendar.DateNum {
		return calendar.DateNumOf(time.Date(2020, time.March, d, 0, 0, 0, 0, time.UTC))
	}
	return Priors{
		InitialLambda: 0.4,
		SigmaLambda:   0.5,
		MedianMu:      1.0 / 8,
		ChangePoints: []ChangePointPrior{
			{Begin: day(9), BeginSigma: 3, MedianLambda: 0.2, SigmaLambda: 0.5},
			{Begin: day(16), BeginSigma: 1, MedianLambda: 1.0 / 8, SigmaLambda: 0.5},
			{Begin: day(23), BeginSigma: 1, MedianLambda: 1.0 / 16, SigmaLambda: 0.5},
		},
	}
}

// lambdaPrior is the prior of the effective rate lambda_k - mu: a log-normal
// on lambda_k, shifted by the median of mu.
func (p Priors) lambdaPrior(k int) *Prior {
	median, sigma := p.InitialLambda, p.SigmaLambda
	if k > 0 {
		if k-1 >= len(p.ChangePoints) {
			return nil
		}
		median, sigma = p.ChangePoints[k-1].MedianLambda, p.ChangePoints[k-1].SigmaLambda
	}
	if median <= 0 || sigma <= 0 {
		return nil
	}
	return &Prior{
		Density: distuv.LogNormal{Mu: math.Log(median), Sigma: sigma},
		Shift:   p.MedianMu,
	}
}

func (p Priors) beginPrior(k int) *Prior {
	if k >= len(p.ChangePoints) || p.ChangePoints[k].BeginSigma <= 0 {
		return nil
	}
	cp := p.ChangePoints[k]
	return &Prior{Density: distuv.Normal{Mu: float64(cp.Begin), Sigma: cp.BeginSigma}}
}

// DefaultSpecs lists the panels a trace supports: the effective rate of every
// lambda_k, each change-point date, then mu and delay.
func (b *Builder) DefaultSpecs(trace *posterior.Trace) []PanelSpec {
	var specs []PanelSpec
	hasMu := trace.HasScalar(posterior.VarMu)

	for k := 0; trace.HasScalar(fmt.Sprintf(posterior.VarLambda, k)); k++ {
		spec := PanelSpec{
			Name:      fmt.Sprintf("lambda_%d*", k),
			Variable:  fmt.Sprintf(posterior.VarLambda, k),
			Kind:      PanelValue,
			Lower:     -0.1,
			Upper:     0.5,
			Bins:      29,
			Precision: b.opts.Precision,
		}
		if hasMu {
			spec.Minus = posterior.VarMu
			spec.Prior = b.priors.lambdaPrior(k)
		}
		specs = append(specs, spec)
	}

	for k := 0; trace.HasScalar(fmt.Sprintf(posterior.VarTransientBegin, k)); k++ {
		specs = append(specs, PanelSpec{
			Name:      fmt.Sprintf("t_%d", k+1),
			Variable:  fmt.Sprintf(posterior.VarTransientBegin, k),
			Kind:      PanelDate,
			Precision: 1,
			Prior:     b.priors.beginPrior(k),
		})
	}

	for _, name := range []string{posterior.VarMu, posterior.VarDelay} {
		if trace.HasScalar(name) {
			specs = append(specs, PanelSpec{
				Name:      name,
				Variable:  name,
				Kind:      PanelValue,
				Bins:      30,
				Precision: b.opts.Precision,
			})
		}
	}
	return specs
}
