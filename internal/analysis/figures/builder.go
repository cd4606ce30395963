package figures

import (
	"fmt"
	"sort"

	"epifig/adapters/stats/calendar"
	"epifig/adapters/stats/interval"
	"epifig/adapters/stats/temporal"
	"epifig/domain/core"
	"epifig/domain/posterior"
	"epifig/internal"
)

// Options tune how figures are summarised and labelled.
type Options struct {
	Coverages       []float64       // First entry is the primary band
	Method          interval.Method // Percentile method
	Precision       int             // Decimal places of value labels
	AxisTrimDays    int             // Days cut from the end of the forecast axis
	DelayPercentile float64         // Percentile (0-100) of the reporting delay marker
}

// DefaultOptions returns 95% and 75% bands, linear percentiles and two-decimal labels.
func DefaultOptions() Options {
	return Options{
		Coverages:       []float64{0.95, 0.75},
		Method:          interval.MethodLinear,
		Precision:       2,
		AxisTrimDays:    10,
		DelayPercentile: 75,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if len(o.Coverages) == 0 {
		o.Coverages = d.Coverages
	}
	if o.Method == "" {
		o.Method = d.Method
	}
	return o
}

// Builder assembles figure data for one window of observations. It holds no
// traces; callers pass them per call.
type Builder struct {
	window calendar.Window
	opts   Options
	priors Priors
	logger *internal.Logger
}

// NewBuilder creates a figure builder for the given window
func NewBuilder(w calendar.Window, opts Options, logger *internal.Logger) *Builder {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Builder{
		window: w,
		opts:   opts.withDefaults(),
		priors: DefaultPriors(),
		logger: logger.With("Figures"),
	}
}

// WithPriors replaces the prior set drawn on distribution panels.
func (b *Builder) WithPriors(p Priors) *Builder {
	b.priors = p
	return b
}

// Window returns the builder's calendar window
func (b *Builder) Window() calendar.Window { return b.window }

// Options returns the effective options
func (b *Builder) Options() Options { return b.opts }

// AxisWindow is the date range the forecast panels are drawn over.
type AxisWindow struct {
	Start calendar.DateNum `json:"start"` // First observed new-case day
	Mid   calendar.DateNum `json:"mid"`   // First forecast day
	End   calendar.DateNum `json:"end"`   // Last forecast day minus the trim
}

// Timeseries is everything the forecast figure of one scenario shows.
type Timeseries struct {
	Scenario    string              `json:"scenario"`
	AsOf        calendar.DateNum    `json:"as_of"` // Day after the last observation
	Alignment   *temporal.Alignment `json:"alignment"`
	GrowthRate  *temporal.Segment   `json:"growth_rate,omitempty"`
	DelayMarker *calendar.DateNum   `json:"delay_marker,omitempty"`
	Axis        AxisWindow          `json:"axis"`
}

// Timeseries aligns a scenario's new-case draws with the observed cumulative
// counts. new_cases must cover the data range followed by the forecast
// horizon; it is split at DataDays.
func (b *Builder) Timeseries(name string, trace *posterior.Trace, observed []float64) (*Timeseries, error) {
	w := b.window

	newCases, err := trace.Matrix(posterior.VarNewCases)
	if err != nil {
		return nil, err
	}
	if want := w.DataDays + w.HorizonDays; newCases.Days() != want {
		return nil, core.NewLengthMismatchError(posterior.VarNewCases, newCases.Days(), want)
	}
	past, err := newCases.Slice(0, w.DataDays)
	if err != nil {
		return nil, err
	}
	future, err := newCases.Slice(w.DataDays, newCases.Days())
	if err != nil {
		return nil, err
	}

	aligned, err := temporal.Align(temporal.AlignRequest{
		Observed:  observed,
		Past:      past,
		Future:    future,
		Window:    w,
		Coverages: b.opts.Coverages,
		Method:    b.opts.Method,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}

	ts := &Timeseries{
		Scenario:  name,
		AsOf:      w.Clock.ToDate(w.ForecastOrigin() + 1),
		Alignment: aligned,
		Axis:      b.axis(),
	}

	growth, err := b.growthRate(trace)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	ts.GrowthRate = growth

	marker, err := b.delayMarker(trace)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	ts.DelayMarker = marker

	b.logger.Debug("timeseries %s: %d samples, %d fit days, %d forecast days",
		name, newCases.Samples(), w.DataDays, w.HorizonDays)
	return ts, nil
}

// Scenarios builds the timeseries of every trace, ordered by scenario name.
func (b *Builder) Scenarios(traces map[string]*posterior.Trace, observed []float64) ([]*Timeseries, error) {
	names := make([]string, 0, len(traces))
	for name := range traces {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*Timeseries, 0, len(names))
	for _, name := range names {
		ts, err := b.Timeseries(name, traces[name], observed)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

// growthRate summarises lambda_t - mu over the whole simulation. Traces
// without lambda_t have no growth-rate panel.
func (b *Builder) growthRate(trace *posterior.Trace) (*temporal.Segment, error) {
	if _, ok := trace.Series[posterior.VarLambdaT]; !ok {
		return nil, nil
	}
	effective, err := DeriveSeriesDifference(trace, posterior.VarLambdaT, posterior.VarMu)
	if err != nil {
		return nil, err
	}
	seg, err := temporal.SummarizeOverSimulation(effective, b.window, b.opts.Coverages, b.opts.Method)
	if err != nil {
		return nil, err
	}
	return &seg, nil
}

// delayMarker is the last data day minus a high percentile of the reporting
// delay: growth rates after it are not yet constrained by data.
func (b *Builder) delayMarker(trace *posterior.Trace) (*calendar.DateNum, error) {
	delay, ok := trace.Scalars[posterior.VarDelay]
	if !ok {
		return nil, nil
	}
	q, err := interval.PercentileOf(delay, b.opts.DelayPercentile/100, b.opts.Method)
	if err != nil {
		return nil, err
	}
	marker := calendar.DateNumOf(b.window.DataEnd()) - calendar.DateNum(q)
	return &marker, nil
}

func (b *Builder) axis() AxisWindow {
	w := b.window
	origin := w.ForecastOrigin()
	// a trim longer than the horizon collapses the forecast span onto Mid
	end := max(origin+w.HorizonDays-b.opts.AxisTrimDays, origin+1)
	return AxisWindow{
		Start: w.Clock.ToDate(w.LeadInDays + 1),
		Mid:   w.Clock.ToDate(origin + 1),
		End:   w.Clock.ToDate(end),
	}
}
