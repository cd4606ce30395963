package container

import (
	"context"
	"fmt"

	"epifig/adapters/excel"
	"epifig/adapters/stats/calendar"
	"epifig/adapters/trace"
	"epifig/domain/core"
	"epifig/domain/posterior"
	"epifig/internal"
	"epifig/internal/analysis/figures"
	"epifig/internal/config"
	apperrors "epifig/internal/errors"
	"epifig/ui"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Loaded data
	Observations *excel.Observations
	Traces       map[string]*posterior.Trace
	Window       calendar.Window

	// Figure assembly
	Builder *figures.Builder
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Container{
		Config: cfg,
		Logger: internal.NewLogger(internal.ParseLogLevel(cfg.Logging.Level)),
	}, nil
}

// Load reads the observed series and every scenario trace, then derives the
// calendar window and the figure builder.
func (c *Container) Load(ctx context.Context) error {
	cfg := c.Config
	if cfg.Paths.ObservedFile == "" {
		return apperrors.ConfigInvalid("paths.observed_file is required")
	}
	if len(cfg.Paths.TraceFiles) == 0 {
		return apperrors.ConfigInvalid("paths.trace_files must name at least one scenario")
	}

	reader := excel.NewDataReader(cfg.Paths.ObservedFile, excel.DefaultObservationConfig(), c.Logger)
	obs, err := reader.ReadObservations(cfg.Data.Country, cfg.DataBegin(), cfg.DataEnd())
	if err != nil {
		return apperrors.Wrap(err, "failed to load observations")
	}
	c.Observations = obs

	w, err := obs.Window(cfg.Simulation.LeadInDays, cfg.Simulation.ForecastDays)
	if err != nil {
		return apperrors.Wrap(err, "failed to derive simulation window")
	}
	c.Window = w

	traces, err := trace.NewReader(c.Logger).LoadScenarios(ctx, cfg.Paths.TraceFiles)
	if err != nil {
		return apperrors.Wrap(err, "failed to load traces")
	}
	c.Traces = traces

	c.Builder = figures.NewBuilder(w, figures.Options{
		Coverages:       cfg.Summary.Coverages,
		Method:          cfg.SummaryMethod(),
		Precision:       cfg.Summary.Precision,
		AxisTrimDays:    cfg.Summary.AxisTrimDays,
		DelayPercentile: cfg.Summary.DelayPercentile,
	}, c.Logger)

	c.Logger.Info("loaded %d observations (%s to %s) and %d scenarios",
		obs.Len(), w.DataBegin().Format("2006-01-02"), w.DataEnd().Format("2006-01-02"), len(traces))
	return nil
}

// Trace returns a loaded scenario
func (c *Container) Trace(name string) (*posterior.Trace, error) {
	key, err := core.ParseScenarioKey(name)
	if err != nil {
		return nil, apperrors.WithCode(apperrors.CodeInvalidInput, err, "scenario lookup")
	}
	tr, ok := c.Traces[key.String()]
	if !ok {
		return nil, apperrors.NotFound(fmt.Sprintf("scenario %q", name))
	}
	return tr, nil
}

// Server builds the HTTP server over the loaded data
func (c *Container) Server() *ui.Server {
	return ui.NewServer(ui.Dependencies{
		Builder:   c.Builder,
		Observed:  c.Observations,
		Traces:    c.Traces,
		Precision: c.Config.Summary.Precision,
		Logger:    c.Logger,
	})
}
