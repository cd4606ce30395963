package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epifig/adapters/stats/interval"
	apperrors "epifig/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "epifig.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "2020-03-01", cfg.Data.Begin)
	assert.True(t, cfg.DataEnd().IsZero())
	assert.Equal(t, 16, cfg.Simulation.LeadInDays)
	assert.Equal(t, 28, cfg.Simulation.ForecastDays)
	assert.Equal(t, []float64{0.95, 0.75}, cfg.Summary.Coverages)
	assert.Equal(t, 2, cfg.Summary.Precision)
	assert.Equal(t, interval.MethodLinear, cfg.SummaryMethod())
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
data:
  begin: "2020-03-02"
  end: "2020-04-19"
  country: Italy
simulation:
  lead_in_days: 10
  forecast_days: 21
summary:
  coverages: [0.9, 0.5]
  method: empirical
paths:
  observed_file: ./data/cases.csv
  trace_files:
    one_change: ./data/one.json
    three_changes: ./data/three.json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Italy", cfg.Data.Country)
	assert.Equal(t, 19, cfg.DataEnd().Day())
	assert.Equal(t, 10, cfg.Simulation.LeadInDays)
	assert.Equal(t, []float64{0.9, 0.5}, cfg.Summary.Coverages)
	assert.Equal(t, interval.MethodEmpirical, cfg.SummaryMethod())
	assert.Len(t, cfg.Paths.TraceFiles, 2)
	assert.Equal(t, "./data/three.json", cfg.Paths.TraceFiles["three_changes"])
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("EPIFIG_SERVER_PORT", "9191")
	t.Setenv("EPIFIG_SUMMARY_PRECISION", "3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Summary.Precision)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestValidateErrors(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad begin", func(c *Config) { c.Data.Begin = "March" }},
		{"end before begin", func(c *Config) { c.Data.End = "2020-02-01" }},
		{"negative lead-in", func(c *Config) { c.Simulation.LeadInDays = -1 }},
		{"no coverages", func(c *Config) { c.Summary.Coverages = nil }},
		{"coverage of one", func(c *Config) { c.Summary.Coverages = []float64{1} }},
		{"negative precision", func(c *Config) { c.Summary.Precision = -1 }},
		{"precision past float64", func(c *Config) { c.Summary.Precision = 20 }},
		{"unknown method", func(c *Config) { c.Summary.Method = "nearest" }},
		{"delay percentile", func(c *Config) { c.Summary.DelayPercentile = 101 }},
		{"no port", func(c *Config) { c.Server.Port = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
		})
	}
}
