package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"epifig/adapters/stats/interval"
	"epifig/adapters/stats/label"
	"epifig/domain/core"
	apperrors "epifig/internal/errors"
)

// EnvPrefix is prepended to every environment override, e.g. EPIFIG_SERVER_PORT.
const EnvPrefix = "EPIFIG"

// Config represents the complete application configuration
type Config struct {
	Data       DataConfig       `mapstructure:"data"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Summary    SummaryConfig    `mapstructure:"summary"`
	Paths      PathConfig       `mapstructure:"paths"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// DataConfig selects the observed series
type DataConfig struct {
	Begin   string `mapstructure:"begin"`
	End     string `mapstructure:"end"` // empty means up to the last observation
	Country string `mapstructure:"country"`
}

// SimulationConfig describes how the model's day axis relates to the data
type SimulationConfig struct {
	LeadInDays   int `mapstructure:"lead_in_days"`
	ForecastDays int `mapstructure:"forecast_days"`
}

// SummaryConfig controls interval summaries and labels
type SummaryConfig struct {
	Coverages       []float64 `mapstructure:"coverages"`
	Precision       int       `mapstructure:"precision"`
	Method          string    `mapstructure:"method"`
	AxisTrimDays    int       `mapstructure:"axis_trim_days"`
	DelayPercentile float64   `mapstructure:"delay_percentile"`
}

// PathConfig holds file system paths
type PathConfig struct {
	ObservedFile string            `mapstructure:"observed_file"`
	TraceFiles   map[string]string `mapstructure:"trace_files"` // scenario name -> trace JSON
	OutputDir    string            `mapstructure:"output_dir"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads .env (if present), then the optional YAML file at path, then
// EPIFIG_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err, "failed to read .env")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err,
				fmt.Sprintf("failed to read config file %s", path))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("data.begin", "2020-03-01")
	v.SetDefault("data.end", "")
	v.SetDefault("data.country", "Germany")

	v.SetDefault("simulation.lead_in_days", 16)
	v.SetDefault("simulation.forecast_days", 28)

	v.SetDefault("summary.coverages", []float64{0.95, 0.75})
	v.SetDefault("summary.precision", 2)
	v.SetDefault("summary.method", string(interval.MethodLinear))
	v.SetDefault("summary.axis_trim_days", 10)
	v.SetDefault("summary.delay_percentile", 75.0)

	v.SetDefault("paths.observed_file", "")
	v.SetDefault("paths.trace_files", map[string]string{})
	v.SetDefault("paths.output_dir", "./out")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "release")

	v.SetDefault("logging.level", "INFO")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if _, err := core.ParseDate(c.Data.Begin); err != nil {
		return apperrors.ConfigInvalid(fmt.Sprintf("data.begin: %v", err))
	}
	if c.Data.End != "" {
		end, err := core.ParseDate(c.Data.End)
		if err != nil {
			return apperrors.ConfigInvalid(fmt.Sprintf("data.end: %v", err))
		}
		if begin := c.DataBegin(); end.Before(begin) {
			return apperrors.ConfigInvalid("data.end must not precede data.begin")
		}
	}

	if c.Simulation.LeadInDays < 0 {
		return apperrors.ConfigInvalid("simulation.lead_in_days must not be negative")
	}
	if c.Simulation.ForecastDays < 0 {
		return apperrors.ConfigInvalid("simulation.forecast_days must not be negative")
	}

	if len(c.Summary.Coverages) == 0 {
		return apperrors.ConfigInvalid("summary.coverages must contain at least one value")
	}
	for _, cov := range c.Summary.Coverages {
		if !(cov > 0 && cov < 1) {
			return apperrors.ConfigInvalid(fmt.Sprintf("summary.coverages: %v is not in (0, 1)", cov))
		}
	}
	if c.Summary.Precision < 0 || c.Summary.Precision > label.MaxPrecision {
		return apperrors.ConfigInvalid(fmt.Sprintf("summary.precision must be in [0, %d]", label.MaxPrecision))
	}
	if _, err := interval.ParseMethod(c.Summary.Method); err != nil {
		return apperrors.ConfigInvalid(fmt.Sprintf("summary.method: %v", err))
	}
	if c.Summary.AxisTrimDays < 0 {
		return apperrors.ConfigInvalid("summary.axis_trim_days must not be negative")
	}
	if c.Summary.DelayPercentile < 0 || c.Summary.DelayPercentile > 100 {
		return apperrors.ConfigInvalid("summary.delay_percentile must be between 0 and 100")
	}

	if c.Server.Port == "" {
		return apperrors.ConfigInvalid("server.port is required")
	}
	return nil
}

// DataBegin returns the parsed first day of observed data
func (c *Config) DataBegin() time.Time {
	t, _ := core.ParseDate(c.Data.Begin)
	return t
}

// DataEnd returns the parsed last day of observed data, or the zero time when open-ended
func (c *Config) DataEnd() time.Time {
	if c.Data.End == "" {
		return time.Time{}
	}
	t, _ := core.ParseDate(c.Data.End)
	return t
}

// SummaryMethod returns the configured percentile method
func (c *Config) SummaryMethod() interval.Method {
	m, _ := interval.ParseMethod(c.Summary.Method)
	return m
}
