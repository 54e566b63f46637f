package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/autoops/sentinel-dash/help"
)

// Config captures every tunable of the dashboard.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Poll      PollConfig      `yaml:"poll"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	Agent     AgentConfig     `yaml:"agent"`
	Logging   LoggingConfig   `yaml:"logging"`
	State     StateConfig     `yaml:"state"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig points at the ops backend.
type APIConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

// PollConfig controls refresh cadence and page sizes.
type PollConfig struct {
	Interval     time.Duration `yaml:"interval"`
	AnomalyLimit int           `yaml:"anomalyLimit"`
	ActionLimit  int           `yaml:"actionLimit"`
	TableLimit   int           `yaml:"tableLimit"`
}

type MetricsConfig struct {
	Minutes       int    `yaml:"minutes"`
	DefaultMetric string `yaml:"defaultMetric"`
}

type ForecastConfig struct {
	Horizon int `yaml:"horizon"`
}

// AgentConfig is sent with every plan request.
type AgentConfig struct {
	Objectives []string `yaml:"objectives"`
	Deployment string   `yaml:"deployment"`
	Replicas   int      `yaml:"replicas"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	File  string `yaml:"file"`
}

// StateConfig locates the persisted key-value state (API token).
type StateConfig struct {
	Path string `yaml:"path"`
}

// TelemetryConfig exposes poll metrics for scraping. Empty address disables it.
type TelemetryConfig struct {
	MetricsAddress string `yaml:"metricsAddress"`
}

// Load builds Config from defaults, an optional YAML file, a .env file and
// SENTINEL_* environment variables, in that order.
func Load(path string) (*Config, error) {
	// .env is optional; values already in the environment win.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("SENTINEL_CONFIG")
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 10 * time.Second,
			Retries: 1,
		},
		Poll: PollConfig{
			Interval:     5 * time.Second,
			AnomalyLimit: 100,
			ActionLimit:  100,
			TableLimit:   500,
		},
		Metrics:  MetricsConfig{Minutes: 15, DefaultMetric: "cpu"},
		Forecast: ForecastConfig{Horizon: 12},
		Agent: AgentConfig{
			Objectives: []string{"stabilize"},
			Deployment: "myapp",
			Replicas:   2,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  help.DataPath("sentinel.log"),
		},
		State: StateConfig{Path: help.DataPath("state.yaml")},
	}
}

// Validate rejects settings the dashboard cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.baseURL is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.baseURL %q", c.API.BaseURL)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive, got %s", c.Poll.Interval)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.Retries < 0 {
		return fmt.Errorf("api.retries must not be negative")
	}
	if c.Agent.Replicas < 0 {
		return fmt.Errorf("agent.replicas must not be negative")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SENTINEL_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("SENTINEL_API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = d
		}
	}
	if v := os.Getenv("SENTINEL_API_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Retries = n
		}
	}
	if v := os.Getenv("SENTINEL_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Poll.Interval = d
		}
	}
	if v := os.Getenv("SENTINEL_ANOMALY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poll.AnomalyLimit = n
		}
	}
	if v := os.Getenv("SENTINEL_ACTION_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poll.ActionLimit = n
		}
	}
	if v := os.Getenv("SENTINEL_METRIC"); v != "" {
		cfg.Metrics.DefaultMetric = v
	}
	if v := os.Getenv("SENTINEL_METRIC_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Minutes = n
		}
	}
	if v := os.Getenv("SENTINEL_FORECAST_HORIZON"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.Horizon = n
		}
	}
	if v := os.Getenv("SENTINEL_AGENT_DEPLOYMENT"); v != "" {
		cfg.Agent.Deployment = v
	}
	if v := os.Getenv("SENTINEL_AGENT_REPLICAS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Agent.Replicas = n
		}
	}
	if v := os.Getenv("SENTINEL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SENTINEL_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("SENTINEL_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	if v := os.Getenv("SENTINEL_STATE_PATH"); v != "" {
		cfg.State.Path = v
	}
	if v := os.Getenv("SENTINEL_METRICS_ADDRESS"); v != "" {
		cfg.Telemetry.MetricsAddress = v
	}
	if v := os.Getenv("SENTINEL_LOG_JSON"); strings.EqualFold(v, "true") || v == "1" {
		cfg.Logging.JSON = true
	}
}
