package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sentinel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SENTINEL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 100, cfg.Poll.AnomalyLimit)
	assert.Equal(t, "cpu", cfg.Metrics.DefaultMetric)
	assert.Equal(t, 12, cfg.Forecast.Horizon)
	assert.Equal(t, AgentConfig{Objectives: []string{"stabilize"}, Deployment: "myapp", Replicas: 2}, cfg.Agent)
	assert.Equal(t, filepath.Join(home, ".sentinel", "state.yaml"), cfg.State.Path)
	assert.Empty(t, cfg.Telemetry.MetricsAddress)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
api:
  baseURL: https://ops.example.com/api
  timeout: 3s
poll:
  interval: 2s
  tableLimit: 50
metrics:
  defaultMetric: latency
logging:
  level: debug
  json: true
agent:
  deployment: checkout
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://ops.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 50, cfg.Poll.TableLimit)
	assert.Equal(t, 100, cfg.Poll.ActionLimit, "unset keys keep defaults")
	assert.Equal(t, "latency", cfg.Metrics.DefaultMetric)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "checkout", cfg.Agent.Deployment)
	assert.Equal(t, 2, cfg.Agent.Replicas)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "api:\n  baseURL: http://file:8000\n")
	t.Setenv("SENTINEL_API_BASE_URL", "http://env:9000")
	t.Setenv("SENTINEL_POLL_INTERVAL", "750ms")
	t.Setenv("SENTINEL_API_RETRIES", "3")
	t.Setenv("SENTINEL_METRIC", "mem")
	t.Setenv("SENTINEL_METRICS_ADDRESS", ":9464")
	t.Setenv("SENTINEL_FORECAST_HORIZON", "not-a-number")
	t.Setenv("SENTINEL_AGENT_REPLICAS", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env:9000", cfg.API.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Poll.Interval)
	assert.Equal(t, 3, cfg.API.Retries)
	assert.Equal(t, "mem", cfg.Metrics.DefaultMetric)
	assert.Equal(t, ":9464", cfg.Telemetry.MetricsAddress)
	assert.Equal(t, 12, cfg.Forecast.Horizon, "malformed values are ignored")
	assert.Equal(t, 4, cfg.Agent.Replicas)
}

func TestConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, "forecast:\n  horizon: 30\n")
	t.Setenv("SENTINEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Forecast.Horizon)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "not found")

	_, err = Load(writeConfig(t, "api: [unterminated"))
	assert.ErrorContains(t, err, "parse config")

	_, err = Load(writeConfig(t, "poll:\n  interval: 0s\n"))
	assert.ErrorContains(t, err, "poll.interval")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, "api.baseURL is required"},
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "invalid api.baseURL"},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }, "api.timeout"},
		{"negative retries", func(c *Config) { c.API.Retries = -1 }, "api.retries"},
		{"negative replicas", func(c *Config) { c.Agent.Replicas = -1 }, "agent.replicas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
