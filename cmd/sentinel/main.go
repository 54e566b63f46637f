package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"github.com/autoops/sentinel-dash/internal/app"
	"github.com/autoops/sentinel-dash/internal/config"
	"github.com/autoops/sentinel-dash/internal/domain"
	"github.com/autoops/sentinel-dash/internal/infrastructure/api"
	"github.com/autoops/sentinel-dash/internal/infrastructure/mock"
	"github.com/autoops/sentinel-dash/internal/logging"
	"github.com/autoops/sentinel-dash/internal/metrics"
	"github.com/autoops/sentinel-dash/internal/state"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sentinel:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		useMock     bool
		baseURL     string
		metricsAddr string
		logLevel    string
		metric      string
	)
	flag.StringVar(&configPath, "config", "", "path to configuration file")
	flag.BoolVar(&useMock, "mock", false, "use the in-process mock backend")
	flag.StringVar(&baseURL, "base-url", "", "ops API base URL")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flag.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flag.StringVar(&metric, "metric", "", "metric selected at start")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if metricsAddr != "" {
		cfg.Telemetry.MetricsAddress = metricsAddr
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if metric != "" {
		cfg.Metrics.DefaultMetric = metric
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logFile, err := logging.OpenFile(cfg.Logging.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logging.New(logFile, cfg.Logging.Level, cfg.Logging.JSON)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if addr := cfg.Telemetry.MetricsAddress; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, reg); err != nil {
				logger.Error("metrics endpoint stopped", slog.String("address", addr), slog.Any("error", err))
			}
		}()
	}

	store, err := state.OpenFileStore(cfg.State.Path)
	if err != nil {
		return err
	}
	st := state.New(store, cfg.Metrics.DefaultMetric)

	var repo domain.OpsRepo
	if useMock {
		repo = mock.New()
	} else {
		repo = api.New(cfg.API.BaseURL, cfg.API.Timeout, st)
	}
	logger.Info("starting sentinel",
		slog.Bool("mock", useMock),
		slog.String("base_url", cfg.API.BaseURL),
		slog.Duration("poll_interval", cfg.Poll.Interval))

	m := app.New(app.Options{
		Repo:   repo,
		State:  st,
		Config: *cfg,
		Logger: logger,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	logger.Info("sentinel stopped")
	return nil
}
