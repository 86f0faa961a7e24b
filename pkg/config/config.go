package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the environment-driven defaults for a run. Flag values take
// precedence over these; these take precedence over the built-in defaults.
// Variables are read with the COHORT prefix, e.g. COHORT_OUT.
type Config struct {
	Out      string `envconfig:"OUT" default:"reports/cac_ltv_cohorts.xlsx"`
	Chart    string `envconfig:"CHART" default:"assets/ltv_vs_cac.png"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	DSN      string `envconfig:"DSN"` // optional MySQL/MariaDB order source
}

// Load reads the COHORT_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("cohort", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &cfg, nil
}

// SetupLogger installs a text slog handler on stderr at the configured
// level. Verbose forces debug regardless of LogLevel.
func SetupLogger(level string, verbose bool) *slog.Logger {
	lvl := parseLevel(level)
	if verbose {
		lvl = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
