package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"eco2mix-insights/internal/energy/infrastructure/csvsource"
)

const defaultCutoff = "2023-10-05"

type config struct {
	HTTPAddr       string        `yaml:"http_addr"`
	DataPath       string        `yaml:"data_path"`
	DataURL        string        `yaml:"data_url"`
	DataCutoff     string        `yaml:"data_cutoff"`
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	CacheSize      int           `yaml:"cache_size"`
	ReloadSchedule string        `yaml:"reload_schedule"`
	SnapshotDriver string        `yaml:"snapshot_driver"`
	SnapshotDSN    string        `yaml:"snapshot_dsn"`
	JWTSecret      string        `yaml:"auth_jwt_secret"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	QueryTimingLog string        `yaml:"query_timing_log"`
}

func defaultConfig() config {
	return config{
		HTTPAddr:    ":8080",
		DataPath:    csvsource.DefaultPath,
		DataURL:     csvsource.DefaultRemoteURL,
		DataCutoff:  defaultCutoff,
		HTTPTimeout: 60 * time.Second,
		CacheSize:   256,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// loadConfig reads ENV_FILE, then CONFIG_FILE, then the environment. Later
// sources win.
func loadConfig() (config, error) {
	if path := os.Getenv("ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return config{}, fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	cfg := defaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DataPath = getenvDefault("DATA_PATH", cfg.DataPath)
	cfg.DataURL = getenvDefault("DATA_URL", cfg.DataURL)
	cfg.DataCutoff = getenvDefault("DATA_CUTOFF", cfg.DataCutoff)
	cfg.HTTPTimeout = getenvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.CacheSize = getenvIntDefault("CACHE_SIZE", cfg.CacheSize)
	cfg.ReloadSchedule = getenvDefault("RELOAD_SCHEDULE", cfg.ReloadSchedule)
	cfg.SnapshotDriver = getenvDefault("SNAPSHOT_DRIVER", cfg.SnapshotDriver)
	cfg.SnapshotDSN = getenvDefault("SNAPSHOT_DSN", cfg.SnapshotDSN)
	cfg.JWTSecret = getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", cfg.JWTSecret))
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenvDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.QueryTimingLog = getenvDefault("QUERY_TIMING_LOG", cfg.QueryTimingLog)

	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	var result *multierror.Error
	if c.HTTPAddr == "" {
		result = multierror.Append(result, errors.New("HTTP_ADDR is required"))
	}
	if c.DataPath == "" && c.DataURL == "" {
		result = multierror.Append(result, errors.New("DATA_PATH or DATA_URL is required"))
	}
	if _, err := c.cutoff(); err != nil {
		result = multierror.Append(result, err)
	}
	if c.HTTPTimeout <= 0 {
		result = multierror.Append(result, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.CacheSize <= 0 {
		result = multierror.Append(result, errors.New("CACHE_SIZE must be positive"))
	}
	switch c.SnapshotDriver {
	case "":
	case "postgres", "sqlite":
		if c.SnapshotDSN == "" {
			result = multierror.Append(result, fmt.Errorf("SNAPSHOT_DSN is required for driver %s", c.SnapshotDriver))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("SNAPSHOT_DRIVER %q is not supported", c.SnapshotDriver))
	}
	return result.ErrorOrNil()
}

// cutoff parses DATA_CUTOFF. "none" keeps every day of the file.
func (c config) cutoff() (time.Time, error) {
	value := strings.TrimSpace(c.DataCutoff)
	if value == "" || strings.EqualFold(value, "none") {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("DATA_CUTOFF %q must be YYYY-MM-DD", value)
	}
	return parsed, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
