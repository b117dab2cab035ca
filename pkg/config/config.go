// Package config loads GoBooth settings from the environment, after an
// optional .env file, and sets up the logger.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// Config holds every tunable of the server and the CLI.
type Config struct {
	// --- Server ---
	Port            int
	AllowedOrigins  []string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
	// MaxAssets and MaxAssetBytes bound the in-memory upload store; the
	// oldest uploads are evicted first.
	MaxAssets     int
	MaxAssetBytes int64

	// --- Logging ---
	LogLevel  logrus.Level
	LogFormat string

	// --- Engine ---
	CatalogPath         string
	FontPath            string
	FullFidelityFilters bool

	// --- Image loading ---
	LoadConcurrency int
	FetchTimeout    time.Duration
	ImageCacheSize  int
	ImageCacheTTL   time.Duration
	// CORSOrigin is sent when fetching remote photos; empty turns the
	// export-taint check off.
	CORSOrigin string

	// --- Storage ---
	StorageType string
	StoragePath string
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.Port, err = getEnvInt("GOBOOTH_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("GOBOOTH_PORT: %d out of range", cfg.Port)
	}
	cfg.AllowedOrigins = splitList(getEnvDefault("GOBOOTH_ALLOWED_ORIGINS", "*"))
	maxUpload, err := getEnvInt("GOBOOTH_MAX_UPLOAD_BYTES", 20<<20)
	if err != nil {
		return nil, err
	}
	if maxUpload <= 0 {
		return nil, fmt.Errorf("GOBOOTH_MAX_UPLOAD_BYTES: must be > 0")
	}
	cfg.MaxUploadBytes = int64(maxUpload)
	if cfg.ShutdownTimeout, err = getEnvDuration("GOBOOTH_SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxAssets, err = getEnvInt("GOBOOTH_MAX_ASSETS", 256); err != nil {
		return nil, err
	}
	maxAssetBytes, err := getEnvInt("GOBOOTH_MAX_ASSET_BYTES", 256<<20)
	if err != nil {
		return nil, err
	}
	if cfg.MaxAssets < 1 || maxAssetBytes < 1 {
		return nil, fmt.Errorf("GOBOOTH_MAX_ASSETS and GOBOOTH_MAX_ASSET_BYTES: must be > 0")
	}
	cfg.MaxAssetBytes = int64(maxAssetBytes)

	cfg.LogLevel, err = logrus.ParseLevel(getEnvDefault("GOBOOTH_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("GOBOOTH_LOG_LEVEL: %w", err)
	}
	cfg.LogFormat = getEnvDefault("GOBOOTH_LOG_FORMAT", "text")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("GOBOOTH_LOG_FORMAT: invalid format %q, expected json or text", cfg.LogFormat)
	}

	cfg.CatalogPath = os.Getenv("GOBOOTH_CATALOG_PATH")
	cfg.FontPath = os.Getenv("GOBOOTH_FONT_PATH")
	if cfg.FullFidelityFilters, err = getEnvBool("GOBOOTH_FULL_FIDELITY_FILTERS", false); err != nil {
		return nil, err
	}

	if cfg.LoadConcurrency, err = getEnvInt("GOBOOTH_LOAD_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if cfg.LoadConcurrency < 1 {
		return nil, fmt.Errorf("GOBOOTH_LOAD_CONCURRENCY: must be >= 1")
	}
	if cfg.FetchTimeout, err = getEnvDuration("GOBOOTH_FETCH_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ImageCacheSize, err = getEnvInt("GOBOOTH_IMAGE_CACHE_SIZE", 64); err != nil {
		return nil, err
	}
	if cfg.ImageCacheTTL, err = getEnvDuration("GOBOOTH_IMAGE_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	cfg.CORSOrigin = os.Getenv("GOBOOTH_CORS_ORIGIN")

	cfg.StorageType = getEnvDefault("GOBOOTH_STORAGE_TYPE", "memory")
	if cfg.StorageType != "memory" && cfg.StorageType != "filesystem" {
		return nil, fmt.Errorf("GOBOOTH_STORAGE_TYPE: invalid type %q, expected memory or filesystem", cfg.StorageType)
	}
	cfg.StoragePath = getEnvDefault("GOBOOTH_STORAGE_PATH", "data/projects")

	return cfg, nil
}

// SetupLogger applies the level and formatter to the standard logrus logger
// and returns it.
func SetupLogger(cfg *Config) *logrus.Logger {
	l := logrus.StandardLogger()
	l.SetLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// Addr is the listen address for Port.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, val)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q (use Go format: 30s, 1h, 15m)", key, val)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: must not be negative", key)
	}
	return d, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q (use true, false, 1, 0)", key, val)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
