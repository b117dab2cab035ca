package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{
		"GOBOOTH_PORT", "GOBOOTH_LOG_LEVEL", "GOBOOTH_LOG_FORMAT", "GOBOOTH_ALLOWED_ORIGINS",
		"GOBOOTH_LOAD_CONCURRENCY", "GOBOOTH_STORAGE_TYPE", "GOBOOTH_CORS_ORIGIN",
	} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 256, cfg.MaxAssets)
	assert.Equal(t, int64(256<<20), cfg.MaxAssetBytes)
	assert.Equal(t, 4, cfg.LoadConcurrency)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 64, cfg.ImageCacheSize)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.FullFidelityFilters)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Empty(t, cfg.CORSOrigin)
}

func TestOverrides(t *testing.T) {
	t.Setenv("GOBOOTH_PORT", "9090")
	t.Setenv("GOBOOTH_LOG_LEVEL", "debug")
	t.Setenv("GOBOOTH_LOG_FORMAT", "json")
	t.Setenv("GOBOOTH_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("GOBOOTH_FULL_FIDELITY_FILTERS", "true")
	t.Setenv("GOBOOTH_FETCH_TIMEOUT", "2s")
	t.Setenv("GOBOOTH_STORAGE_TYPE", "filesystem")
	t.Setenv("GOBOOTH_STORAGE_PATH", "/tmp/booth")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.FullFidelityFilters)
	assert.Equal(t, 2*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "/tmp/booth", cfg.StoragePath)

	l := SetupLogger(cfg)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{})
}

func TestInvalidValues(t *testing.T) {
	cases := map[string]string{
		"GOBOOTH_PORT":                  "abc",
		"GOBOOTH_LOG_LEVEL":             "loud",
		"GOBOOTH_LOG_FORMAT":            "xml",
		"GOBOOTH_LOAD_CONCURRENCY":      "0",
		"GOBOOTH_FETCH_TIMEOUT":         "soon",
		"GOBOOTH_FULL_FIDELITY_FILTERS": "maybe",
		"GOBOOTH_STORAGE_TYPE":          "mongo",
		"GOBOOTH_MAX_UPLOAD_BYTES":      "-1",
		"GOBOOTH_MAX_ASSETS":            "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}

	t.Run("port range", func(t *testing.T) {
		t.Setenv("GOBOOTH_PORT", "70000")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}
