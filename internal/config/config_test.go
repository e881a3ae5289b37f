package config_test

import (
	"testing"
	"time"

	testify "github.com/stretchr/testify/assert"

	"github.com/kode4food/streamtest/internal/assert"
	"github.com/kode4food/streamtest/internal/config"
)

func TestConfigValidation(t *testing.T) {
	as := assert.New(t)

	t.Run("valid_default_config", func(t *testing.T) {
		as.ConfigValid(config.NewDefaultConfig())
	})

	tests := []struct {
		name          string
		configMod     func(*config.Config)
		errorContains string
	}{
		{
			name: "zero_timeout",
			configMod: func(c *config.Config) {
				c.Timeout = 0
			},
			errorContains: "timeout must be positive",
		},
		{
			name: "huge_timeout",
			configMod: func(c *config.Config) {
				c.Timeout = 2 * time.Hour
			},
			errorContains: "timeout exceeds maximum",
		},
		{
			name: "zero_parallel",
			configMod: func(c *config.Config) {
				c.Parallel = 0
			},
			errorContains: "parallel must be between",
		},
		{
			name: "too_parallel",
			configMod: func(c *config.Config) {
				c.Parallel = config.MaxParallel + 1
			},
			errorContains: "parallel must be between",
		},
		{
			name: "bad_format",
			configMod: func(c *config.Config) {
				c.Format = "xml"
			},
			errorContains: "invalid output format: xml",
		},
		{
			name: "bad_log_level",
			configMod: func(c *config.Config) {
				c.LogLevel = "chatty"
			},
			errorContains: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			tt.configMod(cfg)
			as.ConfigInvalid(cfg, tt.errorContains)
		})
	}
}

func TestDefaultConfigValues(t *testing.T) {
	as := assert.New(t)

	cfg := config.NewDefaultConfig()
	as.Equal(config.DefaultTimeout, cfg.Timeout)
	as.Equal(config.DefaultParallel, cfg.Parallel)
	as.Equal(config.FormatTable, cfg.Format)
	as.Equal("info", cfg.LogLevel)
	as.False(cfg.FailFast)
	as.Empty(cfg.ArchiveURL)
	as.Equal(config.DefaultArchivePrefix, cfg.ArchivePrefix)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STREAMTEST_TIMEOUT", "3s")
	t.Setenv("STREAMTEST_PARALLEL", "8")
	t.Setenv("STREAMTEST_FORMAT", "json")
	t.Setenv("STREAMTEST_LOG_LEVEL", "debug")
	t.Setenv("STREAMTEST_FAIL_FAST", "true")
	t.Setenv("STREAMTEST_ARCHIVE_URL", "mem://")

	cfg := config.NewDefaultConfig()
	testify.NoError(t, cfg.LoadFromEnv())
	testify.Equal(t, 3*time.Second, cfg.Timeout)
	testify.Equal(t, 8, cfg.Parallel)
	testify.Equal(t, config.FormatJSON, cfg.Format)
	testify.Equal(t, "debug", cfg.LogLevel)
	testify.True(t, cfg.FailFast)
	testify.Equal(t, "mem://", cfg.ArchiveURL)
}

func TestLoadFromEnvKeepsDefaults(t *testing.T) {
	t.Setenv("STREAMTEST_PARALLEL", "2")

	cfg := config.NewDefaultConfig()
	testify.NoError(t, cfg.LoadFromEnv())
	testify.Equal(t, 2, cfg.Parallel)
	testify.Equal(t, config.DefaultTimeout, cfg.Timeout)
	testify.Equal(t, config.FormatTable, cfg.Format)
}

func TestLoadFromEnvInvalid(t *testing.T) {
	t.Setenv("STREAMTEST_PARALLEL", "lots")

	cfg := config.NewDefaultConfig()
	err := cfg.LoadFromEnv()
	testify.ErrorIs(t, err, config.ErrParseEnv)
}
