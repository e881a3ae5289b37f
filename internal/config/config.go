package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/kode4food/streamtest/pkg/log"
)

type (
	// Config holds settings for running scenario files
	Config struct {
		// Runner
		Timeout  time.Duration `env:"TIMEOUT"`
		Parallel int           `env:"PARALLEL"`
		FailFast bool          `env:"FAIL_FAST"`

		// Output
		Format   string `env:"FORMAT"`
		LogLevel string `env:"LOG_LEVEL"`

		// Archive
		ArchiveURL    string `env:"ARCHIVE_URL"`
		ArchivePrefix string `env:"ARCHIVE_PREFIX"`
	}
)

const (
	FormatTable = "table"
	FormatJSON  = "json"

	EnvPrefix = "STREAMTEST_"

	DefaultTimeout  = 10 * time.Second
	DefaultParallel = 4
	DefaultFormat   = FormatTable
	DefaultLogLevel = "info"

	DefaultArchivePrefix = "runs/"

	MaxParallel = 256
	MaxTimeout  = time.Hour
)

var (
	ErrInvalidTimeout  = errors.New("timeout must be positive")
	ErrTimeoutTooLarge = errors.New("timeout exceeds maximum")
	ErrInvalidParallel = errors.New("parallel must be between 1 and 256")
	ErrInvalidFormat   = errors.New("invalid output format")
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrParseEnv        = errors.New("invalid environment")
)

// NewDefaultConfig creates a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Timeout:  DefaultTimeout,
		Parallel: DefaultParallel,
		Format:   DefaultFormat,
		LogLevel: DefaultLogLevel,

		ArchivePrefix: DefaultArchivePrefix,
	}
}

// LoadFromEnv overrides configuration values with STREAMTEST_ prefixed
// environment variables. Unset variables leave the current value alone
func (c *Config) LoadFromEnv() error {
	if err := env.ParseWithOptions(c, env.Options{
		Prefix: EnvPrefix,
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrParseEnv, err)
	}
	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, c.Timeout)
	}

	if c.Timeout > MaxTimeout {
		return fmt.Errorf("%w: %s", ErrTimeoutTooLarge, c.Timeout)
	}

	if c.Parallel < 1 || c.Parallel > MaxParallel {
		return fmt.Errorf("%w: %d", ErrInvalidParallel, c.Parallel)
	}

	if c.Format != FormatTable && c.Format != FormatJSON {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, c.Format)
	}

	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}
