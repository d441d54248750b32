// Package config содержит логику чтения конфигурации бэк-офиса.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации бэк-офиса.
type Config struct {
	RunAddress            string        `env:"RUN_ADDRESS"`
	DatabaseURI           string        `env:"DATABASE_URI"`
	TaxRateServiceAddress string        `env:"TAX_RATE_SERVICE_ADDRESS"`
	AuthSecret            string        `env:"AUTH_SECRET"`
	TaxRateCountry        string        `env:"TAX_RATE_COUNTRY" envDefault:"SA"`
	TaxRateRefresh        time.Duration `env:"TAX_RATE_REFRESH_INTERVAL" envDefault:"1h"`
	DefaultTaxRatePercent float64       `env:"DEFAULT_TAX_RATE_PERCENT" envDefault:"15"`
	ExpectedShiftHours    float64       `env:"EXPECTED_SHIFT_HOURS" envDefault:"8"`
	ManagerLogins         []string      `env:"MANAGER_LOGINS" envSeparator:","`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envTaxRateAddress := cfg.TaxRateServiceAddress
	envAuthSecret := cfg.AuthSecret

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.TaxRateServiceAddress, "r", "", "VAT rate service address")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for signing auth tokens")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envTaxRateAddress != "" {
		cfg.TaxRateServiceAddress = envTaxRateAddress
	}
	if envAuthSecret != "" {
		cfg.AuthSecret = envAuthSecret
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DefaultTaxRatePercent < 0 {
		return fmt.Errorf("DEFAULT_TAX_RATE_PERCENT must not be negative")
	}
	if c.ExpectedShiftHours <= 0 {
		return fmt.Errorf("EXPECTED_SHIFT_HOURS must be positive")
	}
	if c.TaxRateRefresh <= 0 {
		return fmt.Errorf("TAX_RATE_REFRESH_INTERVAL must be positive")
	}
	return nil
}
