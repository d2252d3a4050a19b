package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/shopmesh/pkg/config"
	"github.com/utafrali/shopmesh/pkg/database"
	"github.com/utafrali/shopmesh/pkg/eventbus"
)

// Config holds all configuration for the product service.
type Config struct {
	pkgconfig.Common
	database.PostgresConfig
	EventBus eventbus.Config

	ShopServiceURL     string        `env:"SHOP_SERVICE_URL" envDefault:"http://localhost:8001"`
	ShopServiceTimeout time.Duration `env:"SHOP_SERVICE_TIMEOUT" envDefault:"5s"`
	ShopServiceRetries int           `env:"SHOP_SERVICE_RETRIES" envDefault:"2"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load product config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if err := c.ValidateCommon(); err != nil {
		return err
	}
	if err := c.EventBus.Validate(); err != nil {
		return err
	}
	if u, err := url.Parse(c.ShopServiceURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SHOP_SERVICE_URL %q is not an absolute URL", c.ShopServiceURL)
	}
	if c.ShopServiceTimeout <= 0 {
		return errors.New("SHOP_SERVICE_TIMEOUT must be positive")
	}
	if c.ShopServiceRetries < 0 {
		return errors.New("SHOP_SERVICE_RETRIES must not be negative")
	}
	return nil
}
