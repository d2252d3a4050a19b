package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/shopmesh/pkg/config"
	"github.com/utafrali/shopmesh/pkg/database"
)

// Config holds all configuration for the shopcart service.
type Config struct {
	pkgconfig.Common
	database.RedisConfig

	// CartTTL expires carts that have not been written for this long.
	CartTTL time.Duration `env:"SHOPCART_TTL" envDefault:"168h"`

	ProductServiceURL string        `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:8007"`
	PeerTimeout       time.Duration `env:"PEER_TIMEOUT" envDefault:"5s"`
	PeerRetries       int           `env:"PEER_RETRIES" envDefault:"2"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load shopcart config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if err := c.ValidateCommon(); err != nil {
		return err
	}
	if c.CartTTL < time.Minute {
		return fmt.Errorf("SHOPCART_TTL must be at least 1m, got %s", c.CartTTL)
	}
	if u, err := url.Parse(c.ProductServiceURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("PRODUCT_SERVICE_URL %q is not an absolute URL", c.ProductServiceURL)
	}
	if c.PeerTimeout <= 0 {
		return errors.New("PEER_TIMEOUT must be positive")
	}
	if c.PeerRetries < 0 {
		return errors.New("PEER_RETRIES must not be negative")
	}
	return nil
}
