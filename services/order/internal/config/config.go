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

// Config holds all configuration for the order service.
type Config struct {
	pkgconfig.Common
	database.PostgresConfig
	EventBus eventbus.Config

	ShopCartServiceURL string `env:"SHOPCART_SERVICE_URL" envDefault:"http://localhost:8002"`
	ProductServiceURL  string `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:8007"`
	ShopServiceURL     string `env:"SHOP_SERVICE_URL" envDefault:"http://localhost:8001"`

	// PeerTimeout bounds every call to another service.
	PeerTimeout time.Duration `env:"PEER_TIMEOUT" envDefault:"5s"`
	// PeerRetries applies to idempotent peer reads.
	PeerRetries int `env:"PEER_RETRIES" envDefault:"2"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load order config: %w", err)
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
	for name, raw := range map[string]string{
		"SHOPCART_SERVICE_URL": c.ShopCartServiceURL,
		"PRODUCT_SERVICE_URL":  c.ProductServiceURL,
		"SHOP_SERVICE_URL":     c.ShopServiceURL,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s %q is not an absolute URL", name, raw)
		}
	}
	if c.PeerTimeout <= 0 {
		return errors.New("PEER_TIMEOUT must be positive")
	}
	if c.PeerRetries < 0 {
		return errors.New("PEER_RETRIES must not be negative")
	}
	return nil
}
