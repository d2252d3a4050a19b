package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	pkgconfig "github.com/utafrali/shopmesh/pkg/config"
	"github.com/utafrali/shopmesh/pkg/database"
	"github.com/utafrali/shopmesh/pkg/eventbus"
)

// Config holds all configuration for the shop service.
type Config struct {
	pkgconfig.Common
	database.PostgresConfig
	EventBus eventbus.Config

	OrderServiceURL     string        `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:8004"`
	OrderServiceTimeout time.Duration `env:"ORDER_SERVICE_TIMEOUT" envDefault:"5s"`

	// AdminUserIDs may approve shops.
	AdminUserIDs []string `env:"ADMIN_USER_IDS" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load shop config: %w", err)
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
	if u, err := url.Parse(c.OrderServiceURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("ORDER_SERVICE_URL %q is not an absolute URL", c.OrderServiceURL)
	}
	if c.OrderServiceTimeout <= 0 {
		return errors.New("ORDER_SERVICE_TIMEOUT must be positive")
	}
	for _, id := range c.AdminUserIDs {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("ADMIN_USER_IDS contains %q, which is not a uuid", id)
		}
	}
	return nil
}
