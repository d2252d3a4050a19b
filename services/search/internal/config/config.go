package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/shopmesh/pkg/config"
	"github.com/utafrali/shopmesh/pkg/eventbus"
)

// Search engines.
const (
	EngineElasticsearch = "elasticsearch"
	EngineMemory        = "memory"
)

// Config holds all configuration for the search service.
type Config struct {
	pkgconfig.Common
	EventBus eventbus.Config

	SearchEngine string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`

	ElasticsearchURL      []string `env:"ELASTICSEARCH_URL" envSeparator:"," envDefault:"http://localhost:9200"`
	ElasticsearchUsername string   `env:"ELASTICSEARCH_USERNAME"`
	ElasticsearchPassword string   `env:"ELASTICSEARCH_PASSWORD"`
	// ElasticsearchRefresh is passed as the refresh parameter of writes.
	ElasticsearchRefresh string `env:"ELASTICSEARCH_REFRESH" envDefault:"false"`

	// Index creation is retried until the cluster answers or the budget runs out.
	IndexSetupTimeout time.Duration `env:"INDEX_SETUP_TIMEOUT" envDefault:"60s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load search config: %w", err)
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
	switch c.SearchEngine {
	case EngineMemory:
	case EngineElasticsearch:
		if len(c.ElasticsearchURL) == 0 {
			return errors.New("ELASTICSEARCH_URL is required for the elasticsearch engine")
		}
		for _, raw := range c.ElasticsearchURL {
			if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("ELASTICSEARCH_URL %q is not an absolute URL", raw)
			}
		}
	default:
		return fmt.Errorf("SEARCH_ENGINE must be elasticsearch or memory, got %q", c.SearchEngine)
	}
	switch c.ElasticsearchRefresh {
	case "true", "false", "wait_for":
	default:
		return fmt.Errorf("ELASTICSEARCH_REFRESH must be true, false or wait_for, got %q", c.ElasticsearchRefresh)
	}
	if c.IndexSetupTimeout <= 0 {
		return errors.New("INDEX_SETUP_TIMEOUT must be positive")
	}
	return nil
}
