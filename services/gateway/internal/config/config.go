package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/utafrali/shopmesh/pkg/config"
	"github.com/utafrali/shopmesh/pkg/database"
)

const defaultJWTSecret = "change-me-in-production"

// Blacklist backends.
const (
	BlacklistRedis  = "redis"
	BlacklistMemory = "memory"
)

// Config holds all configuration for the API gateway.
type Config struct {
	pkgconfig.Common
	database.RedisConfig

	JWTSecret       string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTAlgorithm    string        `env:"JWT_ALGORITHM" envDefault:"HS256"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"60m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	// BlacklistBackend selects where revoked tokens are kept. "memory" only
	// works for a single gateway replica.
	BlacklistBackend string `env:"BLACKLIST_BACKEND" envDefault:"redis"`

	ShopServiceURL     string `env:"SHOP_SERVICE_URL" envDefault:"http://localhost:8001"`
	CartServiceURL     string `env:"CART_SERVICE_URL" envDefault:"http://localhost:8002"`
	WishlistServiceURL string `env:"WISHLIST_SERVICE_URL" envDefault:"http://localhost:8003"`
	OrderServiceURL    string `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:8004"`
	AnalyticServiceURL string `env:"ANALYTIC_SERVICE_URL" envDefault:"http://localhost:8005"`
	UserServiceURL     string `env:"USER_SERVICE_URL" envDefault:"http://localhost:8006"`
	ProductServiceURL  string `env:"PRODUCT_SERVICE_URL" envDefault:"http://localhost:8007"`
	SearchServiceURL   string `env:"SEARCH_SERVICE_URL" envDefault:"http://localhost:8008"`

	ProxyTimeout time.Duration `env:"PROXY_TIMEOUT" envDefault:"30s"`

	OpenAPIRefreshInterval time.Duration `env:"OPENAPI_REFRESH_INTERVAL" envDefault:"30s"`
	OpenAPIFetchTimeout    time.Duration `env:"OPENAPI_FETCH_TIMEOUT" envDefault:"5s"`
	OpenAPIFetchRetries    int           `env:"OPENAPI_FETCH_RETRIES" envDefault:"3"`
	OpenAPIRetryDelay      time.Duration `env:"OPENAPI_RETRY_DELAY" envDefault:"500ms"`

	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"100"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"200"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	CORSAllowedMethods []string `env:"CORS_ALLOWED_METHODS" envSeparator:","`
	CORSAllowedHeaders []string `env:"CORS_ALLOWED_HEADERS" envSeparator:","`
	CORSMaxAge         int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load gateway config: %w", err)
	}
	return cfg, nil
}

// Services maps the first path segment of a proxied request to a backend.
func (c *Config) Services() map[string]string {
	return map[string]string{
		"shop":     c.ShopServiceURL,
		"cart":     c.CartServiceURL,
		"wishlist": c.WishlistServiceURL,
		"order":    c.OrderServiceURL,
		"analytic": c.AnalyticServiceURL,
		"user":     c.UserServiceURL,
		"product":  c.ProductServiceURL,
		"search":   c.SearchServiceURL,
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if err := c.ValidateCommon(); err != nil {
		return err
	}
	if c.Environment != "development" && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be changed from default value in %s environment", c.Environment)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.BlacklistBackend != BlacklistRedis && c.BlacklistBackend != BlacklistMemory {
		return fmt.Errorf("BLACKLIST_BACKEND must be %q or %q, got %q", BlacklistRedis, BlacklistMemory, c.BlacklistBackend)
	}
	for name, raw := range c.Services() {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid URL for service %s: %q", name, raw)
		}
	}
	if c.ProxyTimeout <= 0 || c.OpenAPIFetchTimeout <= 0 {
		return fmt.Errorf("proxy and schema fetch timeouts must be positive")
	}
	if c.OpenAPIRefreshInterval < time.Second {
		return fmt.Errorf("OPENAPI_REFRESH_INTERVAL must be at least 1s, got %s", c.OpenAPIRefreshInterval)
	}
	if c.OpenAPIFetchRetries < 1 {
		return fmt.Errorf("OPENAPI_FETCH_RETRIES must be at least 1, got %d", c.OpenAPIFetchRetries)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit values must be positive")
	}
	return nil
}
