package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.HTTPPort = 8000
	cfg.Environment = "development"
	cfg.OTELSampleRatio = 1
	cfg.JWTSecret = defaultJWTSecret
	cfg.JWTAlgorithm = "HS256"
	cfg.AccessTokenTTL = time.Hour
	cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	cfg.BlacklistBackend = BlacklistRedis
	for _, p := range []*string{
		&cfg.ShopServiceURL, &cfg.CartServiceURL, &cfg.WishlistServiceURL, &cfg.OrderServiceURL,
		&cfg.AnalyticServiceURL, &cfg.UserServiceURL, &cfg.ProductServiceURL, &cfg.SearchServiceURL,
	} {
		*p = "http://localhost:9000"
	}
	cfg.ProxyTimeout = 30 * time.Second
	cfg.OpenAPIRefreshInterval = 30 * time.Second
	cfg.OpenAPIFetchTimeout = 5 * time.Second
	cfg.OpenAPIFetchRetries = 3
	cfg.RateLimitRPS = 100
	cfg.RateLimitBurst = 200
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, "HS256", cfg.JWTAlgorithm)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 30*time.Second, cfg.OpenAPIRefreshInterval)
	assert.Equal(t, 5*time.Second, cfg.OpenAPIFetchTimeout)
	assert.Equal(t, 3, cfg.OpenAPIFetchRetries)
	assert.Equal(t, 30*time.Second, cfg.ProxyTimeout)
	assert.Len(t, cfg.Services(), 8)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SHOP_SERVICE_URL", "http://shop:8000")
	t.Setenv("BLACKLIST_BACKEND", "memory")
	t.Setenv("OPENAPI_REFRESH_INTERVAL", "1m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://shop:8000", cfg.Services()["shop"])
	assert.Equal(t, BlacklistMemory, cfg.BlacklistBackend)
	assert.Equal(t, time.Minute, cfg.OpenAPIRefreshInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "development with default secret", mutate: func(*Config) {}},
		{
			name:    "production with default secret",
			mutate:  func(c *Config) { c.Environment = "production" },
			wantErr: "JWT_SECRET must be changed",
		},
		{
			name: "production with custom secret",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.JWTSecret = "a-real-secret"
			},
		},
		{
			name:    "unknown blacklist backend",
			mutate:  func(c *Config) { c.BlacklistBackend = "etcd" },
			wantErr: "BLACKLIST_BACKEND",
		},
		{
			name:    "relative service URL",
			mutate:  func(c *Config) { c.SearchServiceURL = "search:8000" },
			wantErr: "invalid URL for service search",
		},
		{
			name:    "refresh interval too short",
			mutate:  func(c *Config) { c.OpenAPIRefreshInterval = 10 * time.Millisecond },
			wantErr: "OPENAPI_REFRESH_INTERVAL",
		},
		{
			name:    "no fetch attempts",
			mutate:  func(c *Config) { c.OpenAPIFetchRetries = 0 },
			wantErr: "OPENAPI_FETCH_RETRIES",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
