package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8007", cfg.ProductServiceURL)
	assert.Equal(t, 5*time.Second, cfg.PeerTimeout)
	assert.Equal(t, 2, cfg.PeerRetries)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"relative product url", map[string]string{"PRODUCT_SERVICE_URL": "/products"}, "PRODUCT_SERVICE_URL"},
		{"zero timeout", map[string]string{"PEER_TIMEOUT": "0s"}, "PEER_TIMEOUT"},
		{"negative retries", map[string]string{"PEER_RETRIES": "-1"}, "PEER_RETRIES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
