package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoad_BcryptCostOverride(t *testing.T) {
	t.Setenv("BCRYPT_COST", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.BcryptCost)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"cost too low", map[string]string{"BCRYPT_COST": "2"}, "BCRYPT_COST"},
		{"cost too high", map[string]string{"BCRYPT_COST": "40"}, "BCRYPT_COST"},
		{"bad driver", map[string]string{"EVENT_BUS_DRIVER": "nats"}, "EVENT_BUS_DRIVER"},
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
