package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/termdash/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errContains string
	}{
		{
			name:   "defaults",
			mutate: func(*Config) {},
		},
		{
			name:        "future version",
			mutate:      func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			wantErr:     true,
			errContains: "from the future",
		},
		{
			name:        "refresh too fast",
			mutate:      func(c *Config) { c.Refresh = 100 * time.Millisecond },
			wantErr:     true,
			errContains: "too fast",
		},
		{
			name:        "zero interval",
			mutate:      func(c *Config) { c.Intervals.Storage = 0 },
			wantErr:     true,
			errContains: "intervals.storage",
		},
		{
			name:        "empty assets",
			mutate:      func(c *Config) { c.Crypto.Assets = nil },
			wantErr:     true,
			errContains: "crypto.assets is empty",
		},
		{
			name: "empty assets ok when disabled",
			mutate: func(c *Config) {
				c.Crypto.Enabled = false
				c.Crypto.Assets = nil
			},
		},
		{
			name:        "blank asset",
			mutate:      func(c *Config) { c.Crypto.Assets = []string{"bitcoin", " "} },
			wantErr:     true,
			errContains: "position 1",
		},
		{
			name:        "timeout too long",
			mutate:      func(c *Config) { c.Weather.Timeout = 30 * time.Second },
			wantErr:     true,
			errContains: "weather.timeout",
		},
		{
			name:        "bad endpoint",
			mutate:      func(c *Config) { c.Crypto.Endpoint = "ftp://example.com" },
			wantErr:     true,
			errContains: "crypto.endpoint",
		},
		{
			name:        "empty location",
			mutate:      func(c *Config) { c.Weather.Location = "" },
			wantErr:     true,
			errContains: "weather.location",
		},
		{
			name:        "top out of range",
			mutate:      func(c *Config) { c.Processes.Top = MaxTop + 1 },
			wantErr:     true,
			errContains: "processes.top",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.Log.Level = "trace" },
			wantErr:     true,
			errContains: "log.level",
		},
		{
			name:        "bad log format",
			mutate:      func(c *Config) { c.Log.Format = "xml" },
			wantErr:     true,
			errContains: "log.format",
		},
		{
			name:        "bad metrics address",
			mutate:      func(c *Config) { c.Metrics.Listen = "9273" },
			wantErr:     true,
			errContains: "metrics.listen",
		},
		{
			name:   "metrics address",
			mutate: func(c *Config) { c.Metrics.Listen = "127.0.0.1:9273" },
		},
		{
			name:        "vcs timeout",
			mutate:      func(c *Config) { c.VCS.Timeout = 0 },
			wantErr:     true,
			errContains: "vcs.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	require.Error(t, Validate(nil))
}
