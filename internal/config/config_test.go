package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 2*time.Hour, cfg.WaitingTTL)
	assert.Empty(t, cfg.ArchiveDSN)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9090\nwaiting_ttl: 10m\njoin_rate: 5\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SESSIONLINK_JOIN_RATE", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.WaitingTTL)
	assert.Equal(t, 7, cfg.JoinRate)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port: 8080, ReadLimit: 1, PingPeriod: time.Second, WriteWait: time.Second,
			JoinRate: 1, JoinBurst: 1, ReapInterval: time.Second,
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"bad port", func(c *Config) { c.Port = 0 }, false},
		{"zero rate", func(c *Config) { c.JoinRate = 0 }, false},
		{"zero reap interval", func(c *Config) { c.ReapInterval = 0 }, false},
		{"negative ttl", func(c *Config) { c.WaitingTTL = -time.Second }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
