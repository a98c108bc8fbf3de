package utils

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate(false))
	assert.ErrorContains(t, cfg.Validate(true), "discord.token")

	cfg.Discord.Token = "token"
	require.NoError(t, cfg.Validate(true))

	tests := map[string]func(*Config){
		"log level":   func(c *Config) { c.LogLevel = "verbose" },
		"app id":      func(c *Config) { c.Discord.AppID = "not-a-snowflake" },
		"redis addr":  func(c *Config) { c.Redis.Addr = "localhost" },
		"rate limit":  func(c *Config) { c.RateLimit.PerSecond = 0 },
		"burst":       func(c *Config) { c.RateLimit.Burst = -1 },
		"negative tl": func(c *Config) { c.SessionTimeout = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			mutate(c)
			assert.Error(t, c.Validate(false))
		})
	}
}

func TestConfigLevel(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	cfg.LogLevel = "debug"
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	cfg.LogLevel = "WARN"
	assert.Equal(t, slog.LevelWarn, cfg.Level())
	cfg.LogLevel = "nonsense"
	assert.Equal(t, DefaultLogLevel, cfg.Level())
}

func TestApply(t *testing.T) {
	prevActive, prevCache, prevLimiter := Active, Cache, RateLimiter
	t.Cleanup(func() { Active, Cache, RateLimiter = prevActive, prevCache, prevLimiter })

	cfg := DefaultConfig()
	cfg.UserCacheTTL = 0
	cfg.RateLimit.Burst = 1
	Apply(cfg)

	assert.Same(t, cfg, Active)
	assert.True(t, RateLimiter.Allow("u"))
	assert.False(t, RateLimiter.Allow("u"))
}
