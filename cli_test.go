package main

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harbor-go/utils"
)

func resetViper(t *testing.T) {
	t.Helper()
	prevActive, prevCache, prevLimiter := utils.Active, utils.Cache, utils.RateLimiter
	viper.Reset()
	setDefaults(viper.GetViper())
	t.Cleanup(func() {
		viper.Reset()
		utils.Active, utils.Cache, utils.RateLimiter = prevActive, prevCache, prevLimiter
	})
}

func TestLoadConfigFromEnv(t *testing.T) {
	resetViper(t)
	t.Setenv("HARBOR_DISCORD_TOKEN", "token")
	t.Setenv("HARBOR_DISCORD_GUILD_ID", "1234")
	t.Setenv("HARBOR_REDIS_ADDR", "localhost:6379")
	t.Setenv("HARBOR_HTTP_LISTEN", ":9090")
	t.Setenv("HARBOR_RATELIMIT_BURST", "5")
	t.Setenv("HARBOR_SESSION_TIMEOUT", "90s")
	t.Setenv("HARBOR_LOG_LEVEL", "debug")

	c := utils.DefaultConfig()
	require.NoError(t, loadConfig(c, true))
	assert.Equal(t, "token", c.Discord.Token)
	assert.Equal(t, "1234", c.Discord.GuildID)
	assert.Equal(t, "localhost:6379", c.Redis.Addr)
	assert.Equal(t, ":9090", c.HTTP.Listen)
	assert.Equal(t, 5, c.RateLimit.Burst)
	assert.Equal(t, 90*time.Second, c.SessionTimeout)
	assert.Equal(t, utils.DefaultBuilderTimeout, c.BuilderTimeout)
	assert.Same(t, c, utils.Active)
}

func TestLoadConfigValidation(t *testing.T) {
	resetViper(t)
	c := utils.DefaultConfig()
	assert.ErrorContains(t, loadConfig(c, true), "discord.token")
	require.NoError(t, loadConfig(c, false), "migrate runs without a token")

	t.Setenv("HARBOR_LOG_LEVEL", "chatty")
	assert.Error(t, loadConfig(utils.DefaultConfig(), false))
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "register", "migrate"} {
		assert.True(t, names[want], want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}
