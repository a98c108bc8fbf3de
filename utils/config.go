package utils

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultLogLevel        = slog.LevelInfo
	DefaultHTTPListen      = ":8080"
	DefaultSessionTimeout  = 2 * time.Minute
	DefaultBuilderTimeout  = 10 * time.Minute
	DefaultUserCacheTTL    = 5 * time.Minute
	DefaultRateLimit       = 0.5
	DefaultRateBurst       = 3
	DefaultShutdownTimeout = 10 * time.Second
	DefaultDatabaseTimeout = 5 * time.Second
	DefaultStatusMessage   = "/balance | economy & tickets"
	EnvPrefix              = "HARBOR"
)

// Config is the runtime configuration, populated by viper from the
// environment and an optional .env file.
type Config struct {
	Discord        DiscordConfig   `mapstructure:"discord"`
	DatabaseURL    string          `mapstructure:"database_url"`
	Redis          RedisConfig     `mapstructure:"redis"`
	HTTP           HTTPConfig      `mapstructure:"http"`
	RateLimit      RateLimitConfig `mapstructure:"ratelimit"`
	LogLevel       string          `mapstructure:"log_level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error"`
	SessionTimeout time.Duration   `mapstructure:"session_timeout" validate:"gte=0"`
	BuilderTimeout time.Duration   `mapstructure:"builder_timeout" validate:"gte=0"`
	UserCacheTTL   time.Duration   `mapstructure:"user_cache_ttl" validate:"gte=0"`
	Status         string          `mapstructure:"status"`
}

type DiscordConfig struct {
	Token   string `mapstructure:"token"`
	AppID   string `mapstructure:"app_id" validate:"omitempty,numeric"`
	GuildID string `mapstructure:"guild_id" validate:"omitempty,numeric"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type HTTPConfig struct {
	Listen string `mapstructure:"listen"`
	Token  string `mapstructure:"token"`
}

type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second" validate:"gt=0"`
	Burst     int     `mapstructure:"burst" validate:"gt=0"`
}

// DefaultConfig returns a Config populated with defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP:           HTTPConfig{Listen: DefaultHTTPListen},
		RateLimit:      RateLimitConfig{PerSecond: DefaultRateLimit, Burst: DefaultRateBurst},
		LogLevel:       DefaultLogLevel.String(),
		SessionTimeout: DefaultSessionTimeout,
		BuilderTimeout: DefaultBuilderTimeout,
		UserCacheTTL:   DefaultUserCacheTTL,
		Status:         DefaultStatusMessage,
	}
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints. requireToken is set by commands that
// need to talk to Discord.
func (c *Config) Validate(requireToken bool) error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if requireToken && c.Discord.Token == "" {
		return fmt.Errorf("invalid config: discord.token is required")
	}
	return nil
}

// Level parses LogLevel, defaulting to info
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return DefaultLogLevel
	}
	return lvl
}

// Active is the configuration the running process was started with
var Active = DefaultConfig()

// Apply installs cfg as Active and resizes the globals that depend on it
func Apply(cfg *Config) {
	Active = cfg
	Cache = NewUserCache(cfg.UserCacheTTL)
	RateLimiter = NewUserRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
}
