package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lmittmann/tint"
	"github.com/spf13/viper"

	"harbor-go/models"
)

// SettingsResolver looks up guild settings field by field in the store, then
// in a process-local map, then in HARBOR_<KEY>_ID environment variables.
type SettingsResolver struct {
	mu      sync.RWMutex
	local   map[string]*models.GuildSettings
	pending map[string]bool // local values the store has not accepted yet
	env     *viper.Viper
}

// Global settings resolver
var Settings = NewSettingsResolver()

func NewSettingsResolver() *SettingsResolver {
	env := viper.New()
	env.SetEnvPrefix(EnvPrefix)
	env.AutomaticEnv()
	return &SettingsResolver{
		local:   make(map[string]*models.GuildSettings),
		pending: make(map[string]bool),
		env:     env,
	}
}

// EnvKey is the environment variable consulted last for key
func EnvKey(key models.SettingKey) string {
	return EnvPrefix + "_" + strings.ToUpper(string(key)) + "_ID"
}

func (r *SettingsResolver) fromEnv() *models.GuildSettings {
	g := &models.GuildSettings{}
	for _, k := range models.SettingKeys {
		g.Set(k, r.env.GetString(string(k)+"_id"))
	}
	return g
}

func (r *SettingsResolver) fromLocal(guildID string) (*models.GuildSettings, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.local[guildID]
	if !ok {
		return nil, r.pending[guildID]
	}
	c := *g
	return &c, r.pending[guildID]
}

// Resolve returns the effective settings for a guild. It never fails; store
// errors are logged and the remaining sources are used.
func (r *SettingsResolver) Resolve(ctx context.Context, guildID string) *models.GuildSettings {
	result := &models.GuildSettings{GuildID: guildID}

	stored, err := DB.GetGuildSettings(ctx, guildID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		slog.Warn("guild settings lookup failed", "guild_id", guildID, tint.Err(err))
	}
	local, pending := r.fromLocal(guildID)

	if pending {
		result.Merge(local)
		result.Merge(stored)
	} else {
		result.Merge(stored)
		result.Merge(local)
	}
	result.Merge(r.fromEnv())
	return result
}

// Get resolves a single key
func (r *SettingsResolver) Get(ctx context.Context, guildID string, key models.SettingKey) string {
	return r.Resolve(ctx, guildID).Get(key)
}

// Require resolves key and returns ErrNotConfigured when no source has it
func (r *SettingsResolver) Require(ctx context.Context, guildID string, key models.SettingKey) (string, error) {
	if v := r.Get(ctx, guildID, key); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", key, ErrNotConfigured)
}

// Set stores a single key
func (r *SettingsResolver) Set(ctx context.Context, guildID string, key models.SettingKey, value string) error {
	return r.Update(ctx, guildID, func(g *models.GuildSettings) error {
		if !g.Set(key, value) {
			return fmt.Errorf("unknown setting %q: %w", key, ErrNotFound)
		}
		return nil
	})
}

// Update applies fn to the guild's explicitly set values and persists them.
// The local map always takes the result. A store failure is logged and
// returned wrapped in ErrStoreUnavailable; the value still applies locally.
func (r *SettingsResolver) Update(ctx context.Context, guildID string, fn func(*models.GuildSettings) error) error {
	current := &models.GuildSettings{GuildID: guildID}
	stored, err := DB.GetGuildSettings(ctx, guildID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		slog.Warn("guild settings lookup failed", "guild_id", guildID, tint.Err(err))
	}
	local, pending := r.fromLocal(guildID)
	if pending {
		current.Merge(local)
		current.Merge(stored)
	} else {
		current.Merge(stored)
		current.Merge(local)
	}

	if err := fn(current); err != nil {
		return err
	}
	current.GuildID = guildID

	saveErr := DB.SaveGuildSettings(ctx, current)

	r.mu.Lock()
	c := *current
	r.local[guildID] = &c
	if saveErr != nil {
		r.pending[guildID] = true
	} else {
		delete(r.pending, guildID)
	}
	r.mu.Unlock()

	if saveErr != nil {
		slog.Error("failed to persist guild settings, keeping them in memory", "guild_id", guildID, tint.Err(saveErr))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, saveErr)
	}
	return nil
}

// ParseSettingKey accepts "ticket_category" as well as "ticket_category_id"
func ParseSettingKey(s string) (models.SettingKey, bool) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "_id")
	for _, k := range models.SettingKeys {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}
