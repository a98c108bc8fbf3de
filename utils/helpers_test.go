package utils

import (
	"context"
	"errors"
	"testing"

	"harbor-go/models"
)

// useMemoryStore installs a fresh MemoryStore and user cache for the test
// and restores the previous globals afterwards
func useMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	prevDB, prevCache, prevCooldowns := DB, Cache, CooldownStore
	m := NewMemoryStore()
	DB = m
	Cache = NewUserCache(DefaultUserCacheTTL)
	CooldownStore = NewMemoryCooldowns()
	t.Cleanup(func() {
		DB, Cache, CooldownStore = prevDB, prevCache, prevCooldowns
	})
	return m
}

// failingStore is a MemoryStore whose writes to settings and counters fail
type failingStore struct {
	*MemoryStore
}

func (f failingStore) SaveGuildSettings(context.Context, *models.GuildSettings) error {
	return errors.New("connection refused")
}

func (f failingStore) NextCounter(context.Context, string, string) (int, error) {
	return 0, errors.New("connection refused")
}

func (f failingStore) GetGuildSettings(context.Context, string) (*models.GuildSettings, error) {
	return nil, errors.New("connection refused")
}

// failingSaves reads normally but can't write settings
type failingSaves struct {
	*MemoryStore
}

func (f failingSaves) SaveGuildSettings(context.Context, *models.GuildSettings) error {
	return errors.New("read-only replica")
}
