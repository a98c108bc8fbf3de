package cogs

import (
	"testing"

	"harbor-go/utils"
)

// useMemoryStore gives the test fresh store, cache, cooldown and settings
// globals
func useMemoryStore(t *testing.T) *utils.MemoryStore {
	t.Helper()
	prevDB, prevCache, prevCooldowns, prevSettings := utils.DB, utils.Cache, utils.CooldownStore, utils.Settings
	m := utils.NewMemoryStore()
	utils.DB = m
	utils.Cache = utils.NewUserCache(utils.DefaultUserCacheTTL)
	utils.CooldownStore = utils.NewMemoryCooldowns()
	utils.Settings = utils.NewSettingsResolver()
	detachedSuggestions.Lock()
	clear(detachedSuggestions.byMessage)
	detachedSuggestions.Unlock()
	t.Cleanup(func() {
		utils.DB, utils.Cache, utils.CooldownStore, utils.Settings = prevDB, prevCache, prevCooldowns, prevSettings
	})
	return m
}
