package utils

import (
	"log/slog"
	"sync"
	"time"

	"harbor-go/models"
)

// CacheEntry represents a cached user data entry
type CacheEntry struct {
	User      *models.User
	ExpiresAt time.Time
}

// UserCache is a TTL read-through cache in front of the store
type UserCache struct {
	data  map[int64]*CacheEntry
	mutex sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// Global cache instance
var Cache = NewUserCache(DefaultUserCacheTTL)

func NewUserCache(ttl time.Duration) *UserCache {
	return &UserCache{
		data: make(map[int64]*CacheEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get retrieves a user from cache
func (uc *UserCache) Get(userID int64) (*models.User, bool) {
	uc.mutex.RLock()
	entry, exists := uc.data[userID]
	uc.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	if uc.now().After(entry.ExpiresAt) {
		uc.mutex.Lock()
		delete(uc.data, userID)
		uc.mutex.Unlock()
		return nil, false
	}

	// Return a copy to prevent external modifications
	return entry.User.Clone(), true
}

// Set stores a user in cache
func (uc *UserCache) Set(userID int64, user *models.User) {
	entry := &CacheEntry{
		User:      user.Clone(),
		ExpiresAt: uc.now().Add(uc.ttl),
	}

	uc.mutex.Lock()
	uc.data[userID] = entry
	uc.mutex.Unlock()
}

// Delete removes a user from cache
func (uc *UserCache) Delete(userID int64) {
	uc.mutex.Lock()
	delete(uc.data, userID)
	uc.mutex.Unlock()
}

// Size returns the number of entries in cache
func (uc *UserCache) Size() int {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return len(uc.data)
}

// Clear removes all entries from cache
func (uc *UserCache) Clear() {
	uc.mutex.Lock()
	uc.data = make(map[int64]*CacheEntry)
	uc.mutex.Unlock()
}

// Cleanup removes expired entries and returns how many were dropped. It runs
// from the scheduler.
func (uc *UserCache) Cleanup() int {
	now := uc.now()

	uc.mutex.Lock()
	removed := 0
	for userID, entry := range uc.data {
		if now.After(entry.ExpiresAt) {
			delete(uc.data, userID)
			removed++
		}
	}
	size := len(uc.data)
	uc.mutex.Unlock()

	if removed > 0 {
		slog.Debug("cleaned up expired cache entries", "removed", removed, "size", size)
	}
	return removed
}

// CacheStats returns cache statistics
type CacheStats struct {
	Size int           `json:"size"`
	TTL  time.Duration `json:"ttl"`
}

// GetCacheStats returns current cache statistics
func GetCacheStats() CacheStats {
	if Cache == nil {
		return CacheStats{}
	}

	return CacheStats{
		Size: Cache.Size(),
		TTL:  Cache.ttl,
	}
}
