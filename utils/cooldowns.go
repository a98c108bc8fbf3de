package utils

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldowns tracks per-user command cooldowns
type Cooldowns interface {
	// Check returns the remaining cooldown for key, zero when free
	Check(ctx context.Context, key string) (time.Duration, error)
	// Start puts key on cooldown for d, overwriting any existing entry
	Start(ctx context.Context, key string, d time.Duration) error
	// Try starts the cooldown only if key is free. When it isn't, ok is false
	// and remaining is what is left.
	Try(ctx context.Context, key string, d time.Duration) (remaining time.Duration, ok bool, err error)
	Close() error
}

// Active cooldown backend. Replaced by SetupCooldowns when Redis is configured.
var CooldownStore Cooldowns = NewMemoryCooldowns()

const cooldownKeyPrefix = "harbor:"

// CooldownKey builds the key for a command and user
func CooldownKey(command string, userID int64) string {
	return "cd:" + command + ":" + strconv.FormatInt(userID, 10)
}

// EnforceCooldown starts the cooldown for command or returns a *CooldownError
func EnforceCooldown(ctx context.Context, command string, userID int64, d time.Duration) error {
	remaining, ok, err := CooldownStore.Try(ctx, CooldownKey(command, userID), d)
	if err != nil {
		return err
	}
	if !ok {
		return &CooldownError{Action: command, Remaining: remaining}
	}
	return nil
}

// ResetCooldown clears a cooldown so a failed action can be retried
func ResetCooldown(ctx context.Context, command string, userID int64) error {
	return CooldownStore.Start(ctx, CooldownKey(command, userID), 0)
}

// SetupCooldowns connects to Redis when addr is set. On failure the memory
// backend stays active.
func SetupCooldowns(ctx context.Context, cfg RedisConfig) error {
	if cfg.Addr == "" {
		CooldownStore = NewMemoryCooldowns()
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		CooldownStore = NewMemoryCooldowns()
		return fmt.Errorf("could not connect to redis at %s: %w", cfg.Addr, err)
	}
	CooldownStore = NewRedisCooldowns(rdb)
	return nil
}

// RedisCooldowns stores cooldowns as expiring keys
type RedisCooldowns struct {
	rdb *redis.Client
}

func NewRedisCooldowns(rdb *redis.Client) *RedisCooldowns {
	return &RedisCooldowns{rdb: rdb}
}

func (r *RedisCooldowns) Check(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := r.rdb.PTTL(ctx, cooldownKeyPrefix+key).Result()
	if err != nil {
		return 0, err
	}
	// -2 missing, -1 no expiry
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (r *RedisCooldowns) Start(ctx context.Context, key string, d time.Duration) error {
	if d <= 0 {
		return r.rdb.Del(ctx, cooldownKeyPrefix+key).Err()
	}
	return r.rdb.Set(ctx, cooldownKeyPrefix+key, 1, d).Err()
}

func (r *RedisCooldowns) Try(ctx context.Context, key string, d time.Duration) (time.Duration, bool, error) {
	ok, err := r.rdb.SetNX(ctx, cooldownKeyPrefix+key, 1, d).Result()
	if err != nil {
		return 0, false, err
	}
	if ok {
		return 0, true, nil
	}
	remaining, err := r.Check(ctx, key)
	if err != nil {
		return 0, false, err
	}
	return remaining, false, nil
}

func (r *RedisCooldowns) Close() error {
	return r.rdb.Close()
}

// MemoryCooldowns keeps cooldowns in process memory
type MemoryCooldowns struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryCooldowns() *MemoryCooldowns {
	return &MemoryCooldowns{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryCooldowns) remaining(key string) time.Duration {
	expires, ok := m.entries[key]
	if !ok {
		return 0
	}
	left := expires.Sub(m.now())
	if left <= 0 {
		delete(m.entries, key)
		return 0
	}
	return left
}

func (m *MemoryCooldowns) Check(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining(key), nil
}

func (m *MemoryCooldowns) Start(_ context.Context, key string, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d <= 0 {
		delete(m.entries, key)
		return nil
	}
	m.entries[key] = m.now().Add(d)
	return nil
}

func (m *MemoryCooldowns) Try(_ context.Context, key string, d time.Duration) (time.Duration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if left := m.remaining(key); left > 0 {
		return left, false, nil
	}
	if d > 0 {
		m.entries[key] = m.now().Add(d)
	}
	return 0, true, nil
}

// Sweep drops expired entries
func (m *MemoryCooldowns) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for key, expires := range m.entries {
		if !now.Before(expires) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

func (m *MemoryCooldowns) Close() error { return nil }
