package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harbor-go/models"
)

func TestRewardCalculateScalesWithLevel(t *testing.T) {
	rm := &RewardManager{now: time.Now}

	daily := rm.Calculate(&models.User{XP: 0}, RewardDaily)
	assert.Equal(t, int64(BaseDailyReward), daily.Amount)
	assert.Equal(t, int64(DailyXP), daily.XP)

	weekly := rm.Calculate(&models.User{XP: XPForLevel(3)}, RewardWeekly)
	assert.Equal(t, int64(BaseWeeklyReward+3*WeeklyPerLevel), weekly.Amount)
	assert.Equal(t, WeeklyCooldown, weekly.Cooldown)
}

func TestRewardClaimCooldown(t *testing.T) {
	useMemoryStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rm := &RewardManager{now: func() time.Time { return now }}

	info, user, err := rm.Claim(ctx, 1, RewardDaily)
	require.NoError(t, err)
	assert.Equal(t, int64(StartingWallet+BaseDailyReward), user.Wallet)
	assert.Equal(t, now.Add(DailyCooldown), info.NextAvailable)

	now = now.Add(time.Hour)
	_, _, err = rm.Claim(ctx, 1, RewardDaily)
	var cd *CooldownError
	require.True(t, errors.As(err, &cd))
	assert.Equal(t, DailyCooldown-time.Hour, cd.Remaining)

	// weekly is tracked separately
	_, _, err = rm.Claim(ctx, 1, RewardWeekly)
	require.NoError(t, err)

	now = now.Add(DailyCooldown)
	_, _, err = rm.Claim(ctx, 1, RewardDaily)
	assert.NoError(t, err)
}

func TestRewardClaimConcurrent(t *testing.T) {
	useMemoryStore(t)
	ctx := context.Background()
	rm := &RewardManager{now: time.Now}

	var wg sync.WaitGroup
	var claimed, refused atomic.Int32
	for n := 0; n < 20; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := rm.Claim(ctx, 1, RewardDaily)
			var cd *CooldownError
			switch {
			case err == nil:
				claimed.Add(1)
			case errors.As(err, &cd):
				refused.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), claimed.Load())
	assert.Equal(t, int32(19), refused.Load())
	user, err := DB.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(StartingWallet+BaseDailyReward), user.Wallet)
}

func TestRewardClaimRechecksStore(t *testing.T) {
	useMemoryStore(t)
	ctx := context.Background()
	rm := &RewardManager{now: time.Now}

	// warm the cache, then claim behind its back as another shard would
	_, err := GetUser(ctx, 1)
	require.NoError(t, err)
	claimedAt := time.Now().UTC()
	_, err = DB.UpdateUser(ctx, 1, models.UserUpdate{WalletIncrement: BaseDailyReward, LastDaily: &claimedAt})
	require.NoError(t, err)

	_, _, err = rm.Claim(ctx, 1, RewardDaily)
	var cd *CooldownError
	require.True(t, errors.As(err, &cd), "stale cache must not allow a second claim")

	// the lease was released
	remaining, err := CooldownStore.Check(ctx, CooldownKey("claim-daily", 1))
	require.NoError(t, err)
	assert.Zero(t, remaining)
}
