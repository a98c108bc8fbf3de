package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"

	"harbor-go/models"
)

// RewardType is a periodic reward a user can claim
type RewardType string

const (
	RewardDaily  RewardType = "daily"
	RewardWeekly RewardType = "weekly"
)

// RewardInfo describes a claimed or claimable reward
type RewardInfo struct {
	Type          RewardType    `json:"type"`
	Amount        int64         `json:"amount"`
	XP            int64         `json:"xp"`
	Cooldown      time.Duration `json:"cooldown"`
	NextAvailable time.Time     `json:"next_available"`
}

// rewardClaimLease bounds how long one claim can hold the user's reward lock
const rewardClaimLease = 30 * time.Second

// RewardManager handles daily and weekly rewards tracked on the user row
type RewardManager struct {
	now func() time.Time
}

// Global reward manager
var Rewards = &RewardManager{now: time.Now}

func rewardCooldown(rt RewardType) time.Duration {
	if rt == RewardWeekly {
		return WeeklyCooldown
	}
	return DailyCooldown
}

func lastClaimed(user *models.User, rt RewardType) *time.Time {
	if rt == RewardWeekly {
		return user.LastWeekly
	}
	return user.LastDaily
}

// Remaining returns how long until the reward can be claimed again
func (rm *RewardManager) Remaining(user *models.User, rt RewardType) time.Duration {
	last := lastClaimed(user, rt)
	if last == nil {
		return 0
	}
	next := last.Add(rewardCooldown(rt))
	if remaining := next.Sub(rm.now()); remaining > 0 {
		return remaining
	}
	return 0
}

// Calculate returns the reward amount for the user's current level
func (rm *RewardManager) Calculate(user *models.User, rt RewardType) *RewardInfo {
	level := int64(Level(user.XP))
	info := &RewardInfo{Type: rt, Cooldown: rewardCooldown(rt)}
	switch rt {
	case RewardWeekly:
		info.Amount = BaseWeeklyReward + WeeklyPerLevel*level
		info.XP = WeeklyXP
	default:
		info.Amount = BaseDailyReward + DailyPerLevel*level
		info.XP = DailyXP
	}
	return info
}

// Claim grants the reward or returns a *CooldownError
func (rm *RewardManager) Claim(ctx context.Context, userID int64, rt RewardType) (*RewardInfo, *models.User, error) {
	user, err := GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if remaining := rm.Remaining(user, rt); remaining > 0 {
		return nil, nil, &CooldownError{Action: string(rt), Remaining: remaining}
	}

	// one claim at a time per user and reward, across shards when the
	// cooldown store is Redis
	lease := CooldownKey("claim-"+string(rt), userID)
	if _, ok, err := CooldownStore.Try(ctx, lease, rewardClaimLease); err != nil {
		return nil, nil, err
	} else if !ok {
		return nil, nil, &CooldownError{Action: string(rt), Remaining: rewardCooldown(rt)}
	}
	defer func() {
		if err := CooldownStore.Start(ctx, lease, 0); err != nil {
			slog.Warn("failed to release reward lease", "user_id", userID, "type", rt, tint.Err(err))
		}
	}()

	// the cached row may predate a claim that just finished
	user, err = DB.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if remaining := rm.Remaining(user, rt); remaining > 0 {
		Cache.Set(userID, user)
		return nil, nil, &CooldownError{Action: string(rt), Remaining: remaining}
	}

	info := rm.Calculate(user, rt)
	now := rm.now().UTC()
	updates := models.UserUpdate{WalletIncrement: info.Amount, XPIncrement: info.XP}
	if rt == RewardWeekly {
		updates.LastWeekly = &now
	} else {
		updates.LastDaily = &now
	}

	updated, err := UpdateCachedUser(ctx, userID, updates)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("reward claimed", "user_id", userID, "type", rt, "amount", info.Amount, "xp", info.XP)
	info.NextAvailable = now.Add(info.Cooldown)
	return info, updated, nil
}

// RewardEmbed renders a successful claim
func RewardEmbed(info *RewardInfo, user *models.User) *discordgo.MessageEmbed {
	title := "📅 Daily Reward"
	if info.Type == RewardWeekly {
		title = "🗓️ Weekly Reward"
	}
	embed := CreateBrandedEmbed(title, fmt.Sprintf("You claimed **%s**!", FormatCoins(info.Amount)), ColorSuccess)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "XP Earned", Value: fmt.Sprintf("+%d XP", info.XP), Inline: true},
		{Name: "Wallet", Value: FormatCoins(user.Wallet), Inline: true},
		{Name: "Next Available", Value: fmt.Sprintf("<t:%d:R>", info.NextAvailable.Unix()), Inline: false},
	}
	return embed
}
