package utils

import (
	"context"
	"log/slog"

	"github.com/lmittmann/tint"
)

// JackpotManager wraps the progressive slots jackpot held by the store
type JackpotManager struct {
	Seed             int64
	ContributionRate float64
}

// Global jackpot manager
var Jackpot = &JackpotManager{
	Seed:             JackpotSeed,
	ContributionRate: JackpotLossContribution,
}

// Amount returns the current jackpot
func (jm *JackpotManager) Amount(ctx context.Context) (int64, error) {
	return DB.GetJackpot(ctx)
}

// ContributeLoss adds a share of a losing bet and returns the new total.
// Failures are logged; the game result stands either way.
func (jm *JackpotManager) ContributeLoss(ctx context.Context, bet int64) int64 {
	contribution := int64(float64(bet) * jm.ContributionRate)
	if contribution <= 0 {
		amount, _ := DB.GetJackpot(ctx)
		return amount
	}
	amount, err := DB.AddJackpot(ctx, contribution)
	if err != nil {
		slog.Error("jackpot contribution failed", "bet", bet, tint.Err(err))
		return 0
	}
	return amount
}

// Win resets the jackpot to its seed and returns the amount won
func (jm *JackpotManager) Win(ctx context.Context, userID int64) (int64, error) {
	won, err := DB.ResetJackpot(ctx, jm.Seed)
	if err != nil {
		return 0, err
	}
	slog.Info("jackpot won", "user_id", userID, "amount", won)
	return won, nil
}
