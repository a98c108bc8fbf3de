package utils

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"harbor-go/models"
)

// BaseGame escrows a bet for the lifetime of a game. The bet leaves the
// wallet when the game starts; Settle pays out whatever is won back.
type BaseGame struct {
	UserID   int64
	Bet      int64
	GameType string

	mu      sync.Mutex
	settled bool
	result  *models.User
}

// GameResult is the outcome of a settled game
type GameResult struct {
	Payout int64
	Profit int64
	XP     int64
	User   *models.User
	// LevelUp is the new level when the game crossed a boundary
	LevelUp int
}

// StartGame validates betStr against the wallet and escrows it
func StartGame(ctx context.Context, userID int64, gameType, betStr string) (*BaseGame, *models.User, error) {
	user, err := GetUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	bet, err := ParseBet(betStr, user.Wallet)
	if err != nil {
		return nil, user, err
	}
	after, err := Debit(ctx, userID, bet)
	if err != nil {
		return nil, user, err
	}
	return &BaseGame{UserID: userID, Bet: bet, GameType: gameType}, after, nil
}

// Raise escrows an additional amount, as on a blackjack double
func (bg *BaseGame) Raise(ctx context.Context, amount int64) (*models.User, error) {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	if bg.settled {
		return nil, ErrSessionExpired
	}
	user, err := Debit(ctx, bg.UserID, amount)
	if err != nil {
		return nil, err
	}
	bg.Bet += amount
	return user, nil
}

// Settle returns payout to the wallet (zero on a loss) and grants XP for
// profit. Only the first call has an effect.
func (bg *BaseGame) Settle(ctx context.Context, payout int64) (*GameResult, error) {
	bg.mu.Lock()
	defer bg.mu.Unlock()

	profit := payout - bg.Bet
	if bg.settled {
		return &GameResult{Payout: payout, Profit: profit, User: bg.result}, nil
	}
	if payout < 0 {
		return nil, ErrInvalidAmount
	}

	before, err := GetUser(ctx, bg.UserID)
	if err != nil {
		return nil, err
	}

	xp := ProfitXP(profit)
	after := before
	if payout > 0 || xp > 0 {
		after, err = Credit(ctx, bg.UserID, payout, xp)
		if err != nil {
			return nil, fmt.Errorf("failed to settle %s game: %w", bg.GameType, err)
		}
	}
	bg.settled = true
	bg.result = after

	res := &GameResult{Payout: payout, Profit: profit, XP: xp, User: after}
	if level, ok := LevelUp(before, after); ok {
		res.LevelUp = level
	}
	slog.Debug("game settled", "game", bg.GameType, "user_id", bg.UserID, "bet", bg.Bet, "payout", payout)
	return res, nil
}

// Forfeit settles the game as a loss
func (bg *BaseGame) Forfeit(ctx context.Context) (*GameResult, error) {
	return bg.Settle(ctx, 0)
}

// IsSettled reports whether Settle has run
func (bg *BaseGame) IsSettled() bool {
	bg.mu.Lock()
	defer bg.mu.Unlock()
	return bg.settled
}
