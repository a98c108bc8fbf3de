package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartGameEscrowsBet(t *testing.T) {
	useMemoryStore(t)
	ctx := context.Background()

	game, after, err := StartGame(ctx, 1, "slots", "100")
	require.NoError(t, err)
	assert.Equal(t, int64(100), game.Bet)
	assert.Equal(t, int64(StartingWallet-100), after.Wallet)

	_, user, err := StartGame(ctx, 1, "slots", "1m")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	require.NotNil(t, user, "the wallet is returned for the error embed")
}

func TestSettleWinGrantsXPOnce(t *testing.T) {
	useMemoryStore(t)
	ctx := context.Background()

	game, _, err := StartGame(ctx, 1, "gamble", "100")
	require.NoError(t, err)

	res, err := game.Settle(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Profit)
	assert.Equal(t, int64(10), res.XP)
	assert.Equal(t, int64(StartingWallet+100), res.User.Wallet)
	assert.True(t, game.IsSettled())

	again, err := game.Settle(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, res.User.Wallet, again.User.Wallet)
	u, _ := GetUser(ctx, 1)
	assert.Equal(t, int64(StartingWallet+100), u.Wallet, "second settle pays nothing")
}

func TestForfeitKeepsBet(t *testing.T) {
	useMemoryStore(t)
	ctx := context.Background()

	game, _, err := StartGame(ctx, 1, "blackjack", "50")
	require.NoError(t, err)
	res, err := game.Forfeit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-50), res.Profit)
	assert.Zero(t, res.XP)
	assert.Equal(t, int64(StartingWallet-50), res.User.Wallet)
}

func TestRaise(t *testing.T) {
	useMemoryStore(t)
	ctx := context.Background()

	game, _, err := StartGame(ctx, 1, "blackjack", "100")
	require.NoError(t, err)
	_, err = game.Raise(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(200), game.Bet)

	_, err = game.Settle(ctx, 0)
	require.NoError(t, err)
	_, err = game.Raise(ctx, 10)
	assert.ErrorIs(t, err, ErrSessionExpired)
}
