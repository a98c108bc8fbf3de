package gamble

import (
	"context"
	"math/rand"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"harbor-go/utils"
	"harbor-go/utils/discordtest"
)

func useMemoryStore(t *testing.T) {
	t.Helper()
	prevDB, prevCache, prevCooldowns := utils.DB, utils.Cache, utils.CooldownStore
	utils.DB = utils.NewMemoryStore()
	utils.Cache = utils.NewUserCache(utils.DefaultUserCacheTTL)
	utils.CooldownStore = utils.NewMemoryCooldowns()
	t.Cleanup(func() {
		utils.DB, utils.Cache, utils.CooldownStore = prevDB, prevCache, prevCooldowns
	})
}

func TestPayout(t *testing.T) {
	win := Round{Player: Roll{6, 5}, House: Roll{2, 3}}
	tie := Round{Player: Roll{4, 3}, House: Roll{5, 2}}
	loss := Round{Player: Roll{1, 1}, House: Roll{6, 6}}

	assert.Equal(t, int64(200), win.Payout(100))
	assert.Equal(t, int64(100), tie.Payout(100))
	assert.Zero(t, loss.Payout(100))
	assert.Equal(t, 11, win.Player.Total())
}

func TestThrowRange(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		rd := Throw(rng)
		for _, die := range append(rd.Player[:], rd.House[:]...) {
			assert.GreaterOrEqual(t, die, 1)
			assert.LessOrEqual(t, die, 6)
		}
	}
}

func TestPlaySettlesBet(t *testing.T) {
	useMemoryStore(t)
	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)

	i := discordtest.SlashCommand("gamble", "g", "1001",
		discordtest.Option("bet", discordgo.ApplicationCommandOptionString, "100"))
	require.NoError(t, play(dg, i, rand.New(rand.NewSource(42))))

	expected := Throw(rand.New(rand.NewSource(42))).Payout(100)
	user, err := utils.GetUser(context.Background(), 1001)
	require.NoError(t, err)
	assert.Equal(t, utils.StartingWallet-100+expected, user.Wallet)

	// a second gamble within the cooldown is refused
	require.NoError(t, play(dg, i, rand.New(rand.NewSource(42))))
	again, _ := utils.GetUser(context.Background(), 1001)
	assert.Equal(t, user.Wallet, again.Wallet)
	dg.AssertNumberOfCalls(t, "InteractionRespond", 2)
}

func TestPlayRejectsBadBet(t *testing.T) {
	useMemoryStore(t)
	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)

	i := discordtest.SlashCommand("gamble", "g", "1002",
		discordtest.Option("bet", discordgo.ApplicationCommandOptionString, "1m"))
	require.NoError(t, play(dg, i, rand.New(rand.NewSource(1))))

	resp := dg.Responses()[0]
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)

	// the failed bet doesn't burn the cooldown
	left, err := utils.CooldownStore.Check(context.Background(), utils.CooldownKey("gamble", 1002))
	require.NoError(t, err)
	assert.Zero(t, left)
}
