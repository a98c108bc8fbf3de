package steal

import (
	"context"
	"math/rand"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"harbor-go/models"
	"harbor-go/utils"
	"harbor-go/utils/discordtest"
)

func useMemoryStore(t *testing.T) *utils.MemoryStore {
	t.Helper()
	prevDB, prevCache, prevCooldowns := utils.DB, utils.Cache, utils.CooldownStore
	m := utils.NewMemoryStore()
	utils.DB = m
	utils.Cache = utils.NewUserCache(utils.DefaultUserCacheTTL)
	utils.CooldownStore = utils.NewMemoryCooldowns()
	t.Cleanup(func() {
		utils.DB, utils.Cache, utils.CooldownStore = prevDB, prevCache, prevCooldowns
	})
	return m
}

func TestFine(t *testing.T) {
	assert.Equal(t, int64(250), Fine(1000))
	assert.Equal(t, int64(utils.StealMinFine), Fine(100))
	assert.Equal(t, int64(30), Fine(30), "never more than the wallet")
	assert.Zero(t, Fine(0))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, Attempt{Outcome: OutcomeBlocked}, Resolve(rand.New(rand.NewSource(1)), 1000, 1000, true))

	rng := rand.New(rand.NewSource(9))
	seen := map[Outcome]bool{}
	for i := 0; i < 500; i++ {
		a := Resolve(rng, 800, 1000, false)
		seen[a.Outcome] = true
		switch a.Outcome {
		case OutcomeSuccess:
			assert.GreaterOrEqual(t, a.Amount, int64(100))
			assert.LessOrEqual(t, a.Amount, int64(400))
		case OutcomeCaught:
			assert.Equal(t, Fine(800), a.Amount)
		default:
			t.Fatalf("unexpected outcome %v", a.Outcome)
		}
	}
	assert.True(t, seen[OutcomeSuccess])
	assert.True(t, seen[OutcomeCaught])
}

func seedUsers(t *testing.T, thief, victim int64) {
	t.Helper()
	ctx := context.Background()
	for _, id := range []int64{1, 2} {
		_, err := utils.GetUser(ctx, id)
		require.NoError(t, err)
	}
	_, err := utils.UpdateCachedUser(ctx, 1, models.UserUpdate{WalletIncrement: thief - utils.StartingWallet})
	require.NoError(t, err)
	_, err = utils.UpdateCachedUser(ctx, 2, models.UserUpdate{WalletIncrement: victim - utils.StartingWallet})
	require.NoError(t, err)
}

func TestApply(t *testing.T) {
	useMemoryStore(t)
	ctx := context.Background()
	seedUsers(t, 1000, 1000)
	target := &discordgo.User{ID: "2"}

	embed, err := apply(ctx, Attempt{Outcome: OutcomeSuccess, Amount: 300}, 1, 2, target)
	require.NoError(t, err)
	assert.Contains(t, embed.Title, "Success")

	thief, _ := utils.GetUser(ctx, 1)
	victim, _ := utils.GetUser(ctx, 2)
	assert.Equal(t, int64(1300), thief.Wallet)
	assert.Equal(t, int64(700), victim.Wallet)

	_, err = apply(ctx, Attempt{Outcome: OutcomeCaught, Amount: 325}, 1, 2, target)
	require.NoError(t, err)
	thief, _ = utils.GetUser(ctx, 1)
	victim, _ = utils.GetUser(ctx, 2)
	assert.Equal(t, int64(975), thief.Wallet)
	assert.Equal(t, int64(1025), victim.Wallet, "the fine goes to the victim")
}

func TestPlayBlockedByPadlock(t *testing.T) {
	useMemoryStore(t)
	ctx := context.Background()
	seedUsers(t, 1000, 1000)
	_, err := utils.AddItem(ctx, 2, utils.PadlockItem, 1)
	require.NoError(t, err)

	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	i := discordtest.SlashCommand("steal", "g", "1",
		discordtest.Option("user", discordgo.ApplicationCommandOptionUser, "2"))
	require.NoError(t, play(dg, i, rand.New(rand.NewSource(1))))

	victim, _ := utils.GetUser(ctx, 2)
	assert.Zero(t, victim.ItemCount(utils.PadlockItem), "padlock is consumed")
	assert.Equal(t, int64(1000), victim.Wallet)

	left, _ := utils.CooldownStore.Check(ctx, utils.CooldownKey("steal", 1))
	assert.Positive(t, left)
}

func TestPlayRefusals(t *testing.T) {
	useMemoryStore(t)
	seedUsers(t, 100, 1000)
	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)

	self := discordtest.SlashCommand("steal", "g", "1",
		discordtest.Option("user", discordgo.ApplicationCommandOptionUser, "1"))
	require.NoError(t, play(dg, self, rand.New(rand.NewSource(1))))

	poor := discordtest.SlashCommand("steal", "g", "1",
		discordtest.Option("user", discordgo.ApplicationCommandOptionUser, "2"))
	require.NoError(t, play(dg, poor, rand.New(rand.NewSource(1))))

	for _, resp := range dg.Responses() {
		assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	}
	left, _ := utils.CooldownStore.Check(context.Background(), utils.CooldownKey("steal", 1))
	assert.Zero(t, left, "refused attempts don't start the cooldown")
}
