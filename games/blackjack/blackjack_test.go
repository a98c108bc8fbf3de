package blackjack

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"harbor-go/utils"
	"harbor-go/utils/discordtest"
)

// stackedDeck deals ranks in order, padded so the shoe never reshuffles
func stackedDeck(ranks ...string) *utils.Deck {
	d := &utils.Deck{NumDecks: 1}
	for _, r := range ranks {
		d.Cards = append(d.Cards, utils.Card{Rank: r, Suit: "♠️"})
	}
	for len(d.Cards) < 52 {
		d.Cards = append(d.Cards, utils.Card{Rank: "2", Suit: "♣️"})
	}
	return d
}

// newGame deals player/dealer cards alternately: p1 d1 p2 d2, then rest
func newGame(ranks ...string) *BlackjackGame {
	g := NewBlackjackGame(&utils.BaseGame{Bet: 100}, stackedDeck(ranks...))
	g.Deal()
	return g
}

func TestDealNaturals(t *testing.T) {
	tests := []struct {
		name    string
		ranks   []string
		outcome Outcome
		payout  int64
	}{
		{"player blackjack", []string{"A", "9", "K", "7"}, OutcomeBlackjack, 250},
		{"both blackjack", []string{"A", "A", "K", "Q"}, OutcomePush, 100},
		{"dealer blackjack", []string{"9", "A", "7", "K"}, OutcomeLoss, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGame(tt.ranks...)
			assert.True(t, g.Finished)
			assert.Equal(t, tt.outcome, g.Outcome)
			assert.Equal(t, tt.payout, g.Payout())
		})
	}

	g := newGame("10", "10", "6", "7")
	assert.False(t, g.Finished)
	assert.True(t, g.CanDouble())
}

func TestHitBust(t *testing.T) {
	g := newGame("10", "10", "6", "7", "K")
	require.NoError(t, g.Hit())
	assert.True(t, g.Finished)
	assert.Equal(t, OutcomeBust, g.Outcome)
	assert.Zero(t, g.Payout())

	assert.ErrorIs(t, g.Hit(), utils.ErrSessionExpired)
}

func TestHitTo21Stands(t *testing.T) {
	// player 10+6, hits 5 for 21; dealer 10+7 stands on 17
	g := newGame("10", "10", "6", "7", "5")
	require.NoError(t, g.Hit())
	assert.True(t, g.Finished)
	assert.Equal(t, OutcomeWin, g.Outcome)
	assert.Equal(t, int64(200), g.Payout())
}

func TestFiveCardCharlie(t *testing.T) {
	g := newGame("2", "10", "3", "7", "2", "3", "4")
	for i := 0; i < 3; i++ {
		require.NoError(t, g.Hit())
	}
	assert.Equal(t, 5, g.PlayerHand.Count())
	assert.Equal(t, OutcomeCharlie, g.Outcome)
	assert.Equal(t, int64(275), g.Payout())
}

func TestStand(t *testing.T) {
	tests := []struct {
		name    string
		ranks   []string
		outcome Outcome
		payout  int64
	}{
		{"dealer draws to 21", []string{"10", "10", "7", "6", "5"}, OutcomeLoss, 0},
		{"dealer busts", []string{"10", "10", "7", "6", "K"}, OutcomeWin, 200},
		{"push", []string{"10", "10", "8", "8"}, OutcomePush, 100},
		{"dealer higher", []string{"10", "10", "7", "9"}, OutcomeLoss, 0},
		{"soft ace counts low", []string{"10", "A", "8", "5", "K", "6"}, OutcomeWin, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGame(tt.ranks...)
			g.Stand()
			assert.Equal(t, tt.outcome, g.Outcome, "dealer %s", g.DealerHand)
			assert.Equal(t, tt.payout, g.Payout())
			assert.GreaterOrEqual(t, g.DealerHand.Value(), utils.DealerStandValue)
		})
	}
}

func TestDouble(t *testing.T) {
	g := newGame("5", "10", "6", "7", "K")
	g.Bet = 200
	require.NoError(t, g.Double())
	assert.True(t, g.Doubled)
	assert.Equal(t, 3, g.PlayerHand.Count())
	assert.Equal(t, OutcomeWin, g.Outcome)
	assert.Equal(t, int64(400), g.Payout())
	assert.False(t, g.CanDouble())
	assert.ErrorIs(t, g.Double(), utils.ErrForbidden)
}

func TestDoubleNotAfterHit(t *testing.T) {
	g := newGame("2", "10", "3", "7", "2")
	require.NoError(t, g.Hit())
	assert.False(t, g.CanDouble())
}

func TestButtons(t *testing.T) {
	rows := buttons("sess", true)
	got := utils.Buttons(rows)
	require.NotEmpty(t, got)
	for _, b := range got {
		prefix, _, args := utils.ParseCustomID(b.CustomID)
		assert.Equal(t, "blackjack", prefix)
		assert.Equal(t, []string{"sess"}, args)
	}
}

func useMemoryStore(t *testing.T) {
	t.Helper()
	prevDB, prevCache, prevCooldowns, prevSessions := utils.DB, utils.Cache, utils.CooldownStore, utils.Sessions
	utils.DB = utils.NewMemoryStore()
	utils.Cache = utils.NewUserCache(utils.DefaultUserCacheTTL)
	utils.CooldownStore = utils.NewMemoryCooldowns()
	utils.Sessions = utils.NewSessionManager()
	t.Cleanup(func() {
		utils.DB, utils.Cache, utils.CooldownStore, utils.Sessions = prevDB, prevCache, prevCooldowns, prevSessions
	})
}

// startSession escrows a 100 coin bet for user 7 and registers a game dealt
// from ranks, the way /blackjack does
func startSession(t *testing.T, dg *discordtest.MockDiscord, timeout time.Duration, ranks ...string) (*utils.Session, *BlackjackGame) {
	t.Helper()
	base, _, err := utils.StartGame(context.Background(), 7, "blackjack", "100")
	require.NoError(t, err)
	game := NewBlackjackGame(base, stackedDeck(ranks...))
	game.Deal()
	require.False(t, game.Finished)

	session := &utils.Session{
		Kind:        utils.SessionBlackjack,
		UserID:      "7",
		Interaction: discordtest.SlashCommand("blackjack", "g", "7").Interaction,
		Data:        game,
		Timeout:     timeout,
		OnExpire:    func(sess *utils.Session) { expire(dg, sess) },
	}
	require.NoError(t, utils.Sessions.Register(session))
	return session, game
}

func wallet(t *testing.T) int64 {
	t.Helper()
	user, err := utils.DB.GetUser(context.Background(), 7)
	require.NoError(t, err)
	return user.Wallet
}

func TestBlackjackButtons(t *testing.T) {
	useMemoryStore(t)
	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)

	// player 10+6, dealer 10+7, next card 3
	session, game := startSession(t, dg, time.Minute, "10", "10", "6", "7", "3")
	assert.Equal(t, int64(utils.StartingWallet-100), wallet(t))

	stranger := discordtest.Component("blackjack:hit:"+session.ID, "g", "8")
	require.NoError(t, HandleBlackjackInteraction(dg, stranger))
	assert.Equal(t, discordgo.MessageFlagsEphemeral, dg.Responses()[0].Data.Flags)
	assert.Equal(t, 2, game.PlayerHand.Count(), "a stranger's click changes nothing")

	require.NoError(t, HandleBlackjackInteraction(dg, discordtest.Component("blackjack:hit:"+session.ID, "g", "7")))
	resp := dg.Responses()[1]
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	assert.Equal(t, 19, game.PlayerHand.Value())
	assert.NotEmpty(t, utils.Buttons(resp.Data.Components))

	require.NoError(t, HandleBlackjackInteraction(dg, discordtest.Component("blackjack:stand:"+session.ID, "g", "7")))
	resp = dg.Responses()[2]
	assert.Empty(t, resp.Data.Components)
	assert.Equal(t, OutcomeWin, game.Outcome)
	assert.Equal(t, int64(utils.StartingWallet+100), wallet(t))
	assert.True(t, session.Ended())

	// the finished game's buttons no longer resolve
	require.NoError(t, HandleBlackjackInteraction(dg, discordtest.Component("blackjack:hit:"+session.ID, "g", "7")))
	assert.Equal(t, discordgo.MessageFlagsEphemeral, dg.Responses()[3].Data.Flags)
	assert.Equal(t, int64(utils.StartingWallet+100), wallet(t))
}

func TestBlackjackDoubleEscrowsSecondBet(t *testing.T) {
	useMemoryStore(t)
	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)

	// player 6+5 doubles into a 10 for 21, dealer stands on 10+7
	session, game := startSession(t, dg, time.Minute, "6", "10", "5", "7", "10")
	require.NoError(t, HandleBlackjackInteraction(dg, discordtest.Component("blackjack:double:"+session.ID, "g", "7")))

	assert.True(t, game.Doubled)
	assert.Equal(t, OutcomeWin, game.Outcome)
	assert.Equal(t, int64(200), game.Bet)
	assert.Equal(t, int64(utils.StartingWallet+200), wallet(t))
}

func TestBlackjackTimeoutForfeits(t *testing.T) {
	useMemoryStore(t)
	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	dg.On("InteractionResponseEdit", mock.Anything, mock.Anything).Return(&discordgo.Message{}, nil)

	session, game := startSession(t, dg, time.Millisecond, "10", "10", "6", "7")
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, utils.Sessions.Sweep())

	assert.Equal(t, OutcomeTimeout, game.Outcome)
	assert.True(t, game.IsSettled())
	assert.Equal(t, int64(utils.StartingWallet-100), wallet(t), "the bet is forfeited")

	dg.AssertCalled(t, "InteractionResponseEdit", session.Interaction, mock.MatchedBy(func(edit *discordgo.WebhookEdit) bool {
		for _, b := range utils.Buttons(*edit.Components) {
			if !b.Disabled {
				return false
			}
		}
		return len(*edit.Embeds) == 1
	}))

	// a late click finds nothing to play
	require.NoError(t, HandleBlackjackInteraction(dg, discordtest.Component("blackjack:stand:"+session.ID, "g", "7")))
	assert.Equal(t, discordgo.MessageFlagsEphemeral, dg.Responses()[0].Data.Flags)
	assert.Equal(t, int64(utils.StartingWallet-100), wallet(t))
}
