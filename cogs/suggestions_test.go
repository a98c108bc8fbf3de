package cogs

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"harbor-go/models"
	"harbor-go/utils"
	"harbor-go/utils/discordtest"
)

func postedSuggestion(sg *models.Suggestion) *discordgo.Message {
	return &discordgo.Message{
		ID:         "msg-1",
		ChannelID:  "suggestions",
		Embeds:     []*discordgo.MessageEmbed{SuggestionEmbed(sg)},
		Components: SuggestionComponents(sg),
		Timestamp:  sg.CreatedAt,
	}
}

func TestSuggestionFromMessageRoundTrip(t *testing.T) {
	sg := &models.Suggestion{
		GuildID:    "g",
		Number:     4,
		AuthorID:   "111",
		Content:    "Add a fishing minigame",
		Upvoters:   []string{"123456789012345678", "223456789012345678"},
		Downvoters: []string{"323456789012345678"},
		Status:     models.SuggestionPending,
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	got, err := SuggestionFromMessage("g", 4, postedSuggestion(sg))
	require.NoError(t, err)
	assert.Equal(t, sg.Upvoters, got.Upvoters)
	assert.Equal(t, sg.Downvoters, got.Downvoters)
	assert.Equal(t, "111", got.AuthorID)
	assert.Equal(t, sg.Content, got.Content)
	assert.Equal(t, "msg-1", got.MessageID)
	assert.True(t, got.IsPending())
}

func TestSuggestionFromMessageOverflow(t *testing.T) {
	sg := &models.Suggestion{GuildID: "g", Number: 9, Status: models.SuggestionPending}
	for i := 0; i < 12; i++ {
		sg.Upvoters = append(sg.Upvoters, fmt.Sprintf("1234567890123456%02d", i))
	}
	_, err := SuggestionFromMessage("g", 9, postedSuggestion(sg))
	assert.ErrorIs(t, err, utils.ErrStoreUnavailable)

	_, err = SuggestionFromMessage("g", 9, nil)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	_, err = SuggestionFromMessage("g", 10, postedSuggestion(&models.Suggestion{Number: 9}))
	assert.ErrorIs(t, err, utils.ErrNotFound, "buttons for another suggestion")
}

func TestSuggestionComponentsDisabledWhenDecided(t *testing.T) {
	sg := &models.Suggestion{Number: 1, Status: models.SuggestionAccepted}
	for _, b := range utils.Buttons(SuggestionComponents(sg)) {
		assert.True(t, b.Disabled, b.CustomID)
	}
	embed := SuggestionEmbed(sg)
	assert.Equal(t, utils.ColorSuccess, embed.Color)
	assert.Contains(t, embed.Fields[len(embed.Fields)-1].Value, "No reason given.")
}

func TestSuggestionVoteToggles(t *testing.T) {
	m := useMemoryStore(t)
	ctx := context.Background()
	sg := &models.Suggestion{GuildID: "g", Number: 1, AuthorID: "5", Content: "idea", Upvoters: []string{}, Downvoters: []string{}, Status: models.SuggestionPending}
	require.NoError(t, m.CreateSuggestion(ctx, sg))

	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)

	up := discordtest.Component(utils.SuggestionVoteID("up", 1, nil), "g", "42")
	up.Message = postedSuggestion(sg)
	require.NoError(t, HandleSuggestionInteraction(dg, up))

	stored, err := m.GetSuggestion(ctx, "g", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, stored.Upvoters)

	resp := dg.Responses()[0]
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	buttons := utils.Buttons(resp.Data.Components)
	assert.Equal(t, "1", buttons[0].Label)
	_, _, voters, complete, err := utils.ParseSuggestionVoteID(buttons[0].CustomID)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, []string{"42"}, voters)

	// switching sides moves the vote
	down := discordtest.Component(utils.SuggestionVoteID("down", 1, nil), "g", "42")
	down.Message = postedSuggestion(stored)
	require.NoError(t, HandleSuggestionInteraction(dg, down))
	stored, _ = m.GetSuggestion(ctx, "g", 1)
	assert.Empty(t, stored.Upvoters)
	assert.Equal(t, []string{"42"}, stored.Downvoters)
}

func TestSuggestionVoteFromMessageWhenStoreLost(t *testing.T) {
	m := useMemoryStore(t)
	sg := &models.Suggestion{GuildID: "g", Number: 3, AuthorID: "5", Content: "idea", Upvoters: []string{"7"}, Downvoters: []string{}, Status: models.SuggestionPending}

	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	i := discordtest.Component(utils.SuggestionVoteID("up", 3, []string{"7"}), "g", "8")
	i.Message = postedSuggestion(sg)
	require.NoError(t, HandleSuggestionInteraction(dg, i))

	stored, err := m.GetSuggestion(context.Background(), "g", 3)
	require.NoError(t, err, "rebuilt suggestion is written back")
	assert.Equal(t, []string{"7", "8"}, stored.Upvoters)
	assert.Equal(t, "5", stored.AuthorID)
}

func TestSuggestionReviewNeedsStaff(t *testing.T) {
	useMemoryStore(t)
	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)

	i := discordtest.Component("suggest:accept:1", "g", "9")
	require.NoError(t, HandleSuggestionInteraction(dg, i))
	assert.Equal(t, discordgo.MessageFlagsEphemeral, dg.Responses()[0].Data.Flags)

	staff := discordtest.Component("suggest:accept:1", "g", "9")
	staff.Member.Permissions = discordgo.PermissionManageMessages
	require.NoError(t, HandleSuggestionInteraction(dg, staff))
	assert.Equal(t, discordgo.InteractionResponseModal, dg.Responses()[1].Type)
}

// slowSuggestionStore widens the window between reading and writing a vote
type slowSuggestionStore struct {
	*utils.MemoryStore
}

func (s slowSuggestionStore) MutateSuggestion(ctx context.Context, guildID string, number int, messageID string, fn func(*models.Suggestion) error) (*models.Suggestion, error) {
	return s.MemoryStore.MutateSuggestion(ctx, guildID, number, messageID, func(sg *models.Suggestion) error {
		time.Sleep(time.Millisecond)
		return fn(sg)
	})
}

func TestSuggestionConcurrentVotesAllLand(t *testing.T) {
	m := useMemoryStore(t)
	utils.DB = slowSuggestionStore{m}
	ctx := context.Background()
	sg := &models.Suggestion{GuildID: "g", Number: 1, AuthorID: "5", Content: "idea", MessageID: "msg-1", Upvoters: []string{}, Downvoters: []string{}, Status: models.SuggestionPending}
	require.NoError(t, m.CreateSuggestion(ctx, sg))
	posted := postedSuggestion(sg)

	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)

	const voters = 50
	var wg sync.WaitGroup
	for n := 0; n < voters; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			i := discordtest.Component(utils.SuggestionVoteID("up", 1, nil), "g", strconv.Itoa(1000+n))
			i.Message = posted
			assert.NoError(t, HandleSuggestionInteraction(dg, i))
		}(n)
	}
	wg.Wait()

	stored, err := m.GetSuggestion(ctx, "g", 1)
	require.NoError(t, err)
	assert.Len(t, stored.Upvoters, voters)
	assert.Empty(t, stored.Downvoters)
}

func TestSuggestionVoteIgnoresReusedNumber(t *testing.T) {
	m := useMemoryStore(t)
	ctx := context.Background()

	// after a restart the counter handed #1 out again to a newer message
	newer := &models.Suggestion{GuildID: "g", Number: 1, AuthorID: "6", ChannelID: "suggestions", MessageID: "msg-2", Content: "newer idea", Upvoters: []string{}, Downvoters: []string{}, Status: models.SuggestionPending}
	require.NoError(t, m.CreateSuggestion(ctx, newer))
	older := &models.Suggestion{GuildID: "g", Number: 1, AuthorID: "5", Content: "older idea", Upvoters: []string{"7"}, Downvoters: []string{}, Status: models.SuggestionPending}
	stale := postedSuggestion(older)

	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	for _, voter := range []string{"8", "9"} {
		i := discordtest.Component(utils.SuggestionVoteID("up", 1, []string{"7"}), "g", voter)
		i.Message = stale
		require.NoError(t, HandleSuggestionInteraction(dg, i))
	}

	resp := dg.Responses()[1]
	assert.Equal(t, "older idea", resp.Data.Embeds[0].Description)
	_, _, voters, complete, err := utils.ParseSuggestionVoteID(utils.Buttons(resp.Data.Components)[0].CustomID)
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, []string{"7", "8", "9"}, voters)

	stored, err := m.GetSuggestion(ctx, "g", 1)
	require.NoError(t, err)
	assert.Equal(t, "newer idea", stored.Content)
	assert.Equal(t, "msg-2", stored.MessageID)
	assert.Empty(t, stored.Upvoters)
}

func TestSuggestionDecision(t *testing.T) {
	m := useMemoryStore(t)
	ctx := context.Background()
	require.NoError(t, utils.Settings.Set(ctx, "g", models.SettingSuggestionResultChannel, "results"))
	sg := &models.Suggestion{GuildID: "g", Number: 1, AuthorID: "5", ChannelID: "suggestions", MessageID: "msg-1", Content: "idea", Upvoters: []string{"7"}, Downvoters: []string{}, Status: models.SuggestionPending}
	require.NoError(t, m.CreateSuggestion(ctx, sg))

	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	dg.On("ChannelMessageSendComplex", "results", mock.Anything).Return(&discordgo.Message{ID: "result"}, nil)
	dg.On("UserChannelCreate", "5").Return(&discordgo.Channel{ID: "dm-5"}, nil)
	dg.On("ChannelMessageSendComplex", "dm-5", mock.Anything).Return(&discordgo.Message{ID: "dm"}, nil)

	decide := func(action string) *discordgo.InteractionCreate {
		i := discordtest.Modal("suggest:decide:"+action+":1", "g", "9", map[string]string{"reason": "  great idea "})
		i.Member.Permissions = discordgo.PermissionManageMessages
		i.Message = postedSuggestion(sg)
		return i
	}

	require.NoError(t, HandleSuggestionInteraction(dg, decide("accept")))

	stored, err := m.GetSuggestion(ctx, "g", 1)
	require.NoError(t, err)
	assert.Equal(t, models.SuggestionAccepted, stored.Status)
	assert.Equal(t, "9", stored.ReviewerID)
	assert.Equal(t, "great idea", stored.Reason)
	assert.NotNil(t, stored.DecidedAt)
	assert.Equal(t, []string{"7"}, stored.Upvoters)

	resp := dg.Responses()[0]
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	for _, b := range utils.Buttons(resp.Data.Components) {
		assert.True(t, b.Disabled, b.CustomID)
	}
	dg.AssertCalled(t, "ChannelMessageSendComplex", "results", mock.Anything)
	dg.AssertCalled(t, "ChannelMessageSendComplex", "dm-5", mock.Anything)

	// a second reviewer can't overturn it
	require.NoError(t, HandleSuggestionInteraction(dg, decide("deny")))
	assert.Equal(t, discordgo.MessageFlagsEphemeral, dg.Responses()[1].Data.Flags)
	assert.Contains(t, dg.Responses()[1].Data.Content, "already been decided")
	stored, _ = m.GetSuggestion(ctx, "g", 1)
	assert.Equal(t, models.SuggestionAccepted, stored.Status)
}

func TestSuggestionDecisionNeedsStaff(t *testing.T) {
	m := useMemoryStore(t)
	ctx := context.Background()
	sg := &models.Suggestion{GuildID: "g", Number: 2, MessageID: "msg-1", Upvoters: []string{}, Downvoters: []string{}, Status: models.SuggestionPending}
	require.NoError(t, m.CreateSuggestion(ctx, sg))

	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	i := discordtest.Modal("suggest:decide:deny:2", "g", "9", map[string]string{"reason": "no"})
	i.Message = postedSuggestion(sg)
	require.NoError(t, HandleSuggestionInteraction(dg, i))

	assert.Equal(t, discordgo.MessageFlagsEphemeral, dg.Responses()[0].Data.Flags)
	stored, _ := m.GetSuggestion(ctx, "g", 2)
	assert.True(t, stored.IsPending())
}
