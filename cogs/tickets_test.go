package cogs

import (
	"context"
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

// useTickets gives the test its own ticket tracker and a short channel
// deletion delay
func useTickets(t *testing.T) {
	t.Helper()
	prevTickets, prevDelay := utils.Tickets, ticketDeleteDelay
	utils.Tickets = utils.NewTicketTracker()
	ticketDeleteDelay = time.Millisecond
	t.Cleanup(func() {
		utils.Tickets, ticketDeleteDelay = prevTickets, prevDelay
	})
}

// openTicket opens ticket #1 for user 7 in channel-1, where the test
// component interactions are sent from
func openTicket(t *testing.T) {
	t.Helper()
	require.NoError(t, utils.Tickets.Open(context.Background(), &models.Ticket{
		ChannelID: "channel-1", GuildID: "g", OwnerID: "7", Number: 1, Reason: "help",
	}))
}

func TestTicketOverwrites(t *testing.T) {
	ow := TicketOverwrites("guild", "owner", "staff", "bot")
	require.Len(t, ow, 4)

	assert.Equal(t, "guild", ow[0].ID)
	assert.Equal(t, int64(discordgo.PermissionViewChannel), ow[0].Deny)
	assert.Equal(t, discordgo.PermissionOverwriteTypeMember, ow[1].Type)
	assert.NotZero(t, ow[1].Allow&discordgo.PermissionViewChannel)
	assert.NotZero(t, ow[1].Allow&discordgo.PermissionSendMessages)
	assert.Equal(t, discordgo.PermissionOverwriteTypeRole, ow[2].Type)
	assert.Equal(t, "bot", ow[3].ID)

	assert.Len(t, TicketOverwrites("guild", "owner", "", ""), 2)
}

func TestTicketChannelName(t *testing.T) {
	assert.Equal(t, "ticket-0001", TicketChannelName(1))
	assert.Equal(t, "ticket-12345", TicketChannelName(12345))
}

func TestTicketCreate(t *testing.T) {
	useMemoryStore(t)
	useTickets(t)
	ctx := context.Background()
	require.NoError(t, utils.Settings.Set(ctx, "g", models.SettingTicketStaffRole, "staff"))

	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	dg.On("GuildChannelCreateComplex", "g", mock.Anything).Return(&discordgo.Channel{ID: "ticket-chan"}, nil)
	dg.On("ChannelMessageSendComplex", "ticket-chan", mock.Anything).Return(&discordgo.Message{ID: "welcome"}, nil)
	dg.On("FollowupMessageCreate", mock.Anything, true, mock.Anything).Return(&discordgo.Message{ID: "followup"}, nil)

	create := discordtest.Modal("ticket:create", "g", "7", map[string]string{"reason": " my bank is empty "})
	require.NoError(t, HandleTicketInteraction(dg, create))

	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, dg.Responses()[0].Type)
	dg.AssertCalled(t, "GuildChannelCreateComplex", "g", mock.MatchedBy(func(data discordgo.GuildChannelCreateData) bool {
		return data.Name == "ticket-0001" && len(data.PermissionOverwrites) == 3
	}))
	dg.AssertCalled(t, "ChannelMessageSendComplex", "ticket-chan", mock.MatchedBy(func(m *discordgo.MessageSend) bool {
		return m.Content == "<@7> <@&staff>"
	}))

	ticket, err := utils.Tickets.OpenByOwner(ctx, "g", "7")
	require.NoError(t, err)
	assert.Equal(t, "ticket-chan", ticket.ChannelID)
	assert.Equal(t, "my bank is empty", ticket.Reason)
	stored, err := utils.DB.GetTicket(ctx, "ticket-chan")
	require.NoError(t, err)
	assert.True(t, stored.IsOpen())

	// one open ticket per member
	again := discordtest.Modal("ticket:create", "g", "7", map[string]string{"reason": "again"})
	require.NoError(t, HandleTicketInteraction(dg, again))
	resp := dg.Responses()[1]
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Contains(t, resp.Data.Content, "<#ticket-chan>")
	dg.AssertNumberOfCalls(t, "GuildChannelCreateComplex", 1)
}

func TestTicketCloseFlow(t *testing.T) {
	useMemoryStore(t)
	useTickets(t)
	ctx := context.Background()
	require.NoError(t, utils.Settings.Set(ctx, "g", models.SettingTicketLogChannel, "logs"))
	openTicket(t)

	deleted := make(chan string, 2)
	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	dg.On("ChannelMessages", "channel-1", utils.MaxMessagesPerRequest, "", "", "").Return([]*discordgo.Message{
		{ID: "1", ChannelID: "channel-1", Content: "my bank is empty", Author: &discordgo.User{ID: "7", Username: "user7"}, Timestamp: time.Now()},
	}, nil)
	dg.On("ChannelMessageSendComplex", "logs", mock.Anything).Return(&discordgo.Message{ID: "log"}, nil)
	dg.On("UserChannelCreate", "7").Return(&discordgo.Channel{ID: "dm-7"}, nil)
	dg.On("ChannelMessageSendComplex", "dm-7", mock.Anything).Return(&discordgo.Message{ID: "dm"}, nil)
	dg.On("ChannelDelete", "channel-1").Run(func(args mock.Arguments) {
		deleted <- args.String(0)
	}).Return(&discordgo.Channel{ID: "channel-1"}, nil)

	// strangers can't close someone else's ticket
	require.NoError(t, HandleTicketInteraction(dg, discordtest.Component("ticket:close", "g", "8")))
	assert.Equal(t, discordgo.MessageFlagsEphemeral, dg.Responses()[0].Data.Flags)

	// the close button asks first
	require.NoError(t, HandleTicketInteraction(dg, discordtest.Component("ticket:close", "g", "7")))
	confirm := dg.Responses()[1]
	assert.Equal(t, discordgo.MessageFlagsEphemeral, confirm.Data.Flags)
	require.Len(t, utils.Buttons(confirm.Data.Components), 2)
	assert.Equal(t, "ticket:confirm_close", utils.Buttons(confirm.Data.Components)[0].CustomID)

	// a double click on confirm closes once
	var wg sync.WaitGroup
	for n := 0; n < 2; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, HandleTicketInteraction(dg, discordtest.Component("ticket:confirm_close", "g", "7")))
		}()
	}
	wg.Wait()

	select {
	case ch := <-deleted:
		assert.Equal(t, "channel-1", ch)
	case <-time.After(time.Second):
		t.Fatal("ticket channel was not deleted")
	}

	dg.AssertNumberOfCalls(t, "ChannelMessages", 1)
	dg.AssertNumberOfCalls(t, "UserChannelCreate", 1)
	dg.AssertCalled(t, "ChannelMessageSendComplex", "logs", mock.MatchedBy(func(m *discordgo.MessageSend) bool {
		return len(m.Files) == 1 && m.Files[0].Name == "ticket-0001.txt"
	}))

	stored, err := utils.DB.GetTicket(ctx, "channel-1")
	require.NoError(t, err)
	assert.Equal(t, models.TicketClosed, stored.Status)
	assert.Equal(t, "7", stored.ClosedBy)
	assert.NotEmpty(t, stored.TranscriptID)
	assert.Zero(t, utils.Tickets.Count())
}

func TestTicketClaimButton(t *testing.T) {
	useMemoryStore(t)
	useTickets(t)
	openTicket(t)

	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	dg.On("ChannelMessageSendComplex", "channel-1", mock.Anything).Return(&discordgo.Message{ID: "notice"}, nil)

	staff := func(userID string) *discordgo.InteractionCreate {
		i := discordtest.Component("ticket:claim", "g", userID)
		i.Member.Permissions = discordgo.PermissionManageMessages
		return i
	}

	require.NoError(t, HandleTicketInteraction(dg, discordtest.Component("ticket:claim", "g", "7")))
	assert.Equal(t, discordgo.MessageFlagsEphemeral, dg.Responses()[0].Data.Flags, "owners can't claim")

	require.NoError(t, HandleTicketInteraction(dg, staff("20")))
	resp := dg.Responses()[1]
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	assert.True(t, utils.Buttons(resp.Data.Components)[1].Disabled)

	require.NoError(t, HandleTicketInteraction(dg, staff("21")))
	assert.Contains(t, dg.Responses()[2].Data.Content, "already claimed by <@20>")

	ticket, err := utils.Tickets.Get(context.Background(), "channel-1")
	require.NoError(t, err)
	assert.Equal(t, "20", ticket.ClaimedBy)
}
