// Package discordtest provides a testify mock of the Discord REST surface the
// bot uses, plus builders for interaction events.
package discordtest

import (
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/mock"
)

// MockDiscord implements utils.Discord using testify/mock. Request options
// are not passed to Called.
type MockDiscord struct {
	mock.Mock
}

func (m *MockDiscord) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	return m.Called(interaction, resp).Error(0)
}

func (m *MockDiscord) InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction, newresp)
	return message(args.Get(0)), args.Error(1)
}

func (m *MockDiscord) InteractionResponse(interaction *discordgo.Interaction, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction)
	return message(args.Get(0)), args.Error(1)
}

func (m *MockDiscord) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction, wait, data)
	return message(args.Get(0)), args.Error(1)
}

func (m *MockDiscord) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	args := m.Called(channelID)
	return channel(args.Get(0)), args.Error(1)
}

func (m *MockDiscord) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	args := m.Called(channelID)
	return channel(args.Get(0)), args.Error(1)
}

func (m *MockDiscord) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	args := m.Called(channelID, limit, beforeID, afterID, aroundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*discordgo.Message), args.Error(1)
}

func (m *MockDiscord) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, data)
	return message(args.Get(0)), args.Error(1)
}

func (m *MockDiscord) ChannelMessageEditComplex(edit *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(edit)
	return message(args.Get(0)), args.Error(1)
}

func (m *MockDiscord) ChannelMessageDelete(channelID, messageID string, _ ...discordgo.RequestOption) error {
	return m.Called(channelID, messageID).Error(0)
}

func (m *MockDiscord) ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, _ ...discordgo.RequestOption) error {
	return m.Called(channelID, targetID, targetType, allow, deny).Error(0)
}

func (m *MockDiscord) ChannelPermissionDelete(channelID, targetID string, _ ...discordgo.RequestOption) error {
	return m.Called(channelID, targetID).Error(0)
}

func (m *MockDiscord) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	args := m.Called(guildID, data)
	return channel(args.Get(0)), args.Error(1)
}

func (m *MockDiscord) GuildMember(guildID, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	args := m.Called(guildID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.Member), args.Error(1)
}

func (m *MockDiscord) GuildMemberRoleAdd(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	return m.Called(guildID, userID, roleID).Error(0)
}

func (m *MockDiscord) GuildMemberRoleRemove(guildID, userID, roleID string, _ ...discordgo.RequestOption) error {
	return m.Called(guildID, userID, roleID).Error(0)
}

func (m *MockDiscord) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	args := m.Called(recipientID)
	return channel(args.Get(0)), args.Error(1)
}

func message(v any) *discordgo.Message {
	if v == nil {
		return nil
	}
	return v.(*discordgo.Message)
}

func channel(v any) *discordgo.Channel {
	if v == nil {
		return nil
	}
	return v.(*discordgo.Channel)
}

// NotFound returns the REST error Discord sends for a missing channel
func NotFound() error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"},
		Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownChannel, Message: "Unknown Channel"},
	}
}

// SlashCommand builds a guild slash command interaction from userID
func SlashCommand(name, guildID, userID string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "interaction-" + name,
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guildID,
		ChannelID: "channel-1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID, Username: "user" + userID}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: options,
		},
	}}
}

// Component builds a button or select interaction
func Component(customID, guildID, userID string, values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "interaction-" + customID,
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   guildID,
		ChannelID: "channel-1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID, Username: "user" + userID}},
		Message:   &discordgo.Message{ID: "message-1", ChannelID: "channel-1"},
		Data: discordgo.MessageComponentInteractionData{
			CustomID: customID,
			Values:   values,
		},
	}}
}

// Modal builds a modal submit carrying the given text input values
func Modal(customID, guildID, userID string, values map[string]string) *discordgo.InteractionCreate {
	rows := make([]discordgo.MessageComponent, 0, len(values))
	for id, v := range values {
		rows = append(rows, &discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: id, Value: v},
		}})
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "interaction-" + customID,
		Type:      discordgo.InteractionModalSubmit,
		GuildID:   guildID,
		ChannelID: "channel-1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID, Username: "user" + userID}},
		Data: discordgo.ModalSubmitInteractionData{
			CustomID:   customID,
			Components: rows,
		},
	}}
}

// Option builds a slash command option
func Option(name string, typ discordgo.ApplicationCommandOptionType, value any) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: typ, Value: value}
}

// Responses returns every InteractionRespond payload recorded so far
func (m *MockDiscord) Responses() []*discordgo.InteractionResponse {
	var out []*discordgo.InteractionResponse
	for _, c := range m.Calls {
		if c.Method == "InteractionRespond" {
			out = append(out, c.Arguments.Get(1).(*discordgo.InteractionResponse))
		}
	}
	return out
}
