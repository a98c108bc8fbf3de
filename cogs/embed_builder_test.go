package cogs

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"harbor-go/utils"
	"harbor-go/utils/discordtest"
)

func useSessions(t *testing.T) {
	t.Helper()
	prev := utils.Sessions
	utils.Sessions = utils.NewSessionManager()
	t.Cleanup(func() { utils.Sessions = prev })
}

// startBuilder opens a builder for user 7 and returns its session
func startBuilder(t *testing.T, dg *discordtest.MockDiscord) *utils.Session {
	t.Helper()
	i := discordtest.SlashCommand("embed", "g", "7")
	i.Member.Permissions = discordgo.PermissionManageMessages
	require.NoError(t, HandleEmbedBuilderCommand(dg, i))
	session, ok := utils.Sessions.ForUser(utils.SessionBuilder, "7")
	require.True(t, ok)
	return session
}

func builderClick(action, sessionID, userID string) *discordgo.InteractionCreate {
	return discordtest.Component(utils.BuildCustomID("builder", action, sessionID), "g", userID)
}

func TestNormalizeColor(t *testing.T) {
	assert.Equal(t, "#5865F2", NormalizeColor("5865f2"))
	assert.Equal(t, "#5865F2", NormalizeColor(" #5865f2 "))
	assert.Equal(t, "", NormalizeColor("  "))
}

func TestDraftValidate(t *testing.T) {
	valid := &EmbedDraft{
		Title:    "Rules",
		Color:    "#5865F2",
		URL:      "https://example.com",
		ImageURL: "http://example.com/a.png",
		Fields:   []DraftField{{Name: "1", Value: "Be nice"}},
	}
	require.NoError(t, valid.Validate())

	tests := map[string]struct {
		draft *EmbedDraft
		msg   string
	}{
		"bad colour":    {&EmbedDraft{Color: "#XYZXYZ"}, "Colour"},
		"short colour":  {&EmbedDraft{Color: "#FFF"}, "Colour"},
		"bad url":       {&EmbedDraft{Title: "x", URL: "ftp://example.com"}, "URL"},
		"long title":    {&EmbedDraft{Title: strings.Repeat("a", 257)}, "Title"},
		"empty field":   {&EmbedDraft{Fields: []DraftField{{Name: "", Value: "v"}}}, "Name"},
		"too many":      {&EmbedDraft{Fields: make([]DraftField, 26)}, "25 fields"},
		"total too big": {&EmbedDraft{Description: strings.Repeat("a", 4096), Footer: strings.Repeat("b", 2048)}, "6000"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.draft.Validate()
			require.Error(t, err)
			assert.Contains(t, describeDraftError(err), tt.msg)
		})
	}
}

func TestDraftEmbed(t *testing.T) {
	d := &EmbedDraft{
		Title:     "Hello",
		Color:     "#FF0000",
		Author:    "Harbor",
		Footer:    "footer",
		Thumbnail: "https://example.com/t.png",
		Fields:    []DraftField{{Name: "a", Value: "b", Inline: true}},
	}
	e := d.Embed()
	assert.Equal(t, "Hello", e.Title)
	assert.Equal(t, 0xFF0000, e.Color)
	assert.Equal(t, "Harbor", e.Author.Name)
	assert.Equal(t, "footer", e.Footer.Text)
	assert.Equal(t, "https://example.com/t.png", e.Thumbnail.URL)
	assert.Nil(t, e.Image)
	require.Len(t, e.Fields, 1)
	assert.True(t, e.Fields[0].Inline)

	assert.True(t, (&EmbedDraft{ChannelID: "1"}).IsEmpty())
	assert.False(t, d.IsEmpty())
	assert.Equal(t, len("Hello")+len("Harbor")+len("footer")+2, d.Length())
}

func TestApplyModalLeavesDraftUntouched(t *testing.T) {
	d := &EmbedDraft{Title: "old", Fields: []DraftField{{Name: "a", Value: "b"}}}

	next := applyModal(d, "field", map[string]string{"field_name": " n ", "field_value": "v", "field_inline": "Yes"})
	require.Len(t, next.Fields, 2)
	assert.Equal(t, DraftField{Name: "n", Value: "v", Inline: true}, next.Fields[1])
	assert.Len(t, d.Fields, 1)

	next = applyModal(d, "color", map[string]string{"color": "00ff00"})
	assert.Equal(t, "#00FF00", next.Color)
	assert.Empty(t, d.Color)

	next = applyModal(d, "title", map[string]string{"title": "new", "description": "desc"})
	assert.Equal(t, "new", next.Title)
	assert.Equal(t, "old", d.Title)
}

func TestBuilderModalSections(t *testing.T) {
	for _, section := range []string{"title", "color", "author", "images", "field"} {
		title, rows := builderModal(section, &EmbedDraft{})
		assert.NotEmpty(t, title, section)
		assert.NotEmpty(t, rows, section)
		assert.LessOrEqual(t, len(rows), 5, section)
	}
	title, _ := builderModal("unknown", &EmbedDraft{})
	assert.Empty(t, title)
}

func TestBuilderSend(t *testing.T) {
	useMemoryStore(t)
	useSessions(t)
	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	dg.On("ChannelMessageSendComplex", "channel-1", mock.Anything).Return(&discordgo.Message{ID: "sent"}, nil)

	session := startBuilder(t, dg)
	opened := dg.Responses()[0]
	assert.Equal(t, discordgo.MessageFlagsEphemeral, opened.Data.Flags)
	for _, b := range utils.Buttons(opened.Data.Components) {
		if b.CustomID == "builder:send:"+session.ID {
			assert.True(t, b.Disabled, "nothing to send yet")
		}
	}

	require.NoError(t, HandleEmbedBuilderInteraction(dg, builderClick("send", session.ID, "7")))
	assert.Equal(t, discordgo.MessageFlagsEphemeral, dg.Responses()[1].Data.Flags)
	dg.AssertNotCalled(t, "ChannelMessageSendComplex", mock.Anything, mock.Anything)

	submit := discordtest.Modal("builder:submit:title:"+session.ID, "g", "7", map[string]string{
		"title": "Patch notes", "description": "v2 is out", "url": "",
	})
	require.NoError(t, HandleEmbedBuilderInteraction(dg, submit))
	preview := dg.Responses()[2]
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, preview.Type)
	assert.Equal(t, "Patch notes", preview.Data.Embeds[0].Title)

	require.NoError(t, HandleEmbedBuilderInteraction(dg, builderClick("send", session.ID, "7")))
	dg.AssertCalled(t, "ChannelMessageSendComplex", "channel-1", mock.MatchedBy(func(m *discordgo.MessageSend) bool {
		return len(m.Embeds) == 1 && m.Embeds[0].Title == "Patch notes" && m.Embeds[0].Description == "v2 is out"
	}))
	sent := dg.Responses()[3]
	assert.Equal(t, "✅ Embed Sent", sent.Data.Embeds[0].Title)
	assert.Empty(t, sent.Data.Components)
	assert.True(t, session.Ended())

	// the finished builder's buttons are dead
	require.NoError(t, HandleEmbedBuilderInteraction(dg, builderClick("send", session.ID, "7")))
	assert.Equal(t, discordgo.MessageFlagsEphemeral, dg.Responses()[4].Data.Flags)
	dg.AssertNumberOfCalls(t, "ChannelMessageSendComplex", 1)
}

func TestBuilderSendFailureKeepsSession(t *testing.T) {
	useMemoryStore(t)
	useSessions(t)
	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)
	dg.On("ChannelMessageSendComplex", "channel-1", mock.Anything).Return(nil, discordtest.NotFound())

	session := startBuilder(t, dg)
	session.Data = &EmbedDraft{ChannelID: "channel-1", Title: "hello"}

	require.NoError(t, HandleEmbedBuilderInteraction(dg, builderClick("send", session.ID, "7")))
	assert.Contains(t, dg.Responses()[1].Data.Content, "couldn't send to <#channel-1>")
	assert.False(t, session.Ended())
	_, ok := utils.Sessions.ForUser(utils.SessionBuilder, "7")
	assert.True(t, ok)
}

func TestBuilderCancel(t *testing.T) {
	useMemoryStore(t)
	useSessions(t)
	dg := &discordtest.MockDiscord{}
	dg.On("InteractionRespond", mock.Anything, mock.Anything).Return(nil)

	session := startBuilder(t, dg)

	require.NoError(t, HandleEmbedBuilderInteraction(dg, builderClick("cancel", session.ID, "8")))
	assert.Contains(t, dg.Responses()[1].Data.Content, utils.NotYourSession)
	assert.False(t, session.Ended())

	require.NoError(t, HandleEmbedBuilderInteraction(dg, builderClick("cancel", session.ID, "7")))
	cancelled := dg.Responses()[2]
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, cancelled.Type)
	assert.Equal(t, "Cancelled.", cancelled.Data.Embeds[0].Description)
	assert.Empty(t, cancelled.Data.Components)
	assert.True(t, session.Ended())
	_, ok := utils.Sessions.ForUser(utils.SessionBuilder, "7")
	assert.False(t, ok)
	dg.AssertNotCalled(t, "ChannelMessageSendComplex", mock.Anything, mock.Anything)
}
