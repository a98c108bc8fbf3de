package cogs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"

	"harbor-go/models"
	"harbor-go/utils"
)

const (
	suggestionPendingColor = 0x95A5A6
	authorFieldName        = "Author"
)

// RegisterSuggestionCommand config
func RegisterSuggestionCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "suggest",
		Description: "Submit a suggestion for the server",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "text", Description: "Your suggestion", Required: true, MaxLength: utils.MaxSuggestionLength},
		},
	}
}

// HandleSuggestionCommand handles /suggest
func HandleSuggestionCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return utils.RespondError(s, i, "Suggestions only work in servers.")
	}
	ctx := context.Background()
	text := strings.TrimSpace(utils.Options(i).String("text", ""))
	if text == "" {
		return utils.RespondError(s, i, "Your suggestion is empty.")
	}
	if len([]rune(text)) > utils.MaxSuggestionLength {
		return utils.RespondError(s, i, fmt.Sprintf("Suggestions can be at most %d characters.", utils.MaxSuggestionLength))
	}

	channelID, err := utils.Settings.Require(ctx, i.GuildID, models.SettingSuggestionChannel)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	sg := &models.Suggestion{
		GuildID:    i.GuildID,
		Number:     utils.NextNumber(ctx, i.GuildID, "suggestion"),
		AuthorID:   utils.InteractionUserID(i),
		ChannelID:  channelID,
		Content:    text,
		Upvoters:   []string{},
		Downvoters: []string{},
		Status:     models.SuggestionPending,
		CreatedAt:  time.Now().UTC(),
	}

	msg, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{SuggestionEmbed(sg)},
		Components: SuggestionComponents(sg),
	})
	if err != nil {
		slog.Warn("failed to post suggestion", "guild_id", i.GuildID, "channel_id", channelID, tint.Err(err))
		return utils.RespondError(s, i, "I couldn't post in the suggestion channel.")
	}
	sg.MessageID = msg.ID

	if err := utils.DB.CreateSuggestion(ctx, sg); err != nil {
		slog.Error("failed to persist suggestion, votes will live on the message", "guild_id", i.GuildID, "number", sg.Number, tint.Err(err))
	}
	return utils.RespondSuccess(s, i, fmt.Sprintf("Suggestion **#%d** posted in <#%s>.", sg.Number, channelID))
}

// SuggestionEmbed renders a suggestion and its tally
func SuggestionEmbed(sg *models.Suggestion) *discordgo.MessageEmbed {
	color := suggestionPendingColor
	status := "⏳ Pending"
	switch sg.Status {
	case models.SuggestionAccepted:
		color, status = utils.ColorSuccess, "✅ Accepted"
	case models.SuggestionDenied:
		color, status = utils.ColorError, "❌ Denied"
	}

	embed := utils.CreateBrandedEmbed(fmt.Sprintf("💡 Suggestion #%d", sg.Number), sg.Content, color)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: authorFieldName, Value: "<@" + sg.AuthorID + ">", Inline: true},
		{Name: "Status", Value: status, Inline: true},
		{Name: "Score", Value: fmt.Sprintf("%+d", sg.Score()), Inline: true},
	}
	if !sg.IsPending() {
		reason := sg.Reason
		if reason == "" {
			reason = "No reason given."
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Reason from %s", mentionOr(sg.ReviewerID, "staff")),
			Value: utils.Truncate(reason, utils.MaxEmbedFieldValue),
		})
	}
	if !sg.CreatedAt.IsZero() {
		embed.Timestamp = sg.CreatedAt.Format(time.RFC3339)
	}
	return embed
}

func mentionOr(id, fallback string) string {
	if id == "" {
		return fallback
	}
	return "<@" + id + ">"
}

// SuggestionComponents builds the vote and review buttons. Voter lists ride
// in the vote buttons' custom IDs.
func SuggestionComponents(sg *models.Suggestion) []discordgo.MessageComponent {
	decided := !sg.IsPending()
	number := strconv.Itoa(sg.Number)
	rows := []discordgo.MessageComponent{
		utils.CreateActionRow(
			utils.CreateButton(utils.SuggestionVoteID(string(models.VoteUp), sg.Number, sg.Upvoters),
				strconv.Itoa(len(sg.Upvoters)), discordgo.SuccessButton, decided, &discordgo.ComponentEmoji{Name: "👍"}),
			utils.CreateButton(utils.SuggestionVoteID(string(models.VoteDown), sg.Number, sg.Downvoters),
				strconv.Itoa(len(sg.Downvoters)), discordgo.DangerButton, decided, &discordgo.ComponentEmoji{Name: "👎"}),
		),
		utils.CreateActionRow(
			utils.CreateButton(utils.BuildCustomID("suggest", "accept", number), "Accept", discordgo.SecondaryButton, decided, &discordgo.ComponentEmoji{Name: "✅"}),
			utils.CreateButton(utils.BuildCustomID("suggest", "deny", number), "Deny", discordgo.SecondaryButton, decided, &discordgo.ComponentEmoji{Name: "❌"}),
		),
	}
	return rows
}

// HandleSuggestionInteraction routes suggest: buttons and modals
func HandleSuggestionInteraction(s utils.Discord, i *discordgo.InteractionCreate) error {
	if i.Type == discordgo.InteractionModalSubmit {
		return handleSuggestionDecision(s, i)
	}
	customID := i.MessageComponentData().CustomID
	_, action, args := utils.ParseCustomID(customID)
	switch action {
	case string(models.VoteUp), string(models.VoteDown):
		return HandleSuggestionVote(s, i)
	case "accept", "deny":
		if len(args) == 0 {
			return nil
		}
		staffRole := utils.Settings.Get(context.Background(), i.GuildID, models.SettingTicketStaffRole)
		if !utils.IsStaff(i, staffRole) {
			return utils.ReplyErr(s, i, utils.ErrForbidden)
		}
		title := "Accept Suggestion #" + args[0]
		if action == "deny" {
			title = "Deny Suggestion #" + args[0]
		}
		return utils.OpenModal(s, i, utils.BuildCustomID("suggest", "decide", action, args[0]), title,
			utils.TextInputRow("reason", "Reason", discordgo.TextInputParagraph, "", "Optional", false, utils.MaxEmbedFieldValue))
	}
	return nil
}

var errSuggestionDecided = errors.New("suggestion already decided")

// detachedSuggestions holds suggestions the store can't take, keyed by
// message ID: the store lost them or reused their number for a newer
// message. Their state lives here and on the message.
var detachedSuggestions = struct {
	sync.Mutex
	byMessage map[string]*models.Suggestion
}{byMessage: make(map[string]*models.Suggestion)}

// mutateSuggestion applies fn to the suggestion posted as msg. The store
// copy is used when it belongs to msg, otherwise the suggestion is rebuilt
// from the message and written back when its number is free.
func mutateSuggestion(ctx context.Context, guildID string, number int, msg *discordgo.Message, fn func(*models.Suggestion) error) (*models.Suggestion, error) {
	var messageID string
	if msg != nil {
		messageID = msg.ID
	}
	sg, err := utils.DB.MutateSuggestion(ctx, guildID, number, messageID, fn)
	if err == nil || errors.Is(err, errSuggestionDecided) {
		return sg, err
	}
	if !errors.Is(err, utils.ErrNotFound) {
		slog.Warn("suggestion update failed, using message state", "guild_id", guildID, "number", number, tint.Err(err))
	}

	detachedSuggestions.Lock()
	defer detachedSuggestions.Unlock()
	if cur, ok := detachedSuggestions.byMessage[messageID]; ok && messageID != "" {
		next := cur.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}
		detachedSuggestions.byMessage[messageID] = next
		return next.Clone(), nil
	}
	// another click may have restored it while we waited
	if sg, err := utils.DB.MutateSuggestion(ctx, guildID, number, messageID, fn); err == nil || errors.Is(err, errSuggestionDecided) {
		return sg, err
	}

	sg, err = SuggestionFromMessage(guildID, number, msg)
	if err != nil {
		return nil, err
	}
	if err := fn(sg); err != nil {
		return nil, err
	}
	if err := utils.DB.CreateSuggestion(ctx, sg); err != nil {
		if !errors.Is(err, utils.ErrAlreadyExists) {
			slog.Warn("failed to persist suggestion", "guild_id", guildID, "number", number, tint.Err(err))
		}
		detachedSuggestions.byMessage[messageID] = sg.Clone()
	}
	return sg, nil
}

func handleSuggestionDecision(s utils.Discord, i *discordgo.InteractionCreate) error {
	ctx := context.Background()
	data := i.ModalSubmitData()
	_, _, args := utils.ParseCustomID(data.CustomID)
	if len(args) < 2 {
		return nil
	}
	decision := args[0]
	number, err := strconv.Atoi(args[1])
	if err != nil {
		return utils.ReplyErr(s, i, utils.ErrNotFound)
	}
	settings := utils.Settings.Resolve(ctx, i.GuildID)
	if !utils.IsStaff(i, settings.TicketStaffRoleID) {
		return utils.ReplyErr(s, i, utils.ErrForbidden)
	}

	reviewerID := utils.InteractionUserID(i)
	reason := strings.TrimSpace(utils.ModalValues(data)["reason"])
	sg, err := mutateSuggestion(ctx, i.GuildID, number, i.Message, func(sg *models.Suggestion) error {
		if !sg.IsPending() {
			return errSuggestionDecided
		}
		now := time.Now().UTC()
		sg.Status = models.SuggestionAccepted
		if decision == "deny" {
			sg.Status = models.SuggestionDenied
		}
		sg.ReviewerID = reviewerID
		sg.Reason = reason
		sg.DecidedAt = &now
		return nil
	})
	if errors.Is(err, errSuggestionDecided) {
		return utils.RespondError(s, i, "This suggestion has already been decided.")
	}
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	if err := utils.UpdateComponentInteraction(s, i, SuggestionEmbed(sg), SuggestionComponents(sg)); err != nil {
		return err
	}

	resultChannel := settings.SuggestionResultChannelID
	if resultChannel == "" {
		resultChannel = settings.SuggestionChannelID
	}
	result := SuggestionEmbed(sg)
	if sg.MessageID != "" && sg.ChannelID != "" {
		result.URL = fmt.Sprintf("https://discord.com/channels/%s/%s/%s", sg.GuildID, sg.ChannelID, sg.MessageID)
	}
	if resultChannel != "" {
		if _, err := s.ChannelMessageSendComplex(resultChannel, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{result}}); err != nil {
			slog.Warn("failed to post suggestion result", "channel_id", resultChannel, tint.Err(err))
		}
	}
	if sg.AuthorID != "" {
		if err := utils.SendDM(s, sg.AuthorID, result); err != nil {
			slog.Debug("could not DM suggestion author", "user_id", sg.AuthorID, tint.Err(err))
		}
	}
	slog.Info("suggestion decided", "guild_id", sg.GuildID, "number", sg.Number, "status", sg.Status, "reviewer", sg.ReviewerID)
	return nil
}
