package cogs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"

	"harbor-go/models"
	"harbor-go/utils"
)

const (
	ticketMemberAllow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory | discordgo.PermissionAttachFiles
	ticketBotAllow = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory | discordgo.PermissionManageChannels | discordgo.PermissionEmbedLinks
)

// ticketDeleteDelay is how long a closed ticket channel lingers
var ticketDeleteDelay = utils.TicketDeleteDelay

// RegisterTicketCommands config
func RegisterTicketCommands() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ticket",
		Description: "Support tickets",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "setup",
				Description: "Configure tickets and post the panel here",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "category", Description: "Category new tickets go in", ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory}},
					{Type: discordgo.ApplicationCommandOptionRole, Name: "staff_role", Description: "Role that can see and manage tickets"},
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "log_channel", Description: "Where transcripts are posted", ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText}},
				},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "close", Description: "Close this ticket"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "claim", Description: "Claim this ticket"},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Add someone to this ticket",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to add", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove someone from this ticket",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "User to remove", Required: true},
				},
			},
		},
	}
}

// HandleTicketCommand handles /ticket
func HandleTicketCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return utils.RespondError(s, i, "Tickets only work in servers.")
	}
	opts := utils.Options(i)
	switch opts.Subcommand {
	case "setup":
		return ticketSetup(s, i, opts)
	case "close":
		return ticketClose(s, i, false)
	case "claim":
		return ticketClaim(s, i, false)
	case "add", "remove":
		return ticketMembership(s, i, opts)
	}
	return nil
}

func ticketSetup(s utils.Discord, i *discordgo.InteractionCreate, opts utils.CommandOptions) error {
	if err := utils.RequirePermission(i, discordgo.PermissionManageGuild); err != nil {
		return utils.RespondError(s, i, "You need the **Manage Server** permission to set up tickets.")
	}
	ctx := context.Background()
	err := utils.Settings.Update(ctx, i.GuildID, func(g *models.GuildSettings) error {
		if id := opts.ID("category"); id != "" {
			g.TicketCategoryID = id
		}
		if id := opts.ID("staff_role"); id != "" {
			g.TicketStaffRoleID = id
		}
		if id := opts.ID("log_channel"); id != "" {
			g.TicketLogChannelID = id
		}
		return nil
	})
	if err != nil && !errors.Is(err, utils.ErrStoreUnavailable) {
		return utils.ReplyErr(s, i, err)
	}

	panel := utils.CreateBrandedEmbed("🎫 Support Tickets",
		"Need help? Press the button below to open a private ticket with the staff team.", utils.BotColor)
	if _, sendErr := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{panel},
		Components: []discordgo.MessageComponent{utils.CreateActionRow(
			utils.CreateButton(utils.BuildCustomID("ticket", "open"), "Open Ticket", discordgo.PrimaryButton, false, &discordgo.ComponentEmoji{Name: "🎫"}),
		)},
	}); sendErr != nil {
		slog.Warn("failed to post ticket panel", "channel_id", i.ChannelID, tint.Err(sendErr))
		return utils.RespondError(s, i, "Settings saved, but I couldn't post the panel in this channel.")
	}

	msg := "Ticket settings saved and the panel is posted."
	if err != nil {
		msg += " The database is unavailable, so settings are kept in memory until restart."
	}
	return utils.RespondSuccess(s, i, msg)
}

// HandleTicketInteraction handles ticket panel buttons, in-ticket controls
// and the reason modal
func HandleTicketInteraction(s utils.Discord, i *discordgo.InteractionCreate) error {
	if i.Type == discordgo.InteractionModalSubmit {
		return ticketCreate(s, i)
	}
	_, action, _ := utils.ParseCustomID(i.MessageComponentData().CustomID)
	switch action {
	case "open":
		return utils.OpenModal(s, i, utils.BuildCustomID("ticket", "create"), "Open a Ticket",
			utils.TextInputRow("reason", "What do you need help with?", discordgo.TextInputParagraph, "", "", true, utils.MaxTicketReason))
	case "close":
		return ticketClose(s, i, true)
	case "confirm_close":
		return ticketClose(s, i, false)
	case "cancel_close":
		return utils.UpdateComponentInteraction(s, i,
			utils.CreateBrandedEmbed("🎫 Close Cancelled", "The ticket stays open.", utils.ColorInfo), []discordgo.MessageComponent{})
	case "claim":
		return ticketClaim(s, i, true)
	}
	return nil
}

// TicketOverwrites builds the permission overwrites of a new ticket channel
func TicketOverwrites(guildID, ownerID, staffRoleID, botID string) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		{ID: guildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: ownerID, Type: discordgo.PermissionOverwriteTypeMember, Allow: ticketMemberAllow},
	}
	if staffRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{ID: staffRoleID, Type: discordgo.PermissionOverwriteTypeRole, Allow: ticketMemberAllow})
	}
	if botID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{ID: botID, Type: discordgo.PermissionOverwriteTypeMember, Allow: ticketBotAllow})
	}
	return overwrites
}

// TicketChannelName formats the channel name for a ticket number
func TicketChannelName(number int) string {
	return fmt.Sprintf("%s%04d", utils.TicketChannelPrefix, number)
}

func ticketCreate(s utils.Discord, i *discordgo.InteractionCreate) error {
	ctx := context.Background()
	ownerID := utils.InteractionUserID(i)
	reason := utils.Truncate(strings.TrimSpace(utils.ModalValues(i.ModalSubmitData())["reason"]), utils.MaxTicketReason)

	if existing, err := utils.Tickets.OpenByOwner(ctx, i.GuildID, ownerID); err == nil && existing != nil {
		return utils.RespondError(s, i, fmt.Sprintf("You already have an open ticket: <#%s>", existing.ChannelID))
	}
	settings := utils.Settings.Resolve(ctx, i.GuildID)

	if err := utils.DeferInteractionResponse(s, i, true); err != nil {
		return err
	}

	number := utils.NextNumber(ctx, i.GuildID, "ticket")

	channel, err := s.GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:                 TicketChannelName(number),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                utils.Truncate(fmt.Sprintf("Ticket for <@%s>: %s", ownerID, reason), 1024),
		ParentID:             settings.TicketCategoryID,
		PermissionOverwrites: TicketOverwrites(i.GuildID, ownerID, settings.TicketStaffRoleID, i.AppID),
	})
	if err != nil {
		slog.Error("failed to create ticket channel", "guild_id", i.GuildID, "user_id", ownerID, tint.Err(err))
		return utils.TryEphemeralFollowup(s, i, "❌ I couldn't create your ticket channel. Ask an admin to check my permissions.")
	}

	ticket := &models.Ticket{
		ChannelID: channel.ID,
		GuildID:   i.GuildID,
		OwnerID:   ownerID,
		Number:    number,
		Reason:    reason,
	}
	if err := utils.Tickets.Open(ctx, ticket); err != nil {
		if _, delErr := s.ChannelDelete(channel.ID); delErr != nil {
			slog.Warn("failed to remove duplicate ticket channel", "channel_id", channel.ID, tint.Err(delErr))
		}
		return utils.FollowupErr(s, i, err)
	}

	welcome := utils.CreateBrandedEmbed(fmt.Sprintf("🎫 Ticket #%04d", number),
		fmt.Sprintf("Hi <@%s>, staff will be with you shortly.\n\n**Reason:** %s", ownerID, reason), utils.BotColor)
	content := "<@" + ownerID + ">"
	if settings.TicketStaffRoleID != "" {
		content += " <@&" + settings.TicketStaffRoleID + ">"
	}
	if _, err := s.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Content:    content,
		Embeds:     []*discordgo.MessageEmbed{welcome},
		Components: ticketControls(false),
	}); err != nil {
		slog.Warn("failed to post ticket welcome", "channel_id", channel.ID, tint.Err(err))
	}

	slog.Info("ticket opened", "guild_id", i.GuildID, "channel_id", channel.ID, "user_id", ownerID, "number", number)
	return utils.TryEphemeralFollowup(s, i, fmt.Sprintf("✅ Your ticket is open: <#%s>", channel.ID))
}

func ticketControls(claimed bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{utils.CreateActionRow(
		utils.CreateButton(utils.BuildCustomID("ticket", "close"), "Close", discordgo.DangerButton, false, &discordgo.ComponentEmoji{Name: "🔒"}),
		utils.CreateButton(utils.BuildCustomID("ticket", "claim"), "Claim", discordgo.SecondaryButton, claimed, &discordgo.ComponentEmoji{Name: "🙋"}),
	)}
}

// currentTicket loads the open ticket for the interaction's channel
func currentTicket(ctx context.Context, i *discordgo.InteractionCreate) (*models.Ticket, *models.GuildSettings, error) {
	ticket, err := utils.Tickets.Get(ctx, i.ChannelID)
	if err != nil || !ticket.IsOpen() {
		return nil, nil, utils.ErrNotFound
	}
	return ticket, utils.Settings.Resolve(ctx, i.GuildID), nil
}

func ticketClose(s utils.Discord, i *discordgo.InteractionCreate, confirm bool) error {
	ctx := context.Background()
	ticket, settings, err := currentTicket(ctx, i)
	if err != nil {
		return utils.RespondError(s, i, "This isn't an open ticket channel.")
	}
	userID := utils.InteractionUserID(i)
	if userID != ticket.OwnerID && !utils.IsStaff(i, settings.TicketStaffRoleID) {
		return utils.ReplyErr(s, i, utils.ErrForbidden)
	}

	if confirm {
		return utils.SendInteractionResponse(s, i,
			utils.CreateBrandedEmbed("🔒 Close Ticket?", "A transcript will be saved and this channel deleted.", utils.ColorWarning),
			utils.ConfirmationView(utils.BuildCustomID("ticket", "confirm_close"), utils.BuildCustomID("ticket", "cancel_close")),
			true)
	}

	closed, err := utils.Tickets.Close(ctx, ticket.ChannelID, userID)
	if errors.Is(err, utils.ErrNotFound) {
		return utils.RespondError(s, i, "This ticket is already being closed.")
	}
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	closing := utils.CreateBrandedEmbed("🔒 Closing Ticket",
		fmt.Sprintf("Saving the transcript. This channel will be deleted in %s.", utils.FormatDuration(ticketDeleteDelay)), utils.ColorWarning)
	if i.Type == discordgo.InteractionMessageComponent {
		err = utils.UpdateComponentInteraction(s, i, closing, []discordgo.MessageComponent{})
	} else {
		err = utils.SendInteractionResponse(s, i, closing, nil, false)
	}
	if err != nil {
		slog.Warn("failed to acknowledge ticket close", "channel_id", ticket.ChannelID, tint.Err(err))
	}

	return FinishTicketClose(ctx, s, closed, settings)
}

// FinishTicketClose runs after a ticket has been marked closed: it saves the
// transcript, posts it to the log channel, notifies the opener and schedules
// the channel deletion
func FinishTicketClose(ctx context.Context, s utils.Discord, closed *models.Ticket, settings *models.GuildSettings) error {
	closedBy := closed.ClosedBy
	transcript, err := BuildTranscript(ctx, s, closed)
	if err != nil {
		slog.Error("transcript incomplete", "channel_id", closed.ChannelID, tint.Err(err))
	}

	transcriptID := ""
	if transcript != nil {
		transcriptID = transcript.ID
		closed.TranscriptID = transcriptID
		if err := utils.Tickets.Update(ctx, closed); err != nil {
			slog.Warn("failed to attach transcript to ticket", "channel_id", closed.ChannelID, tint.Err(err))
		}
	}

	summary := utils.CreateBrandedEmbed(fmt.Sprintf("🎫 Ticket #%04d Closed", closed.Number), "", utils.ColorInfo)
	summary.Fields = []*discordgo.MessageEmbedField{
		{Name: "Opened By", Value: "<@" + closed.OwnerID + ">", Inline: true},
		{Name: "Closed By", Value: "<@" + closedBy + ">", Inline: true},
	}
	if closed.ClaimedBy != "" {
		summary.Fields = append(summary.Fields, &discordgo.MessageEmbedField{Name: "Claimed By", Value: "<@" + closed.ClaimedBy + ">", Inline: true})
	}
	if closed.Reason != "" {
		summary.Fields = append(summary.Fields, &discordgo.MessageEmbedField{Name: "Reason", Value: utils.Truncate(closed.Reason, utils.MaxEmbedFieldValue)})
	}
	if transcriptID != "" {
		summary.Footer.Text = "Transcript " + transcriptID
	}

	if settings.TicketLogChannelID != "" {
		send := &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{summary}}
		if transcript != nil {
			send.Files = []*discordgo.File{TranscriptFile(closed, transcript)}
		}
		if _, err := s.ChannelMessageSendComplex(settings.TicketLogChannelID, send); err != nil {
			slog.Warn("failed to post ticket transcript", "channel_id", settings.TicketLogChannelID, tint.Err(err))
		}
	}
	if err := utils.SendDM(s, closed.OwnerID, summary); err != nil {
		slog.Debug("could not DM ticket owner", "user_id", closed.OwnerID, tint.Err(err))
	}

	channelID := closed.ChannelID
	time.AfterFunc(ticketDeleteDelay, func() {
		if _, err := s.ChannelDelete(channelID); err != nil && !utils.IsUnknownResource(err) {
			slog.Warn("failed to delete ticket channel", "channel_id", channelID, tint.Err(err))
		}
	})
	slog.Info("ticket closed", "guild_id", closed.GuildID, "channel_id", channelID, "closed_by", closedBy)
	return nil
}

func ticketClaim(s utils.Discord, i *discordgo.InteractionCreate, fromButton bool) error {
	ctx := context.Background()
	ticket, settings, err := currentTicket(ctx, i)
	if err != nil {
		return utils.RespondError(s, i, "This isn't an open ticket channel.")
	}
	if !utils.IsStaff(i, settings.TicketStaffRoleID) {
		return utils.ReplyErr(s, i, utils.ErrForbidden)
	}
	ticket, err = utils.Tickets.Claim(ctx, ticket.ChannelID, utils.InteractionUserID(i))
	if errors.Is(err, utils.ErrAlreadyExists) {
		return utils.RespondError(s, i, fmt.Sprintf("This ticket is already claimed by <@%s>.", ticket.ClaimedBy))
	}
	if err != nil {
		return utils.RespondError(s, i, "This isn't an open ticket channel.")
	}

	notice := utils.CreateBrandedEmbed("🙋 Ticket Claimed", fmt.Sprintf("<@%s> is handling this ticket.", ticket.ClaimedBy), utils.ColorSuccess)
	if fromButton && i.Message != nil {
		embeds := i.Message.Embeds
		if len(embeds) == 0 {
			embeds = []*discordgo.MessageEmbed{notice}
		}
		if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{Embeds: embeds, Components: ticketControls(true)},
		}); err != nil {
			return err
		}
		_, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{notice}})
		return err
	}
	return utils.SendInteractionResponse(s, i, notice, nil, false)
}

func ticketMembership(s utils.Discord, i *discordgo.InteractionCreate, opts utils.CommandOptions) error {
	ctx := context.Background()
	_, settings, err := currentTicket(ctx, i)
	if err != nil {
		return utils.RespondError(s, i, "This isn't an open ticket channel.")
	}
	if !utils.IsStaff(i, settings.TicketStaffRoleID) {
		return utils.ReplyErr(s, i, utils.ErrForbidden)
	}
	target := opts.User("user")
	if target == nil {
		return utils.ReplyErr(s, i, utils.ErrNotFound)
	}

	if opts.Subcommand == "add" {
		err = s.ChannelPermissionSet(i.ChannelID, target.ID, discordgo.PermissionOverwriteTypeMember, ticketMemberAllow, 0)
	} else {
		err = s.ChannelPermissionDelete(i.ChannelID, target.ID)
	}
	if err != nil {
		slog.Warn("failed to change ticket membership", "channel_id", i.ChannelID, "target", target.ID, tint.Err(err))
		return utils.RespondError(s, i, "I couldn't update this channel's permissions.")
	}

	verb := "added to"
	if opts.Subcommand == "remove" {
		verb = "removed from"
	}
	return utils.SendInteractionResponse(s, i,
		utils.CreateBrandedEmbed("🎫 Ticket Updated", fmt.Sprintf("<@%s> was %s this ticket.", target.ID, verb), utils.ColorInfo), nil, false)
}
