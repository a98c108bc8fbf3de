package cogs

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"

	"harbor-go/models"
	"harbor-go/utils"
)

// ErrAlreadyVerified is returned when the member already holds the role
var ErrAlreadyVerified = errors.New("already verified")

// RegisterVerificationCommand config
func RegisterVerificationCommand() *discordgo.ApplicationCommand {
	perm := int64(discordgo.PermissionManageRoles)
	return &discordgo.ApplicationCommand{
		Name:                     "verify",
		Description:              "Member verification",
		DefaultMemberPermissions: &perm,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "setup",
				Description: "Configure verification and post the panel",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionRole, Name: "role", Description: "Role granted on verification", Required: true},
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Where the panel and !verify live (defaults to here)", ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText}},
					{Type: discordgo.ApplicationCommandOptionRole, Name: "unverified_role", Description: "Role given on join and removed on verification"},
				},
			},
		},
	}
}

// HandleVerificationCommand handles /verify setup
func HandleVerificationCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return utils.RespondError(s, i, "Verification only works in servers.")
	}
	if err := utils.RequirePermission(i, discordgo.PermissionManageRoles); err != nil {
		return utils.RespondError(s, i, "You need the **Manage Roles** permission to set up verification.")
	}
	opts := utils.Options(i)
	channelID := opts.ID("channel")
	if channelID == "" {
		channelID = i.ChannelID
	}

	err := utils.Settings.Update(context.Background(), i.GuildID, func(g *models.GuildSettings) error {
		g.VerifiedRoleID = opts.ID("role")
		g.VerificationChannelID = channelID
		if id := opts.ID("unverified_role"); id != "" {
			g.UnverifiedRoleID = id
		}
		return nil
	})
	if err != nil && !errors.Is(err, utils.ErrStoreUnavailable) {
		return utils.ReplyErr(s, i, err)
	}

	panel := utils.CreateBrandedEmbed("✅ Verification",
		"Press **Verify** below, or type `"+utils.VerifyTextCommand+"` in this channel, to get access to the server.", utils.ColorSuccess)
	if _, sendErr := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{panel},
		Components: []discordgo.MessageComponent{utils.CreateActionRow(
			utils.CreateButton(utils.BuildCustomID("verify", "grant"), "Verify", discordgo.SuccessButton, false, &discordgo.ComponentEmoji{Name: "✅"}),
		)},
	}); sendErr != nil {
		slog.Warn("failed to post verification panel", "channel_id", channelID, tint.Err(sendErr))
		return utils.RespondError(s, i, "Settings saved, but I couldn't post the panel in that channel.")
	}

	msg := "Verification is set up."
	if err != nil {
		msg += " The database is unavailable, so settings are kept in memory until restart."
	}
	return utils.RespondSuccess(s, i, msg)
}

// Verify grants the verified role and removes the unverified one
func Verify(ctx context.Context, s utils.Discord, guildID string, member *discordgo.Member) error {
	settings := utils.Settings.Resolve(ctx, guildID)
	if settings.VerifiedRoleID == "" {
		return utils.ErrNotConfigured
	}
	if member == nil || member.User == nil {
		return utils.ErrNotFound
	}
	if utils.HasRole(member, settings.VerifiedRoleID) {
		return ErrAlreadyVerified
	}
	if err := s.GuildMemberRoleAdd(guildID, member.User.ID, settings.VerifiedRoleID, discordgo.WithContext(ctx)); err != nil {
		return err
	}
	if settings.UnverifiedRoleID != "" && utils.HasRole(member, settings.UnverifiedRoleID) {
		if err := s.GuildMemberRoleRemove(guildID, member.User.ID, settings.UnverifiedRoleID, discordgo.WithContext(ctx)); err != nil {
			slog.Warn("failed to remove unverified role", "guild_id", guildID, "user_id", member.User.ID, tint.Err(err))
		}
	}
	slog.Info("member verified", "guild_id", guildID, "user_id", member.User.ID)
	return nil
}

// HandleVerificationInteraction handles the Verify button
func HandleVerificationInteraction(s utils.Discord, i *discordgo.InteractionCreate) error {
	err := Verify(context.Background(), s, i.GuildID, i.Member)
	switch {
	case err == nil:
		return utils.RespondSuccess(s, i, "You're verified. Welcome!")
	case errors.Is(err, ErrAlreadyVerified):
		return utils.RespondContent(s, i, "ℹ️ You're already verified.", true)
	case errors.Is(err, utils.ErrNotConfigured):
		return utils.ReplyErr(s, i, err)
	}
	slog.Error("verification failed", "guild_id", i.GuildID, "user_id", utils.InteractionUserID(i), tint.Err(err))
	return utils.RespondError(s, i, "I couldn't give you the role. Please ask a moderator.")
}

// IsVerifyMessage reports whether content is the text verification command
func IsVerifyMessage(content string) bool {
	return strings.EqualFold(strings.TrimSpace(content), utils.VerifyTextCommand)
}

// HandleVerifyMessage handles "!verify" typed in the verification channel.
// The message is deleted either way so the channel stays clean.
func HandleVerifyMessage(s utils.Discord, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" || !IsVerifyMessage(m.Content) {
		return
	}
	ctx := context.Background()
	if utils.Settings.Get(ctx, m.GuildID, models.SettingVerificationChannel) != m.ChannelID {
		return
	}

	member := m.Member
	if member == nil {
		member = &discordgo.Member{}
	} else {
		c := *member
		member = &c
	}
	member.User = m.Author

	if err := Verify(ctx, s, m.GuildID, member); err != nil && !errors.Is(err, ErrAlreadyVerified) {
		slog.Warn("text verification failed", "guild_id", m.GuildID, "user_id", m.Author.ID, tint.Err(err))
	}
	if err := s.ChannelMessageDelete(m.ChannelID, m.ID); err != nil {
		slog.Debug("failed to delete verify message", "channel_id", m.ChannelID, tint.Err(err))
	}
}

// HandleMemberJoin assigns the unverified role to new members
func HandleMemberJoin(s utils.Discord, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil || m.User.Bot {
		return
	}
	roleID := utils.Settings.Get(context.Background(), m.GuildID, models.SettingUnverifiedRole)
	if roleID == "" {
		return
	}
	if err := s.GuildMemberRoleAdd(m.GuildID, m.User.ID, roleID); err != nil {
		slog.Warn("failed to assign unverified role", "guild_id", m.GuildID, "user_id", m.User.ID, tint.Err(err))
	}
}
