package cogs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"harbor-go/models"
	"harbor-go/utils"
)

// RegisterConfigCommand config
func RegisterConfigCommand() *discordgo.ApplicationCommand {
	perm := int64(discordgo.PermissionManageGuild)
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(models.SettingKeys))
	for _, k := range models.SettingKeys {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: string(k), Value: string(k)})
	}
	return &discordgo.ApplicationCommand{
		Name:                     "config",
		Description:              "View or change server settings",
		DefaultMemberPermissions: &perm,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "view", Description: "Show the effective settings"},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "set",
				Description: "Bind a setting to a channel or role ID",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "key", Description: "Setting", Required: true, Choices: choices},
					{Type: discordgo.ApplicationCommandOptionString, Name: "value", Description: "Channel/role ID or mention, or \"none\" to clear", Required: true},
				},
			},
		},
	}
}

// ParseSnowflake accepts a raw ID or a channel/role/user mention. "none"
// clears the value.
func ParseSnowflake(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "none") {
		return "", true
	}
	for _, prefix := range []string{"<#", "<@&", "<@!", "<@"} {
		if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ">") {
			s = s[len(prefix) : len(s)-1]
			break
		}
	}
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

// HandleConfigCommand handles /config view|set
func HandleConfigCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	if i.GuildID == "" {
		return utils.RespondError(s, i, "Settings only apply to servers.")
	}
	if err := utils.RequirePermission(i, discordgo.PermissionManageGuild); err != nil {
		return utils.RespondError(s, i, "You need the **Manage Server** permission to change settings.")
	}
	ctx := context.Background()
	opts := utils.Options(i)

	if opts.Subcommand == "set" {
		key, ok := utils.ParseSettingKey(opts.String("key", ""))
		if !ok {
			return utils.RespondError(s, i, "Unknown setting.")
		}
		value, ok := ParseSnowflake(opts.String("value", ""))
		if !ok {
			return utils.RespondError(s, i, "That isn't a valid channel or role.")
		}
		err := utils.Settings.Set(ctx, i.GuildID, key, value)
		if err != nil && !errors.Is(err, utils.ErrStoreUnavailable) {
			return utils.ReplyErr(s, i, err)
		}
		msg := fmt.Sprintf("`%s` set to %s.", key, formatSetting(key, value))
		if err != nil {
			msg += " The database is unavailable, so this is kept in memory until restart."
		}
		return utils.RespondSuccess(s, i, msg)
	}

	settings := utils.Settings.Resolve(ctx, i.GuildID)
	var b strings.Builder
	for _, k := range models.SettingKeys {
		fmt.Fprintf(&b, "`%s` %s\n", k, formatSetting(k, settings.Get(k)))
	}
	embed := utils.CreateBrandedEmbed("⚙️ Server Settings", b.String(), utils.BotColor)
	embed.Footer.Text = fmt.Sprintf("Unset values fall back to %s_<KEY>_ID environment variables", utils.EnvPrefix)
	return utils.SendInteractionResponse(s, i, embed, nil, true)
}

func formatSetting(key models.SettingKey, value string) string {
	if value == "" {
		return "*not set*"
	}
	if strings.HasSuffix(string(key), "_role") {
		return "<@&" + value + ">"
	}
	return "<#" + value + ">"
}
