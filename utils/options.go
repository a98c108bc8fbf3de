package utils

import (
	"github.com/bwmarrin/discordgo"
)

// CommandOptions indexes the options of a slash command, flattening one
// level of subcommand or subcommand group
type CommandOptions struct {
	Subcommand string
	values     map[string]*discordgo.ApplicationCommandInteractionDataOption
	resolved   *discordgo.ApplicationCommandInteractionDataResolved
}

// Options parses the options of an application command interaction
func Options(i *discordgo.InteractionCreate) CommandOptions {
	data := i.ApplicationCommandData()
	opts := CommandOptions{
		values:   make(map[string]*discordgo.ApplicationCommandInteractionDataOption),
		resolved: data.Resolved,
	}
	list := data.Options
	for len(list) == 1 && (list[0].Type == discordgo.ApplicationCommandOptionSubCommand ||
		list[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		if opts.Subcommand == "" {
			opts.Subcommand = list[0].Name
		} else {
			opts.Subcommand += " " + list[0].Name
		}
		list = list[0].Options
	}
	for _, o := range list {
		opts.values[o.Name] = o
	}
	return opts
}

// Has reports whether the option was provided
func (o CommandOptions) Has(name string) bool {
	_, ok := o.values[name]
	return ok
}

// String returns a string option or def
func (o CommandOptions) String(name, def string) string {
	if v, ok := o.values[name]; ok {
		return v.StringValue()
	}
	return def
}

// Int returns an integer option or def
func (o CommandOptions) Int(name string, def int64) int64 {
	if v, ok := o.values[name]; ok {
		return v.IntValue()
	}
	return def
}

// ID returns the snowflake of a user, channel or role option
func (o CommandOptions) ID(name string) string {
	v, ok := o.values[name]
	if !ok {
		return ""
	}
	if s, ok := v.Value.(string); ok {
		return s
	}
	return ""
}

// User returns a user option, resolved when Discord sent the full object
func (o CommandOptions) User(name string) *discordgo.User {
	id := o.ID(name)
	if id == "" {
		return nil
	}
	if o.resolved != nil {
		if u, ok := o.resolved.Users[id]; ok {
			return u
		}
	}
	return &discordgo.User{ID: id}
}

// Channel returns a channel option, resolved when available
func (o CommandOptions) Channel(name string) *discordgo.Channel {
	id := o.ID(name)
	if id == "" {
		return nil
	}
	if o.resolved != nil {
		if c, ok := o.resolved.Channels[id]; ok {
			return c
		}
	}
	return &discordgo.Channel{ID: id}
}
