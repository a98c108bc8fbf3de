package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

var discordgoLogLevels = map[int]slog.Level{
	discordgo.LogError:         slog.LevelError,
	discordgo.LogWarning:       slog.LevelWarn,
	discordgo.LogInformational: slog.LevelInfo,
	discordgo.LogDebug:         slog.LevelDebug,
}

// NewLogger builds the process logger and installs it as the slog default
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		AddSource:  level <= slog.LevelDebug,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// DiscordgoLogger adapts discordgo's package logger to slog
func DiscordgoLogger(ctx context.Context, logger *slog.Logger) func(msgL, caller int, format string, a ...interface{}) {
	log := logger.With("logger", "discordgo")
	return func(msgL int, _ int, format string, a ...interface{}) {
		level, ok := discordgoLogLevels[msgL]
		if !ok {
			level = slog.LevelInfo
		}
		log.LogAttrs(ctx, level, strings.ReplaceAll(fmt.Sprintf(format, a...), "\n", ""))
	}
}

// DiscordgoLogLevel maps an slog level to discordgo's numeric levels
func DiscordgoLogLevel(level slog.Level) int {
	switch {
	case level <= slog.LevelDebug:
		return discordgo.LogDebug
	case level <= slog.LevelInfo:
		return discordgo.LogInformational
	case level <= slog.LevelWarn:
		return discordgo.LogWarning
	}
	return discordgo.LogError
}

// InteractionAttrs returns the standard attributes logged for an interaction
func InteractionAttrs(i *discordgo.InteractionCreate) []any {
	if i == nil || i.Interaction == nil {
		return nil
	}
	attrs := []any{
		"interaction_id", i.ID,
		"guild_id", i.GuildID,
		"channel_id", i.ChannelID,
		"user_id", InteractionUserID(i),
	}
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		attrs = append(attrs, "command", i.ApplicationCommandData().Name)
	case discordgo.InteractionMessageComponent:
		attrs = append(attrs, "custom_id", i.MessageComponentData().CustomID)
	case discordgo.InteractionModalSubmit:
		attrs = append(attrs, "custom_id", i.ModalSubmitData().CustomID)
	}
	return attrs
}
