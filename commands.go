package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"harbor-go/cogs"
	"harbor-go/games/blackjack"
	"harbor-go/games/gamble"
	"harbor-go/games/slots"
	"harbor-go/games/steal"
	"harbor-go/utils"
)

// commandHandlers maps slash command names to their handlers
var commandHandlers = map[string]utils.HandlerFunc{
	"ping":    HandlePingCommand,
	"botinfo": HandleBotInfoCommand,

	"balance":     cogs.HandleBalanceCommand,
	"profile":     cogs.HandleProfileCommand,
	"deposit":     cogs.HandleDepositCommand,
	"withdraw":    cogs.HandleWithdrawCommand,
	"pay":         cogs.HandlePayCommand,
	"daily":       cogs.HandleDailyCommand,
	"weekly":      cogs.HandleWeeklyCommand,
	"leaderboard": cogs.HandleLeaderboardCommand,

	"blackjack": blackjack.HandleBlackjackCommand,
	"slots":     slots.HandleSlotsCommand,
	"gamble":    gamble.HandleGambleCommand,
	"steal":     steal.HandleStealCommand,

	"job":  cogs.HandleJobCommand,
	"work": cogs.HandleWorkCommand,

	"shop":      cogs.HandleShopCommand,
	"buy":       cogs.HandleBuyCommand,
	"sell":      cogs.HandleSellCommand,
	"inventory": cogs.HandleInventoryCommand,

	"embed":   cogs.HandleEmbedBuilderCommand,
	"ticket":  cogs.HandleTicketCommand,
	"suggest": cogs.HandleSuggestionCommand,
	"verify":  cogs.HandleVerificationCommand,
	"config":  cogs.HandleConfigCommand,
}

// componentHandlers maps custom-ID prefixes to the handlers for buttons,
// selects and modals
var componentHandlers = map[string]utils.HandlerFunc{
	"blackjack": blackjack.HandleBlackjackInteraction,
	"builder":   cogs.HandleEmbedBuilderInteraction,
	"ticket":    cogs.HandleTicketInteraction,
	"suggest":   cogs.HandleSuggestionInteraction,
	"verify":    cogs.HandleVerificationInteraction,
	"shop":      cogs.HandleShopInteraction,
	"job":       cogs.HandleJobInteraction,
}

// ApplicationCommands returns every slash command the bot registers
func ApplicationCommands() []*discordgo.ApplicationCommand {
	cmds := []*discordgo.ApplicationCommand{
		RegisterPingCommand(),
		RegisterBotInfoCommand(),
		blackjack.RegisterBlackjackCommands(),
		slots.RegisterSlotsCommand(),
		gamble.RegisterGambleCommand(),
		steal.RegisterStealCommand(),
		cogs.RegisterEmbedBuilderCommand(),
		cogs.RegisterTicketCommands(),
		cogs.RegisterSuggestionCommand(),
		cogs.RegisterVerificationCommand(),
		cogs.RegisterConfigCommand(),
	}
	cmds = append(cmds, cogs.RegisterEconomyCommands()...)
	cmds = append(cmds, cogs.RegisterWorkCommands()...)
	cmds = append(cmds, cogs.RegisterShopCommands()...)
	return cmds
}

// NewCommandRouter returns a router with every command and component
// handler attached
func NewCommandRouter(logger *slog.Logger) *Router {
	r := NewRouter(logger)
	for name, h := range commandHandlers {
		r.Command(name, h)
	}
	for prefix, h := range componentHandlers {
		r.Component(prefix, h)
	}
	return r
}

type commandRegistrar interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// registerCommands replaces the registered command set. An empty guildID
// registers globally.
func registerCommands(ctx context.Context, s commandRegistrar, appID, guildID string) error {
	if appID == "" {
		me, err := s.User("@me", discordgo.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("looking up application ID: %w", err)
		}
		appID = me.ID
	}

	cmds := ApplicationCommands()
	created, err := s.ApplicationCommandBulkOverwrite(appID, guildID, cmds, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("registering %d commands: %w", len(cmds), err)
	}

	scope := "global"
	if guildID != "" {
		scope = "guild:" + guildID
	}
	slog.Info("registered commands", "count", len(created), "scope", scope, "app_id", appID)
	return nil
}
