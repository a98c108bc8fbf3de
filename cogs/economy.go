package cogs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"harbor-go/utils"
)

const leaderboardSize = 10

// RegisterEconomyCommands returns the wallet and reward commands
func RegisterEconomyCommands() []*discordgo.ApplicationCommand {
	amount := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "amount",
		Description: "Amount (e.g. 500, 1.5k, half, all, 25%)",
		Required:    true,
	}
	optionalUser := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: "Whose to show (defaults to you)",
	}
	return []*discordgo.ApplicationCommand{
		{Name: "balance", Description: "Show wallet and bank balances", Options: []*discordgo.ApplicationCommandOption{optionalUser}},
		{Name: "deposit", Description: "Move coins from your wallet to your bank", Options: []*discordgo.ApplicationCommandOption{amount}},
		{Name: "withdraw", Description: "Move coins from your bank to your wallet", Options: []*discordgo.ApplicationCommandOption{amount}},
		{
			Name:        "pay",
			Description: "Give coins from your wallet to another user",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Who to pay", Required: true},
				amount,
			},
		},
		{Name: "daily", Description: "Claim your daily reward"},
		{Name: "weekly", Description: "Claim your weekly reward"},
		{Name: "leaderboard", Description: "Show the richest users"},
		{Name: "profile", Description: "Show level, job and balances", Options: []*discordgo.ApplicationCommandOption{optionalUser}},
	}
}

// targetUser returns the "user" option or the invoker
func targetUser(i *discordgo.InteractionCreate) (*discordgo.User, int64, error) {
	u := utils.Options(i).User("user")
	if u == nil {
		u = utils.InteractionUser(i)
	}
	if u == nil {
		return nil, 0, utils.ErrNotFound
	}
	id, err := utils.ParseUserID(u.ID)
	if err != nil {
		return nil, 0, utils.ErrNotFound
	}
	return u, id, nil
}

// HandleBalanceCommand handles /balance
func HandleBalanceCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	discordUser, id, err := targetUser(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	if discordUser.Bot {
		return utils.RespondError(s, i, "Bots don't have balances.")
	}
	user, err := utils.GetUser(context.Background(), id)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	return utils.SendInteractionResponse(s, i, utils.BalanceEmbed(user, discordUser), nil, false)
}

// HandleProfileCommand handles /profile
func HandleProfileCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	discordUser, id, err := targetUser(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	if discordUser.Bot {
		return utils.RespondError(s, i, "Bots don't have profiles.")
	}
	user, err := utils.GetUser(context.Background(), id)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	return utils.SendInteractionResponse(s, i, utils.UserProfileEmbed(user, discordUser), nil, false)
}

// HandleDepositCommand handles /deposit
func HandleDepositCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	return handleMove(s, i, true)
}

// HandleWithdrawCommand handles /withdraw
func HandleWithdrawCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	return handleMove(s, i, false)
}

func handleMove(s utils.Discord, i *discordgo.InteractionCreate, toBank bool) error {
	userID, err := utils.InvokerID(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	amountStr := utils.Options(i).String("amount", "")

	move, title, verb := utils.Withdraw, "🏧 Withdrawal", "Withdrew"
	if toBank {
		move, title, verb = utils.Deposit, "🏦 Deposit", "Deposited"
	}
	user, amount, err := move(context.Background(), userID, amountStr)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	embed := utils.CreateBrandedEmbed(title, fmt.Sprintf("%s **%s**.", verb, utils.FormatCoins(amount)), utils.ColorSuccess)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Wallet", Value: utils.FormatCoins(user.Wallet), Inline: true},
		{Name: "Bank", Value: utils.FormatCoins(user.Bank), Inline: true},
	}
	return utils.SendInteractionResponse(s, i, embed, nil, false)
}

// HandlePayCommand handles /pay
func HandlePayCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	fromID, err := utils.InvokerID(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	opts := utils.Options(i)
	target := opts.User("user")
	if target == nil {
		return utils.ReplyErr(s, i, utils.ErrNotFound)
	}
	if target.Bot {
		return utils.RespondError(s, i, "You can't pay a bot.")
	}
	toID, err := utils.ParseUserID(target.ID)
	if err != nil {
		return utils.ReplyErr(s, i, utils.ErrNotFound)
	}

	sender, _, amount, err := utils.Pay(context.Background(), fromID, toID, opts.String("amount", ""))
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	embed := utils.CreateBrandedEmbed("💸 Payment Sent",
		fmt.Sprintf("You paid <@%s> **%s**.", target.ID, utils.FormatCoins(amount)), utils.ColorSuccess)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Your Wallet", Value: utils.FormatCoins(sender.Wallet), Inline: true},
	}
	return utils.SendInteractionResponse(s, i, embed, nil, false)
}

// HandleDailyCommand handles /daily
func HandleDailyCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	return handleReward(s, i, utils.RewardDaily)
}

// HandleWeeklyCommand handles /weekly
func HandleWeeklyCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	return handleReward(s, i, utils.RewardWeekly)
}

func handleReward(s utils.Discord, i *discordgo.InteractionCreate, rt utils.RewardType) error {
	userID, err := utils.InvokerID(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	info, user, err := utils.Rewards.Claim(context.Background(), userID, rt)
	var cd *utils.CooldownError
	if errors.As(err, &cd) {
		embed := utils.CreateBrandedEmbed("⏳ Already Claimed",
			fmt.Sprintf("Your %s reward is available again in **%s**.", rt, utils.FormatDuration(cd.Remaining)), utils.ColorWarning)
		return utils.SendInteractionResponse(s, i, embed, nil, true)
	}
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	return utils.SendInteractionResponse(s, i, utils.RewardEmbed(info, user), nil, false)
}

// HandleLeaderboardCommand handles /leaderboard
func HandleLeaderboardCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	users, err := utils.Leaderboard(context.Background(), leaderboardSize)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	if len(users) == 0 {
		return utils.RespondContent(s, i, "Nobody has any coins yet.", true)
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	for n, u := range users {
		rank := fmt.Sprintf("`#%d`", n+1)
		if n < len(medals) {
			rank = medals[n]
		}
		fmt.Fprintf(&b, "%s <@%d> %s\n", rank, u.UserID, utils.FormatCoins(u.NetWorth()))
	}
	embed := utils.CreateBrandedEmbed("🏆 Leaderboard", b.String(), utils.ColorGold)
	return utils.SendInteractionResponse(s, i, embed, nil, false)
}
