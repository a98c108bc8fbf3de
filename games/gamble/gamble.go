package gamble

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"

	"harbor-go/utils"
)

// Roll is a pair of six-sided dice
type Roll [2]int

// Total sums the dice
func (r Roll) Total() int {
	return r[0] + r[1]
}

func (r Roll) String() string {
	return fmt.Sprintf("🎲 %d + %d = **%d**", r[0], r[1], r.Total())
}

// Round is one player-versus-house throw
type Round struct {
	Player Roll
	House  Roll
}

// Throw rolls 2d6 for each side
func Throw(r *rand.Rand) Round {
	return Round{
		Player: Roll{r.Intn(6) + 1, r.Intn(6) + 1},
		House:  Roll{r.Intn(6) + 1, r.Intn(6) + 1},
	}
}

// Payout is the total returned for bet: double on a win, the bet on a tie
func (rd Round) Payout(bet int64) int64 {
	switch {
	case rd.Player.Total() > rd.House.Total():
		return bet * 2
	case rd.Player.Total() == rd.House.Total():
		return bet
	}
	return 0
}

// RegisterGambleCommand config
func RegisterGambleCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "gamble",
		Description: "Roll dice against the house",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "bet", Description: "Bet amount (k/m, all, half supported)", Required: true},
		},
	}
}

// HandleGambleCommand handles /gamble
func HandleGambleCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	return play(s, i, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func play(s utils.Discord, i *discordgo.InteractionCreate, rng *rand.Rand) error {
	ctx := context.Background()
	userID, err := utils.InvokerID(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	if err := utils.EnforceCooldown(ctx, "gamble", userID, utils.GambleCooldown); err != nil {
		return utils.ReplyErr(s, i, err)
	}

	betStr := utils.Options(i).String("bet", "")
	game, user, err := utils.StartGame(ctx, userID, "gamble", betStr)
	if err != nil {
		_ = utils.ResetCooldown(ctx, "gamble", userID)
		if errors.Is(err, utils.ErrInsufficientFunds) && user != nil {
			required, _ := utils.ParseAmount(betStr, user.Wallet)
			return utils.SendInteractionResponse(s, i, utils.InsufficientFundsEmbed(required, user.Wallet, "that bet"), nil, true)
		}
		return utils.ReplyErr(s, i, err)
	}

	round := Throw(rng)
	settled, err := game.Settle(ctx, round.Payout(game.Bet))
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	outcome := "🏠 The house wins."
	switch {
	case settled.Profit > 0:
		outcome = "🎉 You win!"
	case settled.Profit == 0:
		outcome = "🤝 It's a tie. Your bet is returned."
	}
	embed := utils.GameResultEmbed("🎲 Gamble",
		fmt.Sprintf("**You:** %s\n**House:** %s\n\n%s", round.Player, round.House, outcome),
		game.Bet, settled.Profit, settled.User)
	if settled.LevelUp > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "⬆️ Level Up", Value: fmt.Sprintf("You reached level **%d**!", settled.LevelUp)})
	}
	return utils.SendInteractionResponse(s, i, embed, nil, false)
}
