package slots

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"

	"harbor-go/utils"
)

// Symbol is one reel face and its relative weight
type Symbol struct {
	Emoji  string
	Weight float64
	// Multiplier is the total payout for three of a kind, in bets
	Multiplier float64
}

const (
	jackpotSymbol     = "🎰"
	jackpotMultiplier = 50
	pairMultiplier    = 1.5
	reelCount         = 3
	spinFrames        = 3
	frameDelay        = 700 * time.Millisecond
)

// Reel weights and triple payouts
var symbols = []Symbol{
	{Emoji: "🍒", Weight: 35, Multiplier: 3},
	{Emoji: "🍋", Weight: 25, Multiplier: 4},
	{Emoji: "🍊", Weight: 18, Multiplier: 5},
	{Emoji: "🍉", Weight: 12, Multiplier: 6},
	{Emoji: "🔔", Weight: 6, Multiplier: 10},
	{Emoji: "⭐", Weight: 3, Multiplier: 15},
	{Emoji: "💎", Weight: 0.8, Multiplier: 25},
	{Emoji: jackpotSymbol, Weight: 0.2, Multiplier: jackpotMultiplier},
}

var totalWeight = func() float64 {
	total := 0.0
	for _, s := range symbols {
		total += s.Weight
	}
	return total
}()

// Reels is the result of one spin
type Reels [reelCount]string

func (r Reels) String() string {
	return strings.Join(r[:], " | ")
}

// Result describes a settled spin
type Result struct {
	Reels   Reels
	Payout  int64
	Jackpot bool
	Pair    bool
	Triple  bool
}

// RandomSymbol draws one weighted reel face
func RandomSymbol(r *rand.Rand) string {
	x := r.Float64() * totalWeight
	cumulative := 0.0
	for _, s := range symbols {
		cumulative += s.Weight
		if x < cumulative {
			return s.Emoji
		}
	}
	return symbols[0].Emoji
}

// Spin draws all reels
func Spin(r *rand.Rand) Reels {
	var reels Reels
	for i := range reels {
		reels[i] = RandomSymbol(r)
	}
	return reels
}

func multiplierFor(emoji string) float64 {
	for _, s := range symbols {
		if s.Emoji == emoji {
			return s.Multiplier
		}
	}
	return 0
}

// Evaluate computes the payout for reels excluding the progressive jackpot
func Evaluate(reels Reels, bet int64) Result {
	res := Result{Reels: reels}
	switch {
	case reels[0] == reels[1] && reels[1] == reels[2]:
		res.Triple = true
		res.Jackpot = reels[0] == jackpotSymbol
		res.Payout = int64(float64(bet) * multiplierFor(reels[0]))
	case reels[0] == reels[1] || reels[1] == reels[2] || reels[0] == reels[2]:
		res.Pair = true
		res.Payout = int64(float64(bet) * pairMultiplier)
	}
	return res
}

// RegisterSlotsCommand config
func RegisterSlotsCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "slots",
		Description: "Spin the slot machine",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "bet", Description: "Bet amount (k/m, all, half supported)", Required: true},
		},
	}
}

// HandleSlotsCommand handles /slots
func HandleSlotsCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	return play(s, i, rand.New(rand.NewSource(time.Now().UnixNano())), frameDelay)
}

func play(s utils.Discord, i *discordgo.InteractionCreate, rng *rand.Rand, delay time.Duration) error {
	ctx := context.Background()
	userID, err := utils.InvokerID(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	if err := utils.EnforceCooldown(ctx, "slots", userID, utils.SlotsCooldown); err != nil {
		return utils.ReplyErr(s, i, err)
	}

	betStr := utils.Options(i).String("bet", "")
	game, user, err := utils.StartGame(ctx, userID, "slots", betStr)
	if err != nil {
		_ = utils.ResetCooldown(ctx, "slots", userID)
		if errors.Is(err, utils.ErrInsufficientFunds) && user != nil {
			required, _ := utils.ParseAmount(betStr, user.Wallet)
			return utils.SendInteractionResponse(s, i, utils.InsufficientFundsEmbed(required, user.Wallet, "that bet"), nil, true)
		}
		return utils.ReplyErr(s, i, err)
	}

	final := Spin(rng)
	if err := utils.SendInteractionResponse(s, i, spinningEmbed(game.Bet, Reels{"❔", "❔", "❔"}), nil, false); err != nil {
		// the bet is already escrowed, settle it anyway
		slog.Warn("failed to send slots response", "user_id", userID, tint.Err(err))
	}

	frames := make([]utils.AnimationFrame, 0, spinFrames)
	for f := 1; f <= spinFrames; f++ {
		shown := Reels{"❔", "❔", "❔"}
		for r := 0; r < reelCount; r++ {
			if r < f {
				shown[r] = final[r]
			} else {
				shown[r] = RandomSymbol(rng)
			}
		}
		frames = append(frames, utils.AnimationFrame{Embed: spinningEmbed(game.Bet, shown), Delay: delay})
	}
	if err := utils.Animations.Play(ctx, "slots:"+i.Interaction.ID, frames, utils.EditResponseRenderer(s, i.Interaction)); err != nil {
		slog.Warn("slots animation failed", "user_id", userID, tint.Err(err))
	}

	result := Evaluate(final, game.Bet)
	var jackpotWon int64
	if result.Jackpot {
		won, err := utils.Jackpot.Win(ctx, userID)
		if err != nil {
			slog.Error("failed to pay slots jackpot", "user_id", userID, tint.Err(err))
		}
		jackpotWon = won
		result.Payout += won
	}

	settled, err := game.Settle(ctx, result.Payout)
	if err != nil {
		return utils.FollowupErr(s, i, err)
	}
	var pot int64
	if result.Payout == 0 {
		pot = utils.Jackpot.ContributeLoss(ctx, game.Bet)
	}

	embed := resultEmbed(game.Bet, result, settled, jackpotWon, pot)
	return utils.EditOriginalInteraction(s, i, embed, []discordgo.MessageComponent{})
}

func spinningEmbed(bet int64, reels Reels) *discordgo.MessageEmbed {
	return utils.CreateBrandedEmbed("🎰 Slots", fmt.Sprintf("**Bet:** %s\n\n> %s\n\nSpinning...", utils.FormatCoins(bet), reels), utils.BotColor)
}

func resultEmbed(bet int64, result Result, settled *utils.GameResult, jackpotWon, pot int64) *discordgo.MessageEmbed {
	outcome := "No match this time. Better luck next spin!"
	switch {
	case jackpotWon > 0:
		outcome = fmt.Sprintf("💰 **JACKPOT!** You won the progressive jackpot of %s!", utils.FormatCoins(jackpotWon))
	case result.Triple:
		outcome = "🎉 Three of a kind!"
	case result.Pair:
		outcome = "✨ A pair!"
	}

	embed := utils.GameResultEmbed("🎰 Slots", fmt.Sprintf("> %s\n\n%s", result.Reels, outcome), bet, settled.Profit, settled.User)
	if jackpotWon > 0 {
		embed.Color = utils.ColorGold
	}
	if pot > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Jackpot", Value: utils.FormatCoins(pot), Inline: true})
	}
	if settled.LevelUp > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "⬆️ Level Up", Value: fmt.Sprintf("You reached level **%d**!", settled.LevelUp)})
	}
	return embed
}
