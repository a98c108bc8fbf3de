package blackjack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"

	"harbor-go/utils"
)

// Outcome of a finished hand
type Outcome string

const (
	OutcomeBlackjack Outcome = "blackjack"
	OutcomeCharlie   Outcome = "charlie"
	OutcomeWin       Outcome = "win"
	OutcomePush      Outcome = "push"
	OutcomeLoss      Outcome = "loss"
	OutcomeBust      Outcome = "bust"
	OutcomeTimeout   Outcome = "timeout"
)

const charlieCards = 5

// BlackjackGame represents a blackjack game instance
type BlackjackGame struct {
	*utils.BaseGame
	Deck       *utils.Deck
	PlayerHand *utils.Hand
	DealerHand *utils.Hand
	Doubled    bool
	Finished   bool
	Outcome    Outcome
}

// NewBlackjackGame creates a game around an escrowed bet
func NewBlackjackGame(base *utils.BaseGame, deck *utils.Deck) *BlackjackGame {
	return &BlackjackGame{
		BaseGame:   base,
		Deck:       deck,
		PlayerHand: &utils.Hand{},
		DealerHand: &utils.Hand{},
	}
}

// Deal hands out the opening cards and resolves naturals
func (bg *BlackjackGame) Deal() {
	if bg.Deck.ShouldShuffle() {
		bg.Deck.Shuffle()
	}
	bg.PlayerHand.AddCard(bg.Deck.Deal())
	bg.DealerHand.AddCard(bg.Deck.Deal())
	bg.PlayerHand.AddCard(bg.Deck.Deal())
	bg.DealerHand.AddCard(bg.Deck.Deal())

	switch {
	case bg.PlayerHand.IsBlackjack() && bg.DealerHand.IsBlackjack():
		bg.finish(OutcomePush)
	case bg.PlayerHand.IsBlackjack():
		bg.finish(OutcomeBlackjack)
	case bg.DealerHand.IsBlackjack():
		bg.finish(OutcomeLoss)
	}
}

// Hit draws a card. A bust or a five card hand ends the game.
func (bg *BlackjackGame) Hit() error {
	if bg.Finished {
		return utils.ErrSessionExpired
	}
	bg.PlayerHand.AddCard(bg.Deck.Deal())
	switch {
	case bg.PlayerHand.IsBusted():
		bg.finish(OutcomeBust)
	case bg.PlayerHand.Count() >= charlieCards:
		bg.finish(OutcomeCharlie)
	case bg.PlayerHand.Value() == 21:
		bg.Stand()
	}
	return nil
}

// Stand plays out the dealer and settles the comparison
func (bg *BlackjackGame) Stand() {
	if bg.Finished {
		return
	}
	for bg.DealerHand.Value() < utils.DealerStandValue {
		bg.DealerHand.AddCard(bg.Deck.Deal())
	}

	player, dealer := bg.PlayerHand.Value(), bg.DealerHand.Value()
	switch {
	case bg.DealerHand.IsBusted() || player > dealer:
		bg.finish(OutcomeWin)
	case player == dealer:
		bg.finish(OutcomePush)
	default:
		bg.finish(OutcomeLoss)
	}
}

// CanDouble reports whether doubling is allowed on the current hand
func (bg *BlackjackGame) CanDouble() bool {
	return !bg.Finished && !bg.Doubled && bg.PlayerHand.Count() == 2
}

// Double takes exactly one more card after the caller escrowed a second bet
func (bg *BlackjackGame) Double() error {
	if !bg.CanDouble() {
		return utils.ErrForbidden
	}
	bg.Doubled = true
	bg.PlayerHand.AddCard(bg.Deck.Deal())
	if bg.PlayerHand.IsBusted() {
		bg.finish(OutcomeBust)
		return nil
	}
	bg.Stand()
	return nil
}

func (bg *BlackjackGame) finish(outcome Outcome) {
	bg.Finished = true
	bg.Outcome = outcome
}

// Payout is what goes back to the wallet for the escrowed bet
func (bg *BlackjackGame) Payout() int64 {
	bet := bg.Bet
	switch bg.Outcome {
	case OutcomeBlackjack:
		return bet + int64(float64(bet)*utils.BlackjackPayout)
	case OutcomeCharlie:
		return bet + int64(float64(bet)*utils.FiveCardCharliePayout)
	case OutcomeWin:
		return bet * 2
	case OutcomePush:
		return bet
	}
	return 0
}

func outcomeText(o Outcome) string {
	switch o {
	case OutcomeBlackjack:
		return "🎉 Blackjack! You win 3:2."
	case OutcomeCharlie:
		return "🃏 Five Card Charlie! You win 1.75:1."
	case OutcomeWin:
		return "✅ You win!"
	case OutcomePush:
		return "🤝 Push. Your bet is returned."
	case OutcomeBust:
		return "💥 Bust! You lose."
	case OutcomeTimeout:
		return "⏰ Timed out. Your bet is forfeited."
	}
	return "❌ Dealer wins."
}

func (bg *BlackjackGame) embed(after int64) *discordgo.MessageEmbed {
	dealerCards := bg.DealerHand.String()
	dealerValue := fmt.Sprintf("%d", bg.DealerHand.Value())
	if !bg.Finished && len(bg.DealerHand.Cards) > 0 {
		up := bg.DealerHand.Cards[0]
		dealerCards = up.String() + " 🂠"
		dealerValue = fmt.Sprintf("%d", up.Value())
	}

	color := utils.BotColor
	description := fmt.Sprintf("**Bet:** %s", utils.FormatCoins(bg.Bet))
	if bg.Finished {
		profit := bg.Payout() - bg.Bet
		switch {
		case profit > 0:
			color = utils.ColorSuccess
		case profit < 0:
			color = utils.ColorError
		default:
			color = utils.ColorWarning
		}
		description = fmt.Sprintf("%s\n**Bet:** %s\n**Result:** %s\n**Wallet:** %s",
			outcomeText(bg.Outcome), utils.FormatCoins(bg.Bet), utils.ProfitString(profit), utils.FormatCoins(after))
	}

	embed := utils.CreateBrandedEmbed("🃏 Blackjack", description, color)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: fmt.Sprintf("Your Hand (%d)", bg.PlayerHand.Value()), Value: bg.PlayerHand.String(), Inline: true},
		{Name: fmt.Sprintf("Dealer (%s)", dealerValue), Value: dealerCards, Inline: true},
	}
	return embed
}

func (bg *BlackjackGame) components(sessionID string, canAffordDouble bool) []discordgo.MessageComponent {
	if bg.Finished {
		return []discordgo.MessageComponent{}
	}
	return buttons(sessionID, !(bg.CanDouble() && canAffordDouble))
}

func buttons(sessionID string, doubleDisabled bool) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		utils.CreateActionRow(
			utils.CreateButton(utils.BuildCustomID("blackjack", "hit", sessionID), "Hit", discordgo.PrimaryButton, false, nil),
			utils.CreateButton(utils.BuildCustomID("blackjack", "stand", sessionID), "Stand", discordgo.SecondaryButton, false, nil),
			utils.CreateButton(utils.BuildCustomID("blackjack", "double", sessionID), "Double", discordgo.SuccessButton, doubleDisabled, nil),
		),
	}
}

// RegisterBlackjackCommands returns the slash command definition for blackjack
func RegisterBlackjackCommands() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "blackjack",
		Description: "Start a game of Blackjack",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "bet",
				Description: "Coins to wager (e.g. 500, 10k, 50%, all)",
				Required:    true,
			},
		},
	}
}

// HandleBlackjackCommand handles the /blackjack slash command
func HandleBlackjackCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	ctx := context.Background()
	userID, err := utils.InvokerID(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	owner := utils.InteractionUserID(i)

	if _, active := utils.Sessions.ForUser(utils.SessionBlackjack, owner); active {
		return utils.RespondError(s, i, "You already have a blackjack game running. Finish it first.")
	}
	if err := utils.EnforceCooldown(ctx, "blackjack", userID, utils.BlackjackCooldown); err != nil {
		return utils.ReplyErr(s, i, err)
	}

	betStr := utils.Options(i).String("bet", "")
	base, user, err := utils.StartGame(ctx, userID, "blackjack", betStr)
	if err != nil {
		_ = utils.ResetCooldown(ctx, "blackjack", userID)
		if errors.Is(err, utils.ErrInsufficientFunds) && user != nil {
			required, _ := utils.ParseAmount(betStr, user.Wallet)
			return utils.SendInteractionResponse(s, i, utils.InsufficientFundsEmbed(required, user.Wallet, "that bet"), nil, true)
		}
		return utils.ReplyErr(s, i, err)
	}

	game := NewBlackjackGame(base, utils.NewDeckWithRand(utils.DeckCount, rand.New(rand.NewSource(time.Now().UnixNano()))))
	game.Deal()

	if game.Finished {
		res, err := game.Settle(ctx, game.Payout())
		if err != nil {
			return utils.ReplyErr(s, i, err)
		}
		return utils.SendInteractionResponse(s, i, game.embed(res.User.Wallet), nil, false)
	}

	session := &utils.Session{
		Kind:        utils.SessionBlackjack,
		UserID:      owner,
		Interaction: i.Interaction,
		Data:        game,
		Timeout:     utils.Active.SessionTimeout,
		OnExpire:    func(sess *utils.Session) { expire(s, sess) },
	}
	if err := utils.Sessions.Register(session); err != nil {
		if _, refundErr := game.Settle(ctx, game.Bet); refundErr != nil {
			slog.Error("failed to refund blackjack bet", "user_id", userID, tint.Err(refundErr))
		}
		return utils.ReplyErr(s, i, err)
	}

	slog.Info("started blackjack game", "session_id", session.ID, "user_id", userID, "bet", game.Bet)
	return utils.SendInteractionResponse(s, i, game.embed(user.Wallet), game.components(session.ID, user.Wallet >= game.Bet), false)
}

// HandleBlackjackInteraction handles the hit, stand and double buttons
func HandleBlackjackInteraction(s utils.Discord, i *discordgo.InteractionCreate) error {
	ctx := context.Background()
	_, action, args := utils.ParseCustomID(i.MessageComponentData().CustomID)
	if len(args) == 0 {
		return utils.RespondError(s, i, "Unknown blackjack action")
	}
	sessionID := args[0]

	session, err := utils.Sessions.Authorize(sessionID, utils.InteractionUserID(i))
	if errors.Is(err, utils.ErrForbidden) {
		return utils.RespondError(s, i, utils.NotYourSession)
	}
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	session.Lock()
	defer session.Unlock()
	if session.Ended() {
		return utils.ReplyErr(s, i, utils.ErrSessionExpired)
	}
	game := session.Data.(*BlackjackGame)

	switch action {
	case "hit":
		err = game.Hit()
	case "stand":
		game.Stand()
	case "double":
		if !game.CanDouble() {
			return utils.RespondError(s, i, "You can only double on your first two cards.")
		}
		if _, err = game.Raise(ctx, game.Bet); err == nil {
			err = game.Double()
		}
	default:
		return utils.RespondError(s, i, "Unknown blackjack action")
	}
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	user, err := utils.GetUser(ctx, game.UserID)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	if !game.Finished {
		utils.Sessions.Touch(session.ID)
		return utils.UpdateComponentInteraction(s, i, game.embed(user.Wallet), game.components(session.ID, user.Wallet >= game.Bet))
	}

	utils.Sessions.End(session.ID)
	res, err := game.Settle(ctx, game.Payout())
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	embed := game.embed(res.User.Wallet)
	if res.LevelUp > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "⬆️ Level Up", Value: fmt.Sprintf("You reached level **%d**!", res.LevelUp)})
	}
	return utils.UpdateComponentInteraction(s, i, embed, []discordgo.MessageComponent{})
}

// expire forfeits a timed out game and disables its buttons
func expire(s utils.Discord, session *utils.Session) {
	game, ok := session.Data.(*BlackjackGame)
	if !ok || game.Finished {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	game.finish(OutcomeTimeout)
	if _, err := game.Forfeit(ctx); err != nil {
		slog.Error("failed to forfeit blackjack game", "session_id", session.ID, tint.Err(err))
	}

	embed := utils.GameTimeoutEmbed(game.Bet)
	embed.Fields = game.embed(0).Fields
	rows := utils.DisableComponents(buttons(session.ID, true))
	if _, err := s.InteractionResponseEdit(session.Interaction, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &rows,
	}, discordgo.WithContext(ctx)); err != nil {
		slog.Warn("failed to mark blackjack game as timed out", "session_id", session.ID, tint.Err(err))
	}
}
