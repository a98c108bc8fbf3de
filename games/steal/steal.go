package steal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"

	"harbor-go/models"
	"harbor-go/utils"
)

// Outcome of a steal attempt
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeCaught
	OutcomeBlocked
)

// Attempt is a resolved steal before any coins move. Amount flows from the
// victim on success and to the victim when caught.
type Attempt struct {
	Outcome Outcome
	Amount  int64
}

var errTooPoor = errors.New("wallet below steal minimum")

// Resolve decides a steal between wallets. padlocked reports whether the
// victim holds a padlock.
func Resolve(r *rand.Rand, thiefWallet, victimWallet int64, padlocked bool) Attempt {
	if padlocked {
		return Attempt{Outcome: OutcomeBlocked}
	}
	if r.Float64() < utils.StealSuccessChance {
		percent := utils.StealMinTakePercent + r.Intn(utils.StealMaxTakePercent-utils.StealMinTakePercent+1)
		amount := victimWallet * int64(percent) / 100
		if amount < 1 {
			amount = 1
		}
		return Attempt{Outcome: OutcomeSuccess, Amount: amount}
	}
	return Attempt{Outcome: OutcomeCaught, Amount: Fine(thiefWallet)}
}

// Fine is 25% of the wallet with a floor, never more than the wallet holds
func Fine(wallet int64) int64 {
	fine := wallet * utils.StealFinePercent / 100
	if fine < utils.StealMinFine {
		fine = utils.StealMinFine
	}
	if fine > wallet {
		fine = wallet
	}
	return fine
}

// RegisterStealCommand config
func RegisterStealCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "steal",
		Description: "Try to steal coins from another user's wallet",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Who to rob", Required: true},
		},
	}
}

// HandleStealCommand handles /steal
func HandleStealCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	return play(s, i, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func play(s utils.Discord, i *discordgo.InteractionCreate, rng *rand.Rand) error {
	ctx := context.Background()
	thiefID, err := utils.InvokerID(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	target := utils.Options(i).User("user")
	if target == nil {
		return utils.ReplyErr(s, i, utils.ErrNotFound)
	}
	if target.Bot {
		return utils.RespondError(s, i, "Bots don't carry wallets.")
	}
	victimID, err := utils.ParseUserID(target.ID)
	if err != nil {
		return utils.ReplyErr(s, i, utils.ErrNotFound)
	}
	if victimID == thiefID {
		return utils.ReplyErr(s, i, utils.ErrSelfTarget)
	}

	remaining, err := utils.CooldownStore.Check(ctx, utils.CooldownKey("steal", thiefID))
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	if remaining > 0 {
		return utils.ReplyErr(s, i, &utils.CooldownError{Action: "steal", Remaining: remaining})
	}

	thief, victim, err := loadPair(ctx, thiefID, victimID)
	if errors.Is(err, errTooPoor) {
		return utils.RespondError(s, i, fmt.Sprintf("Both of you need at least %s in your wallet to steal.", utils.FormatCoins(utils.StealMinWallet)))
	}
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	// the cooldown starts only once the attempt is valid
	if err := utils.EnforceCooldown(ctx, "steal", thiefID, utils.StealCooldown); err != nil {
		return utils.ReplyErr(s, i, err)
	}

	attempt := Resolve(rng, thief.Wallet, victim.Wallet, victim.ItemCount(utils.PadlockItem) > 0)
	if attempt.Outcome == OutcomeBlocked {
		if _, err := utils.RemoveItem(ctx, victimID, utils.PadlockItem, 1); err != nil {
			slog.Warn("failed to consume padlock", "user_id", victimID, tint.Err(err))
		}
	}

	embed, err := apply(ctx, attempt, thiefID, victimID, target)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	return utils.SendInteractionResponse(s, i, embed, nil, false)
}

func loadPair(ctx context.Context, thiefID, victimID int64) (*models.User, *models.User, error) {
	thief, err := utils.GetUser(ctx, thiefID)
	if err != nil {
		return nil, nil, err
	}
	victim, err := utils.GetUser(ctx, victimID)
	if err != nil {
		return nil, nil, err
	}
	if thief.Wallet < utils.StealMinWallet || victim.Wallet < utils.StealMinWallet {
		return nil, nil, errTooPoor
	}
	return thief, victim, nil
}

func apply(ctx context.Context, attempt Attempt, thiefID, victimID int64, target *discordgo.User) (*discordgo.MessageEmbed, error) {
	mention := "<@" + target.ID + ">"
	switch attempt.Outcome {
	case OutcomeBlocked:
		return utils.CreateBrandedEmbed("🔒 Blocked",
			fmt.Sprintf("%s had a padlock on their wallet. It broke, but so did your plan.", mention),
			utils.ColorWarning), nil
	case OutcomeSuccess:
		thief, _, err := utils.TransferAmount(ctx, victimID, thiefID, attempt.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to take stolen coins: %w", err)
		}
		return utils.CreateBrandedEmbed("🦹 Success",
			fmt.Sprintf("You stole %s from %s!\n**Wallet:** %s", utils.FormatCoins(attempt.Amount), mention, utils.FormatCoins(thief.Wallet)),
			utils.ColorSuccess), nil
	default:
		thief, _, err := utils.TransferAmount(ctx, thiefID, victimID, attempt.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to pay steal fine: %w", err)
		}
		return utils.CreateBrandedEmbed("🚨 Caught",
			fmt.Sprintf("You were caught and paid %s a fine of %s.\n**Wallet:** %s", mention, utils.FormatCoins(attempt.Amount), utils.FormatCoins(thief.Wallet)),
			utils.ColorError), nil
	}
}
