package cogs

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"harbor-go/models"
	"harbor-go/utils"
)

// RegisterWorkCommands returns /job and /work
func RegisterWorkCommands() []*discordgo.ApplicationCommand {
	jobChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(utils.Jobs))
	for _, j := range utils.Jobs {
		jobChoices = append(jobChoices, &discordgo.ApplicationCommandOptionChoice{Name: j.Name, Value: j.ID})
	}
	return []*discordgo.ApplicationCommand{
		{
			Name:        "job",
			Description: "Find, take or leave a job",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "list", Description: "Show available jobs"},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "apply",
					Description: "Apply for a job",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Job to apply for", Required: true, Choices: jobChoices},
					},
				},
				{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "quit", Description: "Quit your current job"},
			},
		},
		{Name: "work", Description: "Work a shift at your job"},
	}
}

// ShiftBonus is the pay multiplier bonus earned by experience: 2% per ten
// shifts, capped
func ShiftBonus(shifts int) float64 {
	bonus := float64(shifts/10) * utils.ShiftBonusPerTen
	if bonus > utils.MaxShiftBonus {
		return utils.MaxShiftBonus
	}
	return bonus
}

// ShiftPay rolls the pay for one shift
func ShiftPay(r *rand.Rand, job utils.Job, shifts int) int64 {
	base := job.MinPay
	if job.MaxPay > job.MinPay {
		base += r.Int63n(job.MaxPay - job.MinPay + 1)
	}
	return int64(float64(base) * (1 + ShiftBonus(shifts)))
}

// ApplyForJob employs the user if their level allows it. Changing jobs
// resets the shift count.
func ApplyForJob(ctx context.Context, userID int64, job utils.Job) (*models.User, error) {
	user, err := utils.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if utils.Level(user.XP) < job.MinLevel {
		return nil, fmt.Errorf("%s needs level %d: %w", job.Name, job.MinLevel, utils.ErrLevelTooLow)
	}
	if user.Job == job.ID {
		return nil, fmt.Errorf("already a %s: %w", job.Name, utils.ErrAlreadyExists)
	}
	id := job.ID
	return utils.UpdateCachedUser(ctx, userID, models.UserUpdate{Job: &id, ResetShifts: true})
}

// HandleJobCommand handles /job list|apply|quit
func HandleJobCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	userID, err := utils.InvokerID(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	ctx := context.Background()
	opts := utils.Options(i)

	switch opts.Subcommand {
	case "apply":
		job, ok := utils.FindJob(opts.String("name", ""))
		if !ok {
			return utils.ReplyErr(s, i, utils.ErrNotFound)
		}
		if _, err := ApplyForJob(ctx, userID, job); err != nil {
			return replyJobErr(s, i, job, err)
		}
		return utils.SendInteractionResponse(s, i, hiredEmbed(job), nil, false)

	case "quit":
		user, err := utils.GetUser(ctx, userID)
		if err != nil {
			return utils.ReplyErr(s, i, err)
		}
		if !user.HasJob() {
			return utils.ReplyErr(s, i, utils.ErrNoJob)
		}
		empty := ""
		if _, err := utils.UpdateCachedUser(ctx, userID, models.UserUpdate{Job: &empty, ResetShifts: true}); err != nil {
			return utils.ReplyErr(s, i, err)
		}
		return utils.RespondSuccess(s, i, "You quit your job.")

	default:
		user, err := utils.GetUser(ctx, userID)
		if err != nil {
			return utils.ReplyErr(s, i, err)
		}
		embed, components := jobListView(user, utils.InteractionUserID(i))
		return utils.SendInteractionResponse(s, i, embed, components, true)
	}
}

// HandleJobInteraction handles the job select menu
func HandleJobInteraction(s utils.Discord, i *discordgo.InteractionCreate) error {
	data := i.MessageComponentData()
	_, action, args := utils.ParseCustomID(data.CustomID)
	if action != "apply" || len(args) == 0 {
		return nil
	}
	if !utils.IsUserAuthorized(i, args[0]) {
		return utils.RespondError(s, i, utils.NotYourSession)
	}
	if len(data.Values) == 0 {
		return utils.AcknowledgeComponentInteraction(s, i)
	}
	job, ok := utils.FindJob(data.Values[0])
	if !ok {
		return utils.ReplyErr(s, i, utils.ErrNotFound)
	}
	userID, err := utils.InvokerID(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	if _, err := ApplyForJob(context.Background(), userID, job); err != nil {
		return replyJobErr(s, i, job, err)
	}
	return utils.UpdateComponentInteraction(s, i, hiredEmbed(job), []discordgo.MessageComponent{})
}

func replyJobErr(s utils.Discord, i *discordgo.InteractionCreate, job utils.Job, err error) error {
	switch {
	case errors.Is(err, utils.ErrLevelTooLow):
		return utils.RespondError(s, i, fmt.Sprintf("You need to be level **%d** to work as a %s.", job.MinLevel, job.Name))
	case errors.Is(err, utils.ErrAlreadyExists):
		return utils.RespondError(s, i, fmt.Sprintf("You already work as a %s.", job.Name))
	}
	return utils.ReplyErr(s, i, err)
}

func hiredEmbed(job utils.Job) *discordgo.MessageEmbed {
	return utils.CreateBrandedEmbed("🤝 Hired!",
		fmt.Sprintf("You now work as a %s **%s**. Use `/work` to start earning %s-%s per shift.",
			job.Emoji, job.Name, utils.FormatCoins(job.MinPay), utils.FormatCoins(job.MaxPay)),
		utils.ColorSuccess)
}

func jobListView(user *models.User, ownerID string) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	level := utils.Level(user.XP)
	var b strings.Builder
	options := make([]discordgo.SelectMenuOption, 0, len(utils.Jobs))
	for _, j := range utils.Jobs {
		status := "✅"
		if level < j.MinLevel {
			status = "🔒"
		}
		if user.Job == j.ID {
			status = "⭐"
		}
		fmt.Fprintf(&b, "%s %s **%s** (level %d) %s-%s\n", status, j.Emoji, j.Name, j.MinLevel,
			utils.FormatNumber(j.MinPay), utils.FormatNumber(j.MaxPay))
		if level >= j.MinLevel && user.Job != j.ID {
			options = append(options, discordgo.SelectMenuOption{
				Label:       j.Name,
				Value:       j.ID,
				Description: fmt.Sprintf("%s-%s coins per shift", utils.FormatNumber(j.MinPay), utils.FormatNumber(j.MaxPay)),
				Emoji:       &discordgo.ComponentEmoji{Name: j.Emoji},
			})
		}
	}

	embed := utils.CreateBrandedEmbed("💼 Jobs", b.String(), utils.BotColor)
	embed.Footer.Text = fmt.Sprintf("Your level: %d", level)
	if len(options) == 0 {
		return embed, nil
	}
	menu := utils.CreateSelectMenu(utils.BuildCustomID("job", "apply", ownerID), "Apply for a job...", options, nil, nil)
	return embed, []discordgo.MessageComponent{utils.CreateActionRow(menu)}
}

// HandleWorkCommand handles /work
func HandleWorkCommand(s utils.Discord, i *discordgo.InteractionCreate) error {
	return work(s, i, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func work(s utils.Discord, i *discordgo.InteractionCreate, rng *rand.Rand) error {
	ctx := context.Background()
	userID, err := utils.InvokerID(i)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	user, err := utils.GetUser(ctx, userID)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}
	job, ok := utils.FindJob(user.Job)
	if !ok {
		return utils.ReplyErr(s, i, utils.ErrNoJob)
	}
	if err := utils.EnforceCooldown(ctx, "work", userID, utils.WorkCooldown); err != nil {
		return utils.ReplyErr(s, i, err)
	}

	pay := ShiftPay(rng, job, user.Shifts)
	after, err := utils.UpdateCachedUser(ctx, userID, models.UserUpdate{
		WalletIncrement: pay,
		XPIncrement:     utils.WorkXP,
		ShiftsIncrement: 1,
	})
	if err != nil {
		_ = utils.ResetCooldown(ctx, "work", userID)
		return utils.ReplyErr(s, i, err)
	}

	embed := utils.CreateBrandedEmbed(fmt.Sprintf("%s Shift Complete", job.Emoji),
		fmt.Sprintf("You worked a shift as a **%s** and earned **%s**.", job.Name, utils.FormatCoins(pay)),
		utils.ColorSuccess)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "XP", Value: fmt.Sprintf("+%d", utils.WorkXP), Inline: true},
		{Name: "Shifts", Value: fmt.Sprintf("%d", after.Shifts), Inline: true},
		{Name: "Wallet", Value: utils.FormatCoins(after.Wallet), Inline: true},
	}
	if bonus := ShiftBonus(after.Shifts - 1); bonus > 0 {
		embed.Footer.Text = fmt.Sprintf("Experience bonus: +%.0f%%", bonus*100)
	}
	if level, ok := utils.LevelUp(user, after); ok {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "⬆️ Level Up", Value: fmt.Sprintf("You reached level **%d**!", level)})
	}
	return utils.SendInteractionResponse(s, i, embed, nil, false)
}
