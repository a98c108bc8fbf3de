package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"harbor-go/models"

	"github.com/bwmarrin/discordgo"
)

// CreateBrandedEmbed creates a basic embed with bot branding
func CreateBrandedEmbed(title, description string, color int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: BotName,
		},
	}

	return embed
}

// ErrorEmbed is a red branded embed
func ErrorEmbed(title, description string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed("❌ "+title, description, ColorError)
}

// SuccessEmbed is a green branded embed
func SuccessEmbed(title, description string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed("✅ "+title, description, ColorSuccess)
}

// InsufficientFundsEmbed explains a bet or purchase the wallet can't cover
func InsufficientFundsEmbed(required, balance int64, what string) *discordgo.MessageEmbed {
	embed := CreateBrandedEmbed(
		"Not Enough Coins",
		fmt.Sprintf("You don't have enough coins for %s.\n**Wallet:** %s\n**Required:** %s",
			what, FormatCoins(balance), FormatCoins(required)),
		ColorError,
	)
	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name:   "How to Get More Coins",
			Value:  "• `/work` a shift at your job\n• `/daily` and `/weekly` rewards\n• `/withdraw` from your bank",
			Inline: false,
		},
	}
	return embed
}

// GameTimeoutEmbed creates an embed for game timeout
func GameTimeoutEmbed(betAmount int64) *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"⏰ Game Timeout",
		fmt.Sprintf(GameTimeoutMessage, FormatCoins(betAmount)),
		0xF39C12,
	)
}

// CreateTimeoutEmbed creates a generic timeout embed
func CreateTimeoutEmbed() *discordgo.MessageEmbed {
	return CreateBrandedEmbed(
		"⏰ Timeout",
		TimeoutMessage,
		0xF39C12,
	)
}

// GameResultEmbed summarises a settled game
func GameResultEmbed(title, outcome string, bet, profit int64, after *models.User) *discordgo.MessageEmbed {
	color := ColorError
	switch {
	case profit > 0:
		color = ColorSuccess
	case profit == 0:
		color = ColorWarning
	}

	embed := CreateBrandedEmbed(title, outcome, color)
	label := "Profit"
	if profit < 0 {
		label = "Loss"
	}
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Bet", Value: FormatCoins(bet), Inline: true},
		{Name: label, Value: ProfitString(profit), Inline: true},
	}
	if after != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Wallet", Value: FormatCoins(after.Wallet), Inline: true,
		})
	}
	return embed
}

// BalanceEmbed shows wallet and bank for a user
func BalanceEmbed(user *models.User, discordUser *discordgo.User) *discordgo.MessageEmbed {
	embed := CreateBrandedEmbed(fmt.Sprintf("💰 %s's Balance", discordUser.Username), "", BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Wallet", Value: FormatCoins(user.Wallet), Inline: true},
		{Name: "Bank", Value: FormatCoins(user.Bank), Inline: true},
		{Name: "Net Worth", Value: FormatCoins(user.NetWorth()), Inline: true},
	}
	if discordUser.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: discordUser.AvatarURL("128")}
	}
	return embed
}

// UserProfileEmbed shows level, job, balances and inventory size
func UserProfileEmbed(user *models.User, discordUser *discordgo.User) *discordgo.MessageEmbed {
	level := Level(user.XP)
	cur, next := XPForLevel(level), XPForLevel(level+1)

	job := "Unemployed"
	if j, ok := FindJob(user.Job); ok {
		job = fmt.Sprintf("%s %s", j.Emoji, j.Name)
	}

	items := 0
	for _, n := range user.Inventory {
		items += n
	}

	embed := CreateBrandedEmbed(fmt.Sprintf("📇 %s's Profile", discordUser.Username), "", BotColor)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Level", Value: strconv.Itoa(level), Inline: true},
		{Name: "XP", Value: FormatNumber(user.XP), Inline: true},
		{Name: "Job", Value: job, Inline: true},
		{Name: "Wallet", Value: FormatCoins(user.Wallet), Inline: true},
		{Name: "Bank", Value: FormatCoins(user.Bank), Inline: true},
		{Name: "Items", Value: strconv.Itoa(items), Inline: true},
		{
			Name:   fmt.Sprintf("Progress to level %d", level+1),
			Value:  fmt.Sprintf("%s %s / %s", createProgressBar(user.XP, cur, next, 12), FormatNumber(user.XP-cur), FormatNumber(next-cur)),
			Inline: false,
		},
	}
	if user.Shifts > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Shifts Worked", Value: strconv.Itoa(user.Shifts), Inline: true,
		})
	}
	if discordUser.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: discordUser.AvatarURL("128")}
	}
	return embed
}

// Helper functions
func FormatCoins(amount int64) string {
	return FormatNumber(amount) + " " + CoinEmoji
}

func FormatNumber(num int64) string {
	if num < 0 {
		return "-" + FormatNumber(-num)
	}
	str := strconv.FormatInt(num, 10)
	if len(str) <= 3 {
		return str
	}

	// Add commas for thousands
	var result strings.Builder
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(r)
	}

	return result.String()
}

// ProfitString renders a signed coin amount
func ProfitString(profit int64) string {
	if profit > 0 {
		return "+" + FormatCoins(profit)
	}
	return FormatCoins(profit)
}

func createProgressBar(current, min, max int64, length int) string {
	if max <= min {
		return strings.Repeat("█", length)
	}

	progress := float64(current-min) / float64(max-min)
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	filled := int(progress * float64(length))
	empty := length - filled

	return strings.Repeat("█", filled) + strings.Repeat("░", empty)
}

// FormatDuration formats a duration into a human-readable string
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "Ready!"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours >= 24 {
		days := hours / 24
		hours = hours % 24
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	} else if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	} else if seconds == 0 {
		return "1s"
	}
	return fmt.Sprintf("%ds", seconds)
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
