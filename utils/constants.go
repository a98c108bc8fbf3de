package utils

import (
	"strings"
	"time"
)

// General Configuration
const (
	BotName  = "Harbor"
	BotColor = 0x5865F2

	ColorSuccess = 0x2ecc71
	ColorError   = 0xe74c3c
	ColorWarning = 0xf1c40f
	ColorInfo    = 0x3498db
	ColorGold    = 0xFFD700
)

// Economy & XP
const (
	StartingWallet = 500
	MinBet         = 10
	XPPerProfit    = 10 // one XP per this many coins of profit
	CoinEmoji      = "🪙"
)

// Rewards
const (
	BaseDailyReward  = 250
	DailyPerLevel    = 25
	BaseWeeklyReward = 1500
	WeeklyPerLevel   = 100
	DailyCooldown    = 24 * time.Hour
	WeeklyCooldown   = 7 * 24 * time.Hour
	DailyXP          = 25
	WeeklyXP         = 150
)

// Command cooldowns
const (
	WorkCooldown      = time.Hour
	StealCooldown     = 30 * time.Minute
	GambleCooldown    = 10 * time.Second
	SlotsCooldown     = 5 * time.Second
	BlackjackCooldown = 5 * time.Second
)

// Work
const (
	WorkXP           = 15
	ShiftBonusPerTen = 0.02
	MaxShiftBonus    = 0.50
)

// Steal
const (
	StealMinWallet      = 250
	StealSuccessChance  = 0.45
	StealMinTakePercent = 10
	StealMaxTakePercent = 40
	StealFinePercent    = 25
	StealMinFine        = 50
	PadlockItem         = "padlock"
)

// Blackjack Game Constants
const (
	DeckCount             = 6 // Standard shoe size
	ShuffleThreshold      = 0.25
	DealerStandValue      = 17
	BlackjackPayout       = 1.5
	FiveCardCharliePayout = 1.75
)

// Slots
const (
	JackpotSeed             = 10000
	JackpotLossContribution = 0.05
)

// Discord limits
const (
	MaxCustomIDLength     = 100
	MaxEmbedTitle         = 256
	MaxEmbedDescription   = 4096
	MaxEmbedFields        = 25
	MaxEmbedFieldName     = 256
	MaxEmbedFieldValue    = 1024
	MaxEmbedFooter        = 2048
	MaxEmbedAuthor        = 256
	MaxEmbedTotal         = 6000
	MaxMessagesPerRequest = 100
)

// Tickets & suggestions
const (
	MaxTicketReason     = 1000
	MaxSuggestionLength = 1000
	TicketDeleteDelay   = 5 * time.Second
	TicketReconcileSpec = "@hourly"
	SessionSweepSpec    = "@every 15s"
	CacheSweepSpec      = "@every 5m"
	CooldownSweepSpec   = "@every 1m"
	TicketChannelPrefix = "ticket-"
	VerifyTextCommand   = "!verify"
)

// UI Messages
const (
	TimeoutMessage     = "You did not respond in time. The interaction has timed out."
	GameTimeoutMessage = "You did not respond in time. Your game has timed out and you have forfeited your bet of %s."
	NotYourSession     = "This isn't your session."
	SlowDownMessage    = "You're doing that too fast. Slow down a little."
)

// Job is an employer a user can work for
type Job struct {
	ID       string
	Name     string
	Emoji    string
	MinLevel int
	MinPay   int64
	MaxPay   int64
}

// Jobs is the job catalogue ordered by required level
var Jobs = []Job{
	{"cashier", "Cashier", "🧾", 0, 80, 150},
	{"barista", "Barista", "☕", 1, 120, 200},
	{"mechanic", "Mechanic", "🔧", 3, 200, 320},
	{"developer", "Developer", "💻", 5, 300, 500},
	{"doctor", "Doctor", "🩺", 8, 450, 700},
	{"ceo", "CEO", "💼", 12, 700, 1100},
}

// FindJob looks up a job by id or case-insensitive name
func FindJob(id string) (Job, bool) {
	for _, j := range Jobs {
		if j.ID == id || strings.EqualFold(j.Name, id) {
			return j, true
		}
	}
	return Job{}, false
}

// Item is something sold in the shop
type Item struct {
	ID          string
	Name        string
	Emoji       string
	Price       int64
	Description string
}

// SellPrice is what the shop pays back for one unit
func (i Item) SellPrice() int64 {
	return i.Price / 2
}

// ShopItems is the shop catalogue
var ShopItems = []Item{
	{PadlockItem, "Padlock", "🔒", 400, "Blocks one steal attempt against you. Consumed when it does."},
	{"fishing_rod", "Fishing Rod", "🎣", 750, "A sturdy rod. Looks great on a wall."},
	{"laptop", "Laptop", "💻", 2500, "For the aspiring developer."},
	{"lucky_charm", "Lucky Charm", "🍀", 5000, "Feels lucky. Probably isn't."},
	{"trophy", "Trophy", "🏆", 25000, "Proof that you made it."},
}

// FindItem looks up a shop item by id or case-insensitive name
func FindItem(id string) (Item, bool) {
	for _, it := range ShopItems {
		if it.ID == id || strings.EqualFold(it.Name, id) {
			return it, true
		}
	}
	return Item{}, false
}
