package utils

import (
	"context"

	"harbor-go/models"
)

// Store is the persistence boundary. PostgresStore is used when a database
// is configured and reachable; MemoryStore otherwise.
type Store interface {
	// Users
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	CreateUser(ctx context.Context, userID int64, wallet int64) (*models.User, error)
	UpdateUser(ctx context.Context, userID int64, upd models.UserUpdate) (*models.User, error)
	// DebitWallet subtracts amount only if the wallet covers it
	DebitWallet(ctx context.Context, userID int64, amount int64) (*models.User, error)
	// MoveFunds moves amount between wallet and bank; toBank selects direction
	MoveFunds(ctx context.Context, userID int64, amount int64, toBank bool) (*models.User, error)
	Transfer(ctx context.Context, fromID, toID int64, amount int64) (*models.User, *models.User, error)
	AdjustItem(ctx context.Context, userID int64, itemID string, delta int) (int, error)
	TopUsers(ctx context.Context, limit int) ([]*models.User, error)

	// Guild settings and counters
	GetGuildSettings(ctx context.Context, guildID string) (*models.GuildSettings, error)
	SaveGuildSettings(ctx context.Context, settings *models.GuildSettings) error
	NextCounter(ctx context.Context, guildID, name string) (int, error)

	// Tickets
	CreateTicket(ctx context.Context, t *models.Ticket) error
	GetTicket(ctx context.Context, channelID string) (*models.Ticket, error)
	GetOpenTicketByOwner(ctx context.Context, guildID, ownerID string) (*models.Ticket, error)
	UpdateTicket(ctx context.Context, t *models.Ticket) error
	ListOpenTickets(ctx context.Context) ([]*models.Ticket, error)
	SaveTranscript(ctx context.Context, t *models.Transcript) error
	GetTranscript(ctx context.Context, id string) (*models.Transcript, error)

	// Suggestions
	CreateSuggestion(ctx context.Context, s *models.Suggestion) error
	GetSuggestion(ctx context.Context, guildID string, number int) (*models.Suggestion, error)
	UpdateSuggestion(ctx context.Context, s *models.Suggestion) error
	// MutateSuggestion applies fn to the stored suggestion and saves the
	// result atomically. It reports ErrNotFound when the stored suggestion
	// belongs to a different message than messageID. An error from fn
	// aborts the write and is returned as is.
	MutateSuggestion(ctx context.Context, guildID string, number int, messageID string, fn func(*models.Suggestion) error) (*models.Suggestion, error)

	// Progressive jackpot
	GetJackpot(ctx context.Context) (int64, error)
	AddJackpot(ctx context.Context, delta int64) (int64, error)
	// ResetJackpot returns the amount before the reset
	ResetJackpot(ctx context.Context, seed int64) (int64, error)

	Ping(ctx context.Context) error
	Close()
}

// DB is the active store. It is never nil after SetupDatabase.
var DB Store = NewMemoryStore()

// sameMessage reports whether a stored suggestion can belong to messageID.
// An empty side means the message isn't known yet.
func sameMessage(stored, messageID string) bool {
	return stored == "" || messageID == "" || stored == messageID
}
