package utils

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"

	"harbor-go/models"
)

// TicketTracker keeps open tickets in memory keyed by channel ID and falls
// back to the store on a miss. When the store fails the map keeps working.
type TicketTracker struct {
	mu   sync.RWMutex
	open map[string]*models.Ticket
	now  func() time.Time
}

// Global ticket tracker
var Tickets = NewTicketTracker()

func NewTicketTracker() *TicketTracker {
	return &TicketTracker{
		open: make(map[string]*models.Ticket),
		now:  time.Now,
	}
}

func (tt *TicketTracker) put(t *models.Ticket) {
	c := *t
	tt.mu.Lock()
	tt.open[t.ChannelID] = &c
	tt.mu.Unlock()
}

// Load warms the map with the store's open tickets
func (tt *TicketTracker) Load(ctx context.Context) error {
	tickets, err := DB.ListOpenTickets(ctx)
	if err != nil {
		return err
	}
	for _, t := range tickets {
		tt.put(t)
	}
	slog.Info("loaded open tickets", "count", len(tickets))
	return nil
}

// Open records a new ticket. A user may have one open ticket per guild.
func (tt *TicketTracker) Open(ctx context.Context, t *models.Ticket) error {
	if existing, err := tt.OpenByOwner(ctx, t.GuildID, t.OwnerID); err == nil && existing != nil {
		return ErrAlreadyExists
	}

	t.Status = models.TicketOpen
	if t.CreatedAt.IsZero() {
		t.CreatedAt = tt.now().UTC()
	}
	if err := DB.CreateTicket(ctx, t); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return err
		}
		slog.Error("failed to persist ticket, tracking in memory only", "channel_id", t.ChannelID, tint.Err(err))
	}
	tt.put(t)
	return nil
}

// Get returns the ticket bound to a channel
func (tt *TicketTracker) Get(ctx context.Context, channelID string) (*models.Ticket, error) {
	tt.mu.RLock()
	t, ok := tt.open[channelID]
	tt.mu.RUnlock()
	if ok {
		c := *t
		return &c, nil
	}

	stored, err := DB.GetTicket(ctx, channelID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("ticket lookup failed", "channel_id", channelID, tint.Err(err))
			return nil, ErrNotFound
		}
		return nil, err
	}
	if stored.IsOpen() {
		tt.put(stored)
	}
	return stored, nil
}

// OpenByOwner returns the owner's open ticket in a guild
func (tt *TicketTracker) OpenByOwner(ctx context.Context, guildID, ownerID string) (*models.Ticket, error) {
	tt.mu.RLock()
	for _, t := range tt.open {
		if t.GuildID == guildID && t.OwnerID == ownerID && t.IsOpen() {
			c := *t
			tt.mu.RUnlock()
			return &c, nil
		}
	}
	tt.mu.RUnlock()

	stored, err := DB.GetOpenTicketByOwner(ctx, guildID, ownerID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slog.Warn("open ticket lookup failed", "guild_id", guildID, "owner_id", ownerID, tint.Err(err))
		}
		return nil, ErrNotFound
	}
	tt.put(stored)
	return stored, nil
}

// Update persists changes to a ticket. Closed tickets leave the map.
func (tt *TicketTracker) Update(ctx context.Context, t *models.Ticket) error {
	if err := DB.UpdateTicket(ctx, t); err != nil && !errors.Is(err, ErrNotFound) {
		slog.Error("failed to persist ticket update", "channel_id", t.ChannelID, tint.Err(err))
	}

	if t.IsOpen() {
		tt.put(t)
		return nil
	}
	tt.mu.Lock()
	delete(tt.open, t.ChannelID)
	tt.mu.Unlock()
	return nil
}

// Close marks the ticket closed. Only the first caller for a channel wins;
// later calls get ErrNotFound.
func (tt *TicketTracker) Close(ctx context.Context, channelID, closedBy string) (*models.Ticket, error) {
	if _, err := tt.Get(ctx, channelID); err != nil {
		return nil, err
	}

	tt.mu.Lock()
	t, ok := tt.open[channelID]
	if !ok || !t.IsOpen() {
		tt.mu.Unlock()
		return nil, ErrNotFound
	}
	// the entry stays in the map as closed until the store has it, so a
	// racing Get can't read the stale open row back in
	now := tt.now().UTC()
	t.Status = models.TicketClosed
	t.ClosedBy = closedBy
	t.ClosedAt = &now
	closed := *t
	tt.mu.Unlock()

	return &closed, tt.Update(ctx, &closed)
}

// Claim assigns an open ticket to staffID. If someone already holds it the
// current ticket is returned with ErrAlreadyExists.
func (tt *TicketTracker) Claim(ctx context.Context, channelID, staffID string) (*models.Ticket, error) {
	if _, err := tt.Get(ctx, channelID); err != nil {
		return nil, err
	}

	tt.mu.Lock()
	t, ok := tt.open[channelID]
	if !ok || !t.IsOpen() {
		tt.mu.Unlock()
		return nil, ErrNotFound
	}
	if t.ClaimedBy != "" {
		c := *t
		tt.mu.Unlock()
		return &c, ErrAlreadyExists
	}
	t.ClaimedBy = staffID
	c := *t
	tt.mu.Unlock()

	if err := DB.UpdateTicket(ctx, &c); err != nil && !errors.Is(err, ErrNotFound) {
		slog.Error("failed to persist ticket claim", "channel_id", channelID, tint.Err(err))
	}
	return &c, nil
}

// Count returns the number of tracked open tickets
func (tt *TicketTracker) Count() int {
	tt.mu.RLock()
	defer tt.mu.RUnlock()
	return len(tt.open)
}

// Reconcile closes open tickets whose channel no longer exists
func (tt *TicketTracker) Reconcile(ctx context.Context, s Discord) int {
	candidates := make(map[string]*models.Ticket)
	if stored, err := DB.ListOpenTickets(ctx); err == nil {
		for _, t := range stored {
			candidates[t.ChannelID] = t
		}
	} else {
		slog.Warn("listing open tickets failed", tint.Err(err))
	}
	tt.mu.RLock()
	for id, t := range tt.open {
		c := *t
		candidates[id] = &c
	}
	tt.mu.RUnlock()

	closed := 0
	for id, t := range candidates {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Channel(id, discordgo.WithContext(ctx)); !IsUnknownResource(err) {
			continue
		}
		now := tt.now().UTC()
		t.Status = models.TicketClosed
		t.ClosedAt = &now
		_ = tt.Update(ctx, t)
		closed++
	}
	if closed > 0 {
		slog.Info("reconciled orphaned tickets", "closed", closed)
	}
	return closed
}

// IsUnknownResource reports whether err is a Discord 404
func IsUnknownResource(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return true
	}
	return restErr.Message != nil && (restErr.Message.Code == discordgo.ErrCodeUnknownChannel ||
		restErr.Message.Code == discordgo.ErrCodeUnknownMessage)
}
