package models

import "time"

// TicketStatus is the lifecycle state of a support ticket
type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

// Ticket is a private support channel opened by one member
type Ticket struct {
	ChannelID    string       `json:"channel_id"`
	GuildID      string       `json:"guild_id"`
	OwnerID      string       `json:"owner_id"`
	Number       int          `json:"number"`
	Reason       string       `json:"reason"`
	Status       TicketStatus `json:"status"`
	ClaimedBy    string       `json:"claimed_by,omitempty"`
	ClosedBy     string       `json:"closed_by,omitempty"`
	TranscriptID string       `json:"transcript_id,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	ClosedAt     *time.Time   `json:"closed_at,omitempty"`
}

// IsOpen reports whether the ticket is still active
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketOpen
}

// Transcript is the plain-text log of a closed ticket channel
type Transcript struct {
	ID        string    `json:"id"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	OwnerID   string    `json:"owner_id"`
	Messages  int       `json:"messages"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
