package models

import "time"

// GuildSettings holds per-guild channel and role bindings. Empty strings mean
// "not configured here"; lookups fall through to the next settings source.
type GuildSettings struct {
	GuildID                   string    `json:"guild_id"`
	TicketCategoryID          string    `json:"ticket_category_id"`
	TicketStaffRoleID         string    `json:"ticket_staff_role_id"`
	TicketLogChannelID        string    `json:"ticket_log_channel_id"`
	SuggestionChannelID       string    `json:"suggestion_channel_id"`
	SuggestionResultChannelID string    `json:"suggestion_result_channel_id"`
	VerifiedRoleID            string    `json:"verified_role_id"`
	UnverifiedRoleID          string    `json:"unverified_role_id"`
	VerificationChannelID     string    `json:"verification_channel_id"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// SettingKey names one configurable field of GuildSettings
type SettingKey string

const (
	SettingTicketCategory          SettingKey = "ticket_category"
	SettingTicketStaffRole         SettingKey = "ticket_staff_role"
	SettingTicketLogChannel        SettingKey = "ticket_log_channel"
	SettingSuggestionChannel       SettingKey = "suggestion_channel"
	SettingSuggestionResultChannel SettingKey = "suggestion_result_channel"
	SettingVerifiedRole            SettingKey = "verified_role"
	SettingUnverifiedRole          SettingKey = "unverified_role"
	SettingVerificationChannel     SettingKey = "verification_channel"
)

// SettingKeys lists every key in display order
var SettingKeys = []SettingKey{
	SettingTicketCategory,
	SettingTicketStaffRole,
	SettingTicketLogChannel,
	SettingSuggestionChannel,
	SettingSuggestionResultChannel,
	SettingVerifiedRole,
	SettingUnverifiedRole,
	SettingVerificationChannel,
}

// Get returns the value bound to key
func (g *GuildSettings) Get(key SettingKey) string {
	if p := g.field(key); p != nil {
		return *p
	}
	return ""
}

// Set binds value to key and reports whether the key is known
func (g *GuildSettings) Set(key SettingKey, value string) bool {
	p := g.field(key)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Merge fills every empty field of g from other
func (g *GuildSettings) Merge(other *GuildSettings) {
	if other == nil {
		return
	}
	for _, k := range SettingKeys {
		if g.Get(k) == "" {
			g.Set(k, other.Get(k))
		}
	}
}

// Complete reports whether every key has a value
func (g *GuildSettings) Complete() bool {
	for _, k := range SettingKeys {
		if g.Get(k) == "" {
			return false
		}
	}
	return true
}

func (g *GuildSettings) field(key SettingKey) *string {
	switch key {
	case SettingTicketCategory:
		return &g.TicketCategoryID
	case SettingTicketStaffRole:
		return &g.TicketStaffRoleID
	case SettingTicketLogChannel:
		return &g.TicketLogChannelID
	case SettingSuggestionChannel:
		return &g.SuggestionChannelID
	case SettingSuggestionResultChannel:
		return &g.SuggestionResultChannelID
	case SettingVerifiedRole:
		return &g.VerifiedRoleID
	case SettingUnverifiedRole:
		return &g.UnverifiedRoleID
	case SettingVerificationChannel:
		return &g.VerificationChannelID
	}
	return nil
}
