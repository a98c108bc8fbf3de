package cogs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"harbor-go/models"
	"harbor-go/utils"
)

const transcriptTimeFormat = "2006-01-02 15:04:05"

// FetchHistory returns every message in a channel, oldest first, paging
// backwards 100 at a time
func FetchHistory(ctx context.Context, s utils.Discord, channelID string) ([]*discordgo.Message, error) {
	var all []*discordgo.Message
	before := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := s.ChannelMessages(channelID, utils.MaxMessagesPerRequest, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetching messages before %q: %w", before, err)
		}
		all = append(all, page...)
		if len(page) < utils.MaxMessagesPerRequest {
			break
		}
		before = page[len(page)-1].ID
	}
	// Discord returns newest first
	for l, r := 0, len(all)-1; l < r; l, r = l+1, r-1 {
		all[l], all[r] = all[r], all[l]
	}
	return all, nil
}

// FormatTranscript renders messages as one line per message, with attachment
// URLs and embed titles on indented lines beneath
func FormatTranscript(ticket *models.Ticket, messages []*discordgo.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket #%04d\n", ticket.Number)
	fmt.Fprintf(&b, "Opened by: %s\n", ticket.OwnerID)
	if ticket.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", ticket.Reason)
	}
	fmt.Fprintf(&b, "Created: %s UTC\n", ticket.CreatedAt.UTC().Format(transcriptTimeFormat))
	fmt.Fprintf(&b, "Messages: %d\n", len(messages))
	b.WriteString(strings.Repeat("-", 48) + "\n")

	for _, m := range messages {
		author := "unknown"
		if m.Author != nil {
			author = m.Author.Username
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.Timestamp.UTC().Format(transcriptTimeFormat), author, m.Content)
		for _, a := range m.Attachments {
			fmt.Fprintf(&b, "    attachment: %s\n", a.URL)
		}
		for _, e := range m.Embeds {
			if e.Title != "" {
				fmt.Fprintf(&b, "    embed: %s\n", e.Title)
			}
		}
	}
	return b.String()
}

// BuildTranscript fetches a ticket channel's history and stores it
func BuildTranscript(ctx context.Context, s utils.Discord, ticket *models.Ticket) (*models.Transcript, error) {
	messages, err := FetchHistory(ctx, s, ticket.ChannelID)
	if err != nil {
		return nil, err
	}
	transcript := &models.Transcript{
		ID:        uuid.NewString(),
		GuildID:   ticket.GuildID,
		ChannelID: ticket.ChannelID,
		OwnerID:   ticket.OwnerID,
		Messages:  len(messages),
		Content:   FormatTranscript(ticket, messages),
		CreatedAt: time.Now().UTC(),
	}
	if err := utils.DB.SaveTranscript(ctx, transcript); err != nil {
		return transcript, fmt.Errorf("saving transcript: %w", err)
	}
	return transcript, nil
}

// TranscriptFile wraps a transcript for upload
func TranscriptFile(ticket *models.Ticket, transcript *models.Transcript) *discordgo.File {
	return &discordgo.File{
		Name:        fmt.Sprintf("ticket-%04d.txt", ticket.Number),
		ContentType: "text/plain",
		Reader:      strings.NewReader(transcript.Content),
	}
}
