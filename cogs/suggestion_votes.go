package cogs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"harbor-go/models"
	"harbor-go/utils"
)

// HandleSuggestionVote toggles the clicker's vote and re-renders the message
func HandleSuggestionVote(s utils.Discord, i *discordgo.InteractionCreate) error {
	ctx := context.Background()
	side, number, _, _, err := utils.ParseSuggestionVoteID(i.MessageComponentData().CustomID)
	if err != nil {
		return utils.ReplyErr(s, i, err)
	}

	userID := utils.InteractionUserID(i)
	sg, err := mutateSuggestion(ctx, i.GuildID, number, i.Message, func(sg *models.Suggestion) error {
		if !sg.IsPending() {
			return errSuggestionDecided
		}
		sg.ToggleVote(userID, models.VoteSide(side))
		return nil
	})
	if errors.Is(err, errSuggestionDecided) {
		return utils.RespondError(s, i, "Voting has closed on this suggestion.")
	}
	if err != nil {
		return utils.RespondError(s, i, "I can't find the votes for this suggestion any more.")
	}
	return utils.UpdateComponentInteraction(s, i, SuggestionEmbed(sg), SuggestionComponents(sg))
}

// SuggestionFromMessage rebuilds a pending suggestion from its posted
// message: voters from the vote buttons and content and author from the
// embed. It fails when a voter list overflowed into the store.
func SuggestionFromMessage(guildID string, number int, msg *discordgo.Message) (*models.Suggestion, error) {
	if msg == nil {
		return nil, utils.ErrNotFound
	}
	sg := &models.Suggestion{
		GuildID:    guildID,
		Number:     number,
		ChannelID:  msg.ChannelID,
		MessageID:  msg.ID,
		Upvoters:   []string{},
		Downvoters: []string{},
		Status:     models.SuggestionPending,
		CreatedAt:  msg.Timestamp,
	}

	found := 0
	for _, b := range utils.Buttons(msg.Components) {
		side, n, voters, complete, err := utils.ParseSuggestionVoteID(b.CustomID)
		if err != nil || n != number || (side != string(models.VoteUp) && side != string(models.VoteDown)) {
			continue
		}
		if !complete {
			return nil, fmt.Errorf("suggestion %d voters overflowed: %w", number, utils.ErrStoreUnavailable)
		}
		if side == string(models.VoteUp) {
			sg.Upvoters = voters
		} else {
			sg.Downvoters = voters
		}
		found++
	}
	if found == 0 {
		return nil, utils.ErrNotFound
	}

	if len(msg.Embeds) > 0 {
		embed := msg.Embeds[0]
		sg.Content = embed.Description
		for _, f := range embed.Fields {
			if f.Name == authorFieldName {
				sg.AuthorID = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(f.Value, "<@"), "!"), ">")
			}
		}
	}
	return sg, nil
}
