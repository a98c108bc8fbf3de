package models

import "time"

// SuggestionStatus is the review state of a suggestion
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionAccepted SuggestionStatus = "accepted"
	SuggestionDenied   SuggestionStatus = "denied"
)

// Suggestion is a community proposal with up/down votes
type Suggestion struct {
	GuildID    string           `json:"guild_id"`
	Number     int              `json:"number"`
	AuthorID   string           `json:"author_id"`
	ChannelID  string           `json:"channel_id"`
	MessageID  string           `json:"message_id"`
	Content    string           `json:"content"`
	Upvoters   []string         `json:"upvoters"`
	Downvoters []string         `json:"downvoters"`
	Status     SuggestionStatus `json:"status"`
	ReviewerID string           `json:"reviewer_id,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	DecidedAt  *time.Time       `json:"decided_at,omitempty"`
}

// IsPending reports whether staff have not decided yet
func (s *Suggestion) IsPending() bool {
	return s.Status == SuggestionPending || s.Status == ""
}

// Clone returns a deep copy
func (s *Suggestion) Clone() *Suggestion {
	c := *s
	c.Upvoters = append([]string{}, s.Upvoters...)
	c.Downvoters = append([]string{}, s.Downvoters...)
	if s.DecidedAt != nil {
		ts := *s.DecidedAt
		c.DecidedAt = &ts
	}
	return &c
}

// VoteSide is which button a voter pressed
type VoteSide string

const (
	VoteUp   VoteSide = "up"
	VoteDown VoteSide = "down"
)

// ToggleVote applies a click from userID on side. Clicking the same side twice
// removes the vote, clicking the other side moves it. It returns the side the
// user ends up on, or "" if the vote was removed.
func (s *Suggestion) ToggleVote(userID string, side VoteSide) VoteSide {
	inUp := indexOf(s.Upvoters, userID)
	inDown := indexOf(s.Downvoters, userID)

	switch side {
	case VoteUp:
		if inUp >= 0 {
			s.Upvoters = removeAt(s.Upvoters, inUp)
			return ""
		}
		if inDown >= 0 {
			s.Downvoters = removeAt(s.Downvoters, inDown)
		}
		s.Upvoters = append(s.Upvoters, userID)
		return VoteUp
	case VoteDown:
		if inDown >= 0 {
			s.Downvoters = removeAt(s.Downvoters, inDown)
			return ""
		}
		if inUp >= 0 {
			s.Upvoters = removeAt(s.Upvoters, inUp)
		}
		s.Downvoters = append(s.Downvoters, userID)
		return VoteDown
	}
	return ""
}

// Score is upvotes minus downvotes
func (s *Suggestion) Score() int {
	return len(s.Upvoters) - len(s.Downvoters)
}

func indexOf(list []string, v string) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}

func removeAt(list []string, i int) []string {
	out := make([]string, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
