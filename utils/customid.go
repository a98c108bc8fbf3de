package utils

import (
	"strconv"
	"strings"
)

const (
	customIDSeparator = ":"
	voterSeparator    = "."
	// VotersOverflow replaces the voter list when it would not fit in a custom ID
	VotersOverflow = "*"
)

// BuildCustomID joins parts into a component custom ID such as
// "blackjack:hit:<session>"
func BuildCustomID(parts ...string) string {
	return strings.Join(parts, customIDSeparator)
}

// ParseCustomID splits a custom ID into its prefix, action and remaining
// arguments. Missing parts come back empty.
func ParseCustomID(customID string) (prefix, action string, args []string) {
	parts := strings.Split(customID, customIDSeparator)
	prefix = parts[0]
	if len(parts) > 1 {
		action = parts[1]
	}
	if len(parts) > 2 {
		args = parts[2:]
	}
	return prefix, action, args
}

// CustomIDPrefix returns everything before the first separator
func CustomIDPrefix(customID string) string {
	if i := strings.Index(customID, customIDSeparator); i >= 0 {
		return customID[:i]
	}
	return customID
}

// EncodeVoters packs snowflake IDs as base-36 and joins them with '.'
func EncodeVoters(ids []string) string {
	encoded := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			continue
		}
		encoded = append(encoded, strconv.FormatUint(n, 36))
	}
	return strings.Join(encoded, voterSeparator)
}

// DecodeVoters reverses EncodeVoters. ok is false when the field holds the
// overflow marker and the list has to come from the store.
func DecodeVoters(field string) (ids []string, ok bool) {
	if field == VotersOverflow {
		return nil, false
	}
	if field == "" {
		return []string{}, true
	}
	parts := strings.Split(field, voterSeparator)
	ids = make([]string, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 36, 64)
		if err != nil {
			continue
		}
		ids = append(ids, strconv.FormatUint(n, 10))
	}
	return ids, true
}

// SuggestionVoteID builds "suggest:<side>:<number>:<voters>". When the voter
// list would exceed Discord's custom ID limit it is replaced by
// VotersOverflow.
func SuggestionVoteID(side string, number int, voters []string) string {
	base := BuildCustomID("suggest", side, strconv.Itoa(number))
	id := base + customIDSeparator + EncodeVoters(voters)
	if len(id) > MaxCustomIDLength {
		return base + customIDSeparator + VotersOverflow
	}
	return id
}

// ParseSuggestionVoteID extracts the side, suggestion number and voter field
// from a vote button custom ID
func ParseSuggestionVoteID(customID string) (side string, number int, voters []string, complete bool, err error) {
	prefix, side, args := ParseCustomID(customID)
	if prefix != "suggest" || len(args) == 0 {
		return "", 0, nil, false, ErrNotFound
	}
	number, err = strconv.Atoi(args[0])
	if err != nil {
		return "", 0, nil, false, ErrNotFound
	}
	field := ""
	if len(args) > 1 {
		field = strings.Join(args[1:], customIDSeparator)
	}
	voters, complete = DecodeVoters(field)
	return side, number, voters, complete, nil
}
