package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCustomID(t *testing.T) {
	tests := []struct {
		id     string
		prefix string
		action string
		args   []string
	}{
		{"ping", "ping", "", nil},
		{"ticket:close", "ticket", "close", nil},
		{"blackjack:hit:abc", "blackjack", "hit", []string{"abc"}},
		{"suggest:up:3:a.b", "suggest", "up", []string{"3", "a.b"}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			prefix, action, args := ParseCustomID(tt.id)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.action, action)
			assert.Equal(t, tt.args, args)
			assert.Equal(t, tt.prefix, CustomIDPrefix(tt.id))
		})
	}
	assert.Equal(t, "blackjack:hit:abc", BuildCustomID("blackjack", "hit", "abc"))
}

func TestVotersRoundTrip(t *testing.T) {
	ids := []string{"123456789012345678", "987654321098765432"}
	field := EncodeVoters(ids)
	assert.NotContains(t, field, ":")

	got, ok := DecodeVoters(field)
	assert.True(t, ok)
	assert.Equal(t, ids, got)

	got, ok = DecodeVoters("")
	assert.True(t, ok)
	assert.Empty(t, got)

	_, ok = DecodeVoters(VotersOverflow)
	assert.False(t, ok)

	assert.Equal(t, "", EncodeVoters([]string{"not-a-snowflake"}))
}

func TestSuggestionVoteID(t *testing.T) {
	voters := []string{"123456789012345678"}
	id := SuggestionVoteID("up", 7, voters)
	assert.True(t, strings.HasPrefix(id, "suggest:up:7:"))

	side, number, got, complete, err := ParseSuggestionVoteID(id)
	require.NoError(t, err)
	assert.Equal(t, "up", side)
	assert.Equal(t, 7, number)
	assert.Equal(t, voters, got)
	assert.True(t, complete)

	_, _, got, complete, err = ParseSuggestionVoteID("suggest:down:7:")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, complete)
}

func TestSuggestionVoteIDOverflow(t *testing.T) {
	var voters []string
	for i := 0; i < 10; i++ {
		voters = append(voters, "1234567890123456"+string(rune('0'+i))+"0")
	}
	id := SuggestionVoteID("down", 12, voters)
	assert.LessOrEqual(t, len(id), MaxCustomIDLength)
	assert.Equal(t, "suggest:down:12:"+VotersOverflow, id)

	_, number, got, complete, err := ParseSuggestionVoteID(id)
	require.NoError(t, err)
	assert.Equal(t, 12, number)
	assert.Nil(t, got)
	assert.False(t, complete)
}

func TestParseSuggestionVoteIDInvalid(t *testing.T) {
	for _, id := range []string{"ticket:up:1", "suggest:up", "suggest:up:x:"} {
		_, _, _, _, err := ParseSuggestionVoteID(id)
		assert.ErrorIs(t, err, ErrNotFound, id)
	}
}
