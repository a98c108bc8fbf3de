package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in        string
		available int64
		want      int64
	}{
		{"100", 1000, 100},
		{"1,000", 5000, 1000},
		{"1_500", 5000, 1500},
		{"1.5k", 0, 1500},
		{"2K", 0, 2000},
		{"1m", 0, 1_000_000},
		{"all", 777, 777},
		{"MAX", 777, 777},
		{"half", 777, 388},
		{"50%", 1000, 500},
		{"  25  ", 0, 25},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in, tt.available)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "101%", "-5%", "k", "NaN", "1e30m"} {
		_, err := ParseAmount(in, 100)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestParseBet(t *testing.T) {
	bet, err := ParseBet("50", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(50), bet)

	_, err = ParseBet("5", 100)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ParseBet("500", 100)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = ParseBet("all", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount, "an empty wallet can't meet the minimum")
}
