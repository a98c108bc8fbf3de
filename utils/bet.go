package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseAmount parses a coin amount relative to an available balance.
// Accepts plain numbers, "all", "allin", "max", "half", "N%", and k/m
// suffixes with optional decimals ("1.5k"). Commas and underscores are
// ignored.
func ParseAmount(amountStr string, available int64) (int64, error) {
	amountStr = strings.TrimSpace(strings.ToLower(amountStr))
	amountStr = strings.ReplaceAll(amountStr, ",", "")
	amountStr = strings.ReplaceAll(amountStr, "_", "")

	if amountStr == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}

	switch amountStr {
	case "all", "allin", "max":
		return available, nil
	case "half":
		return available / 2, nil
	}

	if strings.HasSuffix(amountStr, "%") {
		percent, err := strconv.ParseFloat(strings.TrimSuffix(amountStr, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid percentage %q", ErrInvalidAmount, amountStr)
		}
		if percent < 0 || percent > 100 {
			return 0, fmt.Errorf("%w: percentage must be between 0 and 100", ErrInvalidAmount)
		}
		return int64(float64(available) * percent / 100), nil
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(amountStr, "k"):
		multiplier = 1_000
		amountStr = strings.TrimSuffix(amountStr, "k")
	case strings.HasSuffix(amountStr, "m"):
		multiplier = 1_000_000
		amountStr = strings.TrimSuffix(amountStr, "m")
	}

	value, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, amountStr)
	}
	total := value * multiplier
	if total > math.MaxInt64/2 {
		return 0, fmt.Errorf("%w: too large", ErrInvalidAmount)
	}
	return int64(total), nil
}

// ParseBet parses a bet and validates it against the wallet and MinBet
func ParseBet(betStr string, wallet int64) (int64, error) {
	bet, err := ParseAmount(betStr, wallet)
	if err != nil {
		return 0, err
	}
	if bet < MinBet {
		return 0, fmt.Errorf("%w: minimum bet is %d", ErrInvalidAmount, MinBet)
	}
	if bet > wallet {
		return 0, ErrInsufficientFunds
	}
	return bet, nil
}
