package utils

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrSelfTarget        = errors.New("cannot target yourself")
	ErrOnCooldown        = errors.New("on cooldown")
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrForbidden         = errors.New("forbidden")
	ErrSessionExpired    = errors.New("session expired")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrLevelTooLow       = errors.New("level too low")
	ErrNoJob             = errors.New("no job")
	ErrNotConfigured     = errors.New("not configured")
)

// CooldownError carries how long until an action is available again
type CooldownError struct {
	Action    string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s on cooldown for %s", e.Action, e.Remaining)
}

func (e *CooldownError) Unwrap() error {
	return ErrOnCooldown
}

// UserMessage turns an error into text that is safe to show in Discord
func UserMessage(err error) string {
	var cd *CooldownError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cd):
		return fmt.Sprintf("You can do that again in **%s**.", FormatDuration(cd.Remaining))
	case errors.Is(err, ErrInsufficientFunds):
		return "You don't have enough coins for that."
	case errors.Is(err, ErrInvalidAmount):
		return "That amount isn't valid."
	case errors.Is(err, ErrSelfTarget):
		return "You can't target yourself."
	case errors.Is(err, ErrNotFound):
		return "Nothing was found."
	case errors.Is(err, ErrAlreadyExists):
		return "That already exists."
	case errors.Is(err, ErrForbidden):
		return "You don't have permission to do that."
	case errors.Is(err, ErrSessionExpired):
		return "This interaction has expired."
	case errors.Is(err, ErrLevelTooLow):
		return "Your level is too low for that."
	case errors.Is(err, ErrNoJob):
		return "You don't have a job. Use `/job list` to find one."
	case errors.Is(err, ErrNotConfigured):
		return "This feature hasn't been set up on this server yet."
	case errors.Is(err, ErrStoreUnavailable):
		return "Data storage is unavailable right now. Please try again later."
	}
	return "Something went wrong. Please try again."
}

// IsUserError reports whether err is an expected outcome of bad input rather
// than a fault worth logging
func IsUserError(err error) bool {
	for _, target := range []error{
		ErrInsufficientFunds, ErrInvalidAmount, ErrSelfTarget, ErrOnCooldown,
		ErrNotFound, ErrAlreadyExists, ErrForbidden, ErrSessionExpired,
		ErrLevelTooLow, ErrNoJob, ErrNotConfigured,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
