package models

import (
	"time"
)

// User is the economy record kept for every Discord user that touches the bot
type User struct {
	UserID     int64          `json:"user_id"`
	Wallet     int64          `json:"wallet"`
	Bank       int64          `json:"bank"`
	Inventory  map[string]int `json:"inventory"`
	Job        string         `json:"job"`
	Shifts     int            `json:"shifts"`
	XP         int64          `json:"xp"`
	LastDaily  *time.Time     `json:"last_daily"`
	LastWeekly *time.Time     `json:"last_weekly"`
	CreatedAt  time.Time      `json:"created_at"`
}

// UserUpdate describes a change to a user row. Increment fields are added to
// the stored values; pointer fields overwrite when non-nil.
type UserUpdate struct {
	WalletIncrement int64      `json:"wallet_increment,omitempty"`
	BankIncrement   int64      `json:"bank_increment,omitempty"`
	XPIncrement     int64      `json:"xp_increment,omitempty"`
	ShiftsIncrement int        `json:"shifts_increment,omitempty"`
	Job             *string    `json:"job,omitempty"`
	ResetShifts     bool       `json:"reset_shifts,omitempty"`
	LastDaily       *time.Time `json:"last_daily,omitempty"`
	LastWeekly      *time.Time `json:"last_weekly,omitempty"`
}

// IsEmpty reports whether the update would change nothing
func (u UserUpdate) IsEmpty() bool {
	return u.WalletIncrement == 0 && u.BankIncrement == 0 && u.XPIncrement == 0 &&
		u.ShiftsIncrement == 0 && u.Job == nil && !u.ResetShifts &&
		u.LastDaily == nil && u.LastWeekly == nil
}

// NetWorth is wallet plus bank
func (u *User) NetWorth() int64 {
	return u.Wallet + u.Bank
}

// ItemCount returns how many of an item the user holds
func (u *User) ItemCount(itemID string) int {
	if u.Inventory == nil {
		return 0
	}
	return u.Inventory[itemID]
}

// HasJob reports whether the user is currently employed
func (u *User) HasJob() bool {
	return u.Job != ""
}

// Clone returns a deep copy so cached values can't be mutated by callers
func (u *User) Clone() *User {
	c := *u
	if u.Inventory != nil {
		c.Inventory = make(map[string]int, len(u.Inventory))
		for k, v := range u.Inventory {
			c.Inventory[k] = v
		}
	}
	if u.LastDaily != nil {
		t := *u.LastDaily
		c.LastDaily = &t
	}
	if u.LastWeekly != nil {
		t := *u.LastWeekly
		c.LastWeekly = &t
	}
	return &c
}

// Apply mutates the user in place with the given update
func (u *User) Apply(upd UserUpdate) {
	u.Wallet += upd.WalletIncrement
	u.Bank += upd.BankIncrement
	u.XP += upd.XPIncrement
	if upd.ResetShifts {
		u.Shifts = 0
	}
	u.Shifts += upd.ShiftsIncrement
	if upd.Job != nil {
		u.Job = *upd.Job
	}
	if upd.LastDaily != nil {
		t := *upd.LastDaily
		u.LastDaily = &t
	}
	if upd.LastWeekly != nil {
		t := *upd.LastWeekly
		u.LastWeekly = &t
	}
}
