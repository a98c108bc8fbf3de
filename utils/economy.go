package utils

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lmittmann/tint"

	"harbor-go/models"
)

// GetUser returns the user, creating it with the starting wallet on first
// use. Reads go through Cache.
func GetUser(ctx context.Context, userID int64) (*models.User, error) {
	if user, found := Cache.Get(userID); found {
		return user, nil
	}

	user, err := DB.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		user, err = DB.CreateUser(ctx, userID, StartingWallet)
		if err == nil {
			slog.Info("created user", "user_id", userID)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	Cache.Set(userID, user)
	return user, nil
}

// UpdateCachedUser applies updates in the store and refreshes the cache
func UpdateCachedUser(ctx context.Context, userID int64, updates models.UserUpdate) (*models.User, error) {
	if _, err := GetUser(ctx, userID); err != nil {
		return nil, err
	}
	user, err := DB.UpdateUser(ctx, userID, updates)
	if err != nil {
		Cache.Delete(userID)
		return nil, err
	}
	Cache.Set(userID, user)
	return user, nil
}

// InvalidateUserCache drops a user from the cache so the next read hits the store
func InvalidateUserCache(userID int64) {
	Cache.Delete(userID)
}

func cacheUsers(users ...*models.User) {
	for _, u := range users {
		if u != nil {
			Cache.Set(u.UserID, u)
		}
	}
}

// Deposit moves an amount string (see ParseAmount) from wallet to bank
func Deposit(ctx context.Context, userID int64, amountStr string) (*models.User, int64, error) {
	return moveFunds(ctx, userID, amountStr, true)
}

// Withdraw moves an amount string from bank to wallet
func Withdraw(ctx context.Context, userID int64, amountStr string) (*models.User, int64, error) {
	return moveFunds(ctx, userID, amountStr, false)
}

func moveFunds(ctx context.Context, userID int64, amountStr string, toBank bool) (*models.User, int64, error) {
	user, err := GetUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	source := user.Bank
	if toBank {
		source = user.Wallet
	}
	amount, err := ParseAmount(amountStr, source)
	if err != nil {
		return nil, 0, err
	}
	if amount <= 0 {
		return nil, 0, ErrInvalidAmount
	}
	if amount > source {
		return nil, 0, ErrInsufficientFunds
	}

	user, err = DB.MoveFunds(ctx, userID, amount, toBank)
	if err != nil {
		Cache.Delete(userID)
		return nil, 0, err
	}
	Cache.Set(userID, user)
	return user, amount, nil
}

// Pay moves coins from one wallet to another
func Pay(ctx context.Context, fromID, toID int64, amountStr string) (*models.User, *models.User, int64, error) {
	if fromID == toID {
		return nil, nil, 0, ErrSelfTarget
	}
	from, err := GetUser(ctx, fromID)
	if err != nil {
		return nil, nil, 0, err
	}
	if _, err := GetUser(ctx, toID); err != nil {
		return nil, nil, 0, err
	}

	amount, err := ParseAmount(amountStr, from.Wallet)
	if err != nil {
		return nil, nil, 0, err
	}
	if amount <= 0 {
		return nil, nil, 0, ErrInvalidAmount
	}
	if amount > from.Wallet {
		return nil, nil, 0, ErrInsufficientFunds
	}

	sender, receiver, err := TransferAmount(ctx, fromID, toID, amount)
	if err != nil {
		return nil, nil, 0, err
	}
	return sender, receiver, amount, nil
}

// TransferAmount moves an exact amount between wallets
func TransferAmount(ctx context.Context, fromID, toID int64, amount int64) (*models.User, *models.User, error) {
	if fromID == toID {
		return nil, nil, ErrSelfTarget
	}
	if amount <= 0 {
		return nil, nil, ErrInvalidAmount
	}
	sender, receiver, err := DB.Transfer(ctx, fromID, toID, amount)
	if err != nil {
		Cache.Delete(fromID)
		Cache.Delete(toID)
		return nil, nil, err
	}
	cacheUsers(sender, receiver)
	slog.Info("transfer", "from", fromID, "to", toID, "amount", amount)
	return sender, receiver, nil
}

// Credit adds coins and XP to a wallet
func Credit(ctx context.Context, userID int64, amount, xp int64) (*models.User, error) {
	if amount < 0 || xp < 0 {
		return nil, ErrInvalidAmount
	}
	return UpdateCachedUser(ctx, userID, models.UserUpdate{WalletIncrement: amount, XPIncrement: xp})
}

// Debit removes coins from a wallet, failing without side effects when the
// wallet can't cover it
func Debit(ctx context.Context, userID int64, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if _, err := GetUser(ctx, userID); err != nil {
		return nil, err
	}
	user, err := DB.DebitWallet(ctx, userID, amount)
	if err != nil {
		Cache.Delete(userID)
		return nil, err
	}
	Cache.Set(userID, user)
	return user, nil
}

// AddItem gives quantity of an item and returns the new count
func AddItem(ctx context.Context, userID int64, itemID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, ErrInvalidAmount
	}
	return adjustItem(ctx, userID, itemID, quantity)
}

// RemoveItem takes quantity of an item. Holding fewer yields ErrNotFound.
func RemoveItem(ctx context.Context, userID int64, itemID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, ErrInvalidAmount
	}
	return adjustItem(ctx, userID, itemID, -quantity)
}

func adjustItem(ctx context.Context, userID int64, itemID string, delta int) (int, error) {
	if _, err := GetUser(ctx, userID); err != nil {
		return 0, err
	}
	count, err := DB.AdjustItem(ctx, userID, itemID, delta)
	Cache.Delete(userID)
	return count, err
}

// BuyItem charges the wallet and adds the item. The charge is refunded if
// the inventory write fails.
func BuyItem(ctx context.Context, userID int64, item Item, quantity int) (*models.User, error) {
	if quantity <= 0 {
		return nil, ErrInvalidAmount
	}
	cost := item.Price * int64(quantity)
	if _, err := Debit(ctx, userID, cost); err != nil {
		return nil, err
	}
	if _, err := AddItem(ctx, userID, item.ID, quantity); err != nil {
		if _, refundErr := Credit(ctx, userID, cost, 0); refundErr != nil {
			slog.Error("failed to refund purchase", "user_id", userID, "item", item.ID, "amount", cost, tint.Err(refundErr))
		}
		return nil, err
	}
	return GetUser(ctx, userID)
}

// SellItem removes the item and credits its sell price
func SellItem(ctx context.Context, userID int64, item Item, quantity int) (*models.User, int64, error) {
	if _, err := RemoveItem(ctx, userID, item.ID, quantity); err != nil {
		return nil, 0, err
	}
	earned := item.SellPrice() * int64(quantity)
	user, err := Credit(ctx, userID, earned, 0)
	if err != nil {
		return nil, 0, err
	}
	return user, earned, nil
}

// Leaderboard returns the richest users by wallet plus bank
func Leaderboard(ctx context.Context, limit int) ([]*models.User, error) {
	return DB.TopUsers(ctx, limit)
}

// LevelUp reports the new level when after has crossed a level boundary
func LevelUp(before, after *models.User) (int, bool) {
	if before == nil || after == nil {
		return 0, false
	}
	oldLevel, newLevel := Level(before.XP), Level(after.XP)
	if newLevel > oldLevel && ShouldAnnounceLevelUp(after.UserID, newLevel) {
		return newLevel, true
	}
	return 0, false
}

// ProfitXP is the XP granted for a winning profit
func ProfitXP(profit int64) int64 {
	if profit <= 0 {
		return 0
	}
	return profit / XPPerProfit
}
