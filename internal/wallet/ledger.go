// Package wallet moves money between wallets inside a caller's database
// transaction and records a Transaction row for every movement.
package wallet

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kingsloob1/snipfair-app-sub000/internal/apperr"
	"github.com/kingsloob1/snipfair-app-sub000/internal/domain"
	"github.com/kingsloob1/snipfair-app-sub000/internal/utils"
)

// Entry describes the Transaction row written for a movement
type Entry struct {
	Type          string
	AppointmentID *uint
	Reference     string
}

// WalletKey is the cache key of a user's wallet
func WalletKey(userID uint) string {
	return "wallet:user:" + strconv.FormatUint(uint64(userID), 10)
}

// HistoryPrefix prefixes every cached history page of a user
func HistoryPrefix(userID uint) string {
	return "txhistory:user:" + strconv.FormatUint(uint64(userID), 10) + ":"
}

// Find loads the wallet of userID
func Find(tx *gorm.DB, userID uint) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := tx.Where("user_id = ?", userID).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Wallet not found")
		}
		return nil, err
	}
	return &w, nil
}

// Debit takes amount from the user's wallet. The update only applies while
// the balance covers the amount, so concurrent debits never drive it negative.
func Debit(tx *gorm.DB, userID uint, amount float64, e Entry) (*domain.Wallet, error) {
	w, err := Find(tx, userID)
	if err != nil {
		return nil, err
	}
	amount = utils.RoundMoney(amount)
	if amount <= 0 {
		return w, nil
	}
	res := tx.Model(&domain.Wallet{}).
		Where("id = ? AND balance >= ?", w.ID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.InsufficientFunds()
	}
	t := domain.Transaction{
		FromWalletID:  &w.ID,
		AppointmentID: e.AppointmentID,
		Amount:        amount,
		Type:          e.Type,
		Reference:     e.Reference,
	}
	if err := tx.Create(&t).Error; err != nil {
		return nil, err
	}
	w.Balance = utils.RoundMoney(w.Balance - amount)
	return w, nil
}

// Credit adds amount to the user's wallet, opening one if the user has none
func Credit(tx *gorm.DB, userID uint, amount float64, e Entry) (*domain.Wallet, error) {
	var w domain.Wallet
	if err := tx.Where(domain.Wallet{UserID: userID}).FirstOrCreate(&w).Error; err != nil {
		return nil, err
	}
	amount = utils.RoundMoney(amount)
	if amount <= 0 {
		return &w, nil
	}
	if err := tx.Model(&domain.Wallet{}).Where("id = ?", w.ID).
		Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return nil, err
	}
	t := domain.Transaction{
		ToWalletID:    &w.ID,
		AppointmentID: e.AppointmentID,
		Amount:        amount,
		Type:          e.Type,
		Reference:     e.Reference,
	}
	if err := tx.Create(&t).Error; err != nil {
		return nil, err
	}
	w.Balance = utils.RoundMoney(w.Balance + amount)
	return &w, nil
}

// Transfer debits from and credits to in one call, recording a single row
func Transfer(tx *gorm.DB, fromUserID, toUserID uint, amount float64, e Entry) error {
	from, err := Find(tx, fromUserID)
	if err != nil {
		return err
	}
	var to domain.Wallet
	if err := tx.Where(domain.Wallet{UserID: toUserID}).FirstOrCreate(&to).Error; err != nil {
		return err
	}
	amount = utils.RoundMoney(amount)
	res := tx.Model(&domain.Wallet{}).
		Where("id = ? AND balance >= ?", from.ID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.InsufficientFunds()
	}
	if err := tx.Model(&domain.Wallet{}).Where("id = ?", to.ID).
		Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return err
	}
	t := domain.Transaction{
		FromWalletID:  &from.ID,
		ToWalletID:    &to.ID,
		AppointmentID: e.AppointmentID,
		Amount:        amount,
		Type:          e.Type,
		Reference:     e.Reference,
	}
	return tx.Create(&t).Error
}

// Invalidate drops the cached wallet and every cached history page of the users
func Invalidate(ctx context.Context, rdb *redis.Client, userIDs ...uint) {
	for _, id := range userIDs {
		_ = utils.DeleteCache(ctx, rdb, WalletKey(id))
		_ = utils.DeleteByPrefix(ctx, rdb, HistoryPrefix(id))
	}
}
