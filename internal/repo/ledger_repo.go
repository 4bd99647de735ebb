// Package repo implements the data persistence layer for the rental
// contract. This file stores ledger balances keyed by (account, asset).
//
// The repository is thin: it never checks sufficiency. The ledger package
// owns the debit rules and calls these functions inside its transaction.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/rentald/internal/domain"
)

// GetBalance returns the amount of asset held by account, zero when the
// account has never been credited.
func GetBalance(ctx context.Context, db *gorm.DB, account string, asset domain.Asset) (decimal.Decimal, error) {
	var b domain.Balance
	err := db.WithContext(ctx).
		Where("account = ? AND asset = ?", account, asset).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return b.Amount, nil
}

// PutBalance upserts the position for (account, asset).
func PutBalance(ctx context.Context, db *gorm.DB, account string, asset domain.Asset, amount decimal.Decimal) error {
	b := domain.Balance{
		Account:   account,
		Asset:     asset,
		Amount:    amount,
		UpdatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account"}, {Name: "asset"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&b).Error
}

// ListBalances returns every position of account ordered by asset.
func ListBalances(ctx context.Context, db *gorm.DB, account string) ([]domain.Balance, error) {
	var out []domain.Balance
	err := db.WithContext(ctx).
		Where("account = ?", account).
		Order("asset ASC").
		Find(&out).Error
	return out, err
}
