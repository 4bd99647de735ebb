// Package ledger moves fee-token and native balances between accounts.
//
// Every mutating call takes the caller's *gorm.DB, which is expected to be
// an open transaction: a failed debit leaves the transaction usable and the
// caller decides whether to roll back.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/rentald/internal/domain"
	"github.com/tbourn/rentald/internal/repo"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the source balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount is returned for negative transfers and non-positive deposits.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Ledger is the funding ledger client. The zero value is ready to use.
type Ledger struct{}

// New returns a Ledger.
func New() *Ledger { return &Ledger{} }

// BalanceOf returns the amount of asset held by account.
func (l *Ledger) BalanceOf(ctx context.Context, db *gorm.DB, asset domain.Asset, account string) (decimal.Decimal, error) {
	return repo.GetBalance(ctx, db, account, asset)
}

// Transfer debits from and credits to by amount. A zero amount is a no-op.
func (l *Ledger) Transfer(ctx context.Context, tx *gorm.DB, asset domain.Asset, from, to string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if amount.IsZero() || from == to {
		return nil
	}
	src, err := repo.GetBalance(ctx, tx, from, asset)
	if err != nil {
		return err
	}
	if src.LessThan(amount) {
		return fmt.Errorf("%w: %s has %s %s, needs %s", ErrInsufficientFunds, from, src, asset, amount)
	}
	dst, err := repo.GetBalance(ctx, tx, to, asset)
	if err != nil {
		return err
	}
	if err := repo.PutBalance(ctx, tx, from, asset, src.Sub(amount)); err != nil {
		return err
	}
	return repo.PutBalance(ctx, tx, to, asset, dst.Add(amount))
}

// Deposit credits to with externally supplied funds.
func (l *Ledger) Deposit(ctx context.Context, tx *gorm.DB, asset domain.Asset, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	cur, err := repo.GetBalance(ctx, tx, to, asset)
	if err != nil {
		return decimal.Zero, err
	}
	next := cur.Add(amount)
	if err := repo.PutBalance(ctx, tx, to, asset, next); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}
