// Package payment releases one period's rent for a qualifying date, at most
// once per date.
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/rentald/internal/domain"
	"github.com/tbourn/rentald/internal/oracle"
	"github.com/tbourn/rentald/internal/repo"
)

// DefaultQualifying is the classification that marks a payment day.
const DefaultQualifying = "1"

// Outcome describes what MaybePay did.
type Outcome int

const (
	// NotQualifying: the classification is not the payment marker.
	NotQualifying Outcome = iota
	// AlreadyPaid: the date was paid before; nothing moved.
	AlreadyPaid
	// Paid: rent was transferred and the date recorded.
	Paid
)

func (o Outcome) String() string {
	switch o {
	case AlreadyPaid:
		return "already_paid"
	case Paid:
		return "paid"
	}
	return "not_qualifying"
}

// Transferer is the part of the funding ledger the engine needs.
type Transferer interface {
	Transfer(ctx context.Context, tx *gorm.DB, asset domain.Asset, from, to string, amount decimal.Decimal) error
}

// Engine decides and executes rent payments.
type Engine struct {
	Ledger     Transferer
	Qualifying string
}

// NewEngine returns an engine paying on the given classification marker.
func NewEngine(l Transferer, qualifying string) *Engine {
	if qualifying == "" {
		qualifying = DefaultQualifying
	}
	return &Engine{Ledger: l, Qualifying: qualifying}
}

// Qualifies reports whether classification marks a payment day.
func (e *Engine) Qualifies(classification string) bool {
	return classification == e.Qualifying
}

// MaybePay pays st.RentalAmount from the contract to the owner when date is
// qualifying and unpaid, and returns the RentPaid event it appended. It must
// run inside tx; ledger.ErrInsufficientFunds is returned unchanged so the
// caller rolls back.
func (e *Engine) MaybePay(ctx context.Context, tx *gorm.DB, st *domain.ContractState, date domain.Bytes32, classification, requestID string) (Outcome, *domain.Event, error) {
	if !e.Qualifies(classification) {
		return NotQualifying, nil, nil
	}
	key := date.Key()
	paid, err := repo.IsPaid(ctx, tx, key)
	if err != nil {
		return NotQualifying, nil, err
	}
	if paid {
		return AlreadyPaid, nil, nil
	}
	if err := e.Ledger.Transfer(ctx, tx, domain.AssetNative, st.Address, st.Owner, st.RentalAmount); err != nil {
		return NotQualifying, nil, err
	}
	err = repo.InsertPaidDate(ctx, tx, domain.PaidDate{
		DateKey:     key,
		Amount:      st.RentalAmount,
		Beneficiary: st.Owner,
		RequestID:   requestID,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return AlreadyPaid, nil, nil
	}
	if err != nil {
		return NotQualifying, nil, err
	}
	ev, err := repo.AppendEvent(ctx, tx, oracle.EventRentPaid, requestID, oracle.RentPaidEvent{
		Date:   date.Hex(),
		Amount: st.RentalAmount.String(),
		To:     st.Owner,
	})
	if err != nil {
		return NotQualifying, nil, err
	}
	return Paid, ev, nil
}
