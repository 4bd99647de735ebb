package repo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/rentald/internal/domain"
)

const stateRowID = 1

// GetState loads the contract configuration row.
func GetState(ctx context.Context, db *gorm.DB) (*domain.ContractState, error) {
	var st domain.ContractState
	if err := db.WithContext(ctx).First(&st, stateRowID).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

// InitState inserts the configuration row unless one exists already, in
// which case the stored row wins and created is false.
func InitState(ctx context.Context, db *gorm.DB, st domain.ContractState) (*domain.ContractState, bool, error) {
	cur, err := GetState(ctx, db)
	if err == nil {
		return cur, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	now := time.Now().UTC()
	st.ID = stateRowID
	st.CreatedAt = now
	st.UpdatedAt = now
	if err := db.WithContext(ctx).Create(&st).Error; err != nil {
		return nil, false, err
	}
	return &st, true, nil
}

// NextNonce increments the request nonce and returns the value to use for
// the next request (0 for the first one).
func NextNonce(ctx context.Context, db *gorm.DB) (uint64, error) {
	st, err := GetState(ctx, db)
	if err != nil {
		return 0, err
	}
	res := db.WithContext(ctx).Model(&domain.ContractState{}).
		Where("id = ? AND nonce = ?", stateRowID, st.Nonce).
		Updates(map[string]any{"nonce": st.Nonce + 1, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, errors.New("nonce changed concurrently")
	}
	return st.Nonce, nil
}

// UpdateRentalAmount overwrites the per-date rent.
func UpdateRentalAmount(ctx context.Context, db *gorm.DB, amount decimal.Decimal) error {
	return db.WithContext(ctx).Model(&domain.ContractState{}).
		Where("id = ?", stateRowID).
		Updates(map[string]any{"rental_amount": amount, "updated_at": time.Now().UTC()}).Error
}

// SetCurrentDate records the storage key of the date last checked.
func SetCurrentDate(ctx context.Context, db *gorm.DB, dateKey string) error {
	return db.WithContext(ctx).Model(&domain.ContractState{}).
		Where("id = ?", stateRowID).
		Updates(map[string]any{"last_date_key": dateKey, "updated_at": time.Now().UTC()}).Error
}
