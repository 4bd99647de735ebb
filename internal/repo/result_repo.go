// Package repo implements the data persistence layer for the rental
// contract. This file stores the per-date oracle classification and the
// paid-date guard. Both tables are write-once: inserts never overwrite.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/rentald/internal/domain"
)

// GetBusinessDay returns the stored classification for a date key, or
// ErrNotFound.
func GetBusinessDay(ctx context.Context, db *gorm.DB, dateKey string) (*domain.BusinessDay, error) {
	var row domain.BusinessDay
	if err := db.WithContext(ctx).Where("date_key = ?", dateKey).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// InsertBusinessDay stores a classification unless the date already has
// one. It returns the row that is stored afterwards and whether this call
// created it.
func InsertBusinessDay(ctx context.Context, db *gorm.DB, row domain.BusinessDay) (*domain.BusinessDay, bool, error) {
	row.CreatedAt = time.Now().UTC()
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &row, true, nil
	}
	cur, err := GetBusinessDay(ctx, db, row.DateKey)
	if err != nil {
		return nil, false, err
	}
	return cur, false, nil
}

// IsPaid reports whether rent was transferred for the date key.
func IsPaid(ctx context.Context, db *gorm.DB, dateKey string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.PaidDate{}).
		Where("date_key = ?", dateKey).
		Count(&n).Error
	return n > 0, err
}

// InsertPaidDate records a payment; ErrDuplicate when the date is already
// paid.
func InsertPaidDate(ctx context.Context, db *gorm.DB, row domain.PaidDate) error {
	row.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
