package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/rentald/internal/domain"
)

// GetIdempotency returns the live binding for (caller, key), or ErrNotFound
// when there is none or it expired at or before now.
func GetIdempotency(ctx context.Context, db *gorm.DB, caller, key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.Idempotency
	err := db.WithContext(ctx).
		Where("caller = ? AND key = ?", caller, key).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	if !rec.Live(now) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// BindIdempotency records that (caller, key) produced requestID until
// now+ttl. An expired binding for the same pair is overwritten in place; a
// live one is left alone and ErrDuplicate is returned.
func BindIdempotency(ctx context.Context, db *gorm.DB, caller, key, requestID string, now time.Time, ttl time.Duration) (*domain.Idempotency, error) {
	rec := &domain.Idempotency{
		Caller:    caller,
		Key:       key,
		RequestID: requestID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "caller"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"request_id", "created_at", "expires_at"}),
		Where:     clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "idempotency_keys.expires_at <= ?", Vars: []any{now}}}},
	}).Create(rec)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, ErrDuplicate
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrDuplicate
	}
	return rec, nil
}

// PurgeIdempotency deletes bindings that expired at or before now and
// returns how many were removed.
func PurgeIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Idempotency{})
	return res.RowsAffected, res.Error
}
