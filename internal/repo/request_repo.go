// Package repo implements the data persistence layer for the rental
// contract. This file provides repository functions for oracle requests.
//
// Status transitions are guarded in SQL (WHERE status = 'pending') so a
// request can leave the pending state exactly once; callers learn about a
// lost race through ErrNotPending.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/rentald/internal/domain"
)

// ErrNotPending is returned when a status transition finds the request no
// longer pending.
var ErrNotPending = errors.New("request is not pending")

// CreateRequest inserts a new pending oracle request.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.OracleRequest) error {
	now := time.Now().UTC()
	r.Status = domain.RequestPending
	r.CreatedAt = now
	r.UpdatedAt = now
	return db.WithContext(ctx).Create(r).Error
}

// GetRequest fetches a request by id, or ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.OracleRequest, error) {
	var r domain.OracleRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// MarkFulfilled moves a pending request to fulfilled and stores the raw
// response.
func MarkFulfilled(ctx context.Context, db *gorm.DB, id, response string, at time.Time) error {
	res := db.WithContext(ctx).Model(&domain.OracleRequest{}).
		Where("id = ? AND status = ?", id, domain.RequestPending).
		Updates(map[string]any{
			"status":       domain.RequestFulfilled,
			"response":     response,
			"fulfilled_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotPending
	}
	return nil
}

// MarkExpired moves a pending request to expired.
func MarkExpired(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	res := db.WithContext(ctx).Model(&domain.OracleRequest{}).
		Where("id = ? AND status = ?", id, domain.RequestPending).
		Updates(map[string]any{"status": domain.RequestExpired, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotPending
	}
	return nil
}

// ListExpiredPending returns up to limit pending requests whose expiry is
// at or before now, oldest first.
func ListExpiredPending(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.OracleRequest, error) {
	var out []domain.OracleRequest
	err := db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", domain.RequestPending, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPending returns the number of outstanding requests.
func CountPending(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.OracleRequest{}).
		Where("status = ?", domain.RequestPending).
		Count(&n).Error
	return n, err
}
