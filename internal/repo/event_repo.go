// Package repo implements the data persistence layer for the rental
// contract. This file provides the append-only event log.
package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/rentald/internal/domain"
)

// AppendEvent JSON-encodes payload and appends it to the log.
func AppendEvent(ctx context.Context, db *gorm.DB, name, requestID string, payload any) (*domain.Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	ev := &domain.Event{
		EventID:   uuid.NewString(),
		Name:      name,
		RequestID: requestID,
		Payload:   string(b),
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

// eventScope filters by name when one is given.
func eventScope(db *gorm.DB, name string) *gorm.DB {
	q := db.Model(&domain.Event{})
	if name != "" {
		q = q.Where("name = ?", name)
	}
	return q
}

// CountEvents returns the number of events, optionally of a single name.
func CountEvents(ctx context.Context, db *gorm.DB, name string) (int64, error) {
	var n int64
	err := eventScope(db.WithContext(ctx), name).Count(&n).Error
	return n, err
}

// ListEventsPage returns events in append order.
func ListEventsPage(ctx context.Context, db *gorm.DB, name string, offset, limit int) ([]domain.Event, error) {
	var out []domain.Event
	err := eventScope(db.WithContext(ctx), name).
		Order("seq ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListEventsByRequest returns every event tied to a request id.
func ListEventsByRequest(ctx context.Context, db *gorm.DB, requestID string) ([]domain.Event, error) {
	var out []domain.Event
	err := db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("seq ASC").
		Find(&out).Error
	return out, err
}
