// Package repo implements the data persistence layer for the rental
// contract. This file provides small aggregate queries used for
// conditional responses (weak ETags) in the HTTP layer.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// EventsStats returns the number of events (optionally of one name) and the
// highest sequence number among them. The log is append-only, so the pair
// changes whenever the visible result does.
func EventsStats(ctx context.Context, db *gorm.DB, name string) (count int64, maxSeq uint64, err error) {
	q := eventScope(db.WithContext(ctx), name)
	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}
	var row struct {
		Seq uint64
	}
	if err = eventScope(db.WithContext(ctx), name).Select("seq").Order("seq DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.Seq, nil
}
