package domain

import "time"

// Idempotency binds a caller's Idempotency-Key to the oracle request it
// created. While the binding is live a retried check replays that request
// and pays no second fee.
type Idempotency struct {
	Caller    string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Key       string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	RequestID string    `gorm:"type:TEXT NOT NULL;index"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

func (Idempotency) TableName() string { return "idempotency_keys" }

// Live reports whether the binding still replays at now.
func (i Idempotency) Live(now time.Time) bool { return now.Before(i.ExpiresAt) }
