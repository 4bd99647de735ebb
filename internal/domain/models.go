// Package domain defines the persistence models of the rental contract:
// its configuration row, the funding ledger balances, outstanding oracle
// requests, the date classification cache, the paid-date guard and the
// event log. These types are mapped with GORM and shared by the repository
// and service layers.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractState is the single configuration row of the contract instance.
//
// Fields:
//   - Address: the contract's own ledger account.
//   - Owner: the deployer; fixed at construction, never transferred.
//   - FeeToken / Oracle: addresses linked at construction time.
//   - RentalAmount: native base units paid per qualifying date.
//   - CurrentDate: storage key of the last date a check was requested for.
//   - Nonce: per-contract request counter feeding request id derivation.
type ContractState struct {
	ID           uint            `json:"-"             gorm:"primaryKey"`
	Address      string          `json:"address"       gorm:"type:varchar(66);not null"`
	Owner        string          `json:"owner"         gorm:"type:varchar(66);not null"`
	FeeToken     string          `json:"fee_token"     gorm:"type:varchar(66);not null"`
	Oracle       string          `json:"oracle"        gorm:"type:varchar(66);not null"`
	RentalAmount decimal.Decimal `json:"rental_amount" gorm:"type:TEXT NOT NULL"`
	CurrentDate  string          `json:"-"             gorm:"column:last_date_key;type:TEXT NOT NULL;default:''"`
	Nonce        uint64          `json:"nonce"         gorm:"not null;default:0"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName returns the database table name for ContractState.
func (ContractState) TableName() string { return "contract_state" }

// Balance is one ledger position: the amount of Asset held by Account.
type Balance struct {
	Account   string          `json:"account"    gorm:"type:varchar(66);primaryKey"`
	Asset     Asset           `json:"asset"      gorm:"type:varchar(8);primaryKey"`
	Amount    decimal.Decimal `json:"amount"     gorm:"type:TEXT NOT NULL"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Balance.
func (Balance) TableName() string { return "balances" }

// RequestStatus is the lifecycle state of an oracle request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestExpired   RequestStatus = "expired"
)

// OracleRequest correlates a request id with the date it was issued for.
// A row is outstanding while Status is pending; fulfillment and expiry move
// it to a terminal state so late or duplicate callbacks can be told apart
// from ids that were never issued.
type OracleRequest struct {
	ID          string          `json:"request_id"             gorm:"type:char(66);primaryKey"`
	JobID       string          `json:"job_id"                 gorm:"type:char(66);not null"`
	DateKey     string          `json:"-"                      gorm:"type:TEXT NOT NULL;index"`
	Region      string          `json:"region"                 gorm:"type:TEXT NOT NULL"`
	Requester   string          `json:"requester"              gorm:"type:varchar(66);not null"`
	Nonce       uint64          `json:"nonce"                  gorm:"not null"`
	Payment     decimal.Decimal `json:"payment"                gorm:"type:TEXT NOT NULL"`
	Status      RequestStatus   `json:"status"                 gorm:"type:varchar(16);not null;index:idx_req_status_exp,priority:1"`
	Response    string          `json:"response,omitempty"     gorm:"type:TEXT NOT NULL;default:''"`
	ExpiresAt   time.Time       `json:"expires_at"             gorm:"not null;index:idx_req_status_exp,priority:2"`
	FulfilledAt *time.Time      `json:"fulfilled_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName returns the database table name for OracleRequest.
func (OracleRequest) TableName() string { return "oracle_requests" }

// Date returns the raw date the request was issued for.
func (r OracleRequest) Date() Bytes32 { return Bytes32FromKey(r.DateKey) }

// BusinessDay is the oracle's classification of a date, written once.
type BusinessDay struct {
	DateKey        string    `gorm:"type:TEXT;primaryKey"`
	Classification string    `gorm:"type:TEXT NOT NULL"`
	RequestID      string    `gorm:"type:char(66);not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// TableName returns the database table name for BusinessDay.
func (BusinessDay) TableName() string { return "business_days" }

// PaidDate records that rent was transferred for a date. Rows are never
// updated or deleted; the primary key is the exactly-once guard.
type PaidDate struct {
	DateKey     string          `gorm:"type:TEXT;primaryKey"`
	Amount      decimal.Decimal `gorm:"type:TEXT NOT NULL"`
	Beneficiary string          `gorm:"type:varchar(66);not null"`
	RequestID   string          `gorm:"type:char(66);not null"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

// TableName returns the database table name for PaidDate.
func (PaidDate) TableName() string { return "paid_dates" }

// Event is an append-only audit record of a contract state change.
// Payload holds the JSON-encoded event fields.
type Event struct {
	Seq       uint64    `json:"seq"                  gorm:"primaryKey;autoIncrement"`
	EventID   string    `json:"id"                   gorm:"type:char(36);uniqueIndex"`
	Name      string    `json:"name"                 gorm:"type:varchar(64);not null;index"`
	RequestID string    `json:"request_id,omitempty" gorm:"type:TEXT NOT NULL;default:'';index"`
	Payload   string    `json:"payload"              gorm:"type:TEXT NOT NULL"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Event.
func (Event) TableName() string { return "events" }
