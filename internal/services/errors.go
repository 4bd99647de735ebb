// Package services implements the rental contract entry points. This file
// centralizes the service-level error values so that handlers can map them
// to HTTP results consistently.
//
// Every failure aborts the whole state transition of the call: no partial
// writes survive a returned error.
package services

import (
	"errors"

	"github.com/tbourn/rentald/internal/ledger"
)

// ErrInvalidArgument matches every InvalidArgumentError via errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError carries a caller-facing validation message.
type InvalidArgumentError struct{ Msg string }

func (e *InvalidArgumentError) Error() string { return e.Msg }

// Is makes every InvalidArgumentError match ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

func invalid(msg string) error { return &InvalidArgumentError{Msg: msg} }

// Validation errors.
var (
	// ErrRegionRequired is returned by RequestDateCheck for an empty region.
	ErrRegionRequired = invalid("Region must be set.")

	// ErrDateRequired is returned by RequestDateCheck for an empty date.
	ErrDateRequired = invalid("Date must be set.")

	// ErrInvalidAmount is returned for negative or fractional amounts.
	ErrInvalidAmount = invalid("amount must be a non-negative integer of base units")
)

// Access and lifecycle errors.
var (
	// ErrUnauthorized is returned when the caller lacks the required role
	// (owner for configuration, responder for fulfillment).
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrUnknownRequest is returned for a request id that was never issued.
	ErrUnknownRequest = errors.New("unknown request")

	// ErrAlreadyFulfilled is returned when a request was answered before.
	ErrAlreadyFulfilled = errors.New("request already fulfilled")

	// ErrRequestExpired is returned when a request passed its expiration.
	ErrRequestExpired = errors.New("request expired")

	// ErrInsufficientFunds is returned when the contract cannot pay the
	// request fee or the rent.
	ErrInsufficientFunds = ledger.ErrInsufficientFunds
)
