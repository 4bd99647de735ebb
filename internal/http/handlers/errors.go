package handlers

import "github.com/tbourn/rentald/internal/http/middleware"

// Error codes carried in ErrorResponse.Code. Clients branch on these, never
// on messages. Codes shared with middleware rejections come from there.
const (
	ErrCodeBadRequest       = middleware.CodeBadRequest
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = middleware.CodeInternal

	// ErrCodeInsufficientFunds: the contract cannot pay a request fee or rent.
	ErrCodeInsufficientFunds = "insufficient_funds"
)
