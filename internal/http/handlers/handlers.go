// Package handlers exposes the rental contract over HTTP.
//
// Handlers are transport-thin: they validate input, call the contract
// service, and translate results and errors into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/rentald/internal/domain"
	"github.com/tbourn/rentald/internal/services"
	"github.com/tbourn/rentald/internal/utils"
)

//
// Service contract (context-aware)
//

// RentalService defines the contract operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RentalService interface {
	// RequestDateCheck pays the oracle fee and issues a classification request.
	RequestDateCheck(ctx context.Context, in services.CheckInput) (*services.CheckResult, error)
	// FulfillDateCheck records the oracle answer and pays rent when it qualifies.
	FulfillDateCheck(ctx context.Context, caller, requestID, data string) (*services.FulfillResult, error)
	// SetRentalAmount changes the rent per qualifying date (owner only).
	SetRentalAmount(ctx context.Context, caller string, amount decimal.Decimal) error
	RentalAmount(ctx context.Context) (decimal.Decimal, error)
	CurrentDate(ctx context.Context) (domain.Bytes32, error)
	DateStatus(ctx context.Context, rawDate string) (*services.DateStatus, error)
	Request(ctx context.Context, id string) (*domain.OracleRequest, error)
	Fund(ctx context.Context, caller string, asset domain.Asset, amount decimal.Decimal) (decimal.Decimal, error)
	Balances(ctx context.Context) ([]domain.Balance, error)
	// EventsPage returns a page of the event log, optionally filtered by name.
	EventsPage(ctx context.Context, name string, page, pageSize int) ([]domain.Event, int64, error)
	// EventsStats returns the count and highest sequence number of the log.
	EventsStats(ctx context.Context, name string) (int64, uint64, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the rental contract.
type Handlers struct {
	svc RentalService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(svc RentalService) *Handlers {
	return &Handlers{svc: svc}
}

// HeaderAccount carries the caller account, set by the fronting gateway.
const HeaderAccount = "X-Account"

// account returns the calling account: the "account" context value set by
// middleware, else the X-Account header, lower-cased. Empty when anonymous.
func account(c *gin.Context) string {
	if v, ok := c.Get("account"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		return strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderAccount)))
	}
	return ""
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.Page{Number: page, Size: pageSize}.TotalPages(total)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses page/page_size from query parameters, applies sane
// defaults and caps, and returns the validated (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 50
		maxPageSize     = 200
	)
	p := utils.ParsePage(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
	return p.Number, p.Size
}

// failService maps a contract error onto the error envelope.
func failService(c *gin.Context, err error) {
	var inv *services.InvalidArgumentError
	switch {
	case errors.As(err, &inv):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, inv.Msg)
	case errors.Is(err, services.ErrInsufficientFunds):
		fail(c, http.StatusPaymentRequired, ErrCodeInsufficientFunds, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrUnknownRequest):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrAlreadyFulfilled), errors.Is(err, services.ErrRequestExpired):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "request cancelled")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// DateView is the wire form of a date: the raw text plus its bytes32 hex.
type DateView struct {
	Date    string `json:"date"     example:"2019-01-02"`
	DateHex string `json:"date_hex" example:"0x323031392d30312d3032"`
}

func dateView(d domain.Bytes32) DateView {
	return DateView{Date: d.String(), DateHex: d.Hex()}
}
